package vpc

import "tasnim.dev/vpc-planner/internal/cidr"

type VPCInfo struct {
	VPCID     string `json:"vpc_id" yaml:"vpc_id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	CIDR      string `json:"cidr" yaml:"cidr"`
	IsDefault bool   `json:"is_default" yaml:"is_default"`
	State     string `json:"state" yaml:"state"`
}

type SubnetInfo struct {
	SubnetID     string `json:"subnet_id" yaml:"subnet_id"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	CIDR         string `json:"cidr" yaml:"cidr"`
	AZ           string `json:"az" yaml:"az"`
	AvailableIPs int    `json:"available_ips" yaml:"available_ips"`
}

type SecurityGroupInfo struct {
	GroupID       string `json:"group_id" yaml:"group_id"`
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	InboundRules  int    `json:"inbound_rules" yaml:"inbound_rules"`
	OutboundRules int    `json:"outbound_rules" yaml:"outbound_rules"`
}

type InternetGatewayInfo struct {
	GatewayID string `json:"gateway_id" yaml:"gateway_id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	State     string `json:"state" yaml:"state"`
}

// AuditReport describes the address space of an existing VPC.
type AuditReport struct {
	VPC              VPCInfo               `json:"vpc" yaml:"vpc"`
	Subnets          []SubnetInfo          `json:"subnets" yaml:"subnets"`
	InternetGateways []InternetGatewayInfo `json:"internet_gateways" yaml:"internet_gateways"`
	SecurityGroups   []SecurityGroupInfo   `json:"security_groups" yaml:"security_groups"`
	Violations       []string              `json:"violations,omitempty" yaml:"violations,omitempty"`
	Free             []cidr.Block          `json:"free" yaml:"free"`
}

// Overlap is an existing VPC whose block intersects a planned block.
type Overlap struct {
	VPC    VPCInfo `json:"vpc" yaml:"vpc"`
	Nested bool    `json:"nested" yaml:"nested"`
}
