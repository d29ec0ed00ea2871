// Package plan compiles a network configuration into a validated subnet
// allocation and a dependency graph of the resources needed to build it.
package plan

import (
	"fmt"
	"math/bits"
	"sort"

	"go.uber.org/multierr"

	"tasnim.dev/vpc-planner/internal/cidr"
)

// AWS accepts VPC and subnet blocks between /16 and /28.
const (
	awsMinPrefix = 16
	awsMaxPrefix = 28
)

type Role string

const (
	RolePublic  Role = "public"
	RolePrivate Role = "private"
)

type SubnetSpec struct {
	Role     Role       `json:"role" yaml:"role"`
	Index    int        `json:"index" yaml:"index"`
	Block    cidr.Block `json:"cidr_block" yaml:"cidr_block"`
	AZIndex  int        `json:"az_index" yaml:"az_index"`
	Explicit bool       `json:"explicit" yaml:"explicit"`
}

// Name is unique within a plan, e.g. "public-1".
func (s SubnetSpec) Name() string {
	return fmt.Sprintf("%s-%d", s.Role, s.Index)
}

// NetworkPlan is a validated allocation. It is not modified after Compile.
type NetworkPlan struct {
	Region            string       `json:"region,omitempty" yaml:"region,omitempty"`
	VPCBlock          cidr.Block   `json:"vpc_block" yaml:"vpc_block"`
	Subnets           []SubnetSpec `json:"subnets" yaml:"subnets"`
	NATPerAZ          bool         `json:"nat_per_az" yaml:"nat_per_az"`
	AZCount           int          `json:"az_count" yaml:"az_count"`
	AvailabilityZones []string     `json:"availability_zones,omitempty" yaml:"availability_zones,omitempty"`
	Warnings          []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Compile validates cfg and produces a NetworkPlan. Every violation that can
// be detected in one pass is returned, combined with multierr.
func Compile(cfg NetworkConfig) (*NetworkPlan, error) {
	var errs []error

	vpcBlock, err := cidr.Parse(cfg.VPCBlock)
	vpcOK := err == nil
	if err != nil {
		errs = append(errs, fmt.Errorf("vpc block: %w", err))
	}

	azCount, err := resolveAZCount(cfg)
	if err != nil {
		errs = append(errs, err)
	}

	nPublic, nPrivate := cfg.requestedPublic(), cfg.requestedPrivate()
	if nPublic < 1 {
		errs = append(errs, &ConfigError{Field: "public subnets", Reason: "at least one public subnet is required to host the internet-facing NAT gateway"})
	}
	if nPrivate < 1 {
		errs = append(errs, &ConfigError{Field: "private subnets", Reason: "at least one private subnet is required"})
	}
	errs = append(errs, countMismatch(cfg)...)

	var public, private []cidr.Block
	if cfg.explicitBlocks() {
		var pubErr, privErr error
		public, pubErr = cidr.ParseAll(cfg.PublicSubnetBlocks)
		private, privErr = cidr.ParseAll(cfg.PrivateSubnetBlocks)
		errs = append(errs, pubErr, privErr)
	} else if vpcOK && nPublic > 0 && nPrivate > 0 {
		public, private, err = deriveBlocks(vpcBlock, nPublic, nPrivate)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if vpcOK {
		all := append(append([]cidr.Block(nil), public...), private...)
		errs = append(errs, cidr.ValidateExplicit(vpcBlock, all))
	}

	p := &NetworkPlan{
		Region:            cfg.Region,
		VPCBlock:          vpcBlock,
		NATPerAZ:          cfg.NATPerAZ,
		AZCount:           azCount,
		AvailabilityZones: append([]string(nil), cfg.AvailabilityZones...),
	}
	if azCount > 0 {
		p.Subnets = assignZones(public, private, azCount, cfg.explicitBlocks())
		if cfg.NATPerAZ {
			errs = append(errs, p.checkNATCoverage()...)
		}
	}

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	p.Warnings = advisories(p)
	return p, nil
}

func resolveAZCount(cfg NetworkConfig) (int, error) {
	n := cfg.AZCount
	if n == 0 {
		n = len(cfg.AvailabilityZones)
	}
	if n < 1 {
		return 0, &ConfigError{Field: "az count", Reason: "at least one availability zone is required"}
	}
	if len(cfg.AvailabilityZones) > 0 && len(cfg.AvailabilityZones) != n {
		return 0, &ConfigError{
			Field:  "availability zones",
			Reason: fmt.Sprintf("%d zones listed but az count is %d", len(cfg.AvailabilityZones), n),
		}
	}
	seen := make(map[string]bool, len(cfg.AvailabilityZones))
	for _, az := range cfg.AvailabilityZones {
		if seen[az] {
			return 0, &ConfigError{Field: "availability zones", Reason: fmt.Sprintf("zone %q listed twice", az)}
		}
		seen[az] = true
	}
	return n, nil
}

func countMismatch(cfg NetworkConfig) []error {
	var errs []error
	if len(cfg.PublicSubnetBlocks) > 0 && cfg.PublicSubnetCount > 0 && cfg.PublicSubnetCount != len(cfg.PublicSubnetBlocks) {
		errs = append(errs, &ConfigError{
			Field:  "public subnet count",
			Reason: fmt.Sprintf("count %d does not match %d public blocks", cfg.PublicSubnetCount, len(cfg.PublicSubnetBlocks)),
		})
	}
	if len(cfg.PrivateSubnetBlocks) > 0 && cfg.PrivateSubnetCount > 0 && cfg.PrivateSubnetCount != len(cfg.PrivateSubnetBlocks) {
		errs = append(errs, &ConfigError{
			Field:  "private subnet count",
			Reason: fmt.Sprintf("count %d does not match %d private blocks", cfg.PrivateSubnetCount, len(cfg.PrivateSubnetBlocks)),
		})
	}
	if !cfg.explicitBlocks() {
		return errs
	}
	if len(cfg.PublicSubnetBlocks) == 0 && cfg.PublicSubnetCount > 0 {
		errs = append(errs, &ConfigError{Field: "public subnet blocks", Reason: "private blocks are explicit, so public blocks must be listed too"})
	}
	if len(cfg.PrivateSubnetBlocks) == 0 && cfg.PrivateSubnetCount > 0 {
		errs = append(errs, &ConfigError{Field: "private subnet blocks", Reason: "public blocks are explicit, so private blocks must be listed too"})
	}
	return errs
}

// deriveBlocks splits vpc into the smallest power of two that fits every
// subnet; public subnets take the lowest blocks.
func deriveBlocks(vpc cidr.Block, nPublic, nPrivate int) ([]cidr.Block, []cidr.Block, error) {
	total := nPublic + nPrivate
	n := 1 << bits.Len(uint(total-1))
	blocks, err := cidr.EqualSplit(vpc, n)
	if err != nil {
		return nil, nil, err
	}
	return blocks[:nPublic], blocks[nPublic:total], nil
}

func assignZones(public, private []cidr.Block, azCount int, explicit bool) []SubnetSpec {
	subnets := make([]SubnetSpec, 0, len(public)+len(private))
	for i, b := range public {
		subnets = append(subnets, SubnetSpec{Role: RolePublic, Index: i + 1, Block: b, AZIndex: i % azCount, Explicit: explicit})
	}
	for i, b := range private {
		subnets = append(subnets, SubnetSpec{Role: RolePrivate, Index: i + 1, Block: b, AZIndex: i % azCount, Explicit: explicit})
	}
	return subnets
}

func (p *NetworkPlan) checkNATCoverage() []error {
	hosted := make(map[int]bool)
	for _, s := range p.Subnets {
		if s.Role == RolePublic {
			hosted[s.AZIndex] = true
		}
	}

	var errs []error
	reported := make(map[int]bool)
	for _, s := range p.Subnets {
		if s.Role != RolePrivate || hosted[s.AZIndex] || reported[s.AZIndex] {
			continue
		}
		reported[s.AZIndex] = true
		errs = append(errs, &ConfigError{
			Field:  "nat per az",
			Reason: fmt.Sprintf("availability zone %d has private subnets but no public subnet to host its NAT gateway", s.AZIndex),
		})
	}
	return errs
}

func advisories(p *NetworkPlan) []string {
	var warnings []string
	if !cidr.IsRFC1918(p.VPCBlock) {
		warnings = append(warnings, fmt.Sprintf("vpc block %s is outside the RFC 1918 private ranges", p.VPCBlock))
	}
	if b := p.VPCBlock.Bits(); b < awsMinPrefix || b > awsMaxPrefix {
		warnings = append(warnings, fmt.Sprintf("vpc block %s is outside the /%d-/%d range AWS accepts", p.VPCBlock, awsMinPrefix, awsMaxPrefix))
	}
	for _, s := range p.Subnets {
		if b := s.Block.Bits(); b < awsMinPrefix || b > awsMaxPrefix {
			warnings = append(warnings, fmt.Sprintf("subnet %s block %s is outside the /%d-/%d range AWS accepts", s.Name(), s.Block, awsMinPrefix, awsMaxPrefix))
		}
	}
	return warnings
}

// SubnetsByRole returns the subnets with the given role, in plan order.
func (p *NetworkPlan) SubnetsByRole(role Role) []SubnetSpec {
	var out []SubnetSpec
	for _, s := range p.Subnets {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// PrivateZones returns the ascending AZ indices that have private subnets.
func (p *NetworkPlan) PrivateZones() []int {
	seen := make(map[int]bool)
	var zones []int
	for _, s := range p.Subnets {
		if s.Role == RolePrivate && !seen[s.AZIndex] {
			seen[s.AZIndex] = true
			zones = append(zones, s.AZIndex)
		}
	}
	sort.Ints(zones)
	return zones
}

// NATHosts returns the public subnets that host a NAT gateway: the first
// public subnet of every zone with private subnets when NATPerAZ is set,
// otherwise only the first public subnet.
func (p *NetworkPlan) NATHosts() []SubnetSpec {
	public := p.SubnetsByRole(RolePublic)
	if len(public) == 0 {
		return nil
	}
	if !p.NATPerAZ {
		return public[:1]
	}

	var hosts []SubnetSpec
	for _, az := range p.PrivateZones() {
		for _, s := range public {
			if s.AZIndex == az {
				hosts = append(hosts, s)
				break
			}
		}
	}
	return hosts
}

// ZoneName returns the configured zone name for an AZ index, or "" when
// zones are resolved later by the driver.
func (p *NetworkPlan) ZoneName(azIndex int) string {
	if azIndex < 0 || azIndex >= len(p.AvailabilityZones) {
		return ""
	}
	return p.AvailabilityZones[azIndex]
}
