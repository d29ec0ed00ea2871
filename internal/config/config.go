package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"tasnim.dev/vpc-planner/internal/logging"
	"tasnim.dev/vpc-planner/internal/plan"
)

const DefaultNamePrefix = "vpc-planner"

// Config holds optional defaults loaded from ~/.config/vpc-planner/config.yaml
// or from a file given with --config. Files ending in .tfvars or .hcl are read
// as HCL variable assignments.
type Config struct {
	DefaultProfile string `yaml:"default_profile"`
	DefaultRegion  string `yaml:"default_region" hcl:"region,optional"`
	NamePrefix     string `yaml:"name_prefix" hcl:"name_prefix,optional"`

	// Region is the tfvars spelling of default_region, accepted in YAML too.
	Region string `yaml:"region"`

	VPCCIDR            string   `yaml:"vpc_cidr" hcl:"vpc_cidr,optional"`
	PublicSubnetCIDRs  []string `yaml:"public_subnet_cidrs" hcl:"public_subnet_cidrs,optional"`
	PrivateSubnetCIDRs []string `yaml:"private_subnet_cidrs" hcl:"private_subnet_cidrs,optional"`
	PublicSubnetCount  int      `yaml:"public_subnet_count" hcl:"public_subnet_count,optional"`
	PrivateSubnetCount int      `yaml:"private_subnet_count" hcl:"private_subnet_count,optional"`
	AZCount            int      `yaml:"az_count" hcl:"az_count,optional"`
	AvailabilityZones  []string `yaml:"availability_zones" hcl:"availability_zones,optional"`
	NATPerAZ           *bool    `yaml:"nat_per_az" hcl:"nat_per_az,optional"`

	Logging logging.Config `yaml:",inline"`

	// Remain absorbs unrelated variables in shared tfvars files.
	Remain hcl.Body `yaml:"-" hcl:",remain"`
}

// DefaultPath returns ~/.config/vpc-planner/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vpc-planner", "config.yaml"), nil
}

// Load reads the config file at path. With an empty path the default
// location is used, and a missing default file yields a zero-value Config.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &Config{}, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tfvars", ".hcl":
		return decodeHCL(data, path)
	default:
		return decodeYAML(data)
	}
}

func decodeYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeHCL(data []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}
	cfg.Remain = nil
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if r == "" {
		r = c.Region
	}
	if region != "" {
		r = region
	}
	return p, r
}

// Prefix returns the Name tag prefix for created resources.
func (c *Config) Prefix() string {
	if c.NamePrefix != "" {
		return c.NamePrefix
	}
	return DefaultNamePrefix
}

func (c *Config) hasSubnets() bool {
	return len(c.PublicSubnetCIDRs) > 0 || len(c.PrivateSubnetCIDRs) > 0 ||
		c.PublicSubnetCount > 0 || c.PrivateSubnetCount > 0
}

// NetworkConfig fills in defaults and returns the planner input. A custom
// VPC block with no subnets gets two public and two private subnets carved
// from it rather than the default blocks, which would not fit.
func (c *Config) NetworkConfig(region string) plan.NetworkConfig {
	nc := plan.DefaultNetworkConfig()
	nc.Region = region

	if c.VPCCIDR != "" {
		nc.VPCBlock = c.VPCCIDR
	}
	switch {
	case c.hasSubnets():
		nc.PublicSubnetBlocks = c.PublicSubnetCIDRs
		nc.PrivateSubnetBlocks = c.PrivateSubnetCIDRs
		nc.PublicSubnetCount = c.PublicSubnetCount
		nc.PrivateSubnetCount = c.PrivateSubnetCount
	case nc.VPCBlock != plan.DefaultVPCBlock:
		nc.PublicSubnetBlocks = nil
		nc.PrivateSubnetBlocks = nil
		nc.PublicSubnetCount = len(plan.DefaultPublicSubnetBlocks)
		nc.PrivateSubnetCount = len(plan.DefaultPrivateSubnetBlocks)
	}

	if len(c.AvailabilityZones) > 0 {
		nc.AvailabilityZones = c.AvailabilityZones
		nc.AZCount = 0
	}
	if c.AZCount > 0 {
		nc.AZCount = c.AZCount
	}
	if c.NATPerAZ != nil {
		nc.NATPerAZ = *c.NATPerAZ
	}
	return nc
}
