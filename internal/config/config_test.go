package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/vpc-planner/internal/plan"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DefaultProfile)
	assert.Equal(t, "", cfg.DefaultRegion)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
default_profile: my-profile
default_region: eu-west-1
name_prefix: staging
vpc_cidr: 10.20.0.0/16
public_subnet_cidrs: [10.20.0.0/20, 10.20.16.0/20]
private_subnet_cidrs: [10.20.128.0/18, 10.20.192.0/18]
availability_zones: [eu-west-1a, eu-west-1b]
nat_per_az: false
log_level: debug
log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-profile", cfg.DefaultProfile)
	assert.Equal(t, "eu-west-1", cfg.DefaultRegion)
	assert.Equal(t, "staging", cfg.Prefix())
	assert.Equal(t, "10.20.0.0/16", cfg.VPCCIDR)
	assert.Equal(t, []string{"10.20.0.0/20", "10.20.16.0/20"}, cfg.PublicSubnetCIDRs)
	require.NotNil(t, cfg.NATPerAZ)
	assert.False(t, *cfg.NATPerAZ)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_YAMLRegionKey(t *testing.T) {
	path := writeFile(t, "config.yaml", "region: eu-west-1\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	_, r := cfg.Merge("", "")
	assert.Equal(t, "eu-west-1", r)

	// default_region wins when both are set, flags win over both
	cfg.DefaultRegion = "us-east-2"
	_, r = cfg.Merge("", "")
	assert.Equal(t, "us-east-2", r)
	_, r = cfg.Merge("", "ap-south-1")
	assert.Equal(t, "ap-south-1", r)
}

func TestLoad_TFVars(t *testing.T) {
	path := writeFile(t, "terraform.tfvars", `
region               = "us-west-2"
vpc_cidr             = "192.168.0.0/16"
public_subnet_cidrs  = ["192.168.0.0/18", "192.168.64.0/18"]
private_subnet_cidrs = ["192.168.128.0/18", "192.168.192.0/18"]
az_count             = 2
nat_per_az           = true

# unrelated variables are ignored
instance_type = "t3.micro"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.DefaultRegion)
	assert.Equal(t, "192.168.0.0/16", cfg.VPCCIDR)
	assert.Equal(t, []string{"192.168.128.0/18", "192.168.192.0/18"}, cfg.PrivateSubnetCIDRs)
	assert.Equal(t, 2, cfg.AZCount)
	require.NotNil(t, cfg.NATPerAZ)
	assert.True(t, *cfg.NATPerAZ)
	assert.Nil(t, cfg.Remain)
}

func TestLoad_TFVarsSyntaxError(t *testing.T) {
	path := writeFile(t, "bad.tfvars", `vpc_cidr = [`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing")
}

func TestLoad_TFVarsWrongType(t *testing.T) {
	path := writeFile(t, "bad.tfvars", `az_count = "many"`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "decoding")
}

func TestMerge_CLIFlagsTakePrecedence(t *testing.T) {
	cfg := &Config{DefaultProfile: "config-profile", DefaultRegion: "us-east-1"}

	// CLI flags override
	p, r := cfg.Merge("cli-profile", "ap-south-1")
	assert.Equal(t, "cli-profile", p)
	assert.Equal(t, "ap-south-1", r)

	// Empty flags fall back to config
	p, r = cfg.Merge("", "")
	assert.Equal(t, "config-profile", p)
	assert.Equal(t, "us-east-1", r)

	// Partial override
	p, r = cfg.Merge("other", "")
	assert.Equal(t, "other", p)
	assert.Equal(t, "us-east-1", r)
}

func TestNetworkConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	nc := cfg.NetworkConfig("us-east-1")

	want := plan.DefaultNetworkConfig()
	want.Region = "us-east-1"
	assert.Equal(t, want, nc)
	assert.Equal(t, DefaultNamePrefix, cfg.Prefix())
}

func TestNetworkConfig_CustomVPCWithoutSubnets(t *testing.T) {
	nc := (&Config{VPCCIDR: "10.0.0.0/16"}).NetworkConfig("")
	assert.Equal(t, "10.0.0.0/16", nc.VPCBlock)
	assert.Nil(t, nc.PublicSubnetBlocks)
	assert.Nil(t, nc.PrivateSubnetBlocks)
	assert.Equal(t, 2, nc.PublicSubnetCount)
	assert.Equal(t, 2, nc.PrivateSubnetCount)

	p, err := plan.Compile(nc)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/18", p.Subnets[0].Block.String())
}

func TestNetworkConfig_Overrides(t *testing.T) {
	natPerAZ := false
	cfg := &Config{
		VPCCIDR:            "10.0.0.0/16",
		PublicSubnetCount:  1,
		PrivateSubnetCount: 3,
		AvailabilityZones:  []string{"a", "b", "c"},
		NATPerAZ:           &natPerAZ,
	}
	nc := cfg.NetworkConfig("eu-central-1")

	assert.Equal(t, "eu-central-1", nc.Region)
	assert.Empty(t, nc.PublicSubnetBlocks)
	assert.Equal(t, 1, nc.PublicSubnetCount)
	assert.Equal(t, 3, nc.PrivateSubnetCount)
	assert.Equal(t, 0, nc.AZCount)
	assert.Equal(t, []string{"a", "b", "c"}, nc.AvailabilityZones)
	assert.False(t, nc.NATPerAZ)

	p, err := plan.Compile(nc)
	require.NoError(t, err)
	assert.Equal(t, 3, p.AZCount)
}
