package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasnim.dev/vpc-planner/internal/cidr"
	"tasnim.dev/vpc-planner/internal/report"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSplitCmd(t *testing.T) {
	out, _, err := run(t, "split", "10.0.0.0/16", "4", "-o", "json")
	require.NoError(t, err)

	var doc report.SplitDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, cidr.MustParse("10.0.192.0/18"), doc.Blocks[3].CIDR)
}

func TestSplitCmd_Errors(t *testing.T) {
	_, _, err := run(t, "split", "10.0.0.1/16", "4")
	var invalid *cidr.InvalidInputError
	assert.ErrorAs(t, err, &invalid)

	_, _, err = run(t, "split", "10.0.0.0/16", "3")
	assert.ErrorAs(t, err, &invalid)

	_, _, err = run(t, "split", "10.0.0.0/16", "four")
	assert.ErrorContains(t, err, "invalid count")

	_, _, err = run(t, "split", "0.0.0.0/0", "1073741824")
	assert.ErrorAs(t, err, &invalid)
	assert.ErrorContains(t, err, "at most 4096")

	_, _, err = run(t, "split", "10.0.0.0/30", "8")
	var capacity *cidr.CapacityError
	assert.ErrorAs(t, err, &capacity)
}

func TestSplitCmd_LargestAllowedCount(t *testing.T) {
	out, _, err := run(t, "split", "10.0.0.0/16", "4096", "-o", "json")
	require.NoError(t, err)

	var doc report.SplitDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Blocks, 4096)
	assert.Equal(t, 28, doc.Blocks[0].CIDR.Bits())
}

func TestPlanCmd_Defaults(t *testing.T) {
	out, _, err := run(t, "plan", "-r", "us-east-1")
	require.NoError(t, err)
	assert.Contains(t, out, "192.168.0.0/16")
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "private-2")
	assert.NotContains(t, out, "\x1b[")
}

func TestPlanCmd_TFVars(t *testing.T) {
	path := writeConfig(t, "network.tfvars", `
vpc_cidr             = "10.10.0.0/16"
public_subnet_cidrs  = ["10.10.0.0/24"]
private_subnet_cidrs = ["10.10.1.0/24"]
az_count             = 1
nat_per_az           = false
`)
	out, _, err := run(t, "plan", "--config", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "vpc_block: 10.10.0.0/16")
	assert.Contains(t, out, "name: nat")
}

func TestPlanCmd_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
vpc_cidr: 10.0.0.0/16
public_subnet_cidrs: [10.0.0.0/24, 10.1.0.0/24]
private_subnet_cidrs: [10.0.0.128/25]
az_count: 1
`)
	_, _, err := run(t, "plan", "--config", path)
	require.Error(t, err)

	var containment *cidr.ContainmentError
	assert.ErrorAs(t, err, &containment)
	var overlap *cidr.OverlapError
	assert.ErrorAs(t, err, &overlap)
}

func TestValidateCmd(t *testing.T) {
	out, _, err := run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	path := writeConfig(t, "config.yaml", "vpc_cidr: 10.0.0.0/33\n")
	out, _, err = run(t, "validate", "--config", path)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, out, "10.0.0.0/33")
}

func TestApplyCmd_DryRun(t *testing.T) {
	out, logs, err := run(t, "apply", "--dry-run", "-r", "us-east-1", "-o", "json", "--log-format", "json")
	require.NoError(t, err)

	var created []report.CreatedResource
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.NotEmpty(t, created)
	assert.Equal(t, "vpc", created[0].Name)
	assert.Equal(t, "dryrun-vpc", created[0].ID)
	assert.Contains(t, logs, `"msg":"dry run, skipping create"`)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, _, err := run(t, "plan", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestUnknownLogFormat(t *testing.T) {
	_, _, err := run(t, "plan", "--log-format", "xml")
	assert.ErrorContains(t, err, "unknown log format")
}
