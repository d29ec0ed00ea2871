package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"tasnim.dev/vpc-planner/internal/aws/vpc"
	"tasnim.dev/vpc-planner/internal/cidr"
	"tasnim.dev/vpc-planner/internal/plan"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func compileDefault(t *testing.T) (*plan.NetworkPlan, plan.Graph) {
	t.Helper()
	cfg := plan.DefaultNetworkConfig()
	cfg.Region = "us-east-1"
	cfg.AvailabilityZones = []string{"us-east-1a", "us-east-1b"}
	p, err := plan.Compile(cfg)
	require.NoError(t, err)
	return p, plan.BuildGraph(p)
}

func TestPlan_Table(t *testing.T) {
	p, g := compileDefault(t)
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Plan(p, g))

	out := buf.String()
	assert.Contains(t, out, "192.168.0.0/16 (65,536 addresses)")
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "one per zone")
	assert.Contains(t, out, "public-1")
	assert.Contains(t, out, "192.168.192.0/18")
	assert.Contains(t, out, "16,384")
	assert.Contains(t, out, "us-east-1b")
	assert.Contains(t, out, "Execution order")
	assert.NotContains(t, out, "\x1b[")

	// the default layout tiles the VPC
	free := out[strings.Index(out, "Free space"):strings.Index(out, "Execution order")]
	assert.Contains(t, free, "none")

	assert.Less(t, strings.Index(out, " vpc "), strings.Index(out, " igw "))
	assert.Less(t, strings.Index(out, " subnet-public-1 "), strings.Index(out, " nat-az0 "))
}

func TestPlan_TableShowsFreeSpaceAndWarnings(t *testing.T) {
	cfg := plan.NetworkConfig{
		VPCBlock:            "100.64.0.0/16",
		PublicSubnetBlocks:  []string{"100.64.0.0/24"},
		PrivateSubnetBlocks: []string{"100.64.1.0/24"},
		AZCount:             1,
	}
	p, err := plan.Compile(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Plan(p, plan.BuildGraph(p)))
	out := buf.String()

	assert.Contains(t, out, "Warnings")
	assert.Contains(t, out, "RFC 1918")
	assert.Contains(t, out, "100.64.2.0/23 (512 addresses)")
	assert.Contains(t, out, "shared")
	assert.Contains(t, out, "az0")
}

func TestPlan_JSON(t *testing.T) {
	p, g := compileDefault(t)
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON, false).Plan(p, g))

	var doc struct {
		Plan struct {
			VPCBlock string `json:"vpc_block"`
			Subnets  []struct {
				Role      string `json:"role"`
				CIDRBlock string `json:"cidr_block"`
				AZIndex   int    `json:"az_index"`
			} `json:"subnets"`
		} `json:"plan"`
		Free  []string `json:"free"`
		Order []struct {
			Name      string   `json:"name"`
			Kind      string   `json:"kind"`
			DependsOn []string `json:"depends_on"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "192.168.0.0/16", doc.Plan.VPCBlock)
	require.Len(t, doc.Plan.Subnets, 4)
	assert.Equal(t, "192.168.64.0/18", doc.Plan.Subnets[1].CIDRBlock)
	assert.Equal(t, 1, doc.Plan.Subnets[1].AZIndex)
	assert.Empty(t, doc.Free)
	require.Len(t, doc.Order, len(g))
	assert.Equal(t, "vpc", doc.Order[0].Name)
}

func TestPlan_YAML(t *testing.T) {
	p, g := compileDefault(t)
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatYAML, false).Plan(p, g))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	planDoc := doc["plan"].(map[string]any)
	assert.Equal(t, "192.168.0.0/16", planDoc["vpc_block"])
	assert.Equal(t, true, planDoc["nat_per_az"])
	assert.Len(t, doc["order"], len(g))
}

func TestPlan_CyclicGraph(t *testing.T) {
	p, _ := compileDefault(t)
	g := plan.Graph{
		"a": {Kind: plan.KindVPC, Name: "a", DependsOn: []string{"b"}},
		"b": {Kind: plan.KindVPC, Name: "b", DependsOn: []string{"a"}},
	}
	err := New(&bytes.Buffer{}, FormatTable, false).Plan(p, g)
	assert.ErrorContains(t, err, "dependency cycle")
}

func TestValidation_Valid(t *testing.T) {
	p, _ := compileDefault(t)
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Validation(p, nil))
	assert.Contains(t, buf.String(), "configuration is valid: 4 subnets across 2 zones")
}

func TestValidation_ListsEveryViolation(t *testing.T) {
	cfg := plan.NetworkConfig{
		VPCBlock:            "10.0.0.0/16",
		PublicSubnetBlocks:  []string{"10.0.0.0/24", "10.1.0.0/24"},
		PrivateSubnetBlocks: []string{"10.0.0.128/25"},
		AZCount:             1,
	}
	p, err := plan.Compile(cfg)
	require.Error(t, err)
	require.Nil(t, p)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Validation(p, err))
	out := buf.String()
	assert.Contains(t, out, "2 violations")
	assert.Contains(t, out, "10.1.0.0/24 is not contained in 10.0.0.0/16")
	assert.Contains(t, out, "10.0.0.0/24 contains 10.0.0.128/25")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON, false).Validation(p, err))
	var doc ValidationDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.False(t, doc.Valid)
	assert.Len(t, doc.Violations, len(multierr.Errors(err)))
}

func TestValidation_SingleError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Validation(nil, errors.New("boom")))
	assert.Contains(t, buf.String(), "1 violation")
	assert.Contains(t, buf.String(), "• boom")
}

func TestSplit(t *testing.T) {
	parent := cidr.MustParse("10.0.0.0/24")
	blocks, err := cidr.EqualSplit(parent, 4)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Split(parent, blocks))
	out := buf.String()
	assert.Contains(t, out, "4 blocks in 10.0.0.0/24")
	assert.Contains(t, out, "10.0.0.192/26")
	assert.Contains(t, out, "10.0.0.255")
	assert.Contains(t, out, "64")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON, false).Split(parent, blocks))
	var doc SplitDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, parent, doc.Parent)
	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, "10.0.0.64", doc.Blocks[1].First)
	assert.Equal(t, "10.0.0.127", doc.Blocks[1].Last)
	assert.Equal(t, uint64(64), doc.Blocks[1].Addresses)
}

func TestOverlaps(t *testing.T) {
	block := cidr.MustParse("10.0.0.0/16")

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Overlaps("us-east-1", block, nil))
	assert.Contains(t, buf.String(), "no existing VPC in us-east-1 overlaps 10.0.0.0/16")

	overlaps := []vpc.Overlap{
		{VPC: vpc.VPCInfo{VPCID: "vpc-1", CIDR: "10.0.0.0/8"}, Nested: true},
		{VPC: vpc.VPCInfo{VPCID: "vpc-2", Name: "legacy", CIDR: "10.0.128.0/17"}, Nested: true},
	}
	buf.Reset()
	require.NoError(t, New(&buf, FormatTable, false).Overlaps("us-east-1", block, overlaps))
	out := buf.String()
	assert.Contains(t, out, "overlaps 2 existing VPCs")
	assert.Contains(t, out, "vpc-2")
	assert.Contains(t, out, "legacy")
	assert.Contains(t, out, "nested")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON, false).Overlaps("us-east-1", block, nil))
	assert.Contains(t, buf.String(), `"overlaps": []`)
}

func TestAudit(t *testing.T) {
	a := &vpc.AuditReport{
		VPC:              vpc.VPCInfo{VPCID: "vpc-main", CIDR: "10.0.0.0/16", State: "available"},
		Subnets:          []vpc.SubnetInfo{{SubnetID: "subnet-a", CIDR: "10.0.0.0/24", AZ: "us-east-1a", AvailableIPs: 251}},
		InternetGateways: []vpc.InternetGatewayInfo{{GatewayID: "igw-1", State: "attached"}},
		SecurityGroups:   []vpc.SecurityGroupInfo{{GroupID: "sg-1", Name: "default", InboundRules: 1, OutboundRules: 1}},
		Violations:       []string{"10.9.0.0/24 is not contained in 10.0.0.0/16"},
		Free:             []cidr.Block{cidr.MustParse("10.0.1.0/24")},
	}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Audit(a))
	out := buf.String()
	assert.Contains(t, out, "VPC vpc-main")
	assert.Contains(t, out, "subnet-a")
	assert.Contains(t, out, "igw-1")
	assert.Contains(t, out, "default (1 in, 1 out)")
	assert.Contains(t, out, "10.9.0.0/24 is not contained in 10.0.0.0/16")
	assert.Contains(t, out, "free 10.0.1.0/24 (256 addresses)")

	buf.Reset()
	require.NoError(t, New(&buf, FormatYAML, false).Audit(a))
	assert.Contains(t, buf.String(), "vpc_id: vpc-main")
	assert.Contains(t, buf.String(), "- 10.0.1.0/24")
}

func TestCreated(t *testing.T) {
	_, g := compileDefault(t)
	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	ids := map[string]string{"vpc": "vpc-123", "igw": "igw-456"}

	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, false).Created(order, ids))
	out := buf.String()
	assert.Contains(t, out, "Created 2 of")
	assert.Contains(t, out, "vpc-123")

	buf.Reset()
	require.NoError(t, New(&buf, FormatJSON, false).Created(order, ids))
	var created []CreatedResource
	require.NoError(t, json.Unmarshal(buf.Bytes(), &created))
	require.Len(t, created, 2)
	assert.Equal(t, CreatedResource{Name: "vpc", Kind: plan.KindVPC, ID: "vpc-123"}, created[0])
	assert.Equal(t, "igw-456", created[1].ID)
}

func TestStyledOutputUsesEscapes(t *testing.T) {
	p, g := compileDefault(t)
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, true).Plan(p, g))
	assert.Contains(t, buf.String(), "●")
}
