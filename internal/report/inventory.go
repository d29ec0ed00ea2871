package report

import (
	"fmt"
	"strconv"

	"tasnim.dev/vpc-planner/internal/aws/vpc"
	"tasnim.dev/vpc-planner/internal/cidr"
	"tasnim.dev/vpc-planner/internal/plan"
	"tasnim.dev/vpc-planner/internal/tui/theme"
	"tasnim.dev/vpc-planner/internal/utils"
)

type BlockRange struct {
	CIDR      cidr.Block `json:"cidr" yaml:"cidr"`
	First     string     `json:"first" yaml:"first"`
	Last      string     `json:"last" yaml:"last"`
	Addresses uint64     `json:"addresses" yaml:"addresses"`
}

type SplitDocument struct {
	Parent cidr.Block   `json:"parent" yaml:"parent"`
	Blocks []BlockRange `json:"blocks" yaml:"blocks"`
}

// Split renders the result of cidr.EqualSplit.
func (r *Renderer) Split(parent cidr.Block, blocks []cidr.Block) error {
	doc := SplitDocument{Parent: parent, Blocks: make([]BlockRange, len(blocks))}
	for i, b := range blocks {
		doc.Blocks[i] = BlockRange{
			CIDR:      b,
			First:     b.Network().String(),
			Last:      b.Broadcast().String(),
			Addresses: b.Size(),
		}
	}
	if ok, err := r.structured(doc); ok {
		return err
	}

	rows := make([][]string, len(doc.Blocks))
	for i, b := range doc.Blocks {
		rows[i] = []string{strconv.Itoa(i + 1), b.CIDR.String(), b.First, b.Last, utils.Count(b.Addresses)}
	}
	d := r.details()
	d.Section(fmt.Sprintf("%s in %s", utils.Plural(len(blocks), "block"), parent))
	d.WriteString(r.table([]string{"#", "CIDR", "FIRST", "LAST", "ADDRESSES"}, rows) + "\n")
	return r.write(d.String())
}

type OverlapDocument struct {
	Block    cidr.Block    `json:"block" yaml:"block"`
	Region   string        `json:"region,omitempty" yaml:"region,omitempty"`
	Overlaps []vpc.Overlap `json:"overlaps" yaml:"overlaps"`
}

// Overlaps renders the existing VPCs that collide with a planned block.
func (r *Renderer) Overlaps(region string, block cidr.Block, overlaps []vpc.Overlap) error {
	if overlaps == nil {
		overlaps = []vpc.Overlap{}
	}
	if ok, err := r.structured(OverlapDocument{Block: block, Region: region, Overlaps: overlaps}); ok {
		return err
	}

	d := r.details()
	if len(overlaps) == 0 {
		d.WriteString(r.style(theme.SuccessStyle).Render(
			fmt.Sprintf("no existing VPC in %s overlaps %s", utils.OrDash(region), block)) + "\n")
		return r.write(d.String())
	}

	d.WriteString(r.style(theme.ErrorStyle).Render(
		fmt.Sprintf("%s overlaps %s", block, utils.Plural(len(overlaps), "existing VPC"))) + "\n")
	rows := make([][]string, len(overlaps))
	for i, o := range overlaps {
		relation := "overlap"
		if o.Nested {
			relation = "nested"
		}
		rows[i] = []string{
			o.VPC.VPCID,
			utils.OrDash(o.VPC.Name),
			o.VPC.CIDR,
			strconv.FormatBool(o.VPC.IsDefault),
			r.status(relation),
		}
	}
	d.WriteString(r.table([]string{"VPC", "NAME", "CIDR", "DEFAULT", "RELATION"}, rows) + "\n")
	return r.write(d.String())
}

// Audit renders the inventory and address-space check of an existing VPC.
func (r *Renderer) Audit(a *vpc.AuditReport) error {
	if ok, err := r.structured(a); ok {
		return err
	}

	d := r.details()
	d.Section("VPC " + a.VPC.VPCID)
	d.Row("Name", utils.OrDash(a.VPC.Name))
	d.Row("CIDR", a.VPC.CIDR)
	d.Row("State", r.status(a.VPC.State))
	d.Row("Default", strconv.FormatBool(a.VPC.IsDefault))
	d.Blank()

	d.Section("Subnets")
	rows := make([][]string, len(a.Subnets))
	for i, s := range a.Subnets {
		rows[i] = []string{s.SubnetID, utils.OrDash(s.Name), s.CIDR, s.AZ, strconv.Itoa(s.AvailableIPs)}
	}
	d.WriteString(r.table([]string{"SUBNET", "NAME", "CIDR", "ZONE", "FREE IPS"}, rows) + "\n")
	d.Blank()

	d.Section("Gateways and security groups")
	for _, g := range a.InternetGateways {
		d.Row(g.GatewayID, r.status(g.State))
	}
	for _, sg := range a.SecurityGroups {
		d.Row(sg.GroupID, fmt.Sprintf("%s (%d in, %d out)", sg.Name, sg.InboundRules, sg.OutboundRules))
	}
	d.Blank()

	d.Section("Address space")
	if len(a.Violations) == 0 {
		d.Bullet(r.style(theme.SuccessStyle).Render("no overlapping or stray subnets"))
	}
	for _, v := range a.Violations {
		d.Bullet(r.style(theme.ErrorStyle).Render(v))
	}
	for _, b := range a.Free {
		d.Bullet(fmt.Sprintf("free %s (%s addresses)", b, utils.Count(b.Size())))
	}
	return r.write(d.String())
}

type CreatedResource struct {
	Name string    `json:"name" yaml:"name"`
	Kind plan.Kind `json:"kind" yaml:"kind"`
	ID   string    `json:"id" yaml:"id"`
}

// Created renders the IDs returned by plan.Execute in execution order.
// Nodes without an ID were not reached.
func (r *Renderer) Created(order []*plan.ResourceNode, ids map[string]string) error {
	created := make([]CreatedResource, 0, len(ids))
	for _, n := range order {
		if id, ok := ids[n.Name]; ok {
			created = append(created, CreatedResource{Name: n.Name, Kind: n.Kind, ID: id})
		}
	}
	if ok, err := r.structured(created); ok {
		return err
	}

	rows := make([][]string, len(created))
	for i, c := range created {
		rows[i] = []string{c.Name, string(c.Kind), c.ID}
	}
	d := r.details()
	d.Section(fmt.Sprintf("Created %d of %d resources", len(created), len(order)))
	d.WriteString(r.table([]string{"RESOURCE", "KIND", "ID"}, rows) + "\n")
	return r.write(d.String())
}
