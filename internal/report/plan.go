package report

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"tasnim.dev/vpc-planner/internal/cidr"
	"tasnim.dev/vpc-planner/internal/plan"
	"tasnim.dev/vpc-planner/internal/tui/theme"
	"tasnim.dev/vpc-planner/internal/utils"
)

// PlanDocument is the structured form of a rendered plan.
type PlanDocument struct {
	Plan  *plan.NetworkPlan    `json:"plan" yaml:"plan"`
	Free  []cidr.Block         `json:"free" yaml:"free"`
	Order []*plan.ResourceNode `json:"order" yaml:"order"`
}

// NewPlanDocument computes the free space and execution order of p.
func NewPlanDocument(p *plan.NetworkPlan, g plan.Graph) (*PlanDocument, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("ordering resources: %w", err)
	}
	used := make([]cidr.Block, len(p.Subnets))
	for i, s := range p.Subnets {
		used[i] = s.Block
	}
	free, err := cidr.Unallocated(p.VPCBlock, used)
	if err != nil {
		return nil, err
	}
	return &PlanDocument{Plan: p, Free: free, Order: order}, nil
}

func zoneLabel(p *plan.NetworkPlan, az int) string {
	if name := p.ZoneName(az); name != "" {
		return name
	}
	return "az" + strconv.Itoa(az)
}

// Plan renders the subnets, warnings, free space and execution order.
func (r *Renderer) Plan(p *plan.NetworkPlan, g plan.Graph) error {
	doc, err := NewPlanDocument(p, g)
	if err != nil {
		return err
	}
	if ok, err := r.structured(doc); ok {
		return err
	}

	d := r.details()
	d.Section("Network plan")
	d.Row("Region", utils.OrDash(p.Region))
	d.Row("VPC", fmt.Sprintf("%s (%s addresses)", p.VPCBlock, utils.Count(p.VPCBlock.Size())))
	zones := strconv.Itoa(p.AZCount)
	if len(p.AvailabilityZones) > 0 {
		zones += " (" + strings.Join(p.AvailabilityZones, ", ") + ")"
	}
	d.Row("Zones", zones)
	if p.NATPerAZ {
		d.Row("NAT", "one per zone")
	} else {
		d.Row("NAT", "shared")
	}
	d.Blank()

	rows := make([][]string, 0, len(p.Subnets))
	for _, s := range p.Subnets {
		rows = append(rows, []string{
			s.Name(),
			r.status(string(s.Role)),
			s.Block.String(),
			zoneLabel(p, s.AZIndex),
			utils.Count(s.Block.Size()),
		})
	}
	d.WriteString(r.table([]string{"SUBNET", "ROLE", "CIDR", "ZONE", "ADDRESSES"}, rows) + "\n")

	if len(p.Warnings) > 0 {
		d.Blank()
		d.Section("Warnings")
		for _, w := range p.Warnings {
			d.Bullet(r.style(theme.WarningStyle).Render(w))
		}
	}

	d.Blank()
	d.Section("Free space")
	if len(doc.Free) == 0 {
		d.Bullet(r.style(theme.MutedStyle).Render("none"))
	}
	for _, b := range doc.Free {
		d.Bullet(fmt.Sprintf("%s (%s addresses)", b, utils.Count(b.Size())))
	}

	d.Blank()
	d.Section("Execution order")
	rows = rows[:0]
	for i, n := range doc.Order {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			n.Name,
			string(n.Kind),
			strings.Join(n.DependsOn, ", "),
		})
	}
	d.WriteString(r.table([]string{"#", "RESOURCE", "KIND", "DEPENDS ON"}, rows) + "\n")

	return r.write(d.String())
}

// ValidationDocument is the structured result of validating a configuration.
type ValidationDocument struct {
	Valid      bool     `json:"valid" yaml:"valid"`
	Subnets    int      `json:"subnets,omitempty" yaml:"subnets,omitempty"`
	Zones      int      `json:"zones,omitempty" yaml:"zones,omitempty"`
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Validation renders the outcome of plan.Compile. err may hold several
// violations combined with multierr; each is listed on its own line.
func (r *Renderer) Validation(p *plan.NetworkPlan, err error) error {
	doc := ValidationDocument{Valid: err == nil}
	for _, e := range multierr.Errors(err) {
		doc.Violations = append(doc.Violations, e.Error())
	}
	if p != nil {
		doc.Subnets = len(p.Subnets)
		doc.Zones = p.AZCount
		doc.Warnings = p.Warnings
	}
	if ok, err := r.structured(doc); ok {
		return err
	}

	d := r.details()
	if doc.Valid {
		d.WriteString(r.style(theme.SuccessStyle).Render(fmt.Sprintf(
			"configuration is valid: %s across %s",
			utils.Plural(doc.Subnets, "subnet"), utils.Plural(doc.Zones, "zone"))) + "\n")
	} else {
		d.WriteString(r.style(theme.ErrorStyle).Render(utils.Plural(len(doc.Violations), "violation")) + "\n")
		for _, v := range doc.Violations {
			d.Bullet(v)
		}
	}
	for _, w := range doc.Warnings {
		d.Bullet(r.style(theme.WarningStyle).Render("warning: " + w))
	}
	return r.write(d.String())
}
