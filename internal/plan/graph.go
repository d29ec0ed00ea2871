package plan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

type Kind string

const (
	KindVPC           Kind = "vpc"
	KindGateway       Kind = "internet_gateway"
	KindEIP           Kind = "eip"
	KindRouteTable    Kind = "route_table"
	KindRoute         Kind = "route"
	KindNAT           Kind = "nat_gateway"
	KindSubnet        Kind = "subnet"
	KindAssociation   Kind = "route_table_association"
	KindSecurityGroup Kind = "security_group"
)

// kindRank is the construction order; it breaks ties in TopologicalOrder.
var kindRank = map[Kind]int{
	KindVPC:           0,
	KindGateway:       1,
	KindEIP:           2,
	KindRouteTable:    3,
	KindRoute:         4,
	KindNAT:           5,
	KindSubnet:        6,
	KindAssociation:   7,
	KindSecurityGroup: 8,
}

// Attribute keys set on ResourceNodes.
const (
	AttrCIDRBlock   = "cidr_block"
	AttrRole        = "role"
	AttrAZIndex     = "az_index"
	AttrDestination = "destination"
	AttrTarget      = "target"
	AttrSubnet      = "subnet"
	AttrRouteTable  = "route_table"
	AttrEIP         = "eip"
	AttrVPC         = "vpc"
	AttrDescription = "description"
)

const defaultRoute = "0.0.0.0/0"

// ResourceNode is one resource to create. DependsOn holds the sorted names of
// nodes that must exist first; references are by name only. Nodes are not
// modified after BuildGraph returns.
type ResourceNode struct {
	Kind       Kind              `json:"kind" yaml:"kind"`
	Name       string            `json:"name" yaml:"name"`
	DependsOn  []string          `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Graph owns every node, keyed by name.
type Graph map[string]*ResourceNode

func (g Graph) add(kind Kind, name string, attrs map[string]string, deps ...string) {
	deps = append([]string(nil), deps...)
	sort.Strings(deps)
	g[name] = &ResourceNode{Kind: kind, Name: name, DependsOn: deps, Attributes: attrs}
}

// Node names.
const (
	NodeVPC           = "vpc"
	NodeGateway       = "igw"
	NodePublicRoutes  = "rtb-public"
	NodePublicDefault = "route-public-default"
	NodeSecurityGroup = "sg-default"
)

func subnetNode(s SubnetSpec) string { return "subnet-" + s.Name() }

func privateRoutesNode(az int) string { return fmt.Sprintf("rtb-private-az%d", az) }

func privateDefaultNode(az int) string { return fmt.Sprintf("route-private-az%d-default", az) }

func natNode(p *NetworkPlan, az int) string {
	if !p.NATPerAZ {
		return "nat"
	}
	return fmt.Sprintf("nat-az%d", az)
}

func eipNode(p *NetworkPlan, az int) string {
	if !p.NATPerAZ {
		return "eip-nat"
	}
	return fmt.Sprintf("eip-nat-az%d", az)
}

// BuildGraph derives the resource graph for p. Edges run from a resource to
// the things it is placed in, attached to or routed through, and none of those
// depends back, so the graph is acyclic.
func BuildGraph(p *NetworkPlan) Graph {
	g := make(Graph)

	g.add(KindVPC, NodeVPC, map[string]string{AttrCIDRBlock: p.VPCBlock.String()})
	g.add(KindGateway, NodeGateway, map[string]string{AttrVPC: NodeVPC}, NodeVPC)

	// an elastic IP is only usable once the gateway is attached
	hosts := p.NATHosts()
	for _, h := range hosts {
		g.add(KindEIP, eipNode(p, h.AZIndex), nil, NodeGateway)
	}

	g.add(KindRouteTable, NodePublicRoutes, map[string]string{AttrRole: string(RolePublic), AttrVPC: NodeVPC}, NodeVPC)
	zones := p.PrivateZones()
	for _, az := range zones {
		g.add(KindRouteTable, privateRoutesNode(az), map[string]string{
			AttrRole:    string(RolePrivate),
			AttrAZIndex: strconv.Itoa(az),
			AttrVPC:     NodeVPC,
		}, NodeVPC)
	}

	g.add(KindRoute, NodePublicDefault, map[string]string{
		AttrRouteTable:  NodePublicRoutes,
		AttrDestination: defaultRoute,
		AttrTarget:      NodeGateway,
	}, NodePublicRoutes, NodeGateway)
	for _, az := range zones {
		nat := natNode(p, az)
		g.add(KindRoute, privateDefaultNode(az), map[string]string{
			AttrRouteTable:  privateRoutesNode(az),
			AttrDestination: defaultRoute,
			AttrTarget:      nat,
		}, privateRoutesNode(az), nat)
	}

	for _, h := range hosts {
		g.add(KindNAT, natNode(p, h.AZIndex), map[string]string{
			AttrSubnet:  subnetNode(h),
			AttrEIP:     eipNode(p, h.AZIndex),
			AttrAZIndex: strconv.Itoa(h.AZIndex),
		}, subnetNode(h), eipNode(p, h.AZIndex))
	}

	for _, s := range p.Subnets {
		g.add(KindSubnet, subnetNode(s), map[string]string{
			AttrCIDRBlock: s.Block.String(),
			AttrRole:      string(s.Role),
			AttrAZIndex:   strconv.Itoa(s.AZIndex),
			AttrVPC:       NodeVPC,
		}, NodeVPC)
	}

	for _, s := range p.Subnets {
		rtb := NodePublicRoutes
		if s.Role == RolePrivate {
			rtb = privateRoutesNode(s.AZIndex)
		}
		g.add(KindAssociation, "rtbassoc-"+s.Name(), map[string]string{
			AttrSubnet:     subnetNode(s),
			AttrRouteTable: rtb,
		}, subnetNode(s), rtb)
	}

	g.add(KindSecurityGroup, NodeSecurityGroup, map[string]string{
		AttrVPC:         NodeVPC,
		AttrDescription: "default security group for " + p.VPCBlock.String(),
	}, NodeVPC)

	return g
}

// Names returns every node name in ascending order.
func (g Graph) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByKind returns the nodes of one kind sorted by name.
func (g Graph) ByKind(kind Kind) []*ResourceNode {
	var nodes []*ResourceNode
	for _, name := range g.Names() {
		if g[name].Kind == kind {
			nodes = append(nodes, g[name])
		}
	}
	return nodes
}

// Validate checks that every dependency exists in g and that g is acyclic.
func (g Graph) Validate() error {
	_, err := g.TopologicalOrder()
	return err
}

func (g Graph) danglingEdges() error {
	var errs []error
	for _, name := range g.Names() {
		for _, dep := range g[name].DependsOn {
			if _, ok := g[dep]; !ok {
				errs = append(errs, fmt.Errorf("node %q depends on unknown node %q", name, dep))
			}
		}
	}
	return multierr.Combine(errs...)
}

// TopologicalOrder returns the nodes so that every node follows its
// dependencies (Kahn's algorithm). Ready nodes are taken in construction
// order, then by name, so the result is deterministic.
func (g Graph) TopologicalOrder() ([]*ResourceNode, error) {
	if err := g.danglingEdges(); err != nil {
		return nil, err
	}

	indegree := make(map[string]int, len(g))
	dependents := make(map[string][]string, len(g))
	var ready []string
	for _, name := range g.Names() {
		n := g[name]
		indegree[name] = len(n.DependsOn)
		for _, dep := range n.DependsOn {
			dependents[dep] = append(dependents[dep], name)
		}
		if len(n.DependsOn) == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]*ResourceNode, 0, len(g))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return g.less(ready[i], ready[j]) })
		name := ready[0]
		ready = ready[1:]
		order = append(order, g[name])

		for _, d := range dependents[name] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) != len(g) {
		var stuck []string
		for _, name := range g.Names() {
			if indegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, fmt.Errorf("dependency cycle among %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

func (g Graph) less(a, b string) bool {
	ra, rb := kindRank[g[a].Kind], kindRank[g[b].Kind]
	if ra != rb {
		return ra < rb
	}
	return a < b
}
