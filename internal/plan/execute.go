package plan

import (
	"context"
	"fmt"
)

// Driver creates cloud resources for graph nodes. deps maps each name in
// node.DependsOn to the ID returned when that dependency was created.
type Driver interface {
	Create(ctx context.Context, node *ResourceNode, deps map[string]string) (string, error)
}

// Execute creates every node of g in topological order and returns the IDs
// keyed by node name. It stops at the first failure and returns the IDs
// created so far alongside the error.
func Execute(ctx context.Context, g Graph, d Driver) (map[string]string, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("ordering resources: %w", err)
	}

	ids := make(map[string]string, len(order))
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		deps := make(map[string]string, len(n.DependsOn))
		for _, dep := range n.DependsOn {
			deps[dep] = ids[dep]
		}

		id, err := d.Create(ctx, n, deps)
		if err != nil {
			return ids, fmt.Errorf("creating %s %q: %w", n.Kind, n.Name, err)
		}
		ids[n.Name] = id
	}
	return ids, nil
}
