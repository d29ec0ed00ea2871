package cidr

import (
	"fmt"

	"go.uber.org/multierr"
)

// InvalidInputError reports malformed CIDR syntax or an unusable split count.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// CapacityError reports a request that does not fit in the parent block.
type CapacityError struct {
	Parent Block
	Detail string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient address space in %s: %s", e.Parent, e.Detail)
}

// OverlapError reports two blocks whose address ranges intersect. Nested is
// set when one block fully contains the other.
type OverlapError struct {
	First  Block
	Second Block
	Nested bool
}

func (e *OverlapError) Error() string {
	switch {
	case e.Nested && Contains(e.First, e.Second):
		return fmt.Sprintf("%s contains %s", e.First, e.Second)
	case e.Nested:
		return fmt.Sprintf("%s contains %s", e.Second, e.First)
	default:
		return fmt.Sprintf("%s overlaps %s", e.First, e.Second)
	}
}

// ContainmentError reports a block that is not a subset of its parent.
type ContainmentError struct {
	Block  Block
	Parent Block
}

func (e *ContainmentError) Error() string {
	return fmt.Sprintf("%s is not contained in %s", e.Block, e.Parent)
}

func combine(errs []error) error {
	return multierr.Combine(errs...)
}
