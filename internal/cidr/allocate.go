package cidr

import (
	"fmt"
	"math/bits"

	"go4.org/netipx"
)

// EqualSplit divides parent into count equally sized blocks in ascending
// address order. count must be a positive power of two.
func EqualSplit(parent Block, count int) ([]Block, error) {
	if count <= 0 || count&(count-1) != 0 {
		return nil, &InvalidInputError{Input: fmt.Sprint(count), Reason: "count must be a positive power of two"}
	}

	extra := bits.TrailingZeros(uint(count))
	newBits := parent.Bits() + extra
	if newBits > 32 {
		return nil, &CapacityError{
			Parent: parent,
			Detail: fmt.Sprintf("cannot split into %d blocks, at most %d are available", count, parent.Size()),
		}
	}

	step := uint64(1) << (32 - newBits)
	first := uint64(parent.First())
	blocks := make([]Block, count)
	for i := range blocks {
		blocks[i] = fromUint32(uint32(first+uint64(i)*step), newBits)
	}
	return blocks, nil
}

// ValidateExplicit checks that every candidate lies inside parent and that no
// two candidates overlap. All violations are returned together.
func ValidateExplicit(parent Block, candidates []Block) error {
	var errs []error
	for _, c := range candidates {
		if !Contains(parent, c) {
			errs = append(errs, &ContainmentError{Block: c, Parent: parent})
		}
	}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if Overlaps(a, b) {
				errs = append(errs, &OverlapError{
					First:  a,
					Second: b,
					Nested: Contains(a, b) || Contains(b, a),
				})
			}
		}
	}
	return combine(errs)
}

// NextFree returns the lowest aligned block with the given prefix length
// inside parent that overlaps none of used.
func NextFree(parent Block, used []Block, prefixLen int) (Block, error) {
	if prefixLen < parent.Bits() || prefixLen > 32 {
		return Block{}, &InvalidInputError{
			Input:  fmt.Sprintf("/%d", prefixLen),
			Reason: fmt.Sprintf("prefix length must be between %d and 32", parent.Bits()),
		}
	}

	step := uint64(1) << (32 - prefixLen)
	last := uint64(parent.Last())
	cand := uint64(parent.First())
	for cand+step-1 <= last {
		b := fromUint32(uint32(cand), prefixLen)
		blocker, ok := firstOverlap(b, used)
		if !ok {
			return b, nil
		}
		// skip past the blocker, rounded up to the next aligned candidate
		next := uint64(blocker.Last()) + 1
		cand = (next + step - 1) / step * step
	}
	return Block{}, &CapacityError{
		Parent: parent,
		Detail: fmt.Sprintf("no free /%d block left", prefixLen),
	}
}

func firstOverlap(b Block, used []Block) (Block, bool) {
	for _, u := range used {
		if Overlaps(b, u) {
			return u, true
		}
	}
	return Block{}, false
}

// Unallocated returns the minimal set of blocks covering the part of parent
// not covered by used, in ascending order.
func Unallocated(parent Block, used []Block) ([]Block, error) {
	var sb netipx.IPSetBuilder
	sb.AddPrefix(parent.prefix)
	for _, u := range used {
		sb.RemovePrefix(u.prefix)
	}
	set, err := sb.IPSet()
	if err != nil {
		return nil, fmt.Errorf("building free address set: %w", err)
	}

	prefixes := set.Prefixes()
	free := make([]Block, 0, len(prefixes))
	for _, p := range prefixes {
		free = append(free, Block{prefix: p})
	}
	return free, nil
}
