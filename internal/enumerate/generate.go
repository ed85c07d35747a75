package enumerate

import (
	"math"
	"slices"

	"github.com/roach88/tripleopt/internal/plan"
)

// GenerateAllPlans joins ops pairwise until one root remains, in every
// order the pairing traversal reaches:
//
//	for j over all positions:
//	    remove element j
//	    for i over [j, n-2] of the reduced list:
//	        join(left: element i, right: element j)
//	        remove element i, append the join, recurse on n-1 elements
//
// The traversal order is fixed, so the returned sequence is reproducible.
// Every unordered join tree over ops appears at least once; the same tree
// is reached through each order of its merges, often with commuted
// children. MergeSequenceCount(len(ops)) trees are returned, each an
// independent clone.
func GenerateAllPlans(ops []plan.Logical) ([]plan.Logical, error) {
	if len(ops) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]plan.Logical, 0, capacity(len(ops)))
	generate(ops, &out)
	return out, nil
}

// generate shares subtrees between recursion branches; only the finished
// trees are cloned.
func generate(ops []plan.Logical, out *[]plan.Logical) {
	if len(ops) == 1 {
		*out = append(*out, plan.Clone(ops[0]))
		return
	}

	n := len(ops)
	for j := 0; j < n; j++ {
		current := slices.Clone(ops)
		element := current[j]
		current = slices.Delete(current, j, j+1)

		for i := j; i < n-1; i++ {
			next := slices.Clone(current)
			join := plan.NewJoin(next[i], element)
			next = slices.Delete(next, i, i+1)
			next = append(next, join)
			generate(next, out)
		}
	}
}

func capacity(n int) int {
	c := MergeSequenceCount(n)
	if c > 1<<16 {
		return 1 << 16
	}
	return int(c)
}

// MergeSequenceCount is the number of trees GenerateAllPlans returns for n
// leaves: the product over k = 2..n of k(k-1)/2, which equals
// n!(n-1)!/2^(n-1). The result saturates at math.MaxUint64.
func MergeSequenceCount(n int) uint64 {
	if n <= 0 {
		return 0
	}
	var total uint64 = 1
	for k := 2; k <= n; k++ {
		total = saturatingMul(total, uint64(k*(k-1)/2))
	}
	return total
}

// BushyTreeCount is the number of distinct unordered binary join trees
// over n labelled leaves, (2n-3)!! for n >= 2. The result saturates at
// math.MaxUint64.
func BushyTreeCount(n int) uint64 {
	if n <= 0 {
		return 0
	}
	var total uint64 = 1
	for k := 3; k <= 2*n-3; k += 2 {
		total = saturatingMul(total, uint64(k))
	}
	return total
}

func saturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
