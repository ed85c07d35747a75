// Package enumerate produces the alternative join orders of a logical
// plan.
//
// Enumeration strips the Selection/Projection chain above the join core,
// collects the core's leaves, joins them pairwise in every order, and
// re-wraps each resulting core in the stripped operators. Every candidate
// has the input's outer shape and differs only in its join tree.
package enumerate

import (
	"fmt"
	"log/slog"

	"github.com/roach88/tripleopt/internal/plan"
)

// Mode selects which generated trees are returned.
type Mode string

const (
	// ModeReference returns every tree of the pairing traversal in
	// traversal order, including repeated shapes.
	ModeReference Mode = "reference"

	// ModeDistinct keeps only the first tree of each unordered shape,
	// giving BushyTreeCount(n) candidates for n distinct leaves.
	ModeDistinct Mode = "distinct"
)

// ParseMode validates s as a Mode. The empty string is ModeReference.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReference:
		return ModeReference, nil
	case ModeDistinct:
		return ModeDistinct, nil
	default:
		return "", fmt.Errorf("unknown enumeration mode %q", s)
	}
}

// DefaultMaxLeaves bounds enumeration: seven leaves already produce
// 56,700 reference candidates.
const DefaultMaxLeaves = 7

// Enumerator produces join-order candidates. The zero value enumerates in
// ModeReference, leniently, without a leaf bound, logging to slog.Default.
type Enumerator struct {
	Mode      Mode
	Strict    bool
	MaxLeaves int // <= 0 means unbounded
	Logger    *slog.Logger
}

// Enumerate returns one plan per join tree over the leaves of l's join
// core, each wrapped in l's top-level operators. A core that is itself an
// opaque node yields l alone.
func (e *Enumerator) Enumerate(l plan.Logical) ([]plan.Logical, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	core, ops := StripTopLevelOps(l)
	switch core.(type) {
	case *plan.Join, *plan.Scan:
	case nil:
		return nil, ErrEmptyInput
	default:
		logger.Debug("join core is opaque", "kind", plan.Kind(core))
		return []plan.Logical{plan.Clone(l)}, nil
	}

	leaves, err := FindAllScans(core, e.Strict, logger)
	if err != nil {
		return nil, err
	}
	if e.MaxLeaves > 0 && len(leaves.Operators) > e.MaxLeaves {
		return nil, &TooManyLeavesError{Leaves: len(leaves.Operators), Max: e.MaxLeaves}
	}

	trees, err := GenerateAllPlans(leaves.Operators)
	if err != nil {
		return nil, err
	}

	if e.Mode == ModeDistinct {
		trees, err = distinct(trees)
		if err != nil {
			return nil, err
		}
	}

	out := make([]plan.Logical, len(trees))
	for i, tree := range trees {
		out[i] = ApplyTopLevelOps(ApplyTopLevelOps(tree, leaves.Hoisted), ops)
	}

	logger.Debug("enumerated join orders",
		"leaves", len(leaves.Operators),
		"hoisted", len(leaves.Hoisted),
		"skipped", len(leaves.Skipped),
		"mode", string(e.modeOrDefault()),
		"candidates", len(out),
	)
	return out, nil
}

func (e *Enumerator) modeOrDefault() Mode {
	if e.Mode == "" {
		return ModeReference
	}
	return e.Mode
}

// distinct keeps the first tree of each ShapeFingerprint, preserving order.
func distinct(trees []plan.Logical) ([]plan.Logical, error) {
	seen := make(map[string]struct{}, len(trees))
	out := make([]plan.Logical, 0, len(trees))
	for i, t := range trees {
		fp, err := plan.ShapeFingerprint(t)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Enumerate runs a zero-value Enumerator over l.
func Enumerate(l plan.Logical) ([]plan.Logical, error) {
	var e Enumerator
	return e.Enumerate(l)
}
