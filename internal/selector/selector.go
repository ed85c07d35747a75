// Package selector picks the cheapest candidate plan.
//
// Each logical candidate is converted to a physical plan and priced by a
// cost.CostEstimator. The running minimum uses strict less-than, so among
// equal costs the earliest candidate wins.
package selector

import (
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/tripleopt/internal/cost"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
)

// ErrNoCandidates is returned when there is nothing to select from. When
// every candidate was skipped it wraps the first skip's error too.
var ErrNoCandidates = errors.New("no candidate plans")

// DefaultCacheSize bounds the per-call cost cache.
const DefaultCacheSize = 256

// Options configures SelectBest. The zero value fails on the first
// unconvertible candidate and caches DefaultCacheSize costs.
type Options struct {
	// SkipUnsupported drops candidates that cannot be converted instead of
	// failing the whole selection.
	SkipUnsupported bool

	// CacheSize bounds the cost cache keyed by physical fingerprint.
	// Negative disables caching.
	CacheSize int

	Logger *slog.Logger
}

// Result is the outcome of a selection.
type Result struct {
	Plan  physical.Physical
	Cost  uint64
	Index int // position of the winner in the candidate list

	Considered int
	Skipped    int

	// Costs holds one entry per candidate; skipped candidates are
	// math.MaxUint64.
	Costs []uint64
}

// SelectBest converts and prices each candidate in order and returns the
// first one of minimal cost.
func SelectBest(candidates []plan.Logical, est cost.CostEstimator, opts Options) (*Result, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if est == nil {
		return nil, errors.New("selector: nil cost estimator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cache *lru.Cache[string, uint64]
	if opts.CacheSize >= 0 {
		size := opts.CacheSize
		if size == 0 {
			size = DefaultCacheSize
		}
		var err error
		cache, err = lru.New[string, uint64](size)
		if err != nil {
			return nil, fmt.Errorf("create cost cache: %w", err)
		}
	}

	res := &Result{Index: -1, Costs: make([]uint64, len(candidates))}
	var firstSkip error
	for i, cand := range candidates {
		p, err := physical.Convert(cand)
		if err != nil {
			if opts.SkipUnsupported && physical.IsUnsupportedOperator(err) {
				logger.Warn("skipping candidate", "index", i, "error", err)
				if firstSkip == nil {
					firstSkip = fmt.Errorf("convert candidate %d: %w", i, err)
				}
				res.Costs[i] = maxCost
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("convert candidate %d: %w", i, err)
		}

		fp, err := physical.Fingerprint(p)
		if err != nil {
			return nil, fmt.Errorf("fingerprint candidate %d: %w", i, err)
		}
		c, cached := price(p, fp, est, cache)
		res.Costs[i] = c
		res.Considered++
		logger.Debug("candidate cost", "index", i, "cost", c, "fingerprint", fp, "cached", cached)

		if res.Index < 0 || c < res.Cost {
			res.Plan, res.Cost, res.Index = p, c, i
		}
	}

	if res.Index < 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoCandidates, firstSkip)
	}
	return res, nil
}

const maxCost = ^uint64(0)

func price(p physical.Physical, key string, est cost.CostEstimator, cache *lru.Cache[string, uint64]) (uint64, bool) {
	if cache == nil {
		return est.EstimateCost(p), false
	}
	if c, ok := cache.Get(key); ok {
		return c, true
	}
	c := est.EstimateCost(p)
	cache.Add(key, c)
	return c, false
}
