// Package optimizer composes the query optimization pipeline.
//
// Optimize runs, in order:
//  1. filter pushdown over the whole plan
//  2. join order enumeration over the rewritten join core
//  3. one statistics snapshot and one cost estimator for the run
//  4. cost-based selection of the cheapest physical candidate
//
// An Optimizer holds no per-run state and is safe for concurrent use when
// its SessionIDGenerator is.
package optimizer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tripleopt/internal/config"
	"github.com/roach88/tripleopt/internal/cost"
	"github.com/roach88/tripleopt/internal/enumerate"
	"github.com/roach88/tripleopt/internal/metrics"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/pushdown"
	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/selector"
	"github.com/roach88/tripleopt/internal/stats"
)

// Optimizer turns logical plans into the cheapest equivalent physical plan.
type Optimizer struct {
	cfg      config.Config
	mode     enumerate.Mode
	logger   *slog.Logger
	sessions SessionIDGenerator
	metrics  *metrics.Metrics
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = l
	}
}

// WithSessionIDGenerator sets the session id source. Default: UUIDv7Generator.
func WithSessionIDGenerator(g SessionIDGenerator) Option {
	return func(o *Optimizer) {
		o.sessions = g
	}
}

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Optimizer) {
		o.metrics = m
	}
}

// Result is the outcome of one optimization run.
type Result struct {
	Plan    physical.Physical
	Logical plan.Logical // the chosen candidate before conversion
	Cost    uint64

	Candidates int // candidates enumerated
	Skipped    int // candidates dropped as unsupported
	Session    string
}

// New creates an Optimizer from cfg.
func New(cfg config.Config, opts ...Option) (*Optimizer, error) {
	mode, err := enumerate.ParseMode(cfg.Enumeration.Mode)
	if err != nil {
		return nil, fmt.Errorf("enumeration config: %w", err)
	}

	o := &Optimizer{
		cfg:      cfg,
		mode:     mode,
		logger:   slog.Default(),
		sessions: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Rewrite applies filter pushdown to l.
func (o *Optimizer) Rewrite(l plan.Logical) plan.Logical {
	return pushdown.Rewrite(l)
}

// Enumerate returns the join-order candidates of l as configured. l is
// not rewritten first.
func (o *Optimizer) Enumerate(l plan.Logical) ([]plan.Logical, error) {
	cands, err := o.enumerator().Enumerate(l)
	if err != nil {
		return nil, classify(err, "")
	}
	return cands, nil
}

// Optimize gathers statistics from ds and optimizes l against them.
func (o *Optimizer) Optimize(l plan.Logical, ds *rdf.Dataset) (*Result, error) {
	if ds == nil {
		return nil, &Error{Code: ErrCodeInvalidInput, Message: "nil dataset"}
	}
	return o.OptimizeWithStats(l, stats.Gather(ds))
}

// OptimizeWithStats optimizes l against a prepared statistics snapshot.
func (o *Optimizer) OptimizeWithStats(l plan.Logical, s *stats.DatabaseStats) (*Result, error) {
	session := o.sessions.Generate()
	logger := o.logger.With("session", session)

	res, err := o.optimize(l, s, session, logger)
	if err != nil {
		o.metrics.ObserveFailed()
		logger.Warn("optimization failed", "error", err)
		return nil, err
	}
	o.metrics.ObserveSelected(res.Candidates, res.Cost)
	return res, nil
}

func (o *Optimizer) optimize(l plan.Logical, s *stats.DatabaseStats, session string, logger *slog.Logger) (*Result, error) {
	if l == nil {
		return nil, &Error{Code: ErrCodeInvalidInput, Message: "nil plan", Session: session, Err: enumerate.ErrEmptyInput}
	}

	rewritten := pushdown.Rewrite(l)

	e := o.enumerator()
	e.Logger = logger
	cands, err := e.Enumerate(rewritten)
	if err != nil {
		return nil, classify(err, session)
	}

	est := cost.New(s, o.cfg.Cost)
	best, err := selector.SelectBest(cands, est, selector.Options{
		SkipUnsupported: o.cfg.Selection.SkipUnsupported,
		CacheSize:       o.cfg.Selection.CacheSize,
		Logger:          logger,
	})
	if err != nil {
		return nil, classify(err, session)
	}

	logger.Info("candidates considered",
		"count", len(cands),
		"skipped", best.Skipped,
		"cost", best.Cost,
		"index", best.Index,
	)

	return &Result{
		Plan:       best.Plan,
		Logical:    cands[best.Index],
		Cost:       best.Cost,
		Candidates: len(cands),
		Skipped:    best.Skipped,
		Session:    session,
	}, nil
}

func (o *Optimizer) enumerator() *enumerate.Enumerator {
	return &enumerate.Enumerator{
		Mode:      o.mode,
		Strict:    o.cfg.Enumeration.Strict,
		MaxLeaves: o.cfg.Enumeration.MaxLeaves,
		Logger:    o.logger,
	}
}

// AsError returns err's *Error, if any.
func AsError(err error) (*Error, bool) {
	var oe *Error
	ok := errors.As(err, &oe)
	return oe, ok
}
