package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/rdf"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Source SourceOptions
}

// StatsResult is the output of the stats command.
type StatsResult struct {
	Origin             string           `json:"origin"`
	TotalTriples       uint64           `json:"total_triples"`
	DistinctSubjects   uint64           `json:"distinct_subjects"`
	DistinctPredicates uint64           `json:"distinct_predicates"`
	DistinctObjects    uint64           `json:"distinct_objects"`
	Predicates         []PredicateStats `json:"predicates"`
}

// PredicateStats is one predicate's row in StatsResult.
type PredicateStats struct {
	Predicate        string `json:"predicate"`
	Count            uint64 `json:"count"`
	DistinctSubjects uint64 `json:"distinct_subjects"`
	DistinctObjects  uint64 `json:"distinct_objects"`
}

// Text renders the result for text output.
func (r StatsResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", r.Origin)
	fmt.Fprintf(&b, "Triples: %d\n", r.TotalTriples)
	fmt.Fprintf(&b, "Distinct subjects: %d\n", r.DistinctSubjects)
	fmt.Fprintf(&b, "Distinct predicates: %d\n", r.DistinctPredicates)
	fmt.Fprintf(&b, "Distinct objects: %d\n", r.DistinctObjects)
	if len(r.Predicates) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PREDICATE\tCOUNT\tSUBJECTS\tOBJECTS")
	for _, p := range r.Predicates {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", p.Predicate, p.Count, p.DistinctSubjects, p.DistinctObjects)
	}
	w.Flush()
	return b.String()
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics the cost model sees",
		Long: `Print dataset statistics: total and distinct counts, and per-predicate
triple and distinct subject/object counts.

A SQLite store reports exact counts. A data file reports the HyperLogLog
estimates the optimizer uses.

Example:
  tripleopt stats --data ./data/sensors.nt
  tripleopt stats --db ./sensors.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	opts.Source.register(cmd)

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := opts.Source.load(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load dataset", err)
	}

	s := data.Stats
	res := StatsResult{
		Origin:             data.Origin,
		TotalTriples:       s.TotalTriples,
		DistinctSubjects:   s.DistinctSubjects,
		DistinctPredicates: s.DistinctPredicates,
		DistinctObjects:    s.DistinctObjects,
		Predicates:         make([]PredicateStats, 0, len(s.Predicates)),
	}
	for _, id := range s.PredicateIDs() {
		ps, _ := s.Predicate(id)
		res.Predicates = append(res.Predicates, PredicateStats{
			Predicate:        rdf.FormatTerm(rdf.Const(id), data.Dataset.Dictionary),
			Count:            ps.Count,
			DistinctSubjects: ps.DistinctSubjects,
			DistinctObjects:  ps.DistinctObjects,
		})
	}
	return formatter.Success(res)
}
