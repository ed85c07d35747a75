package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/exec"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/querysql"
	"github.com/roach88/tripleopt/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Source  SourceOptions
	Metrics MetricsOptions
	SQL     bool // execute in SQLite instead of the reference executor
}

// RunResult is the output of the run command.
type RunResult struct {
	Name     string   `json:"name,omitempty"`
	Session  string   `json:"session"`
	Cost     uint64   `json:"cost"`
	Plan     string   `json:"plan"`
	Engine   string   `json:"engine"` // "reference" or "sql"
	RowCount int      `json:"row_count"`
	Rows     []string `json:"rows"`
}

// Text renders the result for text output.
func (r RunResult) Text() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "Plan: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Session: %s\nCost: %d\n", r.Session, r.Cost)
	fmt.Fprintf(&b, "Selected:\n%s", r.Plan)
	fmt.Fprintf(&b, "Rows: %d (%s)\n", r.RowCount, r.Engine)
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "  %s\n", row)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Optimize a plan and execute it",
		Long: `Optimize a plan file against a dataset, then execute the selected
physical plan with the reference executor and print its rows.

Rows are printed sorted, one "?var=value" list per line.

With --sql the plan is compiled to SQL and executed inside the store
given by --db instead.

Example:
  tripleopt run --data ./data/people.nt ./plans/people.yaml
  tripleopt run --db ./people.db --format json ./plans/people.yaml
  tripleopt run --db ./people.db --sql ./plans/people.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	opts.Source.register(cmd)
	opts.Metrics.register(cmd)
	cmd.Flags().BoolVar(&opts.SQL, "sql", false, "execute the selected plan in the SQLite store (requires --db)")

	return cmd
}

func runPlan(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.SQL && opts.Source.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "--sql requires --db", nil)
	}

	defer flushMetrics(&opts.Metrics, cmd)

	run, err := optimizePlanFile(cmd.Context(), opts.RootOptions, &opts.Source, opts.Metrics.collectors(), path, formatter)
	if err != nil {
		return err
	}

	ds := run.Source.Dataset
	engine := "reference"
	var rows []exec.Binding
	if opts.SQL {
		engine = "sql"
		rows, err = runSQL(cmd.Context(), opts.Source.Database, run.Result.Plan, formatter)
	} else {
		rows, err = exec.Execute(run.Result.Plan, ds)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeFailure, "execution failed", err)
	}
	canonical := exec.Canonical(rows, ds.Dictionary)

	return formatter.SuccessWithSession(RunResult{
		Name:     run.Name,
		Session:  run.Result.Session,
		Cost:     run.Result.Cost,
		Plan:     physical.Explain(run.Result.Plan, ds.Dictionary),
		Engine:   engine,
		RowCount: len(canonical),
		Rows:     canonical,
	}, run.Result.Session)
}

// runSQL compiles p and executes it in the store at path.
func runSQL(ctx context.Context, path string, p physical.Physical, formatter *OutputFormatter) ([]exec.Binding, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	q, err := querysql.NewSQLCompiler().Compile(p)
	if err != nil {
		return nil, err
	}
	formatter.VerboseLog("SQL: %s", q.SQL)

	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	return querysql.Run(ctx, st.DB(), q)
}
