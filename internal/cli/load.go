package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Data     string
	Database string
}

// LoadResult is the output of the load command.
type LoadResult struct {
	Database string `json:"database"`
	Triples  int    `json:"triples"`
	Terms    int    `json:"terms"`
}

// Text renders the result for text output.
func (r LoadResult) Text() string {
	return fmt.Sprintf("Loaded %d triples (%d terms) into %s\n", r.Triples, r.Terms, r.Database)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an N-Triples file into a SQLite store",
		Long: `Parse an N-Triples file and save it into a SQLite store, creating the
database if it doesn't exist. An existing dataset in the store is replaced.

Example:
  tripleopt load --data ./data/sensors.nt --db ./sensors.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "path to an N-Triples data file (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ds, err := readNTriples(opts.Data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load dataset", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.Save(ctx, ds); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeFailure, "failed to save dataset", err)
	}
	formatter.VerboseLog("Saved %d triples to %s", len(ds.Triples), opts.Database)

	return formatter.Success(LoadResult{
		Database: opts.Database,
		Triples:  len(ds.Triples),
		Terms:    ds.Dictionary.Len(),
	})
}
