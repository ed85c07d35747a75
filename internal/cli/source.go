package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/config"
	"github.com/roach88/tripleopt/internal/metrics"
	"github.com/roach88/tripleopt/internal/optimizer"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/planfile"
	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/stats"
	"github.com/roach88/tripleopt/internal/store"
)

// SourceOptions selects the dataset a command reads: an N-Triples file
// or a SQLite store written by the load command.
type SourceOptions struct {
	Data     string
	Database string
}

func (s *SourceOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Data, "data", "", "path to an N-Triples data file")
	cmd.Flags().StringVar(&s.Database, "db", "", "path to a SQLite store")
	cmd.MarkFlagsMutuallyExclusive("data", "db")
	cmd.MarkFlagsOneRequired("data", "db")
}

// source is a loaded dataset and its statistics snapshot.
type source struct {
	Dataset *rdf.Dataset
	Stats   *stats.DatabaseStats
	Origin  string
}

// load reads the selected dataset. A store supplies exact statistics;
// a data file is sketched with stats.Gather.
func (s *SourceOptions) load(ctx context.Context) (*source, error) {
	if s.Database != "" {
		return loadStore(ctx, s.Database)
	}
	if s.Data != "" {
		return loadNTriples(s.Data)
	}
	return nil, errors.New("one of --data or --db is required")
}

func loadNTriples(path string) (*source, error) {
	ds, err := readNTriples(path)
	if err != nil {
		return nil, err
	}
	return &source{Dataset: ds, Stats: stats.Gather(ds), Origin: path}, nil
}

func readNTriples(path string) (*rdf.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	ds := rdf.NewDataset()
	n, err := rdf.ParseNTriples(f, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	slog.Debug("data file loaded", "path", path, "triples", n)
	return ds, nil
}

func loadStore(ctx context.Context, path string) (*source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ds, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	s, err := st.Stats(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("store loaded", "path", path, "triples", len(ds.Triples))
	return &source{Dataset: ds, Stats: s, Origin: path}, nil
}

// loadConfig returns the --config file's settings, or the defaults.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	return config.Load(opts.Config)
}

// loadPlan reads a plan file, encoding its constants into dict.
func loadPlan(path string, dict *rdf.Dictionary) (plan.Logical, string, error) {
	l, doc, err := planfile.Load(path, dict)
	if err != nil {
		return nil, "", err
	}
	return l, doc.Name, nil
}

// newOptimizer logs to the default logger. m may be nil.
func newOptimizer(cfg config.Config, m *metrics.Metrics) (*optimizer.Optimizer, error) {
	return optimizer.New(cfg, optimizer.WithLogger(slog.Default()), optimizer.WithMetrics(m))
}

// reportOptimizerError writes an optimizer failure under its error code.
func reportOptimizerError(f *OutputFormatter, err error) error {
	if oe, ok := optimizer.AsError(err); ok {
		var details any
		if oe.Session != "" {
			details = map[string]string{"session": oe.Session}
		}
		if outErr := f.Error(string(oe.Code), oe.Message, details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "optimization failed", err)
	}
	return f.Fail(ExitFailure, ErrCodeFailure, "optimization failed", err)
}
