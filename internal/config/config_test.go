package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/cost"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "reference", cfg.Enumeration.Mode)
	assert.False(t, cfg.Enumeration.Strict)
	assert.Equal(t, 7, cfg.Enumeration.MaxLeaves)
	assert.False(t, cfg.Selection.SkipUnsupported)
	assert.Equal(t, 256, cfg.Selection.CacheSize)
	assert.Equal(t, cost.DefaultWeights(), cfg.Cost)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tripleopt.cue")
	src := `
enumeration: {
	mode:   "distinct"
	strict: true
}
cost: join_pair: 4
selection: cache_size: -1
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "distinct", cfg.Enumeration.Mode)
	assert.True(t, cfg.Enumeration.Strict)
	assert.Equal(t, 7, cfg.Enumeration.MaxLeaves)
	assert.Equal(t, -1, cfg.Selection.CacheSize)
	assert.Equal(t, uint64(4), cfg.Cost.JoinPair)
	assert.Equal(t, uint64(1), cfg.Cost.ScanRow)
	assert.InDelta(t, 0.33, cfg.Cost.DefaultSelectivity, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown mode", `enumeration: mode: "greedy"`},
		{"unknown field", `enumeration: depth: 3`},
		{"unknown section", `planner: {}`},
		{"zero max leaves", `enumeration: max_leaves: 0`},
		{"negative weight", `cost: scan_row: -1`},
		{"selectivity above one", `cost: default_selectivity: 1.5`},
		{"zero selectivity", `cost: default_selectivity: 0`},
		{"wrong type", `selection: skip_unsupported: "yes"`},
		{"syntax", `enumeration: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			var cfgErr *Error
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestError_Position(t *testing.T) {
	_, err := Parse([]byte("enumeration: mode: \"greedy\"\n"), "bad.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
}
