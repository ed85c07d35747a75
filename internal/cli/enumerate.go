package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// EnumerateOptions holds flags for the enumerate command.
type EnumerateOptions struct {
	*RootOptions
	Mode      string
	NoRewrite bool
	Limit     int
}

// EnumerateResult is the output of the enumerate command.
type EnumerateResult struct {
	Name       string   `json:"name,omitempty"`
	Mode       string   `json:"mode"`
	Count      int      `json:"count"`
	Candidates []string `json:"candidates"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Text renders the result for text output.
func (r EnumerateResult) Text() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "Plan: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Candidates: %d (%s)\n", r.Count, r.Mode)
	writeWarnings(&b, r.Warnings)
	for i, c := range r.Candidates {
		fmt.Fprintf(&b, "\n#%d\n%s", i, c)
	}
	if len(r.Candidates) < r.Count {
		fmt.Fprintf(&b, "\n... %d more\n", r.Count-len(r.Candidates))
	}
	return b.String()
}

// NewEnumerateCommand creates the enumerate command.
func NewEnumerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnumerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enumerate <plan.yaml>",
		Short: "List every join order of a plan",
		Long: `Enumerate the join-order candidates of a plan file.

Filters are pushed down first unless --no-rewrite is given. The reference
mode lists every tree the pairing traversal produces; the distinct mode
keeps one tree per unordered shape.

Example:
  tripleopt enumerate ./plans/people.yaml
  tripleopt enumerate --mode distinct --limit 5 ./plans/sensors.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnumerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "enumeration mode (reference|distinct), overrides config")
	cmd.Flags().BoolVar(&opts.NoRewrite, "no-rewrite", false, "skip filter pushdown")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most this many candidates (0 prints all)")

	return cmd
}

func runEnumerate(opts *EnumerateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load config", err)
	}
	if opts.Mode != "" {
		cfg.Enumeration.Mode = opts.Mode
	}
	o, err := newOptimizer(cfg, nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "invalid configuration", err)
	}

	dict := rdf.NewDictionary()
	l, name, err := loadPlan(path, dict)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load plan", err)
	}
	if !opts.NoRewrite {
		l = o.Rewrite(l)
	}

	cands, err := o.Enumerate(l)
	if err != nil {
		return reportOptimizerError(formatter, err)
	}

	shown := cands
	if opts.Limit > 0 && len(shown) > opts.Limit {
		shown = shown[:opts.Limit]
	}
	res := EnumerateResult{
		Name:       name,
		Mode:       cfg.Enumeration.Mode,
		Count:      len(cands),
		Candidates: make([]string, len(shown)),
		Warnings:   plan.Validate(l).Warnings,
	}
	for i, c := range shown {
		res.Candidates[i] = plan.Explain(c, dict)
	}
	return formatter.Success(res)
}
