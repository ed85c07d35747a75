package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/pushdown"
	"github.com/roach88/tripleopt/internal/rdf"
)

// PushdownResult is the output of the pushdown command.
type PushdownResult struct {
	Name        string `json:"name,omitempty"`
	Original    string `json:"original"`
	Rewritten   string `json:"rewritten"`
	Fingerprint string `json:"fingerprint"`
	Changed     bool   `json:"changed"`
}

// Text renders the result for text output.
func (r PushdownResult) Text() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "Plan: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Original:\n%s", r.Original)
	fmt.Fprintf(&b, "Rewritten:\n%s", r.Rewritten)
	if !r.Changed {
		b.WriteString("(no filter moved)\n")
	}
	return b.String()
}

// NewPushdownCommand creates the pushdown command.
func NewPushdownCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pushdown <plan.yaml>",
		Short: "Push filters below joins and print the rewritten plan",
		Long: `Apply filter pushdown to a plan file and print the plan before and
after the rewrite.

A selection over a join moves to whichever side binds every variable it
reads. Filters spanning both sides stay where they are.

Example:
  tripleopt pushdown ./plans/sensors.yaml
  tripleopt pushdown --format json ./plans/sensors.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPushdown(rootOpts, args[0], cmd)
		},
	}
}

func runPushdown(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	dict := rdf.NewDictionary()
	l, name, err := loadPlan(path, dict)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load plan", err)
	}

	rewritten := pushdown.Rewrite(l)
	fp, err := plan.Fingerprint(rewritten)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeFailure, "failed to fingerprint plan", err)
	}
	formatter.VerboseLog("Rewrote %s (fingerprint %s)", path, fp)

	return formatter.Success(PushdownResult{
		Name:        name,
		Original:    plan.Explain(l, dict),
		Rewritten:   plan.Explain(rewritten, dict),
		Fingerprint: fp,
		Changed:     !plan.Equal(l, rewritten),
	})
}
