package plan

import (
	"fmt"
	"strings"

	"github.com/roach88/tripleopt/internal/rdf"
)

// Explain renders l as an indented tree, one node per line, two spaces
// per level. Constants are decoded with dict when it is non-nil.
func Explain(l Logical, dict *rdf.Dictionary) string {
	var b strings.Builder
	explain(&b, l, dict, 0)
	return b.String()
}

func explain(b *strings.Builder, l Logical, dict *rdf.Dictionary, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch n := l.(type) {
	case *Scan:
		fmt.Fprintf(b, "Scan %s\n", FormatPattern(n.Pattern, dict))
	case *Selection:
		fmt.Fprintf(b, "Selection %s\n", FormatExpression(n.Condition.Expression))
		explain(b, n.Input, dict, depth+1)
	case *Projection:
		fmt.Fprintf(b, "Projection %s\n", FormatVars(n.Variables))
		explain(b, n.Input, dict, depth+1)
	case *Join:
		b.WriteString("Join\n")
		explain(b, n.Left, dict, depth+1)
		explain(b, n.Right, dict, depth+1)
	case *Subquery:
		fmt.Fprintf(b, "Subquery %s\n", FormatVars(n.ProjectedVars))
		explain(b, n.Inner, dict, depth+1)
	case *Bind:
		fmt.Fprintf(b, "Bind ?%s = %s(%s)\n", rdf.NormalizeVariable(n.Output), n.Function, strings.Join(prefixed(n.Arguments), ", "))
		explain(b, n.Input, dict, depth+1)
	case *Values:
		fmt.Fprintf(b, "Values %s rows=%d\n", FormatVars(n.Variables), len(n.Rows))
	case *Buffer:
		fmt.Fprintf(b, "Buffer %s capacity=%d\n", n.Name, n.Capacity)
	case *MLPredict:
		fmt.Fprintf(b, "MLPredict ?%s = %s(%s)\n", rdf.NormalizeVariable(n.Output), n.Model, strings.Join(prefixed(n.InputVariables), ", "))
		explain(b, n.Input, dict, depth+1)
	case nil:
		b.WriteString("<nil>\n")
	default:
		fmt.Fprintf(b, "%T\n", l)
	}
}

// FormatPattern renders a triple pattern as "(s p o)".
func FormatPattern(p rdf.TriplePattern, dict *rdf.Dictionary) string {
	return fmt.Sprintf("(%s %s %s)",
		rdf.FormatTerm(p.Subject, dict),
		rdf.FormatTerm(p.Predicate, dict),
		rdf.FormatTerm(p.Object, dict))
}

// FormatVars renders a variable list as "[?a ?b]".
func FormatVars(vars []string) string {
	return "[" + strings.Join(prefixed(vars), " ") + "]"
}

func prefixed(vars []string) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = "?" + rdf.NormalizeVariable(v)
	}
	return out
}
