package rdf

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ID is a dictionary handle for an IRI, blank node or literal.
type ID uint32

// Term is a sealed interface over the two kinds of pattern positions.
// Only Variable and Constant implement it.
type Term interface {
	term() // Sealed - only these types implement it
}

// Variable is a named placeholder bound by a scan.
type Variable struct {
	Name string
}

func (Variable) term() {}

// Constant references a dictionary entry.
type Constant struct {
	ID ID
}

func (Constant) term() {}

// Var creates a Variable with a normalised name.
func Var(name string) Variable {
	return Variable{Name: NormalizeVariable(name)}
}

// Const creates a Constant.
func Const(id ID) Constant {
	return Constant{ID: id}
}

// NormalizeVariable strips a single leading '?' or '$' and returns the NFC
// form of the remaining name. "?age", "$age" and "age" all normalise to "age".
func NormalizeVariable(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "?") || strings.HasPrefix(name, "$") {
		name = name[1:]
	}
	return norm.NFC.String(name)
}

// TriplePattern is an ordered (subject, predicate, object) triple of terms.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Pattern is shorthand for building a TriplePattern.
func Pattern(s, p, o Term) TriplePattern {
	return TriplePattern{Subject: s, Predicate: p, Object: o}
}

// Terms returns the three positions in subject, predicate, object order.
func (tp TriplePattern) Terms() [3]Term {
	return [3]Term{tp.Subject, tp.Predicate, tp.Object}
}

// Variables returns the normalised variable names of the pattern in
// position order, without duplicates.
func (tp TriplePattern) Variables() []string {
	var vars []string
	seen := make(map[string]bool, 3)
	for _, t := range tp.Terms() {
		v, ok := t.(Variable)
		if !ok {
			continue
		}
		name := NormalizeVariable(v.Name)
		if seen[name] {
			continue
		}
		seen[name] = true
		vars = append(vars, name)
	}
	return vars
}

// Triple is a stored fact in id space.
type Triple struct {
	Subject   ID
	Predicate ID
	Object    ID
}

// FormatTerm renders a term for explain output. Constants are decoded with
// dict when it is non-nil; IRIs are wrapped in angle brackets and literals
// in quotes. Without a dictionary constants render as #<id>.
func FormatTerm(t Term, dict *Dictionary) string {
	switch term := t.(type) {
	case Variable:
		return "?" + NormalizeVariable(term.Name)
	case Constant:
		if dict != nil {
			if s, ok := dict.Decode(term.ID); ok {
				return formatValue(s)
			}
		}
		return fmt.Sprintf("#%d", term.ID)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// formatValue guesses whether a decoded value is an IRI or a literal.
func formatValue(s string) string {
	if strings.HasPrefix(s, "_:") {
		return s
	}
	if strings.Contains(s, "://") || strings.HasPrefix(s, "urn:") {
		return "<" + s + ">"
	}
	return fmt.Sprintf("%q", s)
}
