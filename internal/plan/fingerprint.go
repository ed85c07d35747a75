package plan

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/roach88/tripleopt/internal/rdf"
)

// Domain prefixes for plan fingerprints. The version suffix allows the
// encoding to change without colliding with stored fingerprints.
const (
	DomainLogical  = "tripleopt/logical/v1"
	DomainShape    = "tripleopt/shape/v1"
	DomainPhysical = "tripleopt/physical/v1"
)

// Digest computes SHA256(domain + 0x00 + data), hex encoded.
// The null separator prevents domain/data boundary ambiguity.
func Digest(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of l. Two plans have the same
// fingerprint exactly when they are Equal.
func Fingerprint(l Logical) (string, error) {
	v, err := canonicalLogical(l, false)
	if err != nil {
		return "", err
	}
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return Digest(DomainLogical, data), nil
}

// ShapeFingerprint is like Fingerprint but ignores the order of join
// children, so a plan and its commuted variants share one shape.
func ShapeFingerprint(l Logical) (string, error) {
	v, err := canonicalLogical(l, true)
	if err != nil {
		return "", err
	}
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ShapeFingerprint: failed to marshal: %w", err)
	}
	return Digest(DomainShape, data), nil
}

// CanonicalPattern returns the canonical value of a triple pattern.
func CanonicalPattern(p rdf.TriplePattern) []any {
	terms := p.Terms()
	out := make([]any, len(terms))
	for i, t := range terms {
		out[i] = canonicalTerm(t)
	}
	return out
}

func canonicalTerm(t rdf.Term) any {
	switch term := t.(type) {
	case rdf.Variable:
		return map[string]any{"var": rdf.NormalizeVariable(term.Name)}
	case rdf.Constant:
		return map[string]any{"const": int64(term.ID)}
	default:
		return map[string]any{"missing": true}
	}
}

// CanonicalCondition returns the canonical value of a condition.
func CanonicalCondition(c Condition) map[string]any {
	return map[string]any{
		"name": c.Name,
		"expr": canonicalExpression(c.Expression),
	}
}

func canonicalExpression(e Expression) any {
	switch x := e.(type) {
	case *Comparison:
		return map[string]any{
			"cmp":   string(x.Operator),
			"var":   rdf.NormalizeVariable(x.Variable),
			"value": x.Value,
		}
	case *And:
		return map[string]any{"and": []any{canonicalExpression(x.Left), canonicalExpression(x.Right)}}
	case *Or:
		return map[string]any{"or": []any{canonicalExpression(x.Left), canonicalExpression(x.Right)}}
	case *Not:
		return map[string]any{"not": canonicalExpression(x.Expr)}
	case *Compare:
		return map[string]any{
			"compare": string(x.Operator),
			"left":    canonicalOperand(x.Left),
			"right":   canonicalOperand(x.Right),
		}
	default:
		return map[string]any{"true": true}
	}
}

func canonicalOperand(o Operand) any {
	switch x := o.(type) {
	case *VarRef:
		return map[string]any{"var": rdf.NormalizeVariable(x.Name)}
	case *Literal:
		return map[string]any{"lit": x.Value}
	case *Arithmetic:
		return map[string]any{
			"arith": string(x.Op),
			"left":  canonicalOperand(x.Left),
			"right": canonicalOperand(x.Right),
		}
	default:
		return map[string]any{"missing": true}
	}
}

// CanonicalStrings converts a string slice for canonical encoding.
func CanonicalStrings(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func canonicalLogical(l Logical, shape bool) (any, error) {
	switch n := l.(type) {
	case *Scan:
		return map[string]any{"op": KindScan, "pattern": CanonicalPattern(n.Pattern)}, nil

	case *Selection:
		in, err := canonicalLogical(n.Input, shape)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": KindSelection, "condition": CanonicalCondition(n.Condition), "input": in}, nil

	case *Projection:
		in, err := canonicalLogical(n.Input, shape)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": KindProjection, "vars": CanonicalStrings(n.Variables), "input": in}, nil

	case *Join:
		left, err := canonicalLogical(n.Left, shape)
		if err != nil {
			return nil, err
		}
		right, err := canonicalLogical(n.Right, shape)
		if err != nil {
			return nil, err
		}
		if shape {
			return canonicalUnorderedPair(KindJoin, left, right)
		}
		return map[string]any{"op": KindJoin, "left": left, "right": right}, nil

	case *Subquery:
		in, err := canonicalLogical(n.Inner, shape)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": KindSubquery, "vars": CanonicalStrings(n.ProjectedVars), "inner": in}, nil

	case *Bind:
		in, err := canonicalLogical(n.Input, shape)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"op":     KindBind,
			"fn":     n.Function,
			"args":   CanonicalStrings(n.Arguments),
			"output": rdf.NormalizeVariable(n.Output),
			"input":  in,
		}, nil

	case *Values:
		rows := make([]any, len(n.Rows))
		for i, row := range n.Rows {
			cells := make([]any, len(row))
			for j, id := range row {
				cells[j] = int64(id)
			}
			rows[i] = cells
		}
		return map[string]any{"op": KindValues, "vars": CanonicalStrings(n.Variables), "rows": rows}, nil

	case *Buffer:
		return map[string]any{"op": KindBuffer, "name": n.Name, "capacity": int64(n.Capacity)}, nil

	case *MLPredict:
		in, err := canonicalLogical(n.Input, shape)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"op":     KindMLPredict,
			"model":  n.Model,
			"inputs": CanonicalStrings(n.InputVariables),
			"output": rdf.NormalizeVariable(n.Output),
			"input":  in,
		}, nil

	case nil:
		return nil, fmt.Errorf("nil plan node")
	default:
		return nil, fmt.Errorf("unsupported plan node: %T", l)
	}
}

// canonicalUnorderedPair encodes a commutative binary node with its
// children sorted by canonical bytes.
func canonicalUnorderedPair(op string, a, b any) (any, error) {
	ab, err := MarshalCanonical(a)
	if err != nil {
		return nil, err
	}
	bb, err := MarshalCanonical(b)
	if err != nil {
		return nil, err
	}
	children := []any{a, b}
	if bytes.Compare(ab, bb) > 0 {
		children = []any{b, a}
	}
	return map[string]any{"op": op, "children": children}, nil
}

// SortedFingerprints returns the fingerprints of plans in lexical order.
func SortedFingerprints(plans []Logical, shape bool) ([]string, error) {
	out := make([]string, 0, len(plans))
	for i, p := range plans {
		var (
			fp  string
			err error
		)
		if shape {
			fp, err = ShapeFingerprint(p)
		} else {
			fp, err = Fingerprint(p)
		}
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", i, err)
		}
		out = append(out, fp)
	}
	slices.Sort(out)
	return out, nil
}
