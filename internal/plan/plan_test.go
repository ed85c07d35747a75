package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/rdf"
)

func scan(s string, p rdf.ID, o string) *Scan {
	return NewScan(rdf.Pattern(rdf.Var(s), rdf.Const(p), rdf.Var(o)))
}

func TestVariables(t *testing.T) {
	name := scan("person", 1, "name")
	age := scan("person", 2, "age")

	tests := []struct {
		name string
		plan Logical
		want []string
	}{
		{"scan", name, []string{"name", "person"}},
		{"join", NewJoin(name, age), []string{"age", "name", "person"}},
		{"selection", NewSelection(age, NewCondition("?age", OpGt, "25")), []string{"age", "person"}},
		{"projection", NewProjection(NewJoin(name, age), "?name"), []string{"name"}},
		{"subquery", &Subquery{Inner: NewJoin(name, age), ProjectedVars: []string{"person"}}, []string{"person"}},
		{"values", &Values{Variables: []string{"?x", "y"}}, []string{"x", "y"}},
		{"bind", &Bind{Input: age, Function: "add", Arguments: []string{"age"}, Output: "?older"}, []string{"age", "older", "person"}},
		{"ml predict", &MLPredict{Input: name, Model: "m", InputVariables: []string{"name"}, Output: "score"}, []string{"name", "person", "score"}},
		{"buffer", &Buffer{Name: "window", Capacity: 10}, []string{}},
		{"nil", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortedVariables(tt.plan))
		})
	}
}

func TestExpressionVariables(t *testing.T) {
	expr := &And{
		Left: &Comparison{Variable: "?b", Operator: OpEq, Value: "1"},
		Right: &Or{
			Left: &Not{Expr: &Comparison{Variable: "$a", Operator: OpLt, Value: "2"}},
			Right: &Compare{
				Left:     &Arithmetic{Op: OpAdd, Left: &VarRef{Name: "c"}, Right: &Literal{Value: "1"}},
				Operator: OpGt,
				Right:    &VarRef{Name: "?b"},
			},
		},
	}

	assert.Equal(t, []string{"b", "a", "c"}, ExpressionVariables(expr))
	assert.Empty(t, ExpressionVariables(nil))
	assert.Empty(t, ExpressionVariables(&Compare{Left: &Literal{Value: "1"}, Operator: OpEq, Right: &Literal{Value: "1"}}))
}

func TestParseCompareOp(t *testing.T) {
	op, err := ParseCompareOp("==")
	require.NoError(t, err)
	assert.Equal(t, OpEq, op)

	op, err = ParseCompareOp(" >= ")
	require.NoError(t, err)
	assert.Equal(t, OpGe, op)

	_, err = ParseCompareOp("~")
	assert.Error(t, err)

	_, err = ParseArithOp("%")
	assert.Error(t, err)
}

func TestClone_Independent(t *testing.T) {
	orig := NewProjection(
		NewSelection(
			NewJoin(scan("s", 1, "o1"), &Values{Variables: []string{"s"}, Rows: [][]rdf.ID{{7}}}),
			Condition{Name: "c", Expression: &Not{Expr: &Comparison{Variable: "o1", Operator: OpEq, Value: "x"}}},
		),
		"s", "o1",
	)

	c := Clone(orig)
	require.True(t, Equal(orig, c))
	if diff := cmp.Diff(Logical(orig), c); diff != "" {
		t.Errorf("clone differs (-orig +clone):\n%s", diff)
	}

	// Mutating the clone must not reach the original.
	cp := c.(*Projection)
	cp.Variables[0] = "changed"
	sel := cp.Input.(*Selection)
	sel.Condition.Expression.(*Not).Expr.(*Comparison).Value = "y"
	sel.Input.(*Join).Right.(*Values).Rows[0][0] = 9

	assert.Equal(t, "s", orig.Variables[0])
	origSel := orig.Input.(*Selection)
	assert.Equal(t, "x", origSel.Condition.Expression.(*Not).Expr.(*Comparison).Value)
	assert.Equal(t, rdf.ID(7), origSel.Input.(*Join).Right.(*Values).Rows[0][0])
	assert.False(t, Equal(orig, c))
}

func TestEqual(t *testing.T) {
	a := scan("s", 1, "o")
	b := scan("s", 2, "o")

	assert.True(t, Equal(NewJoin(a, b), NewJoin(scan("?s", 1, "?o"), scan("s", 2, "o"))))
	assert.False(t, Equal(NewJoin(a, b), NewJoin(b, a)), "join child order matters")
	assert.False(t, Equal(a, NewSelection(a, NewCondition("o", OpEq, "1"))))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
	assert.True(t, Equal(&Buffer{Name: "w", Capacity: 3}, &Buffer{Name: "w", Capacity: 3}))
}

func TestFingerprint(t *testing.T) {
	a := scan("s", 1, "o1")
	b := scan("s", 2, "o2")
	c := scan("s", 3, "o3")

	ab, err := Fingerprint(NewJoin(a, b))
	require.NoError(t, err)
	ba, err := Fingerprint(NewJoin(b, a))
	require.NoError(t, err)
	again, err := Fingerprint(NewJoin(Clone(a), Clone(b)))
	require.NoError(t, err)

	assert.Len(t, ab, 64)
	assert.Equal(t, ab, again)
	assert.NotEqual(t, ab, ba)

	shapeAB, err := ShapeFingerprint(NewJoin(NewJoin(a, b), c))
	require.NoError(t, err)
	shapeBA, err := ShapeFingerprint(NewJoin(c, NewJoin(b, a)))
	require.NoError(t, err)
	shapeOther, err := ShapeFingerprint(NewJoin(NewJoin(a, c), b))
	require.NoError(t, err)

	assert.Equal(t, shapeAB, shapeBA)
	assert.NotEqual(t, shapeAB, shapeOther)
	assert.NotEqual(t, ab, shapeAB)

	_, err = Fingerprint(NewJoin(a, nil))
	assert.Error(t, err)
}

func TestMarshalCanonical(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"b":      int64(1),
		"a":      []any{"<x>", true},
		"\u00e9": "cafe\u0301",
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":[\"<x>\",true],\"b\":1,\"\u00e9\":\"caf\u00e9\"}", string(data))

	_, err = MarshalCanonical(1.5)
	assert.Error(t, err)
	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	dict := rdf.NewDictionary()
	name := dict.Encode("http://example.org/name")
	age := dict.Encode("http://example.org/age")

	p := NewProjection(
		NewSelection(
			NewJoin(scan("person", name, "name"), scan("person", age, "age")),
			NewCondition("age", OpGt, "25"),
		),
		"name",
	)

	want := `Projection [?name]
  Selection ?age > 25
    Join
      Scan (?person <http://example.org/name> ?name)
      Scan (?person <http://example.org/age> ?age)
`
	assert.Equal(t, want, Explain(p, dict))
	assert.Contains(t, Explain(scan("s", name, "o"), nil), "#1")
}

func TestValidate(t *testing.T) {
	a := scan("s", 1, "o1")
	b := scan("s", 2, "o2")
	cond := NewCondition("o1", OpEq, "1")

	t.Run("clean", func(t *testing.T) {
		res := Validate(NewProjection(NewJoin(NewSelection(a, cond), b), "s"))
		assert.True(t, res.Enumerable)
		assert.Empty(t, res.Warnings)
	})

	t.Run("barrier in core", func(t *testing.T) {
		res := Validate(NewJoin(a, &Values{Variables: []string{"s"}}))
		assert.False(t, res.Enumerable)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "core.right: Values")
	})

	t.Run("hoisted selection and dropped projection", func(t *testing.T) {
		inner := NewSelection(NewJoin(a, b), cond)
		res := Validate(NewJoin(inner, NewProjection(scan("s", 3, "o3"), "s")))
		assert.True(t, res.Enumerable)
		assert.Len(t, res.Warnings, 2)
	})

	t.Run("opaque root", func(t *testing.T) {
		res := Validate(&Subquery{Inner: NewJoin(a, b), ProjectedVars: []string{"s"}})
		assert.True(t, res.Enumerable)
		assert.Empty(t, res.Warnings)
	})
}

func TestIsScanOnly(t *testing.T) {
	a := scan("s", 1, "o")
	cond := NewCondition("o", OpEq, "1")

	assert.True(t, IsScanOnly(a))
	assert.True(t, IsScanOnly(NewSelection(NewSelection(a, cond), cond)))
	assert.False(t, IsScanOnly(NewSelection(NewJoin(a, a), cond)))
	assert.False(t, IsScanOnly(NewProjection(a, "s")))
	assert.False(t, IsScanOnly(nil))
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindJoin, Kind(NewJoin(nil, nil)))
	assert.Equal(t, KindMLPredict, Kind(&MLPredict{}))
	assert.Equal(t, "nil", Kind(nil))
}
