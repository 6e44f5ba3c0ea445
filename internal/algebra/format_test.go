package algebra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/rae/internal/typesys"
)

func table(name string) *Table {
	return &Table{Name: name}
}

func field(name string) *Field {
	return &Field{Symbol: typesys.Sym(name)}
}

func lit(v Value) *Literal {
	return &Literal{Value: v}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{
			"nested product",
			&CrossProduct{Left: &CrossProduct{Left: table("A"), Right: table("B")}, Right: table("C")},
			"(cross (cross A B) C)",
		},
		{
			"rename",
			&Rename{From: table("A"), Pairs: []RenamePair{{Old: typesys.Sym("a"), New: typesys.QSym("X", "b")}}},
			"(rename A a->X.b)",
		},
		{
			"count ignores field",
			&Reduce{Kind: Count, From: table("A"), Field: typesys.Sym("ignored")},
			"(count A)",
		},
		{
			"selection with subquery",
			&Selection{From: table("Employee"), Filters: []Filter{
				&Compare{Comp: &In{Elem: field("dept"), Query: &Projection{From: table("Dept"), Fields: []typesys.Symbol{typesys.Sym("dept")}}}},
				&Range{Low: 1, High: 4},
			}},
			"(selection Employee (in dept (projection Dept dept)) (range 1 4))",
		},
		{
			"arithmetic",
			&Selection{From: table("T"), Filters: []Filter{
				&Not{Comp: &Lt{Left: &Binary{Op: OpMod, Left: field("a"), Right: lit(Int(2))}, Right: lit(Uint(1))}},
			}},
			"(selection T (not (lt (mod a 2) 1u)))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.node))
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", FormatValue(Null{}))
	assert.Equal(t, "true", FormatValue(Bool(true)))
	assert.Equal(t, "-4", FormatValue(Int(-4)))
	assert.Equal(t, "4u", FormatValue(Uint(4)))
	assert.Equal(t, "3.0", FormatValue(Float(3)))
	assert.Equal(t, "0.25", FormatValue(Float(0.25)))
	assert.Equal(t, "1e+21", FormatValue(Float(1e21)))
	assert.Equal(t, "+Inf", FormatValue(Float(math.Inf(1))))
	assert.Equal(t, `"a\"b"`, FormatValue(String(`a"b`)))
}

func TestQueryIDIgnoresPositions(t *testing.T) {
	a := &EquiJoin{Pos: typesys.Pos{Line: 1, Column: 1}, Left: table("A"), Right: table("B"), Keys: []string{"k"}}
	b := &EquiJoin{Pos: typesys.Pos{Line: 9, Column: 4}, Left: table("A"), Right: table("B"), Keys: []string{"k"}}
	c := &EquiJoin{Left: table("B"), Right: table("A"), Keys: []string{"k"}}

	assert.Equal(t, QueryID(a), QueryID(b))
	assert.NotEqual(t, QueryID(a), QueryID(c))
	assert.Len(t, QueryID(a), 64)
}

func TestOperatorName(t *testing.T) {
	assert.Equal(t, "LeftJoin", OperatorName(&LeftJoin{}))
	assert.Equal(t, "Reduce", OperatorName(&Reduce{}))
	assert.Equal(t, "Table", OperatorName(table("A")))
}

func TestReduceKindString(t *testing.T) {
	assert.Equal(t, "avg", Avg.String())
	assert.Equal(t, "reduce", ReduceKind(42).String())
}
