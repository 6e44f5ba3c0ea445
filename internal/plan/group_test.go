package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/typesys"
)

func build(t *testing.T, n algebra.Node) Plan {
	t.Helper()
	p, err := Build(testChecker(), n)
	require.NoError(t, err)
	return p
}

func group(t *testing.T, n algebra.Node) *Group {
	t.Helper()
	g, err := NewGroup(build(t, n))
	require.NoError(t, err)
	return g
}

func where(from algebra.Node, filters ...algebra.Filter) *algebra.Selection {
	return &algebra.Selection{From: from, Filters: filters}
}

func formatted(filters []algebra.Filter) []string {
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = algebra.FormatFilter(f)
	}
	return out
}

func TestGroupTable(t *testing.T) {
	g := group(t, tbl("Employee"))
	assert.Equal(t, SourceTable, g.Source.Kind)
	assert.Equal(t, "Employee", g.Source.Table)
	assert.Empty(t, g.Where)
	assert.Nil(t, g.Window)
	assert.Nil(t, g.Projection)
	assert.Nil(t, g.Aggregate)
}

func TestGroupSplitsConjunctions(t *testing.T) {
	and := &algebra.And{Comps: []algebra.Comp{
		&algebra.Eq{Left: field("dept"), Right: str("eng")},
		&algebra.Gt{Left: field("id"), Right: &algebra.Literal{Value: algebra.Int(3)}},
	}}
	g := group(t, where(tbl("Employee"), and))

	assert.Equal(t, []string{`(eq dept "eng")`, "(gt id 3)"}, formatted(g.Where))
}

func TestGroupStackedSelectionsKeepOrder(t *testing.T) {
	inner := where(tbl("Employee"), eq(field("dept"), str("a")))
	outer := where(inner, eq(field("dept"), str("b")))

	g := group(t, outer)
	assert.Equal(t, SourceTable, g.Source.Kind)
	assert.Equal(t, []string{`(eq dept "a")`, `(eq dept "b")`}, formatted(g.Where))
}

func TestGroupProjection(t *testing.T) {
	n := &algebra.Projection{
		From:   where(tbl("Employee"), eq(field("dept"), str("eng"))),
		Fields: []typesys.Symbol{typesys.Sym("id")},
	}
	g := group(t, n)
	assert.Equal(t, []typesys.Symbol{typesys.Sym("id")}, g.Projection)
	assert.Len(t, g.Where, 1)
	assert.Equal(t, "Employee {id: int}", g.Lines.String())
}

func TestGroupAggregate(t *testing.T) {
	n := &algebra.Reduce{
		Kind: algebra.Count,
		From: &algebra.Projection{
			From:   where(tbl("Employee"), eq(field("dept"), str("eng"))),
			Fields: []typesys.Symbol{typesys.Sym("id")},
		},
	}
	g := group(t, n)

	require.NotNil(t, g.Aggregate)
	assert.Equal(t, algebra.Count, g.Aggregate.Kind)
	assert.Nil(t, g.Projection, "the aggregate fixes the output")
	assert.Len(t, g.Where, 1)
	assert.Equal(t, SourceTable, g.Source.Kind)
}

func TestGroupMultipleAggregates(t *testing.T) {
	n := &algebra.Reduce{
		Kind:  algebra.Sum,
		From:  &algebra.Reduce{Kind: algebra.Count, From: tbl("Employee")},
		Field: infer.CountField,
	}
	_, err := NewGroup(build(t, n))
	require.Error(t, err)
	assert.True(t, typesys.IsCode(err, typesys.ErrCodeMultipleAggregates))
}

func TestGroupMultipleAggregatesThroughSelection(t *testing.T) {
	count := &algebra.Reduce{Kind: algebra.Count, From: tbl("Employee")}
	n := &algebra.Reduce{
		Kind:  algebra.Max,
		From:  where(count, &algebra.Compare{Comp: &algebra.Gt{Left: &algebra.Field{Symbol: infer.CountField}, Right: &algebra.Literal{Value: algebra.Int(1)}}}),
		Field: infer.CountField,
	}
	_, err := NewGroup(build(t, n))
	assert.True(t, typesys.IsCode(err, typesys.ErrCodeMultipleAggregates))
}

func TestGroupFilterOverAggregateNests(t *testing.T) {
	count := &algebra.Reduce{Kind: algebra.Count, From: tbl("Employee")}
	n := where(count, &algebra.Compare{Comp: &algebra.Gt{Left: &algebra.Field{Symbol: infer.CountField}, Right: &algebra.Literal{Value: algebra.Int(1)}}})

	g := group(t, n)
	assert.Nil(t, g.Aggregate)
	assert.Len(t, g.Where, 1)
	require.Equal(t, SourceGroup, g.Source.Kind)
	require.NotNil(t, g.Source.Inner.Aggregate)
	assert.Equal(t, algebra.Count, g.Source.Inner.Aggregate.Kind)
}

func TestGroupWindow(t *testing.T) {
	tests := []struct {
		name   string
		filter algebra.Filter
		want   Window
	}{
		{"first", &algebra.GetFirst{}, Window{Count: 1}},
		{"item", &algebra.GetItem{Index: 4}, Window{Offset: 4, Count: 1}},
		{"range is inclusive", &algebra.Range{Low: 2, High: 5}, Window{Offset: 2, Count: 4}},
		{"last", &algebra.GetLast{}, Window{Last: true}},
		{"full range saturates", &algebra.Range{Low: 0, High: math.MaxUint64}, Window{Count: math.MaxUint64}},
		{"range to the end", &algebra.Range{Low: 3, High: math.MaxUint64}, Window{Offset: 3, Count: math.MaxUint64 - 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := group(t, where(tbl("Employee"), eq(field("dept"), str("eng")), tt.filter))
			require.NotNil(t, g.Window)
			assert.Equal(t, tt.want, *g.Window)
			assert.Len(t, g.Where, 1)
			assert.Equal(t, SourceTable, g.Source.Kind)
		})
	}
}

func TestGroupWindowBeneathComparisonNests(t *testing.T) {
	g := group(t, where(tbl("Employee"), &algebra.GetFirst{}, eq(field("dept"), str("eng"))))

	assert.Nil(t, g.Window)
	assert.Equal(t, []string{`(eq dept "eng")`}, formatted(g.Where))
	require.Equal(t, SourceGroup, g.Source.Kind)

	inner := g.Source.Inner
	require.NotNil(t, inner.Window)
	assert.Equal(t, Window{Count: 1}, *inner.Window)
	assert.Empty(t, inner.Where)
	assert.Equal(t, SourceTable, inner.Source.Kind)
}

func TestGroupWindowBeneathAggregateNests(t *testing.T) {
	n := &algebra.Reduce{Kind: algebra.Count, From: where(tbl("Employee"), &algebra.Range{Low: 0, High: 9})}
	g := group(t, n)

	require.NotNil(t, g.Aggregate)
	assert.Nil(t, g.Window)
	require.Equal(t, SourceGroup, g.Source.Kind)
	assert.Equal(t, Window{Count: 10}, *g.Source.Inner.Window)
}

func TestGroupSetOperations(t *testing.T) {
	n := &algebra.Union{
		Left:  where(tbl("Employee"), eq(field("dept"), str("a"))),
		Right: tbl("Employee"),
	}
	g := group(t, n)

	require.Equal(t, SourceUnion, g.Source.Kind)
	assert.Len(t, g.Source.Left.Where, 1)
	assert.Equal(t, SourceTable, g.Source.Right.Source.Kind)
	assert.Equal(t, "union", g.Source.Kind.String())
}

func TestGroupSubqueries(t *testing.T) {
	in := &algebra.In{
		Elem:  field("dept"),
		Query: &algebra.Projection{From: tbl("Dept"), Fields: []typesys.Symbol{typesys.Sym("dept")}},
	}
	g := group(t, where(tbl("Employee"), &algebra.Compare{Comp: in}))

	sub, ok := g.Subqueries[in]
	require.True(t, ok)
	assert.Equal(t, "Dept", sub.Source.Table)
	assert.Equal(t, []typesys.Symbol{typesys.Sym("dept")}, sub.Projection)
}
