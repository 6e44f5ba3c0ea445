package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/typesys"
)

func testChecker() *infer.Checker {
	return infer.New(typesys.NewEnv(map[string]typesys.Record{
		"Employee": typesys.MustParseRecord("{id: int, dept: string}"),
		"Dept":     typesys.MustParseRecord("{dept: string, mgr: string}"),
	}))
}

func tbl(name string) *algebra.Table {
	return &algebra.Table{Name: name}
}

func field(name string) *algebra.Field {
	return &algebra.Field{Symbol: typesys.Sym(name)}
}

func str(s string) *algebra.Literal {
	return &algebra.Literal{Value: algebra.String(s)}
}

func eq(l, r algebra.Expr) algebra.Filter {
	return &algebra.Compare{Comp: &algebra.Eq{Left: l, Right: r}}
}

func TestBuildScan(t *testing.T) {
	p, err := Build(testChecker(), tbl("Employee"))
	require.NoError(t, err)

	scan, ok := p.(*Scan)
	require.True(t, ok)
	assert.Equal(t, "Employee", scan.Table)
	assert.Equal(t, "Employee {dept: string, id: int}", scan.Schema().String())
}

func TestBuildEquiJoin(t *testing.T) {
	p, err := Build(testChecker(), &algebra.EquiJoin{Left: tbl("Employee"), Right: tbl("Dept"), Keys: []string{"dept"}})
	require.NoError(t, err)

	sel, ok := p.(*Selection)
	require.True(t, ok, "equijoin lowers to a selection")
	require.Len(t, sel.Filters, 1)
	assert.Equal(t, "(eq Employee.dept Dept.dept)", algebra.FormatFilter(sel.Filters[0]))
	assert.Equal(t, "Employee=Dept", sel.Schema().Label)

	product, ok := sel.From.(*Product)
	require.True(t, ok)
	assert.Equal(t, sel.Schema(), product.Schema())
	assert.Equal(t, "Employee", product.Left.Schema().Label)
	assert.Equal(t, "Dept", product.Right.Schema().Label)
}

func TestBuildInnerJoin(t *testing.T) {
	join := &algebra.InnerJoin{
		Left:  tbl("Employee"),
		Right: tbl("Dept"),
		Filters: []algebra.Filter{eq(
			&algebra.Field{Symbol: typesys.QSym("Employee", "dept")},
			&algebra.Field{Symbol: typesys.QSym("Dept", "dept")},
		)},
	}
	p, err := Build(testChecker(), join)
	require.NoError(t, err)

	sel, ok := p.(*Selection)
	require.True(t, ok)
	assert.Equal(t, join.Filters, sel.Filters)
	_, ok = sel.From.(*Product)
	assert.True(t, ok)
}

func TestBuildReportsTypeErrors(t *testing.T) {
	_, err := Build(testChecker(), tbl("Nope"))
	require.Error(t, err)
	assert.True(t, typesys.IsCode(err, typesys.ErrCodeTableNotFound))
}

func TestBuildNotImplemented(t *testing.T) {
	pos := typesys.Pos{Line: 3, Column: 7}
	nodes := []algebra.Node{
		&algebra.NatureJoin{Pos: pos, Left: tbl("Employee"), Right: tbl("Dept")},
		&algebra.Rename{Pos: pos, From: tbl("Employee"), Pairs: []algebra.RenamePair{{Old: typesys.Sym("id"), New: typesys.Sym("key")}}},
	}
	for _, n := range nodes {
		t.Run(algebra.OperatorName(n), func(t *testing.T) {
			_, err := Build(testChecker(), n)
			require.Error(t, err)
			assert.True(t, typesys.IsCode(err, typesys.ErrCodeNotImplemented))
			got, ok := typesys.PosOf(err)
			require.True(t, ok)
			assert.Equal(t, pos, got)
		})
	}
}

func TestLowerRequiresMatchingResult(t *testing.T) {
	res, err := testChecker().Check(tbl("Employee"))
	require.NoError(t, err)

	_, err = Lower(tbl("Employee"), res)
	assert.ErrorContains(t, err, "was not type checked")
}

func TestBuildSubqueries(t *testing.T) {
	in := &algebra.In{
		Elem:  field("dept"),
		Query: &algebra.Projection{From: tbl("Dept"), Fields: []typesys.Symbol{typesys.Sym("dept")}},
	}
	p, err := Build(testChecker(), &algebra.Selection{From: tbl("Employee"), Filters: []algebra.Filter{&algebra.Compare{Comp: in}}})
	require.NoError(t, err)

	sel := p.(*Selection)
	sub, ok := sel.Subqueries[in]
	require.True(t, ok)
	assert.Equal(t, "Dept {dept: string}", sub.Schema().String())
}

func TestFormat(t *testing.T) {
	n := &algebra.Projection{
		From:   &algebra.Selection{From: tbl("Employee"), Filters: []algebra.Filter{eq(field("dept"), str("eng"))}},
		Fields: []typesys.Symbol{typesys.Sym("id")},
	}
	p, err := Build(testChecker(), n)
	require.NoError(t, err)

	want := "projection id :: Employee {id: int}\n" +
		"  selection (eq dept \"eng\") :: Employee {dept: string, id: int}\n" +
		"    scan Employee :: Employee {dept: string, id: int}\n"
	assert.Equal(t, want, Format(p))
}

func TestFormatSubquery(t *testing.T) {
	in := &algebra.In{Elem: field("dept"), Query: &algebra.Projection{From: tbl("Dept"), Fields: []typesys.Symbol{typesys.Sym("dept")}}}
	p, err := Build(testChecker(), &algebra.Selection{From: tbl("Employee"), Filters: []algebra.Filter{&algebra.Compare{Comp: in}}})
	require.NoError(t, err)

	want := "selection (in dept (projection Dept dept)) :: Employee {dept: string, id: int}\n" +
		"  scan Employee :: Employee {dept: string, id: int}\n" +
		"  subquery\n" +
		"    projection dept :: Dept {dept: string}\n" +
		"      scan Dept :: Dept {dept: string, mgr: string}\n"
	assert.Equal(t, want, Format(p))
}
