package querysql

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/plan"
	"github.com/roach88/rae/internal/typesys"
)

// SQLCompiler compiles plan groups to parameterized SQL for SQLite.
//
// Every select block ends in ORDER BY over all of its output columns, so
// results and positional windows are deterministic. Literal values and
// window bounds are always bound as parameters, never interpolated.
type SQLCompiler struct {
	aliases int
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts g to a SQL statement and its parameters.
//
// Output columns are named after the symbols of g's schema: Name for an
// unqualified symbol, Qualifier.Name otherwise, and "_" for the count
// column.
func (c *SQLCompiler) Compile(g *plan.Group) (string, []any, error) {
	if g == nil {
		return "", nil, fmt.Errorf("cannot compile nil group")
	}
	c.aliases = 0
	return c.compileGroup(g)
}

// CompilePlan folds p into a group and compiles it.
func (c *SQLCompiler) CompilePlan(p plan.Plan) (string, []any, error) {
	g, err := plan.NewGroup(p)
	if err != nil {
		return "", nil, err
	}
	return c.Compile(g)
}

// scope maps the symbols visible in a select block to SQL expressions.
type scope map[typesys.Symbol]string

func (c *SQLCompiler) compileGroup(g *plan.Group) (string, []any, error) {
	from, cols, params, err := c.compileSource(g.Source)
	if err != nil {
		return "", nil, err
	}

	selectClause, err := c.compileOutput(g, cols)
	if err != nil {
		return "", nil, err
	}

	var whereClause string
	if len(g.Where) > 0 {
		whereSQL, whereParams, err := c.compileFilters(g, cols)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + whereSQL
		params = append(params, whereParams...)
	}

	orderByClause := " ORDER BY " + stableOrderKey(g.Lines.Fields)

	var limitClause string
	if g.Window != nil {
		if g.Window.Last {
			return "", nil, typesys.NewNotImplemented("last row selection")
		}
		if g.Window.Offset > math.MaxInt64 {
			return "", nil, fmt.Errorf("row offset %d exceeds SQLite integer range", g.Window.Offset)
		}
		// Counts above MaxInt64 keep every row.
		count := min(g.Window.Count, math.MaxInt64)
		limitClause = " LIMIT ? OFFSET ?"
		params = append(params, int64(count), int64(g.Window.Offset))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s",
		selectClause,
		from,
		whereClause,
		orderByClause,
		limitClause)
	return sql, params, nil
}

// compileOutput builds the SELECT list. Projections use DISTINCT to keep
// set semantics.
func (c *SQLCompiler) compileOutput(g *plan.Group, cols scope) (string, error) {
	if agg := g.Aggregate; agg != nil {
		if agg.Kind == algebra.Count {
			return "COUNT(*) AS " + quoteIdent(column(infer.CountField)), nil
		}
		expr, ok := cols[agg.Field]
		if !ok {
			return "", typesys.NewFieldNotFound(agg.Field)
		}
		return fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(agg.Kind.String()), expr, quoteIdent(column(agg.Field))), nil
	}

	parts := make([]string, 0, len(g.Lines.Fields))
	for _, s := range g.Lines.Fields.Symbols() {
		expr, ok := cols[s]
		if !ok {
			return "", typesys.NewFieldNotFound(s)
		}
		name := quoteIdent(column(s))
		if expr == name {
			parts = append(parts, expr)
		} else {
			parts = append(parts, expr+" AS "+name)
		}
	}
	list := strings.Join(parts, ", ")
	if g.Projection != nil {
		list = "DISTINCT " + list
	}
	return list, nil
}

// compileSource renders the FROM clause of a block and the scope of
// columns it exposes.
func (c *SQLCompiler) compileSource(src plan.Source) (string, scope, []any, error) {
	switch src.Kind {
	case plan.SourceTable:
		cols := make(scope, len(src.Lines.Fields))
		for s := range src.Lines.Fields {
			cols[s] = quoteIdent(column(s))
		}
		return quoteIdent(src.Table), cols, nil, nil

	case plan.SourceGroup:
		sql, params, err := c.compileGroup(src.Inner)
		if err != nil {
			return "", nil, nil, err
		}
		alias := c.alias()
		return fmt.Sprintf("(%s) AS %s", sql, alias), derivedScope(alias, src.Lines.Fields), params, nil

	case plan.SourceUnion, plan.SourceDifference, plan.SourceIntersect:
		leftSQL, leftParams, err := c.compileGroup(src.Left)
		if err != nil {
			return "", nil, nil, fmt.Errorf("compile left %s operand: %w", src.Kind, err)
		}
		rightSQL, rightParams, err := c.compileGroup(src.Right)
		if err != nil {
			return "", nil, nil, fmt.Errorf("compile right %s operand: %w", src.Kind, err)
		}
		alias := c.alias()
		sql := fmt.Sprintf("(SELECT * FROM (%s) %s SELECT * FROM (%s)) AS %s",
			leftSQL, compoundOperator(src.Kind), rightSQL, alias)
		return sql, derivedScope(alias, src.Lines.Fields), append(leftParams, rightParams...), nil

	case plan.SourceProduct:
		return c.compileProduct(src)

	case plan.SourceDivision:
		return "", nil, nil, typesys.NewNotImplemented("division")
	}
	return "", nil, nil, fmt.Errorf("unsupported source kind: %s", src.Kind)
}

// compileProduct renders a cross join of two derived tables. A symbol of
// the product that was qualified by schema merge resolves to the original
// column of the side whose label it carries.
func (c *SQLCompiler) compileProduct(src plan.Source) (string, scope, []any, error) {
	leftSQL, leftParams, err := c.compileGroup(src.Left)
	if err != nil {
		return "", nil, nil, fmt.Errorf("compile product left: %w", err)
	}
	rightSQL, rightParams, err := c.compileGroup(src.Right)
	if err != nil {
		return "", nil, nil, fmt.Errorf("compile product right: %w", err)
	}
	la, ra := c.alias(), c.alias()

	left, right := src.Left.Lines, src.Right.Lines
	cols := make(scope, len(src.Lines.Fields))
	for s := range left.Fields {
		if right.Fields.Has(s) {
			cols[infer.Qualify(left.Label, s)] = la + "." + quoteIdent(column(s))
			cols[infer.Qualify(right.Label, s)] = ra + "." + quoteIdent(column(s))
			continue
		}
		cols[s] = la + "." + quoteIdent(column(s))
	}
	for s := range right.Fields {
		if !left.Fields.Has(s) {
			cols[s] = ra + "." + quoteIdent(column(s))
		}
	}

	sql := fmt.Sprintf("(%s) AS %s CROSS JOIN (%s) AS %s", leftSQL, la, rightSQL, ra)
	return sql, cols, append(leftParams, rightParams...), nil
}

func (c *SQLCompiler) alias() string {
	a := "t" + strconv.Itoa(c.aliases)
	c.aliases++
	return quoteIdent(a)
}

func derivedScope(alias string, fields typesys.Record) scope {
	cols := make(scope, len(fields))
	for s := range fields {
		cols[s] = alias + "." + quoteIdent(column(s))
	}
	return cols
}

func compoundOperator(k plan.SourceKind) string {
	switch k {
	case plan.SourceDifference:
		return "EXCEPT"
	case plan.SourceIntersect:
		return "INTERSECT"
	}
	return "UNION"
}

// stableOrderKey returns the ORDER BY list: every output column in symbol
// order. COLLATE BINARY keeps text ordering identical across SQLite builds.
func stableOrderKey(fields typesys.Record) string {
	parts := make([]string, 0, len(fields))
	for _, s := range fields.Symbols() {
		parts = append(parts, quoteIdent(column(s))+" ASC COLLATE BINARY")
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, ", ")
}

// column is the SQL column name of s.
func column(s typesys.Symbol) string {
	name := s.Name
	if name == "" {
		name = "_"
	}
	if s.Qualifier == "" {
		return name
	}
	return s.Qualifier + "." + name
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
