package querysql

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/plan"
	"github.com/roach88/rae/internal/typesys"
)

// compileFilters joins the comparison filters of g with AND.
func (c *SQLCompiler) compileFilters(g *plan.Group, cols scope) (string, []any, error) {
	var parts []string
	var params []any
	for _, f := range g.Where {
		sql, p, err := c.compileFilter(f, g, cols)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}

func (c *SQLCompiler) compileFilter(f algebra.Filter, g *plan.Group, cols scope) (string, []any, error) {
	switch f := f.(type) {
	case *algebra.Compare:
		return c.compileComp(f.Comp, g, cols)
	case *algebra.Not:
		sql, params, err := c.compileComp(f.Comp, g, cols)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case *algebra.And:
		return c.compileJunction(f.Comps, " AND ", "1 = 1", g, cols)
	case *algebra.Or:
		return c.compileJunction(f.Comps, " OR ", "1 = 0", g, cols)
	}
	return "", nil, fmt.Errorf("unsupported filter type: %T", f)
}

// compileJunction joins comps with op. An empty junction is its identity
// element.
func (c *SQLCompiler) compileJunction(comps []algebra.Comp, op, empty string, g *plan.Group, cols scope) (string, []any, error) {
	if len(comps) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(comps))
	var params []any
	for _, comp := range comps {
		sql, p, err := c.compileComp(comp, g, cols)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, op) + ")", params, nil
}

func (c *SQLCompiler) compileComp(comp algebra.Comp, g *plan.Group, cols scope) (string, []any, error) {
	switch comp := comp.(type) {
	case *algebra.Eq:
		op := "="
		if isNull(comp.Left) || isNull(comp.Right) {
			op = "IS"
		}
		return c.compileBinary(comp.Left, op, comp.Right, cols)
	case *algebra.Lt:
		return c.compileBinary(comp.Left, "<", comp.Right, cols)
	case *algebra.Gt:
		return c.compileBinary(comp.Left, ">", comp.Right, cols)
	case *algebra.In:
		sub, ok := g.Subqueries[comp]
		if !ok {
			return "", nil, fmt.Errorf("subquery at %s was not lowered", comp.Pos)
		}
		elem, params, err := compileExpr(comp.Elem, cols)
		if err != nil {
			return "", nil, err
		}
		subSQL, subParams, err := c.compileGroup(sub)
		if err != nil {
			return "", nil, fmt.Errorf("compile subquery: %w", err)
		}
		return fmt.Sprintf("%s IN (%s)", elem, subSQL), append(params, subParams...), nil
	}
	return "", nil, fmt.Errorf("unsupported comparison type: %T", comp)
}

func (c *SQLCompiler) compileBinary(l algebra.Expr, op string, r algebra.Expr, cols scope) (string, []any, error) {
	left, params, err := compileExpr(l, cols)
	if err != nil {
		return "", nil, err
	}
	right, rightParams, err := compileExpr(r, cols)
	if err != nil {
		return "", nil, err
	}
	return left + " " + op + " " + right, append(params, rightParams...), nil
}

var binaryOperators = map[algebra.BinaryOp]string{
	algebra.OpAdd: "+",
	algebra.OpSub: "-",
	algebra.OpMul: "*",
	algebra.OpDiv: "/",
	algebra.OpMod: "%",
	algebra.OpAnd: "AND",
	algebra.OpOr:  "OR",
}

func compileExpr(e algebra.Expr, cols scope) (string, []any, error) {
	switch e := e.(type) {
	case *algebra.Field:
		sql, ok := cols[e.Symbol]
		if !ok {
			return "", nil, typesys.NewFieldNotFound(e.Symbol)
		}
		return sql, nil, nil
	case *algebra.Literal:
		param, err := valueToParam(e.Value)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		return "?", []any{param}, nil
	case *algebra.Negate:
		sql, params, err := compileExpr(e.Operand, cols)
		if err != nil {
			return "", nil, err
		}
		return "(NOT " + sql + ")", params, nil
	case *algebra.Binary:
		op, ok := binaryOperators[e.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator: %s", e.Op)
		}
		left, params, err := compileExpr(e.Left, cols)
		if err != nil {
			return "", nil, err
		}
		right, rightParams, err := compileExpr(e.Right, cols)
		if err != nil {
			return "", nil, err
		}
		return "(" + left + " " + op + " " + right + ")", append(params, rightParams...), nil
	}
	return "", nil, fmt.Errorf("unsupported expression type: %T", e)
}

func isNull(e algebra.Expr) bool {
	lit, ok := e.(*algebra.Literal)
	if !ok {
		return false
	}
	_, ok = lit.Value.(algebra.Null)
	return ok
}

// valueToParam converts a literal to a Go value the SQLite driver binds.
// Unsigned values above the signed 64-bit range have no SQLite integer
// representation.
func valueToParam(v algebra.Value) (any, error) {
	switch val := v.(type) {
	case algebra.Null:
		return nil, nil
	case algebra.Bool:
		return bool(val), nil
	case algebra.Int:
		return int64(val), nil
	case algebra.Uint:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("uint literal %d exceeds SQLite integer range", uint64(val))
		}
		return int64(val), nil
	case algebra.Float:
		return float64(val), nil
	case algebra.String:
		return string(val), nil
	default:
		return nil, fmt.Errorf("unsupported literal type for SQL parameter: %T", v)
	}
}
