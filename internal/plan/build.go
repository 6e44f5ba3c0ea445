package plan

import (
	"fmt"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/typesys"
)

// Build type checks n with c and lowers it.
func Build(c *infer.Checker, n algebra.Node) (Plan, error) {
	res, err := c.Check(n)
	if err != nil {
		return nil, err
	}
	return Lower(n, res)
}

// Lower converts a type-checked expression into a Plan. res must come from
// checking n itself.
//
// InnerJoin lowers to a Selection over a Product. EquiJoin does the same
// with one equality per key between the two qualified key fields.
// NatureJoin, Rename and the outer joins have no plan form and fail with
// NOT_IMPLEMENTED at the offending node.
func Lower(n algebra.Node, res *infer.Result) (Plan, error) {
	l := &lowerer{schemas: res.Schemas}
	return l.lower(n)
}

type lowerer struct {
	schemas map[algebra.Node]typesys.Lines
}

func (l *lowerer) lower(n algebra.Node) (Plan, error) {
	if n == nil {
		return nil, fmt.Errorf("lower: nil expression")
	}
	lines, ok := l.schemas[n]
	if !ok {
		return nil, fmt.Errorf("lower: %s at %s was not type checked", algebra.OperatorName(n), n.Position())
	}

	switch n := n.(type) {
	case *algebra.Table:
		return &Scan{Table: n.Name, Lines: lines}, nil

	case *algebra.CrossProduct:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &Product{Left: left, Right: right, Lines: lines}, nil

	case *algebra.Union:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &Union{Left: left, Right: right, Lines: lines}, nil

	case *algebra.Difference:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &Difference{Left: left, Right: right, Lines: lines}, nil

	case *algebra.Intersect:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &Intersect{Left: left, Right: right, Lines: lines}, nil

	case *algebra.Division:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &Division{Left: left, Right: right, Lines: lines}, nil

	case *algebra.Selection:
		from, err := l.lower(n.From)
		if err != nil {
			return nil, err
		}
		return l.selection(from, n.Filters, lines)

	case *algebra.Projection:
		from, err := l.lower(n.From)
		if err != nil {
			return nil, err
		}
		return &Projection{From: from, Fields: n.Fields, Lines: lines}, nil

	case *algebra.InnerJoin:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		product := &Product{Left: left, Right: right, Lines: lines}
		return l.selection(product, n.Filters, lines)

	case *algebra.EquiJoin:
		left, right, err := l.pair(n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		product := &Product{Left: left, Right: right, Lines: lines}
		lLabel, rLabel := left.Schema().Label, right.Schema().Label
		filters := make([]algebra.Filter, len(n.Keys))
		for i, k := range n.Keys {
			filters[i] = &algebra.Compare{Pos: n.Pos, Comp: &algebra.Eq{
				Pos:   n.Pos,
				Left:  &algebra.Field{Pos: n.Pos, Symbol: infer.Qualify(lLabel, typesys.Sym(k))},
				Right: &algebra.Field{Pos: n.Pos, Symbol: infer.Qualify(rLabel, typesys.Sym(k))},
			}}
		}
		return l.selection(product, filters, lines)

	case *algebra.Reduce:
		from, err := l.lower(n.From)
		if err != nil {
			return nil, err
		}
		return &Reduce{Kind: n.Kind, From: from, Field: n.Field, Lines: lines}, nil
	}
	return nil, typesys.At(n.Position(), typesys.NewNotImplemented(algebra.OperatorName(n)))
}

func (l *lowerer) pair(left, right algebra.Node) (Plan, Plan, error) {
	lp, err := l.lower(left)
	if err != nil {
		return nil, nil, err
	}
	rp, err := l.lower(right)
	if err != nil {
		return nil, nil, err
	}
	return lp, rp, nil
}

// selection lowers the subqueries of filters and wraps from.
func (l *lowerer) selection(from Plan, filters []algebra.Filter, lines typesys.Lines) (Plan, error) {
	sel := &Selection{From: from, Filters: filters, Lines: lines}
	for _, in := range subqueries(filters) {
		sub, err := l.lower(in.Query)
		if err != nil {
			return nil, err
		}
		if sel.Subqueries == nil {
			sel.Subqueries = make(map[*algebra.In]Plan)
		}
		sel.Subqueries[in] = sub
	}
	return sel, nil
}

// subqueries returns the In comparisons of filters in order of appearance.
func subqueries(filters []algebra.Filter) []*algebra.In {
	var out []*algebra.In
	add := func(c algebra.Comp) {
		if in, ok := c.(*algebra.In); ok {
			out = append(out, in)
		}
	}
	for _, f := range filters {
		switch f := f.(type) {
		case *algebra.And:
			for _, c := range f.Comps {
				add(c)
			}
		case *algebra.Or:
			for _, c := range f.Comps {
				add(c)
			}
		case *algebra.Not:
			add(f.Comp)
		case *algebra.Compare:
			add(f.Comp)
		}
	}
	return out
}
