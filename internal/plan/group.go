package plan

import (
	"math"
	"slices"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/typesys"
)

// SourceKind identifies where the rows of a Group come from.
type SourceKind int

const (
	SourceTable SourceKind = iota
	SourceProduct
	SourceUnion
	SourceDifference
	SourceIntersect
	SourceDivision
	// SourceGroup is a nested Group whose output feeds the outer one.
	SourceGroup
)

var sourceKindNames = [...]string{"table", "product", "union", "difference", "intersect", "division", "group"}

func (k SourceKind) String() string {
	if int(k) < len(sourceKindNames) {
		return sourceKindNames[k]
	}
	return "source"
}

// Source is the row source of a Group.
type Source struct {
	Kind SourceKind

	// Table is set for SourceTable.
	Table string

	// Left and Right are set for the binary kinds.
	Left, Right *Group

	// Inner is set for SourceGroup.
	Inner *Group

	// Lines is the schema of the rows the source yields.
	Lines typesys.Lines
}

// Window selects rows by position after filtering. Last selects the final
// row; otherwise Count rows starting at Offset are kept. Count saturates at
// MaxUint64.
type Window struct {
	Offset uint64
	Count  uint64
	Last   bool
}

// Aggregate is the single aggregate a Group may apply.
type Aggregate struct {
	Kind  algebra.ReduceKind
	Field typesys.Symbol
}

// Group is a plan folded into one select block: a source, the comparisons
// that filter it, an optional positional window, then either a projection
// or an aggregate.
type Group struct {
	Source Source

	// Where holds comparison filters; And filters are split into one
	// Compare per comparison. Positional filters live in Window.
	Where []algebra.Filter

	Window *Window

	// Projection is nil when every source field is kept.
	Projection []typesys.Symbol

	Aggregate *Aggregate

	// Subqueries holds the folded plan of every In comparison in Where.
	Subqueries map[*algebra.In]*Group

	// Lines is the output schema.
	Lines typesys.Lines
}

// NewGroup folds p into nested Groups.
//
// Selections, projections and an aggregate stacked over the same source
// fold into one Group. When an operator would otherwise run in the wrong
// order (a positional filter beneath a comparison, anything beneath a
// window, a filter or projection over an aggregate) the inner part becomes
// a SourceGroup. A second aggregate over the same chain fails with
// MULTIPLE_AGGREGATES_NOT_SUPPORTED.
func NewGroup(p Plan) (*Group, error) {
	return fold(p, false)
}

func fold(p Plan, aggregated bool) (*Group, error) {
	g := &Group{Lines: p.Schema()}
	if err := g.load(p, aggregated); err != nil {
		return nil, err
	}
	return g, nil
}

// load walks the chain from the outermost operator inwards.
func (g *Group) load(p Plan, aggregated bool) error {
	switch p := p.(type) {
	case *Scan:
		g.Source = Source{Kind: SourceTable, Table: p.Table, Lines: p.Lines}
		return nil
	case *Product:
		return g.binary(SourceProduct, p.Left, p.Right, p.Lines)
	case *Union:
		return g.binary(SourceUnion, p.Left, p.Right, p.Lines)
	case *Difference:
		return g.binary(SourceDifference, p.Left, p.Right, p.Lines)
	case *Intersect:
		return g.binary(SourceIntersect, p.Left, p.Right, p.Lines)
	case *Division:
		return g.binary(SourceDivision, p.Left, p.Right, p.Lines)

	case *Selection:
		return g.loadSelection(p, aggregated)

	case *Projection:
		// An outer projection or aggregate already fixes the output.
		if g.Projection == nil && g.Aggregate == nil {
			g.Projection = p.Fields
		}
		return g.load(p.From, aggregated)

	case *Reduce:
		if aggregated || g.Aggregate != nil {
			return typesys.NewMultipleAggregates()
		}
		if len(g.Where) > 0 || g.Window != nil || g.Projection != nil {
			return g.nest(p, aggregated)
		}
		g.Aggregate = &Aggregate{Kind: p.Kind, Field: p.Field}
		return g.load(p.From, true)
	}
	return typesys.NewNotImplemented("plan node")
}

func (g *Group) binary(kind SourceKind, l, r Plan, lines typesys.Lines) error {
	left, err := NewGroup(l)
	if err != nil {
		return err
	}
	right, err := NewGroup(r)
	if err != nil {
		return err
	}
	g.Source = Source{Kind: kind, Left: left, Right: right, Lines: lines}
	return nil
}

func (g *Group) nest(p Plan, aggregated bool) error {
	inner, err := fold(p, aggregated)
	if err != nil {
		return err
	}
	g.Source = Source{Kind: SourceGroup, Inner: inner, Lines: p.Schema()}
	return nil
}

// loadSelection consumes the filters of p last to first, since the last
// filter is the outermost.
func (g *Group) loadSelection(p *Selection, aggregated bool) error {
	for i := len(p.Filters) - 1; i >= 0; i-- {
		f := p.Filters[i]
		if !isPositional(f) {
			if err := g.addWhere(f, p.Subqueries); err != nil {
				return err
			}
			continue
		}
		if g.Window != nil || len(g.Where) > 0 || g.Aggregate != nil {
			rest := &Selection{From: p.From, Filters: p.Filters[:i+1], Subqueries: p.Subqueries, Lines: p.Lines}
			return g.nest(rest, aggregated)
		}
		g.Window = window(f)
	}
	return g.load(p.From, aggregated)
}

// addWhere prepends f, split into comparisons when it is an And.
func (g *Group) addWhere(f algebra.Filter, subplans map[*algebra.In]Plan) error {
	filters := []algebra.Filter{f}
	if and, ok := f.(*algebra.And); ok {
		filters = make([]algebra.Filter, len(and.Comps))
		for i, c := range and.Comps {
			filters[i] = &algebra.Compare{Pos: and.Pos, Comp: c}
		}
	}
	for _, in := range subqueries(filters) {
		sub, ok := subplans[in]
		if !ok {
			continue
		}
		folded, err := NewGroup(sub)
		if err != nil {
			return err
		}
		if g.Subqueries == nil {
			g.Subqueries = make(map[*algebra.In]*Group)
		}
		g.Subqueries[in] = folded
	}
	g.Where = slices.Concat(filters, g.Where)
	return nil
}

func isPositional(f algebra.Filter) bool {
	switch f.(type) {
	case *algebra.Range, *algebra.GetItem, *algebra.GetFirst, *algebra.GetLast:
		return true
	}
	return false
}

func window(f algebra.Filter) *Window {
	switch f := f.(type) {
	case *algebra.Range:
		count := f.High - f.Low
		if count < math.MaxUint64 {
			count++
		}
		return &Window{Offset: f.Low, Count: count}
	case *algebra.GetItem:
		return &Window{Offset: f.Index, Count: 1}
	case *algebra.GetLast:
		return &Window{Last: true}
	}
	return &Window{Count: 1}
}
