package plan

import (
	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/typesys"
)

// Plan is a lowered relational-algebra expression.
//
// This is a sealed interface - only types in this package implement it.
// Every node carries the schema inference assigned to the expression it was
// lowered from.
//
// Plan types:
//   - Scan: read a catalog table
//   - Product, Union, Difference, Intersect, Division: binary operators
//   - Selection: filter rows
//   - Projection: restrict fields
//   - Reduce: aggregate to a single row
type Plan interface {
	// Schema returns the output schema of the node.
	Schema() typesys.Lines
	planNode()
}

// Scan reads every row of a catalog table.
type Scan struct {
	Table string
	Lines typesys.Lines
}

// Product is the cartesian product of two plans. Joins lower to a Selection
// over a Product, in which case Lines is the join's schema.
type Product struct {
	Left, Right Plan
	Lines       typesys.Lines
}

// Union of two plans with identical schemas.
type Union struct {
	Left, Right Plan
	Lines       typesys.Lines
}

// Difference of two plans with identical schemas.
type Difference struct {
	Left, Right Plan
	Lines       typesys.Lines
}

// Intersect of two plans with identical schemas.
type Intersect struct {
	Left, Right Plan
	Lines       typesys.Lines
}

// Division of Left by Right.
type Division struct {
	Left, Right Plan
	Lines       typesys.Lines
}

// Selection filters the rows of From. Filters apply in order.
//
// Subqueries holds the lowered plan of every In comparison found in
// Filters, keyed by the comparison.
type Selection struct {
	From       Plan
	Filters    []algebra.Filter
	Subqueries map[*algebra.In]Plan
	Lines      typesys.Lines
}

// Projection restricts From to Fields.
type Projection struct {
	From   Plan
	Fields []typesys.Symbol
	Lines  typesys.Lines
}

// Reduce aggregates From into one row. Field is unused for Count.
type Reduce struct {
	Kind  algebra.ReduceKind
	From  Plan
	Field typesys.Symbol
	Lines typesys.Lines
}

func (p *Scan) Schema() typesys.Lines       { return p.Lines }
func (p *Product) Schema() typesys.Lines    { return p.Lines }
func (p *Union) Schema() typesys.Lines      { return p.Lines }
func (p *Difference) Schema() typesys.Lines { return p.Lines }
func (p *Intersect) Schema() typesys.Lines  { return p.Lines }
func (p *Division) Schema() typesys.Lines   { return p.Lines }
func (p *Selection) Schema() typesys.Lines  { return p.Lines }
func (p *Projection) Schema() typesys.Lines { return p.Lines }
func (p *Reduce) Schema() typesys.Lines     { return p.Lines }

func (*Scan) planNode()       {}
func (*Product) planNode()    {}
func (*Union) planNode()      {}
func (*Difference) planNode() {}
func (*Intersect) planNode()  {}
func (*Division) planNode()   {}
func (*Selection) planNode()  {}
func (*Projection) planNode() {}
func (*Reduce) planNode()     {}

// Children returns the direct inputs of p, left before right. Subqueries
// are not included.
func Children(p Plan) []Plan {
	switch p := p.(type) {
	case *Product:
		return []Plan{p.Left, p.Right}
	case *Union:
		return []Plan{p.Left, p.Right}
	case *Difference:
		return []Plan{p.Left, p.Right}
	case *Intersect:
		return []Plan{p.Left, p.Right}
	case *Division:
		return []Plan{p.Left, p.Right}
	case *Selection:
		return []Plan{p.From}
	case *Projection:
		return []Plan{p.From}
	case *Reduce:
		return []Plan{p.From}
	}
	return nil
}
