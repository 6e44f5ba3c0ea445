package algebra

import "github.com/roach88/rae/internal/typesys"

// Node is a relational-algebra expression.
//
// This is a sealed interface - only types in this package implement it.
// Every node embeds typesys.Pos, so diagnostics can point at the exact
// subexpression that failed.
//
// Node types:
//   - Table: named base relation
//   - CrossProduct, InnerJoin, EquiJoin, NatureJoin: combinations
//   - Union, Difference, Intersect: set operations over equal schemas
//   - Selection, Projection, Rename, Division: single-input transforms
//   - Reduce: aggregation to a single field
//   - LeftJoin, RightJoin, FullJoin: parsed but not supported by inference
type Node interface {
	Position() typesys.Pos
	node() // Marker method - seals interface to this package
}

// Table references a relation in the catalog by name.
type Table struct {
	typesys.Pos
	Name string
}

// CrossProduct pairs every row of Left with every row of Right.
type CrossProduct struct {
	typesys.Pos
	Left, Right Node
}

// Union is the set union of two relations with equal schemas.
type Union struct {
	typesys.Pos
	Left, Right Node
}

// Difference keeps rows of Left absent from Right.
type Difference struct {
	typesys.Pos
	Left, Right Node
}

// Intersect keeps rows present in both relations.
type Intersect struct {
	typesys.Pos
	Left, Right Node
}

// Selection keeps rows of From that pass every filter.
type Selection struct {
	typesys.Pos
	From    Node
	Filters []Filter
}

// Projection restricts From to Fields.
type Projection struct {
	typesys.Pos
	From   Node
	Fields []typesys.Symbol
}

// Division is relational division: the Left rows that pair with every
// Right row, keeping only the fields Right does not carry.
type Division struct {
	typesys.Pos
	Left, Right Node
}

// RenamePair renames Old to New.
type RenamePair struct {
	Old typesys.Symbol
	New typesys.Symbol
}

// Rename renames fields of From. Pairs are applied simultaneously.
type Rename struct {
	typesys.Pos
	From  Node
	Pairs []RenamePair
}

// InnerJoin is the cross product of Left and Right filtered by Filters.
type InnerJoin struct {
	typesys.Pos
	Left, Right Node
	Filters     []Filter
}

// EquiJoin joins Left and Right on equality of the named key fields.
type EquiJoin struct {
	typesys.Pos
	Left, Right Node
	Keys        []string
}

// NatureJoin joins on every field name the two inputs share.
type NatureJoin struct {
	typesys.Pos
	Left, Right Node
}

// LeftJoin is a left outer join.
type LeftJoin struct {
	typesys.Pos
	Left, Right Node
}

// RightJoin is a right outer join.
type RightJoin struct {
	typesys.Pos
	Left, Right Node
}

// FullJoin is a full outer join.
type FullJoin struct {
	typesys.Pos
	Left, Right Node
}

// ReduceKind selects an aggregate function.
type ReduceKind int

const (
	Count ReduceKind = iota
	Sum
	Avg
	Max
	Min
)

var reduceKindNames = [...]string{"count", "sum", "avg", "max", "min"}

func (k ReduceKind) String() string {
	if int(k) < len(reduceKindNames) {
		return reduceKindNames[k]
	}
	return "reduce"
}

// Reduce aggregates From. Field is ignored for Count.
type Reduce struct {
	typesys.Pos
	Kind  ReduceKind
	From  Node
	Field typesys.Symbol
}

func (*Table) node()        {}
func (*CrossProduct) node() {}
func (*Union) node()        {}
func (*Difference) node()   {}
func (*Intersect) node()    {}
func (*Selection) node()    {}
func (*Projection) node()   {}
func (*Division) node()     {}
func (*Rename) node()       {}
func (*InnerJoin) node()    {}
func (*EquiJoin) node()     {}
func (*NatureJoin) node()   {}
func (*LeftJoin) node()     {}
func (*RightJoin) node()    {}
func (*FullJoin) node()     {}
func (*Reduce) node()       {}

// OperatorName returns the operator name used in diagnostics.
func OperatorName(n Node) string {
	switch n.(type) {
	case *Table:
		return "Table"
	case *CrossProduct:
		return "CrossProduct"
	case *Union:
		return "Union"
	case *Difference:
		return "Difference"
	case *Intersect:
		return "Intersect"
	case *Selection:
		return "Selection"
	case *Projection:
		return "Projection"
	case *Division:
		return "Division"
	case *Rename:
		return "Rename"
	case *InnerJoin:
		return "InnerJoin"
	case *EquiJoin:
		return "EquiJoin"
	case *NatureJoin:
		return "NatureJoin"
	case *LeftJoin:
		return "LeftJoin"
	case *RightJoin:
		return "RightJoin"
	case *FullJoin:
		return "FullJoin"
	case *Reduce:
		return "Reduce"
	}
	return "Unknown"
}

// Query is a named expression, as found in query documents.
type Query struct {
	Name string
	Root Node
}
