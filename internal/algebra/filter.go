package algebra

import "github.com/roach88/rae/internal/typesys"

// Filter is a row predicate attached to Selection or InnerJoin.
//
// This is a sealed interface - only types in this package implement it.
//
// Filter types:
//   - And, Or, Not, Compare: boolean composition over comparisons
//   - Range, GetItem, GetFirst, GetLast: positional filters that choose
//     rows by index and never affect the schema
type Filter interface {
	Position() typesys.Pos
	filterNode() // Marker method - seals interface to this package
}

// And holds when every comparison holds.
type And struct {
	typesys.Pos
	Comps []Comp
}

// Or holds when any comparison holds.
type Or struct {
	typesys.Pos
	Comps []Comp
}

// Not negates a comparison.
type Not struct {
	typesys.Pos
	Comp Comp
}

// Compare wraps a single comparison.
type Compare struct {
	typesys.Pos
	Comp Comp
}

// Range keeps the rows with index in [Low, High].
type Range struct {
	typesys.Pos
	Low, High uint64
}

// GetItem keeps the row at Index.
type GetItem struct {
	typesys.Pos
	Index uint64
}

// GetFirst keeps the first row.
type GetFirst struct {
	typesys.Pos
}

// GetLast keeps the last row.
type GetLast struct {
	typesys.Pos
}

func (*And) filterNode()      {}
func (*Or) filterNode()       {}
func (*Not) filterNode()      {}
func (*Compare) filterNode()  {}
func (*Range) filterNode()    {}
func (*GetItem) filterNode()  {}
func (*GetFirst) filterNode() {}
func (*GetLast) filterNode()  {}

// Comp is a comparison between expressions.
//
// This is a sealed interface - only types in this package implement it.
type Comp interface {
	Position() typesys.Pos
	compNode() // Marker method - seals interface to this package
}

// Eq compares two expressions for equality.
type Eq struct {
	typesys.Pos
	Left, Right Expr
}

// Lt holds when Left orders before Right.
type Lt struct {
	typesys.Pos
	Left, Right Expr
}

// Gt holds when Left orders after Right.
type Gt struct {
	typesys.Pos
	Left, Right Expr
}

// In holds when Elem appears in the single-field relation Query.
type In struct {
	typesys.Pos
	Elem  Expr
	Query Node
}

func (*Eq) compNode() {}
func (*Lt) compNode() {}
func (*Gt) compNode() {}
func (*In) compNode() {}

// Expr is a scalar expression over the fields of one row.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	Position() typesys.Pos
	exprNode() // Marker method - seals interface to this package
}

// BinaryOp is an arithmetic or boolean operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
)

var binaryOpNames = [...]string{"add", "sub", "mul", "div", "mod", "and", "or"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "op"
}

// IsLogical reports whether op combines booleans.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// Binary applies Op to two operands.
type Binary struct {
	typesys.Pos
	Op          BinaryOp
	Left, Right Expr
}

// Negate is boolean negation of an expression.
type Negate struct {
	typesys.Pos
	Operand Expr
}

// Field references a field of the input row.
type Field struct {
	typesys.Pos
	Symbol typesys.Symbol
}

// Literal is a constant.
type Literal struct {
	typesys.Pos
	Value Value
}

func (*Binary) exprNode()  {}
func (*Negate) exprNode()  {}
func (*Field) exprNode()   {}
func (*Literal) exprNode() {}

// Value is a literal constant.
//
// This is a sealed interface - only types in this package implement it.
type Value interface {
	value() // Marker method - seals interface to this package
}

// Null is the null literal.
type Null struct{}

// Bool is a boolean literal.
type Bool bool

// Int is a signed integer literal.
type Int int64

// Uint is an unsigned integer literal.
type Uint uint64

// Float is a floating point literal.
type Float float64

// String is a string literal.
type String string

func (Null) value()   {}
func (Bool) value()   {}
func (Int) value()    {}
func (Uint) value()   {}
func (Float) value()  {}
func (String) value() {}
