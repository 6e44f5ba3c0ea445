package typesys

import "fmt"

// Pos is a source location: byte offset plus 1-based line and column.
// The zero Pos means the location is unknown.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Position returns p. AST nodes embed Pos and satisfy their Node interface
// through this method.
func (p Pos) Position() Pos {
	return p
}

// IsValid reports whether p carries a line number.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return fmt.Sprintf("offset %d", p.Offset)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Located pairs a value with the position it originated from.
type Located[T any] struct {
	Value T
	Pos   Pos
}

// Locate wraps v with pos.
func Locate[T any](pos Pos, v T) Located[T] {
	return Located[T]{Value: v, Pos: pos}
}
