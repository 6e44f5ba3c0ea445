package typesys

import (
	"cmp"
	"slices"
)

// Symbol names a record field. Qualifier is empty for ordinary fields; a
// non-empty Qualifier is only produced by combination operators when both
// inputs carry a field with the same name.
type Symbol struct {
	Name      string
	Qualifier string
}

// Sym returns the unqualified symbol name.
func Sym(name string) Symbol {
	return Symbol{Name: name}
}

// QSym returns name qualified by qualifier.
func QSym(qualifier, name string) Symbol {
	return Symbol{Name: name, Qualifier: qualifier}
}

// IsQualified reports whether s carries a qualifier.
func (s Symbol) IsQualified() bool {
	return s.Qualifier != ""
}

// Unqualified returns s without its qualifier.
func (s Symbol) Unqualified() Symbol {
	return Symbol{Name: s.Name}
}

// compareSymbols orders unqualified symbols first, then by qualifier and name.
func compareSymbols(a, b Symbol) int {
	if c := cmp.Compare(a.Qualifier, b.Qualifier); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Type is a schema type.
//
// This is a sealed interface - only types in this package implement it.
type Type interface {
	String() string
	typeNode() // Marker method - seals interface to this package
}

// SimpleType is the subset of Type holding scalar kinds.
type SimpleType interface {
	Type
	simpleType()
}

// Optional is a nullable wrapper around Elem.
type Optional struct {
	Elem Type
}

// Record is an unordered field set. Keys are unique by construction.
type Record map[Symbol]Type

// Int is a signed integer, optionally refined by Domain (nil = unconstrained).
type Int struct {
	Domain *Domain[int64]
}

// Uint is an unsigned integer, optionally refined by Domain.
type Uint struct {
	Domain *Domain[uint64]
}

// Float is a floating point number, optionally refined by Domain.
type Float struct {
	Domain *Domain[float64]
}

// String is a string restricted to Enum. An empty Enum is unconstrained.
type String struct {
	Enum []string
}

// Bool is a boolean.
type Bool struct{}

// Null is the type of the null literal. It only unifies with Optional and
// with itself.
type Null struct{}

// TableName is a reference to a table that has not been resolved yet.
type TableName struct {
	Name string
}

// Table is a materialized row schema.
type Table struct {
	Lines Lines
}

// Lines is the schema of one row of a relation. Label records where the
// relation came from: a table name, or a combination of input labels such
// as "Employee*Dept".
type Lines struct {
	Label  string
	Fields Record
}

func (Optional) typeNode()  {}
func (Record) typeNode()    {}
func (Int) typeNode()       {}
func (Uint) typeNode()      {}
func (Float) typeNode()     {}
func (String) typeNode()    {}
func (Bool) typeNode()      {}
func (Null) typeNode()      {}
func (TableName) typeNode() {}
func (Table) typeNode()     {}

func (Int) simpleType()    {}
func (Uint) simpleType()   {}
func (Float) simpleType()  {}
func (String) simpleType() {}
func (Bool) simpleType()   {}
func (Null) simpleType()   {}

// IsOptional reports whether t is an Optional.
func IsOptional(t Type) bool {
	_, ok := t.(Optional)
	return ok
}

// IsNumeric reports whether t, looking through Optional, is Int, Uint or Float.
func IsNumeric(t Type) bool {
	switch x := t.(type) {
	case Optional:
		return IsNumeric(x.Elem)
	case Int, Uint, Float:
		return true
	}
	return false
}

// Widen drops domain and enumeration refinements from t, keeping any
// Optional wrapper. Records and tables are returned unchanged.
func Widen(t Type) Type {
	switch x := t.(type) {
	case Optional:
		return Optional{Elem: Widen(x.Elem)}
	case Int:
		return Int{}
	case Uint:
		return Uint{}
	case Float:
		return Float{}
	case String:
		return String{}
	}
	return t
}

// Symbols returns the record's keys, unqualified symbols first.
func (r Record) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(r))
	for s := range r {
		syms = append(syms, s)
	}
	slices.SortFunc(syms, compareSymbols)
	return syms
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether r contains s.
func (r Record) Has(s Symbol) bool {
	_, ok := r[s]
	return ok
}

// optionalCount returns the number of Optional-typed fields.
func (r Record) optionalCount() int {
	n := 0
	for _, t := range r {
		if IsOptional(t) {
			n++
		}
	}
	return n
}

// Equal reports structural equality of a and b. Record field order and
// String enumeration order are irrelevant; Lines labels are ignored.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case Optional:
		y, ok := b.(Optional)
		return ok && Equal(x.Elem, y.Elem)
	case Record:
		y, ok := b.(Record)
		return ok && recordsEqual(x, y)
	case Int:
		y, ok := b.(Int)
		return ok && x.Domain.Equal(y.Domain)
	case Uint:
		y, ok := b.(Uint)
		return ok && x.Domain.Equal(y.Domain)
	case Float:
		y, ok := b.(Float)
		return ok && x.Domain.Equal(y.Domain)
	case String:
		y, ok := b.(String)
		return ok && subset(x.Enum, y.Enum) && subset(y.Enum, x.Enum)
	case Bool:
		_, ok := b.(Bool)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	case TableName:
		y, ok := b.(TableName)
		return ok && x.Name == y.Name
	case Table:
		y, ok := b.(Table)
		return ok && recordsEqual(x.Lines.Fields, y.Lines.Fields)
	}
	return false
}

// Equal reports record equality: same cardinality and every key of r present
// in o with an equal type.
func (r Record) Equal(o Record) bool {
	return recordsEqual(r, o)
}

func recordsEqual(a, b Record) bool {
	if len(a) != len(b) {
		return false
	}
	for k, at := range a {
		bt, ok := b[k]
		if !ok || !Equal(at, bt) {
			return false
		}
	}
	return true
}

// subset reports whether every element of a is in b.
func subset(a, b []string) bool {
	for _, s := range a {
		if !slices.Contains(b, s) {
			return false
		}
	}
	return true
}
