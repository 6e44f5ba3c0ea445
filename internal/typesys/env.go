package typesys

import (
	"maps"
	"slices"
)

// Env maps table names to row schemas. An Env is immutable once built and
// safe for concurrent use by any number of inference passes.
type Env struct {
	tables map[string]Record
}

// NewEnv creates an Env from tables. The map is copied.
func NewEnv(tables map[string]Record) *Env {
	env := &Env{tables: make(map[string]Record, len(tables))}
	for name, r := range tables {
		env.tables[name] = r.Clone()
	}
	return env
}

// Table returns the schema of the named table, labelled with its name.
func (e *Env) Table(name string) (Lines, bool) {
	r, ok := e.tables[name]
	if !ok {
		return Lines{}, false
	}
	return Lines{Label: name, Fields: r.Clone()}, true
}

// Resolve replaces a TableName with the Table it names. Other types are
// returned unchanged.
func (e *Env) Resolve(t Type) (Type, error) {
	tn, ok := t.(TableName)
	if !ok {
		return t, nil
	}
	lines, ok := e.Table(tn.Name)
	if !ok {
		return nil, NewTableNotFound(tn.Name)
	}
	return Table{Lines: lines}, nil
}

// Names returns the table names in sorted order.
func (e *Env) Names() []string {
	return slices.Sorted(maps.Keys(e.tables))
}

// Len returns the number of tables.
func (e *Env) Len() int {
	return len(e.tables)
}
