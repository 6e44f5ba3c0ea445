package catalog

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/rae/internal/typesys"
)

// Catalog is a set of named table schemas together with the file each
// table was declared in.
type Catalog struct {
	Tables  map[string]typesys.Record
	Sources map[string]string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		Tables:  make(map[string]typesys.Record),
		Sources: make(map[string]string),
	}
}

// Add declares a table. Declaring the same name twice is an error.
func (c *Catalog) Add(name string, fields typesys.Record, source string) error {
	if prev, ok := c.Sources[name]; ok {
		return &LoadError{
			File:    source,
			Table:   name,
			Message: fmt.Sprintf("table already declared in %s", prev),
		}
	}
	c.Tables[name] = fields
	c.Sources[name] = source
	return nil
}

// Merge adds every table of other to c.
func (c *Catalog) Merge(other *Catalog) error {
	for _, name := range other.Names() {
		if err := c.Add(name, other.Tables[name], other.Sources[name]); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the table names in sorted order.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.Tables))
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	return len(c.Tables)
}

// Env returns a type environment holding every table.
func (c *Catalog) Env() *typesys.Env {
	return typesys.NewEnv(c.Tables)
}

// LoadError is a catalog declaration error with its source location.
type LoadError struct {
	File    string
	Line    int
	Column  int
	Table   string
	Field   string
	Message string
}

func (e *LoadError) Error() string {
	subject := e.Table
	if e.Field != "" {
		subject += "." + e.Field
	}
	if subject != "" {
		subject += ": "
	}
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s%s", e.File, e.Line, e.Column, subject, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s%s", e.File, subject, e.Message)
	}
	return subject + e.Message
}

// checkField rejects types that cannot describe a stored column.
func checkField(t typesys.Type) error {
	switch t := t.(type) {
	case typesys.Optional:
		if typesys.IsOptional(t.Elem) {
			return fmt.Errorf("nested optional %s", t)
		}
		return checkField(t.Elem)
	case typesys.SimpleType:
		return nil
	}
	return fmt.Errorf("%s is not a column type", t)
}
