package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rae/internal/typesys"
)

// LoadYAML decodes a YAML catalog. Column types are written in type
// notation:
//
//	tables:
//	  Employee:
//	    id: int
//	    dept: string{"eng", "ops"}
//	    salary: uint?
//
// Tables and columns are read in document order; errors carry the line
// and column of the offending key or value.
func LoadYAML(data []byte, filename string) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{File: filename, Message: err.Error()}
	}
	c := New()
	if len(doc.Content) == 0 {
		return c, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, yamlError(filename, root, "", "", "catalog must be a mapping")
	}

	var tables *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Value != "tables" {
			return nil, yamlError(filename, key, "", "", fmt.Sprintf("unknown key %q", key.Value))
		}
		tables = val
	}
	if tables == nil {
		return c, nil
	}
	return DecodeTables(tables, filename)
}

// DecodeTables decodes a mapping of table names to column mappings, the
// value of a catalog's "tables" key. It lets other YAML documents embed a
// catalog.
func DecodeTables(tables *yaml.Node, filename string) (*Catalog, error) {
	c := New()
	if tables.Kind != yaml.MappingNode {
		return nil, yamlError(filename, tables, "", "", "tables must be a mapping")
	}

	for i := 0; i+1 < len(tables.Content); i += 2 {
		key, val := tables.Content[i], tables.Content[i+1]
		fields, err := yamlTable(filename, key.Value, val)
		if err != nil {
			return nil, err
		}
		if err := c.Add(key.Value, fields, filename); err != nil {
			le := err.(*LoadError)
			le.Line, le.Column = key.Line, key.Column
			return nil, le
		}
	}
	return c, nil
}

func yamlTable(filename, name string, n *yaml.Node) (typesys.Record, error) {
	if n.Kind != yaml.MappingNode {
		return nil, yamlError(filename, n, name, "", "table must be a mapping of columns")
	}
	fields := make(typesys.Record, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		column := typesys.Sym(key.Value)
		if fields.Has(column) {
			return nil, yamlError(filename, key, name, key.Value, "duplicate column")
		}
		if val.Kind != yaml.ScalarNode {
			return nil, yamlError(filename, val, name, key.Value, "column type must be a string")
		}
		t, err := typesys.ParseType(val.Value)
		if err != nil {
			return nil, yamlError(filename, val, name, key.Value, err.Error())
		}
		if err := checkField(t); err != nil {
			return nil, yamlError(filename, val, name, key.Value, err.Error())
		}
		fields[column] = t
	}
	return fields, nil
}

func yamlError(filename string, n *yaml.Node, table, field, message string) *LoadError {
	return &LoadError{
		File:    filename,
		Line:    n.Line,
		Column:  n.Column,
		Table:   table,
		Field:   field,
		Message: message,
	}
}
