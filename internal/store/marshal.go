package store

import (
	"fmt"
	"strings"

	"github.com/roach88/rae/internal/catalog"
	"github.com/roach88/rae/internal/typesys"
)

// DomainCatalog separates catalog identities from schema and query IDs.
const DomainCatalog = "rae/catalog/v1"

// marshalRecord renders a table schema in type notation together with its
// content-addressed identity.
func marshalRecord(r typesys.Record) (notation, id string, err error) {
	id, err = typesys.SchemaID(r)
	if err != nil {
		return "", "", fmt.Errorf("marshal record: %w", err)
	}
	return r.String(), id, nil
}

// unmarshalRecord parses a stored schema and verifies it against its
// recorded identity.
func unmarshalRecord(notation, id string) (typesys.Record, error) {
	t, err := typesys.ParseType(notation)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	r, ok := t.(typesys.Record)
	if !ok {
		return nil, fmt.Errorf("unmarshal record: %s is not a record", t)
	}
	got, err := typesys.SchemaID(r)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if got != id {
		return nil, fmt.Errorf("unmarshal record: schema %s does not match id %s", notation, id)
	}
	return r, nil
}

// CatalogID returns the content-addressed identity of a catalog: the
// table names in sorted order, each followed by its schema ID.
func CatalogID(c *catalog.Catalog) (string, error) {
	var b strings.Builder
	for _, name := range c.Names() {
		id, err := typesys.SchemaID(c.Tables[name])
		if err != nil {
			return "", fmt.Errorf("catalog id: %w", err)
		}
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(id)
		b.WriteByte(0)
	}
	return typesys.HashWithDomain(DomainCatalog, []byte(b.String())), nil
}
