package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rae/internal/catalog"
	"github.com/roach88/rae/internal/typesys"
)

// storeTables are the tables the store itself creates.
var storeTables = []string{"catalog_tables", "runs", "checks"}

// Introspect builds a catalog from the declared schema of every user table
// in db. Only sqlite_master and table_info are read, never table rows.
//
// Declared column types map by SQLite affinity:
//   - BOOL, BOOLEAN: bool
//   - containing INT: int, or uint when also UNSIGNED
//   - containing CHAR, CLOB or TEXT: string
//   - containing REAL, FLOA or DOUB, and any other NUMERIC type: float
//   - BLOB or no declared type: rejected
//
// Columns without NOT NULL that are not part of the primary key are
// optional.
func Introspect(ctx context.Context, db *sql.DB, source string) (*catalog.Catalog, error) {
	return introspect(ctx, db, source, nil)
}

// IntrospectFile opens the SQLite database at path read-only and
// introspects it.
func IntrospectFile(ctx context.Context, path string) (*catalog.Catalog, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return introspect(ctx, db, path, nil)
}

// Introspect builds a catalog from the user tables sharing the store's
// database, skipping the store's own tables.
func (s *Store) Introspect(ctx context.Context, source string) (*catalog.Catalog, error) {
	return introspect(ctx, s.db, source, storeTables)
}

func introspect(ctx context.Context, db *sql.DB, source string, skip []string) (*catalog.Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if !slices.Contains(skip, name) {
			names = append(names, name)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	c := catalog.New()
	for _, name := range names {
		fields, err := tableSchema(ctx, db, source, name)
		if err != nil {
			return nil, err
		}
		if err := c.Add(name, fields, source); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func tableSchema(ctx context.Context, db *sql.DB, source, table string) (typesys.Record, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	fields := make(typesys.Record)
	for rows.Next() {
		var (
			cid        int
			name       string
			declared   string
			notNull    bool
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", table, err)
		}
		t, err := affinityType(declared)
		if err != nil {
			return nil, &catalog.LoadError{File: source, Table: table, Field: name, Message: err.Error()}
		}
		if !notNull && pk == 0 {
			t = typesys.Optional{Elem: t}
		}
		fields[typesys.Sym(name)] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", table, err)
	}
	return fields, nil
}

// affinityType maps a declared column type to a schema type.
func affinityType(declared string) (typesys.Type, error) {
	d := strings.ToUpper(declared)
	switch {
	case d == "BOOL" || d == "BOOLEAN":
		return typesys.Bool{}, nil
	case strings.Contains(d, "INT"):
		if strings.Contains(d, "UNSIGNED") {
			return typesys.Uint{}, nil
		}
		return typesys.Int{}, nil
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return typesys.String{}, nil
	case d == "", strings.Contains(d, "BLOB"):
		return nil, fmt.Errorf("column type %q has no schema type", declared)
	}
	return typesys.Float{}, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
