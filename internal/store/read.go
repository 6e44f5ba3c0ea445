package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/rae/internal/catalog"
)

// Run is one recorded check run.
type Run struct {
	ID        string
	Seq       int64
	CatalogID string
}

// Check is the recorded outcome of one query in a run. Exactly one of
// Schema and ErrorCode is set.
type Check struct {
	Seq       int64
	Name      string
	QueryID   string
	Schema    string
	SchemaID  string
	ErrorCode string
	Message   string
}

// LoadCatalog reads the stored catalog. Each schema is verified against
// its recorded identity.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, schema, schema_id, source
		FROM catalog_tables
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	c := catalog.New()
	for rows.Next() {
		var name, notation, id, source string
		if err := rows.Scan(&name, &notation, &id, &source); err != nil {
			return nil, fmt.Errorf("scan catalog table: %w", err)
		}
		r, err := unmarshalRecord(notation, id)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		if err := c.Add(name, r, source); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return c, nil
}

// Runs returns every recorded run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, catalog_id
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seq, &r.CatalogID); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadChecks returns the checks of a run in query order. Returns an empty
// slice (not nil) for an unknown run.
func (s *Store) ReadChecks(ctx context.Context, runID string) ([]Check, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, name, query_id, schema, schema_id, error_code, message
		FROM checks
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	checks := []Check{}
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return checks, nil
}

// ChecksBySchema returns every recorded check that produced the schema
// with the given identity, across runs, oldest run first.
func (s *Store) ChecksBySchema(ctx context.Context, schemaID string) ([]Check, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.seq, c.name, c.query_id, c.schema, c.schema_id, c.error_code, c.message
		FROM checks c
		JOIN runs r ON c.run_id = r.id
		WHERE c.schema_id = ?
		ORDER BY r.seq ASC, c.seq ASC
	`, schemaID)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	checks := []Check{}
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checks: %w", err)
	}
	return checks, nil
}

func scanCheck(rows *sql.Rows) (Check, error) {
	var c Check
	var schema, schemaID, code, message sql.NullString
	if err := rows.Scan(&c.Seq, &c.Name, &c.QueryID, &schema, &schemaID, &code, &message); err != nil {
		return Check{}, fmt.Errorf("scan check: %w", err)
	}
	c.Schema = schema.String
	c.SchemaID = schemaID.String
	c.ErrorCode = code.String
	c.Message = message.String
	return c, nil
}
