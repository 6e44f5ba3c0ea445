package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/catalog"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/typesys"
)

// ErrCodeUnknown is recorded for failed checks whose error carries no
// type error code, such as cancellation.
const ErrCodeUnknown = "ERROR"

// SaveCatalog writes every table of c. A table already present is replaced,
// so saving the same catalog twice is a no-op.
func (s *Store) SaveCatalog(ctx context.Context, c *catalog.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save catalog: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, name := range c.Names() {
		notation, id, err := marshalRecord(c.Tables[name])
		if err != nil {
			return fmt.Errorf("save catalog: table %s: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO catalog_tables (name, schema, schema_id, source)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				schema = excluded.schema,
				schema_id = excluded.schema_id,
				source = excluded.source
		`, name, notation, id, c.Sources[name])
		if err != nil {
			return fmt.Errorf("save catalog: table %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save catalog: commit: %w", err)
	}
	return nil
}

// DeleteTable removes a table from the stored catalog. It reports whether
// the table existed.
func (s *Store) DeleteTable(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_tables WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete table: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete table: %w", err)
	}
	return n > 0, nil
}

// RecordRun logs the outcomes of one check run against c and returns the
// run ID. Runs receive increasing sequence numbers; outcomes keep their
// input order.
func (s *Store) RecordRun(ctx context.Context, c *catalog.Catalog, outcomes []infer.Outcome) (string, error) {
	catalogID, err := CatalogID(c)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return "", fmt.Errorf("record run: next seq: %w", err)
	}

	runID := s.ids.Generate()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, catalog_id) VALUES (?, ?, ?)
	`, runID, seq, catalogID); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}

	for i, o := range outcomes {
		check, err := newCheck(i, o)
		if err != nil {
			return "", fmt.Errorf("record run: query %q: %w", o.Query.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO checks
			(run_id, seq, name, query_id, schema, schema_id, error_code, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID,
			check.Seq,
			check.Name,
			check.QueryID,
			nullable(check.Schema),
			nullable(check.SchemaID),
			nullable(check.ErrorCode),
			nullable(check.Message),
		)
		if err != nil {
			return "", fmt.Errorf("record run: query %q: %w", o.Query.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record run: commit: %w", err)
	}
	return runID, nil
}

func newCheck(i int, o infer.Outcome) (Check, error) {
	check := Check{
		Seq:  int64(i),
		Name: o.Query.Name,
	}
	if o.Query.Root != nil {
		check.QueryID = algebra.QueryID(o.Query.Root)
	}

	if o.Err != nil {
		check.ErrorCode = ErrCodeUnknown
		if code, ok := typesys.CodeOf(o.Err); ok {
			check.ErrorCode = string(code)
		}
		check.Message = o.Err.Error()
		return check, nil
	}
	if o.Result == nil {
		return Check{}, errors.New("outcome has neither result nor error")
	}

	schemaType := o.Result.Type()
	id, err := typesys.SchemaID(schemaType)
	if err != nil {
		return Check{}, err
	}
	check.Schema = o.Result.Lines.String()
	check.SchemaID = id
	return check, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
