package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/catalog"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/typesys"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCatalog returns the Employee/Dept catalog.
func createTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	tables := map[string]string{
		"Employee": `{id: uint[1..9999], dept: string{"eng", "ops"}, salary: float?}`,
		"Dept":     `{dept: string, mgr: string}`,
	}
	for name, notation := range tables {
		if err := c.Add(name, typesys.MustParseRecord(notation), "schema.cue"); err != nil {
			t.Fatalf("Add(%s) failed: %v", name, err)
		}
	}
	return c
}

// checkQueries runs the checker over a small batch: one success, one
// missing table and one equijoin.
func checkQueries(t *testing.T, c *catalog.Catalog) []infer.Outcome {
	t.Helper()
	queries := []algebra.Query{
		{Name: "employees", Root: &algebra.Table{Name: "Employee"}},
		{Name: "missing", Root: &algebra.Table{Name: "Nope"}},
		{Name: "staff", Root: &algebra.EquiJoin{
			Left:  &algebra.Table{Name: "Employee"},
			Right: &algebra.Table{Name: "Dept"},
			Keys:  []string{"dept"},
		}},
	}
	checker := infer.New(c.Env(), infer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return checker.CheckAll(context.Background(), queries, 2)
}
