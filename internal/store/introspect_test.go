package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rae/internal/catalog"
)

// createUserDB creates a database with declared tables and a few rows.
func createUserDB(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func TestIntrospectFile(t *testing.T) {
	path := createUserDB(t,
		`CREATE TABLE Employee (
			id INTEGER PRIMARY KEY,
			dept TEXT NOT NULL,
			salary REAL,
			badge INTEGER UNSIGNED NOT NULL,
			active BOOLEAN NOT NULL,
			joined DATE NOT NULL
		)`,
		`CREATE TABLE Dept (dept VARCHAR(20) NOT NULL, mgr NVARCHAR(40))`,
		`INSERT INTO Dept VALUES ('eng', 'ann')`,
	)

	c, err := IntrospectFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dept", "Employee"}, c.Names())
	assert.Equal(t, "{active: bool, badge: uint, dept: string, id: int, joined: float, salary: float?}", c.Tables["Employee"].String())
	assert.Equal(t, "{dept: string, mgr: string?}", c.Tables["Dept"].String())
	assert.Equal(t, path, c.Sources["Dept"])
}

func TestIntrospectFile_RejectsBlob(t *testing.T) {
	path := createUserDB(t, `CREATE TABLE Doc (id INTEGER NOT NULL, body BLOB)`)

	_, err := IntrospectFile(context.Background(), path)
	require.Error(t, err)
	var le *catalog.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Doc", le.Table)
	assert.Equal(t, "body", le.Field)
}

func TestIntrospectFile_Untyped(t *testing.T) {
	path := createUserDB(t, `CREATE TABLE Loose (x)`)

	_, err := IntrospectFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Loose.x")
}

func TestIntrospectFile_Missing(t *testing.T) {
	_, err := IntrospectFile(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
}

func TestStoreIntrospect_SkipsStoreTables(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	_, err := s.db.Exec(`CREATE TABLE "Odd ""Name""" (v INTEGER NOT NULL)`)
	require.NoError(t, err)

	c, err := s.Introspect(ctx, "test.db")
	require.NoError(t, err)
	assert.Equal(t, []string{`Odd "Name"`}, c.Names())
}

func TestIntrospect_FeedsCatalog(t *testing.T) {
	ctx := context.Background()
	path := createUserDB(t, `CREATE TABLE T (a INTEGER NOT NULL, b TEXT)`)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	c, err := Introspect(ctx, db, path)
	require.NoError(t, err)

	s := createTestStore(t)
	require.NoError(t, s.SaveCatalog(ctx, c))
	got, err := s.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, "{a: int, b: string?}", got.Tables["T"].String())
}
