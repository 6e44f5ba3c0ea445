package cli

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCheck_Text(t *testing.T) {
	out, err := execute(t, "check", "testdata/queries.yaml", "--catalog", "testdata/catalog.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "check", []byte(out))
}

func TestCheck_Failing(t *testing.T) {
	out, err := execute(t, "check", "testdata/failing.yaml", "--catalog", "testdata/catalog.yaml", "--workers", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	newGoldie(t).Assert(t, "check_failing", []byte(out))
}

func TestCheck_JSON(t *testing.T) {
	out, err := execute(t, "check", "testdata/failing.yaml", "--catalog", "testdata/catalog.yaml", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[CheckResult](t, out)
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.TraceID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCheckFailed, resp.Error.Code)
	assert.Equal(t, "1 of 2 queries failed", resp.Error.Message)

	require.Len(t, resp.Data.Queries, 2)
	ok, bad := resp.Data.Queries[0], resp.Data.Queries[1]
	assert.Equal(t, "Employee {dept: string, id: int}", ok.Schema)
	assert.Len(t, ok.SchemaID, 64)
	assert.Len(t, ok.QueryID, 64)
	assert.Nil(t, ok.Error)

	require.NotNil(t, bad.Error)
	assert.Equal(t, "TABLE_NOT_FOUND", bad.Error.Code)
	assert.Empty(t, bad.Schema)
}

func TestCheck_MaxDepth(t *testing.T) {
	out, err := execute(t, "check", "testdata/queries.yaml", "--catalog", "testdata/catalog.yaml",
		"--max-depth", "1", "--format", "json")
	require.Error(t, err)

	resp := decode[CheckResult](t, out)
	require.Len(t, resp.Data.Queries, 2)
	for _, q := range resp.Data.Queries {
		require.NotNil(t, q.Error, q.Name)
		assert.Equal(t, "EXPRESSION_TOO_DEEP", q.Error.Code)
	}
}

func TestCheck_SQLiteCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE Employee (id INTEGER NOT NULL, dept TEXT NOT NULL);
		CREATE TABLE Dept (dept TEXT NOT NULL, mgr TEXT NOT NULL);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := execute(t, "check", "testdata/queries.yaml", "--catalog", path)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "check", []byte(out))
}

func TestCheck_CommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{
			name:    "missing catalog",
			args:    []string{"check", "testdata/queries.yaml", "--catalog", "testdata/nope.cue"},
			wantOut: "Error [E002]",
		},
		{
			name:    "missing queries",
			args:    []string{"check", "testdata/nope.yaml", "--catalog", "testdata/catalog.yaml"},
			wantOut: "Error [E002]",
		},
		{
			name:    "malformed queries",
			args:    []string{"check", "testdata/catalog.yaml", "--catalog", "testdata/catalog.yaml"},
			wantOut: "Error [E004]",
		},
		{
			name:    "malformed catalog",
			args:    []string{"check", "testdata/queries.yaml", "--catalog", "testdata/queries.yaml"},
			wantOut: "Error [E003]",
		},
		{
			name:    "negative depth",
			args:    []string{"check", "testdata/queries.yaml", "--catalog", "testdata/catalog.yaml", "--max-depth", "-1"},
			wantOut: "Error [E001]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestCheck_RequiresCatalog(t *testing.T) {
	_, err := execute(t, "check", "testdata/queries.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "catalog" not set`)
}
