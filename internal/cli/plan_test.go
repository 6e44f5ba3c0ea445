package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQL_Text(t *testing.T) {
	out, err := execute(t, "sql", "testdata/queries.yaml", "--catalog", "testdata/catalog.yaml")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "sql", []byte(out))
}

func TestSQL_JSON(t *testing.T) {
	out, err := execute(t, "sql", "testdata/queries.yaml", "--catalog", "testdata/catalog.yaml", "--format", "json")
	require.NoError(t, err)

	resp := decode[CompileResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Queries, 2)
	assert.Equal(t, "eng_ids", resp.Data.Queries[0].Name)
	assert.Contains(t, resp.Data.Queries[0].SQL, `SELECT DISTINCT "id" FROM "Employee"`)
	assert.Equal(t, []any{"eng"}, resp.Data.Queries[0].Params)
	assert.Empty(t, resp.Data.Queries[0].Plan)
}

func TestPlan_Text(t *testing.T) {
	out, err := execute(t, "plan", "testdata/queries.yaml", "--catalog", "testdata/catalog.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "-- eng_ids\n")
	assert.Contains(t, out, "-- eng_count\n")
	assert.Contains(t, out, "scan Employee")
	assert.NotContains(t, out, "SELECT")
}

func TestCompile_NotImplemented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "natural.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`queries:
  - name: natural
    query:
      naturejoin:
        left: {table: Employee}
        right: {table: Dept}
  - name: depts
    query: {table: Dept}
`), 0o644))

	out, err := execute(t, "sql", path, "--catalog", "testdata/catalog.yaml", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decode[CompileResult](t, out)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Queries, 2)
	require.NotNil(t, resp.Data.Queries[0].Error)
	assert.Equal(t, "NOT_IMPLEMENTED", resp.Data.Queries[0].Error.Code)
	assert.Contains(t, resp.Data.Queries[0].Error.Message, "NatureJoin is not supported")
	assert.Nil(t, resp.Data.Queries[1].Error)
	assert.Contains(t, resp.Data.Queries[1].SQL, `FROM "Dept"`)

	out, err = execute(t, "plan", path, "--catalog", "testdata/catalog.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "error: 4:7: NOT_IMPLEMENTED: NatureJoin is not supported")
	assert.Contains(t, out, "scan Dept")
}
