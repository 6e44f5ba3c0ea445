package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rae/internal/typesys"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "expectation failures: %v", result.Errors)
			assert.Len(t, result.Queries, len(scenario.Queries))
		})
	}
}

func TestRun_RecordsSchemaIDs(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/employee_dept.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	for _, q := range result.Queries {
		if q.ErrorCode != "" {
			assert.Empty(t, q.SchemaID, q.Name)
			continue
		}
		assert.Len(t, q.SchemaID, 64, q.Name)
	}
}

const inlineScenario = `name: inline
description: expectation failures are reported, not returned
tables:
  A:
    a: int
queries:
  - name: wrong_schema
    query: {table: A}
    expect:
      schema: "A {a: string}"
  - name: unexpected_success
    query: {table: A}
    expect:
      error: TABLE_NOT_FOUND
  - name: wrong_position
    query: {table: B}
    expect:
      error: TABLE_NOT_FOUND
      at: "1:1"
  - name: wrong_sql
    query: {table: A}
    expect:
      schema: "A {a: int}"
      sql: SELECT 1
`

func TestRun_ReportsExpectationFailures(t *testing.T) {
	scenario, err := ParseScenario([]byte(inlineScenario), "")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, "wrong_schema: expected schema A {a: string}, got A {a: int}", result.Errors[0])
	assert.Equal(t, "unexpected_success: expected error TABLE_NOT_FOUND, got schema A {a: int}", result.Errors[1])
	assert.Equal(t, "wrong_position: expected error at 1:1, got 16:12", result.Errors[2])
	assert.Contains(t, result.Errors[3], "wrong_sql: expected sql SELECT 1, got SELECT")

	assert.Equal(t, typesys.Pos{Offset: 322, Line: 16, Column: 12}, result.Queries[2].Pos)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing name",
			doc:     "description: d\ntables: {A: {a: int}}\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			doc:     "name: s\ntables: {A: {a: int}}\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no catalog",
			doc:     "name: s\ndescription: d\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}]\n",
			wantErr: "catalog or tables is required",
		},
		{
			name:    "both catalogs",
			doc:     "name: s\ndescription: d\ncatalog: x.cue\ntables: {A: {a: int}}\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "missing catalog file",
			doc:     "name: s\ndescription: d\ncatalog: nope.cue\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}]\n",
			wantErr: "catalog not found",
		},
		{
			name:    "no queries",
			doc:     "name: s\ndescription: d\ntables: {A: {a: int}}\nqueries: []\n",
			wantErr: "queries list is required",
		},
		{
			name:    "duplicate query",
			doc:     "name: s\ndescription: d\ntables: {A: {a: int}}\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}, {name: q, query: {table: A}, expect: {schema: x}}]\n",
			wantErr: `duplicate name "q"`,
		},
		{
			name:    "missing query body",
			doc:     "name: s\ndescription: d\ntables: {A: {a: int}}\nqueries: [{name: q, expect: {schema: x}}]\n",
			wantErr: "query is required",
		},
		{
			name:    "empty expectation",
			doc:     "name: s\ndescription: d\ntables: {A: {a: int}}\nqueries: [{name: q, query: {table: A}, expect: {}}]\n",
			wantErr: "schema or error is required",
		},
		{
			name:    "at without error",
			doc:     "name: s\ndescription: d\ntables: {A: {a: int}}\nqueries: [{name: q, query: {table: A}, expect: {schema: x, at: '1:1'}}]\n",
			wantErr: "at requires error",
		},
		{
			name:    "unknown field",
			doc:     "name: s\ndescription: d\ntables: {A: {a: int}}\nqueris: []\n",
			wantErr: "failed to parse YAML",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesCatalogPath(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/shop.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "catalogs", "shop.cue"), scenario.Catalog)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestRun_DecodeErrors(t *testing.T) {
	doc := "name: s\ndescription: d\ntables: {A: {a: int}}\nqueries: [{name: q, query: {bogus: A}, expect: {schema: x}}]\n"
	scenario, err := ParseScenario([]byte(doc), "")
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `query "q"`)
	assert.Contains(t, err.Error(), "unknown operator")
}

func TestRun_CatalogErrors(t *testing.T) {
	doc := "name: s\ndescription: d\ntables: {A: {a: integer}}\nqueries: [{name: q, query: {table: A}, expect: {schema: x}}]\n"
	scenario, err := ParseScenario([]byte(doc), "")
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
	assert.Contains(t, err.Error(), "A.a")
}

func TestRender(t *testing.T) {
	result := &Result{Queries: []QueryResult{
		{Name: "ok", Schema: "A {a: int}", SQL: `SELECT "a" FROM "A"`, Params: []any{"x", int64(2), nil}},
		{Name: "bad", ErrorCode: "TABLE_NOT_FOUND", Message: "TABLE_NOT_FOUND: table \"B\" not found"},
	}}
	want := "scenario: demo\n" +
		"\nquery ok\n  schema: A {a: int}\n  sql: SELECT \"a\" FROM \"A\"\n  params: [\"x\", 2, NULL]\n" +
		"\nquery bad\n  error: TABLE_NOT_FOUND\n  message: TABLE_NOT_FOUND: table \"B\" not found\n"
	assert.Equal(t, want, string(Render("demo", result)))
}
