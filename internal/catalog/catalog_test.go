package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rae/internal/typesys"
)

func TestLoadCUE(t *testing.T) {
	src := `
table: Employee: {
	id:      int & >=1 & <=9999
	dept:    "eng" | "ops"
	salary?: int & >=0
	score:   float
	level:   "int[1..9]"
	active:  bool
}
table: Dept: {
	dept: string
	mgr:  string
}
`
	c, err := LoadCUE([]byte(src), "schema.cue")
	require.NoError(t, err)

	assert.Equal(t, []string{"Dept", "Employee"}, c.Names())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "schema.cue", c.Sources["Employee"])

	emp := c.Tables["Employee"]
	assert.Equal(t, "uint[1..9999]", emp[typesys.Sym("id")].String())
	assert.Equal(t, `string{"eng", "ops"}`, emp[typesys.Sym("dept")].String())
	assert.Equal(t, "uint?", emp[typesys.Sym("salary")].String())
	assert.Equal(t, "float", emp[typesys.Sym("score")].String())
	assert.Equal(t, "int[1..9]", emp[typesys.Sym("level")].String())
	assert.Equal(t, "bool", emp[typesys.Sym("active")].String())

	assert.Equal(t, "{dept: string, mgr: string}", c.Tables["Dept"].String())
}

func TestLoadCUE_NumericBounds(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"plain int", "int", "int"},
		{"signed range", "int & >=-5 & <=5", "int[-5..5]"},
		{"strict bounds", "int & >-5 & <5", "int[-4..4]"},
		{"upper bound only", "int & <=10", "int[-9223372036854775808..10]"},
		{"non-negative", "int & >=0", "uint"},
		{"positive", "int & >0", "uint[1..18446744073709551615]"},
		{"concrete int", "7", "int[7]"},
		{"int64", "int64", "int"},
		{"uint64", "uint64", "uint"},
		{"int32", "int32", "int[-2147483648..2147483647]"},
		{"uint8", "uint8", "uint[0..255]"},
		{"beyond float precision", "int & >=9007199254740993 & <9007199254740996", "uint[9007199254740993..9007199254740995]"},
		{"clamped to uint64", "int & >=0 & <=99999999999999999999", "uint"},
		{"clamped to int64", "int & >=-99999999999999999999 & <=5", "int[-9223372036854775808..5]"},
		{"large concrete uint", "18446744073709551615", "uint[18446744073709551615]"},
		{"float range", "float & >=0 & <=1", "float[0..1]"},
		{"concrete float", "2.5", "float[2.5]"},
		{"null", "null", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadCUE([]byte("table: T: x: "+tt.expr+"\n"), "t.cue")
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Tables["T"][typesys.Sym("x")].String())
		})
	}
}

func TestLoadCUE_Errors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		_, err := LoadCUE([]byte("table: {"), "bad.cue")
		require.Error(t, err)
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "bad.cue", le.File)
		assert.Positive(t, le.Line)
	})

	t.Run("unsupported column", func(t *testing.T) {
		src := "table: T: {\n\tid: int\n\ttags: [...string]\n}\n"
		_, err := LoadCUE([]byte(src), "t.cue")
		require.Error(t, err)
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "T", le.Table)
		assert.Equal(t, "tags", le.Field)
		assert.Equal(t, 3, le.Line)
		assert.Contains(t, err.Error(), "t.cue:3:")
	})

	t.Run("record column", func(t *testing.T) {
		_, err := LoadCUE([]byte(`table: T: x: "{a: int}"`), "t.cue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "T.x")
		assert.Contains(t, err.Error(), "not a column type")
	})

	t.Run("bad notation", func(t *testing.T) {
		_, err := LoadCUE([]byte(`table: T: x: "integer"`), "t.cue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown type")
	})

	t.Run("table is not a struct", func(t *testing.T) {
		_, err := LoadCUE([]byte(`table: T: 3`), "t.cue")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "table must be a struct")
	})
}

func TestLoadCUE_NoTables(t *testing.T) {
	c, err := LoadCUE([]byte(`other: 1`), "t.cue")
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestLoadYAML(t *testing.T) {
	src := `tables:
  Employee:
    id: int
    dept: string{"eng", "ops"}
    salary: uint?
  Dept:
    dept: string
    mgr: string
`
	c, err := LoadYAML([]byte(src), "schema.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"Dept", "Employee"}, c.Names())
	emp := c.Tables["Employee"]
	assert.Equal(t, typesys.Int{}, emp[typesys.Sym("id")])
	assert.Equal(t, typesys.String{Enum: []string{"eng", "ops"}}, emp[typesys.Sym("dept")])
	assert.Equal(t, typesys.Optional{Elem: typesys.Uint{}}, emp[typesys.Sym("salary")])
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "bad notation",
			src:     "tables:\n  T:\n    id: integer\n",
			wantErr: "t.yaml:3:9: T.id: ",
		},
		{
			name:    "nested optional",
			src:     "tables:\n  T:\n    id: int??\n",
			wantErr: "t.yaml:3:9: T.id: nested optional",
		},
		{
			name:    "duplicate column",
			src:     "tables:\n  T:\n    id: int\n    id: uint\n",
			wantErr: "T.id: ",
		},
		{
			name:    "unknown key",
			src:     "table:\n  T:\n    id: int\n",
			wantErr: `t.yaml:1:1: unknown key "table"`,
		},
		{
			name:    "table not a mapping",
			src:     "tables:\n  T: int\n",
			wantErr: "t.yaml:2:6: T: table must be a mapping of columns",
		},
		{
			name:    "column type not a scalar",
			src:     "tables:\n  T:\n    id: [int]\n",
			wantErr: "t.yaml:3:9: T.id: column type must be a string",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML([]byte(tt.src), "t.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	c, err := LoadYAML(nil, "empty.yaml")
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.cue"), "table: Employee: {id: int, dept: string}\n")
	writeFile(t, filepath.Join(dir, "nested", "b.yaml"), "tables:\n  Dept:\n    dept: string\n")
	writeFile(t, filepath.Join(dir, "README.md"), "not a catalog")

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dept", "Employee"}, c.Names())
	assert.Equal(t, filepath.Join(dir, "nested", "b.yaml"), c.Sources["Dept"])

	env := c.Env()
	lines, ok := env.Table("Employee")
	require.True(t, ok)
	assert.Equal(t, "Employee", lines.Label)
	assert.Len(t, lines.Fields, 2)
}

func TestLoadDir_DuplicateTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.cue"), "table: T: {id: int}\n")
	writeFile(t, filepath.Join(dir, "b.yml"), "tables:\n  T:\n    id: int\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "T", le.Table)
	assert.Contains(t, le.Message, "a.cue")
}

func TestLoadDir_NoFiles(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no catalog files found")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.cue"))
	require.Error(t, err)

	path := filepath.Join(dir, "schema.json")
	writeFile(t, path, "{}")
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog format")

	path = filepath.Join(dir, "schema.yaml")
	writeFile(t, path, "tables:\n  T:\n    id: int\n")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, c.Names())
}

func TestLoadErrorFormat(t *testing.T) {
	assert.Equal(t, "a.cue:1:2: T.x: bad", (&LoadError{File: "a.cue", Line: 1, Column: 2, Table: "T", Field: "x", Message: "bad"}).Error())
	assert.Equal(t, "a.cue: T: bad", (&LoadError{File: "a.cue", Table: "T", Message: "bad"}).Error())
	assert.Equal(t, "bad", (&LoadError{Message: "bad"}).Error())
}
