package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/catalog"
)

// Scenario defines a conformance scenario: a catalog, a list of queries
// and the outcome expected for each.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a path to a catalog file or directory.
	// Relative paths are resolved against the scenario file location.
	Catalog string `yaml:"catalog,omitempty"`

	// Tables is an inline catalog, in the format of a YAML catalog's
	// tables mapping. Exactly one of Catalog and Tables is set.
	Tables yaml.Node `yaml:"tables,omitempty"`

	// MaxDepth overrides the checker's expression depth limit.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Queries are checked in order.
	Queries []ScenarioQuery `yaml:"queries"`

	// path is the scenario file, for error messages.
	path string

	// src is the scenario text the query nodes were parsed from.
	src []byte
}

// ScenarioQuery is one query and its expected outcome.
type ScenarioQuery struct {
	Name   string    `yaml:"name"`
	Query  yaml.Node `yaml:"query"`
	Expect Expect    `yaml:"expect"`
}

// Expect specifies the expected outcome of a query. Exactly one of Schema
// and Error is set.
type Expect struct {
	// Schema is the expected output schema in type notation, label first.
	Schema string `yaml:"schema,omitempty"`

	// Error is the expected error code.
	Error string `yaml:"error,omitempty"`

	// At is the expected error position as line:column.
	At string `yaml:"at,omitempty"`

	// SQL is the expected compiled statement.
	SQL string `yaml:"sql,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	s.path = path
	return s, nil
}

// ParseScenario parses a scenario document, resolving a relative catalog
// path against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	scenario.src = data
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasTables := s.Tables.Kind != 0
	switch {
	case s.Catalog == "" && !hasTables:
		return fmt.Errorf("catalog or tables is required")
	case s.Catalog != "" && hasTables:
		return fmt.Errorf("catalog and tables are mutually exclusive")
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog not found: %s", s.Catalog)
		}
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	seen := make(map[string]bool)
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true
		if q.Query.Kind == 0 {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if err := validateExpect(i, &q.Expect); err != nil {
			return err
		}
	}

	return nil
}

func validateExpect(index int, e *Expect) error {
	switch {
	case e.Schema == "" && e.Error == "":
		return fmt.Errorf("queries[%d].expect: schema or error is required", index)
	case e.Schema != "" && e.Error != "":
		return fmt.Errorf("queries[%d].expect: schema and error are mutually exclusive", index)
	case e.At != "" && e.Error == "":
		return fmt.Errorf("queries[%d].expect: at requires error", index)
	case e.SQL != "" && e.Schema == "":
		return fmt.Errorf("queries[%d].expect: sql requires schema", index)
	}
	return nil
}

// loadCatalog returns the scenario's catalog, from file or inline.
func (s *Scenario) loadCatalog() (*catalog.Catalog, error) {
	if s.Catalog != "" {
		return catalog.Load(s.Catalog)
	}
	return catalog.DecodeTables(&s.Tables, s.source())
}

// decodeQueries decodes the scenario's query expressions.
func (s *Scenario) decodeQueries() ([]algebra.Query, error) {
	queries := make([]algebra.Query, len(s.Queries))
	for i := range s.Queries {
		q := &s.Queries[i]
		root, err := algebra.FromYAMLSource(&q.Query, s.src)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q.Name, err)
		}
		queries[i] = algebra.Query{Name: q.Name, Root: root}
	}
	return queries, nil
}

func (s *Scenario) source() string {
	if s.path != "" {
		return s.path
	}
	return s.Name
}
