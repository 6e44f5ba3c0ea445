package harness

import "github.com/roach88/rae/internal/typesys"

// QueryResult is the recorded outcome of one scenario query.
type QueryResult struct {
	Name string `json:"name"`

	// Schema is the inferred schema in type notation, label first.
	// Empty when the check failed.
	Schema   string `json:"schema,omitempty"`
	SchemaID string `json:"schema_id,omitempty"`

	// ErrorCode and Message describe a failed check.
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Pos       typesys.Pos `json:"-"`

	// SQL and Params hold the compiled statement of a successful check.
	// SQLError is set instead when the query has no SQL rendering.
	SQL      string `json:"sql,omitempty"`
	Params   []any  `json:"params,omitempty"`
	SQLError string `json:"sql_error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Queries holds one entry per scenario query, in scenario order.
	Queries []QueryResult `json:"queries"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
