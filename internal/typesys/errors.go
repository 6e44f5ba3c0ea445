package typesys

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes type errors.
type ErrorCode string

const (
	// ErrCodeTableNotFound indicates a table name missing from the Env.
	ErrCodeTableNotFound ErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeFieldNotFound indicates a referenced field missing from a schema.
	ErrCodeFieldNotFound ErrorCode = "FIELD_NOT_FOUND"

	// ErrCodeInvalidProjectionNames indicates a projection onto absent fields.
	ErrCodeInvalidProjectionNames ErrorCode = "INVALID_PROJECTION_NAMES"

	// ErrCodeSchemaMismatch indicates set operands with different schemas.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"

	// ErrCodeEquiJoinKeyTypeMismatch indicates join keys whose types do not unify.
	ErrCodeEquiJoinKeyTypeMismatch ErrorCode = "EQUIJOIN_KEY_TYPE_MISMATCH"

	// ErrCodeTypeUnify indicates two types with no common type.
	ErrCodeTypeUnify ErrorCode = "TYPE_UNIFY_ERROR"

	// ErrCodeExpressionTooDeep indicates the expression exceeds the depth limit.
	ErrCodeExpressionTooDeep ErrorCode = "EXPRESSION_TOO_DEEP"

	// ErrCodeNotImplemented indicates an operator the checker does not support.
	ErrCodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// ErrCodeDuplicateField indicates an operation would produce the same
	// field twice.
	ErrCodeDuplicateField ErrorCode = "DUPLICATE_FIELD"

	// ErrCodeNotNumeric indicates an aggregate over a non-numeric field.
	ErrCodeNotNumeric ErrorCode = "NOT_NUMERIC"

	// ErrCodeInvalidFilter indicates a malformed filter.
	ErrCodeInvalidFilter ErrorCode = "INVALID_FILTER"

	// ErrCodeMultipleAggregates indicates an aggregate applied to an
	// already aggregated plan.
	ErrCodeMultipleAggregates ErrorCode = "MULTIPLE_AGGREGATES_NOT_SUPPORTED"
)

// TypeError is a user-facing type error. The populated fields depend on Code:
//
//   - TABLE_NOT_FOUND: Name
//   - FIELD_NOT_FOUND, DUPLICATE_FIELD: Symbols[0]
//   - INVALID_PROJECTION_NAMES: Symbols (the missing names)
//   - SCHEMA_MISMATCH, TYPE_UNIFY_ERROR: Types[0], Types[1]
//   - EQUIJOIN_KEY_TYPE_MISMATCH: Symbols[0], Types[0], Symbols[1], Types[1]
//   - NOT_NUMERIC: Symbols[0], Types[0]
//   - NOT_IMPLEMENTED: Name (the operator)
type TypeError struct {
	Code    ErrorCode
	Name    string
	Symbols []Symbol
	Types   []Type
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	switch e.Code {
	case ErrCodeTableNotFound:
		return fmt.Sprintf("%s: table %q not found", e.Code, e.Name)
	case ErrCodeFieldNotFound:
		return fmt.Sprintf("%s: field %s not found", e.Code, e.symbol(0))
	case ErrCodeInvalidProjectionNames:
		names := make([]string, len(e.Symbols))
		for i, s := range e.Symbols {
			names[i] = s.String()
		}
		return fmt.Sprintf("%s: no such fields: %s", e.Code, strings.Join(names, ", "))
	case ErrCodeSchemaMismatch:
		return fmt.Sprintf("%s: %s is not %s", e.Code, e.typ(0), e.typ(1))
	case ErrCodeEquiJoinKeyTypeMismatch:
		return fmt.Sprintf("%s: %s: %s does not unify with %s: %s",
			e.Code, e.symbol(0), e.typ(0), e.symbol(1), e.typ(1))
	case ErrCodeTypeUnify:
		return fmt.Sprintf("%s: cannot unify %s with %s", e.Code, e.typ(0), e.typ(1))
	case ErrCodeNotImplemented:
		return fmt.Sprintf("%s: %s is not supported", e.Code, e.Name)
	case ErrCodeNotNumeric:
		return fmt.Sprintf("%s: field %s has non-numeric type %s", e.Code, e.symbol(0), e.typ(0))
	case ErrCodeDuplicateField:
		if e.Message != "" {
			return fmt.Sprintf("%s: field %s: %s", e.Code, e.symbol(0), e.Message)
		}
		return fmt.Sprintf("%s: field %s", e.Code, e.symbol(0))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TypeError) symbol(i int) string {
	if i < len(e.Symbols) {
		return e.Symbols[i].String()
	}
	return "?"
}

func (e *TypeError) typ(i int) string {
	if i < len(e.Types) && e.Types[i] != nil {
		return e.Types[i].String()
	}
	return "?"
}

// NewTableNotFound creates a TABLE_NOT_FOUND error.
func NewTableNotFound(name string) *TypeError {
	return &TypeError{Code: ErrCodeTableNotFound, Name: name}
}

// NewFieldNotFound creates a FIELD_NOT_FOUND error.
func NewFieldNotFound(s Symbol) *TypeError {
	return &TypeError{Code: ErrCodeFieldNotFound, Symbols: []Symbol{s}}
}

// NewInvalidProjectionNames creates an INVALID_PROJECTION_NAMES error
// listing the missing names.
func NewInvalidProjectionNames(missing []Symbol) *TypeError {
	return &TypeError{Code: ErrCodeInvalidProjectionNames, Symbols: missing}
}

// NewSchemaMismatch creates a SCHEMA_MISMATCH error.
func NewSchemaMismatch(a, b Type) *TypeError {
	return &TypeError{Code: ErrCodeSchemaMismatch, Types: []Type{a, b}}
}

// NewEquiJoinKeyTypeMismatch creates an EQUIJOIN_KEY_TYPE_MISMATCH error.
func NewEquiJoinKeyTypeMismatch(ls Symbol, lt Type, rs Symbol, rt Type) *TypeError {
	return &TypeError{
		Code:    ErrCodeEquiJoinKeyTypeMismatch,
		Symbols: []Symbol{ls, rs},
		Types:   []Type{lt, rt},
	}
}

// NewTypeUnifyError creates a TYPE_UNIFY_ERROR.
func NewTypeUnifyError(a, b Type) *TypeError {
	return &TypeError{Code: ErrCodeTypeUnify, Types: []Type{a, b}}
}

// NewExpressionTooDeep creates an EXPRESSION_TOO_DEEP error.
func NewExpressionTooDeep(limit int) *TypeError {
	return &TypeError{
		Code:    ErrCodeExpressionTooDeep,
		Message: fmt.Sprintf("expression nesting exceeds %d levels", limit),
	}
}

// NewNotImplemented creates a NOT_IMPLEMENTED error for operator.
func NewNotImplemented(operator string) *TypeError {
	return &TypeError{Code: ErrCodeNotImplemented, Name: operator}
}

// NewDuplicateField creates a DUPLICATE_FIELD error.
func NewDuplicateField(s Symbol, message string) *TypeError {
	return &TypeError{Code: ErrCodeDuplicateField, Symbols: []Symbol{s}, Message: message}
}

// NewNotNumeric creates a NOT_NUMERIC error.
func NewNotNumeric(s Symbol, t Type) *TypeError {
	return &TypeError{Code: ErrCodeNotNumeric, Symbols: []Symbol{s}, Types: []Type{t}}
}

// NewInvalidFilter creates an INVALID_FILTER error.
func NewInvalidFilter(format string, args ...any) *TypeError {
	return &TypeError{Code: ErrCodeInvalidFilter, Message: fmt.Sprintf(format, args...)}
}

// NewMultipleAggregates creates a MULTIPLE_AGGREGATES_NOT_SUPPORTED error.
func NewMultipleAggregates() *TypeError {
	return &TypeError{
		Code:    ErrCodeMultipleAggregates,
		Message: "an aggregate cannot be applied to an already aggregated plan",
	}
}

// LocatedError is a TypeError tagged with the position of the expression
// node where it was detected.
type LocatedError struct {
	Located[*TypeError]
}

// At wraps err with pos.
func At(pos Pos, err *TypeError) *LocatedError {
	return &LocatedError{Located: Locate(pos, err)}
}

// Error implements the error interface.
func (e *LocatedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Value)
}

// Unwrap returns the underlying *TypeError.
func (e *LocatedError) Unwrap() error {
	return e.Value
}

// CodeOf returns the ErrorCode of the first *TypeError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var te *TypeError
	if errors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}

// IsCode reports whether err wraps a *TypeError with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// PosOf returns the position of the first *LocatedError in err's chain.
func PosOf(err error) (Pos, bool) {
	var le *LocatedError
	if errors.As(err, &le) {
		return le.Pos, true
	}
	return Pos{}, false
}

// Fault is an internal invariant violation. It signals that a required
// normalization step was skipped and is raised with panic, never returned.
type Fault struct {
	Message string
}

func (f *Fault) Error() string {
	return "internal fault: " + f.Message
}

func fault(format string, args ...any) {
	panic(&Fault{Message: fmt.Sprintf(format, args...)})
}
