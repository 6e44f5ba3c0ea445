// Package typesys provides the schema type model for rae and the structural
// unification algorithm that every schema comparison reduces to.
//
// This package contains no knowledge of the algebra AST. All other internal
// packages import typesys; typesys imports nothing internal.
//
// # Type Model
//
// Type is a sealed interface. Its variants are:
//
//   - Optional: nullable wrapper, transparent to unification
//   - Record: unordered Symbol to Type mapping
//   - Int, Uint, Float: numeric kinds with an optional refinement Domain
//   - String: string kind with a finite enumeration (empty = unconstrained)
//   - Bool, Null: literal kinds used when typing filter expressions
//   - TableName: deferred reference, resolved through an Env
//   - Table: a materialized row schema (Lines)
//
// # Unification
//
// Unify(a, b) computes the most specific common type of a and b or fails with
// a *TypeError. Records unify field by field; optional fields act as width
// extension, so {a: int, b: int?} unifies with {a: int}. Numeric domains
// unify only when one contains the other and the narrower one wins; a Value
// domain is a single-point range.
//
// A TableName reaching unification against a Table is an internal fault and
// panics with *Fault: callers must resolve names through Env.Resolve first.
//
// # Errors
//
// Every user-facing failure is a *TypeError carrying an ErrorCode and the
// offending symbols and types. Inference wraps it with a source position in
// a *LocatedError. Use CodeOf or IsCode to inspect wrapped errors.
package typesys
