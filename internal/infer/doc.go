// Package infer computes the output schema of relational-algebra
// expressions, or rejects them with a located type error.
//
// Inference walks the tree bottom-up, depth-first and left before right,
// resolving tables through a read-only typesys.Env and checking schema
// compatibility with typesys.Unify. The first failure aborts the call and is
// returned as a *typesys.LocatedError pointing at the node that failed.
//
// # Operator Rules
//
//   - Table: looked up in the Env (TABLE_NOT_FOUND)
//   - CrossProduct: schema merge, label l*r
//   - Union, Difference, Intersect: operands must be record-equal
//     (SCHEMA_MISMATCH); the left schema is the result
//   - Selection: schema unchanged; filters typed against it
//   - Projection: restriction to the named fields (INVALID_PROJECTION_NAMES)
//   - Division: right fields must be a subset of the left with unifying
//     types; the result drops them, label l/r
//   - Rename: simultaneous one-to-one renaming (FIELD_NOT_FOUND,
//     DUPLICATE_FIELD)
//   - InnerJoin: schema merge, label l><r, then filters typed against it
//   - EquiJoin: schema merge, label l=r; each key's two qualified types
//     must unify (EQUIJOIN_KEY_TYPE_MISMATCH)
//   - NatureJoin: schema merge, label l|><|r; shared fields collapse into
//     one unqualified field of the unified type
//   - Reduce: Count yields {_: int}; Sum, Avg, Max and Min need a numeric
//     field (NOT_NUMERIC)
//   - LeftJoin, RightJoin, FullJoin: NOT_IMPLEMENTED after both inputs check
//
// Schema merge qualifies every field name present on both sides with the
// input labels, e.g. Employee.dept and Dept.dept.
//
// # Concurrency
//
// A Checker is immutable after New. Checker.CheckAll fans a batch of
// independent queries out to a worker pool.
package infer
