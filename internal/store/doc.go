// Package store provides SQLite-backed storage for catalogs and check logs.
//
// The store keeps:
//   - Catalog tables: each table schema in type notation with its
//     content-addressed schema ID, verified on load
//   - Runs: one row per check run, keyed by a UUIDv7 run ID
//   - Checks: the schema or error code inferred for each query of a run
//
// # Ordering
//
// Runs are ordered by seq, a logical clock assigned on insert, never by
// wall time. Checks keep the input order of their run. Catalog tables are
// read ORDER BY name COLLATE BINARY.
//
// # Introspection
//
// Introspect reads the declared schema of an existing SQLite database
// (sqlite_master and PRAGMA table_info) into a catalog. Table rows are
// never read.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
