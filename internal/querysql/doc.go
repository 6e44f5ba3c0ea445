// Package querysql renders folded query plans as parameterized SQLite SQL.
//
// Each plan.Group becomes one SELECT block. Nested groups, set operations
// and products become derived tables aliased "t0", "t1", ... in compile
// order, and In subqueries become IN (SELECT ...).
//
//	Group source           SQL
//	------------           ---
//	table                  FROM "T"
//	product                FROM (l) AS "t0" CROSS JOIN (r) AS "t1"
//	union/except/intersect FROM (SELECT * FROM (l) UNION SELECT * FROM (r)) AS "t0"
//	group                  FROM (inner) AS "t0"
//
// Every block is ordered by all of its output columns with COLLATE BINARY,
// and positional windows become LIMIT ? OFFSET ? over that order. Division
// and last-row selection have no rendering and fail with NOT_IMPLEMENTED.
package querysql
