// Package harness runs conformance scenarios against the schema checker.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: schema.cue          # or an inline tables mapping
//	tables:
//	  Employee: {id: int, dept: string}
//	queries:
//	  - name: staff
//	    query:
//	      equijoin:
//	        left: {table: Employee}
//	        right: {table: Dept}
//	        keys: [dept]
//	    expect:
//	      schema: '"Employee=Dept" {id: int, ...}'
//	  - name: missing
//	    query: {table: Nope}
//	    expect:
//	      error: TABLE_NOT_FOUND
//	      at: "12:12"
//
// A catalog path is resolved relative to the scenario file. Query
// positions are positions in the scenario file.
//
// # Expectations
//
//   - schema: the inferred output schema in type notation, label first
//   - error: the error code the check must fail with
//   - at: the line:column the error must point at
//   - sql: the SQLite statement the query compiles to
//
// # Execution
//
// Every scenario runs against a fresh in-memory store: the catalog is
// saved, the queries are checked on the worker pool, the run is recorded,
// and expectations are evaluated against the recorded checks. Output is
// deterministic, so RunWithGolden can compare it against a golden file.
package harness
