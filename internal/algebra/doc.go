// Package algebra defines the relational-algebra expression tree checked by
// infer and lowered by plan.
//
// Node, Filter, Comp, Expr and Value are sealed interfaces using the marker
// method pattern, so consumers can switch exhaustively over the variants:
//
//	switch n := node.(type) {
//	case *algebra.Table:
//	    // leaf
//	case *algebra.CrossProduct:
//	    // combine n.Left and n.Right
//	}
//
// Every node, filter, comparison and expression embeds typesys.Pos. Trees are
// built once, by DecodeQueries or directly in Go, and are read-only
// afterwards.
//
// # Query documents
//
// Queries are written in YAML. Each node is a single-key mapping naming its
// operator:
//
//	queries:
//	  - name: managers
//	    query:
//	      projection:
//	        from:
//	          equijoin:
//	            left: {table: Employee}
//	            right: {table: Dept}
//	            keys: [dept]
//	        fields: [id, mgr]
//
// In filter expressions, plain scalars are field references (Dept.id) or
// typed literals (42, 1.5, true, null); quoted scalars are string literals.
//
// # Portability
//
// Validate reports constructs the SQL backend cannot render. It never
// rejects an expression; type errors come from infer.
package algebra
