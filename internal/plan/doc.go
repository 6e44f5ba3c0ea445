// Package plan lowers type-checked relational-algebra expressions into an
// executable operator tree and folds that tree into select blocks.
//
// Lowering runs after inference, so every Plan node carries the schema the
// checker assigned to the expression it came from:
//
//	[algebra.Node] --infer--> [infer.Result] --Lower--> [Plan] --NewGroup--> [Group]
//
// The plan vocabulary is smaller than the algebra. Joins are rewritten:
//
//	InnerJoin(l, r, filters)  =>  Selection(Product(l, r), filters)
//	EquiJoin(l, r, [k])       =>  Selection(Product(l, r), l.k = r.k)
//
// NatureJoin, Rename and the outer joins have no plan form and fail with
// NOT_IMPLEMENTED.
//
// A Group is one select block: source, comparisons, positional window and
// projection or aggregate. Backends such as querysql render one Group at a
// time and recurse into nested sources and subqueries.
package plan
