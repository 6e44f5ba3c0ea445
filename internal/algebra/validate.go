package algebra

import "fmt"

// ValidationResult contains the portability analysis of an expression.
//
// The portable fragment is the subset of the algebra that the SQL backend
// in querysql can render. Expressions outside it still type check; warnings
// tell the user which constructs block SQL generation.
type ValidationResult struct {
	// IsPortable indicates the expression uses only portable constructs.
	IsPortable bool

	// Warnings lists non-portable constructs with their positions.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks an expression against the portable fragment:
//
//  1. No outer joins (inference rejects them anyway)
//  2. No NatureJoin or Rename - the planner does not lower them
//  3. No Division - SQL has no direct equivalent
//  4. No GetLast - row order is only defined ascending
//  5. No null literal comparisons - SQL three-valued logic differs
//
// Validate is a pure function with no side effects.
func Validate(n Node) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateNode(n)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

type validator struct {
	warnings []string
}

// warn appends a warning prefixed with pos.
func (v *validator) warn(pos fmt.Stringer, format string, args ...any) {
	v.warnings = append(v.warnings, pos.String()+": "+fmt.Sprintf(format, args...))
}

func (v *validator) validateNode(n Node) {
	if n == nil {
		v.warnings = append(v.warnings, "nil expression - portability cannot be verified")
		return
	}

	switch node := n.(type) {
	case *Table:
	case *CrossProduct:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *Union:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *Difference:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *Intersect:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *Selection:
		v.validateNode(node.From)
		v.validateFilters(node.Filters)
	case *Projection:
		v.validateNode(node.From)
	case *Division:
		v.warn(node.Pos, "Division has no SQL rendering")
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *Rename:
		v.warn(node.Pos, "Rename is not lowered to a plan")
		v.validateNode(node.From)
	case *InnerJoin:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
		v.validateFilters(node.Filters)
	case *EquiJoin:
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *NatureJoin:
		v.warn(node.Pos, "NatureJoin is not lowered to a plan")
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *LeftJoin:
		v.warn(node.Pos, "outer join (LeftJoin) is not supported")
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *RightJoin:
		v.warn(node.Pos, "outer join (RightJoin) is not supported")
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *FullJoin:
		v.warn(node.Pos, "outer join (FullJoin) is not supported")
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case *Reduce:
		v.validateNode(node.From)
	default:
		v.warnings = append(v.warnings, fmt.Sprintf("unknown node type %T - portability cannot be verified", n))
	}
}

func (v *validator) validateFilters(filters []Filter) {
	for _, f := range filters {
		switch filter := f.(type) {
		case *And:
			v.validateComps(filter.Comps)
		case *Or:
			v.validateComps(filter.Comps)
		case *Not:
			v.validateComp(filter.Comp)
		case *Compare:
			v.validateComp(filter.Comp)
		case *GetLast:
			v.warn(filter.Pos, "GetLast requires reverse row order")
		case *Range, *GetItem, *GetFirst:
		default:
			v.warnings = append(v.warnings, fmt.Sprintf("unknown filter type %T - portability cannot be verified", f))
		}
	}
}

func (v *validator) validateComps(comps []Comp) {
	for _, c := range comps {
		v.validateComp(c)
	}
}

func (v *validator) validateComp(c Comp) {
	switch comp := c.(type) {
	case *Eq:
		v.validateNullOperand(comp.Pos, comp.Left, comp.Right)
	case *Lt:
		v.validateNullOperand(comp.Pos, comp.Left, comp.Right)
	case *Gt:
		v.validateNullOperand(comp.Pos, comp.Left, comp.Right)
	case *In:
		v.validateNode(comp.Query)
	}
}

func (v *validator) validateNullOperand(pos fmt.Stringer, exprs ...Expr) {
	for _, e := range exprs {
		if lit, ok := e.(*Literal); ok {
			if _, isNull := lit.Value.(Null); isNull {
				v.warn(pos, "comparison with null literal - SQL comparisons with NULL are never true")
			}
		}
	}
}
