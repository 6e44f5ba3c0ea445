package plan

import (
	"strings"

	"github.com/roach88/rae/internal/algebra"
)

// Format renders p as an indented tree, one node per line, each followed
// by its schema:
//
//	selection (eq Employee.dept Dept.dept) :: "Employee=Dept" {...}
//	  product :: "Employee=Dept" {...}
//	    scan Employee :: Employee {dept: string, id: int}
//	    scan Dept :: Dept {dept: string, mgr: string}
func Format(p Plan) string {
	var b strings.Builder
	writePlan(&b, p, 0)
	return b.String()
}

func writePlan(b *strings.Builder, p Plan, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch p := p.(type) {
	case *Scan:
		b.WriteString("scan ")
		b.WriteString(p.Table)
	case *Product:
		b.WriteString("product")
	case *Union:
		b.WriteString("union")
	case *Difference:
		b.WriteString("difference")
	case *Intersect:
		b.WriteString("intersect")
	case *Division:
		b.WriteString("division")
	case *Selection:
		b.WriteString("selection")
		for _, f := range p.Filters {
			b.WriteByte(' ')
			b.WriteString(algebra.FormatFilter(f))
		}
	case *Projection:
		b.WriteString("projection")
		for _, s := range p.Fields {
			b.WriteByte(' ')
			b.WriteString(s.String())
		}
	case *Reduce:
		b.WriteString(p.Kind.String())
		if p.Kind != algebra.Count {
			b.WriteByte(' ')
			b.WriteString(p.Field.String())
		}
	case nil:
		b.WriteString("<nil>\n")
		return
	}
	b.WriteString(" :: ")
	b.WriteString(p.Schema().String())
	b.WriteByte('\n')

	for _, c := range Children(p) {
		writePlan(b, c, depth+1)
	}
	if sel, ok := p.(*Selection); ok {
		for _, in := range subqueries(sel.Filters) {
			if sub, ok := sel.Subqueries[in]; ok {
				b.WriteString(strings.Repeat("  ", depth+1))
				b.WriteString("subquery\n")
				writePlan(b, sub, depth+2)
			}
		}
	}
}
