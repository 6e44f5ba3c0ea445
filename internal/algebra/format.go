package algebra

import (
	"strconv"
	"strings"

	"github.com/roach88/rae/internal/typesys"
)

// Format renders n as a deterministic s-expression, e.g.
//
//	(equijoin Employee Dept dept)
//	(selection Employee (gt salary 1000) (first))
//
// Positions are not rendered, so structurally equal trees format equally.
func Format(n Node) string {
	var p printer
	p.node(n)
	return p.String()
}

// FormatFilter renders a single filter in the same notation as Format.
func FormatFilter(f Filter) string {
	var p printer
	p.filter(f)
	return p.String()
}

// QueryID returns the content-addressed identity of n.
func QueryID(n Node) string {
	return typesys.HashWithDomain(typesys.DomainQuery, []byte(Format(n)))
}

type printer struct {
	strings.Builder
}

func (p *printer) open(op string) {
	p.WriteByte('(')
	p.WriteString(op)
}

func (p *printer) close() {
	p.WriteByte(')')
}

func (p *printer) binary(op string, l, r Node) {
	p.open(op)
	p.WriteByte(' ')
	p.node(l)
	p.WriteByte(' ')
	p.node(r)
	p.close()
}

func (p *printer) node(n Node) {
	switch n := n.(type) {
	case *Table:
		p.WriteString(typesys.Sym(n.Name).String())
	case *CrossProduct:
		p.binary("cross", n.Left, n.Right)
	case *Union:
		p.binary("union", n.Left, n.Right)
	case *Difference:
		p.binary("difference", n.Left, n.Right)
	case *Intersect:
		p.binary("intersect", n.Left, n.Right)
	case *Division:
		p.binary("division", n.Left, n.Right)
	case *NatureJoin:
		p.binary("naturejoin", n.Left, n.Right)
	case *LeftJoin:
		p.binary("leftjoin", n.Left, n.Right)
	case *RightJoin:
		p.binary("rightjoin", n.Left, n.Right)
	case *FullJoin:
		p.binary("fulljoin", n.Left, n.Right)
	case *Selection:
		p.open("selection ")
		p.node(n.From)
		p.filters(n.Filters)
		p.close()
	case *Projection:
		p.open("projection ")
		p.node(n.From)
		for _, s := range n.Fields {
			p.WriteByte(' ')
			p.WriteString(s.String())
		}
		p.close()
	case *Rename:
		p.open("rename ")
		p.node(n.From)
		for _, pair := range n.Pairs {
			p.WriteByte(' ')
			p.WriteString(pair.Old.String())
			p.WriteString("->")
			p.WriteString(pair.New.String())
		}
		p.close()
	case *InnerJoin:
		p.open("innerjoin ")
		p.node(n.Left)
		p.WriteByte(' ')
		p.node(n.Right)
		p.filters(n.Filters)
		p.close()
	case *EquiJoin:
		p.open("equijoin ")
		p.node(n.Left)
		p.WriteByte(' ')
		p.node(n.Right)
		for _, k := range n.Keys {
			p.WriteByte(' ')
			p.WriteString(typesys.Sym(k).String())
		}
		p.close()
	case *Reduce:
		p.open(n.Kind.String())
		p.WriteByte(' ')
		p.node(n.From)
		if n.Kind != Count {
			p.WriteByte(' ')
			p.WriteString(n.Field.String())
		}
		p.close()
	case nil:
		p.WriteString("<nil>")
	}
}

func (p *printer) filters(fs []Filter) {
	for _, f := range fs {
		p.WriteByte(' ')
		p.filter(f)
	}
}

func (p *printer) filter(f Filter) {
	switch f := f.(type) {
	case *And:
		p.comps("and", f.Comps)
	case *Or:
		p.comps("or", f.Comps)
	case *Not:
		p.open("not ")
		p.comp(f.Comp)
		p.close()
	case *Compare:
		p.comp(f.Comp)
	case *Range:
		p.open("range ")
		p.WriteString(strconv.FormatUint(f.Low, 10))
		p.WriteByte(' ')
		p.WriteString(strconv.FormatUint(f.High, 10))
		p.close()
	case *GetItem:
		p.open("item ")
		p.WriteString(strconv.FormatUint(f.Index, 10))
		p.close()
	case *GetFirst:
		p.WriteString("(first)")
	case *GetLast:
		p.WriteString("(last)")
	case nil:
		p.WriteString("<nil>")
	}
}

func (p *printer) comps(op string, cs []Comp) {
	p.open(op)
	for _, c := range cs {
		p.WriteByte(' ')
		p.comp(c)
	}
	p.close()
}

func (p *printer) comp(c Comp) {
	switch c := c.(type) {
	case *Eq:
		p.exprs("eq", c.Left, c.Right)
	case *Lt:
		p.exprs("lt", c.Left, c.Right)
	case *Gt:
		p.exprs("gt", c.Left, c.Right)
	case *In:
		p.open("in ")
		p.expr(c.Elem)
		p.WriteByte(' ')
		p.node(c.Query)
		p.close()
	case nil:
		p.WriteString("<nil>")
	}
}

func (p *printer) exprs(op string, l, r Expr) {
	p.open(op)
	p.WriteByte(' ')
	p.expr(l)
	p.WriteByte(' ')
	p.expr(r)
	p.close()
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *Binary:
		p.exprs(e.Op.String(), e.Left, e.Right)
	case *Negate:
		p.open("not ")
		p.expr(e.Operand)
		p.close()
	case *Field:
		p.WriteString(e.Symbol.String())
	case *Literal:
		p.WriteString(FormatValue(e.Value))
	case nil:
		p.WriteString("<nil>")
	}
}

// FormatValue renders a literal. Uint literals carry a u suffix and Float
// literals always show a decimal point or exponent.
func FormatValue(v Value) string {
	switch v := v.(type) {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(v))
	case Int:
		return strconv.FormatInt(int64(v), 10)
	case Uint:
		return strconv.FormatUint(uint64(v), 10) + "u"
	case Float:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case String:
		return strconv.Quote(string(v))
	}
	return "<nil>"
}
