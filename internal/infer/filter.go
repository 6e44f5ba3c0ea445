package infer

import (
	"math"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/typesys"
)

// checkFilters types every filter against schema. Positional filters only
// need well-formed bounds.
func (p *pass) checkFilters(filters []algebra.Filter, schema typesys.Record) error {
	for _, f := range filters {
		if err := p.checkFilter(f, schema); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) checkFilter(f algebra.Filter, schema typesys.Record) error {
	switch f := f.(type) {
	case *algebra.And:
		return p.checkComps(f.Comps, schema)
	case *algebra.Or:
		return p.checkComps(f.Comps, schema)
	case *algebra.Not:
		return p.checkComp(f.Comp, schema)
	case *algebra.Compare:
		return p.checkComp(f.Comp, schema)
	case *algebra.Range:
		if f.Low > f.High {
			return typesys.At(f.Pos, typesys.NewInvalidFilter("row range %d..%d is empty", f.Low, f.High))
		}
	case *algebra.GetItem, *algebra.GetFirst, *algebra.GetLast:
	case nil:
		return typesys.At(typesys.Pos{}, typesys.NewInvalidFilter("empty filter"))
	}
	return nil
}

func (p *pass) checkComps(comps []algebra.Comp, schema typesys.Record) error {
	for _, c := range comps {
		if err := p.checkComp(c, schema); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) checkComp(c algebra.Comp, schema typesys.Record) error {
	switch c := c.(type) {
	case *algebra.Eq:
		lt, rt, err := p.operands(c.Left, c.Right, schema, true)
		if err != nil {
			return err
		}
		if _, err := typesys.Unify(lt, rt); err != nil {
			return locate(c.Pos, err)
		}
	case *algebra.Lt:
		return p.checkOrdered(c.Pos, c.Left, c.Right, schema)
	case *algebra.Gt:
		return p.checkOrdered(c.Pos, c.Left, c.Right, schema)
	case *algebra.In:
		et, err := p.exprType(c.Elem, schema)
		if err != nil {
			return err
		}
		sub, err := p.infer(c.Query)
		if err != nil {
			return err
		}
		if len(sub.Fields) != 1 {
			return typesys.At(c.Pos, typesys.NewInvalidFilter("subquery must yield exactly one field, got %d", len(sub.Fields)))
		}
		for _, only := range sub.Fields {
			if _, err := typesys.Unify(typesys.Widen(et), typesys.Widen(only)); err != nil {
				return locate(c.Pos, err)
			}
		}
	case nil:
		return typesys.At(typesys.Pos{}, typesys.NewInvalidFilter("empty comparison"))
	}
	return nil
}

// checkOrdered types Lt and Gt. Literal bounds need not lie inside the
// field's domain, so refinements are dropped before unifying.
func (p *pass) checkOrdered(pos typesys.Pos, l, r algebra.Expr, schema typesys.Record) error {
	lt, rt, err := p.operands(l, r, schema, false)
	if err != nil {
		return err
	}
	t, err := typesys.Unify(typesys.Widen(lt), typesys.Widen(rt))
	if err != nil {
		return locate(pos, err)
	}
	if !isOrdered(t) {
		return typesys.At(pos, typesys.NewInvalidFilter("values of type %s are not ordered", t))
	}
	return nil
}

func isOrdered(t typesys.Type) bool {
	if o, ok := t.(typesys.Optional); ok {
		return isOrdered(o.Elem)
	}
	if _, ok := t.(typesys.String); ok {
		return true
	}
	return typesys.IsNumeric(t)
}

// operands types both sides of a binary comparison or operator. Non-literal
// operands are typed first, left before right, so a literal can take the
// numeric kind of the operand it meets.
func (p *pass) operands(l, r algebra.Expr, schema typesys.Record, keepDomain bool) (typesys.Type, typesys.Type, error) {
	var lt, rt typesys.Type
	var err error
	if _, isLit := l.(*algebra.Literal); !isLit {
		if lt, err = p.exprType(l, schema); err != nil {
			return nil, nil, err
		}
	}
	if _, isLit := r.(*algebra.Literal); !isLit {
		if rt, err = p.exprType(r, schema); err != nil {
			return nil, nil, err
		}
	}
	if lt == nil {
		if lt, err = literalType(l.(*algebra.Literal), rt, keepDomain); err != nil {
			return nil, nil, err
		}
	}
	if rt == nil {
		if rt, err = literalType(r.(*algebra.Literal), lt, keepDomain); err != nil {
			return nil, nil, err
		}
	}
	return lt, rt, nil
}

func (p *pass) exprType(e algebra.Expr, schema typesys.Record) (typesys.Type, error) {
	if e == nil {
		return nil, typesys.At(typesys.Pos{}, typesys.NewInvalidFilter("empty expression"))
	}
	if err := p.enter(e.Position()); err != nil {
		return nil, err
	}
	defer p.leave()

	switch e := e.(type) {
	case *algebra.Field:
		t, ok := schema[e.Symbol]
		if !ok {
			return nil, typesys.At(e.Pos, typesys.NewFieldNotFound(e.Symbol))
		}
		return t, nil

	case *algebra.Literal:
		return literalType(e, nil, false)

	case *algebra.Negate:
		t, err := p.exprType(e.Operand, schema)
		if err != nil {
			return nil, err
		}
		if _, err := typesys.Unify(t, typesys.Bool{}); err != nil {
			return nil, locate(e.Pos, err)
		}
		return typesys.Bool{}, nil

	case *algebra.Binary:
		lt, rt, err := p.operands(e.Left, e.Right, schema, false)
		if err != nil {
			return nil, err
		}
		if e.Op.IsLogical() {
			for _, t := range []typesys.Type{lt, rt} {
				if _, err := typesys.Unify(t, typesys.Bool{}); err != nil {
					return nil, locate(e.Pos, err)
				}
			}
			return typesys.Bool{}, nil
		}
		if !typesys.IsNumeric(lt) || !typesys.IsNumeric(rt) {
			return nil, typesys.At(e.Pos, typesys.NewInvalidFilter("%s requires numeric operands, got %s and %s", e.Op, lt, rt))
		}
		t, err := typesys.Unify(typesys.Widen(lt), typesys.Widen(rt))
		if err != nil {
			return nil, locate(e.Pos, err)
		}
		if (typesys.IsOptional(lt) || typesys.IsOptional(rt)) && !typesys.IsOptional(t) {
			t = typesys.Optional{Elem: t}
		}
		return t, nil
	}
	return nil, typesys.At(e.Position(), typesys.NewInvalidFilter("unsupported expression"))
}

// literalType types a literal. With keepDomain the value itself becomes the
// refinement: a Value domain for numbers, a singleton enumeration for
// strings. An integer literal adopts the numeric kind of hint when the
// value is representable in it.
func literalType(lit *algebra.Literal, hint typesys.Type, keepDomain bool) (typesys.Type, error) {
	if o, ok := hint.(typesys.Optional); ok {
		hint = o.Elem
	}
	switch v := lit.Value.(type) {
	case algebra.Null:
		return typesys.Null{}, nil
	case algebra.Bool:
		return typesys.Bool{}, nil
	case algebra.String:
		if keepDomain {
			return typesys.String{Enum: []string{string(v)}}, nil
		}
		return typesys.String{}, nil
	case algebra.Int:
		switch hint.(type) {
		case typesys.Uint:
			if v >= 0 {
				return uintType(uint64(v), keepDomain), nil
			}
		case typesys.Float:
			return floatType(float64(v), keepDomain), nil
		}
		return intType(int64(v), keepDomain), nil
	case algebra.Uint:
		switch hint.(type) {
		case typesys.Int:
			if v <= math.MaxInt64 {
				return intType(int64(v), keepDomain), nil
			}
		case typesys.Float:
			return floatType(float64(v), keepDomain), nil
		}
		return uintType(uint64(v), keepDomain), nil
	case algebra.Float:
		return floatType(float64(v), keepDomain), nil
	}
	return nil, typesys.At(lit.Pos, typesys.NewInvalidFilter("unsupported literal"))
}

func intType(v int64, keepDomain bool) typesys.Type {
	if !keepDomain {
		return typesys.Int{}
	}
	return typesys.Int{Domain: typesys.Value(v)}
}

func uintType(v uint64, keepDomain bool) typesys.Type {
	if !keepDomain {
		return typesys.Uint{}
	}
	return typesys.Uint{Domain: typesys.Value(v)}
}

func floatType(v float64, keepDomain bool) typesys.Type {
	if !keepDomain {
		return typesys.Float{}
	}
	return typesys.Float{Domain: typesys.Value(v)}
}
