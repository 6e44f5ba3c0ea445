package typesys

// Unify merges a and b into their most specific common type.
//
// Optional is transparent: Optional(t) joined with u unifies t with u, and the wrapper
// survives only when both sides are optional. Unify is symmetric for
// identically shaped inputs.
//
// Unify panics with *Fault when a TableName meets a Table: names must be
// resolved through Env.Resolve before any comparison.
func Unify(a, b Type) (Type, error) {
	if x, ok := a.(Optional); ok {
		switch y := b.(type) {
		case Optional:
			elem, err := Unify(x.Elem, y.Elem)
			if err != nil {
				return nil, err
			}
			return Optional{Elem: elem}, nil
		case Null:
			return x, nil
		}
		return Unify(x.Elem, b)
	}
	if y, ok := b.(Optional); ok {
		if _, isNull := a.(Null); isNull {
			return y, nil
		}
		return Unify(a, y.Elem)
	}

	switch x := a.(type) {
	case TableName:
		switch y := b.(type) {
		case TableName:
			if x.Name == y.Name {
				return x, nil
			}
		case Table:
			fault("unresolved table name %q unified with a table", x.Name)
		}
	case Table:
		switch y := b.(type) {
		case Table:
			lines, err := UnifyLines(x.Lines, y.Lines)
			if err != nil {
				return nil, err
			}
			return Table{Lines: lines}, nil
		case TableName:
			fault("unresolved table name %q unified with a table", y.Name)
		}
	case Record:
		if y, ok := b.(Record); ok {
			return UnifyRecords(x, y)
		}
	case SimpleType:
		if y, ok := b.(SimpleType); ok {
			return unifySimple(x, y)
		}
	}
	return nil, NewTypeUnifyError(a, b)
}

// UnifyLines unifies the wrapped records. The result keeps a's label.
func UnifyLines(a, b Lines) (Lines, error) {
	fields, err := UnifyRecords(a.Fields, b.Fields)
	if err != nil {
		return Lines{}, err
	}
	return Lines{Label: a.Label, Fields: fields}, nil
}

// UnifyRecords unifies two records field by field.
//
// Records of equal cardinality must share every key. Records of different
// cardinality unify only when the difference equals the number of Optional
// fields on the larger side: the larger side's non-optional fields must all
// be matched, and its optional fields are kept when unmatched.
func UnifyRecords(a, b Record) (Record, error) {
	if len(a) == len(b) {
		out := make(Record, len(a))
		for _, k := range a.Symbols() {
			bt, ok := b[k]
			if !ok {
				return nil, NewFieldNotFound(k)
			}
			t, err := Unify(a[k], bt)
			if err != nil {
				return nil, err
			}
			out[k] = t
		}
		return out, nil
	}

	big, small, swapped := a, b, false
	if len(b) > len(a) {
		big, small, swapped = b, a, true
	}
	if len(big)-len(small) != big.optionalCount() {
		return nil, NewTypeUnifyError(a, b)
	}

	out := make(Record, len(big))
	for _, k := range big.Symbols() {
		bt := big[k]
		st, ok := small[k]
		if !ok {
			if !IsOptional(bt) {
				return nil, NewFieldNotFound(k)
			}
			out[k] = bt
			continue
		}
		var t Type
		var err error
		if swapped {
			t, err = Unify(st, bt)
		} else {
			t, err = Unify(bt, st)
		}
		if err != nil {
			return nil, err
		}
		out[k] = t
	}
	return out, nil
}

func unifySimple(a, b SimpleType) (Type, error) {
	switch x := a.(type) {
	case Int:
		if y, ok := b.(Int); ok {
			if d, ok := unifyDomain(x.Domain, y.Domain); ok {
				return Int{Domain: d}, nil
			}
		}
	case Uint:
		if y, ok := b.(Uint); ok {
			if d, ok := unifyDomain(x.Domain, y.Domain); ok {
				return Uint{Domain: d}, nil
			}
		}
	case Float:
		if y, ok := b.(Float); ok {
			if d, ok := unifyDomain(x.Domain, y.Domain); ok {
				return Float{Domain: d}, nil
			}
		}
	case String:
		if y, ok := b.(String); ok {
			if enum, ok := unifyEnum(x.Enum, y.Enum); ok {
				return String{Enum: enum}, nil
			}
		}
	case Bool:
		if _, ok := b.(Bool); ok {
			return x, nil
		}
	case Null:
		if _, ok := b.(Null); ok {
			return x, nil
		}
	}
	return nil, NewTypeUnifyError(a, b)
}

// unifyEnum returns the more specific of two permitted-value sets. An empty
// set is unconstrained; otherwise one set must be a subset of the other.
func unifyEnum(a, b []string) ([]string, bool) {
	switch {
	case len(a) == 0:
		return b, true
	case len(b) == 0:
		return a, true
	case subset(a, b):
		return a, true
	case subset(b, a):
		return b, true
	}
	return nil, false
}
