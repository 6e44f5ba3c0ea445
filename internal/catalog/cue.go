package catalog

import (
	"fmt"
	"math"
	"math/big"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rae/internal/typesys"
)

// LoadCUE compiles a CUE catalog. Tables are declared under the top-level
// "table" struct:
//
//	table: Employee: {
//		id:      int & >=1 & <=9999
//		dept:    "eng" | "ops"
//		salary?: uint
//		score:   float
//		level:   "int[1..9]"
//	}
//
// Column types map as follows:
//
//   - optional fields (name?:) become Optional
//   - int with a non-negative lower bound, such as CUE's uint, becomes uint
//   - >=, >, <=, < bounds become a Range domain
//   - a concrete number becomes a Value domain
//   - a disjunction of string literals becomes a string enumeration
//   - a single concrete string is read as type notation
//   - bool and null map to themselves
func LoadCUE(src []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileCUE(v, filename)
}

// CompileCUE reads the tables of an already built CUE value.
func CompileCUE(v cue.Value, source string) (*Catalog, error) {
	c := New()
	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return c, nil
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		fields, err := compileTable(name, iter.Value())
		if err != nil {
			return nil, err
		}
		if err := c.Add(name, fields, source); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func compileTable(name string, v cue.Value) (typesys.Record, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, cueError(v.Pos(), name, "", "table must be a struct of columns")
	}
	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return nil, formatCUEError(err)
	}

	fields := make(typesys.Record)
	for iter.Next() {
		column := iter.Selector().Unquoted()
		t, err := columnType(iter.Value())
		if err != nil {
			return nil, cueError(iter.Value().Pos(), name, column, err.Error())
		}
		if iter.IsOptional() {
			if typesys.IsOptional(t) {
				return nil, cueError(iter.Value().Pos(), name, column, "optional field with optional type")
			}
			t = typesys.Optional{Elem: t}
		}
		if err := checkField(t); err != nil {
			return nil, cueError(iter.Value().Pos(), name, column, err.Error())
		}
		fields[typesys.Sym(column)] = t
	}
	return fields, nil
}

// columnType maps a CUE constraint to a column type.
func columnType(v cue.Value) (typesys.Type, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return stringType(v)
	case cue.IntKind:
		return intType(v)
	case cue.FloatKind, cue.NumberKind:
		return floatType(v)
	case cue.BoolKind:
		return typesys.Bool{}, nil
	case cue.NullKind:
		return typesys.Null{}, nil
	}
	return nil, fmt.Errorf("unsupported column kind %v", v.IncompleteKind())
}

func stringType(v cue.Value) (typesys.Type, error) {
	if v.IsConcrete() {
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		return typesys.ParseType(s)
	}
	if op, _ := v.Expr(); op != cue.OrOp {
		return typesys.String{}, nil
	}
	enum, err := stringAlternatives(v)
	if err != nil {
		return nil, err
	}
	return typesys.String{Enum: enum}, nil
}

func stringAlternatives(v cue.Value) ([]string, error) {
	op, args := v.Expr()
	if op == cue.OrOp {
		var out []string
		for _, a := range args {
			alts, err := stringAlternatives(a)
			if err != nil {
				return nil, err
			}
			out = append(out, alts...)
		}
		return out, nil
	}
	s, err := v.String()
	if err != nil {
		return nil, fmt.Errorf("string disjunction must list literals: %w", err)
	}
	return []string{s}, nil
}

// bounds collects the float bounds of v.
type bounds struct {
	lo, hi       float64
	hasLo, hasHi bool
}

func collectBounds(v cue.Value, b *bounds) error {
	op, args := v.Expr()
	switch op {
	case cue.AndOp:
		for _, a := range args {
			if err := collectBounds(a, b); err != nil {
				return err
			}
		}
	case cue.GreaterThanEqualOp, cue.GreaterThanOp:
		f, err := args[0].Float64()
		if err != nil {
			return err
		}
		if !b.hasLo || f > b.lo {
			b.lo, b.hasLo = f, true
		}
	case cue.LessThanEqualOp, cue.LessThanOp:
		f, err := args[0].Float64()
		if err != nil {
			return err
		}
		if !b.hasHi || f < b.hi {
			b.hi, b.hasHi = f, true
		}
	case cue.NoOp:
	default:
		return fmt.Errorf("unsupported numeric constraint %v", op)
	}
	return nil
}

// intBounds collects the integer bounds of v exactly. Strict bounds are
// tightened by one. A nil bound is open.
type intBounds struct {
	lo, hi *big.Int
}

var (
	one       = big.NewInt(1)
	minInt64  = big.NewInt(math.MinInt64)
	maxInt64  = big.NewInt(math.MaxInt64)
	maxUint64 = new(big.Int).SetUint64(math.MaxUint64)
)

func collectIntBounds(v cue.Value, b *intBounds) error {
	op, args := v.Expr()
	switch op {
	case cue.AndOp:
		for _, a := range args {
			if err := collectIntBounds(a, b); err != nil {
				return err
			}
		}
	case cue.GreaterThanEqualOp, cue.GreaterThanOp:
		n, err := args[0].Int(nil)
		if err != nil {
			return err
		}
		if op == cue.GreaterThanOp {
			n.Add(n, one)
		}
		if b.lo == nil || n.Cmp(b.lo) > 0 {
			b.lo = n
		}
	case cue.LessThanEqualOp, cue.LessThanOp:
		n, err := args[0].Int(nil)
		if err != nil {
			return err
		}
		if op == cue.LessThanOp {
			n.Sub(n, one)
		}
		if b.hi == nil || n.Cmp(b.hi) < 0 {
			b.hi = n
		}
	case cue.NoOp:
	default:
		return fmt.Errorf("unsupported numeric constraint %v", op)
	}
	return nil
}

// intType maps an integer constraint to int or uint. Bounds beyond the
// 64-bit limits are clamped; a range spanning the whole domain, such as
// CUE's int64 or uint64, has no domain.
func intType(v cue.Value) (typesys.Type, error) {
	if v.IsConcrete() {
		n, err := v.Int(nil)
		if err != nil {
			return nil, err
		}
		switch {
		case n.IsInt64():
			return typesys.Int{Domain: typesys.Value(n.Int64())}, nil
		case n.IsUint64():
			return typesys.Uint{Domain: typesys.Value(n.Uint64())}, nil
		}
		return nil, fmt.Errorf("integer %s out of range", n)
	}

	var b intBounds
	if err := collectIntBounds(v, &b); err != nil {
		return nil, err
	}
	if b.lo != nil && b.hi != nil && b.lo.Cmp(b.hi) > 0 {
		return nil, fmt.Errorf("empty range %s..%s", b.lo, b.hi)
	}

	if b.lo != nil && b.lo.Sign() >= 0 {
		if b.lo.Cmp(maxUint64) > 0 {
			return nil, fmt.Errorf("lower bound %s out of range", b.lo)
		}
		hi := maxUint64
		if b.hi != nil && b.hi.Cmp(maxUint64) < 0 {
			hi = b.hi
		}
		if b.lo.Sign() == 0 && hi == maxUint64 {
			return typesys.Uint{}, nil
		}
		return typesys.Uint{Domain: typesys.Range(b.lo.Uint64(), hi.Uint64())}, nil
	}

	if b.hi != nil && b.hi.Cmp(minInt64) < 0 {
		return nil, fmt.Errorf("upper bound %s out of range", b.hi)
	}
	lo, hi := minInt64, maxInt64
	if b.lo != nil && b.lo.Cmp(minInt64) > 0 {
		lo = b.lo
	}
	if b.hi != nil && b.hi.Cmp(maxInt64) < 0 {
		hi = b.hi
	}
	if lo == minInt64 && hi == maxInt64 {
		return typesys.Int{}, nil
	}
	return typesys.Int{Domain: typesys.Range(lo.Int64(), hi.Int64())}, nil
}

func floatType(v cue.Value) (typesys.Type, error) {
	if v.IsConcrete() {
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		return typesys.Float{Domain: typesys.Value(f)}, nil
	}

	var b bounds
	if err := collectBounds(v, &b); err != nil {
		return nil, err
	}
	if !b.hasLo && !b.hasHi {
		return typesys.Float{}, nil
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if b.hasLo {
		lo = b.lo
	}
	if b.hasHi {
		hi = b.hi
	}
	if lo > hi {
		return nil, fmt.Errorf("empty range %v..%v", lo, hi)
	}
	return typesys.Float{Domain: typesys.Range(lo, hi)}, nil
}

func cueError(pos token.Pos, table, field, message string) *LoadError {
	e := &LoadError{Table: table, Field: field, Message: message}
	if pos.IsValid() {
		e.File, e.Line, e.Column = pos.Filename(), pos.Line(), pos.Column()
	}
	return e
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return cueError(positions[0], "", "", first.Error())
	}
	return err
}
