package infer

import (
	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/typesys"
)

// CountField is the symbol of the single field produced by Count.
var CountField = typesys.Sym("")

// reduce computes the one-field schema of an aggregate over from.
//
//   - Count yields {_: int}
//   - Max and Min keep the field's type without its domain
//   - Sum keeps the numeric kind without its domain
//   - Avg yields float
//
// Optionality of the target field is preserved.
func reduce(from typesys.Lines, kind algebra.ReduceKind, field typesys.Symbol) (typesys.Lines, error) {
	if kind == algebra.Count {
		return typesys.Lines{Label: from.Label, Fields: typesys.Record{CountField: typesys.Int{}}}, nil
	}

	t, ok := from.Fields[field]
	if !ok {
		return typesys.Lines{}, typesys.NewFieldNotFound(field)
	}
	if !typesys.IsNumeric(t) {
		return typesys.Lines{}, typesys.NewNotNumeric(field, t)
	}

	out := typesys.Widen(t)
	if kind == algebra.Avg {
		out = typesys.Float{}
		if typesys.IsOptional(t) {
			out = typesys.Optional{Elem: out}
		}
	}
	return typesys.Lines{Label: from.Label, Fields: typesys.Record{field: out}}, nil
}
