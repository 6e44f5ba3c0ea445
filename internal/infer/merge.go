package infer

import (
	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/typesys"
)

// merge combines two schemas. Fields unique to one side pass through
// unchanged; a field present on both sides is replaced by two entries
// qualified with the respective input labels. The result is labelled
// l.Label + sep + r.Label.
func merge(l, r typesys.Lines, sep string) (typesys.Lines, error) {
	label := l.Label + sep + r.Label
	out := make(typesys.Record, len(l.Fields)+len(r.Fields))

	for s, t := range l.Fields {
		if !r.Fields.Has(s) {
			out[s] = t
		}
	}
	for s, t := range r.Fields {
		if !l.Fields.Has(s) {
			out[s] = t
		}
	}
	for _, s := range l.Fields.Symbols() {
		if !r.Fields.Has(s) {
			continue
		}
		ls, rs := Qualify(l.Label, s), Qualify(r.Label, s)
		if ls == rs {
			return typesys.Lines{}, typesys.NewDuplicateField(ls, "both inputs are labelled "+l.Label+"; rename one side first")
		}
		for _, q := range []typesys.Symbol{ls, rs} {
			if out.Has(q) {
				return typesys.Lines{}, typesys.NewDuplicateField(q, "qualified name already present in "+label)
			}
		}
		out[ls] = l.Fields[s]
		out[rs] = r.Fields[s]
	}
	return typesys.Lines{Label: label, Fields: out}, nil
}

// Qualify attaches label to s, the way schema merge renames a field present
// on both inputs. An already qualified symbol keeps its qualifier as a
// suffix of the new one.
func Qualify(label string, s typesys.Symbol) typesys.Symbol {
	if s.Qualifier == "" {
		return typesys.QSym(label, s.Name)
	}
	return typesys.QSym(label+"."+s.Qualifier, s.Name)
}

func project(from typesys.Lines, fields []typesys.Symbol) (typesys.Lines, error) {
	out := make(typesys.Record, len(fields))
	var missing []typesys.Symbol
	for _, s := range fields {
		t, ok := from.Fields[s]
		if !ok {
			missing = append(missing, s)
			continue
		}
		out[s] = t
	}
	if len(missing) > 0 {
		return typesys.Lines{}, typesys.NewInvalidProjectionNames(missing)
	}
	return typesys.Lines{Label: from.Label, Fields: out}, nil
}

// divide requires r's fields to be a subset of l's with unifying types and
// yields l without them.
func divide(l, r typesys.Lines) (typesys.Lines, error) {
	out := l.Fields.Clone()
	for _, s := range r.Fields.Symbols() {
		lt, ok := l.Fields[s]
		if !ok {
			return typesys.Lines{}, typesys.NewFieldNotFound(s)
		}
		if _, err := typesys.Unify(lt, r.Fields[s]); err != nil {
			return typesys.Lines{}, err
		}
		delete(out, s)
	}
	return typesys.Lines{Label: l.Label + "/" + r.Label, Fields: out}, nil
}

// rename applies pairs simultaneously, so a and b may be swapped.
func rename(from typesys.Lines, pairs []algebra.RenamePair) (typesys.Lines, error) {
	out := from.Fields.Clone()
	seen := make(map[typesys.Symbol]bool, len(pairs))
	for _, pair := range pairs {
		if !from.Fields.Has(pair.Old) {
			return typesys.Lines{}, typesys.NewFieldNotFound(pair.Old)
		}
		if seen[pair.Old] {
			return typesys.Lines{}, typesys.NewDuplicateField(pair.Old, "renamed more than once")
		}
		seen[pair.Old] = true
		delete(out, pair.Old)
	}
	for _, pair := range pairs {
		if out.Has(pair.New) {
			return typesys.Lines{}, typesys.NewDuplicateField(pair.New, "rename target already exists")
		}
		out[pair.New] = from.Fields[pair.Old]
	}
	return typesys.Lines{Label: from.Label, Fields: out}, nil
}

// equiJoin merges l and r and checks that each key's two qualified types
// unify.
func equiJoin(l, r typesys.Lines, keys []string) (typesys.Lines, error) {
	merged, err := merge(l, r, "=")
	if err != nil {
		return typesys.Lines{}, err
	}
	for _, k := range keys {
		key := typesys.Sym(k)
		ls, rs := Qualify(l.Label, key), Qualify(r.Label, key)
		lt, ok := l.Fields[key]
		if !ok {
			return typesys.Lines{}, typesys.NewFieldNotFound(ls)
		}
		rt, ok := r.Fields[key]
		if !ok {
			return typesys.Lines{}, typesys.NewFieldNotFound(rs)
		}
		if _, err := typesys.Unify(lt, rt); err != nil {
			return typesys.Lines{}, typesys.NewEquiJoinKeyTypeMismatch(ls, lt, rs, rt)
		}
	}
	return merged, nil
}

// natureJoin merges l and r, then collapses every shared field back into a
// single unqualified field of the unified type.
func natureJoin(l, r typesys.Lines) (typesys.Lines, error) {
	merged, err := merge(l, r, "|><|")
	if err != nil {
		return typesys.Lines{}, err
	}
	for _, s := range l.Fields.Symbols() {
		rt, ok := r.Fields[s]
		if !ok {
			continue
		}
		lt := l.Fields[s]
		ls, rs := Qualify(l.Label, s), Qualify(r.Label, s)
		t, err := typesys.Unify(lt, rt)
		if err != nil {
			return typesys.Lines{}, typesys.NewEquiJoinKeyTypeMismatch(ls, lt, rs, rt)
		}
		delete(merged.Fields, ls)
		delete(merged.Fields, rs)
		merged.Fields[s] = t
	}
	return merged, nil
}
