package typesys

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes t as RFC 8785 canonical JSON: object keys sorted
// by UTF-16 code units, no HTML escaping, strings NFC normalized, no
// insignificant whitespace. Record fields and String enumerations are
// emitted in sorted order so equal types encode to equal bytes.
//
// Uint and Float bounds are encoded as decimal strings; Int bounds as JSON
// integers.
func MarshalCanonical(t Type) ([]byte, error) {
	tree, err := canonicalTree(t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func canonicalTree(t Type) (map[string]any, error) {
	switch x := t.(type) {
	case Optional:
		elem, err := canonicalTree(x.Elem)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": "optional", "elem": elem}, nil
	case Record:
		fields, err := canonicalFields(x)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": "record", "fields": fields}, nil
	case Int:
		return withDomain("int", x.Domain, func(v int64) any { return v }), nil
	case Uint:
		return withDomain("uint", x.Domain, func(v uint64) any { return strconv.FormatUint(v, 10) }), nil
	case Float:
		return withDomain("float", x.Domain, func(v float64) any { return strconv.FormatFloat(v, 'g', -1, 64) }), nil
	case String:
		obj := map[string]any{"kind": "string"}
		if len(x.Enum) > 0 {
			enum := make([]string, len(x.Enum))
			for i, v := range x.Enum {
				enum[i] = norm.NFC.String(v)
			}
			slices.Sort(enum)
			enum = slices.Compact(enum)
			values := make([]any, len(enum))
			for i, v := range enum {
				values[i] = v
			}
			obj["enum"] = values
		}
		return obj, nil
	case Bool:
		return map[string]any{"kind": "bool"}, nil
	case Null:
		return map[string]any{"kind": "null"}, nil
	case TableName:
		return map[string]any{"kind": "table_name", "name": x.Name}, nil
	case Table:
		fields, err := canonicalFields(x.Lines.Fields)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": "table", "label": x.Lines.Label, "fields": fields}, nil
	case nil:
		return nil, fmt.Errorf("canonical: nil type")
	}
	return nil, fmt.Errorf("canonical: unsupported type %T", t)
}

func canonicalFields(r Record) ([]any, error) {
	fields := make([]any, 0, len(r))
	for _, s := range r.Symbols() {
		ft, err := canonicalTree(r[s])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", s, err)
		}
		field := map[string]any{"name": s.Name, "type": ft}
		if s.Qualifier != "" {
			field["qualifier"] = s.Qualifier
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func withDomain[T interface{ ~int64 | ~uint64 | ~float64 }](kind string, d *Domain[T], bound func(T) any) map[string]any {
	obj := map[string]any{"kind": kind}
	if d == nil {
		return obj
	}
	if d.Kind == ValueDomain {
		obj["domain"] = map[string]any{"kind": "value", "value": bound(d.Low)}
	} else {
		obj["domain"] = map[string]any{"kind": "range", "low": bound(d.Low), "high": bound(d.High)}
	}
	return obj
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		return writeCanonicalString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonical: unsupported value %T", v)
	}
	return nil
}

// writeCanonicalString writes s NFC normalized. Only control characters,
// backslash and quote are escaped.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	// encoding/json escapes U+2028 and U+2029; canonical JSON does not.
	out = unescapeLineSeparators(out)
	buf.Write(out)
	return nil
}

func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && data[i+1] == '\\' {
			out = append(out, '\\', '\\')
			i++
			continue
		}
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// compareKeysRFC8785 orders strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
