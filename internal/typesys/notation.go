package typesys

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Type notation, used by catalogs, the store and diagnostics:
//
//	int  uint[0..9]  int[5]  float[0.5..1]  string  string{"a", "b"}
//	bool  null  int?  {id: int, Dept.dept: string}  table(Employee)
//
// Symbols that are not plain identifiers are written quoted, e.g.
// "Employee*Dept".id. The unnamed symbol is written _.

func (o Optional) String() string {
	return o.Elem.String() + "?"
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range r.Symbols() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.String())
		b.WriteString(": ")
		b.WriteString(r[s].String())
	}
	b.WriteByte('}')
	return b.String()
}

func (i Int) String() string {
	return "int" + formatDomain(i.Domain, func(v int64) string { return strconv.FormatInt(v, 10) })
}

func (u Uint) String() string {
	return "uint" + formatDomain(u.Domain, func(v uint64) string { return strconv.FormatUint(v, 10) })
}

func (f Float) String() string {
	return "float" + formatDomain(f.Domain, func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) })
}

func (s String) String() string {
	if len(s.Enum) == 0 {
		return "string"
	}
	enum := slices.Clone(s.Enum)
	slices.Sort(enum)
	quoted := make([]string, len(enum))
	for i, v := range enum {
		quoted[i] = strconv.Quote(v)
	}
	return "string{" + strings.Join(quoted, ", ") + "}"
}

func (Bool) String() string { return "bool" }

func (Null) String() string { return "null" }

func (t TableName) String() string {
	return "table(" + formatIdent(t.Name) + ")"
}

func (t Table) String() string {
	return "table" + t.Lines.Fields.String()
}

// String renders the label followed by the fields.
func (l Lines) String() string {
	return formatIdent(l.Label) + " " + l.Fields.String()
}

func (s Symbol) String() string {
	if s.Qualifier == "" {
		return formatIdent(s.Name)
	}
	return formatIdent(s.Qualifier) + "." + formatIdent(s.Name)
}

func formatDomain[T cmp.Ordered](d *Domain[T], format func(T) string) string {
	if d == nil {
		return ""
	}
	if d.Kind == ValueDomain {
		return "[" + format(d.Low) + "]"
	}
	return "[" + format(d.Low) + ".." + format(d.High) + "]"
}

func formatIdent(s string) string {
	if s == "" {
		return "_"
	}
	if s != "_" && isIdent(s) {
		return s
	}
	return strconv.Quote(s)
}

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i], i == 0) {
			return false
		}
	}
	return s != ""
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case '0' <= c && c <= '9':
		return !first
	}
	return false
}

// NotationError reports a malformed type notation.
type NotationError struct {
	Input   string
	Offset  int
	Message string
}

func (e *NotationError) Error() string {
	return fmt.Sprintf("%q: offset %d: %s", e.Input, e.Offset, e.Message)
}

// ParseType parses the type notation in s.
func ParseType(s string) (Type, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

// ParseSymbol parses a field reference such as id, Dept.id or
// "Employee*Dept".id.
func ParseSymbol(s string) (Symbol, error) {
	p := &typeParser{src: s}
	sym, err := p.parseSymbol()
	if err != nil {
		return Symbol{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Symbol{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return sym, nil
}

// MustParseType is like ParseType but panics on error.
// Use only in tests or for literals known to be valid.
func MustParseType(s string) Type {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// MustParseRecord parses a record notation and panics if s is not one.
func MustParseRecord(s string) Record {
	r, ok := MustParseType(s).(Record)
	if !ok {
		panic(fmt.Sprintf("typesys: %q is not a record", s))
	}
	return r
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &NotationError{Input: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		return p.errorf("expected %q", tok)
	}
	return nil
}

func (p *typeParser) parseType() (Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.accept("?") {
		t = Optional{Elem: t}
	}
	return t, nil
}

func (p *typeParser) parsePrimary() (Type, error) {
	if p.peek() == '{' {
		return p.parseRecord()
	}
	start := p.pos
	word := p.readWord()
	switch word {
	case "int":
		d, err := parseDomain(p, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return nil, err
		}
		return Int{Domain: d}, nil
	case "uint":
		d, err := parseDomain(p, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
		if err != nil {
			return nil, err
		}
		return Uint{Domain: d}, nil
	case "float":
		d, err := parseDomain(p, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
		if err != nil {
			return nil, err
		}
		return Float{Domain: d}, nil
	case "string":
		if p.peek() != '{' {
			return String{}, nil
		}
		enum, err := p.parseEnum()
		if err != nil {
			return nil, err
		}
		return String{Enum: enum}, nil
	case "bool":
		return Bool{}, nil
	case "null":
		return Null{}, nil
	case "table":
		if p.accept("(") {
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return TableName{Name: name}, nil
		}
		r, err := p.parseRecord()
		if err != nil {
			return nil, err
		}
		return Table{Lines: Lines{Fields: r.(Record)}}, nil
	}
	p.pos = start
	return nil, p.errorf("unknown type %q", word)
}

func (p *typeParser) readWord() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// parseIdent reads a plain or quoted identifier. A lone _ is the empty name.
func (p *typeParser) parseIdent() (string, error) {
	if p.peek() == '"' {
		return p.parseQuoted()
	}
	word := p.readWord()
	switch word {
	case "":
		return "", p.errorf("expected identifier")
	case "_":
		return "", nil
	}
	return word, nil
}

func (p *typeParser) parseQuoted() (string, error) {
	p.skipSpace()
	lit, err := strconv.QuotedPrefix(p.src[p.pos:])
	if err != nil {
		return "", p.errorf("malformed string literal")
	}
	p.pos += len(lit)
	return strconv.Unquote(lit)
}

func (p *typeParser) parseSymbol() (Symbol, error) {
	first, err := p.parseIdent()
	if err != nil {
		return Symbol{}, err
	}
	if !p.accept(".") {
		return Sym(first), nil
	}
	name, err := p.parseIdent()
	if err != nil {
		return Symbol{}, err
	}
	return QSym(first, name), nil
}

func (p *typeParser) parseRecord() (Type, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	r := Record{}
	if p.accept("}") {
		return r, nil
	}
	for {
		s, err := p.parseSymbol()
		if err != nil {
			return nil, err
		}
		if r.Has(s) {
			return nil, p.errorf("duplicate field %s", s)
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		r[s] = t
		if p.accept("}") {
			return r, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *typeParser) parseEnum() ([]string, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var enum []string
	for {
		v, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		if !slices.Contains(enum, v) {
			enum = append(enum, v)
		}
		if p.accept("}") {
			return enum, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

// parseNumber returns the text of a decimal number literal.
func (p *typeParser) parseNumber() (string, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	digits := p.skipDigits()
	if p.pos+1 < len(p.src) && p.src[p.pos] == '.' && isDigit(p.src[p.pos+1]) {
		p.pos++
		digits += p.skipDigits()
	}
	if digits == 0 {
		p.pos = start
		return "", p.errorf("expected number")
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
			p.pos++
		}
		if p.skipDigits() == 0 {
			return "", p.errorf("malformed exponent")
		}
	}
	return p.src[start:p.pos], nil
}

func (p *typeParser) skipDigits() int {
	n := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
		n++
	}
	return n
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func parseDomain[T cmp.Ordered](p *typeParser, conv func(string) (T, error)) (*Domain[T], error) {
	if !p.accept("[") {
		return nil, nil
	}
	lo, err := parseBound(p, conv)
	if err != nil {
		return nil, err
	}
	if p.accept("..") {
		hi, err := parseBound(p, conv)
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, p.errorf("empty range")
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return Range(lo, hi), nil
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return Value(lo), nil
}

func parseBound[T cmp.Ordered](p *typeParser, conv func(string) (T, error)) (T, error) {
	var zero T
	text, err := p.parseNumber()
	if err != nil {
		return zero, err
	}
	v, err := conv(text)
	if err != nil {
		return zero, p.errorf("invalid bound %q", text)
	}
	return v, nil
}
