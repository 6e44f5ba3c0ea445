package algebra

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rae/internal/typesys"
)

// DecodeError reports a malformed query document.
type DecodeError struct {
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// DecodeQueries decodes a query document:
//
//	queries:
//	  - name: staff_by_dept
//	    query:
//	      equijoin:
//	        left: {table: Employee}
//	        right: {table: Dept}
//	        keys: [dept]
//
// Every node carries the offset, line and column of its operator key.
// Aliases are rejected.
func DecodeQueries(data []byte) ([]Query, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse query document: %w", err)
	}
	if err := rejectAliases(&doc); err != nil {
		return nil, err
	}
	d := newDecoder(data)
	root := resolve(&doc)
	if root == nil {
		return nil, &DecodeError{Line: 1, Column: 1, Message: "empty query document"}
	}
	fields, err := d.mappingFields(root, "queries")
	if err != nil {
		return nil, err
	}
	seq, ok := fields["queries"]
	if !ok || seq.Kind != yaml.SequenceNode {
		return nil, d.errorf(root, "queries must be a sequence")
	}

	queries := make([]Query, 0, len(seq.Content))
	seen := make(map[string]bool)
	for _, item := range seq.Content {
		q, err := d.decodeQuery(item)
		if err != nil {
			return nil, err
		}
		if seen[q.Name] {
			return nil, d.errorf(item, "duplicate query name %q", q.Name)
		}
		seen[q.Name] = true
		queries = append(queries, q)
	}
	return queries, nil
}

func (d *decoder) decodeQuery(n *yaml.Node) (Query, error) {
	fields, err := d.mappingFields(n, "name", "query")
	if err != nil {
		return Query{}, err
	}
	name, ok := fields["name"]
	if !ok || name.Kind != yaml.ScalarNode || name.Value == "" {
		return Query{}, d.errorf(n, "query requires a name")
	}
	body, ok := fields["query"]
	if !ok {
		return Query{}, d.errorf(n, "query %q has no body", name.Value)
	}
	root, err := d.decodeNode(body)
	if err != nil {
		return Query{}, err
	}
	return Query{Name: name.Value, Root: root}, nil
}

// DecodeNode decodes a document holding a single expression.
func DecodeNode(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse expression: %w", err)
	}
	return FromYAMLSource(&doc, data)
}

// FromYAML decodes an expression from a parsed YAML node. Positions carry
// line and column only; use FromYAMLSource to also fill in byte offsets.
func FromYAML(n *yaml.Node) (Node, error) {
	return FromYAMLSource(n, nil)
}

// FromYAMLSource decodes an expression from a node parsed out of src.
func FromYAMLSource(n *yaml.Node, src []byte) (Node, error) {
	if err := rejectAliases(n); err != nil {
		return nil, err
	}
	n = resolve(n)
	if n == nil {
		return nil, &DecodeError{Line: 1, Column: 1, Message: "empty expression"}
	}
	return newDecoder(src).decodeNode(n)
}

func (d *decoder) decodeNode(n *yaml.Node) (Node, error) {
	op, arg, err := d.operator(n)
	if err != nil {
		return nil, err
	}
	p := d.pos(n)

	switch op {
	case "table":
		if arg.Kind != yaml.ScalarNode || arg.Value == "" {
			return nil, d.errorf(arg, "table requires a name")
		}
		return &Table{Pos: p, Name: arg.Value}, nil

	case "cross", "union", "difference", "intersect", "division",
		"naturejoin", "leftjoin", "rightjoin", "fulljoin":
		l, r, err := d.decodeOperands(arg)
		if err != nil {
			return nil, err
		}
		return binaryNode(op, p, l, r), nil

	case "selection":
		fields, err := d.mappingFields(arg, "from", "where")
		if err != nil {
			return nil, err
		}
		from, err := d.requiredNode(arg, fields, "from")
		if err != nil {
			return nil, err
		}
		filters, err := d.decodeFilters(fields["where"])
		if err != nil {
			return nil, err
		}
		return &Selection{Pos: p, From: from, Filters: filters}, nil

	case "projection":
		fields, err := d.mappingFields(arg, "from", "fields")
		if err != nil {
			return nil, err
		}
		from, err := d.requiredNode(arg, fields, "from")
		if err != nil {
			return nil, err
		}
		syms, err := d.decodeSymbols(arg, fields["fields"])
		if err != nil {
			return nil, err
		}
		return &Projection{Pos: p, From: from, Fields: syms}, nil

	case "rename":
		fields, err := d.mappingFields(arg, "from", "pairs")
		if err != nil {
			return nil, err
		}
		from, err := d.requiredNode(arg, fields, "from")
		if err != nil {
			return nil, err
		}
		pairs, err := d.decodeRenamePairs(arg, fields["pairs"])
		if err != nil {
			return nil, err
		}
		return &Rename{Pos: p, From: from, Pairs: pairs}, nil

	case "innerjoin":
		fields, err := d.mappingFields(arg, "left", "right", "on")
		if err != nil {
			return nil, err
		}
		l, r, err := d.requiredSides(arg, fields)
		if err != nil {
			return nil, err
		}
		filters, err := d.decodeFilters(fields["on"])
		if err != nil {
			return nil, err
		}
		return &InnerJoin{Pos: p, Left: l, Right: r, Filters: filters}, nil

	case "equijoin":
		fields, err := d.mappingFields(arg, "left", "right", "keys")
		if err != nil {
			return nil, err
		}
		l, r, err := d.requiredSides(arg, fields)
		if err != nil {
			return nil, err
		}
		keys, err := d.decodeKeys(arg, fields["keys"])
		if err != nil {
			return nil, err
		}
		return &EquiJoin{Pos: p, Left: l, Right: r, Keys: keys}, nil

	case "count":
		from, err := d.decodeNode(arg)
		if err != nil {
			return nil, err
		}
		return &Reduce{Pos: p, Kind: Count, From: from}, nil

	case "sum", "avg", "max", "min":
		fields, err := d.mappingFields(arg, "from", "field")
		if err != nil {
			return nil, err
		}
		from, err := d.requiredNode(arg, fields, "from")
		if err != nil {
			return nil, err
		}
		fn, ok := fields["field"]
		if !ok {
			return nil, d.errorf(arg, "%s requires a field", op)
		}
		sym, err := d.decodeSymbol(fn)
		if err != nil {
			return nil, err
		}
		kind := Sum
		switch op {
		case "avg":
			kind = Avg
		case "max":
			kind = Max
		case "min":
			kind = Min
		}
		return &Reduce{Pos: p, Kind: kind, From: from, Field: sym}, nil
	}
	return nil, d.errorf(n, "unknown operator %q", op)
}

func binaryNode(op string, p typesys.Pos, l, r Node) Node {
	switch op {
	case "cross":
		return &CrossProduct{Pos: p, Left: l, Right: r}
	case "union":
		return &Union{Pos: p, Left: l, Right: r}
	case "difference":
		return &Difference{Pos: p, Left: l, Right: r}
	case "intersect":
		return &Intersect{Pos: p, Left: l, Right: r}
	case "division":
		return &Division{Pos: p, Left: l, Right: r}
	case "naturejoin":
		return &NatureJoin{Pos: p, Left: l, Right: r}
	case "leftjoin":
		return &LeftJoin{Pos: p, Left: l, Right: r}
	case "rightjoin":
		return &RightJoin{Pos: p, Left: l, Right: r}
	}
	return &FullJoin{Pos: p, Left: l, Right: r}
}

// decodeOperands accepts [l, r] or {left: l, right: r}.
func (d *decoder) decodeOperands(n *yaml.Node) (Node, Node, error) {
	if n.Kind == yaml.MappingNode {
		fields, err := d.mappingFields(n, "left", "right")
		if err != nil {
			return nil, nil, err
		}
		return d.requiredSides(n, fields)
	}
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return nil, nil, d.errorf(n, "expected two operands")
	}
	l, err := d.decodeNode(n.Content[0])
	if err != nil {
		return nil, nil, err
	}
	r, err := d.decodeNode(n.Content[1])
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (d *decoder) requiredNode(parent *yaml.Node, fields map[string]*yaml.Node, key string) (Node, error) {
	n, ok := fields[key]
	if !ok {
		return nil, d.errorf(parent, "missing %q", key)
	}
	return d.decodeNode(n)
}

func (d *decoder) requiredSides(parent *yaml.Node, fields map[string]*yaml.Node) (Node, Node, error) {
	l, err := d.requiredNode(parent, fields, "left")
	if err != nil {
		return nil, nil, err
	}
	r, err := d.requiredNode(parent, fields, "right")
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (d *decoder) decodeSymbols(parent, n *yaml.Node) ([]typesys.Symbol, error) {
	if n == nil {
		return nil, d.errorf(parent, "missing %q", "fields")
	}
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		items = n.Content
	}
	syms := make([]typesys.Symbol, 0, len(items))
	for _, item := range items {
		s, err := d.decodeSymbol(item)
		if err != nil {
			return nil, err
		}
		syms = append(syms, s)
	}
	return syms, nil
}

func (d *decoder) decodeSymbol(n *yaml.Node) (typesys.Symbol, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return typesys.Symbol{}, d.errorf(n, "expected a field name")
	}
	s, err := typesys.ParseSymbol(n.Value)
	if err != nil {
		return typesys.Symbol{}, d.errorf(n, "invalid field name %q", n.Value)
	}
	return s, nil
}

func (d *decoder) decodeKeys(parent, n *yaml.Node) ([]string, error) {
	if n == nil {
		return nil, d.errorf(parent, "missing %q", "keys")
	}
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		items = n.Content
	}
	if len(items) == 0 {
		return nil, d.errorf(n, "equijoin requires at least one key")
	}
	keys := make([]string, 0, len(items))
	for _, item := range items {
		item = resolve(item)
		if item.Kind != yaml.ScalarNode || item.Value == "" {
			return nil, d.errorf(item, "expected a key name")
		}
		keys = append(keys, item.Value)
	}
	return keys, nil
}

func (d *decoder) decodeRenamePairs(parent, n *yaml.Node) ([]RenamePair, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, d.errorf(parent, "rename requires a pairs mapping")
	}
	pairs := make([]RenamePair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		oldSym, err := d.decodeSymbol(n.Content[i])
		if err != nil {
			return nil, err
		}
		newSym, err := d.decodeSymbol(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, RenamePair{Old: oldSym, New: newSym})
	}
	return pairs, nil
}

func (d *decoder) decodeFilters(n *yaml.Node) ([]Filter, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		items = n.Content
	}
	filters := make([]Filter, 0, len(items))
	for _, item := range items {
		f, err := d.decodeFilter(item)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (d *decoder) decodeFilter(n *yaml.Node) (Filter, error) {
	n = resolve(n)
	p := d.pos(n)
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "first":
			return &GetFirst{Pos: p}, nil
		case "last":
			return &GetLast{Pos: p}, nil
		}
		return nil, d.errorf(n, "unknown filter %q", n.Value)
	}

	op, arg, err := d.operator(n)
	if err != nil {
		return nil, err
	}
	switch op {
	case "and", "or":
		if arg.Kind != yaml.SequenceNode {
			return nil, d.errorf(arg, "%s requires a list of comparisons", op)
		}
		comps := make([]Comp, 0, len(arg.Content))
		for _, item := range arg.Content {
			c, err := d.decodeComp(item)
			if err != nil {
				return nil, err
			}
			comps = append(comps, c)
		}
		if op == "and" {
			return &And{Pos: p, Comps: comps}, nil
		}
		return &Or{Pos: p, Comps: comps}, nil
	case "not":
		c, err := d.decodeComp(arg)
		if err != nil {
			return nil, err
		}
		return &Not{Pos: p, Comp: c}, nil
	case "range":
		if arg.Kind != yaml.SequenceNode || len(arg.Content) != 2 {
			return nil, d.errorf(arg, "range requires [low, high]")
		}
		lo, err := d.decodeIndex(arg.Content[0])
		if err != nil {
			return nil, err
		}
		hi, err := d.decodeIndex(arg.Content[1])
		if err != nil {
			return nil, err
		}
		return &Range{Pos: p, Low: lo, High: hi}, nil
	case "item":
		i, err := d.decodeIndex(arg)
		if err != nil {
			return nil, err
		}
		return &GetItem{Pos: p, Index: i}, nil
	case "eq", "lt", "gt", "in":
		c, err := d.decodeComp(n)
		if err != nil {
			return nil, err
		}
		return &Compare{Pos: p, Comp: c}, nil
	}
	return nil, d.errorf(n, "unknown filter %q", op)
}

func (d *decoder) decodeIndex(n *yaml.Node) (uint64, error) {
	var i uint64
	if err := n.Decode(&i); err != nil {
		return 0, d.errorf(n, "expected a row index, got %q", n.Value)
	}
	return i, nil
}

func (d *decoder) decodeComp(n *yaml.Node) (Comp, error) {
	op, arg, err := d.operator(n)
	if err != nil {
		return nil, err
	}
	p := d.pos(n)
	switch op {
	case "eq", "lt", "gt":
		if arg.Kind != yaml.SequenceNode || len(arg.Content) != 2 {
			return nil, d.errorf(arg, "%s requires two operands", op)
		}
		l, err := d.decodeExpr(arg.Content[0])
		if err != nil {
			return nil, err
		}
		r, err := d.decodeExpr(arg.Content[1])
		if err != nil {
			return nil, err
		}
		switch op {
		case "eq":
			return &Eq{Pos: p, Left: l, Right: r}, nil
		case "lt":
			return &Lt{Pos: p, Left: l, Right: r}, nil
		}
		return &Gt{Pos: p, Left: l, Right: r}, nil
	case "in":
		fields, err := d.mappingFields(arg, "elem", "query")
		if err != nil {
			return nil, err
		}
		en, ok := fields["elem"]
		if !ok {
			return nil, d.errorf(arg, "in requires an elem")
		}
		elem, err := d.decodeExpr(en)
		if err != nil {
			return nil, err
		}
		q, err := d.requiredNode(arg, fields, "query")
		if err != nil {
			return nil, err
		}
		return &In{Pos: p, Elem: elem, Query: q}, nil
	}
	return nil, d.errorf(n, "unknown comparison %q", op)
}

var binaryOps = map[string]BinaryOp{
	"add": OpAdd, "sub": OpSub, "mul": OpMul, "div": OpDiv, "mod": OpMod,
	"and": OpAnd, "or": OpOr,
}

// decodeExpr decodes a scalar expression. Plain scalars are field references
// or typed literals; quoted scalars are string literals.
func (d *decoder) decodeExpr(n *yaml.Node) (Expr, error) {
	n = resolve(n)
	if n == nil {
		return nil, d.errorf(n, "missing expression")
	}
	p := d.pos(n)
	if n.Kind == yaml.ScalarNode {
		return d.decodeScalar(n)
	}

	op, arg, err := d.operator(n)
	if err != nil {
		return nil, err
	}
	if bop, ok := binaryOps[op]; ok {
		if arg.Kind != yaml.SequenceNode || len(arg.Content) != 2 {
			return nil, d.errorf(arg, "%s requires two operands", op)
		}
		l, err := d.decodeExpr(arg.Content[0])
		if err != nil {
			return nil, err
		}
		r, err := d.decodeExpr(arg.Content[1])
		if err != nil {
			return nil, err
		}
		return &Binary{Pos: p, Op: bop, Left: l, Right: r}, nil
	}
	switch op {
	case "not":
		operand, err := d.decodeExpr(arg)
		if err != nil {
			return nil, err
		}
		return &Negate{Pos: p, Operand: operand}, nil
	case "field":
		sym, err := d.decodeSymbol(arg)
		if err != nil {
			return nil, err
		}
		return &Field{Pos: p, Symbol: sym}, nil
	case "uint":
		var u uint64
		if err := arg.Decode(&u); err != nil {
			return nil, d.errorf(arg, "invalid uint literal %q", arg.Value)
		}
		return &Literal{Pos: p, Value: Uint(u)}, nil
	case "float":
		var f float64
		if err := arg.Decode(&f); err != nil {
			return nil, d.errorf(arg, "invalid float literal %q", arg.Value)
		}
		return &Literal{Pos: p, Value: Float(f)}, nil
	}
	return nil, d.errorf(n, "unknown expression %q", op)
}

func (d *decoder) decodeScalar(n *yaml.Node) (Expr, error) {
	p := d.pos(n)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		return &Literal{Pos: p, Value: String(n.Value)}, nil
	}
	switch n.ShortTag() {
	case "!!null":
		return &Literal{Pos: p, Value: Null{}}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "invalid bool literal %q", n.Value)
		}
		return &Literal{Pos: p, Value: Bool(b)}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return &Literal{Pos: p, Value: Int(i)}, nil
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return nil, d.errorf(n, "integer literal %q out of range", n.Value)
		}
		return &Literal{Pos: p, Value: Uint(u)}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, d.errorf(n, "invalid float literal %q", n.Value)
		}
		return &Literal{Pos: p, Value: Float(f)}, nil
	case "!!str":
		if n.Style&yaml.TaggedStyle != 0 {
			return &Literal{Pos: p, Value: String(n.Value)}, nil
		}
		sym, err := typesys.ParseSymbol(n.Value)
		if err != nil {
			return nil, d.errorf(n, "invalid field reference %q", n.Value)
		}
		return &Field{Pos: p, Symbol: sym}, nil
	}
	return nil, d.errorf(n, "unsupported literal %q", n.Value)
}

// operator returns the single key of an operator mapping and its argument.
func (d *decoder) operator(n *yaml.Node) (string, *yaml.Node, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, d.errorf(n, "expected a single-key operator mapping")
	}
	arg := resolve(n.Content[1])
	if arg == nil {
		return "", nil, d.errorf(n.Content[1], "operator %q has no argument", n.Content[0].Value)
	}
	return n.Content[0].Value, arg, nil
}

// mappingFields indexes a mapping by key, rejecting unknown or repeated keys.
func (d *decoder) mappingFields(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping with keys %v", allowed)
	}
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return nil, d.errorf(key, "unknown key %q", key.Value)
		}
		if _, dup := fields[key.Value]; dup {
			return nil, d.errorf(key, "duplicate key %q", key.Value)
		}
		fields[key.Value] = resolve(n.Content[i+1])
	}
	return fields, nil
}

// resolve unwraps document nodes. It returns nil for an empty document.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case 0:
			return nil
		default:
			return n
		}
	}
	return nil
}

// rejectAliases fails on the first alias under n.
func rejectAliases(n *yaml.Node) error {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode {
		return &DecodeError{Line: n.Line, Column: n.Column, Message: "aliases are not supported"}
	}
	for _, c := range n.Content {
		if err := rejectAliases(c); err != nil {
			return err
		}
	}
	return nil
}

// decoder turns YAML nodes into algebra nodes. When the source text is
// known, positions also carry byte offsets.
type decoder struct {
	src        []byte
	lineStarts []int
}

func newDecoder(src []byte) *decoder {
	d := &decoder{src: src}
	if src == nil {
		return d
	}
	d.lineStarts = []int{0}
	for i, b := range src {
		if b == '\n' {
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
	return d
}

// offset maps a 1-based line and character column to a byte offset.
func (d *decoder) offset(line, column int) int {
	if line < 1 || line > len(d.lineStarts) {
		return 0
	}
	off := d.lineStarts[line-1]
	for c := 1; c < column && off < len(d.src) && d.src[off] != '\n'; c++ {
		_, size := utf8.DecodeRune(d.src[off:])
		off += size
	}
	return off
}

func (d *decoder) pos(n *yaml.Node) typesys.Pos {
	if n == nil {
		return typesys.Pos{}
	}
	return typesys.Pos{Offset: d.offset(n.Line, n.Column), Line: n.Line, Column: n.Column}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	p := d.pos(n)
	return &DecodeError{Line: p.Line, Column: p.Column, Message: fmt.Sprintf(format, args...)}
}
