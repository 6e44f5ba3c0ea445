package infer

import (
	"errors"
	"log/slog"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/typesys"
)

// DefaultMaxDepth is the default bound on expression nesting. Inference
// recurses once per level, so the bound keeps adversarial input from
// exhausting the stack.
const DefaultMaxDepth = 512

// Checker infers output schemas of algebra expressions against one Env.
//
// A Checker holds no mutable state: Check may be called from any number of
// goroutines at once.
type Checker struct {
	env      *typesys.Env
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithMaxDepth sets the maximum expression nesting depth.
//
// Default: 512 (DefaultMaxDepth)
func WithMaxDepth(depth int) Option {
	return func(c *Checker) {
		c.maxDepth = depth
	}
}

// WithLogger sets the logger for per-query debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker over env.
func New(env *typesys.Env, opts ...Option) *Checker {
	c := &Checker{
		env:      env,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Env returns the environment the Checker resolves tables in.
func (c *Checker) Env() *typesys.Env {
	return c.env
}

// Result is a successful inference.
type Result struct {
	// Lines is the output schema of the root expression.
	Lines typesys.Lines

	// Schemas holds the output schema of every node visited, including
	// the root and subqueries of In comparisons.
	Schemas map[algebra.Node]typesys.Lines
}

// Type returns the output schema as a Table.
func (r *Result) Type() typesys.Type {
	return typesys.Table{Lines: r.Lines}
}

// Infer computes the output schema of n over env with default options.
// The error, if any, is a *typesys.LocatedError.
func Infer(n algebra.Node, env *typesys.Env) (typesys.Type, error) {
	return New(env).Infer(n)
}

// Infer computes the output schema of n as a typesys.Table.
func (c *Checker) Infer(n algebra.Node) (typesys.Type, error) {
	res, err := c.Check(n)
	if err != nil {
		return nil, err
	}
	return res.Type(), nil
}

// Check computes the output schema of n and of every subexpression.
//
// Children are inferred depth-first, left before right, and the first error
// aborts the pass, so the reported error is always the left-most failing
// subexpression.
func (c *Checker) Check(n algebra.Node) (*Result, error) {
	p := &pass{
		checker: c,
		schemas: make(map[algebra.Node]typesys.Lines),
	}
	lines, err := p.infer(n)
	if err != nil {
		c.logger.Debug("inference failed", "error", err)
		return nil, err
	}
	c.logger.Debug("inferred schema", "label", lines.Label, "fields", len(lines.Fields))
	return &Result{Lines: lines, Schemas: p.schemas}, nil
}

// pass is the state of one inference call.
type pass struct {
	checker *Checker
	depth   int
	schemas map[algebra.Node]typesys.Lines
}

// enter increments the nesting depth; callers must defer leave.
func (p *pass) enter(pos typesys.Pos) error {
	p.depth++
	if p.depth > p.checker.maxDepth {
		return typesys.At(pos, typesys.NewExpressionTooDeep(p.checker.maxDepth))
	}
	return nil
}

func (p *pass) leave() {
	p.depth--
}

func (p *pass) infer(n algebra.Node) (typesys.Lines, error) {
	if n == nil {
		return typesys.Lines{}, typesys.At(typesys.Pos{}, typesys.NewNotImplemented("empty expression"))
	}
	if err := p.enter(n.Position()); err != nil {
		return typesys.Lines{}, err
	}
	defer p.leave()

	lines, err := p.inferNode(n)
	if err != nil {
		return typesys.Lines{}, locate(n.Position(), err)
	}
	p.schemas[n] = lines
	return lines, nil
}

func (p *pass) inferNode(n algebra.Node) (typesys.Lines, error) {
	switch n := n.(type) {
	case *algebra.Table:
		lines, ok := p.checker.env.Table(n.Name)
		if !ok {
			return typesys.Lines{}, typesys.NewTableNotFound(n.Name)
		}
		return lines, nil

	case *algebra.CrossProduct:
		l, r, err := p.inferPair(n.Left, n.Right)
		if err != nil {
			return typesys.Lines{}, err
		}
		return merge(l, r, "*")

	case *algebra.Union:
		return p.inferSetOp(n.Left, n.Right)
	case *algebra.Difference:
		return p.inferSetOp(n.Left, n.Right)
	case *algebra.Intersect:
		return p.inferSetOp(n.Left, n.Right)

	case *algebra.Selection:
		from, err := p.infer(n.From)
		if err != nil {
			return typesys.Lines{}, err
		}
		if err := p.checkFilters(n.Filters, from.Fields); err != nil {
			return typesys.Lines{}, err
		}
		return from, nil

	case *algebra.Projection:
		from, err := p.infer(n.From)
		if err != nil {
			return typesys.Lines{}, err
		}
		return project(from, n.Fields)

	case *algebra.Division:
		l, r, err := p.inferPair(n.Left, n.Right)
		if err != nil {
			return typesys.Lines{}, err
		}
		return divide(l, r)

	case *algebra.Rename:
		from, err := p.infer(n.From)
		if err != nil {
			return typesys.Lines{}, err
		}
		return rename(from, n.Pairs)

	case *algebra.InnerJoin:
		l, r, err := p.inferPair(n.Left, n.Right)
		if err != nil {
			return typesys.Lines{}, err
		}
		merged, err := merge(l, r, "><")
		if err != nil {
			return typesys.Lines{}, err
		}
		if err := p.checkFilters(n.Filters, merged.Fields); err != nil {
			return typesys.Lines{}, err
		}
		return merged, nil

	case *algebra.EquiJoin:
		l, r, err := p.inferPair(n.Left, n.Right)
		if err != nil {
			return typesys.Lines{}, err
		}
		return equiJoin(l, r, n.Keys)

	case *algebra.NatureJoin:
		l, r, err := p.inferPair(n.Left, n.Right)
		if err != nil {
			return typesys.Lines{}, err
		}
		return natureJoin(l, r)

	case *algebra.LeftJoin:
		return p.unsupportedJoin(n, n.Left, n.Right)
	case *algebra.RightJoin:
		return p.unsupportedJoin(n, n.Left, n.Right)
	case *algebra.FullJoin:
		return p.unsupportedJoin(n, n.Left, n.Right)

	case *algebra.Reduce:
		from, err := p.infer(n.From)
		if err != nil {
			return typesys.Lines{}, err
		}
		return reduce(from, n.Kind, n.Field)
	}
	return typesys.Lines{}, typesys.NewNotImplemented(algebra.OperatorName(n))
}

// inferPair infers l then r.
func (p *pass) inferPair(l, r algebra.Node) (typesys.Lines, typesys.Lines, error) {
	left, err := p.infer(l)
	if err != nil {
		return typesys.Lines{}, typesys.Lines{}, err
	}
	right, err := p.infer(r)
	if err != nil {
		return typesys.Lines{}, typesys.Lines{}, err
	}
	return left, right, nil
}

// inferSetOp requires record-equal operands and yields the left schema.
func (p *pass) inferSetOp(l, r algebra.Node) (typesys.Lines, error) {
	left, right, err := p.inferPair(l, r)
	if err != nil {
		return typesys.Lines{}, err
	}
	if !left.Fields.Equal(right.Fields) {
		return typesys.Lines{}, typesys.NewSchemaMismatch(left.Fields, right.Fields)
	}
	return left, nil
}

// unsupportedJoin type checks both inputs so their errors surface first,
// then rejects the operator.
func (p *pass) unsupportedJoin(n, l, r algebra.Node) (typesys.Lines, error) {
	if _, _, err := p.inferPair(l, r); err != nil {
		return typesys.Lines{}, err
	}
	return typesys.Lines{}, typesys.NewNotImplemented(algebra.OperatorName(n))
}

// locate tags err with pos unless it already carries a position.
func locate(pos typesys.Pos, err error) error {
	var le *typesys.LocatedError
	if errors.As(err, &le) {
		return err
	}
	var te *typesys.TypeError
	if errors.As(err, &te) {
		return typesys.At(pos, te)
	}
	return err
}
