package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rae/internal/plan"
	"github.com/roach88/rae/internal/querysql"
	"github.com/roach88/rae/internal/typesys"
)

// CompileReport is the plan or SQL rendering of one query.
type CompileReport struct {
	Name   string    `json:"name"`
	Plan   string    `json:"plan,omitempty"`
	SQL    string    `json:"sql,omitempty"`
	Params []any     `json:"params,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CompileResult holds the renderings of every query of a document.
type CompileResult struct {
	Queries []CompileReport `json:"queries"`
	Failed  int             `json:"failed"`
}

// renderer turns a lowered plan into a report.
type renderer func(p plan.Plan, report *CompileReport) error

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <queries.yaml>",
		Short: "Print the logical plan of each query",
		Long: `Type check every query and print its logical plan, one operator per
line with the schema it produces.

Examples:
  rae plan queries.yaml --catalog schema.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd, func(p plan.Plan, r *CompileReport) error {
				r.Plan = plan.Format(p)
				return nil
			})
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <queries.yaml>",
		Short: "Compile each query to SQLite SQL",
		Long: `Type check every query and compile it to a parameterized SQLite
SELECT statement with a deterministic ORDER BY.

Operators without a SQL form, such as division and natural join, are
reported as NOT_IMPLEMENTED.

Examples:
  rae sql queries.yaml --catalog schema.cue
  rae sql queries.yaml --catalog app.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			compiler := querysql.NewSQLCompiler()
			return runCompile(opts, args[0], cmd, func(p plan.Plan, r *CompileReport) error {
				var err error
				r.SQL, r.Params, err = compiler.CompilePlan(p)
				return err
			})
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

func runCompile(opts *QueryOptions, queriesPath string, cmd *cobra.Command, render renderer) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts, queriesPath, cmd)
	if err != nil {
		return err
	}
	formatter := s.formatter

	result := CompileResult{Queries: make([]CompileReport, 0, len(s.queries))}
	for _, o := range s.checker.CheckAll(ctx, s.queries, opts.Workers) {
		report := CompileReport{Name: o.Query.Name}
		err := o.Err
		if err == nil {
			var p plan.Plan
			if p, err = plan.Lower(o.Query.Root, o.Result); err == nil {
				err = render(p, &report)
			}
		}
		if err != nil {
			report = CompileReport{Name: o.Query.Name, Error: errorReport(err)}
			result.Failed++
		}
		result.Queries = append(result.Queries, report)
	}

	if formatter.Format == "json" {
		if result.Failed > 0 {
			msg := fmt.Sprintf("%d of %d queries failed", result.Failed, len(result.Queries))
			if err := formatter.Failure(ErrCodeCheckFailed, msg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	for i, q := range result.Queries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "-- %s\n", q.Name)
		switch {
		case q.Error != nil:
			fmt.Fprintf(w, "error: %s\n", q.Error.Message)
		case q.Plan != "":
			fmt.Fprintln(w, strings.TrimRight(q.Plan, "\n"))
		default:
			fmt.Fprintln(w, q.SQL)
			if len(q.Params) > 0 {
				fmt.Fprintf(w, "-- params: %v\n", q.Params)
			}
		}
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries failed", result.Failed, len(result.Queries)))
	}
	return nil
}

func errorReport(err error) *CLIError {
	code := ErrCodeGeneric
	if c, ok := typesys.CodeOf(err); ok {
		code = string(c)
	}
	return &CLIError{Code: code, Message: err.Error()}
}
