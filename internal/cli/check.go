package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rae/internal/algebra"
	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/store"
	"github.com/roach88/rae/internal/typesys"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	QueryOptions
	Database string // optional store recording the run
}

// QueryReport is the outcome of checking one query.
type QueryReport struct {
	Name     string    `json:"name"`
	QueryID  string    `json:"query_id"`
	Schema   string    `json:"schema,omitempty"`
	SchemaID string    `json:"schema_id,omitempty"`
	Error    *CLIError `json:"error,omitempty"`
	Warnings []string  `json:"warnings,omitempty"`
}

// CheckResult holds the outcome of a check run.
type CheckResult struct {
	RunID   string        `json:"run_id,omitempty"`
	Queries []QueryReport `json:"queries"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{QueryOptions: QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "check <queries.yaml>",
		Short: "Infer the output schema of each query",
		Long: `Type check every query of a query document against a catalog and
print each query's output schema, or the error that stopped it.

Queries are checked concurrently. With --db the catalog and the outcome
of every query are recorded as a run.

Exit codes:
  0 - All queries type checked
  1 - One or more queries failed
  2 - Command error (missing files, malformed catalog, etc.)

Examples:
  rae check queries.yaml --catalog schema.cue
  rae check queries.yaml --catalog ./catalog --workers 4
  rae check queries.yaml --catalog app.db --db rae.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, args[0], cmd)
		},
	}

	addQueryFlags(cmd, &opts.QueryOptions)
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, queriesPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, &opts.QueryOptions, queriesPath, cmd)
	if err != nil {
		return err
	}
	formatter := s.formatter

	outcomes := s.checker.CheckAll(ctx, s.queries, opts.Workers)

	result := CheckResult{Queries: make([]QueryReport, 0, len(outcomes))}
	for _, o := range outcomes {
		report := reportOutcome(o)
		if report.Error == nil {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Queries = append(result.Queries, report)
	}

	if opts.Database != "" {
		runID, err := recordRun(ctx, opts.Database, s, outcomes)
		if err != nil {
			return formatter.commandError(ErrCodeStore, err)
		}
		result.RunID = runID
		formatter.VerboseLog("Recorded run %s in %s", runID, opts.Database)
	}

	if formatter.Format == "json" {
		if result.Failed > 0 {
			if err := formatter.Failure(ErrCodeCheckFailed, failedMessage(result), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, failedMessage(result))
		}
		return formatter.Success(result)
	}
	return outputCheckText(formatter, result)
}

// reportOutcome converts a checker outcome into its report.
func reportOutcome(o infer.Outcome) QueryReport {
	report := QueryReport{
		Name:     o.Query.Name,
		QueryID:  algebra.QueryID(o.Query.Root),
		Warnings: algebra.Validate(o.Query.Root).Warnings,
	}
	if o.Err != nil {
		code := store.ErrCodeUnknown
		if c, ok := typesys.CodeOf(o.Err); ok {
			code = string(c)
		}
		report.Error = &CLIError{Code: code, Message: o.Err.Error()}
		return report
	}
	report.Schema = o.Result.Lines.String()
	report.SchemaID = typesys.MustSchemaID(o.Result.Type())
	return report
}

func recordRun(ctx context.Context, path string, s *session, outcomes []infer.Outcome) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	if err := st.SaveCatalog(ctx, s.catalog); err != nil {
		return "", err
	}
	return st.RecordRun(ctx, s.catalog, outcomes)
}

func failedMessage(result CheckResult) string {
	return fmt.Sprintf("%d of %d queries failed", result.Failed, len(result.Queries))
}

func outputCheckText(formatter *OutputFormatter, result CheckResult) error {
	w := formatter.Writer
	for _, q := range result.Queries {
		if q.Error != nil {
			fmt.Fprintf(w, "\u2717 %s: %s\n", q.Name, q.Error.Message)
		} else {
			fmt.Fprintf(w, "\u2713 %s: %s\n", q.Name, q.Schema)
		}
		if formatter.Verbose {
			for _, warning := range q.Warnings {
				fmt.Fprintf(w, "  warning: %s\n", warning)
			}
		}
	}
	fmt.Fprintln(w)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, len(result.Queries))

	if result.Failed > 0 {
		return NewExitError(ExitFailure, failedMessage(result))
	}
	return nil
}
