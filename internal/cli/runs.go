package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rae/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	SchemaID string // optional - list checks producing this schema
}

// RunReport describes one recorded run.
type RunReport struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	CatalogID string `json:"catalog_id"`
}

// CheckReport describes one recorded check.
type CheckReport struct {
	Seq       int64  `json:"seq"`
	Name      string `json:"name"`
	QueryID   string `json:"query_id"`
	Schema    string `json:"schema,omitempty"`
	SchemaID  string `json:"schema_id,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Inspect recorded check runs",
		Long: `List the runs recorded by "rae check --db", oldest first.

With a run ID, print the recorded outcome of every query of that run.
With --schema, list every recorded check that produced the schema with
that identity, across runs.

Examples:
  rae runs --db rae.db
  rae runs --db rae.db 0192f0c4-...
  rae runs --db rae.db --schema 5e1d...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.SchemaID, "schema", "", "list checks that produced this schema ID")

	return cmd
}

func runRuns(opts *RunsOptions, args []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if len(args) == 1 && opts.SchemaID != "" {
		return formatter.commandError(ErrCodeGeneric, fmt.Errorf("a run ID and --schema are mutually exclusive"))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.commandError(ErrCodeStore, fmt.Errorf("failed to open database: %w", err))
	}
	defer st.Close()

	var checks []store.Check
	switch {
	case len(args) == 1:
		checks, err = st.ReadChecks(ctx, args[0])
	case opts.SchemaID != "":
		checks, err = st.ChecksBySchema(ctx, opts.SchemaID)
	default:
		return listRuns(ctx, formatter, st)
	}
	if err != nil {
		return formatter.commandError(ErrCodeStore, err)
	}

	reports := make([]CheckReport, len(checks))
	for i, c := range checks {
		reports[i] = CheckReport(c)
	}
	if formatter.Format == "json" {
		return formatter.Success(reports)
	}
	w := formatter.Writer
	if len(reports) == 0 {
		fmt.Fprintln(w, "No checks found.")
		return nil
	}
	for _, c := range reports {
		if c.ErrorCode != "" {
			fmt.Fprintf(w, "%d \u2717 %s: %s\n", c.Seq, c.Name, c.Message)
		} else {
			fmt.Fprintf(w, "%d \u2713 %s: %s\n", c.Seq, c.Name, c.Schema)
		}
	}
	return nil
}

func listRuns(ctx context.Context, formatter *OutputFormatter, st *store.Store) error {
	runs, err := st.Runs(ctx)
	if err != nil {
		return formatter.commandError(ErrCodeStore, err)
	}

	reports := make([]RunReport, len(runs))
	for i, r := range runs {
		reports[i] = RunReport(r)
	}
	if formatter.Format == "json" {
		return formatter.Success(reports)
	}
	w := formatter.Writer
	if len(reports) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range reports {
		fmt.Fprintf(w, "%d %s catalog %s\n", r.Seq, r.ID, r.CatalogID)
	}
	return nil
}
