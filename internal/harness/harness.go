package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rae/internal/infer"
	"github.com/roach88/rae/internal/plan"
	"github.com/roach88/rae/internal/querysql"
	"github.com/roach88/rae/internal/store"
	"github.com/roach88/rae/internal/typesys"
)

// Harness is the scenario execution engine.
type Harness struct {
	store   *store.Store
	checker *infer.Checker
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the catalog and save it to the store
// 3. Check every query on the worker pool and record the run
// 4. Compile each successful query to SQL
// 5. Evaluate expectations against the recorded checks
//
// Run returns an error only when the scenario cannot be executed; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetRunIDGenerator(store.NewFixedGenerator(scenario.Name))

	cat, err := scenario.loadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := st.SaveCatalog(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}
	// Check against the stored catalog so the store round trip is part of
	// every scenario.
	cat, err = st.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reload catalog: %w", err)
	}

	queries, err := scenario.decodeQueries()
	if err != nil {
		return nil, fmt.Errorf("failed to decode queries: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	opts := []infer.Option{infer.WithLogger(logger)}
	if scenario.MaxDepth > 0 {
		opts = append(opts, infer.WithMaxDepth(scenario.MaxDepth))
	}
	h := &Harness{
		store:   st,
		checker: infer.New(cat.Env(), opts...),
		logger:  logger,
	}

	outcomes := h.checker.CheckAll(ctx, queries, 0)
	runID, err := st.RecordRun(ctx, cat, outcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	checks, err := st.ReadChecks(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read checks: %w", err)
	}
	if len(checks) != len(outcomes) {
		return nil, fmt.Errorf("recorded %d checks for %d queries", len(checks), len(outcomes))
	}

	result := NewResult()
	for i, o := range outcomes {
		check := checks[i]
		qr := QueryResult{
			Name:      check.Name,
			Schema:    check.Schema,
			SchemaID:  check.SchemaID,
			ErrorCode: check.ErrorCode,
			Message:   check.Message,
		}
		if o.Err != nil {
			qr.Pos, _ = typesys.PosOf(o.Err)
		} else {
			h.compileSQL(&qr, o)
		}
		result.Queries = append(result.Queries, qr)

		for _, msg := range checkExpect(qr, scenario.Queries[i].Expect) {
			result.AddError(fmt.Sprintf("%s: %s", qr.Name, msg))
		}
	}

	h.logger.Debug("scenario complete", "scenario", scenario.Name, "run_id", runID, "pass", result.Pass)
	return result, nil
}

// compileSQL lowers a checked query and renders it as SQL.
func (h *Harness) compileSQL(qr *QueryResult, o infer.Outcome) {
	p, err := plan.Lower(o.Query.Root, o.Result)
	if err == nil {
		qr.SQL, qr.Params, err = querysql.NewSQLCompiler().CompilePlan(p)
	}
	if err != nil {
		qr.SQL, qr.Params = "", nil
		qr.SQLError = err.Error()
	}
}
