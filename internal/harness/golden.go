package harness

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render formats a scenario result as stable text for golden comparison.
// Schema IDs are left out; the schema notation determines them.
func Render(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, q := range result.Queries {
		fmt.Fprintf(&b, "\nquery %s\n", q.Name)
		if q.ErrorCode != "" {
			if q.Pos.IsValid() {
				fmt.Fprintf(&b, "  error: %s at %s\n", q.ErrorCode, q.Pos)
			} else {
				fmt.Fprintf(&b, "  error: %s\n", q.ErrorCode)
			}
			fmt.Fprintf(&b, "  message: %s\n", q.Message)
			continue
		}
		fmt.Fprintf(&b, "  schema: %s\n", q.Schema)
		if q.SQLError != "" {
			fmt.Fprintf(&b, "  sql error: %s\n", q.SQLError)
			continue
		}
		fmt.Fprintf(&b, "  sql: %s\n", q.SQL)
		if len(q.Params) > 0 {
			fmt.Fprintf(&b, "  params: %s\n", formatParams(q.Params))
		}
	}
	return []byte(b.String())
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case string:
			parts[i] = strconv.Quote(v)
		case nil:
			parts[i] = "NULL"
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RunWithGolden executes a scenario and compares the rendered result
// against a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if output doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Render(name, result))
}
