package harness

import (
	"fmt"
)

// checkExpect compares a query result with its expectation and returns
// one message per mismatch.
func checkExpect(qr QueryResult, e Expect) []string {
	var errs []string

	if e.Schema != "" {
		switch {
		case qr.ErrorCode != "":
			errs = append(errs, fmt.Sprintf("expected schema %s, got error %s", e.Schema, qr.Message))
		case qr.Schema != e.Schema:
			errs = append(errs, fmt.Sprintf("expected schema %s, got %s", e.Schema, qr.Schema))
		}
	}

	if e.Error != "" {
		switch {
		case qr.ErrorCode == "":
			errs = append(errs, fmt.Sprintf("expected error %s, got schema %s", e.Error, qr.Schema))
		case qr.ErrorCode != e.Error:
			errs = append(errs, fmt.Sprintf("expected error %s, got %s", e.Error, qr.Message))
		}
		if e.At != "" && qr.ErrorCode != "" {
			if got := qr.Pos.String(); got != e.At {
				errs = append(errs, fmt.Sprintf("expected error at %s, got %s", e.At, got))
			}
		}
	}

	if e.SQL != "" && qr.ErrorCode == "" {
		switch {
		case qr.SQLError != "":
			errs = append(errs, fmt.Sprintf("expected sql %s, got error %s", e.SQL, qr.SQLError))
		case qr.SQL != e.SQL:
			errs = append(errs, fmt.Sprintf("expected sql %s, got %s", e.SQL, qr.SQL))
		}
	}

	return errs
}
