package harness

import (
	"fmt"

	"github.com/roach88/sexpsql/internal/querysql"
	"github.com/roach88/sexpsql/internal/store"
)

// AssertionError is returned when a case check fails.
type AssertionError struct {
	Check    string // "sql", "error", "rows" or "execute"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Check, e.Expected, e.Actual)
}

// assertError checks the outcome of compiling and filling against the
// expected error kind. An empty want means no error is expected.
func assertError(want string, err error) error {
	switch {
	case want == "" && err == nil:
		return nil
	case want == "":
		return &AssertionError{Check: "error", Expected: "no error", Actual: err.Error()}
	case err == nil:
		return &AssertionError{Check: "error", Expected: want, Actual: "no error"}
	}

	if got := querysql.KindOf(err); string(got) != want {
		actual := err.Error()
		if got != "" {
			actual = string(got)
		}
		return &AssertionError{Check: "error", Expected: want, Actual: actual}
	}
	return nil
}

// assertSQL checks the filled statement. An empty want skips the check.
func assertSQL(want, got string) error {
	if want == "" || want == got {
		return nil
	}
	return &AssertionError{Check: "sql", Expected: fmt.Sprintf("%q", want), Actual: fmt.Sprintf("%q", got)}
}

// assertRows checks the row count. A nil want skips the check.
func assertRows(want *int64, got int64) error {
	if want == nil || *want == got {
		return nil
	}
	return &AssertionError{Check: "rows", Expected: fmt.Sprint(*want), Actual: fmt.Sprint(got)}
}

// rowCount is the number of rows a statement returned, or affected if it
// returned none.
func rowCount(res *store.Result) int64 {
	if res.Columns != nil {
		return int64(len(res.Rows))
	}
	return res.RowsAffected
}
