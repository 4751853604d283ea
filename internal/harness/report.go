package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MarshalReport renders a result as indented JSON with a trailing newline.
// SQL text is written as-is, without HTML escaping of <, > and &.
func MarshalReport(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteText writes a human-readable summary of a result.
func WriteText(w io.Writer, r *Result) error {
	for _, c := range r.Cases {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "%s  %s/%s\n", status, r.Suite, c.Name); err != nil {
			return err
		}
		for _, f := range c.Failures {
			if _, err := fmt.Fprintf(w, "      %s\n", f); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%s: %d passed, %d failed (run %s)\n", r.Suite, r.Passed, r.Failed, r.RunID)
	return err
}
