package store

import (
	"context"
	"fmt"
	"strings"
)

// Result is the outcome of running one statement.
type Result struct {
	// Columns and Rows are set for statements that return rows.
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`

	// RowsAffected is set for statements that modify data.
	RowsAffected int64 `json:"rows_affected"`
}

// LogEntry is one executed statement.
type LogEntry struct {
	RunID        string `json:"run_id"`
	Seq          int64  `json:"seq"`
	Statement    string `json:"statement"`
	RowsAffected int64  `json:"rows_affected"`
}

// Run executes statement and appends it to the log under runID.
//
// Statements starting with SELECT, WITH, VALUES or PRAGMA are run as
// queries and their rows are collected; anything else is executed for its
// effect.
func (s *Store) Run(ctx context.Context, runID, statement string) (*Result, error) {
	var (
		res *Result
		err error
	)
	if returnsRows(statement) {
		res, err = s.query(ctx, statement)
	} else {
		res, err = s.exec(ctx, statement)
	}
	if err != nil {
		return nil, err
	}

	if err := s.appendLog(ctx, runID, statement, res.RowsAffected); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) exec(ctx context.Context, statement string) (*Result, error) {
	r, err := s.db.ExecContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("exec %q: %w", statement, err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	return &Result{RowsAffected: n}, nil
}

func (s *Store) query(ctx context.Context, statement string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", statement, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	res := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}

func (s *Store) appendLog(ctx context.Context, runID, statement string, affected int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sexpsql_log (run_id, seq, statement, rows_affected)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM sexpsql_log), ?, ?)
	`, runID, statement, affected)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// Log returns the statements run under runID, oldest first.
// Returns an empty slice (not nil) if nothing ran.
func (s *Store) Log(ctx context.Context, runID string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, statement, rows_affected
		FROM sexpsql_log
		WHERE run_id = ?
		ORDER BY seq ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Statement, &e.RowsAffected); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

// returnsRows reports whether statement produces a result set.
func returnsRows(statement string) bool {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(strings.TrimLeft(fields[0], "(")) {
	case "SELECT", "WITH", "VALUES", "PRAGMA":
		return true
	}
	return false
}
