package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/querysql"
	"github.com/roach88/sexpsql/internal/testutil"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// run prepares src with args and executes it under runID.
func run(t *testing.T, s *Store, runID, src string, args ...any) *Result {
	t.Helper()
	stmt, err := querysql.Prepare(testutil.Expr(t, src), args...)
	require.NoError(t, err)
	res, err := s.Run(context.Background(), runID, stmt)
	require.NoError(t, err, stmt)
	return res
}

func TestRun_CompiledStatements(t *testing.T) {
	s := openMemory(t)
	const runID = "run-1"

	run(t, s, runID, `[:create-table $i1 $S2]`,
		ir.Sym("people"),
		testutil.Expr(t, `[(id integer :primary-key) (name object :not-null) (age integer)]`))

	res := run(t, s, runID, `[:insert :into people [id name age] :values $v1]`,
		[][]any{{1, "Alice", 30}, {2, "Bob", 45}, {3, "O'Hara", 60}})
	assert.Equal(t, int64(3), res.RowsAffected)

	res = run(t, s, runID, `[:select [name] :from people :where (<= $s1 age $s2) :order-by [id]]`, 40, 65)
	assert.Equal(t, []string{"name"}, res.Columns)
	assert.Equal(t, [][]any{{"Bob"}, {"O'Hara"}}, res.Rows)

	res = run(t, s, runID, `[:select [(funcall count *)] :from people]`)
	assert.Equal(t, [][]any{{int64(3)}}, res.Rows)

	res = run(t, s, runID, `[:update people :set (= name $s1) :where (= id $s2)]`, "50% Alice", 1)
	assert.Equal(t, int64(1), res.RowsAffected)

	res = run(t, s, runID, `[:select [id] :from people :where (like name "50%")]`)
	assert.Equal(t, [][]any{{int64(1)}}, res.Rows)

	res = run(t, s, runID, `[:select [name] :from people :where (in id $v1) :order-by [id]]`, []int{1, 3})
	assert.Equal(t, [][]any{{"50% Alice"}, {"O'Hara"}}, res.Rows)

	res = run(t, s, runID, `[:delete :from people :where (> age $s1)]`, 50)
	assert.Equal(t, int64(1), res.RowsAffected)

	entries, err := s.Log(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, entries, 8)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, runID, e.RunID)
	}
	assert.Equal(t,
		"CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, age INTEGER)",
		entries[0].Statement)
	assert.Equal(t, int64(3), entries[1].RowsAffected)
}

func TestRun_EmptyResultSet(t *testing.T) {
	s := openMemory(t)

	run(t, s, "r", `[:create-table t ([(a integer)])]`)
	res := run(t, s, "r", `[:select * :from t]`)
	assert.Equal(t, []string{"a"}, res.Columns)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
}

func TestRun_InvalidSQLIsNotLogged(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.Run(ctx, "r", "SELECT * FROM missing")
	require.Error(t, err)
	_, err = s.Run(ctx, "r", "CREATE TABLE (")
	require.Error(t, err)

	entries, err := s.Log(ctx, "r")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLog_SeparatesRuns(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	run(t, s, "a", `[:create-table t ([(a integer)])]`)
	run(t, s, "b", `[:insert :into t [a] :values [1]]`)
	run(t, s, "a", `[:insert :into t [a] :values [2]]`)

	a, err := s.Log(ctx, "a")
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Less(t, a[0].Seq, a[1].Seq)
	assert.Equal(t, "INSERT INTO t (a) VALUES (2)", a[1].Statement)

	b, err := s.Log(ctx, "b")
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, int64(2), b[0].Seq)

	none, err := s.Log(ctx, "c")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRun_CancelledContext(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, "r", "SELECT 1")
	assert.Error(t, err)
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT 1", true},
		{"select * from t", true},
		{"  WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"VALUES (1)", true},
		{"PRAGMA user_version", true},
		{"(SELECT 1)", true},
		{"INSERT INTO t (a) VALUES (1)", false},
		{"CREATE TABLE t (a)", false},
		{"DELETE FROM t", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, tt.want, returnsRows(tt.stmt))
		})
	}
}
