package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/sexpsql/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	DB    string // database path
	RunID string // run ID the statement is logged under
}

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	SQL    string        `json:"sql"`
	Result *store.Result `json:"result"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <expr> [arg...]",
		Short: "Fill a statement and run it on SQLite",
		Long: `Compile and fill a statement, then run it on a SQLite database.

Statements that return rows print them; other statements print the number
of rows affected. Every statement that runs is appended to the database's
execution log under the run ID.

Examples:
  sexpsql exec --db app.db '[:create-table $i1 $S2]' people '[(id integer :primary-key) name]'
  sexpsql exec --db app.db '[:select * :from people :where (in id $v1)]' '[1 2 3]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run ID for the execution log (default: random UUID)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExec(ctx context.Context, opts *ExecOptions, src string, argSrcs []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	sql, err := opts.prepare(src, argSrcs)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	opts.logger.Debug("executing statement", "run_id", runID, "sql", sql)
	res, err := st.Run(ctx, runID, sql)
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), map[string]string{"sql": sql})
		return WrapExitError(ExitFailure, "statement failed", err)
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithRun(ExecResult{SQL: sql, Result: res}, runID)
	}
	return writeResultText(formatter.Writer, res)
}

// writeResultText prints rows as a tab-aligned table, or the affected row
// count for statements that return none.
func writeResultText(w io.Writer, res *store.Result) error {
	if res.Columns == nil {
		_, err := fmt.Fprintf(w, "%d row(s) affected\n", res.RowsAffected)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d row(s))\n", len(res.Rows))
	return err
}
