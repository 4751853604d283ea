package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sexpsql/internal/querysql"
	"github.com/roach88/sexpsql/internal/reader"
)

// FillResult is the JSON payload of the fill command.
type FillResult struct {
	SQL string `json:"sql"`
}

// NewFillCommand creates the fill command.
func NewFillCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <expr> [arg...]",
		Short: "Compile a statement and fill it with arguments",
		Long: `Compile a statement and fill its placeholders with escaped arguments.

Each argument is itself an s-expression: a symbol for $i, any atom for $s,
a vector (or vector of vectors) for $v and a column list for $S.

Examples:
  sexpsql fill '[:select * :from $i1 :where (= name $s2)]' people '"O''Brien"'
  sexpsql fill '[:insert :into t [a b] :values $v1]' '[[1 2] [3 4]]'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(opts, args[0], args[1:], cmd)
		},
	}
}

func runFill(opts *RootOptions, src string, argSrcs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sql, err := opts.prepare(src, argSrcs)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(FillResult{SQL: sql})
	}
	_, err = fmt.Fprintln(formatter.Writer, sql)
	return err
}

// prepare reads, compiles and fills a statement.
func (o *RootOptions) prepare(src string, argSrcs []string) (string, error) {
	e, err := reader.Parse(src)
	if err != nil {
		return "", err
	}
	args, err := readArgs(argSrcs)
	if err != nil {
		return "", err
	}

	tmpl, err := o.compiler.CompileWith(o.TypeMap(), e)
	if err != nil {
		return "", err
	}
	return querysql.Fill(tmpl, args...)
}
