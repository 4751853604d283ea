package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
	"github.com/roach88/sexpsql/internal/reader"
)

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Key      string            `json:"key"`
	Template *queryir.Template `json:"template"`
	Types    map[string]string `json:"types"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <expr>",
		Short: "Compile a statement to a SQL template",
		Long: `Compile an s-expression statement to a SQL template.

The template text holds one %s marker per placeholder; a literal percent
sign is written %%. Placeholders are listed in marker order.

Examples:
  sexpsql compile '[:select [name] :from people :where (= id $s1)]'
  sexpsql compile --format json '[:create-table $i1 $S2]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}
}

func runCompile(opts *RootOptions, src string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	e, err := reader.Parse(src)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	tm := opts.TypeMap()
	tmpl, err := opts.compiler.CompileWith(tm, e)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if formatter.Format == "json" {
		key, err := ir.TemplateKey(tm, e)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		return formatter.Success(CompileResult{Key: key, Template: tmpl, Types: tm})
	}

	w := formatter.Writer
	fmt.Fprintln(w, tmpl.Text())
	fmt.Fprintf(w, "params: %s\n", formatParams(tmpl.Params()))
	return nil
}

// formatParams renders placeholders in source form, e.g. "$i1 $s2".
func formatParams(params []queryir.Placeholder) string {
	if len(params) == 0 {
		return "(none)"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

// readArgs reads each fill argument as an expression.
func readArgs(srcs []string) ([]any, error) {
	args := make([]any, len(srcs))
	for i, src := range srcs {
		e, err := reader.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args[i] = e
	}
	return args, nil
}
