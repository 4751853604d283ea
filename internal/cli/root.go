package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sexpsql/internal/config"
	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/querysql"
)

// Version is reported by --version.
var Version = ir.ToolVersion

// RootOptions holds global flags for all commands, and the state built
// from them before any command runs.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file path, empty for defaults

	config   *config.Config
	logger   *slog.Logger
	compiler *querysql.Compiler
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sexpsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sexpsql",
		Short: "Compile s-expressions to SQL",
		Long: `Compile statements written as s-expressions into parameterized SQL
templates, fill them with escaped values, and run them on SQLite.

Statements are vectors led by keywords:

  [:select [name] :from people :where (= id $s1)]

Placeholders are $i (identifier), $s (scalar), $v (vector) and $S (schema)
followed by a 1-based argument position.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return opts.formatter(cmd).Fail(ExitCommandError,
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (.cue, .yaml or .yml)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewFillCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads the config file and builds the logger and compiler.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.Config != "" {
		loaded, err := config.Load(o.Config)
		if err != nil {
			return o.formatter(cmd).Fail(ExitCommandError, err)
		}
		cfg = loaded
	}

	level, err := cfg.Level()
	if err != nil {
		return o.formatter(cmd).Fail(ExitCommandError, err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}

	o.config = cfg
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	o.compiler = querysql.NewCompiler(
		querysql.WithCache(querysql.NewCache(cfg.CacheSize)),
		querysql.WithLogger(o.logger),
	)
	return nil
}

// TypeMap returns the type map statements are compiled under.
func (o *RootOptions) TypeMap() querysql.TypeMap {
	if o.config == nil {
		return querysql.DefaultTypeMap()
	}
	return o.config.TypeMap()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
