package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sexpsql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // suite filter (glob pattern)
}

// TestResult holds the overall test result.
type TestResult struct {
	Suites []*harness.Result `json:"suites"`
	Passed int               `json:"passed"`
	Failed int               `json:"failed"`
	Total  int               `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <suite.yaml|dir>...",
		Short: "Run case suites",
		Long: `Run YAML case suites against the compiler.

Each argument is a suite file or a directory searched recursively for
.yaml and .yml files.

Exit codes:
  0 - All suites passed
  1 - One or more cases failed
  2 - Command error (invalid paths, malformed suites, etc.)

Examples:
  sexpsql test ./suites
  sexpsql test ./suites --filter "people*"
  sexpsql test ./suites/people.yaml --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter suites by glob pattern on the file name")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, paths []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	var files []string
	for _, path := range paths {
		found, err := findSuiteFiles(path, opts.Filter)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to find suites", err)
		}
		files = append(files, found...)
	}

	result := TestResult{Suites: make([]*harness.Result, 0, len(files))}
	runner := harness.New(
		harness.WithCompiler(opts.compiler),
		harness.WithLogger(opts.logger),
	)

	for _, file := range files {
		suite, err := harness.LoadSuite(file)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("%s: %v", file, err), nil)
			return WrapExitError(ExitCommandError, "failed to load suite", err)
		}

		res, err := runner.Run(ctx, suite)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("%s: %v", file, err), nil)
			return WrapExitError(ExitCommandError, "failed to run suite", err)
		}

		result.Suites = append(result.Suites, res)
		result.Total++
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if err := outputTestText(cmd, result); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d suite(s) failed", result.Failed))
	}
	return nil
}

// findSuiteFiles returns path itself if it is a file, or every YAML file
// under it if it is a directory.
func findSuiteFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("suite path not found: %w", err)
	}
	if !info.IsDir() {
		return filterSuite(nil, path, filter)
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		files, err = filterSuite(files, p, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func filterSuite(files []string, path, filter string) ([]string, error) {
	if filter == "" {
		return append(files, path), nil
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	matched, err := filepath.Match(filter, name)
	if err != nil {
		return nil, fmt.Errorf("invalid filter pattern: %w", err)
	}
	if matched {
		files = append(files, path)
	}
	return files, nil
}

// outputTestText outputs test results in human-readable format.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No suites found.")
		return nil
	}

	for _, res := range result.Suites {
		if err := harness.WriteText(w, res); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All suites passed")
	}
	return nil
}
