package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/sexpsql/internal/querysql"
	"github.com/roach88/sexpsql/internal/reader"
	"github.com/roach88/sexpsql/internal/store"
)

// RunIDGenerator produces the ID a suite run is logged under.
type RunIDGenerator interface {
	Generate() string
}

// UUIDRunID generates random UUIDv4 run IDs.
type UUIDRunID struct{}

// Generate returns a new random UUID.
func (UUIDRunID) Generate() string {
	return uuid.NewString()
}

// Runner executes suites.
type Runner struct {
	compiler *querysql.Compiler
	runIDs   RunIDGenerator
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCompiler sets the compiler cases are compiled with.
func WithCompiler(c *querysql.Compiler) Option {
	return func(r *Runner) {
		r.compiler = c
	}
}

// WithRunIDGenerator sets the run ID source.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Runner) {
		r.runIDs = g
	}
}

// WithLogger sets the logger case outcomes are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner. Without options it uses a fresh compiler, random
// run IDs and a logger that discards output.
func New(opts ...Option) *Runner {
	r := &Runner{
		compiler: querysql.NewCompiler(),
		runIDs:   UUIDRunID{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every case of suite in order and returns the result.
//
// Case failures are recorded in the result. The returned error is reserved
// for failures of the runner itself, such as being unable to open the
// in-memory store.
func (r *Runner) Run(ctx context.Context, suite *Suite) (*Result, error) {
	runID := r.runIDs.Generate()
	result := NewResult(suite.Name, runID)

	var st *store.Store
	if suite.Execute {
		var err error
		st, err = store.Open(store.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	tm := suite.TypeMap()
	for i, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cr := r.runCase(ctx, st, runID, tm, c)
		result.AddCase(cr)

		if cr.Pass {
			r.logger.Info("case passed",
				"suite", suite.Name,
				"case", c.Name,
				"index", i,
			)
		} else {
			r.logger.Warn("case failed",
				"suite", suite.Name,
				"case", c.Name,
				"index", i,
				"failures", cr.Failures,
			)
		}
	}

	r.logger.Info("suite completed",
		"suite", suite.Name,
		"run_id", runID,
		"passed", result.Passed,
		"failed", result.Failed,
	)
	return result, nil
}

// runCase compiles, fills and optionally executes one case.
// A nil st skips execution.
func (r *Runner) runCase(ctx context.Context, st *store.Store, runID string, tm querysql.TypeMap, c Case) CaseResult {
	res := CaseResult{Name: c.Name, Pass: true}

	filled, err := r.prepare(tm, c)
	if err != nil {
		if kind := querysql.KindOf(err); kind != "" {
			res.Error = string(kind)
		}
	} else {
		res.SQL = filled
	}

	if failure := assertError(c.Error, err); failure != nil {
		res.Fail(failure.Error())
	}
	if err != nil {
		return res
	}
	if failure := assertSQL(c.Expect, filled); failure != nil {
		res.Fail(failure.Error())
	}

	if st == nil || c.Error != "" {
		return res
	}

	out, err := st.Run(ctx, runID, filled)
	if err != nil {
		res.Fail((&AssertionError{Check: "execute", Expected: "success", Actual: err.Error()}).Error())
		return res
	}
	n := rowCount(out)
	res.Rows = &n
	if failure := assertRows(c.Rows, n); failure != nil {
		res.Fail(failure.Error())
	}
	return res
}

// prepare reads the case's statement and arguments and fills the compiled
// template.
func (r *Runner) prepare(tm querysql.TypeMap, c Case) (string, error) {
	e, err := reader.Parse(c.SQL)
	if err != nil {
		return "", fmt.Errorf("sql: %w", err)
	}

	args := make([]any, len(c.Args))
	for i, src := range c.Args {
		arg, err := reader.Parse(src)
		if err != nil {
			return "", fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = arg
	}

	tmpl, err := r.compiler.CompileWith(tm, e)
	if err != nil {
		return "", err
	}
	return querysql.Fill(tmpl, args...)
}

