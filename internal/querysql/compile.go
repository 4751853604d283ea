package querysql

import (
	"io"
	"log/slog"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// Compiler compiles statements to templates, memoizing results in a Cache.
//
// A Compiler is safe for concurrent use.
type Compiler struct {
	cache  *Cache
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCache sets the template cache. Compilers may share a cache.
func WithCache(cache *Cache) Option {
	return func(c *Compiler) {
		c.cache = cache
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// NewCompiler creates a Compiler with its own cache of DefaultCacheSize
// entries and a discarding logger unless options say otherwise.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache(DefaultCacheSize)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Cache returns the compiler's template cache.
func (c *Compiler) Cache() *Cache {
	return c.cache
}

// Compile compiles a statement under the default type map.
func (c *Compiler) Compile(e ir.Expr) (*queryir.Template, error) {
	return c.CompileWith(nil, e)
}

// CompileWith compiles a statement under tm, or the default type map when
// tm is nil. Identical (tm, e) pairs return the cached template.
// Failed compilations are never cached.
func (c *Compiler) CompileWith(tm TypeMap, e ir.Expr) (*queryir.Template, error) {
	if tm == nil {
		tm = DefaultTypeMap()
	}

	key, err := ir.TemplateKey(tm, e)
	if err != nil {
		return nil, err
	}

	if tmpl, ok := c.cache.Get(key); ok {
		c.logger.Debug("template cache hit", "key", key[:12])
		return tmpl, nil
	}

	tmpl, err := compileStatement(tm, e)
	if err != nil {
		return nil, err
	}

	evicted := c.cache.Put(key, tmpl)
	c.logger.Debug("template compiled",
		"key", key[:12],
		"params", tmpl.Len(),
		"evicted", evicted,
	)
	return tmpl, nil
}

// Prepare compiles e and fills it with args in one step.
func (c *Compiler) Prepare(e ir.Expr, args ...any) (string, error) {
	tmpl, err := c.Compile(e)
	if err != nil {
		return "", err
	}
	return Fill(tmpl, args...)
}

func compileStatement(tm TypeMap, e ir.Expr) (*queryir.Template, error) {
	v, ok := e.(ir.Vector)
	if !ok {
		return nil, newError(ErrInvalidVector, e, "statement must be a vector")
	}
	if len(v) == 0 {
		return nil, newError(ErrInvalidVector, e, "empty statement")
	}

	b := &builder{types: tm}
	text, err := b.statement(v)
	if err != nil {
		return nil, err
	}
	return queryir.NewTemplate(text, b.params, tm)
}

// std is the process-wide compiler used by the package-level functions.
var std = NewCompiler()

// Compile compiles a statement with the process-wide compiler.
func Compile(e ir.Expr) (*queryir.Template, error) {
	return std.Compile(e)
}

// CompileWith compiles a statement under tm with the process-wide compiler.
func CompileWith(tm TypeMap, e ir.Expr) (*queryir.Template, error) {
	return std.CompileWith(tm, e)
}

// Prepare compiles and fills a statement with the process-wide compiler.
func Prepare(e ir.Expr, args ...any) (string, error) {
	return std.Prepare(e, args...)
}
