// Package config loads compiler settings: type-map overrides, the template
// cache size and the log level.
//
// Files are CUE or YAML, chosen by extension:
//
//	// sexpsql.cue
//	types: integer: "BIGINT"
//	cache_size: 256
//	log_level:  "debug"
//
//	# sexpsql.yaml
//	types:
//	  integer: BIGINT
//	cache_size: 256
//	log_level: debug
//
// Omitted fields keep their Default values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sexpsql/internal/querysql"
)

// Config holds compiler settings.
type Config struct {
	// Types overrides entries of the default type map, keyed by type tag
	// ("integer", "float", "object", "none").
	Types map[string]string `yaml:"types" json:"types,omitempty"`

	// CacheSize is the template cache size; 0 disables automatic sweeps.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// typeTags lists the tags a config may override.
var typeTags = []string{
	querysql.TypeInteger,
	querysql.TypeFloat,
	querysql.TypeObject,
	"none",
}

// Error is a configuration failure, positioned when the source is CUE.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the settings used when no config file is given.
func Default() *Config {
	return &Config{
		CacheSize: querysql.DefaultCacheSize,
		LogLevel:  "warn",
	}
}

// Load reads a config file, dispatching on its extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return ParseCUE(path, data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return nil, &Error{Field: "file", Message: fmt.Sprintf("unsupported config extension %q", ext)}
	}
}

// ParseCUE parses CUE config source. filename is used in positions.
func ParseCUE(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cfg := Default()

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		field := iter.Value()
		switch label := iter.Label(); label {
		case "types":
			types, err := parseCUETypes(field)
			if err != nil {
				return nil, err
			}
			cfg.Types = types
		case "cache_size":
			n, err := field.Int64()
			if err != nil {
				return nil, &Error{Field: label, Message: "must be a concrete integer", Pos: field.Pos()}
			}
			cfg.CacheSize = int(n)
		case "log_level":
			s, err := field.String()
			if err != nil {
				return nil, &Error{Field: label, Message: "must be a concrete string", Pos: field.Pos()}
			}
			cfg.LogLevel = s
		default:
			return nil, &Error{Field: label, Message: "unknown field", Pos: field.Pos()}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseCUETypes(v cue.Value) (map[string]string, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &Error{Field: "types", Message: "must be a struct", Pos: v.Pos()}
	}

	types := make(map[string]string)
	for iter.Next() {
		tag := iter.Label()
		sqlType, err := iter.Value().String()
		if err != nil {
			return nil, &Error{Field: "types." + tag, Message: "must be a concrete string", Pos: iter.Value().Pos()}
		}
		types[tag] = sqlType
	}
	return types, nil
}

// ParseYAML parses YAML config source. Unknown fields are rejected.
func ParseYAML(src []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Field: "yaml", Message: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks type tags, the cache size and the log level.
func (c *Config) Validate() error {
	for tag := range c.Types {
		if !slices.Contains(typeTags, tag) {
			return &Error{
				Field:   "types." + tag,
				Message: fmt.Sprintf("unknown type tag (want one of %s)", strings.Join(typeTags, ", ")),
			}
		}
	}
	if c.CacheSize < 0 {
		return &Error{Field: "cache_size", Message: "must not be negative"}
	}
	if _, err := c.Level(); err != nil {
		return &Error{Field: "log_level", Message: err.Error()}
	}
	return nil
}

// TypeMap returns the default type map with the configured overrides
// applied.
func (c *Config) TypeMap() querysql.TypeMap {
	return querysql.DefaultTypeMap().Merge(c.Types)
}

// Level parses LogLevel. An empty level is warn.
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &Error{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &Error{Field: "cue", Message: first.Error()}
}
