package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sexpsql/internal/querysql"
)

// Suite is a list of compile cases sharing one type map.
type Suite struct {
	// Name identifies the suite in reports and golden file names.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description,omitempty"`

	// Types overrides entries of the default type map for every case.
	Types map[string]string `yaml:"types,omitempty"`

	// Execute runs each filled statement on an in-memory SQLite store.
	Execute bool `yaml:"execute,omitempty"`

	// Cases run in order.
	Cases []Case `yaml:"cases"`
}

// Case is one statement to compile and fill.
type Case struct {
	// Name is unique within the suite.
	Name string `yaml:"name"`

	// SQL is the statement in s-expression text.
	SQL string `yaml:"sql"`

	// Args are the fill arguments, each in s-expression text.
	Args []string `yaml:"args,omitempty"`

	// Expect is the filled SQL. Empty skips the comparison.
	Expect string `yaml:"expect,omitempty"`

	// Error is the expected error kind, such as INVALID_IDENTIFIER.
	Error string `yaml:"error,omitempty"`

	// Rows is the expected number of rows returned or affected.
	// Only checked when the suite executes.
	Rows *int64 `yaml:"rows,omitempty"`
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses suite YAML.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// TypeMap returns the default type map with the suite's overrides applied.
func (s *Suite) TypeMap() querysql.TypeMap {
	return querysql.DefaultTypeMap().Merge(s.Types)
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	defaults := querysql.DefaultTypeMap()
	for tag := range s.Types {
		if _, ok := defaults.Lookup(tag); !ok {
			return fmt.Errorf("types: unknown type tag %q", tag)
		}
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.SQL == "" {
			return fmt.Errorf("cases[%d]: sql is required", i)
		}
		if c.Expect != "" && c.Error != "" {
			return fmt.Errorf("cases[%d]: expect and error are mutually exclusive", i)
		}
		if c.Error != "" && !isErrorKind(c.Error) {
			return fmt.Errorf("cases[%d]: unknown error kind %q", i, c.Error)
		}
		if c.Rows != nil {
			if !s.Execute {
				return fmt.Errorf("cases[%d]: rows requires execute: true", i)
			}
			if *c.Rows < 0 {
				return fmt.Errorf("cases[%d]: rows must be non-negative", i)
			}
		}
	}

	return nil
}

func isErrorKind(kind string) bool {
	for _, k := range querysql.ErrorKinds() {
		if string(k) == kind {
			return true
		}
	}
	return false
}
