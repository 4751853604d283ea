package querysql

import (
	"strings"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// ParseSchema converts a schema expression to a Schema.
//
// A list is (columns constraint...), where columns is a vector. A lone
// vector is a schema with columns only. Each column is a bare symbol or a
// sequence (name [type] constraint...):
//
//	([name (id integer :primary-key)] (:unique [name]))
//	[name (age integer :not-null :default 0)]
func ParseSchema(e ir.Expr) (queryir.Schema, error) {
	var (
		columns     ir.Vector
		constraints []ir.Expr
	)
	switch v := e.(type) {
	case ir.Vector:
		columns = v
	case ir.List:
		if len(v) == 0 {
			return queryir.Schema{}, newError(ErrInvalidSchema, e, "empty schema")
		}
		cols, ok := v[0].(ir.Vector)
		if !ok {
			return queryir.Schema{}, newError(ErrInvalidSchema, e, "schema must start with a column vector")
		}
		columns, constraints = cols, v[1:]
	default:
		return queryir.Schema{}, newError(ErrInvalidSchema, e, "invalid schema")
	}

	if len(columns) == 0 {
		return queryir.Schema{}, newError(ErrInvalidSchema, e, "schema has no columns")
	}

	schema := queryir.Schema{
		Columns: make([]queryir.Column, 0, len(columns)),
	}
	for _, c := range columns {
		col, err := parseColumn(c)
		if err != nil {
			return queryir.Schema{}, err
		}
		schema.Columns = append(schema.Columns, col)
	}

	for _, c := range constraints {
		seq, ok := asSequence(c)
		if !ok || len(seq) == 0 {
			return queryir.Schema{}, newError(ErrInvalidSchema, c, "invalid table constraint")
		}
		schema.Constraints = append(schema.Constraints, queryir.Constraint(seq))
	}

	return schema, nil
}

func parseColumn(e ir.Expr) (queryir.Column, error) {
	if sym, ok := e.(ir.Symbol); ok {
		return queryir.Column{Name: sym}, nil
	}

	seq, ok := asSequence(e)
	if !ok || len(seq) == 0 {
		return queryir.Column{}, newError(ErrInvalidSchema, e, "invalid column")
	}
	if _, ok := seq[0].(ir.Symbol); !ok {
		return queryir.Column{}, newError(ErrInvalidSchema, e, "column name must be a symbol")
	}

	col := queryir.Column{Name: seq[0]}
	rest := seq[1:]
	if len(rest) > 0 {
		if tag, ok := rest[0].(ir.Symbol); ok {
			col.Type = string(tag)
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		col.Constraints = rest
	}
	return col, nil
}

func asSequence(e ir.Expr) ([]ir.Expr, bool) {
	switch v := e.(type) {
	case ir.List:
		return v, true
	case ir.Vector:
		return v, true
	}
	return nil, false
}

// CompileSchema compiles a schema to DDL column text under tm:
//
//	name NONE, id INTEGER PRIMARY KEY, UNIQUE (name)
//
// v may be a queryir.Schema, a *queryir.Schema or a schema expression.
// A nil tm selects the default type map. Placeholders are not recognized:
// a schema passed here is a value.
func CompileSchema(v any, tm TypeMap) (string, error) {
	if tm == nil {
		tm = DefaultTypeMap()
	}

	var schema queryir.Schema
	switch s := v.(type) {
	case queryir.Schema:
		schema = s
	case *queryir.Schema:
		if s == nil {
			return "", newError(ErrInvalidSchema, v, "nil schema")
		}
		schema = *s
	case ir.Expr:
		parsed, err := ParseSchema(s)
		if err != nil {
			return "", err
		}
		schema = parsed
	default:
		return "", newError(ErrInvalidSchema, v, "invalid schema")
	}

	b := &builder{types: tm, literal: true}
	text, err := b.schemaText(schema)
	if err != nil {
		return "", err
	}
	return queryir.Expand(text, nil)
}

// schema compiles an inline schema expression.
func (b *builder) schema(e ir.Expr) (string, error) {
	schema, err := ParseSchema(e)
	if err != nil {
		return "", err
	}
	return b.schemaText(schema)
}

func (b *builder) schemaText(s queryir.Schema) (string, error) {
	if len(s.Columns) == 0 {
		return "", newError(ErrInvalidSchema, nil, "schema has no columns")
	}

	parts := make([]string, 0, len(s.Columns)+len(s.Constraints))
	for _, col := range s.Columns {
		text, err := b.column(col)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}

	for _, c := range s.Constraints {
		if len(c) == 0 {
			return "", newError(ErrInvalidSchema, nil, "empty table constraint")
		}
		text, err := b.constraints(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, ", "), nil
}

// column compiles "name TYPE CONSTRAINTS", omitting empty parts.
func (b *builder) column(col queryir.Column) (string, error) {
	name, err := b.param(col.Name, queryir.KindIdentifier)
	if err != nil {
		return "", err
	}

	sqlType, ok := b.types.Lookup(col.Type)
	if !ok && col.Type != TypeNone {
		return "", &Error{
			Kind:    ErrInvalidSchema,
			Message: "unknown column type " + col.Type,
			Value:   col.Name,
			Details: map[string]string{"type": col.Type},
		}
	}

	constraints, err := b.constraints(col.Constraints)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{name, queryir.EscapeText(sqlType), constraints} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " "), nil
}

// constraints compiles a constraint sequence such as
// :not-null :default 0 :check (> age 0).
func (b *builder) constraints(items []ir.Expr) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		var (
			s   string
			err error
		)
		switch t := item.(type) {
		case ir.Keyword:
			s = keywordText(t)
		case ir.Symbol:
			s, err = b.param(t, queryir.KindIdentifier)
		case ir.Vector:
			s, err = b.idents(t)
			s = "(" + s + ")"
		case ir.List:
			s, err = b.expr(t)
			s = "(" + s + ")"
		default:
			s, err = b.param(item, queryir.KindScalar)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}
