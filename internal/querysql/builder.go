package querysql

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// builder threads compilation state through the recursive compilers.
// Every method returns template text: literal percent signs are escaped and
// each recognized placeholder is written as a marker and recorded in params,
// depth-first, left to right.
type builder struct {
	types  TypeMap
	params []queryir.Placeholder

	// literal disables placeholder recognition. Set when compiling fill-time
	// schema arguments, which are values and never contain references.
	literal bool
}

// param emits e as a placeholder marker if it is one, or escapes it as a
// literal otherwise. kind is the kind the position requires; KindAny
// accepts any placeholder and escapes non-placeholder symbols as
// identifiers and everything else as scalars.
func (b *builder) param(e ir.Expr, kind queryir.Kind) (string, error) {
	if !b.literal {
		if p, ok := Recognize(e); ok {
			if kind != queryir.KindAny && kind != p.Kind {
				return "", &Error{
					Kind:    ErrInvalidParameterKind,
					Message: fmt.Sprintf("invalid parameter type %s, expecting %s", p.Kind, kind),
					Value:   e,
				}
			}
			b.params = append(b.params, p)
			return queryir.Marker, nil
		}
	}

	var (
		s   string
		err error
	)
	if kind == queryir.KindAny {
		if sym, ok := e.(ir.Symbol); ok {
			s, err = EscapeIdentifier(sym)
		} else {
			s = EscapeScalar(e)
		}
	} else {
		s, err = escapeAs(e, kind, b.types)
	}
	if err != nil {
		return "", err
	}
	return queryir.EscapeText(s), nil
}

// idents compiles an identifier list: comma-joined, unparenthesized.
// Elements may be symbols, * or expressions such as (as x y).
func (b *builder) idents(v ir.Vector) (string, error) {
	if len(v) == 0 {
		return "", newError(ErrInvalidVector, v, "empty identifier list")
	}

	parts := make([]string, len(v))
	for i, elem := range v {
		var (
			s   string
			err error
		)
		switch e := elem.(type) {
		case ir.Symbol:
			if e == "*" {
				s = "*"
			} else {
				s, err = b.param(e, queryir.KindIdentifier)
			}
		case ir.List:
			s, err = b.expr(e)
		case ir.Vector:
			if !ir.IsStatement(e) {
				return "", newError(ErrInvalidIdentifier, e, "invalid identifier")
			}
			s, err = b.subquery(e)
		default:
			s, err = b.param(e, queryir.KindIdentifier)
		}
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

// keywordText converts a keyword to SQL: :primary-key becomes PRIMARY KEY.
func keywordText(k ir.Keyword) string {
	return queryir.EscapeText(upper(strings.ReplaceAll(string(k), "-", " ")))
}

// operatorText converts an operator symbol to SQL: not-in becomes NOT IN.
func operatorText(op ir.Symbol) string {
	return queryir.EscapeText(upper(strings.ReplaceAll(string(op), "-", " ")))
}

// upper upper-cases s. A Caser is stateful, so one is created per call.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
