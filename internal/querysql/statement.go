package querysql

import (
	"strings"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// statement compiles a flat token sequence such as
// [:select [name] :from people :where (= id $i1)].
//
// Fragments are joined with single spaces. An identifier list directly
// after a keyword is emitted bare (a SELECT column list); anywhere else it
// is parenthesized (a column list before VALUES).
func (b *builder) statement(v ir.Vector) (string, error) {
	parts := make([]string, 0, len(v))

	var last ir.Expr
	for i := 0; i < len(v); i++ {
		item := v[i]

		var (
			s   string
			err error
		)
		switch t := item.(type) {
		case ir.Keyword:
			if t != "values" {
				s = keywordText(t)
				break
			}
			if i+1 >= len(v) {
				return "", newError(ErrInvalidVector, v, ":values requires a vector")
			}
			i++
			s, err = b.vector(v[i])
			s = "VALUES " + s

		case ir.Symbol:
			if t == "*" {
				s = "*"
				break
			}
			s, err = b.param(t, queryir.KindAny)
			if p, ok := Recognize(t); ok && p.Kind == queryir.KindSchema {
				s = "(" + s + ")"
			}

		case ir.Vector:
			if ir.IsStatement(t) {
				s, err = b.subquery(t)
				break
			}
			s, err = b.idents(t)
			if _, afterKeyword := last.(ir.Keyword); !afterKeyword {
				s = "(" + s + ")"
			}

		case ir.List:
			if len(t) > 0 {
				if _, inline := t[0].(ir.Vector); inline {
					s, err = b.schema(t)
					s = "(" + s + ")"
					break
				}
			}
			s, err = b.expr(t)

		default:
			s, err = b.expr(item)
		}
		if err != nil {
			return "", err
		}

		parts = append(parts, s)
		last = item
	}

	return strings.Join(parts, " "), nil
}
