package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// expr compiles a scalar or boolean expression to infix SQL.
func (b *builder) expr(e ir.Expr) (string, error) {
	switch v := e.(type) {
	case nil, ir.Nil:
		return "NULL", nil
	case ir.Symbol, ir.Keyword, ir.Int, ir.Float, ir.String:
		return b.param(e, queryir.KindAny)
	case ir.Vector:
		return b.vector(v)
	case ir.List:
		return b.form(v)
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

// vector compiles a literal row, a list of rows, a nested statement or a
// vector placeholder. Row elements are compiled as expressions, so they may
// contain placeholders.
func (b *builder) vector(e ir.Expr) (string, error) {
	switch v := e.(type) {
	case ir.Vector:
		if ir.IsStatement(v) {
			return b.subquery(v)
		}
		if len(v) == 0 {
			return "", newError(ErrInvalidVector, v, "empty vector")
		}

		if _, rows := v[0].(ir.Vector); rows {
			parts := make([]string, len(v))
			for i, row := range v {
				s, err := b.vector(row)
				if err != nil {
					return "", err
				}
				parts[i] = s
			}
			return strings.Join(parts, ", "), nil
		}

		parts := make([]string, len(v))
		for i, elem := range v {
			s, err := b.expr(elem)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", nil

	case ir.Symbol:
		return b.param(v, queryir.KindVector)

	default:
		return "", newError(ErrInvalidVector, e, "invalid vector")
	}
}

// subquery compiles a nested statement in parentheses.
func (b *builder) subquery(v ir.Vector) (string, error) {
	s, err := b.statement(v)
	if err != nil {
		return "", err
	}
	return "(" + s + ")", nil
}

// form compiles an operator application (op . args).
func (b *builder) form(l ir.List) (string, error) {
	if len(l) == 0 {
		return "NULL", nil
	}

	op, args, ok := l.Op()
	if !ok {
		return "", newError(ErrInvalidIdentifier, l[0], "operator must be a symbol")
	}

	switch op {
	case "<=", ">=":
		switch len(args) {
		case 2:
			return b.infix(op, args)
		case 3:
			// The middle operand is the subject; the outer ones are ordered
			// so the bounds read low AND high.
			lo, hi := 0, 2
			if op == ">=" {
				lo, hi = 2, 0
			}
			return b.sequence("%s BETWEEN %s AND %s", args[1], args[lo], args[hi])
		default:
			return "", NewOperandCountError(op, len(args))
		}

	case "-":
		switch len(args) {
		case 1:
			s, err := b.expr(args[0])
			if err != nil {
				return "", err
			}
			return "-(" + s + ")", nil
		case 2:
			return b.infix(op, args)
		default:
			return "", NewOperandCountError(op, len(args))
		}

	case "quote":
		if len(args) != 1 {
			return "", NewOperandCountError(op, len(args))
		}
		return queryir.EscapeText(EscapeScalar(args[0])), nil

	case "not":
		if len(args) != 1 {
			return "", NewOperandCountError(op, len(args))
		}
		return b.sequence("NOT %s", args[0])

	case "notnull", "isnull", "asc", "desc":
		if len(args) != 1 {
			return "", NewOperandCountError(op, len(args))
		}
		return b.sequence("%s "+operatorText(op), args[0])

	case "in", "not-in":
		if len(args) != 2 {
			return "", NewOperandCountError(op, len(args))
		}
		left, err := b.expr(args[0])
		if err != nil {
			return "", err
		}
		right, err := b.setOperand(args[1])
		if err != nil {
			return "", err
		}
		return left + " " + operatorText(op) + " " + right, nil

	case "funcall":
		return b.funcall(op, args)

	case "and", "or":
		switch len(args) {
		case 0:
			if op == "and" {
				return "1", nil
			}
			return "0", nil
		case 1:
			return b.expr(args[0])
		default:
			return b.infix(op, args)
		}

	default:
		return b.infix(op, args)
	}
}

// infix joins the compiled operands with the operator: (and a b c) becomes
// a AND b AND c. Nested forms are joined as compiled, without grouping.
func (b *builder) infix(op ir.Symbol, args []ir.Expr) (string, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		s, err := b.expr(arg)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, " "+operatorText(op)+" "), nil
}

// sequence compiles operands in order and substitutes them into layout.
// Operands are compiled left to right so placeholders are recorded in the
// order their markers appear.
func (b *builder) sequence(layout string, operands ...ir.Expr) (string, error) {
	parts := make([]any, len(operands))
	for i, arg := range operands {
		s, err := b.expr(arg)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return fmt.Sprintf(layout, parts...), nil
}

// setOperand compiles the right-hand side of IN: a row, a nested statement
// or a vector placeholder.
func (b *builder) setOperand(e ir.Expr) (string, error) {
	if _, ok := Recognize(e); ok && !b.literal {
		return b.param(e, queryir.KindVector)
	}
	return b.expr(e)
}

// funcall compiles (funcall f args...) to f(args...).
// (funcall count *) is count(*) and (funcall count :distinct x) is
// count(DISTINCT x).
func (b *builder) funcall(op ir.Symbol, args []ir.Expr) (string, error) {
	if len(args) == 0 {
		return "", NewOperandCountError(op, 0)
	}

	name, err := b.expr(args[0])
	if err != nil {
		return "", err
	}
	rest := args[1:]

	switch {
	case len(rest) == 1 && rest[0] == ir.Symbol("*"):
		return name + "(*)", nil
	case len(rest) == 2 && rest[0] == ir.Keyword("distinct"):
		s, err := b.expr(rest[1])
		if err != nil {
			return "", err
		}
		return name + "(DISTINCT " + s + ")", nil
	}

	parts := make([]string, len(rest))
	for i, arg := range rest {
		s, err := b.expr(arg)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return name + "(" + strings.Join(parts, ", ") + ")", nil
}
