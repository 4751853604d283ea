// Package reader parses the textual form of query expressions into ir.Expr.
//
// The syntax is a small s-expression dialect:
//
//	[:select [name] :from people :where (= id $i1)]  ; a statement
//
// Vectors use brackets, lists use parentheses, keywords start with a colon,
// strings are double-quoted with backslash escapes, commas count as
// whitespace, and ';' starts a comment running to the end of the line.
// The symbol nil reads as ir.Nil. Numbers with a fraction or exponent read
// as ir.Float, other numbers as ir.Int.
package reader

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/roach88/sexpsql/internal/ir"
)

var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s,]+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`},
	{Name: "Keyword", Pattern: `:[^\s,()\[\]";]+`},
	{Name: "Punct", Pattern: `[\[\]()]`},
	{Name: "Symbol", Pattern: `[^\s,()\[\]";]+`},
})

type program struct {
	Items []*node `@@*`
}

type node struct {
	Pos     lexer.Position
	Number  *string    `  @Number`
	Str     *stringLit `| @@`
	Keyword *string    `| @Keyword`
	Symbol  *string    `| @Symbol`
	Vector  *vector    `| @@`
	List    *list      `| @@`
}

type stringLit struct {
	Value string `@String`
}

type vector struct {
	Open  bool    `@"["`
	Items []*node `@@* "]"`
}

type list struct {
	Open  bool    `@"("`
	Items []*node `@@* ")"`
}

var parser = participle.MustBuild[program](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// SyntaxError reports malformed input with its source position.
type SyntaxError struct {
	Pos     lexer.Position
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Pos.Line == 0 {
		return "syntax error: " + e.Message
	}
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Message)
}

// Parse reads exactly one expression from src.
func Parse(src string) (ir.Expr, error) {
	exprs, err := ParseAll("", strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	switch len(exprs) {
	case 0:
		return nil, &SyntaxError{Message: "no expression"}
	case 1:
		return exprs[0], nil
	default:
		return nil, &SyntaxError{Message: fmt.Sprintf("expected one expression, found %d", len(exprs))}
	}
}

// MustParse is like Parse but panics on error. For tests and fixed inputs.
func MustParse(src string) ir.Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseAll reads every top-level expression from r.
// filename is used in error positions and may be empty.
func ParseAll(filename string, r io.Reader) ([]ir.Expr, error) {
	raw, err := parser.Parse(filename, r)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Pos: perr.Position(), Message: perr.Message()}
		}
		return nil, &SyntaxError{Message: err.Error()}
	}
	return convertAll(raw.Items)
}

func convertAll(nodes []*node) ([]ir.Expr, error) {
	out := make([]ir.Expr, len(nodes))
	for i, n := range nodes {
		e, err := convert(n)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func convert(n *node) (ir.Expr, error) {
	switch {
	case n.Number != nil:
		return number(n.Pos, *n.Number)
	case n.Str != nil:
		return ir.String(n.Str.Value), nil
	case n.Keyword != nil:
		return ir.Kw(*n.Keyword), nil
	case n.Symbol != nil:
		if *n.Symbol == "nil" {
			return ir.Nil{}, nil
		}
		return ir.Symbol(*n.Symbol), nil
	case n.Vector != nil:
		items, err := convertAll(n.Vector.Items)
		if err != nil {
			return nil, err
		}
		return ir.Vector(items), nil
	case n.List != nil:
		items, err := convertAll(n.List.Items)
		if err != nil {
			return nil, err
		}
		return ir.List(items), nil
	default:
		return nil, &SyntaxError{Pos: n.Pos, Message: "empty node"}
	}
}

func number(pos lexer.Position, text string) (ir.Expr, error) {
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: pos, Message: fmt.Sprintf("invalid number %q", text)}
		}
		return ir.Float(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &SyntaxError{Pos: pos, Message: fmt.Sprintf("integer out of range %q", text)}
	}
	return ir.Int(i), nil
}
