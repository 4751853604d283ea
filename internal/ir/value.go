package ir

import (
	"strconv"
	"strings"
)

// Expr is a sealed interface over the syntactic shapes a query can be built from.
// Only Nil, Symbol, Keyword, Int, Float, String, Vector and List implement it,
// so every consumer can switch over the full set.
type Expr interface {
	expr() // Sealed - only these types implement it
}

// Nil is the absent value. It escapes to NULL.
type Nil struct{}

func (Nil) expr() {}

// Symbol is a bare name: a table, a column, an operator or a placeholder
// reference such as $i1.
type Symbol string

func (Symbol) expr() {}

// Keyword is a reserved SQL keyword marker. The name is stored without the
// leading colon, so :primary-key is Keyword("primary-key").
type Keyword string

func (Keyword) expr() {}

// Int is an integer literal.
type Int int64

func (Int) expr() {}

// Float is a floating point literal.
type Float float64

func (Float) expr() {}

// String is a string literal.
type String string

func (String) expr() {}

// Vector is an ordered sequence denoting an identifier list, a literal row
// or, when its first element is a Keyword, a nested statement.
type Vector []Expr

func (Vector) expr() {}

// List is an operator application (op . args), or an inline schema when its
// first element is a Vector.
type List []Expr

func (List) expr() {}

// Sym creates a Symbol.
func Sym(name string) Symbol {
	return Symbol(name)
}

// Kw creates a Keyword, accepting the name with or without the leading colon.
func Kw(name string) Keyword {
	return Keyword(strings.TrimPrefix(name, ":"))
}

// Vec creates a Vector from elements.
func Vec(elems ...Expr) Vector {
	return Vector(elems)
}

// L creates a List from elements.
// Example: L(Sym("="), Sym("id"), Sym("$i1"))
func L(elems ...Expr) List {
	return List(elems)
}

// IsStatement reports whether v is a statement, i.e. a non-empty vector
// whose first element is a keyword.
func IsStatement(e Expr) bool {
	v, ok := e.(Vector)
	if !ok || len(v) == 0 {
		return false
	}
	_, ok = v[0].(Keyword)
	return ok
}

// Op returns the operator symbol of a list and its operands.
// ok is false when the list is empty or does not start with a symbol.
func (l List) Op() (op Symbol, args []Expr, ok bool) {
	if len(l) == 0 {
		return "", nil, false
	}
	op, ok = l[0].(Symbol)
	return op, l[1:], ok
}

// String returns the keyword in its source form, e.g. ":select".
func (k Keyword) String() string {
	return ":" + string(k)
}

// Print renders e in reader syntax. It is the printable text form used for
// scalar escaping of non-numeric values and for diagnostics.
func Print(e Expr) string {
	var b strings.Builder
	printExpr(&b, e)
	return b.String()
}

func printExpr(b *strings.Builder, e Expr) {
	switch v := e.(type) {
	case nil, Nil:
		b.WriteString("nil")
	case Symbol:
		b.WriteString(string(v))
	case Keyword:
		b.WriteString(v.String())
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		b.WriteString(FormatFloat(float64(v)))
	case String:
		b.WriteString(strconv.Quote(string(v)))
	case Vector:
		printSeq(b, '[', ']', v)
	case List:
		printSeq(b, '(', ')', v)
	}
}

func printSeq(b *strings.Builder, open, end byte, elems []Expr) {
	b.WriteByte(open)
	for i, elem := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		printExpr(b, elem)
	}
	b.WriteByte(end)
}

// FormatFloat renders f so that it always reads back as a float:
// 2 becomes "2.0", 1e21 stays "1e+21".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
