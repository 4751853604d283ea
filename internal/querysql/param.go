package querysql

import (
	"regexp"
	"strconv"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// placeholderPattern matches $<kind-letter><positive-integer>.
var placeholderPattern = regexp.MustCompile(`^\$([isvS])([0-9]+)$`)

// Recognize classifies an atom as a placeholder reference.
// Only symbols of the form $i1, $s2, $v3, $S4 are placeholders; the number
// is one-based and becomes a zero-based Index. Any other expression is a
// literal and ok is false.
func Recognize(e ir.Expr) (queryir.Placeholder, bool) {
	sym, ok := e.(ir.Symbol)
	if !ok {
		return queryir.Placeholder{}, false
	}

	m := placeholderPattern.FindStringSubmatch(string(sym))
	if m == nil {
		return queryir.Placeholder{}, false
	}

	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return queryir.Placeholder{}, false
	}

	kind, _ := queryir.KindForLetter(m[1][0])
	return queryir.Placeholder{Index: n - 1, Kind: kind}, true
}
