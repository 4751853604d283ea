package querysql

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/roach88/sexpsql/internal/ir"
	"github.com/roach88/sexpsql/internal/queryir"
)

// Escape converts one value of a known kind into SQL surface text.
// Schema values are compiled under the default type map.
//
// Escape is pure: it never mutates v.
func Escape(v any, kind queryir.Kind) (string, error) {
	return escapeAs(v, kind, DefaultTypeMap())
}

func escapeAs(v any, kind queryir.Kind, tm TypeMap) (string, error) {
	switch kind {
	case queryir.KindIdentifier:
		return EscapeIdentifier(v)
	case queryir.KindScalar:
		return EscapeScalar(v), nil
	case queryir.KindVector:
		return EscapeVector(v)
	case queryir.KindSchema:
		return CompileSchema(v, tm)
	default:
		return "", newError(ErrInvalidParameterKind, v, "cannot escape as %s", kind)
	}
}

// EscapeIdentifier escapes a symbol as a SQL identifier.
//
// A name containing ':' is a compound identifier: people:name becomes
// people.name with each segment escaped on its own. Hyphens become
// underscores. Names with characters outside [A-Za-z0-9_], or starting
// with a digit or '$', are double-quoted with embedded quotes doubled.
func EscapeIdentifier(v any) (string, error) {
	sym, ok := v.(ir.Symbol)
	if !ok {
		return "", newError(ErrInvalidIdentifier, v, "invalid identifier")
	}
	if sym == "" {
		return "", newError(ErrInvalidIdentifier, v, "empty identifier")
	}

	name := string(sym)
	if !strings.Contains(name, ":") {
		return escapeName(name), nil
	}

	segments := strings.Split(name, ":")
	for i, seg := range segments {
		if seg == "" {
			return "", newError(ErrInvalidIdentifier, v, "empty identifier segment")
		}
		segments[i] = escapeName(seg)
	}
	return strings.Join(segments, "."), nil
}

func escapeName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	if !needsQuoting(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func needsQuoting(name string) bool {
	if c := name[0]; c == '$' || (c >= '0' && c <= '9') {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return true
		}
	}
	return false
}

// EscapeScalar escapes a single literal value.
//
// nil becomes NULL, numbers are emitted unquoted, and everything else is
// rendered as text and single-quoted with embedded quotes doubled. NaN and
// infinities have no numeric literal, so they are quoted as 'NaN',
// 'Infinity' and '-Infinity'.
func EscapeScalar(v any) string {
	switch val := v.(type) {
	case nil, ir.Nil:
		return "NULL"
	case ir.Int:
		return strconv.FormatInt(int64(val), 10)
	case ir.Float:
		return escapeFloat(float64(val))
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return escapeFloat(float64(val))
	case float64:
		return escapeFloat(val)
	case ir.String:
		return quoteScalar(string(val))
	case string:
		return quoteScalar(val)
	case ir.Expr:
		return quoteScalar(ir.Print(val))
	case fmt.Stringer:
		return quoteScalar(val.String())
	default:
		return quoteScalar(fmt.Sprint(val))
	}
}

func escapeFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return quoteScalar("NaN")
	case math.IsInf(f, 1):
		return quoteScalar("Infinity")
	case math.IsInf(f, -1):
		return quoteScalar("-Infinity")
	}
	return ir.FormatFloat(f)
}

func quoteScalar(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EscapeVector escapes a row or a sequence of rows.
//
// A flat sequence becomes (v1, v2, ...) with each element scalar-escaped.
// A sequence of sequences becomes each row escaped on its own, joined by
// ", ". Empty vectors and non-sequences fail with ErrInvalidVector.
func EscapeVector(v any) (string, error) {
	elems, ok := sequence(v)
	if !ok || len(elems) == 0 {
		return "", newError(ErrInvalidVector, v, "invalid vector")
	}

	if _, nested := sequence(elems[0]); nested {
		rows := make([]string, len(elems))
		for i, row := range elems {
			s, err := EscapeVector(row)
			if err != nil {
				return "", err
			}
			rows[i] = s
		}
		return strings.Join(rows, ", "), nil
	}

	parts := make([]string, len(elems))
	for i, elem := range elems {
		parts[i] = EscapeScalar(elem)
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

// sequence returns the elements of v if v is an ordered sequence.
// Strings, byte slices and Stringers such as uuid.UUID are not sequences.
func sequence(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil, string, []byte, ir.Expr:
		if vec, ok := val.(ir.Vector); ok {
			return exprsToAny(vec), true
		}
		if list, ok := val.(ir.List); ok {
			return exprsToAny(list), true
		}
		return nil, false
	case []any:
		return val, true
	case fmt.Stringer:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, true
}

func exprsToAny(exprs []ir.Expr) []any {
	out := make([]any, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
