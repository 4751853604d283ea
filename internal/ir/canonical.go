package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// MarshalCanonical produces a canonical JSON encoding of an expression.
// Two expressions encode to the same bytes if and only if they are
// structurally equal, which makes the encoding usable as a cache key.
//
// Each node is a tagged array:
//
//	nil           ["nil"]
//	symbol        ["sym","name"]
//	keyword       ["kw","select"]
//	int           ["int",42]
//	float         ["float","1.5"]
//	string        ["str","text"]
//	vector        ["vec",[...]]
//	list          ["list",[...]]
//
// Floats are carried as their shortest text form so the encoding never
// depends on float formatting of the JSON encoder.
func MarshalCanonical(e Expr) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, e Expr) error {
	switch v := e.(type) {
	case nil, Nil:
		buf.WriteString(`["nil"]`)
	case Symbol:
		return writeTagged(buf, "sym", string(v))
	case Keyword:
		return writeTagged(buf, "kw", string(v))
	case Int:
		fmt.Fprintf(buf, `["int",%d]`, int64(v))
	case Float:
		return writeTagged(buf, "float", FormatFloat(float64(v)))
	case String:
		return writeTagged(buf, "str", string(v))
	case Vector:
		return writeSeq(buf, "vec", v)
	case List:
		return writeSeq(buf, "list", v)
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func writeTagged(buf *bytes.Buffer, tag, s string) error {
	buf.WriteString(`["`)
	buf.WriteString(tag)
	buf.WriteString(`",`)
	if err := writeCanonicalString(buf, s); err != nil {
		return err
	}
	buf.WriteByte(']')
	return nil
}

func writeSeq(buf *bytes.Buffer, tag string, elems []Expr) error {
	buf.WriteString(`["`)
	buf.WriteString(tag)
	buf.WriteString(`",[`)
	for i, elem := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonical(buf, elem); err != nil {
			return fmt.Errorf("%s[%d]: %w", tag, i, err)
		}
	}
	buf.WriteString(`]]`)
	return nil
}

// writeCanonicalString writes s as a JSON string without HTML escaping.
// Strings are not normalized: two spellings of the same text are different
// keys because they compile to different SQL.
//
// Bytes that are not valid UTF-8 are written as \u00XX escapes instead of
// being replaced with U+FFFD, so distinct byte strings never share an
// encoding. Valid text never produces those escapes: runes from U+0080 up
// are written raw.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	for len(s) > 0 {
		n := validPrefix(s)
		if n == 0 {
			fmt.Fprintf(buf, `\u%04x`, s[0])
			s = s[1:]
			continue
		}
		if err := writeJSONText(buf, s[:n]); err != nil {
			return err
		}
		s = s[n:]
	}
	buf.WriteByte('"')
	return nil
}

// writeJSONText writes the escaped body of s, which must be valid UTF-8,
// without the surrounding quotes.
func writeJSONText(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// json.Encoder adds trailing newline, remove it along with the quotes
	body := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(body[1 : len(body)-1])
	return nil
}

// validPrefix returns the length of the longest valid UTF-8 prefix of s.
func validPrefix(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		n += size
	}
	return n
}

// MarshalCanonicalMap encodes a string map as a JSON object with keys in
// RFC 8785 order (UTF-16 code units).
func MarshalCanonicalMap(m map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(&buf, k); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeCanonicalString(&buf, m[k]); err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	// Invalid UTF-8 decodes to U+FFFD, so distinct keys can tie above.
	return strings.Compare(a, b)
}
