package queryir

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Kind selects the escaping rule applied to a value at fill time.
type Kind int

const (
	// KindAny accepts a placeholder of any kind. It is only used as a
	// requirement, never carried by a Placeholder.
	KindAny Kind = iota
	// KindIdentifier escapes a symbol as a (possibly quoted) SQL identifier.
	KindIdentifier
	// KindScalar escapes a single literal value.
	KindScalar
	// KindVector escapes a row or a list of rows.
	KindVector
	// KindSchema compiles a column/constraint schema.
	KindSchema
)

// kindLetters maps the letter following $ in a placeholder name to its kind.
var kindLetters = map[byte]Kind{
	'i': KindIdentifier,
	's': KindScalar,
	'v': KindVector,
	'S': KindSchema,
}

// KindForLetter returns the kind encoded by a placeholder letter.
func KindForLetter(c byte) (Kind, bool) {
	k, ok := kindLetters[c]
	return k, ok
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindIdentifier:
		return "identifier"
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindSchema:
		return "schema"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Letter returns the placeholder letter for the kind, e.g. 'i' for identifier.
func (k Kind) Letter() byte {
	for c, kind := range kindLetters {
		if kind == k {
			return c
		}
	}
	return '?'
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Placeholder is a typed reference to a fill-time argument.
//
// Index is zero based: $s1 has Index 0. Two placeholders with the same
// index and kind refer to the same argument slot.
type Placeholder struct {
	Index int  `json:"index"`
	Kind  Kind `json:"kind"`
}

// String returns the placeholder in source form, e.g. "$s1".
func (p Placeholder) String() string {
	return fmt.Sprintf("$%c%d", p.Kind.Letter(), p.Index+1)
}

// Template is a compiled statement: text containing one %s marker per
// placeholder, and the placeholders in left-to-right marker order.
//
// Templates are immutable and safe to share between goroutines.
//
// Invariant: CountMarkers(Text()) == len(Params()).
type Template struct {
	text   string
	params []Placeholder
	types  map[string]string
}

// NewTemplate creates a Template, checking the marker invariant.
// types is the type map the template was compiled under; it is used when
// filling schema placeholders.
func NewTemplate(text string, params []Placeholder, types map[string]string) (*Template, error) {
	if n := CountMarkers(text); n != len(params) {
		return nil, fmt.Errorf("template has %d markers but %d placeholders: %q", n, len(params), text)
	}
	return &Template{
		text:   text,
		params: slices.Clone(params),
		types:  maps.Clone(types),
	}, nil
}

// Text returns the format text.
func (t *Template) Text() string {
	return t.text
}

// Params returns a copy of the placeholder list.
func (t *Template) Params() []Placeholder {
	return slices.Clone(t.params)
}

// Len returns the number of placeholders.
func (t *Template) Len() int {
	return len(t.params)
}

// Param returns the i-th placeholder in marker order.
func (t *Template) Param(i int) Placeholder {
	return t.params[i]
}

// Types returns a copy of the type map the template was compiled under.
func (t *Template) Types() map[string]string {
	return maps.Clone(t.types)
}

// MarshalJSON encodes the template for diagnostics.
func (t *Template) MarshalJSON() ([]byte, error) {
	params := t.params
	if params == nil {
		params = []Placeholder{}
	}
	return json.Marshal(struct {
		Text   string        `json:"text"`
		Params []Placeholder `json:"params"`
	}{t.text, params})
}
