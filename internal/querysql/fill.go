package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/sexpsql/internal/queryir"
)

// Fill escapes args into a compiled template.
//
// len(args) must equal the number of placeholders. Each placeholder reads
// args[Index], so one argument may feed several markers and markers may
// read arguments out of order.
func Fill(t *queryir.Template, args ...any) (string, error) {
	if t == nil {
		return "", errors.New("cannot fill nil template")
	}
	if len(args) != t.Len() {
		return "", NewArityError(t.Len(), len(args))
	}

	types := TypeMap(t.Types())
	values := make([]string, t.Len())
	for i := range values {
		p := t.Param(i)
		if p.Index >= len(args) {
			return "", &Error{
				Kind:    ErrArityMismatch,
				Message: fmt.Sprintf("placeholder %s refers past the %d arguments given", p, len(args)),
				Details: map[string]string{"placeholder": p.String()},
			}
		}

		s, err := escapeAs(args[p.Index], p.Kind, types)
		if err != nil {
			return "", fmt.Errorf("argument %s: %w", p, err)
		}
		values[i] = s
	}

	return queryir.Expand(t.Text(), values)
}
