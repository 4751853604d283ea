package querysql

import (
	"errors"
	"fmt"

	"github.com/roach88/sexpsql/internal/ir"
)

// ErrorKind categorizes compile and fill failures.
type ErrorKind string

const (
	// ErrInvalidIdentifier indicates a null, keyword or non-symbol value in
	// an identifier position.
	ErrInvalidIdentifier ErrorKind = "INVALID_IDENTIFIER"

	// ErrInvalidVector indicates an empty or malformed vector.
	ErrInvalidVector ErrorKind = "INVALID_VECTOR"

	// ErrWrongOperandCount indicates an operator applied to an unsupported
	// number of operands.
	ErrWrongOperandCount ErrorKind = "WRONG_OPERAND_COUNT"

	// ErrArityMismatch indicates a fill argument list that does not match
	// the template placeholders.
	ErrArityMismatch ErrorKind = "ARITY_MISMATCH"

	// ErrInvalidParameterKind indicates a placeholder whose declared kind
	// conflicts with the kind its position requires.
	ErrInvalidParameterKind ErrorKind = "INVALID_PARAMETER_KIND"

	// ErrInvalidSchema indicates a malformed column or constraint.
	ErrInvalidSchema ErrorKind = "INVALID_SCHEMA"
)

// ErrorKinds returns every error kind.
func ErrorKinds() []ErrorKind {
	return []ErrorKind{
		ErrInvalidIdentifier,
		ErrInvalidVector,
		ErrWrongOperandCount,
		ErrArityMismatch,
		ErrInvalidParameterKind,
		ErrInvalidSchema,
	}
}

// Error is a compile or fill failure.
//
// Errors are deterministic input-validation failures: retrying the same
// call fails the same way.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Value is the offending value, if any.
	Value any

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, describe(e.Value))
}

// IsKind returns true if err is an *Error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}

func newError(kind ErrorKind, value any, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
	}
}

// NewOperandCountError creates an Error for an operator arity violation.
func NewOperandCountError(op ir.Symbol, got int) *Error {
	return &Error{
		Kind:    ErrWrongOperandCount,
		Message: fmt.Sprintf("wrong number of operands for %s", op),
		Value:   op,
		Details: map[string]string{
			"operator": string(op),
			"operands": fmt.Sprintf("%d", got),
		},
	}
}

// NewArityError creates an Error for a fill argument count mismatch.
func NewArityError(want, got int) *Error {
	return &Error{
		Kind:    ErrArityMismatch,
		Message: fmt.Sprintf("template expects %d arguments, got %d", want, got),
		Details: map[string]string{
			"want": fmt.Sprintf("%d", want),
			"got":  fmt.Sprintf("%d", got),
		},
	}
}

// describe renders an offending value for messages.
func describe(v any) string {
	if e, ok := v.(ir.Expr); ok {
		return ir.Print(e)
	}
	return fmt.Sprintf("%#v", v)
}
