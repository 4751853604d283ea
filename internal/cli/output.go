package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/sexpsql/internal/config"
	"github.com/roach88/sexpsql/internal/querysql"
	"github.com/roach88/sexpsql/internal/reader"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Suite failures or statements the database rejected
	ExitCommandError = 2 // Command error (unreadable input, compile errors, bad config, etc.)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeSyntax     = "E002" // Expression text could not be read
	ErrCodeConfig     = "E003" // Config file invalid
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeExecFailed = "E201" // Database rejected the statement

	// Compile and fill errors, one per querysql.ErrorKind.
	ErrCodeInvalidIdentifier    = "E101"
	ErrCodeInvalidVector        = "E102"
	ErrCodeWrongOperandCount    = "E103"
	ErrCodeArityMismatch        = "E104"
	ErrCodeInvalidParameterKind = "E105"
	ErrCodeInvalidSchema        = "E106"
)

var kindCodes = map[querysql.ErrorKind]string{
	querysql.ErrInvalidIdentifier:    ErrCodeInvalidIdentifier,
	querysql.ErrInvalidVector:        ErrCodeInvalidVector,
	querysql.ErrWrongOperandCount:    ErrCodeWrongOperandCount,
	querysql.ErrArityMismatch:        ErrCodeArityMismatch,
	querysql.ErrInvalidParameterKind: ErrCodeInvalidParameterKind,
	querysql.ErrInvalidSchema:        ErrCodeInvalidSchema,
}

// ErrorCode returns the CLI error code for err.
func ErrorCode(err error) string {
	if kind := querysql.KindOf(err); kind != "" {
		if code, ok := kindCodes[kind]; ok {
			return code
		}
	}

	var syntaxErr *reader.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ErrCodeSyntax
	}
	var configErr *config.Error
	if errors.As(err, &configErr) {
		return ErrCodeConfig
	}
	return ErrCodeGeneric
}

// errorDetails returns structured context for err, if it carries any.
func errorDetails(err error) any {
	var qe *querysql.Error
	if errors.As(err, &qe) {
		details := map[string]string{"kind": string(qe.Kind)}
		for k, v := range qe.Details {
			details[k] = v
		}
		return details
	}

	var syntaxErr *reader.SyntaxError
	if errors.As(err, &syntaxErr) {
		return map[string]any{
			"line":   syntaxErr.Pos.Line,
			"column": syntaxErr.Pos.Column,
		}
	}
	return nil
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure (1) if the error is not an
// ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`           // "ok" or "error"
	Data   any       `json:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty"`  // error details
	RunID  string    `json:"run_id,omitempty"` // execution log correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// Text output prints data with fmt.Println; commands with richer text
// output write it themselves.
func (f *OutputFormatter) Success(data any) error {
	return f.SuccessWithRun(data, "")
}

// SuccessWithRun is Success with a run ID attached to the JSON response.
func (f *OutputFormatter) SuccessWithRun(data any, runID string) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "ok",
			Data:   data,
			RunID:  runID,
		})
	}

	// Human-readable text output
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns an ExitError carrying exitCode.
func (f *OutputFormatter) Fail(exitCode int, err error) error {
	code := ErrorCode(err)
	_ = f.Error(code, err.Error(), errorDetails(err))
	return WrapExitError(exitCode, code, err)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
