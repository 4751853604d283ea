package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sexpsql/internal/config"
	"github.com/roach88/sexpsql/internal/querysql"
	"github.com/roach88/sexpsql/internal/reader"
	"github.com/roach88/sexpsql/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"sql": "SELECT 1 < 2"}
	err := formatter.Success(data)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "SELECT 1 < 2", "SQL is not HTML-escaped")

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.RunID)
}

func TestOutputFormatter_JSONSuccessWithRun(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.SuccessWithRun("done", "run-7"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "run-7", resp.RunID)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeGeneric, "compilation failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "compilation failed", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E101", "invalid identifier", map[string]string{"kind": "INVALID_IDENTIFIER"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E101]")
	assert.Contains(t, buf.String(), "invalid identifier")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"operator": "<="}
	err := formatter.Error("E103", "wrong operand count", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E103]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	_, cause := querysql.Compile(testutil.Expr(t, `[:select * :from t :where (<= a b c d)]`))
	require.Error(t, cause)

	err := formatter.Fail(ExitCommandError, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, querysql.IsKind(err, querysql.ErrWrongOperandCount))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeWrongOperandCount, resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "WRONG_OPERAND_COUNT", details["kind"])
	assert.Equal(t, "<=", details["operator"])
}

func TestErrorCode(t *testing.T) {
	_, syntaxErr := reader.Parse("[:select")
	require.Error(t, syntaxErr)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"arity", querysql.NewArityError(2, 1), ErrCodeArityMismatch},
		{"wrapped kind", fmt.Errorf("argument $i1: %w", querysql.NewArityError(1, 0)), ErrCodeArityMismatch},
		{"syntax", syntaxErr, ErrCodeSyntax},
		{"config", &config.Error{Field: "types", Message: "bad"}, ErrCodeConfig},
		{"other", errors.New("boom"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorCode_EveryKindMapped(t *testing.T) {
	for _, kind := range querysql.ErrorKinds() {
		_, ok := kindCodes[kind]
		assert.True(t, ok, "no code for %s", kind)
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := WrapExitError(ExitFailure, "outer", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "outer: cause", err.Error())
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}
