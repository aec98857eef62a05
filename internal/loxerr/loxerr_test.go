package loxerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCompileErrorsReturnsNilForEmptySlice(t *testing.T) {
	assert.Nil(t, NewCompileErrors(nil))
	assert.Nil(t, NewCompileErrors([]error{}))
}

func TestCompileErrorsJoinsMessages(t *testing.T) {
	err := NewCompileErrors([]error{
		&CompileError{Line: 1, Message: "first"},
		&CompileError{Line: 2, Message: "second"},
	})
	assert.Contains(t, err.Error(), "[line 1] Error: first")
	assert.Contains(t, err.Error(), "[line 2] Error: second")
}

func TestRuntimeErrorRendersTrace(t *testing.T) {
	err := NewRuntimeError([]Frame{
		{FunctionName: "fib", Line: 3},
		{FunctionName: "", Line: 7},
	}, "Undefined variable '%s'.", "x")

	rendered := err.Error()
	assert.Contains(t, rendered, "Undefined variable 'x'.")
	assert.Contains(t, rendered, "[line 3] in fib")
	assert.Contains(t, rendered, "[line 7] in script")
}

func TestWrapNativeErrorPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := WrapNativeError(cause, nil, "clock")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "clock")
}

func TestEmptyStackErrorNamesTheSite(t *testing.T) {
	err := NewEmptyStackError("OP_ADD")
	assert.Contains(t, err.Error(), "OP_ADD")
}
