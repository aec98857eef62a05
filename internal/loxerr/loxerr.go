// Package loxerr defines the error types that cross the compiler/VM
// boundary with the program, split along the two failure phases the CLI
// assigns distinct process exit codes to: compile-time diagnostics and
// runtime faults.
package loxerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CompileError is one diagnostic produced while compiling: the source
// line it was reported at and its message.
type CompileError struct {
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

// CompileErrors collects every diagnostic produced while compiling one
// source unit. Panic-mode recovery in the compiler lets more than one
// accumulate before giving up.
type CompileErrors struct {
	Errors []error
}

func (e *CompileErrors) Error() string {
	lines := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		lines[i] = err.Error()
	}
	return strings.Join(lines, "\n")
}

// NewCompileErrors wraps a non-empty slice of per-diagnostic errors, or
// returns nil if the slice is empty — so callers can write
// `if err := NewCompileErrors(errs); err != nil { ... }`.
func NewCompileErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &CompileErrors{Errors: errs}
}

// Frame is one entry of a runtime stack trace: the function name active
// at the point of the fault and the source line it was executing.
type Frame struct {
	FunctionName string
	Line         int
}

func (f Frame) String() string {
	name := f.FunctionName
	if name == "" {
		name = "script"
	}
	return fmt.Sprintf("[line %d] in %s", f.Line, name)
}

// RuntimeError is a fault raised while executing bytecode: an out of
// range arithmetic operand, an arity mismatch, an undefined global, a
// property access on a non-instance, and so on. It carries the call
// stack active at the moment of the fault, innermost frame first, so the
// CLI can print a trace resembling a native panic.
type RuntimeError struct {
	Message string
	Trace   []Frame
	cause   error
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Trace {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() error { return e.cause }

// NewRuntimeError constructs a RuntimeError from a formatted message and
// the call trace active when the fault occurred.
func NewRuntimeError(trace []Frame, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Trace: trace}
}

// WrapNativeError attaches a call trace to a failure returned by a native
// function. The failure is wrapped with github.com/pkg/errors, which
// records the stack at the point of wrapping, and kept as the error
// chain's cause, reachable through Unwrap.
func WrapNativeError(cause error, trace []Frame, nativeName string) *RuntimeError {
	wrapped := errors.Wrapf(cause, "error in native function %s", nativeName)
	return &RuntimeError{Message: wrapped.Error(), Trace: trace, cause: wrapped}
}

// EmptyStackError signals that the VM underflowed its value stack — not a
// Lox program error but a compiler/VM bug, since a correctly compiled
// chunk never pops more than it has pushed. Kept distinct from
// RuntimeError so a host embedding can tell "the Lox program failed"
// apart from "the interpreter itself is broken".
type EmptyStackError struct {
	Site string
}

func (e *EmptyStackError) Error() string {
	return fmt.Sprintf("internal error: value stack underflow in %s", e.Site)
}

// NewEmptyStackError constructs the error this package's doc describes as
// the distinct stack-underflow signal, for use by a recover() at the
// VM's outermost boundary.
func NewEmptyStackError(site string) *EmptyStackError {
	return &EmptyStackError{Site: site}
}
