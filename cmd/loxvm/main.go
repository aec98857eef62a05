// Command loxvm runs Lox programs: a file given on the command line, or
// an interactive REPL when none is given. It exits 65 on a compile
// error and 70 on a runtime error, matching sysexits.h conventions.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/kristofer/loxvm/internal/loxerr"
	"github.com/kristofer/loxvm/internal/loxlog"
	"github.com/kristofer/loxvm/pkg/vm"
	"golang.org/x/term"
)

const (
	exitCompileError = 65
	exitRuntimeError = 70
)

func main() {
	trace := false
	args := os.Args[1:]
	var filtered []string
	for _, a := range args {
		if a == "-trace" || a == "--trace" {
			trace = true
			continue
		}
		filtered = append(filtered, a)
	}

	logger := loxlog.Default(trace)

	switch len(filtered) {
	case 0:
		runREPL(logger, trace)
	case 1:
		runFile(filtered[0], logger, trace)
	default:
		fmt.Fprintln(os.Stderr, "Usage: loxvm [-trace] [script]")
		os.Exit(64)
	}
}

func runFile(path string, logger *loxlog.Logger, trace bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal(err, "could not read script")
	}

	machine := vm.New(logger, trace)
	if err := machine.Interpret(string(data)); err != nil {
		reportAndExit(err)
	}
}

// runREPL reads one line at a time and interprets it as a complete
// program — a deliberately simple line-buffered loop, with no multi-line
// continuation or history. golang.org/x/term is used only to detect
// whether stdin is a TTY, so the prompt is suppressed when input is
// piped.
func runREPL(logger *loxlog.Logger, trace bool) {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	machine := vm.New(logger, trace)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := machine.Interpret(line); err != nil {
			report(err)
		}
	}
}

func reportAndExit(err error) {
	report(err)
	if _, ok := err.(*loxerr.CompileErrors); ok {
		os.Exit(exitCompileError)
	}
	os.Exit(exitRuntimeError)
}

func report(err error) {
	fmt.Fprintln(os.Stderr, err)
}
