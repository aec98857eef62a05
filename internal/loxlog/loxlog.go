// Package loxlog provides the structured logger shared by cmd/loxvm and
// pkg/vm: startup/shutdown lifecycle events, fatal diagnostics, and the
// per-instruction execution trace behind the -trace flag.
package loxlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger so callers don't need to import zerolog
// directly for the handful of events loxvm emits outside of Lox's own
// print/runtime-error output.
type Logger struct {
	zl zerolog.Logger
}

// New builds a console-friendly logger writing to w. trace enables
// debug-level output (used for the per-instruction execution trace);
// otherwise only info-and-above is emitted.
func New(w io.Writer, trace bool) *Logger {
	level := zerolog.InfoLevel
	if trace {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminalWriter(w)}
	zl := zerolog.New(console).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Default builds the logger cmd/loxvm uses for its own lifecycle
// messages, writing to stderr so stdout stays reserved for Lox's `print`
// output.
func Default(trace bool) *Logger {
	return New(os.Stderr, trace)
}

func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}
func (l *Logger) Fatal(err error, msg string) {
	l.zl.Fatal().Err(err).Msg(msg)
}

// Trace logs one executed instruction at debug level. The VM calls this
// only when running with -trace, so it costs nothing otherwise.
func (l *Logger) Trace(offset int, rendered string) {
	l.zl.Debug().Int("offset", offset).Msg(rendered)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isTerminalFd(f.Fd())
}
