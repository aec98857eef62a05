package loxlog

import "golang.org/x/term"

// isTerminalFd reports whether fd refers to an interactive terminal, used
// only to decide whether the console writer should colorize output.
func isTerminalFd(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
