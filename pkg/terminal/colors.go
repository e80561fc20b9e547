// Package terminal provides terminal output utilities.
package terminal

import (
	"os"
)

// Escape codes used by the CLI output.
const (
	Reset  = "\033[0m"
	Dim    = "\033[2m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
)

// IsTerminal checks if output is to a terminal
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func colorEnabled() bool {
	return os.Getenv("NO_COLOR") == "" && IsTerminal()
}

// Colorize wraps text in code when stdout is a terminal and NO_COLOR is unset.
func Colorize(code, text string) string {
	if !colorEnabled() {
		return text
	}
	return code + text + Reset
}

// Success renders text green.
func Success(text string) string { return Colorize(Green, text) }

// BoldText renders text bold.
func BoldText(text string) string { return Colorize(Bold, text) }
