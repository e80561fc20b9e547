// Package cli: Central error handling for CLI
// Provides consistent error presentation, recovery attempts, and suggestions
package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	e "shwrap/pkg/errors"
	"shwrap/pkg/terminal"
)

// osExit enables test stubbing.
var osExit = os.Exit

// ErrorHandler handles errors consistently across the CLI
type ErrorHandler struct {
	verbose   bool
	debug     bool
	recoverer *e.Recoverer
}

// NewErrorHandler creates an error handler
func NewErrorHandler(verbose, debug bool) *ErrorHandler {
	return &ErrorHandler{
		verbose:   verbose,
		debug:     debug,
		recoverer: e.NewRecoverer(verbose),
	}
}

// Handle processes an error and displays it to the user
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var shErr *e.ShwrapError
	if stderrors.As(err, &shErr) {
		if shErr.Recoverable {
			if recErr := h.recoverer.Recover(shErr); recErr == nil {
				fmt.Println("Retry the command now that the store was cleaned up.")
				osExit(1)
				return
			}
		}
		h.displayError(shErr)
	} else {
		h.displayError(e.Wrap(err, e.ErrUnknown, "An unexpected error occurred"))
	}
	osExit(1)
}

func (h *ErrorHandler) displayError(err *e.ShwrapError) {
	fmt.Println()
	icon := h.getErrorIcon(err.Code)
	fmt.Printf("%s %s%s%s\n", icon, terminal.Bold, err.Message, terminal.Reset)

	// Verification output is always shown.
	if err.Details != "" && (h.verbose || err.Code == e.ErrVerifyFailed) {
		fmt.Printf("\n%s%s%s\n", terminal.Dim, err.Details, terminal.Reset)
	}

	if len(err.Context) > 0 && h.verbose {
		fmt.Println("\nContext:")
		keys := make([]string, 0, len(err.Context))
		for k := range err.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, err.Context[k])
		}
	}

	if err.Suggestion != "" {
		fmt.Printf("\n💡 %s%s%s\n", terminal.Yellow, err.Suggestion, terminal.Reset)
	}

	if err.Cause != nil && h.verbose {
		fmt.Printf("\n%sCaused by:%s\n", terminal.Dim, terminal.Reset)
		h.displayCauseChain(err.Cause, 1)
	}

	if h.debug && len(err.Stack) > 0 {
		fmt.Printf("\n%sStack trace:%s\n", terminal.Dim, terminal.Reset)
		for _, f := range err.Stack {
			fmt.Printf("  %s\n", h.formatStackFrame(f))
		}
	}

	fmt.Println()
	if !h.verbose {
		fmt.Printf("%sRun with --verbose for more details%s\n", terminal.Dim, terminal.Reset)
	}
	if !h.debug && err.Code == e.ErrUnknown {
		fmt.Printf("%sRun with --debug for stack trace%s\n", terminal.Dim, terminal.Reset)
	}
}

func (h *ErrorHandler) displayCauseChain(err error, depth int) {
	indent := strings.Repeat("  ", depth)
	if shErr, ok := err.(*e.ShwrapError); ok {
		fmt.Printf("%s• %s\n", indent, shErr.Message)
		if shErr.Cause != nil {
			h.displayCauseChain(shErr.Cause, depth+1)
		}
		return
	}
	fmt.Printf("%s• %s\n", indent, err.Error())
	if next := stderrors.Unwrap(err); next != nil {
		h.displayCauseChain(next, depth+1)
	}
}

func (h *ErrorHandler) formatStackFrame(frame e.StackFrame) string {
	file := frame.File
	if idx := strings.LastIndex(file, "/shwrap/"); idx >= 0 {
		file = "..." + file[idx:]
	}
	fn := frame.Function
	if idx := strings.LastIndex(fn, "."); idx >= 0 {
		fn = fn[idx+1:]
	}
	return fmt.Sprintf("%s:%d %s()", file, frame.Line, fn)
}

func (h *ErrorHandler) getErrorIcon(code e.ErrorCode) string {
	icons := map[e.ErrorCode]string{
		e.ErrInvalidInput:      "✏️",
		e.ErrInvalidEnvName:    "🔤",
		e.ErrInvalidDependency: "🧩",
		e.ErrVerifyFailed:      "🧪",
		e.ErrStoreIO:           "💾",
		e.ErrArtifactNotFound:  "🔍",
		e.ErrInvalidConfig:     "⚙️",
		e.ErrMissingConfig:     "📄",
		e.ErrUnknown:           "❓",
	}
	if ic, ok := icons[code]; ok {
		return ic
	}
	return "❌"
}
