package exec

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Escaper turns s into a single shell word that evaluates back to s.
type Escaper func(s string) string

// Escape quotes s with go-shellquote: plain words stay bare, special
// characters are backslash-escaped, and whitespace switches to single quotes.
// Words containing a tilde are single-quoted, since in an assignment sh
// expands ~ after every unquoted colon, not only at the start.
func Escape(s string) string {
	if strings.ContainsRune(s, '~') {
		return Quote(s)
	}
	return shellquote.Join(s)
}

// Quote always single-quotes s for POSIX shells.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// JoinArgs escapes each argument with esc and joins them with spaces.
func JoinArgs(esc Escaper, args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = esc(arg)
	}
	return strings.Join(quoted, " ")
}

// SplitArgs splits a command-line fragment into words using shell rules.
func SplitArgs(s string) ([]string, error) {
	words, err := shellquote.Split(s)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", s, err)
	}
	return words, nil
}

// EscaperByName maps a configuration name to an Escaper. The empty name
// selects Escape.
func EscaperByName(name string) (Escaper, error) {
	switch strings.ToLower(name) {
	case "", "shellquote":
		return Escape, nil
	case "posix", "single":
		return Quote, nil
	default:
		return nil, fmt.Errorf("unknown escaper %q (supported: shellquote, posix)", name)
	}
}
