// Package checks generates shell snippets that assert file preconditions.
// A snippet prints a diagnostic naming the file and exits the whole script
// with status 1 when the precondition does not hold, so snippets compose by
// concatenation.
package checks

import (
	"fmt"
	"strings"

	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
)

// Ref is anything that resolves to a file path: a raw path or a store artifact.
type Ref interface {
	ResolvePath() string
}

// Path is a raw file path.
type Path string

// ResolvePath implements Ref.
func (p Path) ResolvePath() string { return string(p) }

// Checker renders snippets with a specific escaper.
type Checker struct {
	Escape exec.Escaper
}

// Default uses exec.Escape.
var Default = Checker{Escape: exec.Escape}

// FileIsExecutable checks that ref is a regular, readable, executable file.
func FileIsExecutable(ref Ref) (string, error) { return Default.FileIsExecutable(ref) }

// FileIsReadable checks that ref is a regular, readable file.
func FileIsReadable(ref Ref) (string, error) { return Default.FileIsReadable(ref) }

// FileIsExecutable checks that ref is a regular, readable, executable file.
func (c Checker) FileIsExecutable(ref Ref) (string, error) {
	return c.snippet(ref, "fileIsExecutable", "is not a readable executable file", "-f", "-r", "-x")
}

// FileIsReadable checks that ref is a regular, readable file.
func (c Checker) FileIsReadable(ref Ref) (string, error) {
	return c.snippet(ref, "fileIsReadable", "is not a readable file", "-f", "-r")
}

func (c Checker) snippet(ref Ref, check, problem string, tests ...string) (string, error) {
	if ref == nil {
		return "", e.New(e.ErrInvalidInput, check+": missing file reference")
	}
	path := ref.ResolvePath()
	if path == "" {
		return "", e.New(e.ErrInvalidInput, check+": file path is empty")
	}
	esc := c.Escape
	if esc == nil {
		esc = exec.Escape
	}
	quoted := esc(path)

	conds := make([]string, len(tests))
	for i, t := range tests {
		conds[i] = fmt.Sprintf("[ ! %s %s ]", t, quoted)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "if %s; then\n", strings.Join(conds, " || "))
	fmt.Fprintf(&sb, "  printf '%%s: %%s %s\\n' %s %s >&2\n", problem, exec.Quote(check), quoted)
	sb.WriteString("  exit 1\n")
	sb.WriteString("fi\n")
	return sb.String(), nil
}
