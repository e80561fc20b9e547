package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shwrap/internal/config"
	e "shwrap/pkg/errors"
	"shwrap/pkg/logger"
	"shwrap/pkg/provenance"
)

// lineOp transforms the lines of a file, trailing newline excluded.
type lineOp func([]string) []string

var lineOps = map[string]lineOp{
	"--number": func(lines []string) []string {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = fmt.Sprintf("%6d\t%s", i+1, l)
		}
		return out
	},
	"--trim": func(lines []string) []string {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[i] = strings.TrimSpace(l)
		}
		return out
	},
	"--reverse": func(lines []string) []string {
		out := make([]string, len(lines))
		for i, l := range lines {
			out[len(lines)-1-i] = l
		}
		return out
	},
	"--squeeze": func(lines []string) []string {
		out := make([]string, 0, len(lines))
		for _, l := range lines {
			if l == "" && len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, l)
		}
		return out
	},
}

// applyLineOps runs ops over s line by line. A trailing newline is kept out
// of the transformation and restored afterwards.
func applyLineOps(s provenance.String, ops []lineOp) provenance.String {
	return provenance.MapLines(s, func(lines []string) []string {
		trailing := len(lines) > 1 && lines[len(lines)-1] == ""
		if trailing {
			lines = lines[:len(lines)-1]
		}
		for _, op := range ops {
			lines = op(lines)
		}
		if trailing {
			lines = append(lines, "")
		}
		return lines
	})
}

// Lines rewrites a file line by line and prints the result. Transformations
// run in the order given. A file inside the store keeps its artifact
// reference.
// Usage:
//
//	shwrap lines <file|-> [--number] [--trim] [--reverse] [--squeeze]
func Lines(cfg *config.Config, args []string) error {
	cfg = orDefault(cfg)
	var (
		file string
		ops  []lineOp
	)
	for _, a := range args {
		if op, ok := lineOps[a]; ok {
			ops = append(ops, op)
			continue
		}
		if strings.HasPrefix(a, "--") {
			return e.New(e.ErrInvalidInput, "unknown flag: "+a).
				WithSuggestion("Supported: --number, --trim, --reverse, --squeeze")
		}
		if file != "" {
			return e.New(e.ErrInvalidInput, "unexpected argument: "+a)
		}
		file = a
	}
	if file == "" {
		return e.New(e.ErrInvalidInput, "no file given").
			WithSuggestion("Usage: shwrap lines <file|-> [--number] [--trim] [--reverse] [--squeeze]")
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return e.Wrap(err, e.ErrInvalidInput, "read "+file)
	}

	src := provenance.Plain(string(data))
	if abs, err := filepath.Abs(file); err == nil && file != "-" && strings.HasPrefix(abs, cfg.StoreRoot()+string(filepath.Separator)) {
		if s, err := openStore(cfg); err == nil {
			if a, err := s.Get(abs); err == nil {
				src = provenance.Of(src.Value, a.Hash)
			}
		}
	}

	out := applyLineOps(src, ops)
	if refs := out.Refs(); len(refs) > 0 {
		logger.Verbosef("references: %s", strings.Join(refs, ", "))
	}
	fmt.Print(out.Value)
	return nil
}
