package wrap

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"shwrap/internal/checks"
	"shwrap/internal/store"
	"shwrap/internal/validate"
	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
	"shwrap/pkg/logger"
	"shwrap/pkg/provenance"
)

// DefaultShell is the interpreter named in the wrapper's shebang.
const DefaultShell = "/bin/sh"

// pathVar is handled separately from the other environment overrides.
const pathVar = "PATH"

// Executable is the program being wrapped.
type Executable struct {
	Path provenance.String
	// Name is the default wrapper name; empty means the base name of Path.
	Name string
}

// ExecutablePath references a plain file path.
func ExecutablePath(p string) Executable {
	return Executable{Path: provenance.Plain(p)}
}

// ExecutableOf references the installed file of a store artifact.
func ExecutableOf(a *store.Artifact) Executable {
	return Executable{Path: provenance.Of(a.ResolvePath(), a.Hash), Name: a.Name}
}

// ResolvePath implements checks.Ref.
func (x Executable) ResolvePath() string { return x.Path.Value }

// DefaultName is Name, or the base name of Path.
func (x Executable) DefaultName() string {
	if x.Name != "" {
		return x.Name
	}
	if x.Path.Value == "" {
		return ""
	}
	return filepath.Base(x.Path.Value)
}

// Config customizes a wrapper. The zero value wraps the executable as is.
type Config struct {
	// Name of the wrapper; defaults to the executable's default name.
	Name string
	// Deps have their bin directories prepended to PATH, in order.
	Deps []*store.Artifact
	// Env sets variables for the wrapped program. An explicit PATH is
	// extended by Deps rather than replaced.
	Env map[string]string
	// Args are passed before the arguments given to the wrapper.
	Args []string
	// CheckPhase is appended to the generated checks.
	CheckPhase string

	// Shell is the wrapper's interpreter; DefaultShell when empty.
	Shell string
	// Escape quotes values for the script; exec.Escape when nil.
	Escape exec.Escaper
	// Refs are extra artifact hashes recorded on the wrapper.
	Refs []string
}

// Script is a rendered wrapper ready to be emitted.
type Script struct {
	Name  string
	Check string
	Body  provenance.String
}

// Wrap renders a wrapper for exe and commits it through b.
func Wrap(ctx context.Context, b store.Builder, exe Executable, cfg Config) (*store.Artifact, error) {
	s, err := Render(exe, cfg)
	if err != nil {
		return nil, err
	}
	logger.Verbosew("emitting wrapper", logger.Fields{"name": s.Name, "exe": exe.Path.Value})
	return Emit(ctx, b, s.Name, s.Check, s.Body)
}

// Render validates exe and cfg and produces the wrapper script and its
// check. It performs no I/O.
func Render(exe Executable, cfg Config) (*Script, error) {
	if err := validateInputs(exe, cfg); err != nil {
		return nil, err
	}
	esc := cfg.Escape
	if esc == nil {
		esc = exec.Escape
	}
	shell := cfg.Shell
	if shell == "" {
		shell = DefaultShell
	}

	name := cfg.Name
	if name == "" {
		name = exe.DefaultName()
	}
	if !validate.IsArtifactName(name) {
		return nil, e.New(e.ErrInvalidInput, "wrapper name cannot be used as a file name").WithContext("name", name)
	}

	assignments := envAssignments(cfg, esc)
	if p, ok := pathAssignment(cfg, esc); ok {
		assignments = append(assignments, p)
	}

	checker := checks.Checker{Escape: esc}
	shellCheck, err := checker.FileIsExecutable(checks.Path(shell))
	if err != nil {
		return nil, err
	}
	exeCheck, err := checker.FileIsExecutable(exe)
	if err != nil {
		return nil, err
	}

	words := make([]provenance.String, 0, len(assignments)+len(cfg.Args)+3)
	words = append(words, assignments...)
	words = append(words, provenance.Plain("exec"), exe.Path.WithValue(esc(exe.Path.Value)))
	if len(cfg.Args) > 0 {
		words = append(words, provenance.Plain(exec.JoinArgs(esc, cfg.Args)))
	}
	words = append(words, provenance.Plain(`"$@"`))

	body := provenance.Concat(
		provenance.Plain("#!"+shell+"\n"),
		provenance.Join(words, " "),
		provenance.Of("\n", cfg.Refs...),
	)
	return &Script{
		Name:  name,
		Check: shellCheck + exeCheck + cfg.CheckPhase,
		Body:  body,
	}, nil
}

func validateInputs(exe Executable, cfg Config) error {
	if !validate.IsNonEmptyString(exe.Path.Value) {
		return e.New(e.ErrInvalidInput, "executable path must be a non-empty string")
	}
	if strings.ContainsRune(exe.Path.Value, 0) {
		return e.New(e.ErrInvalidInput, "executable path contains a NUL byte")
	}
	if !filepath.IsAbs(exe.Path.Value) {
		return e.New(e.ErrInvalidInput, "executable path must be absolute").
			WithContext("path", exe.Path.Value).
			WithSuggestion("Wrappers run from any directory; pass an absolute path")
	}
	if cfg.Shell != "" && !filepath.IsAbs(cfg.Shell) {
		return e.New(e.ErrInvalidInput, "shell must be an absolute path").WithContext("shell", cfg.Shell)
	}
	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := cfg.Env[k]
		if k != pathVar && !validate.IsEnvName(k) {
			return e.New(e.ErrInvalidEnvName, "invalid environment variable name "+k).WithContext("name", k)
		}
		if strings.ContainsRune(v, 0) {
			return e.New(e.ErrInvalidInput, "environment value contains a NUL byte").WithContext("name", k)
		}
	}
	for i, a := range cfg.Args {
		if strings.ContainsRune(a, 0) {
			return e.New(e.ErrInvalidInput, "argument contains a NUL byte").WithContext("index", strconv.Itoa(i))
		}
	}
	for i, d := range cfg.Deps {
		if err := d.Validate(); err != nil {
			return e.Wrap(err, e.ErrInvalidDependency, "dependency "+strconv.Itoa(i))
		}
	}
	return nil
}

// envAssignments renders every non-PATH entry as KEY=value in key order.
func envAssignments(cfg Config, esc exec.Escaper) []provenance.String {
	keys := make([]string, 0, len(cfg.Env))
	for k := range cfg.Env {
		if k != pathVar {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]provenance.String, len(keys))
	for i, k := range keys {
		out[i] = provenance.Plain(k + "=" + esc(cfg.Env[k]))
	}
	return out
}

// pathAssignment computes PATH=... An explicit PATH is the base that deps
// extend; without one, deps extend the PATH the wrapper inherits at runtime.
// With neither, PATH is left alone.
func pathAssignment(cfg Config, esc exec.Escaper) (provenance.String, bool) {
	explicit, hasExplicit := cfg.Env[pathVar]
	if len(cfg.Deps) == 0 && !hasExplicit {
		return provenance.String{}, false
	}
	parts := make([]provenance.String, 0, len(cfg.Deps)+1)
	for _, d := range cfg.Deps {
		parts = append(parts, d.PathString().WithValue(esc(d.Bin())))
	}
	if hasExplicit {
		parts = append(parts, provenance.Plain(esc(explicit)))
	} else {
		parts = append(parts, provenance.Plain("$PATH"))
	}
	return provenance.Concat(provenance.Plain(pathVar+"="), provenance.Join(parts, ":")), true
}
