// Package commands implements the shwrap subcommands. Each command takes its
// raw arguments and parses them with a small hand-written flag loop.
package commands

import (
	"path/filepath"
	"strconv"
	"strings"

	"shwrap/internal/config"
	"shwrap/internal/store"
	"shwrap/internal/validate"
	e "shwrap/pkg/errors"
)

// openStore is a testable indirection for opening the artifact store.
var openStore = func(cfg *config.Config) (*store.FS, error) {
	return store.Open(store.Options{Root: cfg.StoreRoot(), VerifyShell: cfg.VerifyShell})
}

func orDefault(cfg *config.Config) *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// flagValue matches args[*i] against "--name=value" or "--name value". On a
// match it advances *i past any consumed value.
func flagValue(args []string, i *int, name string) (string, bool, error) {
	a := args[*i]
	if v, ok := strings.CutPrefix(a, name+"="); ok {
		return v, true, nil
	}
	if a != name {
		return "", false, nil
	}
	if *i+1 >= len(args) {
		return "", true, e.New(e.ErrInvalidInput, name+" requires a value")
	}
	*i++
	return args[*i], true, nil
}

// parseJobs parses a --jobs value.
func parseJobs(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || !validate.IsPositiveNaturalNumber(n) {
		return 0, e.New(e.ErrInvalidInput, "--jobs must be a positive number, got "+v)
	}
	return n, nil
}

// parseEnv splits KEY=VALUE.
func parseEnv(kv string) (string, string, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", "", e.New(e.ErrInvalidInput, "--env expects KEY=VALUE, got "+kv)
	}
	return k, v, nil
}

// resolveDep treats refs containing a slash as directories and everything
// else as store artifacts.
func resolveDep(s *store.FS, ref string) (*store.Artifact, error) {
	if strings.Contains(ref, "/") {
		return store.External(ref)
	}
	a, err := s.Get(ref)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidDependency, "dependency "+ref)
	}
	return a, nil
}

// absPath resolves a command-line path against the working directory.
func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", e.Wrap(err, e.ErrInvalidInput, "resolve "+p)
	}
	return abs, nil
}
