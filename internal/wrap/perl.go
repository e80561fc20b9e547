package wrap

import (
	"context"
	"strconv"
	"strings"

	"shwrap/internal/store"
	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
)

const (
	// PerlLibVar is the search path variable set by WithPerlDeps.
	PerlLibVar = "PERL5LIB"

	perlSiteDir = "lib/perl5/site_perl"
)

// PerlOptions configures WithPerlDeps.
type PerlOptions struct {
	// Deps selects the dependencies from the package set. It is called once.
	Deps       func(store.PackageSet) []*store.Artifact
	CheckPhase string

	Name   string
	Shell  string
	Escape exec.Escaper
}

// PerlLibPath joins the site_perl directory of every dependency with ":".
func PerlLibPath(deps []*store.Artifact) string {
	dirs := make([]string, len(deps))
	for i, d := range deps {
		dirs[i] = d.Lib(perlSiteDir)
	}
	return strings.Join(dirs, ":")
}

// WithPerlDeps wraps exe with PERL5LIB pointing at the selected packages.
// Any PERL5LIB inherited at runtime is replaced, not extended.
func WithPerlDeps(ctx context.Context, b store.Builder, exe Executable, opts PerlOptions, pkgs store.PackageSet) (*store.Artifact, error) {
	if opts.Deps == nil {
		return nil, e.New(e.ErrInvalidInput, "perl wrapper: no dependency selector given")
	}
	deps := opts.Deps(pkgs)
	refs := make([]string, 0, len(deps))
	for i, d := range deps {
		if err := d.Validate(); err != nil {
			return nil, e.Wrap(err, e.ErrInvalidDependency, "perl dependency "+strconv.Itoa(i))
		}
		refs = append(refs, d.Hash)
	}
	return Wrap(ctx, b, exe, Config{
		Name:       opts.Name,
		Env:        map[string]string{PerlLibVar: PerlLibPath(deps)},
		CheckPhase: opts.CheckPhase,
		Shell:      opts.Shell,
		Escape:     opts.Escape,
		Refs:       refs,
	})
}
