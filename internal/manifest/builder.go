// Package manifest builds every wrapper declared in a manifest file.
package manifest

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"shwrap/internal/config"
	"shwrap/internal/store"
	"shwrap/internal/wrap"
	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
	"shwrap/pkg/logger"
)

// Store is the part of the artifact store the builder needs: building, and
// resolving dependencies that name earlier artifacts.
type Store interface {
	store.Builder
	Get(ref string) (*store.Artifact, error)
}

// Builder builds manifests against one store.
type Builder struct {
	Store Store
	// Shell is used when the manifest sets none.
	Shell  string
	Escape exec.Escaper
	// Jobs bounds concurrent wrapper builds; GOMAXPROCS when < 1.
	Jobs int
	// OnBuilt, if set, is called from the build goroutines after each
	// successful wrapper build.
	OnBuilt func(Result)
}

// Result pairs a manifest entry with the artifact built for it.
type Result struct {
	Wrapper  config.Wrapper
	Artifact *store.Artifact
}

// Build builds all wrappers of m. Results are in manifest order. The first
// failure cancels the remaining builds.
func (b *Builder) Build(ctx context.Context, m *config.Manifest) ([]Result, error) {
	if b.Store == nil {
		return nil, e.New(e.ErrInvalidConfig, "manifest builder has no store")
	}
	pkgs, err := Packages(m)
	if err != nil {
		return nil, err
	}
	jobs := b.Jobs
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}

	logger.StartTimer("manifest " + m.Path())
	defer logger.EndTimer("manifest " + m.Path())

	results := make([]Result, len(m.Wrappers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, w := range m.Wrappers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := b.buildOne(gctx, m, pkgs, w)
			if err != nil {
				return e.Wrap(err, e.CodeOf(err), "wrapper "+w.DefaultName())
			}
			logger.Verbosew("wrapper built", logger.Fields{"name": a.Name, "path": a.ResolvePath()})
			results[i] = Result{Wrapper: w, Artifact: a}
			if b.OnBuilt != nil {
				b.OnBuilt(results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) buildOne(ctx context.Context, m *config.Manifest, pkgs store.PackageSet, w config.Wrapper) (*store.Artifact, error) {
	exe := wrap.ExecutablePath(m.Resolve(w.Executable))
	shell := m.Shell
	if shell == "" {
		shell = b.Shell
	}

	if len(w.PerlDeps) > 0 {
		selected, err := pkgs.Lookup(w.PerlDeps...)
		if err != nil {
			return nil, err
		}
		return wrap.WithPerlDeps(ctx, b.Store, exe, wrap.PerlOptions{
			Deps:       func(store.PackageSet) []*store.Artifact { return selected },
			CheckPhase: w.CheckPhase,
			Name:       w.Name,
			Shell:      shell,
			Escape:     b.Escape,
		}, pkgs)
	}

	deps := make([]*store.Artifact, 0, len(w.Deps))
	for _, d := range w.Deps {
		a, err := b.resolveDep(m, pkgs, d)
		if err != nil {
			return nil, err
		}
		deps = append(deps, a)
	}
	return wrap.Wrap(ctx, b.Store, exe, wrap.Config{
		Name:       w.Name,
		Deps:       deps,
		Env:        w.Env,
		Args:       w.Args,
		CheckPhase: w.CheckPhase,
		Shell:      shell,
		Escape:     b.Escape,
	})
}

// resolveDep looks ref up as a manifest package, then as a path when it
// contains a slash, then as a store artifact.
func (b *Builder) resolveDep(m *config.Manifest, pkgs store.PackageSet, ref string) (*store.Artifact, error) {
	if a, ok := pkgs[ref]; ok {
		return a, nil
	}
	if strings.Contains(ref, "/") {
		return store.External(m.Resolve(ref))
	}
	a, err := b.Store.Get(ref)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidDependency, "resolve dependency "+ref).
			WithSuggestion("Declare it under packages, give a path, or build it into the store first")
	}
	return a, nil
}

// Packages turns the manifest's package table into external artifacts.
func Packages(m *config.Manifest) (store.PackageSet, error) {
	pkgs := make(store.PackageSet, len(m.Packages))
	for name, p := range m.Packages {
		a, err := store.External(m.Resolve(p))
		if err != nil {
			return nil, e.Wrap(err, e.ErrInvalidDependency, "package "+name)
		}
		a.Name = name
		pkgs[name] = a
	}
	return pkgs, nil
}
