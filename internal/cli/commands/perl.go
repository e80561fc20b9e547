package commands

import (
	"context"
	"fmt"
	"strings"

	"shwrap/internal/config"
	"shwrap/internal/manifest"
	"shwrap/internal/store"
	"shwrap/internal/wrap"
	e "shwrap/pkg/errors"
	"shwrap/pkg/terminal"
)

// Perl wraps a Perl program so PERL5LIB points at the given packages.
// Packages come from a manifest's packages table or are given inline.
// Usage:
//
//	shwrap perl <exe> --pkg NAME[=DIR]... [--manifest F] [--name N] [--check S] [--shell P]
func Perl(cfg *config.Config, args []string) error {
	cfg = orDefault(cfg)
	var (
		exe, manifestPath string
		names             []string
		inline            = map[string]string{}
		opts              wrap.PerlOptions
	)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok, err := flagValue(args, &i, "--pkg"); ok {
			if err != nil {
				return err
			}
			name, dir, hasDir := strings.Cut(v, "=")
			if name == "" {
				return e.New(e.ErrInvalidInput, "--pkg needs a package name")
			}
			if hasDir {
				inline[name] = dir
			}
			names = append(names, name)
		} else if v, ok, err := flagValue(args, &i, "--manifest"); ok {
			if err != nil {
				return err
			}
			manifestPath = v
		} else if v, ok, err := flagValue(args, &i, "--name"); ok {
			if err != nil {
				return err
			}
			opts.Name = v
		} else if v, ok, err := flagValue(args, &i, "--check"); ok {
			if err != nil {
				return err
			}
			opts.CheckPhase += v + "\n"
		} else if v, ok, err := flagValue(args, &i, "--shell"); ok {
			if err != nil {
				return err
			}
			opts.Shell = v
		} else if strings.HasPrefix(a, "--") {
			return e.New(e.ErrInvalidInput, "unknown flag: "+a)
		} else if exe == "" {
			exe = a
		} else {
			return e.New(e.ErrInvalidInput, "unexpected argument: "+a)
		}
	}
	if exe == "" {
		return e.New(e.ErrInvalidInput, "no executable given").
			WithSuggestion("Usage: shwrap perl <exe> --pkg NAME[=DIR]... [--manifest F]")
	}
	if len(names) == 0 {
		return e.New(e.ErrInvalidInput, "no packages given").
			WithSuggestion("Select packages with --pkg NAME")
	}

	pkgs := store.PackageSet{}
	if manifestPath != "" {
		m, err := config.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		if pkgs, err = manifest.Packages(m); err != nil {
			return err
		}
	}
	for name, dir := range inline {
		a, err := store.External(dir)
		if err != nil {
			return e.Wrap(err, e.ErrInvalidDependency, "package "+name)
		}
		a.Name = name
		pkgs[name] = a
	}
	selected, err := pkgs.Lookup(names...)
	if err != nil {
		return e.Wrap(err, e.ErrArtifactNotFound, "unknown perl package").
			WithSuggestion("Give the package directory with --pkg NAME=DIR or declare it in a manifest")
	}
	opts.Deps = func(store.PackageSet) []*store.Artifact { return selected }
	if opts.Shell == "" {
		opts.Shell = cfg.Shell
	}
	if opts.Escape, err = cfg.Escape(); err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	exePath, err := absPath(exe)
	if err != nil {
		return err
	}
	a, err := wrap.WithPerlDeps(context.Background(), s, wrap.ExecutablePath(exePath), opts, pkgs)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s %s %s\n", terminal.IconWrap, terminal.BoldText(a.Name), terminal.IconArrow, a.ResolvePath())
	fmt.Printf("   %s=%s\n", wrap.PerlLibVar, wrap.PerlLibPath(selected))
	return nil
}
