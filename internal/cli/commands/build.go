package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shwrap/internal/config"
	"shwrap/internal/manifest"
	e "shwrap/pkg/errors"
	"shwrap/pkg/terminal"
)

type buildOptions struct {
	manifest string
	jobs     int
}

func parseBuildArgs(cmd string, args []string) (*buildOptions, error) {
	o := &buildOptions{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok, err := flagValue(args, &i, "--jobs"); ok {
			if err != nil {
				return nil, err
			}
			if o.jobs, err = parseJobs(v); err != nil {
				return nil, err
			}
		} else if v, ok, err := flagValue(args, &i, "-j"); ok {
			if err != nil {
				return nil, err
			}
			if o.jobs, err = parseJobs(v); err != nil {
				return nil, err
			}
		} else if strings.HasPrefix(a, "-") {
			return nil, e.New(e.ErrInvalidInput, "unknown flag: "+a)
		} else if o.manifest == "" {
			o.manifest = a
		} else {
			return nil, e.New(e.ErrInvalidInput, "unexpected argument: "+a)
		}
	}
	if o.manifest == "" {
		return nil, e.New(e.ErrMissingConfig, "no manifest given").
			WithSuggestion(fmt.Sprintf("Usage: shwrap %s <manifest.yaml> [--jobs N]", cmd))
	}
	return o, nil
}

func newBuilder(cfg *config.Config, jobs int) (*manifest.Builder, error) {
	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	esc, err := cfg.Escape()
	if err != nil {
		return nil, err
	}
	return &manifest.Builder{Store: s, Shell: cfg.Shell, Escape: esc, Jobs: jobs}, nil
}

// runManifest loads and builds a manifest, printing one line per wrapper.
func runManifest(ctx context.Context, b *manifest.Builder, path string) (*config.Manifest, error) {
	m, err := config.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	start := timeNowFn()
	bar := terminal.NewProgressBar(len(m.Wrappers), terminal.IconBuild+" wrappers")
	b.OnBuilt = func(manifest.Result) { bar.Increment() }
	results, err := b.Build(ctx, m)
	if err != nil {
		return m, err
	}
	bar.Finish()
	for _, r := range results {
		fmt.Printf("  %s %-20s %s\n", terminal.Success(terminal.IconCheck), r.Artifact.Name, r.Artifact.ResolvePath())
	}
	fmt.Printf("%s Built %d wrapper(s) in %.2fs\n", terminal.IconSuccess, len(results), timeNowFn().Sub(start).Seconds())
	return m, nil
}

// timeNowFn is a testable indirection for time
var timeNowFn = time.Now

// Build builds every wrapper in a manifest.
// Usage:
//
//	shwrap build <manifest.yaml> [--jobs N]
func Build(cfg *config.Config, args []string) error {
	cfg = orDefault(cfg)
	o, err := parseBuildArgs("build", args)
	if err != nil {
		return err
	}
	b, err := newBuilder(cfg, o.jobs)
	if err != nil {
		return err
	}
	_, err = runManifest(context.Background(), b, o.manifest)
	return err
}
