package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shwrap/internal/config"
	"shwrap/internal/watch"
	"shwrap/pkg/terminal"
)

// Watch builds a manifest and rebuilds it whenever the file changes, until
// interrupted.
// Usage:
//
//	shwrap watch <manifest.yaml> [--jobs N]
func Watch(cfg *config.Config, args []string) error {
	cfg = orDefault(cfg)
	o, err := parseBuildArgs("watch", args)
	if err != nil {
		return err
	}
	b, err := newBuilder(cfg, o.jobs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := runManifest(ctx, b, o.manifest)
	if err != nil {
		if m == nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", terminal.IconError, err)
	}

	w, err := watch.New(m.Path(), m.Debounce(), func(ctx context.Context) error {
		fmt.Printf("\n%s %s changed, rebuilding\n", terminal.IconWatch, m.Path())
		_, err := runManifest(ctx, b, m.Path())
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s Watching %s (Ctrl-C to stop)\n", terminal.IconWatch, w.Path())
	return w.Run(ctx)
}
