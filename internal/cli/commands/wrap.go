package commands

import (
	"context"
	"fmt"
	"strings"

	"shwrap/internal/config"
	"shwrap/internal/store"
	"shwrap/internal/wrap"
	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
	"shwrap/pkg/terminal"
)

type wrapOptions struct {
	exe       string
	fromStore bool
	deps      []string
	print     bool
	cfg       wrap.Config
}

func parseWrapArgs(args []string) (*wrapOptions, error) {
	o := &wrapOptions{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok, err := flagValue(args, &i, "--name"); ok {
			if err != nil {
				return nil, err
			}
			o.cfg.Name = v
		} else if v, ok, err := flagValue(args, &i, "--dep"); ok {
			if err != nil {
				return nil, err
			}
			o.deps = append(o.deps, v)
		} else if v, ok, err := flagValue(args, &i, "--env"); ok {
			if err != nil {
				return nil, err
			}
			k, val, err := parseEnv(v)
			if err != nil {
				return nil, err
			}
			if o.cfg.Env == nil {
				o.cfg.Env = make(map[string]string)
			}
			o.cfg.Env[k] = val
		} else if v, ok, err := flagValue(args, &i, "--arg"); ok {
			if err != nil {
				return nil, err
			}
			o.cfg.Args = append(o.cfg.Args, v)
		} else if v, ok, err := flagValue(args, &i, "--args"); ok {
			if err != nil {
				return nil, err
			}
			words, err := exec.SplitArgs(v)
			if err != nil {
				return nil, e.Wrap(err, e.ErrInvalidInput, "invalid --args")
			}
			o.cfg.Args = append(o.cfg.Args, words...)
		} else if v, ok, err := flagValue(args, &i, "--check"); ok {
			if err != nil {
				return nil, err
			}
			o.cfg.CheckPhase += v + "\n"
		} else if v, ok, err := flagValue(args, &i, "--shell"); ok {
			if err != nil {
				return nil, err
			}
			o.cfg.Shell = v
		} else if a == "--from-store" {
			o.fromStore = true
		} else if a == "--print" || a == "--dry-run" {
			o.print = true
		} else if strings.HasPrefix(a, "--") {
			return nil, e.New(e.ErrInvalidInput, "unknown flag: "+a)
		} else if o.exe == "" {
			o.exe = a
		} else {
			return nil, e.New(e.ErrInvalidInput, "unexpected argument: "+a).
				WithSuggestion("Use --arg to bind arguments to the wrapped program")
		}
	}
	if o.exe == "" {
		return nil, e.New(e.ErrInvalidInput, "no executable given").
			WithSuggestion("Usage: shwrap wrap <exe> [--name N] [--dep D]... [--env K=V]... [--arg A]... [--check S] [--shell P]")
	}
	return o, nil
}

// Wrap generates a wrapper around an executable and commits it to the store.
// Usage:
//
//	shwrap wrap <exe> [--name N] [--dep D]... [--env K=V]... [--arg A]...
//	                  [--args "A B"] [--check S] [--shell P] [--from-store] [--print]
func Wrap(cfg *config.Config, args []string) error {
	cfg = orDefault(cfg)
	o, err := parseWrapArgs(args)
	if err != nil {
		return err
	}
	if o.cfg.Shell == "" {
		o.cfg.Shell = cfg.Shell
	}
	if o.cfg.Escape, err = cfg.Escape(); err != nil {
		return err
	}

	var s *store.FS
	if o.fromStore || len(o.deps) > 0 || !o.print {
		if s, err = openStore(cfg); err != nil {
			return err
		}
	}
	var exe wrap.Executable
	if !o.fromStore {
		p, err := absPath(o.exe)
		if err != nil {
			return err
		}
		exe = wrap.ExecutablePath(p)
	} else {
		a, err := s.Get(o.exe)
		if err != nil {
			return err
		}
		exe = wrap.ExecutableOf(a)
	}
	for _, d := range o.deps {
		a, err := resolveDep(s, d)
		if err != nil {
			return err
		}
		o.cfg.Deps = append(o.cfg.Deps, a)
	}

	if o.print {
		script, err := wrap.Render(exe, o.cfg)
		if err != nil {
			return err
		}
		fmt.Print(script.Body.Value)
		fmt.Println("# check:")
		for _, line := range strings.Split(strings.TrimSuffix(script.Check, "\n"), "\n") {
			fmt.Println("#   " + line)
		}
		return nil
	}

	a, err := wrap.Wrap(context.Background(), s, exe, o.cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s %s %s\n", terminal.IconWrap, terminal.BoldText(a.Name), terminal.IconArrow, a.ResolvePath())
	return nil
}
