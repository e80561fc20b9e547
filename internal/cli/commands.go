package cli

import (
	"shwrap/internal/cli/commands"
	"shwrap/internal/config"
)

type wrapCmd struct{ cfg *config.Config }

func (wrapCmd) Name() string        { return "wrap" }
func (wrapCmd) Description() string { return "Generate a wrapper script for an executable" }
func (c wrapCmd) Run(args []string) error {
	return commands.Wrap(c.cfg, args)
}

type perlCmd struct{ cfg *config.Config }

func (perlCmd) Name() string        { return "perl" }
func (perlCmd) Description() string { return "Wrap a Perl program with PERL5LIB dependencies" }
func (c perlCmd) Run(args []string) error {
	return commands.Perl(c.cfg, args)
}

type buildCmd struct{ cfg *config.Config }

func (buildCmd) Name() string        { return "build" }
func (buildCmd) Description() string { return "Build all wrappers of a manifest" }
func (c buildCmd) Run(args []string) error {
	return commands.Build(c.cfg, args)
}

type watchCmd struct{ cfg *config.Config }

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Rebuild a manifest whenever it changes" }
func (c watchCmd) Run(args []string) error {
	return commands.Watch(c.cfg, args)
}

type storeCmd struct{ cfg *config.Config }

func (storeCmd) Name() string        { return "store" }
func (storeCmd) Description() string { return "Inspect the artifact store" }
func (c storeCmd) Run(args []string) error {
	return commands.Store(c.cfg, args)
}

type linesCmd struct{ cfg *config.Config }

func (linesCmd) Name() string        { return "lines" }
func (linesCmd) Description() string { return "Transform a file line by line" }
func (c linesCmd) Run(args []string) error {
	return commands.Lines(c.cfg, args)
}

type doctorCmd struct{ cfg *config.Config }

func (doctorCmd) Name() string        { return "doctor" }
func (doctorCmd) Description() string { return "System health check" }
func (c doctorCmd) Run(args []string) error {
	return commands.Doctor(c.cfg, args)
}

// Completion command implementation
type completionCmd struct{}

func (completionCmd) Name() string        { return "completion" }
func (completionCmd) Description() string { return "Generate shell completion scripts" }
func (completionCmd) Run(args []string) error {
	return commands.Completion(args)
}

// Command factory functions
func NewWrapCommand(cfg *config.Config) Command   { return wrapCmd{cfg} }
func NewPerlCommand(cfg *config.Config) Command   { return perlCmd{cfg} }
func NewBuildCommand(cfg *config.Config) Command  { return buildCmd{cfg} }
func NewWatchCommand(cfg *config.Config) Command  { return watchCmd{cfg} }
func NewStoreCommand(cfg *config.Config) Command  { return storeCmd{cfg} }
func NewLinesCommand(cfg *config.Config) Command  { return linesCmd{cfg} }
func NewDoctorCommand(cfg *config.Config) Command { return doctorCmd{cfg} }
func NewCompletionCommand() Command               { return completionCmd{} }
