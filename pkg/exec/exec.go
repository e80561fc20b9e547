package exec

import (
	"context"
	"os/exec"
)

// Commander provides an interface for command execution that can be mocked in tests.
type Commander interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommander implements Commander using exec.CommandContext.
type DefaultCommander struct{}

// CommandContext creates a new exec.Cmd bound to ctx.
func (DefaultCommander) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Default is the process-wide Commander; tests may override it.
var Default Commander = DefaultCommander{}

// CommandContext delegates to Default.
func CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return Default.CommandContext(ctx, name, args...)
}

// LookPath is exec.LookPath, re-exported so callers need only this package.
var LookPath = exec.LookPath
