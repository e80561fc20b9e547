// Package cli provides the command-line interface for the shwrap tool.
// It implements a modular command system with support for subcommands,
// help text, and version information. The CLI uses a registry pattern
// to register available commands and route execution based on user input.
//
// The main components are:
//   - CLI: The main interface that handles command routing and execution
//   - Command: Interface that all commands must implement
//   - Command registry: Maps command names to their implementations
//
// Commands are implemented in the commands subpackage and registered
// during CLI initialization for clean separation of concerns.
package cli

import (
	"fmt"
	"sort"

	"shwrap/internal/config"
	"shwrap/pkg/version"
)

// Command represents a CLI command
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// CLI represents the command-line interface
type CLI struct {
	config   *config.Config
	commands map[string]Command
}

// New creates a new CLI instance
func New(cfg *config.Config) *CLI {
	if cfg == nil {
		cfg = &config.Config{}
	}
	c := &CLI{config: cfg, commands: make(map[string]Command)}
	c.registerCommands()
	return c
}

func (c *CLI) register(cmd Command) {
	c.commands[cmd.Name()] = cmd
}

// registerCommands registers all available commands
func (c *CLI) registerCommands() {
	c.register(NewWrapCommand(c.config))
	c.register(NewPerlCommand(c.config))
	c.register(NewBuildCommand(c.config))
	c.register(NewWatchCommand(c.config))
	c.register(NewStoreCommand(c.config))
	c.register(NewLinesCommand(c.config))
	c.register(NewDoctorCommand(c.config))
	c.register(NewCompletionCommand())
}

// Run executes the CLI with given arguments
func (c *CLI) Run(args []string) error {
	if len(args) < 2 {
		c.printUsage()
		return nil
	}
	switch args[1] {
	case "help", "--help", "-h":
		c.printUsage()
		return nil
	case "version", "--version", "-v":
		fmt.Printf("shwrap %s\n", version.String())
		return nil
	default:
		if cmd, ok := c.commands[args[1]]; ok {
			return cmd.Run(args[2:])
		}
		c.printUsage()
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func (c *CLI) printUsage() {
	fmt.Println("Usage: shwrap <command> [args]")
	fmt.Println("Commands:")
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-11s %s\n", name, c.commands[name].Description())
	}
	fmt.Println("  version     Show version")
	fmt.Println("  help        Show this help")
	fmt.Println()
	fmt.Println("Global flags: --verbose, --debug (or SHWRAP_VERBOSE=1, SHWRAP_DEBUG=1)")
}
