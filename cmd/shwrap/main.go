package main

import (
	"os"
	"strings"

	"shwrap/internal/cli"
	"shwrap/internal/config"
	"shwrap/pkg/logger"
)

// globalFlags strips --verbose and --debug from args, which may appear
// anywhere on the command line.
func globalFlags(args []string) (rest []string, verbose, debug bool) {
	rest = make([]string, 0, len(args))
	for i, a := range args {
		if i == 0 {
			rest = append(rest, a)
			continue
		}
		switch a {
		case "--verbose":
			verbose = true
		case "--debug":
			debug = true
		default:
			rest = append(rest, a)
		}
	}
	if strings.EqualFold(os.Getenv("SHWRAP_VERBOSE"), "1") {
		verbose = true
	}
	if strings.EqualFold(os.Getenv("SHWRAP_DEBUG"), "1") {
		debug = true
	}
	return rest, verbose, debug
}

func main() {
	args, verbose, debug := globalFlags(os.Args)

	logger.Initialize(verbose, debug)
	defer logger.Close()

	cfg, err := config.Load()
	if err != nil {
		// Commands fall back to defaults; bad settings surface there.
		logger.Warnf("ignoring user config: %v", err)
		cfg = nil
	}

	handler := cli.NewErrorHandler(verbose, debug)
	var ph cli.PanicHandler
	defer ph.Recover()

	app := cli.New(cfg)
	if err := app.Run(args); err != nil {
		handler.Handle(err)
	}
}
