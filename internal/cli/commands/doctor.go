package commands

import (
	"shwrap/internal/config"
	"shwrap/internal/doctor"
	e "shwrap/pkg/errors"
)

// Doctor runs system health checks and diagnostics.
// Supports flags: --verbose, --fix
func Doctor(cfg *config.Config, args []string) error {
	verbose := false
	fix := false
	for _, a := range args {
		switch a {
		case "--verbose", "-v":
			verbose = true
		case "--fix":
			fix = true
		default:
			return e.New(e.ErrInvalidInput, "unknown doctor flag: "+a).
				WithSuggestion("Usage: shwrap doctor [--verbose] [--fix]")
		}
	}
	rpt := doctor.RunDoctorWithOptions(orDefault(cfg), verbose, fix)
	if !rpt.Healthy() && !fix {
		return e.New(e.ErrInvalidConfig, "environment is not ready for shwrap").
			WithSuggestion("Run 'shwrap doctor --fix' or follow the hints above")
	}
	return nil
}
