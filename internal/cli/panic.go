package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"shwrap/pkg/terminal"
	"shwrap/pkg/version"
)

// PanicHandler recovers from panics and shows friendly errors
type PanicHandler struct {
	// CrashDir defaults to ~/.shwrap/crashes.
	CrashDir string
}

// Recover catches panics and converts them to friendly output. It must be
// deferred directly.
func (p *PanicHandler) Recover() { //nolint:revive
	if r := recover(); r != nil {
		p.handlePanic(r)
	}
}

func (p *PanicHandler) handlePanic(r interface{}) {
	message := panicMessage(r)
	stack := string(debug.Stack())
	crashReport := p.saveCrashReport(message, stack)

	fmt.Println()
	fmt.Printf("💥 %s%sshwrap crashed unexpectedly%s\n", terminal.Red, terminal.Bold, terminal.Reset)
	fmt.Println()
	fmt.Printf("Error: %s\n", message)
	fmt.Println()
	fmt.Printf("A crash report has been saved to:\n%s\n", crashReport)
	fmt.Println()
	fmt.Println("Include the crash report and what you were doing when this happened.")

	osExit(2)
}

func panicMessage(r interface{}) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", r)
	}
}

func (p *PanicHandler) crashDir() string {
	if p.CrashDir != "" {
		return p.CrashDir
	}
	return os.ExpandEnv("$HOME/.shwrap/crashes")
}

func (p *PanicHandler) saveCrashReport(message, stack string) string {
	crashDir := p.crashDir()
	_ = os.MkdirAll(crashDir, 0o755)
	ts := time.Now().Format("2006-01-02-15-04-05")
	fp := filepath.Join(crashDir, fmt.Sprintf("crash-%s.txt", ts))
	report := fmt.Sprintf(`shwrap Crash Report
===================
Time: %s
Version: %s
OS: %s
Arch: %s

Error:
%s

Stack Trace:
%s

Environment:
%s
`, time.Now().Format(time.RFC3339), version.String(), runtime.GOOS, runtime.GOARCH, message, stack, p.getEnvironmentInfo())
	_ = os.WriteFile(fp, []byte(report), 0o644)
	return fp
}

func (p *PanicHandler) getEnvironmentInfo() string {
	var info []string
	for _, key := range []string{"SHWRAP_DEBUG", "SHWRAP_VERBOSE", "SHWRAP_STORE", "SHWRAP_SHELL", "SHELL", "PATH"} {
		if v := os.Getenv(key); v != "" {
			info = append(info, fmt.Sprintf("%s=%s", key, v))
		}
	}
	return strings.Join(info, "\n")
}
