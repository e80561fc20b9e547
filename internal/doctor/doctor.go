// Package doctor provides system health checks for shwrap.
package doctor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"shwrap/internal/config"
	e "shwrap/pkg/errors"
	shexec "shwrap/pkg/exec"
)

// execCommand enables test stubbing.
var execCommand = exec.Command

// lookPath enables test stubbing.
var lookPath = shexec.LookPath

// Doctor performs system health checks
type Doctor struct {
	checks  []HealthCheck
	verbose bool
	out     io.Writer
}

// HealthCheck represents a single diagnostic check
type HealthCheck interface {
	Name() string
	Description() string
	Run() CheckResult
	CanAutoFix() bool
	Fix() error
	Severity() Severity
}

// CheckResult contains the outcome of a health check
type CheckResult struct {
	Status     Status
	Message    string
	Details    string
	FixCommand string
	Impact     string
}

// Status represents check status
type Status int

const (
	StatusOK Status = iota
	StatusWarning
	StatusError
	StatusCritical
)

// Severity indicates how important a fix is
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// HealthReport summarizes checks
type HealthReport struct {
	TotalChecks int
	Passed      int
	Warnings    int
	Errors      int
	Critical    int
	StartTime   time.Time
	EndTime     time.Time
}

// Healthy reports whether no check failed.
func (r HealthReport) Healthy() bool { return r.Errors == 0 && r.Critical == 0 }

// New creates a doctor for the given configuration.
func New(cfg *config.Config, verbose bool, out io.Writer) *Doctor {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if out == nil {
		out = os.Stdout
	}
	verifier := cfg.VerifyShell
	if verifier == "" {
		verifier = "bash"
	}
	shell := cfg.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Doctor{
		checks: []HealthCheck{
			&ShellCheck{Shell: shell},
			&VerifierCheck{Shell: verifier},
			&StoreCheck{Root: cfg.StoreRoot()},
			&StaleBuildCheck{Root: cfg.StoreRoot()},
		},
		verbose: verbose,
		out:     out,
	}
}

// Run executes all checks and prints a concise report
func (d *Doctor) Run() HealthReport {
	rpt := HealthReport{StartTime: time.Now()}
	fmt.Fprintln(d.out, "\n🩺 shwrap doctor - System Health Check")
	fmt.Fprintln(d.out, strings.Repeat("=", 52))
	for _, c := range d.checks {
		res := c.Run()
		d.printResult(res)
		rpt.TotalChecks++
		switch res.Status {
		case StatusOK:
			rpt.Passed++
		case StatusWarning:
			rpt.Warnings++
		case StatusError:
			rpt.Errors++
		case StatusCritical:
			rpt.Critical++
		}
	}
	rpt.EndTime = time.Now()
	fmt.Fprintf(d.out, "\n⏱  Completed in %.2fs\n", rpt.EndTime.Sub(rpt.StartTime).Seconds())
	fmt.Fprintf(d.out, "%d passed, %d warnings, %d errors\n", rpt.Passed, rpt.Warnings, rpt.Errors+rpt.Critical)
	if !rpt.Healthy() || rpt.Warnings > 0 {
		fmt.Fprintln(d.out, "Run 'shwrap doctor --fix' to auto-fix issues where possible")
	}
	return rpt
}

func (d *Doctor) printResult(r CheckResult) {
	icon := "✅"
	switch r.Status {
	case StatusOK:
		// keep default icon
	case StatusWarning:
		icon = "⚠️ "
	case StatusError, StatusCritical:
		icon = "❌"
	}
	fmt.Fprintf(d.out, "%s %s\n", icon, r.Message)
	if r.Details != "" && d.verbose {
		fmt.Fprintf(d.out, "   %s\n", r.Details)
	}
	if r.FixCommand != "" && r.Status != StatusOK {
		fmt.Fprintf(d.out, "   💡 Fix: %s\n", r.FixCommand)
	}
	if r.Impact != "" && r.Status == StatusCritical {
		fmt.Fprintf(d.out, "   ⚠️  Impact: %s\n", r.Impact)
	}
}

// ShellCheck verifies the shell named in wrapper shebangs
type ShellCheck struct {
	Shell string
}

func (s *ShellCheck) Name() string        { return "Wrapper Shell" }
func (s *ShellCheck) Description() string { return "Checking the wrapper interpreter" }
func (s *ShellCheck) CanAutoFix() bool    { return false }
func (s *ShellCheck) Fix() error          { return nil }
func (s *ShellCheck) Severity() Severity  { return SeverityCritical }

func (s *ShellCheck) Run() CheckResult {
	if !filepath.IsAbs(s.Shell) {
		return CheckResult{Status: StatusCritical, Message: fmt.Sprintf("Wrapper shell %q is not an absolute path", s.Shell), FixCommand: "set \"shell\" in ~/.shwrap.json to e.g. /bin/sh", Impact: "wrap refuses to generate scripts"}
	}
	fi, err := os.Stat(s.Shell)
	if err != nil || fi.IsDir() || fi.Mode().Perm()&0o111 == 0 {
		return CheckResult{Status: StatusCritical, Message: fmt.Sprintf("Wrapper shell %s is not executable", s.Shell), Details: fmt.Sprint(err), FixCommand: "install it or set SHWRAP_SHELL", Impact: "every wrapper fails verification"}
	}
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("Wrapper shell %s is executable", s.Shell)}
}

// VerifierCheck verifies the shell that runs check scripts supports pipefail
type VerifierCheck struct {
	Shell string
}

func (v *VerifierCheck) Name() string        { return "Verifier Shell" }
func (v *VerifierCheck) Description() string { return "Checking the verification shell" }
func (v *VerifierCheck) CanAutoFix() bool    { return false }
func (v *VerifierCheck) Fix() error          { return nil }
func (v *VerifierCheck) Severity() Severity  { return SeverityHigh }

func (v *VerifierCheck) Run() CheckResult {
	path, err := lookPath(v.Shell)
	if err != nil {
		return CheckResult{Status: StatusError, Message: fmt.Sprintf("Verifier shell %s not found", v.Shell), FixCommand: "install bash or set \"verify_shell\" in ~/.shwrap.json", Impact: "no wrapper can be committed to the store"}
	}
	out, err := execCommand(path, "-c", "set -euo pipefail && echo ok").CombinedOutput()
	if err != nil || strings.TrimSpace(string(out)) != "ok" {
		return CheckResult{Status: StatusError, Message: fmt.Sprintf("%s does not support 'set -o pipefail'", path), Details: strings.TrimSpace(string(out)), FixCommand: "use bash as verify_shell", Impact: "verification scripts abort immediately"}
	}
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("Verifier shell %s supports pipefail", path)}
}

// StoreCheck verifies the artifact store is writable
type StoreCheck struct {
	Root string
}

func (s *StoreCheck) Name() string        { return "Store" }
func (s *StoreCheck) Description() string { return "Checking the artifact store" }
func (s *StoreCheck) CanAutoFix() bool    { return true }
func (s *StoreCheck) Severity() Severity  { return SeverityHigh }

func (s *StoreCheck) Fix() error {
	return os.MkdirAll(s.Root, 0o755)
}

func (s *StoreCheck) Run() CheckResult {
	fi, err := os.Stat(s.Root)
	if os.IsNotExist(err) {
		return CheckResult{Status: StatusWarning, Message: fmt.Sprintf("Store %s does not exist yet", s.Root), FixCommand: "mkdir -p " + s.Root}
	}
	if err != nil || !fi.IsDir() {
		return CheckResult{Status: StatusError, Message: fmt.Sprintf("Store %s is not a directory", s.Root), Details: fmt.Sprint(err), FixCommand: "set \"store_dir\" in ~/.shwrap.json"}
	}
	f, err := os.CreateTemp(s.Root, ".doctor-*")
	if err != nil {
		return CheckResult{Status: StatusError, Message: fmt.Sprintf("Store %s is not writable", s.Root), Details: err.Error(), FixCommand: "chmod u+w " + s.Root, Impact: "builds fail"}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf("Store %s is writable", s.Root)}
}

// StaleBuildCheck looks for temporary build directories left by interrupted builds
type StaleBuildCheck struct {
	Root string
}

func (s *StaleBuildCheck) Name() string        { return "Stale Builds" }
func (s *StaleBuildCheck) Description() string { return "Checking for interrupted builds" }
func (s *StaleBuildCheck) CanAutoFix() bool    { return true }
func (s *StaleBuildCheck) Severity() Severity  { return SeverityLow }

func (s *StaleBuildCheck) Fix() error {
	err := e.New(e.ErrStoreIO, "stale builds").WithContext("store", s.Root)
	return (&e.StaleBuildStrategy{}).Attempt(err)
}

func (s *StaleBuildCheck) Run() CheckResult {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return CheckResult{Status: StatusOK, Message: "No stale builds"}
	}
	n := 0
	for _, ent := range entries {
		if ent.IsDir() && strings.HasPrefix(ent.Name(), ".tmp-") {
			n++
		}
	}
	if n > 0 {
		return CheckResult{Status: StatusWarning, Message: fmt.Sprintf("%d interrupted build(s) in the store", n), FixCommand: "shwrap doctor --fix"}
	}
	return CheckResult{Status: StatusOK, Message: "No stale builds"}
}

// Fix attempts automatic fixes for checks that support it.
func (d *Doctor) Fix() {
	fmt.Fprintln(d.out, "\n🔧 Attempting to fix issues...")
	for _, c := range d.checks {
		res := c.Run()
		if res.Status != StatusOK && c.CanAutoFix() {
			if err := c.Fix(); err != nil {
				fmt.Fprintf(d.out, "❌ %s: fix failed: %v\n", c.Name(), err)
			} else {
				fmt.Fprintf(d.out, "✅ %s: fixed\n", c.Name())
			}
		}
	}
}

// RunDoctorWithOptions runs checks and optionally applies fixes.
func RunDoctorWithOptions(cfg *config.Config, verbose, fix bool) HealthReport {
	d := New(cfg, verbose, nil)
	rpt := d.Run()
	if fix {
		d.Fix()
	}
	return rpt
}
