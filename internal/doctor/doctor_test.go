package doctor

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"shwrap/internal/config"
)

func mockCmd(output string, fail bool) *exec.Cmd {
	script := "printf '%s' '" + output + "'"
	if fail {
		script += "; exit 1"
	}
	return exec.Command("sh", "-c", script)
}

func stubVerifier(t *testing.T, output string, fail bool) {
	t.Helper()
	origExec, origLook := execCommand, lookPath
	t.Cleanup(func() { execCommand, lookPath = origExec, origLook })
	lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	execCommand = func(name string, args ...string) *exec.Cmd { return mockCmd(output, fail) }
}

func TestShellCheck(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "sh")
	if err := os.WriteFile(exe, []byte("#!/bin/true\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		shell string
		want  Status
	}{
		{exe, StatusOK},
		{plain, StatusCritical},
		{dir, StatusCritical},
		{"sh", StatusCritical},
		{filepath.Join(dir, "missing"), StatusCritical},
	}
	for _, tt := range tests {
		if got := (&ShellCheck{Shell: tt.shell}).Run(); got.Status != tt.want {
			t.Errorf("ShellCheck(%s) = %v (%s), want %v", tt.shell, got.Status, got.Message, tt.want)
		}
	}
}

func TestVerifierCheck(t *testing.T) {
	stubVerifier(t, "ok", false)
	if got := (&VerifierCheck{Shell: "bash"}).Run(); got.Status != StatusOK {
		t.Fatalf("expected OK, got %+v", got)
	}

	stubVerifier(t, "set: Illegal option -o pipefail", true)
	if got := (&VerifierCheck{Shell: "dash"}).Run(); got.Status != StatusError || !strings.Contains(got.Message, "pipefail") {
		t.Fatalf("expected pipefail error, got %+v", got)
	}

	lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	if got := (&VerifierCheck{Shell: "nope"}).Run(); got.Status != StatusError {
		t.Fatalf("expected not found error, got %+v", got)
	}
}

func TestStoreChecksAndFix(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")
	sc := &StoreCheck{Root: root}
	if got := sc.Run(); got.Status != StatusWarning {
		t.Fatalf("missing store should warn, got %+v", got)
	}
	if err := sc.Fix(); err != nil {
		t.Fatal(err)
	}
	if got := sc.Run(); got.Status != StatusOK {
		t.Fatalf("store should be writable after fix, got %+v", got)
	}

	stale := &StaleBuildCheck{Root: root}
	if got := stale.Run(); got.Status != StatusOK {
		t.Fatalf("empty store has no stale builds, got %+v", got)
	}
	for _, d := range []string{".tmp-a", ".tmp-b", "abc-hello"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if got := stale.Run(); got.Status != StatusWarning || !strings.HasPrefix(got.Message, "2 ") {
		t.Fatalf("expected two stale builds, got %+v", got)
	}
	if err := stale.Fix(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 || entries[0].Name() != "abc-hello" {
		t.Fatalf("fix should only remove temp dirs, left %v", entries)
	}
}

func TestDoctorReport(t *testing.T) {
	stubVerifier(t, "ok", false)
	root := filepath.Join(t.TempDir(), "store")
	if err := os.MkdirAll(filepath.Join(root, ".tmp-x"), 0o755); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	d := New(&config.Config{StoreDir: root, Shell: "relative"}, true, &out)
	rpt := d.Run()
	if rpt.TotalChecks != 4 || rpt.Critical != 1 || rpt.Warnings != 1 || rpt.Passed != 2 {
		t.Fatalf("unexpected report %+v\n%s", rpt, out.String())
	}
	if rpt.Healthy() {
		t.Fatal("report with a critical failure is not healthy")
	}
	text := out.String()
	for _, want := range []string{"shwrap doctor", "❌ Wrapper shell \"relative\"", "💡 Fix:", "Impact:", "--fix"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}

	out.Reset()
	d.Fix()
	if !strings.Contains(out.String(), "✅ Stale Builds: fixed") {
		t.Fatalf("expected stale build fix, got:\n%s", out.String())
	}
}
