package cli

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestPanicHandler_WritesCrashReport(t *testing.T) {
	code := stubExit(t)
	dir := t.TempDir()
	p := &PanicHandler{CrashDir: dir}

	out := captureStdout(t, func() {
		defer p.Recover()
		panic(errors.New("boom"))
	})
	if *code != 2 {
		t.Fatalf("exit code = %d", *code)
	}
	if !strings.Contains(out, "shwrap crashed unexpectedly") || !strings.Contains(out, "Error: boom") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one crash report, got %v %v", entries, err)
	}
	body, _ := os.ReadFile(dir + "/" + entries[0].Name())
	if !strings.Contains(string(body), "shwrap Crash Report") || !strings.Contains(string(body), "Stack Trace:") {
		t.Fatalf("crash report content:\n%s", body)
	}
}

func TestPanicMessage(t *testing.T) {
	if panicMessage("s") != "s" || panicMessage(errors.New("e")) != "e" || panicMessage(42) != "42" {
		t.Fatal("panicMessage did not format all kinds")
	}
}
