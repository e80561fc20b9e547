package commands

import (
	"errors"
	"io"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"shwrap/internal/config"
	e "shwrap/pkg/errors"
	"shwrap/pkg/provenance"
)

func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	f()
	_ = w.Close()
	os.Stdout = old
	var b strings.Builder
	_, _ = io.Copy(&b, r)
	return b.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{StoreDir: filepath.Join(t.TempDir(), "store")}
}

func TestFlagValue(t *testing.T) {
	tests := []struct {
		args    []string
		wantV   string
		wantOK  bool
		wantErr bool
		wantI   int
	}{
		{args: []string{"--name=x"}, wantV: "x", wantOK: true},
		{args: []string{"--name", "x"}, wantV: "x", wantOK: true, wantI: 1},
		{args: []string{"--name="}, wantV: "", wantOK: true},
		{args: []string{"--name"}, wantOK: true, wantErr: true},
		{args: []string{"--named"}},
		{args: []string{"x"}},
	}
	for _, tt := range tests {
		i := 0
		v, ok, err := flagValue(tt.args, &i, "--name")
		if v != tt.wantV || ok != tt.wantOK || (err != nil) != tt.wantErr || i != tt.wantI {
			t.Errorf("flagValue(%q) = %q, %v, %v, i=%d", tt.args, v, ok, err, i)
		}
	}
}

func TestParseWrapArgs(t *testing.T) {
	o, err := parseWrapArgs([]string{
		"/usr/bin/hello", "--name", "hi", "--env", "GREETING=hello world",
		"--arg=-v", "--args", `"a b" c`, "--check", "true", "--dep", "/opt/x", "--print",
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.exe != "/usr/bin/hello" || o.cfg.Name != "hi" || !o.print {
		t.Fatalf("unexpected options: %+v", o)
	}
	if diff := cmp.Diff([]string{"-v", "a b", "c"}, o.cfg.Args); diff != "" {
		t.Errorf("args (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"GREETING": "hello world"}, o.cfg.Env); diff != "" {
		t.Errorf("env (-want +got):\n%s", diff)
	}
	if o.cfg.CheckPhase != "true\n" || len(o.deps) != 1 {
		t.Errorf("check=%q deps=%v", o.cfg.CheckPhase, o.deps)
	}
}

func TestParseWrapArgs_Errors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"/bin/a", "/bin/b"},
		{"/bin/a", "--bogus"},
		{"/bin/a", "--env", "NOVALUE"},
		{"/bin/a", "--env", "=v"},
		{"/bin/a", "--args", `"unterminated`},
		{"/bin/a", "--name"},
	} {
		if _, err := parseWrapArgs(args); !e.HasCode(err, e.ErrInvalidInput) {
			t.Errorf("parseWrapArgs(%q) error = %v", args, err)
		}
	}
}

func TestParseJobs(t *testing.T) {
	if n, err := parseJobs("4"); err != nil || n != 4 {
		t.Fatalf("parseJobs(4) = %d, %v", n, err)
	}
	for _, v := range []string{"0", "-1", "x", ""} {
		if _, err := parseJobs(v); err == nil {
			t.Errorf("parseJobs(%q) should fail", v)
		}
	}
}

func TestParseBuildArgs(t *testing.T) {
	o, err := parseBuildArgs("build", []string{"-j", "3", "m.yaml"})
	if err != nil || o.jobs != 3 || o.manifest != "m.yaml" {
		t.Fatalf("parseBuildArgs = %+v, %v", o, err)
	}
	if _, err := parseBuildArgs("build", nil); !e.HasCode(err, e.ErrMissingConfig) {
		t.Fatalf("missing manifest error = %v", err)
	}
	if _, err := parseBuildArgs("build", []string{"a.yaml", "b.yaml"}); err == nil {
		t.Fatal("expected error for two manifests")
	}
}

func TestApplyLineOps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ops  []string
		want string
	}{
		{"none", "a\nb\n", nil, "a\nb\n"},
		{"trim squeeze", "  b\n\n\n a  \n", []string{"--trim", "--squeeze"}, "b\n\na\n"},
		{"reverse keeps trailing newline", "1\n2\n3\n", []string{"--reverse"}, "3\n2\n1\n"},
		{"reverse without trailing newline", "1\n2", []string{"--reverse"}, "2\n1"},
		{"number", "x\ny\n", []string{"--number"}, "     1\tx\n     2\ty\n"},
		{"empty", "", []string{"--number"}, "     1\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ops []lineOp
			for _, o := range tt.ops {
				ops = append(ops, lineOps[o])
			}
			got := applyLineOps(provenance.Of(tt.in, "h1"), ops)
			if got.Value != tt.want {
				t.Errorf("got %q, want %q", got.Value, tt.want)
			}
			if diff := cmp.Diff([]string{"h1"}, got.Refs()); diff != "" {
				t.Errorf("refs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLines_File(t *testing.T) {
	f := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(f, []byte("  b\n\n\n a  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var err error
	out := captureStdout(t, func() { err = Lines(testConfig(t), []string{f, "--trim", "--squeeze"}) })
	if err != nil {
		t.Fatal(err)
	}
	if out != "b\n\na\n" {
		t.Fatalf("Lines output = %q", out)
	}
}

func TestLines_Errors(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{nil, {"--upper", "f"}, {"a", "b"}, {filepath.Join(t.TempDir(), "missing")}} {
		if err := Lines(cfg, args); !e.HasCode(err, e.ErrInvalidInput) {
			t.Errorf("Lines(%q) error = %v", args, err)
		}
	}
}

func TestWrap_Print(t *testing.T) {
	cfg := testConfig(t)
	var err error
	out := captureStdout(t, func() {
		err = Wrap(cfg, []string{"/usr/bin/hello", "--env", "GREETING=hi", "--print"})
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"#!/bin/sh\n", "GREETING=", "exec ", `"$@"`, "# check:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, statErr := os.Stat(cfg.StoreDir); !os.IsNotExist(statErr) {
		t.Error("--print must not create the store")
	}
}

func TestWrap_InvalidEnvName(t *testing.T) {
	err := Wrap(testConfig(t), []string{"/usr/bin/hello", "--env", "bad-name=1", "--print"})
	if !e.HasCode(err, e.ErrInvalidEnvName) {
		t.Fatalf("error = %v", err)
	}
}

func TestStore_PathAndEmptyList(t *testing.T) {
	cfg := testConfig(t)
	out := captureStdout(t, func() {
		if err := Store(cfg, []string{"path"}); err != nil {
			t.Error(err)
		}
		if err := Store(cfg, nil); err != nil {
			t.Error(err)
		}
	})
	if !strings.Contains(out, cfg.StoreDir+"\n") || !strings.Contains(out, "No artifacts in") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStore_Errors(t *testing.T) {
	cfg := testConfig(t)
	captureStdout(t, func() {
		if err := Store(cfg, []string{"frobnicate"}); !e.HasCode(err, e.ErrInvalidInput) {
			t.Errorf("unknown subcommand error = %v", err)
		}
	})
	if err := Store(cfg, []string{"show"}); !e.HasCode(err, e.ErrInvalidInput) {
		t.Errorf("show without ref error = %v", err)
	}
	if err := Store(cfg, []string{"show", "nothing-here"}); !e.HasCode(err, e.ErrArtifactNotFound) {
		t.Errorf("show unknown ref error = %v", err)
	}
}

func TestBuildAndStore_EndToEnd(t *testing.T) {
	if _, err := osexec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	cfg := testConfig(t)
	manifest := filepath.Join(t.TempDir(), "shwrap.yaml")
	body := "wrappers:\n  - {executable: /bin/sh, name: mysh, env: {GREETING: hi}}\n"
	if err := os.WriteFile(manifest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var err error
	out := captureStdout(t, func() { err = Build(cfg, []string{manifest, "--jobs=2"}) })
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "mysh") || !strings.Contains(out, "Built 1 wrapper(s)") {
		t.Fatalf("unexpected build output:\n%s", out)
	}

	out = captureStdout(t, func() {
		if err := Store(cfg, []string{"list", "my*"}); err != nil {
			t.Error(err)
		}
		if err := Store(cfg, []string{"verify", "mysh"}); err != nil {
			t.Error(err)
		}
	})
	if !strings.Contains(out, "1 artifact(s)") || strings.Count(out, "mysh") < 2 {
		t.Fatalf("unexpected store output:\n%s", out)
	}
}

func TestPerl_ArgumentErrors(t *testing.T) {
	cfg := testConfig(t)
	tests := []struct {
		args []string
		code e.ErrorCode
	}{
		{nil, e.ErrInvalidInput},
		{[]string{"/usr/bin/report"}, e.ErrInvalidInput},
		{[]string{"/usr/bin/report", "--pkg", "=dir"}, e.ErrInvalidInput},
		{[]string{"/usr/bin/report", "--pkg", "JSON"}, e.ErrArtifactNotFound},
		{[]string{"/usr/bin/report", "--pkg", "JSON=/nonexistent/json"}, e.ErrInvalidDependency},
		{[]string{"/usr/bin/report", "--pkg", "JSON", "--manifest", "/nonexistent/m.yaml"}, e.ErrMissingConfig},
	}
	for _, tt := range tests {
		if err := Perl(cfg, tt.args); !e.HasCode(err, tt.code) {
			t.Errorf("Perl(%q) error = %v, want code %s", tt.args, err, tt.code)
		}
	}
}

func TestDoctor_UnknownFlag(t *testing.T) {
	if err := Doctor(testConfig(t), []string{"--frobnicate"}); !e.HasCode(err, e.ErrInvalidInput) {
		t.Fatalf("error = %v", err)
	}
}

func TestCompletion(t *testing.T) {
	out := captureStdout(t, func() {
		if err := Completion([]string{"bash"}); err != nil {
			t.Error(err)
		}
	})
	if !strings.Contains(out, "_shwrap_completions") || !strings.Contains(out, "wrap perl build") {
		t.Fatalf("bash completion:\n%s", out)
	}
	if err := Completion([]string{"fish"}); err == nil {
		t.Fatal("expected error for unsupported shell")
	}
}

func TestWrap_PrintResolvesRelativeExecutable(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	var err error
	out := captureStdout(t, func() {
		err = Wrap(testConfig(t), []string{"./tool", "--print"})
	})
	if err != nil {
		t.Fatal(err)
	}
	abs := filepath.Join(dir, "tool")
	if !strings.Contains(out, "exec "+abs+` "$@"`) {
		t.Fatalf("wrapper should exec the absolute path %s:\n%s", abs, out)
	}
}

func TestPerl_UnknownPackageMessage(t *testing.T) {
	err := Perl(testConfig(t), []string{"/usr/bin/report", "--pkg", "JSON"})
	var se *e.ShwrapError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v", err)
	}
	if !strings.HasPrefix(se.Message, "unknown perl package") || !strings.Contains(se.Message, "JSON") {
		t.Fatalf("message = %q", se.Message)
	}
}
