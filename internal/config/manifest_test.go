package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	e "shwrap/pkg/errors"
)

const sampleManifest = `
shell: /bin/bash
packages:
  JSON: /opt/perl/JSON
  CSV: vendor/csv
wrappers:
  - executable: ./bin/report
    name: report
    deps: [coreutils, /opt/tools]
    env:
      LANG: C
      PATH: /usr/bin
    args: [--quiet]
    check_phase: test -d /opt/tools
  - executable: /usr/bin/perl
    name: perl-report
    perl_deps: [JSON, CSV]
watch:
  debounce_ms: 750
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest), "/work/shwrap.yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []Wrapper{
		{
			Executable: "./bin/report",
			Name:       "report",
			Deps:       []string{"coreutils", "/opt/tools"},
			Env:        map[string]string{"LANG": "C", "PATH": "/usr/bin"},
			Args:       []string{"--quiet"},
			CheckPhase: "test -d /opt/tools",
		},
		{Executable: "/usr/bin/perl", Name: "perl-report", PerlDeps: []string{"JSON", "CSV"}},
	}
	if diff := cmp.Diff(want, m.Wrappers, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("wrappers (-want +got):\n%s", diff)
	}
	if m.Shell != "/bin/bash" || m.Debounce() != 750*time.Millisecond {
		t.Fatalf("unexpected shell/debounce: %s %s", m.Shell, m.Debounce())
	}
	if got := m.Resolve("vendor/csv"); got != "/work/vendor/csv" {
		t.Fatalf("Resolve relative = %s", got)
	}
	if got := m.Resolve("/opt/x"); got != "/opt/x" {
		t.Fatalf("Resolve absolute = %s", got)
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code e.ErrorCode
	}{
		{"empty", "", e.ErrInvalidConfig},
		{"unknown field", "wrappers: [{executable: /bin/true}]\nbogus: 1\n", e.ErrInvalidConfig},
		{"no wrappers", "shell: /bin/sh\n", e.ErrInvalidConfig},
		{"relative shell", "shell: sh\nwrappers: [{executable: /bin/true}]\n", e.ErrInvalidConfig},
		{"missing executable", "wrappers: [{name: x}]\n", e.ErrInvalidConfig},
		{"bad env name", "wrappers: [{executable: /bin/true, env: {bad-name: x}}]\n", e.ErrInvalidEnvName},
		{"duplicate name", "wrappers: [{executable: /bin/true}, {executable: /usr/bin/true}]\n", e.ErrInvalidConfig},
		{"negative debounce", "wrappers: [{executable: /bin/true}]\nwatch: {debounce_ms: -5}\n", e.ErrInvalidConfig},
		{"unknown perl package", "wrappers: [{executable: /bin/true, perl_deps: [Nope]}]\n", e.ErrInvalidConfig},
		{"perl with env", "packages: {A: /a}\nwrappers: [{executable: /bin/true, perl_deps: [A], env: {X: y}}]\n", e.ErrInvalidConfig},
		{"empty dep", "wrappers: [{executable: /bin/true, deps: ['']}]\n", e.ErrInvalidConfig},
		{"slash name", "wrappers: [{executable: /bin/true, name: a/b}]\n", e.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.yaml), "")
			if !e.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadManifest(filepath.Join(dir, "missing.yaml")); !e.HasCode(err, e.ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig, got %v", err)
	}
	p := filepath.Join(dir, "shwrap.yaml")
	if err := os.WriteFile(p, []byte("wrappers: [{executable: tool}]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadManifest(p)
	if err != nil {
		t.Fatal(err)
	}
	if m.Path() != p || m.Resolve("tool") != filepath.Join(dir, "tool") {
		t.Fatalf("paths not anchored to manifest: %s %s", m.Path(), m.Resolve("tool"))
	}
	if m.Debounce() != DefaultDebounce {
		t.Fatalf("default debounce = %s", m.Debounce())
	}
	if m.Wrappers[0].DefaultName() != "tool" {
		t.Fatalf("default name = %s", m.Wrappers[0].DefaultName())
	}
}

func TestParseManifest_ReportsFirstBadEnvNameInOrder(t *testing.T) {
	data := []byte("wrappers:\n  - executable: /bin/true\n    env: {z-last: 1, b-mid: 2, a-first: 3, OK: 4}\n")
	for i := 0; i < 20; i++ {
		_, err := ParseManifest(data, "")
		var se *e.ShwrapError
		if !errors.As(err, &se) || se.Code != e.ErrInvalidEnvName {
			t.Fatalf("error = %v", err)
		}
		if se.Context["name"] != "a-first" {
			t.Fatalf("reported %q, want a-first", se.Context["name"])
		}
	}
}
