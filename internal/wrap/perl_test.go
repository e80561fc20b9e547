package wrap

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"shwrap/internal/store"
	e "shwrap/pkg/errors"
)

func perlPackages() store.PackageSet {
	return store.PackageSet{
		"JSON":      {Name: "JSON", Path: "/pkgs/json", Hash: "hjson"},
		"TextCSV":   {Name: "TextCSV", Path: "/pkgs/text csv", Hash: "hcsv"},
		"FileSlurp": {Name: "FileSlurp", Path: "/pkgs/slurp", Hash: "hslurp"},
		"Relative":  {Name: "Relative", Path: "pkgs/rel"},
	}
}

func TestWithPerlDeps_SetsLibPath(t *testing.T) {
	b := &fakeBuilder{}
	opts := PerlOptions{
		Deps: func(p store.PackageSet) []*store.Artifact {
			return []*store.Artifact{p["JSON"], p["TextCSV"]}
		},
		CheckPhase: "test -n \"$out\"\n",
	}
	if _, err := WithPerlDeps(context.Background(), b, ExecutablePath("/usr/bin/report"), opts, perlPackages()); err != nil {
		t.Fatal(err)
	}
	want := `PERL5LIB='/pkgs/json/lib/perl5/site_perl:/pkgs/text csv/lib/perl5/site_perl' exec /usr/bin/report "$@"`
	if diff := cmp.Diff(want, execLine(t, b)); diff != "" {
		t.Fatalf("exec line (-want +got):\n%s", diff)
	}
	d := b.calls[0]
	if !strings.HasSuffix(d.Verify, "test -n \"$out\"\n") {
		t.Fatalf("check phase not forwarded: %q", d.Verify)
	}
	if diff := cmp.Diff([]string{"hcsv", "hjson"}, d.Content.Refs()); diff != "" {
		t.Fatalf("refs (-want +got):\n%s", diff)
	}
	if strings.Contains(d.Content.Value, "PATH=") {
		t.Fatalf("perl deps must not touch PATH: %q", d.Content.Value)
	}
}

func TestWithPerlDeps_NoDeps(t *testing.T) {
	b := &fakeBuilder{}
	opts := PerlOptions{Deps: func(store.PackageSet) []*store.Artifact { return nil }}
	if _, err := WithPerlDeps(context.Background(), b, ExecutablePath("/usr/bin/report"), opts, nil); err != nil {
		t.Fatal(err)
	}
	if got := execLine(t, b); got != `PERL5LIB='' exec /usr/bin/report "$@"` {
		t.Fatalf("exec line = %q", got)
	}
}

func TestWithPerlDeps_Errors(t *testing.T) {
	ctx := context.Background()
	b := &fakeBuilder{}
	if _, err := WithPerlDeps(ctx, b, ExecutablePath("/usr/bin/report"), PerlOptions{}, perlPackages()); !e.HasCode(err, e.ErrInvalidInput) {
		t.Fatalf("missing selector: %v", err)
	}
	bad := PerlOptions{Deps: func(p store.PackageSet) []*store.Artifact {
		return []*store.Artifact{p["JSON"], p["Relative"]}
	}}
	if _, err := WithPerlDeps(ctx, b, ExecutablePath("/usr/bin/report"), bad, perlPackages()); !e.HasCode(err, e.ErrInvalidDependency) {
		t.Fatalf("relative dep: %v", err)
	}
	missing := PerlOptions{Deps: func(p store.PackageSet) []*store.Artifact {
		return []*store.Artifact{p["Nope"]}
	}}
	if _, err := WithPerlDeps(ctx, b, ExecutablePath("/usr/bin/report"), missing, perlPackages()); !e.HasCode(err, e.ErrInvalidDependency) {
		t.Fatalf("nil dep: %v", err)
	}
	if len(b.calls) != 0 {
		t.Fatalf("store must not be called, got %d calls", len(b.calls))
	}
}

func TestPerlLibPath(t *testing.T) {
	deps := []*store.Artifact{{Path: "/a"}, {Path: "/b"}}
	if got := PerlLibPath(deps); got != "/a/lib/perl5/site_perl:/b/lib/perl5/site_perl" {
		t.Fatalf("PerlLibPath = %q", got)
	}
	if got := PerlLibPath(nil); got != "" {
		t.Fatalf("empty deps should give empty path, got %q", got)
	}
}
