package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldC := Version, Commit
	defer func() { Version, Commit = oldV, oldC }()

	Version, Commit = "v1.0.0", ""
	if got := String(); got != "v1.0.0" {
		t.Fatalf("String() = %q", got)
	}
	Commit = "abc123"
	if got := String(); got != "v1.0.0 (abc123)" {
		t.Fatalf("String() = %q", got)
	}
}
