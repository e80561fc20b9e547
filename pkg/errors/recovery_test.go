package errors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRecover_StaleBuilds(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, ".tmp-1234")
	if err := os.MkdirAll(filepath.Join(stale, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(root, "abc-hello")
	if err := os.MkdirAll(keep, 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRecoverer(true)
	err := New(ErrStoreIO, "rename failed").WithContext("store", root)
	if rec := r.Recover(err); rec != nil {
		t.Fatalf("expected recovery to succeed, got %v", rec)
	}
	if _, statErr := os.Stat(stale); !os.IsNotExist(statErr) {
		t.Fatalf("stale build dir should be removed")
	}
	if _, statErr := os.Stat(keep); statErr != nil {
		t.Fatalf("artifact dir should survive: %v", statErr)
	}
}

func TestRecover_NothingToClean(t *testing.T) {
	r := NewRecoverer(false)
	err := New(ErrStoreIO, "rename failed").WithContext("store", t.TempDir())
	if rec := r.Recover(err); rec == nil {
		t.Fatal("expected recovery to fail when no stale builds exist")
	}
}

func TestRecover_NotRecoverable(t *testing.T) {
	r := NewRecoverer(false)
	err := New(ErrVerifyFailed, "check failed")
	if rec := r.Recover(err); rec != err {
		t.Fatalf("non-recoverable errors must be returned unchanged")
	}
}
