package errors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// tempPrefix marks in-progress build directories inside a store root.
const tempPrefix = ".tmp-"

// RecoveryStrategy defines how to recover from an error
type RecoveryStrategy interface {
	CanRecover(err *ShwrapError) bool
	Attempt(err *ShwrapError) error
	Description() string
}

// Recoverer attempts to recover from errors
type Recoverer struct {
	strategies []RecoveryStrategy
	verbose    bool
}

// NewRecoverer creates a new error recoverer
func NewRecoverer(verbose bool) *Recoverer {
	return &Recoverer{
		strategies: []RecoveryStrategy{
			&StaleBuildStrategy{},
		},
		verbose: verbose,
	}
}

// Recover attempts to recover from an error. A nil return means the caller
// can retry the failed operation.
func (r *Recoverer) Recover(err *ShwrapError) error {
	if !err.Recoverable {
		return err
	}
	for _, strategy := range r.strategies {
		if strategy.CanRecover(err) {
			if r.verbose {
				fmt.Printf("🔧 Attempting recovery: %s\n", strategy.Description())
			}
			if recErr := strategy.Attempt(err); recErr == nil {
				fmt.Println("✅ Recovery successful!")
				return nil
			} else if r.verbose {
				fmt.Printf("⚠️  Recovery failed: %v\n", recErr)
			}
		}
	}
	return err
}

// StaleBuildStrategy removes leftover temporary build directories from the
// store root named in the error context ("store").
type StaleBuildStrategy struct{}

func (s *StaleBuildStrategy) CanRecover(err *ShwrapError) bool {
	return err.Code == ErrStoreIO && err.Context["store"] != ""
}

func (s *StaleBuildStrategy) Attempt(err *ShwrapError) error {
	root := err.Context["store"]
	entries, readErr := os.ReadDir(root)
	if readErr != nil {
		return fmt.Errorf("read store %s: %w", root, readErr)
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		if rmErr := os.RemoveAll(filepath.Join(root, e.Name())); rmErr != nil {
			return fmt.Errorf("remove stale build %s: %w", e.Name(), rmErr)
		}
		removed++
	}
	if removed == 0 {
		return fmt.Errorf("no stale builds in %s", root)
	}
	fmt.Printf("🧹 Removed %d stale build director(ies)\n", removed)
	return nil
}

func (s *StaleBuildStrategy) Description() string { return "Removing stale store builds" }
