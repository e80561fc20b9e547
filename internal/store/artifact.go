// Package store persists generated scripts as content-addressed artifacts.
//
// Each artifact lives in its own directory named <hash>-<name> below the
// store root. A build writes the file into a temporary directory, runs the
// derivation's verify script there and only then renames the directory into
// place, so a failed verification never leaves a partial artifact behind.
package store

import (
	"path/filepath"
	"time"

	e "shwrap/pkg/errors"
	"shwrap/pkg/provenance"
)

// Derivation describes one artifact to build.
type Derivation struct {
	Name        string
	Content     provenance.String
	Executable  bool
	InstallPath string // relative to the artifact directory, e.g. bin/<name>
	Verify      string // shell script run before the artifact is committed
}

// Artifact is a committed store entry, or an external directory used as a
// dependency.
type Artifact struct {
	Name        string    `json:"name"`
	Hash        string    `json:"hash,omitempty"`
	Path        string    `json:"-"`
	InstallPath string    `json:"install_path,omitempty"`
	Executable  bool      `json:"executable"`
	References  []string  `json:"references,omitempty"`
	Verify      string    `json:"verify,omitempty"`
	Created     time.Time `json:"created"`
}

// ResolvePath returns the installed file, or the artifact directory when
// nothing was installed.
func (a *Artifact) ResolvePath() string {
	if a.InstallPath == "" {
		return a.Path
	}
	return filepath.Join(a.Path, a.InstallPath)
}

// Bin returns the artifact's bin directory.
func (a *Artifact) Bin() string { return filepath.Join(a.Path, "bin") }

// Lib returns dir below the artifact directory.
func (a *Artifact) Lib(dir string) string { return filepath.Join(a.Path, dir) }

// PathString returns the artifact directory tagged with the artifact's hash.
func (a *Artifact) PathString() provenance.String {
	return provenance.Of(a.Path, a.Hash)
}

func (a *Artifact) String() string { return a.Path }

// Validate reports whether a can be used as a dependency.
func (a *Artifact) Validate() error {
	if a == nil {
		return e.New(e.ErrInvalidDependency, "dependency is nil")
	}
	if a.Path == "" || !filepath.IsAbs(a.Path) {
		return e.New(e.ErrInvalidDependency, "dependency path must be absolute").
			WithContext("path", a.Path)
	}
	return nil
}
