package store

import (
	"os"
	"path/filepath"

	e "shwrap/pkg/errors"
)

// External wraps a directory outside the store, such as /opt/tool, so it can
// be used as a dependency. The directory must exist.
func External(path string) (*Artifact, error) {
	if path == "" {
		return nil, e.New(e.ErrInvalidDependency, "dependency path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidDependency, "resolve dependency path")
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidDependency, "dependency not found").WithContext("path", abs)
	}
	if !fi.IsDir() {
		return nil, e.New(e.ErrInvalidDependency, "dependency is not a directory").WithContext("path", abs)
	}
	return &Artifact{Name: filepath.Base(abs), Path: abs}, nil
}

// PackageSet maps package names to artifacts. It is the explicit package
// universe handed to dependency selectors.
type PackageSet map[string]*Artifact

// Lookup returns the named packages in order.
func (p PackageSet) Lookup(names ...string) ([]*Artifact, error) {
	out := make([]*Artifact, 0, len(names))
	for _, n := range names {
		a, ok := p[n]
		if !ok {
			return nil, e.New(e.ErrArtifactNotFound, "unknown package "+n).WithContext("package", n)
		}
		out = append(out, a)
	}
	return out, nil
}
