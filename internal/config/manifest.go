package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"shwrap/internal/validate"
	e "shwrap/pkg/errors"
)

// DefaultDebounce is used when a manifest sets no watch.debounce_ms.
const DefaultDebounce = 300 * time.Millisecond

// Manifest lists the wrappers to build from one YAML file.
//
//	shell: /bin/sh
//	packages:
//	  JSON: /opt/perl/JSON
//	wrappers:
//	  - executable: ./bin/report
//	    deps: [coreutils]
//	    env: {LANG: C}
//	    perl_deps: [JSON]
//	watch:
//	  debounce_ms: 500
type Manifest struct {
	Shell    string            `yaml:"shell,omitempty"`
	Packages map[string]string `yaml:"packages,omitempty"`
	Wrappers []Wrapper         `yaml:"wrappers"`
	Watch    Watch             `yaml:"watch,omitempty"`

	// path is the file the manifest was read from; relative paths resolve
	// against its directory.
	path string
}

// Wrapper is one wrapper entry.
type Wrapper struct {
	Executable string            `yaml:"executable"`
	Name       string            `yaml:"name,omitempty"`
	Deps       []string          `yaml:"deps,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
	Args       []string          `yaml:"args,omitempty"`
	CheckPhase string            `yaml:"check_phase,omitempty"`
	PerlDeps   []string          `yaml:"perl_deps,omitempty"`
}

// Watch configures the manifest watcher.
type Watch struct {
	DebounceMS int `yaml:"debounce_ms,omitempty"`
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, e.Wrap(err, e.ErrInvalidConfig, "resolve manifest path")
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, e.New(e.ErrMissingConfig, "manifest not found: "+path).WithContext("path", abs)
		}
		return nil, e.Wrap(err, e.ErrInvalidConfig, "read manifest").WithContext("path", abs)
	}
	return ParseManifest(b, abs)
}

// ParseManifest decodes data and validates the result. path is used to
// resolve relative paths and may be empty.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, e.New(e.ErrInvalidConfig, "manifest is empty").WithContext("path", path)
		}
		return nil, e.Wrap(err, e.ErrInvalidConfig, "parse manifest").WithContext("path", path)
	}
	m.path = path
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Path returns the file the manifest was loaded from.
func (m *Manifest) Path() string { return m.path }

// Resolve returns p relative to the manifest's directory when p is relative.
func (m *Manifest) Resolve(p string) string {
	if filepath.IsAbs(p) || m.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(m.path), p)
}

// Debounce returns the watch debounce interval.
func (m *Manifest) Debounce() time.Duration {
	if m.Watch.DebounceMS == 0 {
		return DefaultDebounce
	}
	return time.Duration(m.Watch.DebounceMS) * time.Millisecond
}

// Validate checks every field that can be checked without touching the
// filesystem.
func (m *Manifest) Validate() error {
	if m.Shell != "" && !filepath.IsAbs(m.Shell) {
		return invalid("shell must be an absolute path", "shell", m.Shell)
	}
	if m.Watch.DebounceMS != 0 && !validate.IsPositiveNaturalNumber(m.Watch.DebounceMS) {
		return invalid("watch.debounce_ms must be a positive number", "debounce_ms", fmt.Sprint(m.Watch.DebounceMS))
	}
	pkgNames := make([]string, 0, len(m.Packages))
	for name := range m.Packages {
		pkgNames = append(pkgNames, name)
	}
	sort.Strings(pkgNames)
	for _, name := range pkgNames {
		if !validate.IsNonEmptyString(name) || !validate.IsNonEmptyString(m.Packages[name]) {
			return invalid("package entries need a name and a path", "package", name)
		}
	}
	if len(m.Wrappers) == 0 {
		return invalid("manifest has no wrappers", "path", m.path)
	}

	seen := make(map[string]int, len(m.Wrappers))
	for i, w := range m.Wrappers {
		where := fmt.Sprintf("wrappers[%d]", i)
		if !validate.IsNonEmptyString(w.Executable) {
			return invalid(where+": executable is required", "wrapper", where)
		}
		name := w.DefaultName()
		if !validate.IsArtifactName(name) {
			return invalid(where+": invalid wrapper name", "name", name)
		}
		if j, dup := seen[name]; dup {
			return invalid(fmt.Sprintf("%s: name %q already used by wrappers[%d]", where, name, j), "name", name)
		}
		seen[name] = i
		envNames := make([]string, 0, len(w.Env))
		for k := range w.Env {
			envNames = append(envNames, k)
		}
		sort.Strings(envNames)
		for _, k := range envNames {
			if k != "PATH" && !validate.IsEnvName(k) {
				return e.New(e.ErrInvalidEnvName, where+": invalid environment variable name "+k).
					WithContext("name", k).
					WithContext("manifest", m.path)
			}
		}
		for _, d := range w.Deps {
			if !validate.IsNonEmptyString(d) {
				return invalid(where+": empty dependency", "wrapper", where)
			}
		}
		if len(w.PerlDeps) > 0 {
			if len(w.Deps) > 0 || len(w.Env) > 0 || len(w.Args) > 0 {
				return invalid(where+": perl_deps cannot be combined with deps, env or args", "wrapper", where)
			}
			for _, p := range w.PerlDeps {
				if _, ok := m.Packages[p]; !ok {
					return invalid(where+": unknown perl package "+p, "package", p)
				}
			}
		}
	}
	return nil
}

// DefaultName is Name, or the base name of the executable.
func (w Wrapper) DefaultName() string {
	if w.Name != "" {
		return w.Name
	}
	return filepath.Base(w.Executable)
}

func invalid(msg, key, value string) *e.ShwrapError {
	return e.New(e.ErrInvalidConfig, msg).WithContext(key, value)
}
