package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"shwrap/internal/validate"
	e "shwrap/pkg/errors"
	"shwrap/pkg/exec"
	"shwrap/pkg/logger"
)

const (
	metaFile   = ".shwrap-meta.json"
	tempPrefix = ".tmp-"

	// DefaultVerifyShell runs verify scripts; it must understand pipefail.
	DefaultVerifyShell = "bash"
)

// Builder turns a derivation into a committed artifact.
type Builder interface {
	Build(ctx context.Context, d Derivation) (*Artifact, error)
}

// Options configures a filesystem store.
type Options struct {
	Root        string
	VerifyShell string
	Commander   exec.Commander
}

// FS is a Builder backed by a directory.
type FS struct {
	root        string
	verifyShell string
	cmd         exec.Commander
	now         func() time.Time

	mu   sync.RWMutex
	memo map[string]*Artifact
}

// Open creates the store root if needed and returns the store.
func Open(opts Options) (*FS, error) {
	if opts.Root == "" {
		return nil, e.New(e.ErrInvalidConfig, "store root is empty")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, e.Wrap(err, e.ErrStoreIO, "resolve store root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, e.Wrap(err, e.ErrStoreIO, "create store root").WithContext("store", root)
	}
	if opts.VerifyShell == "" {
		opts.VerifyShell = DefaultVerifyShell
	}
	if opts.Commander == nil {
		opts.Commander = exec.Default
	}
	return &FS{
		root:        root,
		verifyShell: opts.VerifyShell,
		cmd:         opts.Commander,
		now:         time.Now,
		memo:        make(map[string]*Artifact),
	}, nil
}

// Root returns the absolute store directory.
func (s *FS) Root() string { return s.root }

// Build commits d to the store, or returns the existing artifact with the
// same content address.
func (s *FS) Build(ctx context.Context, d Derivation) (*Artifact, error) {
	if err := checkDerivation(d); err != nil {
		return nil, err
	}
	hash := HashDerivation(d)
	final := filepath.Join(s.root, hash+"-"+d.Name)

	s.mu.RLock()
	cached, ok := s.memo[hash]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if a, err := s.load(final); err == nil {
		s.remember(a)
		return a, nil
	}

	logger.StartTimer("build " + d.Name)
	defer logger.EndTimer("build " + d.Name)

	tmp := filepath.Join(s.root, tempPrefix+uuid.NewString())
	if err := s.stage(tmp, d); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}
	if err := s.runVerify(ctx, d.Name, d.Verify, tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}

	a := &Artifact{
		Name:        d.Name,
		Hash:        hash,
		InstallPath: d.InstallPath,
		Executable:  d.Executable,
		References:  d.Content.Refs(),
		Verify:      d.Verify,
		Created:     s.now().UTC(),
	}
	if err := writeMeta(tmp, a); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, err
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.RemoveAll(tmp)
		// A concurrent build of the same derivation may have won the race.
		if existing, loadErr := s.load(final); loadErr == nil {
			s.remember(existing)
			return existing, nil
		}
		return nil, e.Wrap(err, e.ErrStoreIO, "commit artifact").
			WithContext("store", s.root).
			WithContext("name", d.Name)
	}
	a.Path = final
	s.remember(a)
	logger.Debugw("artifact committed", logger.Fields{"name": a.Name, "hash": a.Hash})
	return a, nil
}

func checkDerivation(d Derivation) error {
	if !validate.IsArtifactName(d.Name) {
		return e.New(e.ErrInvalidInput, "invalid artifact name").WithContext("name", d.Name)
	}
	if d.InstallPath != "" {
		clean := filepath.Clean(d.InstallPath)
		if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || clean == metaFile {
			return e.New(e.ErrInvalidInput, "install path must stay inside the artifact").
				WithContext("install_path", d.InstallPath)
		}
	}
	return nil
}

func (s *FS) stage(tmp string, d Derivation) error {
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return e.Wrap(err, e.ErrStoreIO, "create build directory").WithContext("store", s.root)
	}
	if d.InstallPath == "" {
		return nil
	}
	target := filepath.Join(tmp, d.InstallPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return e.Wrap(err, e.ErrStoreIO, "create install directory").WithContext("store", s.root)
	}
	mode := os.FileMode(0o644)
	if d.Executable {
		mode = 0o755
	}
	if err := os.WriteFile(target, []byte(d.Content.Value), mode); err != nil {
		return e.Wrap(err, e.ErrStoreIO, "write artifact").WithContext("store", s.root)
	}
	// WriteFile honours umask; force the requested bits.
	if err := os.Chmod(target, mode); err != nil {
		return e.Wrap(err, e.ErrStoreIO, "chmod artifact").WithContext("store", s.root)
	}
	return nil
}

func (s *FS) runVerify(ctx context.Context, name, script, out string) error {
	if strings.TrimSpace(script) == "" {
		return nil
	}
	cmd := s.cmd.CommandContext(ctx, s.verifyShell, "-c", script)
	cmd.Env = append(os.Environ(), "out="+out)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return e.New(e.ErrVerifyFailed, fmt.Sprintf("verification of %s failed", name)).
			WithDetails(strings.TrimSpace(stderr.String())).
			WithContext("name", name).
			WithCause(err)
	}
	return nil
}

// Verify re-runs the recorded verify script of a committed artifact.
func (s *FS) Verify(ctx context.Context, a *Artifact) error {
	if a == nil || a.Path == "" {
		return e.New(e.ErrArtifactNotFound, "nothing to verify")
	}
	return s.runVerify(ctx, a.Name, a.Verify, a.Path)
}

func (s *FS) remember(a *Artifact) {
	s.mu.Lock()
	s.memo[a.Hash] = a
	s.mu.Unlock()
}

func writeMeta(dir string, a *Artifact) error {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return e.Wrap(err, e.ErrStoreIO, "encode artifact metadata")
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), b, 0o644); err != nil {
		return e.Wrap(err, e.ErrStoreIO, "write artifact metadata")
	}
	return nil
}

func (s *FS) load(dir string) (*Artifact, error) {
	b, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, e.Wrap(err, e.ErrStoreIO, "decode artifact metadata").WithContext("path", dir)
	}
	a.Path = dir
	return &a, nil
}

// List returns committed artifacts whose name matches pattern (glob syntax,
// empty matches all), sorted by name and then creation time.
func (s *FS) List(pattern string) ([]*Artifact, error) {
	var matcher glob.Glob
	if pattern != "" {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, e.Wrap(err, e.ErrInvalidInput, "invalid pattern").WithContext("pattern", pattern)
		}
		matcher = g
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, e.Wrap(err, e.ErrStoreIO, "read store").WithContext("store", s.root)
	}
	var out []*Artifact
	for _, ent := range entries {
		if !ent.IsDir() || strings.HasPrefix(ent.Name(), tempPrefix) {
			continue
		}
		a, err := s.load(filepath.Join(s.root, ent.Name()))
		if err != nil {
			logger.Debugf("skipping %s: %v", ent.Name(), err)
			continue
		}
		if matcher != nil && !matcher.Match(a.Name) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out, nil
}

// Get resolves ref as a hash, a <hash>-<name> directory, a path inside the
// store, or an artifact name. A bare name picks the newest artifact.
func (s *FS) Get(ref string) (*Artifact, error) {
	if ref == "" {
		return nil, e.New(e.ErrInvalidInput, "empty artifact reference")
	}
	if filepath.IsAbs(ref) {
		if rel, err := filepath.Rel(s.root, ref); err == nil && !strings.HasPrefix(rel, "..") {
			ref = strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		}
	}
	all, err := s.List("")
	if err != nil {
		return nil, err
	}
	var best *Artifact
	for _, a := range all {
		switch {
		case a.Hash == ref, filepath.Base(a.Path) == ref:
			return a, nil
		case a.Name == ref:
			if best == nil || !a.Created.Before(best.Created) {
				best = a
			}
		}
	}
	if best == nil {
		return nil, e.New(e.ErrArtifactNotFound, "artifact not found: "+ref).WithContext("ref", ref)
	}
	return best, nil
}
