// Package wrap generates wrapper scripts around existing executables and
// commits them to an artifact store together with a check script that must
// pass before the wrapper is accepted.
package wrap

import (
	"context"
	"path"

	"shwrap/internal/store"
	"shwrap/internal/validate"
	e "shwrap/pkg/errors"
	"shwrap/pkg/provenance"
)

// strictPreamble makes the verify script abort on the first failing check.
const strictPreamble = "set -euo pipefail\n"

// Emit builds an executable artifact installed at bin/<name> whose content is
// body. The store runs check after strictPreamble and commits the artifact
// only when it succeeds.
func Emit(ctx context.Context, b store.Builder, name, check string, body provenance.String) (*store.Artifact, error) {
	if !validate.IsNonEmptyString(name) {
		return nil, e.New(e.ErrInvalidInput, "emit: name must be a non-empty string")
	}
	if !validate.IsArtifactName(name) {
		return nil, e.New(e.ErrInvalidInput, "emit: name cannot be used as a file name").WithContext("name", name)
	}
	if !validate.IsNonEmptyString(body.Value) {
		return nil, e.New(e.ErrInvalidInput, "emit: script body is empty").WithContext("name", name)
	}
	if b == nil {
		return nil, e.New(e.ErrInvalidConfig, "emit: no artifact store configured")
	}
	return b.Build(ctx, store.Derivation{
		Name:        name,
		Content:     body,
		Executable:  true,
		InstallPath: path.Join("bin", name),
		Verify:      strictPreamble + check,
	})
}
