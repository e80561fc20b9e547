// Package version holds build metadata set via -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X shwrap/pkg/version.Version=v1.2.3"
var Version = "dev"

// Commit is the source revision, if known.
var Commit = ""

// String returns the version with the commit appended when set.
func String() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
