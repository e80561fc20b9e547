// Package validate holds the primitive predicates used to reject bad wrapper
// inputs before anything is written to the store.
package validate

import (
	"regexp"
	"strings"
)

// envNamePattern accepts a single letter, or a letter or underscore followed
// by one or more word characters.
var envNamePattern = regexp.MustCompile(`^(?:[a-zA-Z]|[a-zA-Z_][a-zA-Z0-9_]+)$`)

// IsNonEmptyString reports whether v is a string with at least one byte.
func IsNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && len(s) > 0
}

// IsPositiveNaturalNumber reports whether v is an integer >= 1.
func IsPositiveNaturalNumber(v any) bool {
	switch n := v.(type) {
	case int:
		return n >= 1
	case int8:
		return n >= 1
	case int16:
		return n >= 1
	case int32:
		return n >= 1
	case int64:
		return n >= 1
	case uint:
		return n >= 1
	case uint8:
		return n >= 1
	case uint16:
		return n >= 1
	case uint32:
		return n >= 1
	case uint64:
		return n >= 1
	case uintptr:
		return n >= 1
	}
	return false
}

// IsEnvName reports whether s is a legal environment variable name.
func IsEnvName(s string) bool {
	return envNamePattern.MatchString(s)
}

// IsArtifactName reports whether s can name a file under bin/.
func IsArtifactName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\x00")
}
