// Package provenance tracks which store artifacts a string was derived from.
//
// A String pairs a value with the set of artifact hashes it references.
// Concatenation and line mapping carry the set along, so a script assembled
// from artifact paths still knows which artifacts it depends on when it is
// handed to the store.
package provenance

import (
	"sort"
	"strings"
)

// String is a value plus the artifact references it was built from. The zero
// value is an empty string without references.
type String struct {
	Value string
	refs  map[string]struct{}
}

// Plain returns s without references.
func Plain(s string) String { return String{Value: s} }

// Of returns s referencing the given artifact hashes.
func Of(s string, refs ...string) String {
	out := String{Value: s}
	for _, r := range refs {
		out.addRef(r)
	}
	return out
}

func (s *String) addRef(ref string) {
	if ref == "" {
		return
	}
	if s.refs == nil {
		s.refs = make(map[string]struct{})
	}
	s.refs[ref] = struct{}{}
}

// String returns the plain value.
func (s String) String() string { return s.Value }

// Len returns the length of the value in bytes.
func (s String) Len() int { return len(s.Value) }

// Refs returns the referenced hashes in sorted order.
func (s String) Refs() []string {
	out := make([]string, 0, len(s.refs))
	for r := range s.refs {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// WithValue returns a String holding v and the references of s.
func (s String) WithValue(v string) String {
	out := String{Value: v}
	for r := range s.refs {
		out.addRef(r)
	}
	return out
}

// Concat joins parts without a separator, merging their references.
func Concat(parts ...String) String {
	return Join(parts, "")
}

// Join joins parts with sep, merging their references.
func Join(parts []String, sep string) String {
	var out String
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = p.Value
		for r := range p.refs {
			out.addRef(r)
		}
	}
	out.Value = strings.Join(values, sep)
	return out
}
