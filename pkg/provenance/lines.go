package provenance

import "strings"

// Lines splits s on "\n". A trailing newline yields one trailing empty
// element, so JoinLines(Lines(s)) == s for every s.
func Lines(s string) []string {
	return strings.Split(s, "\n")
}

// JoinLines is the inverse of Lines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// MapLines splits s into lines, applies fn to the whole slice and joins the
// result again. The references of s are kept on the result.
func MapLines(s String, fn func([]string) []string) String {
	return s.WithValue(JoinLines(fn(Lines(s.Value))))
}
