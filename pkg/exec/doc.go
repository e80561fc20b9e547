// Package exec provides shell quoting primitives and a mockable command
// constructor for shwrap. Generated scripts embed every caller-supplied value
// through an Escaper so that the shell reads back exactly the original string.
package exec
