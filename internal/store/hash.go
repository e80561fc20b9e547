package store

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"
)

// hashLen is the number of hex characters kept from the blake3 digest.
const hashLen = 32

// HashDerivation returns the content address of d. Every field is length
// prefixed so that distinct derivations cannot collide by concatenation.
func HashDerivation(d Derivation) string {
	h := blake3.New()
	writeField(h, "shwrap-derivation-v1")
	writeField(h, d.Name)
	writeField(h, d.InstallPath)
	if d.Executable {
		writeField(h, "x")
	} else {
		writeField(h, "-")
	}
	writeField(h, d.Content.Value)
	writeField(h, d.Verify)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:hashLen]
}

func writeField(w io.Writer, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = w.Write(n[:])
	_, _ = io.WriteString(w, s)
}
