// Package auth implements the read-only credential check against the
// server's flat-file user store.
package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashCredential hashes s with SHA3-512 and renders the digest the way
// logins.json stores it: each byte as "0xHH" uppercase, space-separated,
// with a trailing space after the last byte.
func HashCredential(s string) string {
	sum := sha3.Sum512([]byte(s))
	var b strings.Builder
	b.Grow(len(sum) * 5)
	for _, v := range sum {
		fmt.Fprintf(&b, "0x%02X ", v)
	}
	return b.String()
}
