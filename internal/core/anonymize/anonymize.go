// Package anonymize derives the opaque identity tokens written to the sink
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Size is the token length in hex characters
const Size = 8

// Token is a truncated sha256 of a user identifier, lowercase hex.
// There is no salt: tokens must stay stable across restarts because the
// sink contents are the dedup record
type Token string

// Of hashes the canonical string form of a user identifier
func Of(raw string) Token {
	sum := sha256.Sum256([]byte(raw))
	return Token(hex.EncodeToString(sum[:Size/2]))
}

// OfID hashes a numeric platform user id via its decimal form
func OfID(id int64) Token { return Of(strconv.FormatInt(id, 10)) }

// String implements fmt.Stringer
func (t Token) String() string { return string(t) }

// Valid reports whether s has the shape of a Token
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
