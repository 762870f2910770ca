package app

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
)

// Token is a bearer credential minted at join: two uniformly random 64-bit
// values, each rendered as 16 lowercase hex chars, concatenated - 32 hex
// chars total. Opaque to clients.
type Token string

var tokenShape = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// ValidTokenShape reports whether s is exactly 32 hex digits, case-insensitive
// per spec.md's token validation rule. Callers that go on to use s as a
// lookup key must still lowercase it first - this only checks shape.
func ValidTokenShape(s string) bool {
	return tokenShape.MatchString(s)
}

// GenerateToken mints a fresh token from two independent random 64-bit
// reads. A read failure is treated as fatal - crypto/rand failing means the
// process's entropy source is broken, not a recoverable condition.
func GenerateToken() Token {
	return Token(hexEncode(randUint64()) + hexEncode(randUint64()))
}

func randUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("token generation: crypto/rand unavailable: " + err.Error())
	}
	return binary.BigEndian.Uint64(buf[:])
}

// hexEncode renders val as exactly 16 lowercase hex characters, zero-padded.
func hexEncode(val uint64) string {
	return fmt.Sprintf("%016x", val)
}
