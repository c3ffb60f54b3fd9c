// Package security keeps API credentials out of logs and diagnostics.
package security

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// fingerprintSize is the number of hash bytes kept in a fingerprint.
const fingerprintSize = 6

// Fingerprint returns a short, stable identifier for an API key that is safe
// to log. An empty key yields "none".
func Fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	sum := blake2b.Sum256([]byte(key))
	return "b2:" + hex.EncodeToString(sum[:fingerprintSize])
}

// Redact masks all but the last four characters of a key.
func Redact(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
