package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short stable identifier for s, safe to log in place
// of user content.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
