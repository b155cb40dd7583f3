package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey joins parts with "|" and returns the SHA-256 hex digest, so client
// controlled values such as IPs never land verbatim in shared stores.
func HashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
