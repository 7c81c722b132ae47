package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a fixed-length hex identifier safe to use as a storage key.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
