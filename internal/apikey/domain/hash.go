package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAPIKey hashes a raw tt_ key for storage and lookup. Only the hash is
// persisted; the raw key is shown once at creation or rotation.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
