package id

import (
	"crypto/rand"
	"encoding/hex"
)

// New32 returns a random identifier of exactly 32 lowercase hex characters
// (no separators/prefixes). Used for notification event ids and request ids.
func New32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
