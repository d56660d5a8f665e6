package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken - Digest a single-use token for storage. Only the digest is
// persisted so a leaked database copy cannot be replayed; the raw token
// lives in the email link alone.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
