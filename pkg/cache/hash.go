package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 of data (64 characters).
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash returns the first n hex characters of the SHA-256 of s. It is
// used for cache key suffixes and lock file names, where a full digest is
// noise. n is clamped to [1, 64].
func ShortHash(s string, n int) string {
	h := Hash([]byte(s))
	return h[:min(max(n, 1), len(h))]
}

// isHex reports whether s is non-empty lowercase hex, as produced by Hash.
func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
