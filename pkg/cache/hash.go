package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a namespaced cache key: prefix + ":" + hash of the parts.
// The parts are JSON-marshalled so option structs contribute every field.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the full SHA-256 hex digest of data. Keys and document
// hashes keep all 64 characters; a truncated digest could serve the wrong
// artifact.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
