package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSignalID computes a deterministic signal ID using SHA256.
// Formula: SHA256(setup_id|symbol|emitted_at)
// Returns hex-encoded hash (64 characters).
func ComputeSignalID(setupID, symbol string, emittedAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", setupID, symbol, emittedAtMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
