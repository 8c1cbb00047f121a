package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(run_id|entry_time_ms|exit_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	runID string,
	entryTimeMs int64,
	exitTimeMs int64,
) string {
	data := fmt.Sprintf("%s|%d|%d",
		runID,
		entryTimeMs,
		exitTimeMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
