package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"sweep-signal-lab/internal/domain"
)

// ComputeSetupID computes a deterministic setup ID using SHA256.
// Formula: SHA256(symbol|model|direction|structure_tf|origin_kind|origin_price|created_at)
// Returns hex-encoded hash (64 characters). The same bar stream always
// produces the same setup IDs, so replays are comparable record by record.
func ComputeSetupID(
	symbol string,
	model domain.EntryModel,
	direction domain.Direction,
	structureTF domain.Timeframe,
	originKind string,
	originPrice float64,
	createdAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%.8f|%d",
		symbol,
		string(model),
		string(direction),
		string(structureTF),
		originKind,
		originPrice,
		createdAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
