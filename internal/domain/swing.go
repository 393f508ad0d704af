package domain

// SwingKind marks a swing point as a local high or low.
type SwingKind string

// Swing kind constants.
const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a confirmed local extremum on a single timeframe.
// Immutable once recorded; pruned after a bounded age.
type SwingPoint struct {
	Price       float64
	Kind        SwingKind
	TimestampMs int64
	Timeframe   Timeframe
}
