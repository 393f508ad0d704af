package domain

// ZoneKind distinguishes the two reaction-zone patterns.
type ZoneKind string

// Zone kind constants.
const (
	ZoneImbalance  ZoneKind = "imbalance"   // three-bar gap (FVG)
	ZoneOrderBlock ZoneKind = "order_block" // last opposing bar before an impulse
)

// Zone is a price band expected to produce a reaction on retest.
// Created by a structure analyzer; ages one count per completed bar on its
// own timeframe. Past MaxEntryAge it is no longer assignable as a fresh
// entry zone but remains live for touch detection until invalidated.
type Zone struct {
	Kind        ZoneKind
	Direction   Direction
	Top         float64
	Bottom      float64
	TimestampMs int64
	Timeframe   Timeframe
	AgeInBars   int
	Filled      bool // price has traded back into the band
}

// Mid returns the zone midpoint.
func (z Zone) Mid() float64 {
	return (z.Top + z.Bottom) / 2
}

// Contains reports whether price is inside the band (inclusive).
func (z Zone) Contains(price float64) bool {
	return price >= z.Bottom && price <= z.Top
}

// ProximalEdge returns the zone edge nearest to approaching price:
// the top for a bullish zone below price, the bottom for a bearish one.
func (z Zone) ProximalEdge() float64 {
	if z.Direction == Bullish {
		return z.Top
	}
	return z.Bottom
}
