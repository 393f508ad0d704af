package domain

// Direction is the trade direction of a setup, zone, or structure event.
type Direction string

// Direction constants.
const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Bullish {
		return Bearish
	}
	return Bullish
}

// Side returns the order side for the direction.
func (d Direction) Side() Side {
	if d == Bullish {
		return SideBuy
	}
	return SideSell
}

// Side is an order side.
type Side string

// Side constants.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)
