package domain

// Bar represents one OHLCV bar. A bar is immutable once sealed; the
// aggregator mutates an in-progress bar in place until its timeframe
// boundary is crossed.
type Bar struct {
	Symbol      string  `json:"symbol"`
	TimestampMs int64   `json:"timestamp"` // bar open time, Unix milliseconds
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

// Range returns high - low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Body returns the absolute body size.
func (b Bar) Body() float64 {
	if b.Close >= b.Open {
		return b.Close - b.Open
	}
	return b.Open - b.Close
}

// IsBullish reports whether the bar closed above its open.
func (b Bar) IsBullish() bool {
	return b.Close > b.Open
}

// IsBearish reports whether the bar closed below its open.
func (b Bar) IsBearish() bool {
	return b.Close < b.Open
}

// Touches reports whether price falls within the bar's high/low range.
func (b Bar) Touches(price float64) bool {
	return b.Low <= price && price <= b.High
}
