package domain

// StructureShift is a confirmed break of the most recent opposing swing
// point on one timeframe.
type StructureShift struct {
	Direction   Direction
	CausalSwing float64 // swing price defining risk if used as stop reference
	BreakLevel  float64 // the swing price that was broken
	ImpulseLow  float64 // low of the breaking impulse
	ImpulseHigh float64 // high of the breaking impulse
	Timeframe   Timeframe
	TimestampMs int64
}

// ImpulseRange returns the price range of the breaking impulse, used for
// retracement-zone checks.
func (s StructureShift) ImpulseRange() float64 {
	return s.ImpulseHigh - s.ImpulseLow
}
