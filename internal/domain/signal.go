package domain

// SignalMetadata carries the context a downstream executor or analyst
// wants alongside the raw order parameters.
type SignalMetadata struct {
	EntryModel     EntryModel `json:"entryModel"`
	StructureTF    Timeframe  `json:"structureTF"`
	EntryTF        Timeframe  `json:"entryTF"`
	SweepLevel     *float64   `json:"sweepLevel,omitempty"`
	SweepKind      PoolKind   `json:"sweepKind,omitempty"`
	CausalSwing    float64    `json:"causalSwing"`
	EntryZoneTop   float64    `json:"entryZoneTop"`
	EntryZoneLow   float64    `json:"entryZoneLow"`
	RiskReward     float64    `json:"riskReward"`
	StopDistance   float64    `json:"stopDistance"`
	TargetDistance float64    `json:"targetDistance"`
	TargetSource   string     `json:"targetSource"` // "opposing_pool" or "fixed_rr"
	IsKillzone     bool       `json:"isKillzone"`
	Killzone       string     `json:"killzone,omitempty"`
	RangeDay       string     `json:"rangeDay,omitempty"` // compressed | normal | expanded
	BookImbalance  *float64   `json:"bookImbalance,omitempty"`
}

// Signal is the single-position trade signal emitted for a winning setup.
// At most one signal is emitted per base bar.
type Signal struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Side        Side           `json:"side"`
	EntryPrice  float64        `json:"price"`
	StopLoss    float64        `json:"stopLoss"`
	TakeProfit  float64        `json:"takeProfit"`
	Quantity    int            `json:"quantity"`
	MaxHoldBars int            `json:"maxHoldBars"`
	TimestampMs int64          `json:"timestamp"`
	Metadata    SignalMetadata `json:"metadata"`
}

// AuxContext is optional per-bar context attached by upstream
// collaborators. It is consumed only for signal metadata and explicit
// filters, never for core phase logic.
type AuxContext struct {
	BookImbalance *float64
	OptionsLevels []float64
}
