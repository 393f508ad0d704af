package domain

// Phase is a setup lifecycle phase. Phases only move forward; a setup
// that cannot advance is deleted, never regressed.
type Phase int

// Phase constants, in lifecycle order.
const (
	PhaseSweep Phase = iota
	PhaseStructureShift
	PhaseEntryZone
	PhaseEntryPending
)

func (p Phase) String() string {
	switch p {
	case PhaseSweep:
		return "SWEEP"
	case PhaseStructureShift:
		return "STRUCTURE_SHIFT"
	case PhaseEntryZone:
		return "ENTRY_ZONE"
	case PhaseEntryPending:
		return "ENTRY_PENDING"
	default:
		return "UNKNOWN"
	}
}

// EntryModel discriminates how a setup originated. Model-specific behavior
// (stop reference, signal label, priority class) switches on this tag.
type EntryModel string

// Entry model constants.
const (
	ModelSweep        EntryModel = "sweep"        // liquidity sweep then structure shift
	ModelRetrace      EntryModel = "retrace"      // structure shift, entry on impulse retracement
	ModelDirect       EntryModel = "direct"       // structure shift, entry on first fresh zone
	ModelContinuation EntryModel = "continuation" // filled-then-rejected zone retest
)

// SweepBacked reports whether the model requires a sweep precondition.
func (m EntryModel) SweepBacked() bool {
	return m == ModelSweep
}

// Setup is the central mutable entity tracked by the setup tracker, which
// owns it exclusively for its entire life.
type Setup struct {
	ID          string
	Model       EntryModel
	Phase       Phase
	Direction   Direction
	StructureTF Timeframe
	EntryTF     Timeframe

	Sweep *SweepEvent
	Shift *StructureShift

	EntryZone  *Zone
	EntryPrice float64

	CreatedAtMs      int64
	LastAdvancedAtMs int64

	// ConfirmDeadline counts remaining base bars for the ENTRY_PENDING
	// confirmation window; meaningful only in that phase.
	ConfirmDeadline int

	// KillzoneOK and KillzoneName are filter metadata stamped when the
	// setup becomes entry-ready.
	KillzoneOK   bool
	KillzoneName string
}

// AgeMs returns the setup age at time now.
func (s *Setup) AgeMs(nowMs int64) int64 {
	return nowMs - s.CreatedAtMs
}
