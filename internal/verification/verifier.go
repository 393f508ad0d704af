// Package verification compares signal sequences across runs. A live run
// and a replay over the same bar archive must emit identical signals;
// any divergence points at hidden state or nondeterminism.
package verification

import (
	"math"

	"sweep-signal-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// SignalResult contains the result of comparing a single signal.
type SignalResult struct {
	SignalID    string            // stored signal ID
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// Report contains results for a full sequence comparison.
type Report struct {
	TotalSignals    int            // signals compared
	MatchedSignals  int            // signals that matched exactly
	DivergentCount  int            // signals with divergences
	MissingReplayed int            // stored signals absent from replay
	ExtraReplayed   int            // replayed signals absent from store
	Results         []SignalResult // individual results
}

// Match reports whether the two sequences are identical.
func (r *Report) Match() bool {
	return r.DivergentCount == 0 && r.MissingReplayed == 0 && r.ExtraReplayed == 0
}

// CompareRuns compares two signal sequences position by position.
// Sequences of different length report the tail as missing or extra.
func CompareRuns(stored, replayed []*domain.Signal) *Report {
	report := &Report{}

	n := len(stored)
	if len(replayed) < n {
		n = len(replayed)
	}
	report.MissingReplayed = len(stored) - n
	report.ExtraReplayed = len(replayed) - n

	for i := 0; i < n; i++ {
		divergences := CompareSignals(stored[i], replayed[i])
		result := SignalResult{
			SignalID:    stored[i].ID,
			Match:       len(divergences) == 0,
			Divergences: divergences,
		}
		report.TotalSignals++
		if result.Match {
			report.MatchedSignals++
		} else {
			report.DivergentCount++
		}
		report.Results = append(report.Results, result)
	}

	return report
}

// CompareSignals compares two signals and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareSignals(stored, replayed *domain.Signal) []FieldDivergence {
	var divergences []FieldDivergence

	diverge := func(field string, expected, actual interface{}) {
		divergences = append(divergences, FieldDivergence{
			Field:    field,
			Expected: expected,
			Actual:   actual,
		})
	}

	if stored.ID != replayed.ID {
		diverge("ID", stored.ID, replayed.ID)
	}
	if stored.Symbol != replayed.Symbol {
		diverge("Symbol", stored.Symbol, replayed.Symbol)
	}
	if stored.Side != replayed.Side {
		diverge("Side", stored.Side, replayed.Side)
	}
	if !floatEquals(stored.EntryPrice, replayed.EntryPrice) {
		diverge("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	}
	if !floatEquals(stored.StopLoss, replayed.StopLoss) {
		diverge("StopLoss", stored.StopLoss, replayed.StopLoss)
	}
	if !floatEquals(stored.TakeProfit, replayed.TakeProfit) {
		diverge("TakeProfit", stored.TakeProfit, replayed.TakeProfit)
	}
	if stored.Quantity != replayed.Quantity {
		diverge("Quantity", stored.Quantity, replayed.Quantity)
	}
	if stored.MaxHoldBars != replayed.MaxHoldBars {
		diverge("MaxHoldBars", stored.MaxHoldBars, replayed.MaxHoldBars)
	}
	if stored.TimestampMs != replayed.TimestampMs {
		diverge("TimestampMs", stored.TimestampMs, replayed.TimestampMs)
	}

	sm, rm := stored.Metadata, replayed.Metadata
	if sm.EntryModel != rm.EntryModel {
		diverge("Metadata.EntryModel", sm.EntryModel, rm.EntryModel)
	}
	if sm.StructureTF != rm.StructureTF {
		diverge("Metadata.StructureTF", sm.StructureTF, rm.StructureTF)
	}
	if sm.EntryTF != rm.EntryTF {
		diverge("Metadata.EntryTF", sm.EntryTF, rm.EntryTF)
	}
	if !floatPtrEquals(sm.SweepLevel, rm.SweepLevel) {
		diverge("Metadata.SweepLevel", sm.SweepLevel, rm.SweepLevel)
	}
	if sm.SweepKind != rm.SweepKind {
		diverge("Metadata.SweepKind", sm.SweepKind, rm.SweepKind)
	}
	if !floatEquals(sm.CausalSwing, rm.CausalSwing) {
		diverge("Metadata.CausalSwing", sm.CausalSwing, rm.CausalSwing)
	}
	if !floatEquals(sm.EntryZoneTop, rm.EntryZoneTop) {
		diverge("Metadata.EntryZoneTop", sm.EntryZoneTop, rm.EntryZoneTop)
	}
	if !floatEquals(sm.EntryZoneLow, rm.EntryZoneLow) {
		diverge("Metadata.EntryZoneLow", sm.EntryZoneLow, rm.EntryZoneLow)
	}
	if !floatEquals(sm.RiskReward, rm.RiskReward) {
		diverge("Metadata.RiskReward", sm.RiskReward, rm.RiskReward)
	}
	if !floatEquals(sm.StopDistance, rm.StopDistance) {
		diverge("Metadata.StopDistance", sm.StopDistance, rm.StopDistance)
	}
	if !floatEquals(sm.TargetDistance, rm.TargetDistance) {
		diverge("Metadata.TargetDistance", sm.TargetDistance, rm.TargetDistance)
	}
	if sm.TargetSource != rm.TargetSource {
		diverge("Metadata.TargetSource", sm.TargetSource, rm.TargetSource)
	}
	if sm.IsKillzone != rm.IsKillzone {
		diverge("Metadata.IsKillzone", sm.IsKillzone, rm.IsKillzone)
	}
	if sm.Killzone != rm.Killzone {
		diverge("Metadata.Killzone", sm.Killzone, rm.Killzone)
	}
	if sm.RangeDay != rm.RangeDay {
		diverge("Metadata.RangeDay", sm.RangeDay, rm.RangeDay)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}

// floatPtrEquals compares two *float64 values within FloatTolerance.
// Returns true if both are nil, or both are non-nil and equal.
func floatPtrEquals(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEquals(*a, *b)
}
