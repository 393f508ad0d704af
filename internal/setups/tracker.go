// Package setups implements the setup state machine and the prioritizer
// that picks one winner when several setups become entry-ready at once.
package setups

import (
	"sort"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/idhash"
)

// Entry mode constants.
const (
	EntryModeMidpoint = "midpoint"
	EntryModeEdge     = "edge"
)

// TrackerConfig holds the state-machine thresholds.
type TrackerConfig struct {
	Symbol             string
	StructureTFs       []domain.Timeframe // ascending
	MaxZoneEntryAge    int // max zone age (own-TF bars) at assignment
	EntryMode          string             // midpoint | edge
	ConfirmBars        int                // base bars allowed for confirmation
	InvalidationBuffer float64
	ExpiryMultiplier   float64 // age limit = multiplier * structureTF duration
	MaxSetups          int
}

// TickResult lists what one base bar did to the tracked setups. Ready
// setups remain owned by the tracker until the caller removes them;
// everything else listed has already been deleted.
type TickResult struct {
	Ready       []*domain.Setup
	Expired     []*domain.Setup
	Invalidated []*domain.Setup
	Evicted     []*domain.Setup
}

// Tracker owns every live setup exclusively. All methods are driven
// synchronously by the orchestrator in a fixed per-bar order, so no
// locking is needed.
type Tracker struct {
	cfg    TrackerConfig
	setups []*domain.Setup // creation order
}

// NewTracker creates a tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// Len returns the live setup count.
func (t *Tracker) Len() int {
	return len(t.setups)
}

// Setups returns the live setups in creation order.
func (t *Tracker) Setups() []*domain.Setup {
	return t.setups
}

// dedupKey identifies a live setup family: while one member is alive no
// second setup with the same key is created.
func dedupKey(model domain.EntryModel, dir domain.Direction, tf domain.Timeframe, originKind string) string {
	if model == domain.ModelSweep {
		return originKind + "|" + string(dir) + "|" + string(tf)
	}
	return string(model) + "|" + string(dir) + "|" + string(tf)
}

func (t *Tracker) hasLive(key string) bool {
	for _, s := range t.setups {
		var origin string
		if s.Model == domain.ModelSweep && s.Sweep != nil {
			origin = string(s.Sweep.Pool.Kind)
		}
		if dedupKey(s.Model, s.Direction, s.StructureTF, origin) == key {
			return true
		}
	}
	return false
}

// OnSweep creates one sweep-model setup per configured structure
// timeframe, deduplicated per (pool kind, direction, structure TF) while
// a prior instance is live.
func (t *Tracker) OnSweep(ev domain.SweepEvent) []*domain.Setup {
	var created []*domain.Setup
	for _, tf := range t.cfg.StructureTFs {
		key := dedupKey(domain.ModelSweep, ev.Direction, tf, string(ev.Pool.Kind))
		if t.hasLive(key) {
			continue
		}
		sweep := ev
		s := &domain.Setup{
			ID: idhash.ComputeSetupID(t.cfg.Symbol, domain.ModelSweep, ev.Direction, tf,
				string(ev.Pool.Kind), ev.Pool.Price, ev.TimestampMs),
			Model:            domain.ModelSweep,
			Phase:            domain.PhaseSweep,
			Direction:        ev.Direction,
			StructureTF:      tf,
			EntryTF:          tf,
			Sweep:            &sweep,
			CreatedAtMs:      ev.TimestampMs,
			LastAdvancedAtMs: ev.TimestampMs,
		}
		t.setups = append(t.setups, s)
		created = append(created, s)
	}
	return created
}

// OnShift reacts to a confirmed structure shift: sweep setups on the
// shift's timeframe with a matching direction advance to STRUCTURE_SHIFT,
// and the two shift-born models (retrace, direct) are created directly in
// that phase, skipping the sweep precondition.
func (t *Tracker) OnShift(shift domain.StructureShift) []*domain.Setup {
	var created []*domain.Setup

	for _, s := range t.setups {
		if s.Phase == domain.PhaseSweep && s.StructureTF == shift.Timeframe && s.Direction == shift.Direction {
			sh := shift
			s.Phase = domain.PhaseStructureShift
			s.Shift = &sh
			s.LastAdvancedAtMs = shift.TimestampMs
		}
	}

	if !t.isStructureTF(shift.Timeframe) {
		return nil
	}
	for _, model := range []domain.EntryModel{domain.ModelRetrace, domain.ModelDirect} {
		key := dedupKey(model, shift.Direction, shift.Timeframe, "")
		if t.hasLive(key) {
			continue
		}
		sh := shift
		s := &domain.Setup{
			ID: idhash.ComputeSetupID(t.cfg.Symbol, model, shift.Direction, shift.Timeframe,
				"shift", shift.BreakLevel, shift.TimestampMs),
			Model:            model,
			Phase:            domain.PhaseStructureShift,
			Direction:        shift.Direction,
			StructureTF:      shift.Timeframe,
			EntryTF:          shift.Timeframe,
			Shift:            &sh,
			CreatedAtMs:      shift.TimestampMs,
			LastAdvancedAtMs: shift.TimestampMs,
		}
		t.setups = append(t.setups, s)
		created = append(created, s)
	}
	return created
}

// OnZone offers a zone to every STRUCTURE_SHIFT setup, both on detection
// and replayed after a later shift confirms.
// The zone must match the setup's direction, sit on an eligible entry
// timeframe (the structure timeframe or strictly lower), and still be
// fresh. Retrace setups additionally require the zone to lie inside the
// shift's impulse range.
func (t *Tracker) OnZone(z domain.Zone) {
	if z.AgeInBars > t.cfg.MaxZoneEntryAge {
		return
	}
	for _, s := range t.setups {
		if s.Phase != domain.PhaseStructureShift || s.Direction != z.Direction {
			continue
		}
		if !z.Timeframe.AtOrBelow(s.StructureTF) {
			continue
		}
		if s.Model == domain.ModelRetrace && s.Shift != nil {
			if z.Bottom < s.Shift.ImpulseLow || z.Top > s.Shift.ImpulseHigh {
				continue
			}
		}
		zone := z
		s.Phase = domain.PhaseEntryZone
		s.EntryTF = z.Timeframe
		s.EntryZone = &zone
		s.EntryPrice = t.entryPrice(zone)
		s.LastAdvancedAtMs = z.TimestampMs
	}
}

// OnRejectedZone creates a momentum-continuation setup from a zone that
// price filled and was rejected from. The setup starts directly in
// ENTRY_ZONE, expecting a second reaction on retest.
func (t *Tracker) OnRejectedZone(z domain.Zone) *domain.Setup {
	if !t.isStructureTF(z.Timeframe) {
		return nil
	}
	key := dedupKey(domain.ModelContinuation, z.Direction, z.Timeframe, "")
	if t.hasLive(key) {
		return nil
	}
	zone := z
	zone.Filled = false // retest tracking restarts for the continuation
	s := &domain.Setup{
		ID: idhash.ComputeSetupID(t.cfg.Symbol, domain.ModelContinuation, z.Direction, z.Timeframe,
			string(z.Kind), zone.Mid(), z.TimestampMs),
		Model:            domain.ModelContinuation,
		Phase:            domain.PhaseEntryZone,
		Direction:        z.Direction,
		StructureTF:      z.Timeframe,
		EntryTF:          z.Timeframe,
		EntryZone:        &zone,
		EntryPrice:       t.entryPrice(zone),
		CreatedAtMs:      z.TimestampMs,
		LastAdvancedAtMs: z.TimestampMs,
	}
	t.setups = append(t.setups, s)
	return s
}

// entryPrice derives the working entry price from the configured mode.
func (t *Tracker) entryPrice(z domain.Zone) float64 {
	if t.cfg.EntryMode == EntryModeEdge {
		return z.ProximalEdge()
	}
	return z.Mid()
}

// Tick runs the fixed per-bar maintenance order on one base bar: expire
// stale setups, invalidate mitigated zones, detect zone touches, check
// pending confirmations, then enforce the capacity bound. Invalidation
// runs before eviction so a falsified setup never survives at the cost
// of a healthy one.
func (t *Tracker) Tick(bar domain.Bar) TickResult {
	var res TickResult

	t.expire(bar.TimestampMs, &res)
	t.invalidate(bar, &res)
	t.touch(bar)
	t.confirm(bar, &res)
	t.evict(&res)

	return res
}

func (t *Tracker) expire(nowMs int64, res *TickResult) {
	kept := t.setups[:0]
	for _, s := range t.setups {
		limit := int64(t.cfg.ExpiryMultiplier * float64(s.StructureTF.Millis()))
		if s.AgeMs(nowMs) >= limit {
			res.Expired = append(res.Expired, s)
			continue
		}
		kept = append(kept, s)
	}
	t.setups = kept
}

func (t *Tracker) invalidate(bar domain.Bar, res *TickResult) {
	kept := t.setups[:0]
	for _, s := range t.setups {
		if s.Phase != domain.PhaseEntryZone && s.Phase != domain.PhaseEntryPending {
			kept = append(kept, s)
			continue
		}
		z := s.EntryZone
		falsified := (z.Direction == domain.Bullish && bar.Close < z.Bottom-t.cfg.InvalidationBuffer) ||
			(z.Direction == domain.Bearish && bar.Close > z.Top+t.cfg.InvalidationBuffer)
		if falsified {
			res.Invalidated = append(res.Invalidated, s)
			continue
		}
		kept = append(kept, s)
	}
	t.setups = kept
}

func (t *Tracker) touch(bar domain.Bar) {
	for _, s := range t.setups {
		if s.Phase != domain.PhaseEntryZone {
			continue
		}
		if !bar.Touches(s.EntryPrice) {
			continue
		}
		s.Phase = domain.PhaseEntryPending
		s.ConfirmDeadline = t.cfg.ConfirmBars
		s.LastAdvancedAtMs = bar.TimestampMs
	}
}

// confirm checks pending setups for a base close beyond the entry price
// in the setup's direction. The touching bar itself never confirms; the
// countdown starts on the next bar.
func (t *Tracker) confirm(bar domain.Bar, res *TickResult) {
	kept := t.setups[:0]
	for _, s := range t.setups {
		if s.Phase != domain.PhaseEntryPending || s.LastAdvancedAtMs == bar.TimestampMs {
			kept = append(kept, s)
			continue
		}
		confirmed := (s.Direction == domain.Bullish && bar.Close > s.EntryPrice) ||
			(s.Direction == domain.Bearish && bar.Close < s.EntryPrice)
		if confirmed {
			res.Ready = append(res.Ready, s)
			kept = append(kept, s)
			continue
		}
		s.ConfirmDeadline--
		if s.ConfirmDeadline <= 0 {
			res.Expired = append(res.Expired, s)
			continue
		}
		kept = append(kept, s)
	}
	t.setups = kept
}

// evict enforces the capacity bound: lowest structure timeframe first,
// then oldest. Setups that became ready this bar are never evicted.
func (t *Tracker) evict(res *TickResult) {
	if t.cfg.MaxSetups <= 0 || len(t.setups) <= t.cfg.MaxSetups {
		return
	}
	ready := make(map[string]bool, len(res.Ready))
	for _, s := range res.Ready {
		ready[s.ID] = true
	}

	victims := make([]*domain.Setup, 0, len(t.setups))
	for _, s := range t.setups {
		if !ready[s.ID] {
			victims = append(victims, s)
		}
	}
	sort.SliceStable(victims, func(i, j int) bool {
		a, b := victims[i], victims[j]
		if a.StructureTF.Millis() != b.StructureTF.Millis() {
			return a.StructureTF.Millis() < b.StructureTF.Millis()
		}
		return a.CreatedAtMs < b.CreatedAtMs
	})

	drop := make(map[string]bool)
	for i := 0; len(t.setups)-len(drop) > t.cfg.MaxSetups && i < len(victims); i++ {
		drop[victims[i].ID] = true
		res.Evicted = append(res.Evicted, victims[i])
	}

	kept := t.setups[:0]
	for _, s := range t.setups {
		if !drop[s.ID] {
			kept = append(kept, s)
		}
	}
	t.setups = kept
}

// Remove deletes a setup by ID. Used for the consumed winner and for
// ready setups rejected by the entry filters.
func (t *Tracker) Remove(id string) {
	kept := t.setups[:0]
	for _, s := range t.setups {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	t.setups = kept
}

func (t *Tracker) isStructureTF(tf domain.Timeframe) bool {
	for _, s := range t.cfg.StructureTFs {
		if s == tf {
			return true
		}
	}
	return false
}
