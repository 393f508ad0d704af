package setups

import (
	"sort"

	"sweep-signal-lab/internal/domain"
)

// PriorityMode selects the prioritizer ordering. The alternative modes
// reorder the same comparison chain; they are configuration, not
// separate algorithms.
type PriorityMode string

// Priority mode constants.
const (
	PriorityDefault       PriorityMode = "default"
	PriorityBestRR        PriorityMode = "best-rr"
	PriorityRecent        PriorityMode = "recent"
	PriorityKillzoneFirst PriorityMode = "killzone-first"
)

// Candidate pairs an entry-ready setup with its estimated risk:reward,
// computed by the orchestrator's signal builder before prioritization.
type Candidate struct {
	Setup      *domain.Setup
	RiskReward float64
}

// Pick deterministically selects exactly one candidate, or nil for an
// empty list. Default ordering: higher structure timeframe, then
// sweep-backed models, then killzone-active setups, then higher
// risk:reward; remaining ties fall back to creation time and ID so the
// choice never depends on input order.
func Pick(mode PriorityMode, cands []Candidate) *Candidate {
	if len(cands) == 0 {
		return nil
	}

	ordered := make([]Candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(mode, ordered[i], ordered[j])
	})
	return &ordered[0]
}

func less(mode PriorityMode, a, b Candidate) bool {
	switch mode {
	case PriorityBestRR:
		if a.RiskReward != b.RiskReward {
			return a.RiskReward > b.RiskReward
		}
	case PriorityRecent:
		if a.Setup.CreatedAtMs != b.Setup.CreatedAtMs {
			return a.Setup.CreatedAtMs > b.Setup.CreatedAtMs
		}
	case PriorityKillzoneFirst:
		if ka, kb := inKillzone(a.Setup), inKillzone(b.Setup); ka != kb {
			return ka
		}
	}
	return defaultLess(a, b)
}

func defaultLess(a, b Candidate) bool {
	if a.Setup.StructureTF.Millis() != b.Setup.StructureTF.Millis() {
		return a.Setup.StructureTF.Millis() > b.Setup.StructureTF.Millis()
	}
	if sa, sb := a.Setup.Model.SweepBacked(), b.Setup.Model.SweepBacked(); sa != sb {
		return sa
	}
	if ka, kb := inKillzone(a.Setup), inKillzone(b.Setup); ka != kb {
		return ka
	}
	if a.RiskReward != b.RiskReward {
		return a.RiskReward > b.RiskReward
	}
	if a.Setup.CreatedAtMs != b.Setup.CreatedAtMs {
		return a.Setup.CreatedAtMs < b.Setup.CreatedAtMs
	}
	return a.Setup.ID < b.Setup.ID
}

func inKillzone(s *domain.Setup) bool {
	return s.KillzoneName != ""
}
