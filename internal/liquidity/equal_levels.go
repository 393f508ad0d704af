package liquidity

import (
	"sweep-signal-lab/internal/domain"
)

// EqualLevelConfig holds the clustering thresholds.
type EqualLevelConfig struct {
	Tolerance  float64 // max price distance to join a cluster
	MinSepMs   int64   // minimum time between counted touches
	MaxAgeMs   int64   // cluster dropped once its last touch is older
	MaxTouches int     // strength cap
}

// EqualLevel is a cluster of same-kind swing touches within tolerance:
// repeated tests of one price that a single swing point would understate.
type EqualLevel struct {
	Price       float64 // running mean of touch prices
	Kind        domain.SwingKind
	Touches     int
	FirstSeenMs int64
	LastSeenMs  int64
}

// EqualLevelDetector clusters swing points into equal-high/equal-low
// liquidity pools.
type EqualLevelDetector struct {
	cfg    EqualLevelConfig
	levels []EqualLevel
}

// NewEqualLevelDetector creates a detector.
func NewEqualLevelDetector(cfg EqualLevelConfig) *EqualLevelDetector {
	return &EqualLevelDetector{cfg: cfg}
}

// AddSwing folds a recorded swing point into the clusters. A swing within
// tolerance of an existing same-kind cluster counts as a touch when it is
// far enough in time from the cluster's last touch; otherwise it starts a
// new cluster.
func (d *EqualLevelDetector) AddSwing(sp domain.SwingPoint) {
	for i := range d.levels {
		lv := &d.levels[i]
		if lv.Kind != sp.Kind {
			continue
		}
		if diff := sp.Price - lv.Price; diff <= d.cfg.Tolerance && diff >= -d.cfg.Tolerance {
			if sp.TimestampMs-lv.LastSeenMs < d.cfg.MinSepMs {
				return // retest too soon, same test of the level
			}
			if lv.Touches < d.cfg.MaxTouches {
				lv.Touches++
			}
			// Running mean keeps the level centered on its touches.
			lv.Price += (sp.Price - lv.Price) / float64(lv.Touches)
			lv.LastSeenMs = sp.TimestampMs
			return
		}
	}

	d.levels = append(d.levels, EqualLevel{
		Price:       sp.Price,
		Kind:        sp.Kind,
		Touches:     1,
		FirstSeenMs: sp.TimestampMs,
		LastSeenMs:  sp.TimestampMs,
	})
}

// Prune drops clusters whose last touch is older than the max age.
// Called once per base bar.
func (d *EqualLevelDetector) Prune(nowMs int64) {
	kept := d.levels[:0]
	for _, lv := range d.levels {
		if nowMs-lv.LastSeenMs <= d.cfg.MaxAgeMs {
			kept = append(kept, lv)
		}
	}
	d.levels = kept
}

// Levels returns clusters with at least two touches: a single touch is
// just a swing point, not an equal level.
func (d *EqualLevelDetector) Levels() []EqualLevel {
	var out []EqualLevel
	for _, lv := range d.levels {
		if lv.Touches >= 2 {
			out = append(out, lv)
		}
	}
	return out
}
