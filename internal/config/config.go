// Package config holds the flat engine configuration. Options are supplied
// at construction and never mutated mid-run; Engine.UpdateParams swaps the
// whole struct between runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sweep-signal-lab/internal/domain"
)

// Validation errors.
var (
	ErrUnknownTimeframe   = errors.New("unknown timeframe")
	ErrNoStructureTF      = errors.New("at least one structure timeframe is required")
	ErrInvalidEntryMode   = errors.New("entry mode must be midpoint or edge")
	ErrInvalidPriority    = errors.New("priority mode must be default, best-rr, recent or killzone-first")
	ErrNonPositiveOption  = errors.New("option must be positive")
	ErrStopBoundsInverted = errors.New("min stop distance exceeds max stop distance")
)

// Config is the full set of engine options.
type Config struct {
	Symbol   string `yaml:"symbol"`
	Quantity int    `yaml:"quantity"`

	// Timeframes derived from the 1m base stream. StructureTimeframes must
	// be a subset of ActiveTimeframes; entry eligibility is any active
	// timeframe at or below the setup's structure timeframe.
	ActiveTimeframes    []domain.Timeframe `yaml:"active_timeframes"`
	StructureTimeframes []domain.Timeframe `yaml:"structure_timeframes"`

	// Structure analysis.
	SwingLookback     int     `yaml:"swing_lookback"`      // bars each side of a fractal
	MinSwingPoints    float64 `yaml:"min_swing_points"`    // noise floor for swing size
	ShiftConfirmBars  int     `yaml:"shift_confirm_bars"`  // closes that must hold beyond the swing
	MinGapPoints      float64 `yaml:"min_gap_points"`      // minimum imbalance-zone size
	ImpulseBodyFactor float64 `yaml:"impulse_body_factor"` // body multiple that marks an impulse bar
	MaxZoneEntryAge   int     `yaml:"max_zone_entry_age"`  // bars a zone stays assignable

	// Liquidity pools.
	SweepMinWickPoints float64 `yaml:"sweep_min_wick_points"`
	SweepRequireClose  bool    `yaml:"sweep_require_close"` // close back on origin side
	SwingPoolCap       int     `yaml:"swing_pool_cap"`
	SwingPoolMaxAgeH   int     `yaml:"swing_pool_max_age_hours"`

	// Equal levels.
	EqualLevelTolerance  float64 `yaml:"equal_level_tolerance"`
	EqualLevelMinSepMin  int     `yaml:"equal_level_min_sep_minutes"`
	EqualLevelMaxAgeH    int     `yaml:"equal_level_max_age_hours"`
	EqualLevelMaxTouches int     `yaml:"equal_level_max_touches"`

	// Range context.
	RangeAvgDays         int     `yaml:"range_avg_days"`
	RangeCompressedRatio float64 `yaml:"range_compressed_ratio"`
	RangeExpandedRatio   float64 `yaml:"range_expanded_ratio"`

	// Setup lifecycle.
	EntryMode          string  `yaml:"entry_mode"` // midpoint | edge
	ConfirmBars        int     `yaml:"confirm_bars"`
	InvalidationBuffer float64 `yaml:"invalidation_buffer_points"`
	ExpiryMultiplier   int     `yaml:"expiry_multiplier"` // structure-TF bars before expiry
	MaxSetups          int     `yaml:"max_setups"`

	// Selection and filtering.
	PriorityMode          string  `yaml:"priority_mode"`
	LongEnabled           bool    `yaml:"long_enabled"`
	ShortEnabled          bool    `yaml:"short_enabled"`
	RequireTrendAlignment bool    `yaml:"require_trend_alignment"`
	MinRiskReward         float64 `yaml:"min_risk_reward"`

	// Signal geometry.
	StopBufferPoints  float64 `yaml:"stop_buffer_points"`
	MinStopPoints     float64 `yaml:"min_stop_points"`
	MaxStopPoints     float64 `yaml:"max_stop_points"`
	TargetRR          float64 `yaml:"target_rr"`
	MinOpposingPoolRR float64 `yaml:"min_opposing_pool_rr"`
	MaxHoldBars       int     `yaml:"max_hold_bars"`

	// Throttling.
	DailyTradeCap   int `yaml:"daily_trade_cap"`
	CooldownMinutes int `yaml:"cooldown_minutes"`

	// Killzone policy: timeframes listed here bypass the time-of-day gate.
	KillzoneBypass []domain.Timeframe `yaml:"killzone_bypass"`

	Timezone string `yaml:"timezone"`
}

// Default returns the baseline configuration for index futures points.
func Default() Config {
	return Config{
		Symbol:   "NQ",
		Quantity: 1,

		ActiveTimeframes:    []domain.Timeframe{domain.TF5m, domain.TF15m, domain.TF1h, domain.TF4h},
		StructureTimeframes: []domain.Timeframe{domain.TF15m, domain.TF1h},

		SwingLookback:     2,
		MinSwingPoints:    5.0,
		ShiftConfirmBars:  2,
		MinGapPoints:      2.0,
		ImpulseBodyFactor: 1.5,
		MaxZoneEntryAge:   3,

		SweepMinWickPoints: 3.0,
		SweepRequireClose:  true,
		SwingPoolCap:       200,
		SwingPoolMaxAgeH:   24,

		EqualLevelTolerance:  3.0,
		EqualLevelMinSepMin:  30,
		EqualLevelMaxAgeH:    48,
		EqualLevelMaxTouches: 5,

		RangeAvgDays:         10,
		RangeCompressedRatio: 0.7,
		RangeExpandedRatio:   1.3,

		EntryMode:          "midpoint",
		ConfirmBars:        5,
		InvalidationBuffer: 2.0,
		ExpiryMultiplier:   12,
		MaxSetups:          12,

		PriorityMode:          "default",
		LongEnabled:           true,
		ShortEnabled:          true,
		RequireTrendAlignment: false,
		MinRiskReward:         1.5,

		StopBufferPoints:  5.0,
		MinStopPoints:     5.0,
		MaxStopPoints:     60.0,
		TargetRR:          2.0,
		MinOpposingPoolRR: 1.0,
		MaxHoldBars:       240,

		DailyTradeCap:   3,
		CooldownMinutes: 30,

		KillzoneBypass: []domain.Timeframe{domain.TF1h, domain.TF4h},

		Timezone: "America/New_York",
	}
}

// Load reads a YAML config file over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects misconfiguration at construction time. Any error here
// is a contract violation and must stop startup, not be swallowed per bar.
func (c Config) Validate() error {
	for _, tf := range c.ActiveTimeframes {
		if !tf.Valid() || tf == domain.TF1m {
			return fmt.Errorf("%w: active timeframe %q", ErrUnknownTimeframe, tf)
		}
	}
	if len(c.StructureTimeframes) == 0 {
		return ErrNoStructureTF
	}
	for _, tf := range c.StructureTimeframes {
		if !c.isActive(tf) {
			return fmt.Errorf("%w: structure timeframe %q is not in the active set", ErrUnknownTimeframe, tf)
		}
	}
	for _, tf := range c.KillzoneBypass {
		if !tf.Valid() {
			return fmt.Errorf("%w: killzone bypass timeframe %q", ErrUnknownTimeframe, tf)
		}
	}
	if c.EntryMode != "midpoint" && c.EntryMode != "edge" {
		return fmt.Errorf("%w: got %q", ErrInvalidEntryMode, c.EntryMode)
	}
	switch c.PriorityMode {
	case "default", "best-rr", "recent", "killzone-first":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidPriority, c.PriorityMode)
	}

	// Fixed order, so the same misconfiguration always reports the same
	// option first.
	positives := []struct {
		name  string
		value float64
	}{
		{"swing_lookback", float64(c.SwingLookback)},
		{"shift_confirm_bars", float64(c.ShiftConfirmBars)},
		{"max_setups", float64(c.MaxSetups)},
		{"expiry_multiplier", float64(c.ExpiryMultiplier)},
		{"confirm_bars", float64(c.ConfirmBars)},
		{"swing_pool_cap", float64(c.SwingPoolCap)},
		{"range_avg_days", float64(c.RangeAvgDays)},
		{"target_rr", c.TargetRR},
		{"min_stop_points", c.MinStopPoints},
		{"max_stop_points", c.MaxStopPoints},
		{"quantity", float64(c.Quantity)},
		{"max_hold_bars", float64(c.MaxHoldBars)},
		{"sweep_min_wick", c.SweepMinWickPoints},
		{"equal_level_tol", c.EqualLevelTolerance},
		{"impulse_body_factor", c.ImpulseBodyFactor},
	}
	for _, opt := range positives {
		if opt.value <= 0 {
			return fmt.Errorf("%w: %s", ErrNonPositiveOption, opt.name)
		}
	}
	if c.MinStopPoints > c.MaxStopPoints {
		return ErrStopBoundsInverted
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) isActive(tf domain.Timeframe) bool {
	for _, a := range c.ActiveTimeframes {
		if a == tf {
			return true
		}
	}
	return false
}
