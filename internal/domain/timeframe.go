package domain

import (
	"fmt"
	"time"
)

// Timeframe identifies a bar aggregation interval.
type Timeframe string

// Supported timeframes. TF1m is the base resolution; all higher
// timeframes are derived from it.
const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
)

// HigherTimeframes lists the derived timeframes in ascending order.
var HigherTimeframes = []Timeframe{TF5m, TF15m, TF1h, TF4h}

var timeframeDurations = map[Timeframe]time.Duration{
	TF1m:  time.Minute,
	TF5m:  5 * time.Minute,
	TF15m: 15 * time.Minute,
	TF1h:  time.Hour,
	TF4h:  4 * time.Hour,
}

// Valid reports whether tf is a supported timeframe.
func (tf Timeframe) Valid() bool {
	_, ok := timeframeDurations[tf]
	return ok
}

// Duration returns the bar interval for the timeframe.
// Panics on unknown timeframes; callers must validate at construction.
func (tf Timeframe) Duration() time.Duration {
	d, ok := timeframeDurations[tf]
	if !ok {
		panic(fmt.Sprintf("unknown timeframe %q", tf))
	}
	return d
}

// Millis returns the bar interval in milliseconds.
func (tf Timeframe) Millis() int64 {
	return tf.Duration().Milliseconds()
}

// FloorMs returns the start of the timeframe bucket containing ts,
// computed purely from the timestamp so replays are bit-reproducible.
func (tf Timeframe) FloorMs(ts int64) int64 {
	interval := tf.Millis()
	return ts - ts%interval
}

// AtOrBelow reports whether tf is the same or a shorter interval than other.
func (tf Timeframe) AtOrBelow(other Timeframe) bool {
	return tf.Millis() <= other.Millis()
}
