package model

import (
	"fmt"
	"sort"
	"time"
)

// Interval identifies a candle timeframe.
type Interval string

const (
	Interval15m Interval = "15m"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// IntervalSpec holds the per-interval settings used by the collector and the scheduler.
type IntervalSpec struct {
	Bar         time.Duration // duration of one candle
	Lookback    time.Duration // how far back a report cycle fetches history
	ReportRows  int           // rows handed to the narrative generator
	DefaultCron string        // cron spec with seconds, UTC
}

// Intervals is the table of supported intervals.
var Intervals = map[Interval]IntervalSpec{
	Interval15m: {
		Bar:         15 * time.Minute,
		Lookback:    3 * 7 * 24 * time.Hour,
		ReportRows:  400,
		DefaultCron: "0 0 4,18 * * *",
	},
	Interval4h: {
		Bar:         4 * time.Hour,
		Lookback:    25 * 7 * 24 * time.Hour,
		ReportRows:  400,
		DefaultCron: "0 0 12 * * *",
	},
	Interval1d: {
		Bar:         24 * time.Hour,
		Lookback:    1065 * 24 * time.Hour,
		ReportRows:  400,
		DefaultCron: "0 30 16 */2 * *",
	},
}

// ParseInterval validates s against the interval table.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(s)
	if _, ok := Intervals[iv]; !ok {
		return "", fmt.Errorf("unsupported interval %q (supported: %v)", s, SupportedIntervals())
	}
	return iv, nil
}

// Spec returns the table entry for iv. Unknown intervals return the zero spec.
func (iv Interval) Spec() IntervalSpec { return Intervals[iv] }

func (iv Interval) String() string { return string(iv) }

// SupportedIntervals lists the table keys ordered by bar duration.
func SupportedIntervals() []Interval {
	out := make([]Interval, 0, len(Intervals))
	for iv := range Intervals {
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return Intervals[out[i]].Bar < Intervals[out[j]].Bar })
	return out
}
