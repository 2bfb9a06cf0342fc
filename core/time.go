// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	return &Time{
		fps:       cfg.FramesPerSecond,
		interval:  interval,
		fpsTicker: time.NewTicker(interval),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	interval  time.Duration
	fpsTicker *time.Ticker

	last time.Time
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// Interval is the time between two frames
func (t *Time) Interval() time.Duration {
	return t.interval
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// Delta returns the seconds passed since the previous call,
// zero on the first one. Feeds resource.Store.Update.
func (t *Time) Delta(now time.Time) float64 {
	if t.last.IsZero() {
		t.last = now
		return 0
	}
	delta := now.Sub(t.last).Seconds()
	t.last = now
	if delta < 0 {
		return 0
	}
	return delta
}

// Stop stops the tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
}
