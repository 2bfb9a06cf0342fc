// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "sync/atomic"

// Metrics receives cache lifecycle events, tagged with the kind name.
// Calls are made while the store is locked and must not call back into it.
type Metrics interface {
	Hit(kind string)
	Miss(kind string)
	Loaded(kind string)
	Reloaded(kind string)
	Failed(kind string)
	Evicted(kind string)
	Discarded(kind string)
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)       {}
func (NoopMetrics) Miss(string)      {}
func (NoopMetrics) Loaded(string)    {}
func (NoopMetrics) Reloaded(string)  {}
func (NoopMetrics) Failed(string)    {}
func (NoopMetrics) Evicted(string)   {}
func (NoopMetrics) Discarded(string) {}

// Counters totals events over all kinds.
type Counters struct {
	Hits, Misses, Loads, Reloads, Failures, Evictions, Discards atomic.Int64
}

func (c *Counters) Hit(string)       { c.Hits.Add(1) }
func (c *Counters) Miss(string)      { c.Misses.Add(1) }
func (c *Counters) Loaded(string)    { c.Loads.Add(1) }
func (c *Counters) Reloaded(string)  { c.Reloads.Add(1) }
func (c *Counters) Failed(string)    { c.Failures.Add(1) }
func (c *Counters) Evicted(string)   { c.Evictions.Add(1) }
func (c *Counters) Discarded(string) { c.Discards.Add(1) }
