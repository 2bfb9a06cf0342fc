// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"fmt"
	"sync/atomic"
)

// Handle is one reference to a cached resource. Every handle returned by
// a Cache holds one count on its entry until Release is called.
type Handle[O comparable, B any] struct {
	cache    *Cache[O, B]
	key      Key[O]
	released atomic.Bool
}

// Key returns the key the handle resolves to.
func (h *Handle[O, B]) Key() Key[O] {
	return h.key
}

// State returns the current state of the resource.
func (h *Handle[O, B]) State() State {
	if h.released.Load() {
		return State{Phase: Failed, Err: ErrReleased}
	}
	return h.cache.state(h.key)
}

// IsReady reports if Backend can be called.
func (h *Handle[O, B]) IsReady() bool {
	return h.State().IsReady()
}

// CacheHint returns the entry's hint, or the kind default if unset.
func (h *Handle[O, B]) CacheHint() CacheHint {
	return h.cache.cacheHint(h.key)
}

// SetCacheHint overrides the hint of the entry, affecting every
// handle sharing it.
func (h *Handle[O, B]) SetCacheHint(hint CacheHint) {
	if h.released.Load() {
		return
	}
	h.cache.setCacheHint(h.key, hint)
}

// Backend returns the loaded backend. Calling it on a resource
// that is not ready is a programming error and panics.
func (h *Handle[O, B]) Backend() B {
	if h.released.Load() {
		panic(fmt.Errorf("%s %s: %w", h.cache.kind.Name, Label(h.key.Path), ErrReleased))
	}
	backend, state, _ := h.cache.backend(h.key)
	if !state.IsReady() {
		panic(fmt.Errorf("%s %s is %s: %w", h.cache.kind.Name, Label(h.key.Path), state, ErrNotReady))
	}
	return backend
}

// Lookup returns the backend if one has been loaded at any point,
// which includes the stale backend of a failed reload.
func (h *Handle[O, B]) Lookup() (B, bool) {
	if h.released.Load() {
		var zero B
		return zero, false
	}
	backend, _, ok := h.cache.backend(h.key)
	return backend, ok
}

// Retain returns a new handle on the same entry.
func (h *Handle[O, B]) Retain() *Handle[O, B] {
	if h.released.Load() || !h.cache.retain(h.key) {
		panic(fmt.Errorf("%s %s: %w", h.cache.kind.Name, Label(h.key.Path), ErrReleased))
	}
	return &Handle[O, B]{cache: h.cache, key: h.key}
}

// Release drops the handle's reference. Further calls do nothing.
func (h *Handle[O, B]) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.cache.release(h.key)
	}
}
