// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Kind describes one resource kind to the generic cache.
type Kind[O comparable, B any] struct {
	// Name identifies the kind in logs and metrics, unique per Store.
	Name string

	// DefaultHint applies to entries without an explicit hint.
	DefaultHint CacheHint

	// Load extracts the backend for key from a prepared importer.
	// Importers of the wrong type should be rejected with ErrWrongKind.
	Load func(ctx context.Context, imp Importer, key Key[O]) (B, error)
}

type entry[B any] struct {
	backend    B
	hasBackend bool
	state      State

	refs        uint
	hint        *CacheHint
	defaultHint CacheHint
	idleMinutes uint

	lastLoaded time.Time
	epoch      uint64
	loading    bool
}

func (e *entry[B]) cacheHint() CacheHint {
	if e.hint != nil {
		return *e.hint
	}
	return e.defaultHint
}

// Cache is the table of one resource kind. Its entries are guarded
// by the owning Store.
type Cache[O comparable, B any] struct {
	store    *Store
	kind     Kind[O, B]
	registry Registry
	entries  map[Key[O]]*entry[B]
}

// NewCache creates the cache of a kind and attaches it to the store's sweeps.
func NewCache[O comparable, B any](s *Store, kind Kind[O, B]) *Cache[O, B] {
	if kind.Load == nil {
		panic(fmt.Sprintf("resource: kind %q has no Load", kind.Name))
	}
	c := &Cache[O, B]{
		store:   s,
		kind:    kind,
		entries: make(map[Key[O]]*entry[B]),
	}
	s.register(c)
	return c
}

// Register appends an importer to the kind's registry.
func (c *Cache[O, B]) Register(f Factory) {
	c.registry.Register(f)
}

// Registry returns the kind's importer registry.
func (c *Cache[O, B]) Registry() *Registry {
	return &c.registry
}

// Kind returns the kind name.
func (c *Cache[O, B]) Kind() string {
	return c.kind.Name
}

// Acquire returns a handle for path and options, creating the entry
// and starting its import if the key is new.
func (c *Cache[O, B]) Acquire(path string, options O) *Handle[O, B] {
	key := Key[O]{Path: path, Options: options}

	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.store.metrics.Hit(c.kind.Name)
	} else {
		c.store.metrics.Miss(c.kind.Name)
		e = &entry[B]{defaultHint: c.kind.DefaultHint}
		c.entries[key] = e
		c.startLoad(key, e)
	}
	e.refs++
	return &Handle[O, B]{cache: c, key: key}
}

// AcquireGenerated wraps an already built backend in a fresh synthetic
// entry. The entry is ready at once and lives while referenced.
func (c *Cache[O, B]) AcquireGenerated(backend B) *Handle[O, B] {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()

	key := Key[O]{Path: generatedPath(c.store.nextSyntheticID())}
	e := &entry[B]{defaultHint: WhileReferenced}
	c.entries[key] = e
	// pending to ready without going through an importer
	e.backend, e.hasBackend = backend, true
	e.state = State{Phase: Ready}
	e.lastLoaded = c.store.clock()
	e.refs++
	c.store.metrics.Loaded(c.kind.Name)
	return &Handle[O, B]{cache: c, key: key}
}

// AcquireText decodes inline text as if it was a file with the given
// extension. The entry is synthetic and lives while referenced.
func (c *Cache[O, B]) AcquireText(text []byte, ext string, options O) *Handle[O, B] {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()

	key := Key[O]{Path: textPath(c.store.nextSyntheticID(), ext), Options: options}
	c.store.putText(key.Path, text)
	e := &entry[B]{defaultHint: WhileReferenced}
	c.entries[key] = e
	c.startLoad(key, e)
	e.refs++
	return &Handle[O, B]{cache: c, key: key}
}

// Len returns the number of entries.
func (c *Cache[O, B]) Len() int {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	return len(c.entries)
}

// Contains reports if key has an entry.
func (c *Cache[O, B]) Contains(key Key[O]) bool {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Refs returns the reference count of key.
func (c *Cache[O, B]) Refs(key Key[O]) (uint, bool) {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return e.refs, true
}

// Keys lists the keys currently in the table.
func (c *Cache[O, B]) Keys() []Key[O] {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	keys := make([]Key[O], 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *Cache[O, B]) logger(key Key[O]) log.FieldLogger {
	return c.store.log.WithFields(log.Fields{
		"kind": c.kind.Name,
		"path": Label(key.Path),
	})
}

// retain increments the count of a live entry.
func (c *Cache[O, B]) retain(key Key[O]) bool {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.refs++
	return true
}

// release decrements the count and evicts whileReferenced entries at zero.
func (c *Cache[O, B]) release(key Key[O]) {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()

	e, ok := c.entries[key]
	if !ok {
		if !c.store.closed {
			c.logger(key).Warn("release of an entry that is not cached")
		}
		return
	}
	if e.refs == 0 {
		c.logger(key).Error("reference count would go negative")
		return
	}
	e.refs--
	if e.refs == 0 && e.cacheHint().IsWhileReferenced() {
		c.remove(key, e)
	}
}

func (c *Cache[O, B]) state(key Key[O]) State {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State{Phase: Failed, Err: ErrReleased}
	}
	return e.state
}

func (c *Cache[O, B]) backend(key Key[O]) (B, State, bool) {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero B
		return zero, State{Phase: Failed, Err: ErrReleased}, false
	}
	return e.backend, e.state, e.hasBackend
}

func (c *Cache[O, B]) cacheHint(key Key[O]) CacheHint {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.cacheHint()
	}
	return c.kind.DefaultHint
}

func (c *Cache[O, B]) setCacheHint(key Key[O], hint CacheHint) {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	if e, ok := c.entries[key]; ok {
		e.hint = &hint
		e.idleMinutes = 0
	}
}

// remove must be called with the store locked.
func (c *Cache[O, B]) remove(key Key[O], e *entry[B]) {
	delete(c.entries, key)
	if e.hasBackend {
		releaseBackend(e.backend)
	}
	if IsText(key.Path) {
		c.store.forgetText(key.Path)
	}
	c.store.metrics.Evicted(c.kind.Name)
	c.logger(key).WithField("hint", e.cacheHint()).Debug("evicted")
}

func (c *Cache[O, B]) kindName() string {
	return c.kind.Name
}

func (c *Cache[O, B]) sweepEviction() {
	for key, e := range c.entries {
		minutes, ok := e.cacheHint().Minutes()
		if !ok {
			// forever stays, whileReferenced already left on release
			continue
		}
		if e.refs > 0 {
			e.idleMinutes = 0
			continue
		}
		e.idleMinutes++
		if e.idleMinutes >= minutes {
			c.remove(key, e)
		}
	}
}

func (c *Cache[O, B]) sweepReload() {
	for key, e := range c.entries {
		if key.IsSynthetic() || e.loading {
			continue
		}
		modified, err := c.store.source.ModTime(key.Path)
		if err != nil {
			continue
		}
		if modified.After(e.lastLoaded) {
			c.logger(key).Info("source changed, reloading")
			c.store.importers.invalidate(key.Path)
			c.startLoad(key, e)
		}
	}
}

func (c *Cache[O, B]) purge() {
	for key, e := range c.entries {
		c.remove(key, e)
	}
}

func releaseBackend(backend any) {
	if r, ok := backend.(Releasable); ok {
		r.Release()
	}
}
