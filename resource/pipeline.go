// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"fmt"
)

// startLoad bumps the entry's epoch and dispatches an import for it.
// Must be called with the store locked, which makes creating an entry
// and starting its first load one step for every observer.
func (c *Cache[O, B]) startLoad(key Key[O], e *entry[B]) {
	e.epoch++
	e.lastLoaded = c.store.clock()
	if c.store.closed {
		e.state = State{Phase: Failed, Err: ErrClosed}
		return
	}
	e.loading = true
	c.store.beginLoad(key.Path)
	go c.load(key, e, e.epoch)
}

// load runs on a worker goroutine without holding the store.
func (c *Cache[O, B]) load(key Key[O], e *entry[B], epoch uint64) {
	defer c.store.inflight.Done()

	ctx := c.store.ctx
	if err := c.store.workers.Acquire(ctx, 1); err != nil {
		var zero B
		c.publish(key, e, epoch, zero, err)
		return
	}
	backend, err := c.importBackend(ctx, key)
	c.store.workers.Release(1)

	c.publish(key, e, epoch, backend, err)
}

// importBackend resolves, prepares and loads. A panicking importer fails
// the entry like any other decode error.
func (c *Cache[O, B]) importBackend(ctx context.Context, key Key[O]) (backend B, err error) {
	var zero B
	defer func() {
		if r := recover(); r != nil {
			backend, err = zero, decodeError(Label(key.Path), fmt.Errorf("%w: %v", ErrImporterPanic, r))
		}
	}()
	factory, err := c.registry.Resolve(key.Path)
	if err != nil {
		return zero, err
	}
	imp, err := c.store.importers.importer(ctx, key.Path, factory, c.store.read)
	if err != nil {
		return zero, err
	}
	backend, err = c.kind.Load(ctx, imp, key)
	if err != nil {
		return zero, decodeError(Label(key.Path), err)
	}
	return backend, nil
}

// publish hands a finished import back to the owner. The result is only
// stored if the entry it was started for is still in the table at the same
// epoch; entries evicted or reloaded meanwhile simply drop it.
func (c *Cache[O, B]) publish(key Key[O], e *entry[B], epoch uint64, backend B, err error) {
	c.store.mutex.Lock()
	defer c.store.mutex.Unlock()
	c.store.finishLoad(key.Path)

	logger := c.logger(key).WithField("epoch", epoch)
	if current, ok := c.entries[key]; !ok || current != e {
		logger.Debug("deallocated before load, result discarded")
		c.discard(backend, err)
		return
	}
	if e.epoch != epoch {
		logger.Debug("superseded by a newer load, result discarded")
		c.discard(backend, err)
		return
	}

	e.loading = false
	if err != nil {
		// a failed reload keeps serving the previous backend through Lookup
		e.state = State{Phase: Failed, Err: err}
		c.store.metrics.Failed(c.kind.Name)
		logger.WithError(err).Warn("load failed")
		return
	}

	reloaded := e.hasBackend
	if reloaded {
		releaseBackend(e.backend)
	}
	e.backend, e.hasBackend = backend, true
	e.state = State{Phase: Ready}
	if reloaded {
		c.store.metrics.Reloaded(c.kind.Name)
		logger.Info("reloaded")
	} else {
		c.store.metrics.Loaded(c.kind.Name)
		logger.Debug("loaded")
	}
}

func (c *Cache[O, B]) discard(backend B, err error) {
	if err == nil {
		releaseBackend(backend)
	}
	c.store.metrics.Discarded(c.kind.Name)
}
