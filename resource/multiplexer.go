// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"reflect"
	"sync"
)

type importerSlot struct {
	importer     Importer
	lastAccessed float64
}

// multiplexer keeps prepared multi resource importers by path so that
// pulling several named resources out of one file decodes it once.
// Slots age on their own clock, unrelated to any entry's CacheHint.
type multiplexer struct {
	mutex sync.Mutex
	slots map[string]*importerSlot
	now   float64
	idle  float64
}

func newMultiplexer(idle float64) *multiplexer {
	return &multiplexer{
		slots: make(map[string]*importerSlot),
		idle:  idle,
	}
}

// importer returns a prepared importer of the factory's type for path.
// read is only called when a fresh importer has to be prepared.
func (m *multiplexer) importer(ctx context.Context, path string, factory Factory, read func(string) ([]byte, error)) (Importer, error) {
	fresh := factory()
	want := reflect.TypeOf(fresh)

	m.mutex.Lock()
	if slot, ok := m.slots[path]; ok && reflect.TypeOf(slot.importer) == want {
		slot.lastAccessed = m.now
		m.mutex.Unlock()
		return slot.importer, nil
	}
	m.mutex.Unlock()

	data, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := fresh.Prepare(ctx, path, data); err != nil {
		return nil, decodeError(Label(path), err)
	}
	if !containsMultipleResources(fresh) {
		return fresh, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	// another worker may have prepared the same file meanwhile
	if slot, ok := m.slots[path]; ok && reflect.TypeOf(slot.importer) == want {
		slot.lastAccessed = m.now
		return slot.importer, nil
	}
	m.slots[path] = &importerSlot{importer: fresh, lastAccessed: m.now}
	return fresh, nil
}

// advance moves the clock and drops importers idle for longer than the window.
func (m *multiplexer) advance(delta float64) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now += delta
	var dropped int
	for path, slot := range m.slots {
		if m.now-slot.lastAccessed > m.idle {
			delete(m.slots, path)
			dropped++
		}
	}
	return dropped
}

func (m *multiplexer) invalidate(path string) {
	m.mutex.Lock()
	delete(m.slots, path)
	m.mutex.Unlock()
}

func (m *multiplexer) len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.slots)
}
