// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var baseTime = time.Date(2019, time.September, 1, 12, 0, 0, 0, time.UTC)

type memFile struct {
	data     []byte
	modified time.Time
}

// memSource is an in-memory Source.
type memSource struct {
	mutex sync.Mutex
	files map[string]memFile
}

func newMemSource() *memSource {
	return &memSource{files: make(map[string]memFile)}
}

func (m *memSource) put(path, data string, modified time.Time) {
	m.mutex.Lock()
	m.files[path] = memFile{data: []byte(data), modified: modified}
	m.mutex.Unlock()
}

func (m *memSource) ReadFile(path string) ([]byte, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return f.data, nil
}

func (m *memSource) ModTime(path string) (time.Time, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	f, ok := m.files[path]
	if !ok {
		return time.Time{}, fs.ErrNotExist
	}
	return f.modified, nil
}

type textOptions struct {
	Name string
}

type textBackend struct {
	Value    string
	released atomic.Int32
}

func (b *textBackend) Release() {
	b.released.Add(1)
}

// textImporter hands out the file contents, suffixed by the requested name.
type textImporter struct {
	exts     []string
	multi    bool
	gate     chan struct{}
	prepared *atomic.Int32
	fail     error
	panics   any

	data string
}

func (t *textImporter) Prepare(ctx context.Context, path string, data []byte) error {
	if t.gate != nil {
		<-t.gate
	}
	if t.prepared != nil {
		t.prepared.Add(1)
	}
	if t.panics != nil {
		panic(t.panics)
	}
	if t.fail != nil {
		return t.fail
	}
	t.data = string(data)
	return nil
}

func (t *textImporter) SupportedFileExtensions() []string {
	return t.exts
}

func (t *textImporter) ContainsMultipleResources() bool {
	return t.multi
}

// otherImporter claims the same extensions but is a different type.
type otherImporter struct {
	textImporter
}

func loadText(ctx context.Context, imp Importer, key Key[textOptions]) (*textBackend, error) {
	switch ti := imp.(type) {
	case *textImporter:
		if key.Options.Name == "explode" {
			panic("load exploded")
		}
		return &textBackend{Value: ti.data + key.Options.Name}, nil
	case *otherImporter:
		return &textBackend{Value: "other:" + ti.data + key.Options.Name}, nil
	default:
		return nil, ErrWrongKind
	}
}

type fixture struct {
	store    *Store
	cache    *Cache[textOptions, *textBackend]
	source   *memSource
	counters *Counters
	hook     *logtest.Hook
	prepared *atomic.Int32
	now      time.Time
}

func newFixture(t testing.TB, cfg Config, hint CacheHint) *fixture {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	f := &fixture{
		source:   newMemSource(),
		counters: &Counters{},
		hook:     hook,
		prepared: &atomic.Int32{},
		now:      baseTime,
	}
	f.store = NewStore(cfg, f.source,
		WithLogger(logger),
		WithMetrics(f.counters),
		WithClock(func() time.Time { return f.now }),
	)
	f.cache = NewCache(f.store, Kind[textOptions, *textBackend]{
		Name:        "text",
		DefaultHint: hint,
		Load:        loadText,
	})
	t.Cleanup(f.store.Close)
	return f
}

// registerText registers a textImporter for .txt files sharing the fixture counter.
func (f *fixture) registerText(multi bool, gate chan struct{}) {
	f.cache.Register(func() Importer {
		return &textImporter{
			exts:     []string{"txt"},
			multi:    multi,
			gate:     gate,
			prepared: f.prepared,
		}
	})
}

func (f *fixture) hasMessage(msg string) bool {
	for _, e := range f.hook.AllEntries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}
