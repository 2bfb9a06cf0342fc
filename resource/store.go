// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Config configures a Store. Intervals are in simulated seconds,
// as passed to Store.Update.
type Config struct {
	// HotReload enables the hot reload sweep.
	HotReload bool

	// Workers caps concurrently running imports,
	// zero means one per CPU.
	Workers int

	EvictionInterval float64
	ReloadInterval   float64

	// ImporterIdle is how long an unused multi resource
	// importer is kept around.
	ImporterIdle float64
}

// DefaultConfig returns the engine defaults: a minute between eviction
// sweeps, five seconds between reload sweeps and a minute of importer idling.
func DefaultConfig() Config {
	return Config{
		EvictionInterval: 60,
		ReloadInterval:   5,
		ImporterIdle:     60,
	}
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger log.FieldLogger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// WithMetrics sets the metrics receiver.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock replaces the wall clock used to stamp loads
// for hot reload comparisons.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.clock = now
	}
}

// sweeper is the kind independent part of a Cache.
// All methods are called with the store locked.
type sweeper interface {
	kindName() string
	sweepEviction()
	sweepReload()
	purge()
}

// Store owns the cache tables of all resource kinds. Its mutex is the
// single owner of every table, reference count and hint; import work runs
// on worker goroutines that only take it to publish their results.
type Store struct {
	mutex sync.Mutex

	cfg     Config
	source  Source
	log     log.FieldLogger
	metrics Metrics
	clock   func() time.Time

	caches    []sweeper
	importers *multiplexer

	nextID      uint64
	evictionAcc float64
	reloadAcc   float64
	loading     map[string]int
	closed      bool

	textMutex sync.RWMutex
	texts     map[string][]byte

	ctx      context.Context
	cancel   context.CancelFunc
	workers  *semaphore.Weighted
	inflight sync.WaitGroup
}

// NewStore creates a Store reading files from src.
func NewStore(cfg Config, src Source, opts ...Option) *Store {
	defaults := DefaultConfig()
	if cfg.EvictionInterval <= 0 {
		cfg.EvictionInterval = defaults.EvictionInterval
	}
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = defaults.ReloadInterval
	}
	if cfg.ImporterIdle <= 0 {
		cfg.ImporterIdle = defaults.ImporterIdle
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		cfg:       cfg,
		source:    src,
		log:       log.StandardLogger(),
		metrics:   NoopMetrics{},
		clock:     time.Now,
		importers: newMultiplexer(cfg.ImporterIdle),
		loading:   make(map[string]int),
		texts:     make(map[string][]byte),
		ctx:       ctx,
		cancel:    cancel,
		workers:   semaphore.NewWeighted(int64(cfg.Workers)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update advances simulated time by delta seconds, running the eviction
// and hot reload sweeps whenever their interval has been crossed.
// Meant to be called once per frame.
func (s *Store) Update(delta float64) {
	if dropped := s.importers.advance(delta); dropped > 0 {
		s.log.WithField("count", dropped).Debug("idle importers dropped")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.evictionAcc += delta
	if s.evictionAcc >= s.cfg.EvictionInterval {
		s.evictionAcc -= s.cfg.EvictionInterval
		if s.evictionAcc >= s.cfg.EvictionInterval {
			// a long stall doesn't make up for the missed sweeps
			s.evictionAcc = 0
		}
		for _, c := range s.caches {
			c.sweepEviction()
		}
	}

	if !s.cfg.HotReload {
		return
	}
	s.reloadAcc += delta
	if s.reloadAcc >= s.cfg.ReloadInterval {
		s.reloadAcc = 0
		for _, c := range s.caches {
			c.sweepReload()
		}
	}
}

// SetHotReload toggles the hot reload sweep.
func (s *Store) SetHotReload(enabled bool) {
	s.mutex.Lock()
	s.cfg.HotReload = enabled
	s.reloadAcc = 0
	s.mutex.Unlock()
}

// HotReload reports if the hot reload sweep is enabled.
func (s *Store) HotReload() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cfg.HotReload
}

// CurrentlyLoading lists labels of the paths with imports in flight.
func (s *Store) CurrentlyLoading() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	labels := make([]string, 0, len(s.loading))
	for path := range s.loading {
		labels = append(labels, Label(path))
	}
	sort.Strings(labels)
	return labels
}

// Wait blocks until every import started so far has been published.
func (s *Store) Wait() {
	s.inflight.Wait()
}

// Close stops accepting loads, waits for running imports and
// drops every entry. Handles still held become unusable.
func (s *Store) Close() {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return
	}
	s.closed = true
	s.mutex.Unlock()

	s.cancel()
	s.inflight.Wait()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, c := range s.caches {
		c.purge()
	}
}

func (s *Store) register(c sweeper) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, existing := range s.caches {
		if existing.kindName() == c.kindName() {
			panic(fmt.Sprintf("resource: kind %q registered twice", c.kindName()))
		}
	}
	s.caches = append(s.caches, c)
}

// nextSyntheticID must be called with the store locked.
func (s *Store) nextSyntheticID() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) putText(path string, text []byte) {
	s.textMutex.Lock()
	s.texts[path] = text
	s.textMutex.Unlock()
}

func (s *Store) forgetText(path string) {
	s.textMutex.Lock()
	delete(s.texts, path)
	s.textMutex.Unlock()
}

// read fetches the raw bytes behind a path, text sources included.
func (s *Store) read(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if IsText(path) {
		s.textMutex.RLock()
		text, ok := s.texts[path]
		s.textMutex.RUnlock()
		if !ok {
			return nil, fmt.Errorf("read %s: %w", Label(path), ErrReleased)
		}
		data = text
	} else if IsGenerated(path) {
		return nil, fmt.Errorf("read %s: %w", Label(path), ErrNoImporter)
	} else {
		data, err = s.source.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read %s: %w", Label(path), ErrEmptySource)
	}
	return data, nil
}

// beginLoad must be called with the store locked.
func (s *Store) beginLoad(path string) {
	s.loading[path]++
	s.inflight.Add(1)
}

// finishLoad must be called with the store locked.
func (s *Store) finishLoad(path string) {
	if s.loading[path] <= 1 {
		delete(s.loading, path)
	} else {
		s.loading[path]--
	}
}
