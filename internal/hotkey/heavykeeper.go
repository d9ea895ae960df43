// Package hotkey detects frequently accessed keys in a stream using the
// HeavyKeeper sketch.
package hotkey

import (
	"cmp"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const lookupTableSize = 256

var ErrInvalidConfig = errors.New("invalid hot key detector config")

// Config holds the sizing of a HeavyKeeper sketch.
type Config struct {
	// K is the size of the hot set.
	K int `yaml:"k"`
	// Width is the number of buckets per row.
	Width int `yaml:"width"`
	// Depth is the number of rows.
	Depth int `yaml:"depth"`
	// Decay is the base of the probabilistic decay applied on collisions.
	Decay float64 `yaml:"decay"`
	// MinCount is the estimate a key needs before it is considered for the hot set.
	MinCount uint32 `yaml:"minCount"`
	// ExpelledBuffer bounds the number of pending expelled notifications.
	ExpelledBuffer int `yaml:"expelledBuffer"`
}

// DefaultConfig returns the sizing used in production.
func DefaultConfig() Config {
	return Config{
		K:              100,
		Width:          100000,
		Depth:          5,
		Decay:          0.92,
		MinCount:       10,
		ExpelledBuffer: 1024,
	}
}

func (c Config) validate() error {
	switch {
	case c.K <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("k must be positive"))
	case c.Width <= 0 || c.Depth <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("width and depth must be positive"))
	case c.Decay <= 0 || c.Decay >= 1:
		return errors.Join(ErrInvalidConfig, errors.New("decay must be in (0,1)"))
	case c.ExpelledBuffer <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("expelled buffer must be positive"))
	}

	return nil
}

type bucket struct {
	mu          sync.Mutex
	fingerprint uint64
	count       uint32
}

// HeavyKeeper is a TopK backed by a depth x width grid of counting buckets.
// Buckets are locked individually; the hot set has a lock of its own.
type HeavyKeeper struct {
	k        int
	width    uint64
	minCount uint32
	lookup   [lookupTableSize]float64
	buckets  [][]bucket

	mu       sync.Mutex
	hot      *hotSet
	expelled chan Item

	total  atomic.Uint64
	random func() float64
}

// NewHeavyKeeper creates a detector sized by cfg.
func NewHeavyKeeper(cfg Config) (*HeavyKeeper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	h := &HeavyKeeper{
		k:        cfg.K,
		width:    uint64(cfg.Width),
		minCount: cfg.MinCount,
		buckets:  make([][]bucket, cfg.Depth),
		hot:      newHotSet(cfg.K),
		expelled: make(chan Item, cfg.ExpelledBuffer),
		random:   rand.Float64,
	}

	for i := range h.lookup {
		h.lookup[i] = math.Pow(cfg.Decay, float64(i))
	}

	for row := range h.buckets {
		h.buckets[row] = make([]bucket, cfg.Width)
	}

	return h, nil
}

func (h *HeavyKeeper) Add(key string, increment uint32) AddResult {
	result := AddResult{Key: key}
	if increment == 0 {
		h.mu.Lock()
		result.Hot = h.hot.contains(key)
		h.mu.Unlock()

		return result
	}

	sum := xxhash.Sum64String(key)
	// Double hashing derives an independent position per row from one hash.
	h1, h2 := sum&math.MaxUint32, (sum>>32)|1

	var estimate uint32

	for row := range h.buckets {
		b := &h.buckets[row][(h1+uint64(row)*h2)%h.width]
		if count := h.record(b, sum, increment); count > estimate {
			estimate = count
		}
	}

	h.total.Add(uint64(increment))

	if estimate < h.minCount {
		return result
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.hot.update(key, estimate) {
		result.Hot = true

		return result
	}

	if h.hot.Len() < h.k || estimate >= h.hot.min().Count {
		if h.hot.Len() >= h.k {
			evicted := h.hot.popMin()
			result.ExpelledKey = evicted.Key
			h.notifyExpelled(evicted)
		}

		h.hot.add(Item{Key: key, Count: estimate})
		result.Hot = true
	}

	return result
}

// record applies increment to one bucket and returns the bucket's count if
// the key owns it afterwards, zero otherwise.
func (h *HeavyKeeper) record(b *bucket, fingerprint uint64, increment uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.count == 0:
		b.fingerprint = fingerprint
		b.count = increment

		return b.count
	case b.fingerprint == fingerprint:
		if b.count > math.MaxUint32-increment {
			b.count = math.MaxUint32
		} else {
			b.count += increment
		}

		return b.count
	}

	for i := range increment {
		if h.random() >= h.decayProbability(b.count) {
			continue
		}

		b.count--
		if b.count == 0 {
			b.fingerprint = fingerprint
			b.count = increment - i

			return b.count
		}
	}

	return 0
}

func (h *HeavyKeeper) decayProbability(count uint32) float64 {
	if count < lookupTableSize {
		return h.lookup[count]
	}

	return h.lookup[lookupTableSize-1]
}

// notifyExpelled must be called with h.mu held, which makes it the only producer.
func (h *HeavyKeeper) notifyExpelled(item Item) {
	for {
		select {
		case h.expelled <- item:
			return
		default:
		}

		// Full: drop the oldest pending notification and retry.
		select {
		case <-h.expelled:
		default:
		}
	}
}

func (h *HeavyKeeper) List() []Item {
	h.mu.Lock()
	items := h.hot.snapshot()
	h.mu.Unlock()

	slices.SortFunc(items, func(a, b Item) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Key, b.Key)
	})

	return items
}

func (h *HeavyKeeper) Expelled() <-chan Item {
	return h.expelled
}

func (h *HeavyKeeper) Fading() {
	for row := range h.buckets {
		for i := range h.buckets[row] {
			b := &h.buckets[row][i]
			b.mu.Lock()
			b.count >>= 1
			b.mu.Unlock()
		}
	}

	h.mu.Lock()
	h.hot.halve()
	h.mu.Unlock()

	for {
		old := h.total.Load()
		if h.total.CompareAndSwap(old, old>>1) {
			return
		}
	}
}

func (h *HeavyKeeper) Total() uint64 {
	return h.total.Load()
}

// Compile-time check.
var _ TopK = (*HeavyKeeper)(nil)
