// Package swr implements a keyed stale-while-revalidate fetch cache.
//
// A Resource owns one logical piece of remote state addressed by a dynamic
// key. Concurrent readers of the same key share a single in-flight fetch,
// results are retained per key, and stale data survives fetch errors. A nil
// key (key function returning ok=false) pauses fetching without discarding
// previously retained values.
package swr

import (
	"context"
	"reflect"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const meterName = "swr"

// KeyFunc computes the current cache key. Returning ok=false pauses the
// resource: no fetch runs and the visible entry is uninitialized.
type KeyFunc func() (key string, ok bool)

// FetchFunc loads the value for the resource's current key.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Entry is the snapshot returned to readers.
type Entry[V any] struct {
	Key            string
	Data           V
	Err            error
	HasInitialized bool
	IsEmpty        bool
}

// slot holds the retained state for one key.
type slot[V any] struct {
	data        V
	err         error
	initialized bool
	// latestGen identifies the newest fetch or local write for this slot.
	// A completing fetch whose generation is older discards its result.
	latestGen uint64
}

type resourceMetrics struct {
	fetches   metric.Int64Counter
	coalesced metric.Int64Counter
	errors    metric.Int64Counter
	staleHits metric.Int64Counter
}

// Resource is a stale-while-revalidate cache for a single keyed value.
type Resource[V any] struct {
	name  string
	keyFn KeyFunc
	fetch FetchFunc[V]

	mu    sync.Mutex
	slots map[string]*slot[V]

	group   singleflight.Group
	metrics resourceMetrics
}

// NewResource creates a Resource. The name namespaces metrics and the
// coalescing group.
func NewResource[V any](name string, keyFn KeyFunc, fetch FetchFunc[V]) *Resource[V] {
	r := &Resource[V]{
		name:  name,
		keyFn: keyFn,
		fetch: fetch,
		slots: make(map[string]*slot[V]),
	}
	r.initMetrics()
	return r
}

func (r *Resource[V]) initMetrics() {
	meter := otel.Meter(meterName)

	r.metrics.fetches, _ = meter.Int64Counter(
		"swr_fetches_total",
		metric.WithDescription("Underlying fetches started"),
	)
	r.metrics.coalesced, _ = meter.Int64Counter(
		"swr_coalesced_total",
		metric.WithDescription("Reads that joined an in-flight fetch"),
	)
	r.metrics.errors, _ = meter.Int64Counter(
		"swr_fetch_errors_total",
		metric.WithDescription("Fetches that returned an error"),
	)
	r.metrics.staleHits, _ = meter.Int64Counter(
		"swr_stale_hits_total",
		metric.WithDescription("Reads served from a retained value"),
	)
}

// Get returns the current entry, fetching it first when the key has no
// retained value yet. Concurrent callers for the same key share one fetch.
func (r *Resource[V]) Get(ctx context.Context) Entry[V] {
	key, ok := r.keyFn()
	if !ok {
		// Paused: no fetch, nothing visible. Retained slots stay intact so
		// re-enabling the same key later serves instantly.
		return Entry[V]{}
	}

	r.mu.Lock()
	s, exists := r.slots[key]
	if exists && s.initialized {
		entry := r.entryLocked(key, s)
		r.mu.Unlock()
		r.metrics.staleHits.Add(ctx, 1)
		return entry
	}
	r.mu.Unlock()

	r.fetchKey(ctx, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, exists = r.slots[key]; exists {
		return r.entryLocked(key, s)
	}
	return Entry[V]{Key: key}
}

// Peek returns the current entry without triggering a fetch. Used by
// dependent caches whose keys derive from this resource's value.
func (r *Resource[V]) Peek() Entry[V] {
	key, ok := r.keyFn()
	if !ok {
		return Entry[V]{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, exists := r.slots[key]; exists {
		return r.entryLocked(key, s)
	}
	return Entry[V]{Key: key}
}

// Revalidate re-runs the fetcher for the current key and replaces the data.
// An in-flight fetch started earlier is superseded and its result discarded.
func (r *Resource[V]) Revalidate(ctx context.Context) Entry[V] {
	key, ok := r.keyFn()
	if !ok {
		return Entry[V]{}
	}

	gen := r.beginGeneration(key)
	r.runFetch(ctx, key, gen)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, exists := r.slots[key]; exists {
		return r.entryLocked(key, s)
	}
	return Entry[V]{Key: key}
}

// RevalidateWith performs an optimistic local replace without a fetch. Any
// in-flight fetch for the key is superseded.
func (r *Resource[V]) RevalidateWith(value V) Entry[V] {
	key, ok := r.keyFn()
	if !ok {
		return Entry[V]{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.slotLocked(key)
	s.latestGen++
	s.data = value
	s.err = nil
	s.initialized = true
	return r.entryLocked(key, s)
}

// RevalidateFunc applies transform to the retained value and stores the
// result. The previous value is never mutated in place; transform must
// return a fresh value. No-op when the key is paused or uninitialized.
func (r *Resource[V]) RevalidateFunc(transform func(V) V) Entry[V] {
	key, ok := r.keyFn()
	if !ok {
		return Entry[V]{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, exists := r.slots[key]
	if !exists || !s.initialized {
		return Entry[V]{Key: key}
	}
	s.latestGen++
	s.data = transform(s.data)
	s.err = nil
	return r.entryLocked(key, s)
}

// fetchKey populates the slot for key, coalescing concurrent callers.
func (r *Resource[V]) fetchKey(ctx context.Context, key string) {
	flightKey := r.name + "/" + key
	_, _, shared := r.group.Do(flightKey, func() (interface{}, error) {
		gen := r.beginGeneration(key)
		r.runFetch(ctx, key, gen)
		return nil, nil
	})
	if shared {
		r.metrics.coalesced.Add(ctx, 1)
	}
}

// beginGeneration claims a new generation for key, superseding any
// in-flight fetch.
func (r *Resource[V]) beginGeneration(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.slotLocked(key)
	s.latestGen++
	return s.latestGen
}

// runFetch executes the fetcher and writes the result back unless a newer
// generation claimed the slot while the fetch was in flight.
func (r *Resource[V]) runFetch(ctx context.Context, key string, gen uint64) {
	r.metrics.fetches.Add(ctx, 1)
	data, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.slotLocked(key)
	if gen != s.latestGen {
		// Superseded by a newer fetch or a local write. Last write wins.
		return
	}
	if err != nil {
		// Stale-while-error: keep the last good value.
		s.err = err
		s.initialized = true
		r.metrics.errors.Add(ctx, 1)
		return
	}
	s.data = data
	s.err = nil
	s.initialized = true
}

func (r *Resource[V]) slotLocked(key string) *slot[V] {
	s, exists := r.slots[key]
	if !exists {
		s = &slot[V]{}
		r.slots[key] = s
	}
	return s
}

func (r *Resource[V]) entryLocked(key string, s *slot[V]) Entry[V] {
	return Entry[V]{
		Key:            key,
		Data:           s.data,
		Err:            s.err,
		HasInitialized: s.initialized,
		IsEmpty:        s.initialized && isEmptyValue(s.data),
	}
}

// isEmptyValue reports whether v is nil, an empty string, or an empty
// collection. Non-collection values are never empty.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}
