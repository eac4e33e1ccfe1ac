// Package cache is the data-synchronization layer: a keyed in-memory store
// for read results with staleness tracking, in-flight request coalescing,
// and mutation-driven invalidation. Entries never outlive the process.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"voltswap/api"
	"voltswap/apierr"
	"voltswap/metrics"
	"voltswap/notify"
	"voltswap/session"
)

const (
	// DefaultStaleTime keeps cached data fresh for five minutes.
	DefaultStaleTime = 5 * time.Minute
	// DefaultRetries retries a failed read once. Writes never retry.
	DefaultRetries = 1
)

// Key is the ordered list of primitives identifying one cached read result.
type Key []interface{}

// NewKey builds a key from parts; a single scalar is a valid key.
func NewKey(parts ...interface{}) Key {
	return Key(parts)
}

// String renders the key for map lookup. Unit separator keeps
// ("a", "bc") distinct from ("ab", "c").
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, "\x1f")
}

type entry struct {
	data       interface{}
	fetchedAt  time.Time
	generation uint64
	valid      bool
}

// Store holds cache entries and coalesces fetches per key.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	api      *api.Client
	session  *session.Store
	notifier notify.Notifier
	logger   *zap.Logger

	now func() time.Time
}

// NewStore returns an empty cache store. The api client backs URL-based
// queries and mutations.
func NewStore(apiClient *api.Client, sess *session.Store, notifier notify.Notifier, logger *zap.Logger) *Store {
	return &Store{
		entries:  make(map[string]*entry),
		api:      apiClient,
		session:  sess,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetcher loads data for a key.
type Fetcher func(ctx context.Context) (interface{}, error)

// QueryOptions tune one read path.
type QueryOptions struct {
	StaleTime time.Duration // 0 means DefaultStaleTime
	Retries   int           // -1 disables retry, 0 means DefaultRetries
}

func (o *QueryOptions) staleTime() time.Duration {
	if o == nil || o.StaleTime <= 0 {
		return DefaultStaleTime
	}
	return o.StaleTime
}

func (o *QueryOptions) retries() int {
	if o == nil || o.Retries == 0 {
		return DefaultRetries
	}
	if o.Retries < 0 {
		return 0
	}
	return o.Retries
}

// Query returns the cached value for key when fresh, otherwise runs fetch.
// Freshness is judged against this call's stale time, so a caller asking
// for a tighter window refetches data an earlier caller would still accept.
// Concurrent queries for the same key share one in-flight fetch. A fetch
// failing with 401 destroys the session before the error propagates.
func (s *Store) Query(ctx context.Context, key Key, fetch Fetcher, opts *QueryOptions) (interface{}, error) {
	id := key.String()
	staleTime := opts.staleTime()

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	if e.valid && s.now().Sub(e.fetchedAt) < staleTime {
		data := e.data
		s.mu.Unlock()
		metrics.CacheHits.Inc()
		return data, nil
	}
	generation := e.generation
	s.mu.Unlock()

	metrics.CacheMisses.Inc()
	return s.fetchInto(ctx, id, generation, staleTime, fetch, opts.retries())
}

// Refetch bypasses freshness and always hits the network.
func (s *Store) Refetch(ctx context.Context, key Key, fetch Fetcher, opts *QueryOptions) (interface{}, error) {
	id := key.String()

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	e.valid = false
	generation := e.generation
	s.mu.Unlock()

	return s.fetchInto(ctx, id, generation, opts.staleTime(), fetch, opts.retries())
}

// QueryURL is the URL-string form of Query: the store issues the GET itself
// and unwraps the payload envelope.
func (s *Store) QueryURL(ctx context.Context, key Key, path string, opts *QueryOptions) (interface{}, error) {
	return s.Query(ctx, key, func(ctx context.Context) (interface{}, error) {
		var out interface{}
		if err := s.api.Get(ctx, path, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	}, opts)
}

func (s *Store) fetchInto(ctx context.Context, id string, generation uint64, staleTime time.Duration, fetch Fetcher, retries int) (interface{}, error) {
	data, err, _ := s.group.Do(id, func() (interface{}, error) {
		// A caller that raced past the freshness check while another flight
		// was committing picks up that flight's result here instead of
		// fetching again.
		if cached, ok := s.cached(id, staleTime); ok {
			return cached, nil
		}

		var lastErr error
		for attempt := 0; attempt <= retries; attempt++ {
			data, err := fetch(ctx)
			if err == nil {
				s.commit(id, generation, unwrapData(data))
				return unwrapData(data), nil
			}
			lastErr = err
			if !retryable(ctx, err) {
				break
			}
		}
		if apierr.IsUnauthorized(lastErr) {
			if clearErr := s.session.Clear(ctx); clearErr != nil {
				s.logger.Warn("session clear failed", zap.Error(clearErr))
			}
		}
		return nil, lastErr
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) cached(id string, staleTime time.Duration) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || !e.valid || s.now().Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.data, true
}

// commit stores a fetch result unless the key was invalidated after the
// fetch started; a lost race leaves the entry stale so the next read
// refetches.
func (s *Store) commit(id string, generation uint64, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.generation != generation {
		return
	}
	e.data = data
	e.fetchedAt = s.now()
	e.valid = true
}

// Invalidate marks keys stale so the next read refetches.
func (s *Store) Invalidate(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		id := key.String()
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		e.valid = false
		e.generation++
		metrics.CacheInvalidations.Inc()
	}
}

// Peek returns the cached value for key without fetching.
func (s *Store) Peek(key Key) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key.String()]
	if !ok || !e.valid {
		return nil, false
	}
	return e.data, true
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if apierr.IsUnauthorized(err) {
		return false
	}
	if _, ok := apierr.AsBusiness(err); ok {
		return false
	}
	return true
}

// unwrapData peels a residual top-level `data` envelope off untyped
// payloads. Typed fetchers already decode past it.
func unwrapData(data interface{}) interface{} {
	if m, ok := data.(map[string]interface{}); ok {
		if inner, exists := m["data"]; exists && len(m) == 1 {
			return inner
		}
	}
	return data
}

// QueryAs is the typed form of Store.Query.
func QueryAs[T any](ctx context.Context, s *Store, key Key, fetch func(ctx context.Context) (T, error), opts *QueryOptions) (T, error) {
	data, err := s.Query(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T", key.String(), data)
	}
	return typed, nil
}
