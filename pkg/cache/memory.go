package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	key      string
	value    V
	deadline time.Time // zero: no expiry
}

func (it *item[V]) expired(now time.Time) bool {
	return !it.deadline.IsZero() && now.After(it.deadline)
}

// Memory is a process-local cache with optional LRU bound and expiry.
// Expired entries are dropped lazily on access and, when a sweep interval is
// configured, by a background goroutine.
type Memory[V any] struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	recency *list.List // front: most recently used
	opts    memoryOptions
	onEvict func(key string, value V)
	stop    chan struct{}
	closed  bool
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	maxEntries    int
	defaultTTL    time.Duration
	sweepInterval time.Duration
}

// WithMaxEntries bounds the cache; the least recently used entry is evicted
// to make room. Zero or negative means unbounded (the default).
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// WithDefaultTTL sets the expiry used when Set receives a zero ttl.
// Default: entries never expire.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.defaultTTL = d }
}

// WithSweepInterval starts a goroutine that removes expired entries
// periodically. Default: disabled.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.sweepInterval = d }
}

// NewMemory creates a Memory cache.
//
// Example:
//
//	c := cache.NewMemory[[]catalog.Product](
//	    cache.WithMaxEntries(16),
//	    cache.WithDefaultTTL(30*time.Second),
//	)
//	defer c.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{defaultTTL: -1}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory[V]{
		index:   make(map[string]*list.Element),
		recency: list.New(),
		opts:    o,
		stop:    make(chan struct{}),
	}
	if o.sweepInterval > 0 {
		go m.sweepLoop(o.sweepInterval)
	}
	return m
}

// OnEvict registers fn for entries removed by LRU pressure or expiry.
// Explicit Delete and Clear do not call it.
func (m *Memory[V]) OnEvict(fn func(key string, value V)) {
	m.mu.Lock()
	m.onEvict = fn
	m.mu.Unlock()
}

// Get implements Cache. A hit marks the entry as recently used.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	var zero V

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return zero, ErrClosed
	}
	el, ok := m.index[key]
	if !ok {
		return zero, ErrNotFound
	}
	it := el.Value.(*item[V])
	if it.expired(time.Now()) {
		m.evict(el)
		return zero, ErrNotFound
	}
	m.recency.MoveToFront(el)
	return it.value, nil
}

// Set implements Cache.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	var deadline time.Time
	if ttl > 0 {
		deadline = time.Now().Add(ttl)
	}

	if el, ok := m.index[key]; ok {
		it := el.Value.(*item[V])
		it.value, it.deadline = value, deadline
		m.recency.MoveToFront(el)
		return nil
	}

	if m.opts.maxEntries > 0 {
		for len(m.index) >= m.opts.maxEntries {
			m.evict(m.recency.Back())
		}
	}
	m.index[key] = m.recency.PushFront(&item[V]{key: key, value: value, deadline: deadline})
	return nil
}

// Delete implements Cache. Deleting a missing key is not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.index[key]; ok {
		m.recency.Remove(el)
		delete(m.index, key)
	}
	return nil
}

// Clear implements Cache.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	clear(m.index)
	m.recency.Init()
	return nil
}

// Len returns the number of stored entries, expired ones included until they
// are swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.index)
}

// Close stops the sweeper. Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.stop)
	}
	return nil
}

func (m *Memory[V]) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *Memory[V]) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for el := m.recency.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*item[V]).expired(now) {
			m.evict(el)
		}
		el = prev
	}
}

// evict removes el and reports it to the callback. Caller holds m.mu.
func (m *Memory[V]) evict(el *list.Element) {
	it := m.recency.Remove(el).(*item[V])
	delete(m.index, it.key)
	if m.onEvict != nil {
		m.onEvict(it.key, it.value)
	}
}

var _ Cache[any] = (*Memory[any])(nil)
