package cache

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"
)

type item struct {
	value     string
	expiresAt time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Memory is a process-local Cache. Expired entries are dropped lazily and by a janitor.
type Memory struct {
	mu   sync.Mutex
	data map[string]item
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemory starts a store whose janitor sweeps expired keys every interval.
// A non-positive interval disables the janitor.
func NewMemory(interval time.Duration) *Memory {
	m := &Memory{
		data: make(map[string]item),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if interval > 0 {
		go m.janitor(interval)
	}
	return m
}

func (m *Memory) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.mu.Lock()
			now := m.now()
			for k, it := range m.data {
				if it.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// Close stops the janitor.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

// load returns a live entry. Caller holds mu.
func (m *Memory) load(key string) (item, bool) {
	it, ok := m.data[key]
	if !ok {
		return item{}, false
	}
	if it.expired(m.now()) {
		delete(m.data, key)
		return item{}, false
	}
	return it, true
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, _ := m.load(key)
	return it.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	it := item{value: fmt.Sprint(value)}
	if expiration > 0 {
		it.expiresAt = m.now().Add(expiration)
	}
	m.mu.Lock()
	m.data[key] = it
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Increment(ctx context.Context, key string) (int64, error) {
	return m.IncrementBy(ctx, key, 1)
}

func (m *Memory) IncrementBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.load(key)
	var n int64
	if ok {
		var err error
		if n, err = strconv.ParseInt(it.value, 10, 64); err != nil {
			return 0, fmt.Errorf("value at %q is not an integer", key)
		}
	}
	n += delta
	it.value = strconv.FormatInt(n, 10)
	m.data[key] = it
	return n, nil
}

func (m *Memory) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var keys []string
	for k, it := range m.data {
		if it.expired(now) {
			continue
		}
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *Memory) GetAndDeleteMany(_ context.Context, keys []string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		it, ok := m.load(k)
		delete(m.data, k)
		if !ok {
			continue
		}
		if n, err := strconv.ParseInt(it.value, 10, 64); err == nil {
			out[k] = n
		}
	}
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

var _ Cache = (*Memory)(nil)
