package cache

import (
	"context"
	"sync"
	"time"

	"equity-advisor/internal/interfaces"
)

// Memory is an in-process TTL cache. Expired entries are invisible to Get and
// are swept by a background loop until Close is called.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

type entry struct {
	value   []byte
	expires time.Time
}

var _ interfaces.Cache = (*Memory)(nil)

// NewMemory starts a cache that sweeps expired entries every sweep interval.
func NewMemory(sweep time.Duration) *Memory {
	m := &Memory{
		data: make(map[string]entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if sweep > 0 {
		go m.cleanupLoop(sweep)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)

	m.mu.Lock()
	m.data[key] = entry{value: buf, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// Len counts stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.data {
		if !now.Before(e.expires) {
			delete(m.data, k)
		}
	}
}
