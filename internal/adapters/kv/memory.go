package kv

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is a process-local Store with lazy and periodic expiry
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]entry
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory store. When sweepEvery is positive a
// goroutine removes expired keys on that interval until Close is called.
func NewMemoryStore(sweepEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		data:     make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if sweepEvery > 0 {
		go s.cleanupLoop(sweepEvery)
	}
	return s
}

// Get returns a copy of the value, or nil if missing or expired
func (s *MemoryStore) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok || e.expired(s.now()) {
		return nil, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of key and val. Callers such as the CSRF middleware pass
// keys that alias request buffers. A zero exp means no expiry.
func (s *MemoryStore) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	e := entry{value: make([]byte, len(val))}
	copy(e.value, val)
	if exp > 0 {
		e.expiresAt = s.now().Add(exp)
	}

	s.mu.Lock()
	s.data[strings.Clone(key)] = e
	s.mu.Unlock()
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Reset removes every key
func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	s.data = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

// Close stops the sweep goroutine
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

// Sweep removes expired keys and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored keys, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopChan:
			return
		}
	}
}

var _ Store = (*MemoryStore)(nil)
