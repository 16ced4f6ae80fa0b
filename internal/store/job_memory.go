package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory keeps jobs in process memory. Entries older than ttl are treated
// as missing; a zero ttl keeps them forever.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

type memoryEntry struct {
	data  []byte
	saved time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{jobs: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (m *Memory) Save(_ context.Context, job *Job) error {
	// Stored encoded so callers never share slices with the store.
	b, err := encode(job)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.jobs[job.ID] = memoryEntry{data: b, saved: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok || (m.ttl > 0 && m.now().Sub(e.saved) > m.ttl) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return decode(id, e.data)
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.jobs, id)
	m.mu.Unlock()
	return nil
}
