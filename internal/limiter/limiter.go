// Package limiter caps how much work may run at once for a given key.
package limiter

import (
	"strings"
	"sync"
)

// Inflight hands out a bounded number of slots per key. Keys are case
// insensitive.
type Inflight struct {
	max int
	mu  sync.Mutex
	sem map[string]chan struct{}
}

// New returns an Inflight allowing max concurrent holders per key. A
// non-positive max means one.
func New(max int) *Inflight {
	if max <= 0 {
		max = 1
	}
	return &Inflight{max: max, sem: map[string]chan struct{}{}}
}

// Allow tries to reserve a slot for key without blocking. The returned
// release func must be called once the work is done; it is a no-op when
// the slot was refused.
func (l *Inflight) Allow(key string) (func(), bool) {
	k := strings.ToLower(key)
	l.mu.Lock()
	ch, ok := l.sem[k]
	if !ok {
		ch = make(chan struct{}, l.max)
		l.sem[k] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, true
	default:
		return func() {}, false
	}
}

// InUse reports how many slots of key are currently held.
func (l *Inflight) InUse(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ch, ok := l.sem[strings.ToLower(key)]; ok {
		return len(ch)
	}
	return 0
}
