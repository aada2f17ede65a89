package notify

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

const maxBreakers = 10000

// breakers holds one circuit breaker per listener. A breaker trips after a
// run of consecutive failed deliveries and lets a single probe through once
// the reset timeout has passed.
type breakers struct {
	failures uint32
	reset    time.Duration

	mu   sync.Mutex
	byID map[string]*gobreaker.CircuitBreaker[int]
}

func newBreakers(failures int, reset time.Duration) *breakers {
	if failures <= 0 {
		failures = 5
	}
	if reset <= 0 {
		reset = time.Minute
	}
	return &breakers{
		failures: uint32(failures),
		reset:    reset,
		byID:     make(map[string]*gobreaker.CircuitBreaker[int]),
	}
}

func (b *breakers) get(listenerID string) *gobreaker.CircuitBreaker[int] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.byID[listenerID]; ok {
		return cb
	}
	if len(b.byID) >= maxBreakers {
		for k := range b.byID {
			delete(b.byID, k)
			break
		}
	}

	threshold := b.failures
	cb := gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:        listenerID,
		MaxRequests: 1,
		Timeout:     b.reset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	b.byID[listenerID] = cb
	return cb
}

// state reports "closed", "half-open" or "open". Unknown listeners are closed.
func (b *breakers) state(listenerID string) string {
	b.mu.Lock()
	cb, ok := b.byID[listenerID]
	b.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

func (b *breakers) forget(listenerID string) {
	b.mu.Lock()
	delete(b.byID, listenerID)
	b.mu.Unlock()
}
