package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pitabwire/util"
)

const defaultJournalSize = 100

// Journal implements queue.SubscribeWorker. It keeps per-type counts and the
// most recent envelopes read back from the event queue.
type Journal struct {
	size int

	mu     sync.RWMutex
	counts map[EventType]int
	recent []Envelope
}

// NewJournal creates a journal retaining up to size envelopes.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = defaultJournalSize
	}
	return &Journal{
		size:   size,
		counts: make(map[EventType]int),
	}
}

// Handle is called by frame's pub/sub for each event message.
func (j *Journal) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("event journal: unmarshal envelope")
		return err
	}
	j.Record(env)
	return nil
}

// Record adds env to the journal.
func (j *Journal) Record(env Envelope) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.counts[env.Type]++
	j.recent = append(j.recent, env)
	if over := len(j.recent) - j.size; over > 0 {
		j.recent = append(j.recent[:0:0], j.recent[over:]...)
	}
}

// Counts returns a copy of the per-type counters.
func (j *Journal) Counts() map[EventType]int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make(map[EventType]int, len(j.counts))
	for k, v := range j.counts {
		out[k] = v
	}
	return out
}

// Recent returns the retained envelopes, oldest first.
func (j *Journal) Recent() []Envelope {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]Envelope(nil), j.recent...)
}
