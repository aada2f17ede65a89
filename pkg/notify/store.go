package notify

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"
)

// ErrNotFound is returned when a listener or dead letter does not exist.
var ErrNotFound = errors.New("notify: not found")

// Store persists listeners, delivery attempts and dead letters.
type Store interface {
	CreateListener(ctx context.Context, l *Listener) error
	GetListener(ctx context.Context, id string) (*Listener, error)
	ListListeners(ctx context.Context) ([]Listener, error)
	EnabledListeners(ctx context.Context) ([]Listener, error)
	UpdateListener(ctx context.Context, l *Listener) error
	DeleteListener(ctx context.Context, id string) error

	RecordDelivery(ctx context.Context, d *Delivery) error
	Deliveries(ctx context.Context, listenerID string, limit int) ([]Delivery, error)

	CreateDeadLetter(ctx context.Context, dl *DeadLetter) error
	GetDeadLetter(ctx context.Context, id string) (*DeadLetter, error)
	DeadLetters(ctx context.Context, listenerID string) ([]DeadLetter, error)
	MarkReplayed(ctx context.Context, id string) error
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store. Records are lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	listeners   map[string]Listener
	deliveries  []Delivery
	deadLetters map[string]DeadLetter
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listeners:   make(map[string]Listener),
		deadLetters: make(map[string]DeadLetter),
	}
}

func stamp(id *string, created, modified *time.Time) {
	now := time.Now().UTC()
	if *id == "" {
		*id = xid.New().String()
	}
	if created.IsZero() {
		*created = now
	}
	*modified = now
}

func (s *MemoryStore) CreateListener(_ context.Context, l *Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&l.ID, &l.CreatedAt, &l.ModifiedAt)
	l.Events = slices.Clone(l.Events)
	s.listeners[l.ID] = *l
	return nil
}

func (s *MemoryStore) GetListener(_ context.Context, id string) (*Listener, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listeners[id]
	if !ok {
		return nil, ErrNotFound
	}
	l.Events = slices.Clone(l.Events)
	return &l, nil
}

func (s *MemoryStore) ListListeners(_ context.Context) ([]Listener, error) {
	return s.collect(func(Listener) bool { return true }), nil
}

func (s *MemoryStore) EnabledListeners(_ context.Context) ([]Listener, error) {
	return s.collect(func(l Listener) bool { return l.Enabled }), nil
}

func (s *MemoryStore) collect(keep func(Listener) bool) []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		if keep(l) {
			l.Events = slices.Clone(l.Events)
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) UpdateListener(_ context.Context, l *Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[l.ID]; !ok {
		return ErrNotFound
	}
	stamp(&l.ID, &l.CreatedAt, &l.ModifiedAt)
	l.Events = slices.Clone(l.Events)
	s.listeners[l.ID] = *l
	return nil
}

func (s *MemoryStore) DeleteListener(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[id]; !ok {
		return ErrNotFound
	}
	delete(s.listeners, id)
	return nil
}

func (s *MemoryStore) RecordDelivery(_ context.Context, d *Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&d.ID, &d.CreatedAt, &d.ModifiedAt)
	s.deliveries = append(s.deliveries, *d)
	return nil
}

// Deliveries returns attempts for a listener, newest first.
func (s *MemoryStore) Deliveries(_ context.Context, listenerID string, limit int) ([]Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Delivery
	for i := len(s.deliveries) - 1; i >= 0; i-- {
		if s.deliveries[i].ListenerID != listenerID {
			continue
		}
		out = append(out, s.deliveries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateDeadLetter(_ context.Context, dl *DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&dl.ID, &dl.CreatedAt, &dl.ModifiedAt)
	s.deadLetters[dl.ID] = *dl
	return nil
}

func (s *MemoryStore) GetDeadLetter(_ context.Context, id string) (*DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dl, ok := s.deadLetters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &dl, nil
}

// DeadLetters returns the replayable dead letters of a listener, newest first.
func (s *MemoryStore) DeadLetters(_ context.Context, listenerID string) ([]DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DeadLetter
	for _, dl := range s.deadLetters {
		if dl.ListenerID == listenerID && dl.Replayable {
			out = append(out, dl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) MarkReplayed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dl, ok := s.deadLetters[id]
	if !ok {
		return ErrNotFound
	}
	dl.Replayable = false
	dl.ModifiedAt = time.Now().UTC()
	s.deadLetters[id] = dl
	return nil
}
