package notify

import (
	"errors"
	"testing"

	"github.com/wordwise/wordwise/pkg/events"
)

func TestMemoryStoreListeners(t *testing.T) {
	ctx := t.Context()
	s := NewMemoryStore()

	a := &Listener{Name: "a", URL: "https://a.example", Enabled: true, Events: EventFilter{events.SpeechCompleted}}
	b := &Listener{Name: "b", URL: "https://b.example", Enabled: false}
	for _, l := range []*Listener{a, b} {
		if err := s.CreateListener(ctx, l); err != nil {
			t.Fatalf("CreateListener: %v", err)
		}
		if l.ID == "" || l.CreatedAt.IsZero() {
			t.Fatalf("listener not stamped: %+v", l)
		}
	}

	all, _ := s.ListListeners(ctx)
	if len(all) != 2 || all[0].Name != "a" {
		t.Errorf("ListListeners = %+v", all)
	}
	enabled, _ := s.EnabledListeners(ctx)
	if len(enabled) != 1 || enabled[0].ID != a.ID {
		t.Errorf("EnabledListeners = %+v", enabled)
	}

	got, err := s.GetListener(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetListener: %v", err)
	}
	got.Events[0] = events.SpeechFailed
	again, _ := s.GetListener(ctx, a.ID)
	if again.Events[0] != events.SpeechCompleted {
		t.Error("returned listener must not alias stored state")
	}

	b.Enabled = true
	if err := s.UpdateListener(ctx, b); err != nil {
		t.Fatalf("UpdateListener: %v", err)
	}
	enabled, _ = s.EnabledListeners(ctx)
	if len(enabled) != 2 {
		t.Errorf("enabled after update = %d, want 2", len(enabled))
	}

	if err := s.DeleteListener(ctx, a.ID); err != nil {
		t.Fatalf("DeleteListener: %v", err)
	}
	if _, err := s.GetListener(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetListener after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteListener(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	if err := s.UpdateListener(ctx, &Listener{Name: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDeliveries(t *testing.T) {
	ctx := t.Context()
	s := NewMemoryStore()
	for i := 1; i <= 3; i++ {
		_ = s.RecordDelivery(ctx, &Delivery{ListenerID: "l", Attempt: i})
	}
	_ = s.RecordDelivery(ctx, &Delivery{ListenerID: "other", Attempt: 1})

	got, _ := s.Deliveries(ctx, "l", 2)
	if len(got) != 2 || got[0].Attempt != 3 || got[1].Attempt != 2 {
		t.Errorf("Deliveries = %+v, want newest two", got)
	}
}

func TestMemoryStoreDeadLetters(t *testing.T) {
	ctx := t.Context()
	s := NewMemoryStore()
	dl := &DeadLetter{ListenerID: "l", EventID: "e1", Replayable: true}
	if err := s.CreateDeadLetter(ctx, dl); err != nil {
		t.Fatalf("CreateDeadLetter: %v", err)
	}

	list, _ := s.DeadLetters(ctx, "l")
	if len(list) != 1 {
		t.Fatalf("DeadLetters = %d, want 1", len(list))
	}
	if err := s.MarkReplayed(ctx, dl.ID); err != nil {
		t.Fatalf("MarkReplayed: %v", err)
	}
	list, _ = s.DeadLetters(ctx, "l")
	if len(list) != 0 {
		t.Errorf("replayed dead letter still listed")
	}
	got, err := s.GetDeadLetter(ctx, dl.ID)
	if err != nil || got.Replayable {
		t.Errorf("GetDeadLetter = %+v, %v", got, err)
	}
	if err := s.MarkReplayed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkReplayed(missing) = %v, want ErrNotFound", err)
	}
}
