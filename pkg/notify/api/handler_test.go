package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/notify"
	"github.com/wordwise/wordwise/pkg/urlvalidation"
)

type recordingDispatcher struct {
	mu        sync.Mutex
	sent      []events.Envelope
	listeners []string
	forgotten []string
}

func (d *recordingDispatcher) Enqueue(_ context.Context, l notify.Listener, env events.Envelope) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, env)
	d.listeners = append(d.listeners, l.ID)
	return nil
}

func (d *recordingDispatcher) BreakerState(string) string { return "closed" }

func (d *recordingDispatcher) Forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forgotten = append(d.forgotten, id)
}

type fixture struct {
	store      *notify.MemoryStore
	dispatcher *recordingDispatcher
	mux        *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: notify.NewMemoryStore(), dispatcher: &recordingDispatcher{}}
	f.mux = http.NewServeMux()
	NewHandler(f.store, f.dispatcher, urlvalidation.AllowPrivateIPs()).RegisterRoutes(f.mux)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) create(t *testing.T, req CreateListenerRequest) ListenerResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/listeners", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var resp ListenerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestCreateListener(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, CreateListenerRequest{
		Name:   "progress",
		URL:    "http://127.0.0.1:9000/hook",
		Events: []events.EventType{events.SpeechCompleted},
	})

	if resp.ID == "" || len(resp.Secret) != 64 {
		t.Errorf("create response = %+v, want id and secret", resp)
	}
	if !resp.Enabled || resp.CircuitState != "closed" {
		t.Errorf("create response = %+v", resp)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/listeners/"+resp.ID, nil)
	var got ListenerResponse
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || got.Secret != "" {
		t.Errorf("get status = %d, secret %q; secret must only be returned on create", rec.Code, got.Secret)
	}
}

func TestCreateListenerValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  any
	}{
		{"missing name", CreateListenerRequest{URL: "http://127.0.0.1/h"}},
		{"missing url", CreateListenerRequest{Name: "x"}},
		{"bad scheme", CreateListenerRequest{Name: "x", URL: "ftp://127.0.0.1/h"}},
		{"unknown event", CreateListenerRequest{Name: "x", URL: "http://127.0.0.1/h", Events: []events.EventType{"speech.exploded"}}},
		{"not json", "]["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/listeners", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUpdateAndDeleteListener(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, CreateListenerRequest{Name: "a", URL: "http://127.0.0.1/a"})

	disabled := false
	name := "renamed"
	rec := f.do(t, http.MethodPut, "/api/v1/listeners/"+created.ID, UpdateListenerRequest{
		Name:    &name,
		Enabled: &disabled,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	var updated ListenerResponse
	_ = json.NewDecoder(rec.Body).Decode(&updated)
	if updated.Name != "renamed" || updated.Enabled {
		t.Errorf("updated = %+v", updated)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/listeners", nil)
	var list []ListenerResponse
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 || list[0].Name != "renamed" {
		t.Errorf("list = %+v", list)
	}

	rec = f.do(t, http.MethodDelete, "/api/v1/listeners/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if len(f.dispatcher.forgotten) != 1 || f.dispatcher.forgotten[0] != created.ID {
		t.Errorf("breaker state not dropped: %v", f.dispatcher.forgotten)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/listeners/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
	if rec := f.do(t, http.MethodDelete, "/api/v1/listeners/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", rec.Code)
	}
}

func TestRotateSecret(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, CreateListenerRequest{Name: "a", URL: "http://127.0.0.1/a"})

	rec := f.do(t, http.MethodPost, "/api/v1/listeners/"+created.ID+"/rotate-secret", nil)
	var rotated ListenerResponse
	_ = json.NewDecoder(rec.Body).Decode(&rotated)
	if rec.Code != http.StatusOK || rotated.Secret == "" || rotated.Secret == created.Secret {
		t.Errorf("rotate status = %d, secret changed = %v", rec.Code, rotated.Secret != created.Secret)
	}
}

func TestTestDelivery(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, CreateListenerRequest{Name: "a", URL: "http://127.0.0.1/a"})

	rec := f.do(t, http.MethodPost, "/api/v1/listeners/"+created.ID+"/test", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("test status = %d", rec.Code)
	}
	if len(f.dispatcher.sent) != 1 || f.dispatcher.sent[0].Type != events.ListenerTest {
		t.Fatalf("dispatched = %+v", f.dispatcher.sent)
	}
	if f.dispatcher.listeners[0] != created.ID {
		t.Errorf("test delivered to %q, want %q", f.dispatcher.listeners[0], created.ID)
	}

	if rec := f.do(t, http.MethodPost, "/api/v1/listeners/missing/test", nil); rec.Code != http.StatusNotFound {
		t.Errorf("test on unknown listener = %d, want 404", rec.Code)
	}
}

func TestReplayDeadLetter(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, CreateListenerRequest{Name: "a", URL: "http://127.0.0.1/a"})

	env, _ := events.NewEnvelope("test", events.SpeechFailed, "utt-9", events.UtteranceData{Text: "pear", Code: "network"})
	payload, _ := json.Marshal(env)
	dl := &notify.DeadLetter{
		ListenerID: created.ID,
		EventID:    env.ID,
		EventType:  string(env.Type),
		Payload:    string(payload),
		LastError:  "HTTP 500",
		Attempts:   5,
		Replayable: true,
	}
	_ = f.store.CreateDeadLetter(t.Context(), dl)

	rec := f.do(t, http.MethodGet, "/api/v1/listeners/"+created.ID+"/dead-letters", nil)
	var letters []DeadLetterResponse
	_ = json.NewDecoder(rec.Body).Decode(&letters)
	if len(letters) != 1 || letters[0].Attempts != 5 {
		t.Fatalf("dead letters = %+v", letters)
	}

	path := "/api/v1/listeners/" + created.ID + "/dead-letters/" + dl.ID + "/replay"
	if rec := f.do(t, http.MethodPost, path, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("replay status = %d, body %s", rec.Code, rec.Body)
	}
	if len(f.dispatcher.sent) != 1 || f.dispatcher.sent[0].ID != env.ID {
		t.Errorf("replayed = %+v, want original envelope", f.dispatcher.sent)
	}

	if rec := f.do(t, http.MethodPost, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second replay = %d, want 404", rec.Code)
	}
}

func TestReplayDeadLetterWrongListener(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, CreateListenerRequest{Name: "a", URL: "http://127.0.0.1/a"})
	b := f.create(t, CreateListenerRequest{Name: "b", URL: "http://127.0.0.1/b"})

	dl := &notify.DeadLetter{ListenerID: a.ID, EventID: "e", Payload: "{}", Replayable: true}
	_ = f.store.CreateDeadLetter(t.Context(), dl)

	rec := f.do(t, http.MethodPost, "/api/v1/listeners/"+b.ID+"/dead-letters/"+dl.ID+"/replay", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if len(f.dispatcher.sent) != 0 {
		t.Error("nothing should be dispatched")
	}
}

func TestListDeliveries(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, CreateListenerRequest{Name: "a", URL: "http://127.0.0.1/a"})
	_ = f.store.RecordDelivery(t.Context(), &notify.Delivery{
		ListenerID: created.ID,
		EventID:    "e1",
		EventType:  string(events.SpeechCompleted),
		Attempt:    1,
		Status:     notify.StatusDelivered,
		StatusCode: 200,
	})

	rec := f.do(t, http.MethodGet, "/api/v1/listeners/"+created.ID+"/deliveries", nil)
	var got []DeliveryResponse
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if rec.Code != http.StatusOK || len(got) != 1 || got[0].Status != notify.StatusDelivered {
		t.Errorf("deliveries = %d %+v", rec.Code, got)
	}
}
