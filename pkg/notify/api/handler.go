package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pitabwire/util"

	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/notify"
	"github.com/wordwise/wordwise/pkg/urlvalidation"
)

const maxRequestBodySize = 1 << 20 // 1 MiB

// Dispatcher sends a single envelope to one listener in the background.
type Dispatcher interface {
	Enqueue(ctx context.Context, l notify.Listener, env events.Envelope) error
	BreakerState(listenerID string) string
	Forget(listenerID string)
}

// Handler provides REST endpoints for event listener management.
type Handler struct {
	store        notify.Store
	dispatcher   Dispatcher
	validateOpts []urlvalidation.Option
}

// NewHandler creates a listener API handler.
func NewHandler(store notify.Store, dispatcher Dispatcher, validateOpts ...urlvalidation.Option) *Handler {
	return &Handler{store: store, dispatcher: dispatcher, validateOpts: validateOpts}
}

// RegisterRoutes registers all listener API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/listeners", h.Create)
	mux.HandleFunc("GET /api/v1/listeners", h.List)
	mux.HandleFunc("GET /api/v1/listeners/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/listeners/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/listeners/{id}", h.Delete)
	mux.HandleFunc("POST /api/v1/listeners/{id}/rotate-secret", h.RotateSecret)
	mux.HandleFunc("GET /api/v1/listeners/{id}/deliveries", h.ListDeliveries)
	mux.HandleFunc("GET /api/v1/listeners/{id}/dead-letters", h.ListDeadLetters)
	mux.HandleFunc("POST /api/v1/listeners/{id}/dead-letters/{dlid}/replay", h.ReplayDeadLetter)
	mux.HandleFunc("POST /api/v1/listeners/{id}/test", h.Test)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeStoreError maps a store failure to 404 or 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if errors.Is(err, notify.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	util.Log(r.Context()).WithError(err).Error("listener store: " + what)
	writeError(w, http.StatusInternalServerError, "failed to load "+what)
}

func (h *Handler) toResponse(l *notify.Listener, includeSecret bool) ListenerResponse {
	evts := []events.EventType(l.Events)
	if evts == nil {
		evts = []events.EventType{}
	}
	resp := ListenerResponse{
		ID:           l.ID,
		Name:         l.Name,
		URL:          l.URL,
		Events:       evts,
		Enabled:      l.Enabled,
		Description:  l.Description,
		CircuitState: h.dispatcher.BreakerState(l.ID),
		CreatedAt:    l.CreatedAt.Format(time.RFC3339),
		ModifiedAt:   l.ModifiedAt.Format(time.RFC3339),
	}
	if includeSecret {
		resp.Secret = l.Secret
	}
	return resp
}

func validEvents(types []events.EventType) error {
	for _, t := range types {
		if !events.Known(t) {
			return fmt.Errorf("unknown event type %q", t)
		}
	}
	return nil
}

// Create handles POST /api/v1/listeners
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req CreateListenerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "name and url are required")
		return
	}
	if err := validEvents(req.Events); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := urlvalidation.ValidateCallbackURL(r.Context(), req.URL, h.validateOpts...); err != nil {
		writeError(w, http.StatusBadRequest, "invalid listener URL: "+err.Error())
		return
	}

	secret, err := notify.GenerateSecret()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate secret")
		return
	}

	l := &notify.Listener{
		Name:        req.Name,
		URL:         req.URL,
		Secret:      secret,
		Events:      notify.EventFilter(req.Events),
		Enabled:     true,
		Description: req.Description,
	}
	if err := h.store.CreateListener(r.Context(), l); err != nil {
		util.Log(r.Context()).WithError(err).Error("listener store: create")
		writeError(w, http.StatusInternalServerError, "failed to create listener")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(l, true))
}

// List handles GET /api/v1/listeners
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	listeners, err := h.store.ListListeners(r.Context())
	if err != nil {
		writeStoreError(w, r, err, "listeners")
		return
	}
	resp := make([]ListenerResponse, 0, len(listeners))
	for i := range listeners {
		resp = append(resp, h.toResponse(&listeners[i], false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/listeners/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.store.GetListener(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(l, false))
}

// Update handles PUT /api/v1/listeners/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	l, err := h.store.GetListener(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}

	var req UpdateListenerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		l.Name = *req.Name
	}
	if req.URL != nil {
		if err := urlvalidation.ValidateCallbackURL(r.Context(), *req.URL, h.validateOpts...); err != nil {
			writeError(w, http.StatusBadRequest, "invalid listener URL: "+err.Error())
			return
		}
		l.URL = *req.URL
	}
	if req.Events != nil {
		if err := validEvents(*req.Events); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		l.Events = notify.EventFilter(*req.Events)
	}
	if req.Enabled != nil {
		l.Enabled = *req.Enabled
	}
	if req.Description != nil {
		l.Description = *req.Description
	}

	if err := h.store.UpdateListener(r.Context(), l); err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(l, false))
}

// Delete handles DELETE /api/v1/listeners/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteListener(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}
	h.dispatcher.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// RotateSecret handles POST /api/v1/listeners/{id}/rotate-secret
func (h *Handler) RotateSecret(w http.ResponseWriter, r *http.Request) {
	l, err := h.store.GetListener(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}

	secret, err := notify.GenerateSecret()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate secret")
		return
	}
	l.Secret = secret
	if err := h.store.UpdateListener(r.Context(), l); err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(l, true))
}

// ListDeliveries handles GET /api/v1/listeners/{id}/deliveries
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.store.Deliveries(r.Context(), r.PathValue("id"), 50)
	if err != nil {
		writeStoreError(w, r, err, "deliveries")
		return
	}

	resp := make([]DeliveryResponse, 0, len(attempts))
	for _, a := range attempts {
		resp = append(resp, DeliveryResponse{
			ID:         a.ID,
			EventID:    a.EventID,
			EventType:  a.EventType,
			Attempt:    a.Attempt,
			Status:     a.Status,
			StatusCode: a.StatusCode,
			Error:      a.Error,
			DurationMs: a.DurationMs,
			CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListDeadLetters handles GET /api/v1/listeners/{id}/dead-letters
func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := h.store.DeadLetters(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "dead letters")
		return
	}

	resp := make([]DeadLetterResponse, 0, len(letters))
	for _, dl := range letters {
		resp = append(resp, DeadLetterResponse{
			ID:        dl.ID,
			EventID:   dl.EventID,
			EventType: dl.EventType,
			LastError: dl.LastError,
			Attempts:  dl.Attempts,
			CreatedAt: dl.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReplayDeadLetter handles POST /api/v1/listeners/{id}/dead-letters/{dlid}/replay.
// The stored envelope is redelivered to the same listener only.
func (h *Handler) ReplayDeadLetter(w http.ResponseWriter, r *http.Request) {
	l, err := h.store.GetListener(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}
	dl, err := h.store.GetDeadLetter(r.Context(), r.PathValue("dlid"))
	if err != nil {
		writeStoreError(w, r, err, "dead letter")
		return
	}
	if dl.ListenerID != l.ID || !dl.Replayable {
		writeError(w, http.StatusNotFound, "dead letter not found")
		return
	}

	var env events.Envelope
	if err := json.Unmarshal([]byte(dl.Payload), &env); err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt dead letter payload")
		return
	}
	if err := h.store.MarkReplayed(r.Context(), dl.ID); err != nil {
		writeStoreError(w, r, err, "dead letter")
		return
	}
	if err := h.dispatcher.Enqueue(r.Context(), *l, env); err != nil {
		writeError(w, http.StatusServiceUnavailable, "delivery queue full")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Test handles POST /api/v1/listeners/{id}/test
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	l, err := h.store.GetListener(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err, "listener")
		return
	}

	env, err := events.NewEnvelope("wordwise", events.ListenerTest, "", events.ListenerTestData{
		ListenerID: l.ID,
		Message:    "test delivery from wordwise",
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build test event")
		return
	}
	if err := h.dispatcher.Enqueue(r.Context(), *l, env); err != nil {
		writeError(w, http.StatusServiceUnavailable, "delivery queue full")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "test event queued", "event_id": env.ID})
}
