// Package handler exposes the speech engine and script player over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pitabwire/frame/workerpool"
	"github.com/pitabwire/util"
	"github.com/rs/xid"

	"github.com/wordwise/wordwise/internal/speech/registry"
	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/script"
	"github.com/wordwise/wordwise/pkg/speech"
)

const (
	maxRequestBodySize = 1 << 16 // 64 KiB
	eventBufferSize    = 128

	timeoutMessage = "speech platform did not finish; try another voice or platform"
)

// Engine is the speech engine surface the handler drives.
type Engine interface {
	Initialize(ctx context.Context) error
	Speak(ctx context.Context, text string, opts speech.Options) error
	Stop()
	Pause()
	Resume()
	IsSupported() bool
	IsInitialized() bool
	IsPlaying() bool
	IsPaused() bool
	Voices() []speech.Voice
	BestVoiceInfo() (speech.Profile, bool)
}

// ScriptSource looks up loaded scripts.
type ScriptSource interface {
	Get(name string) (*script.Script, bool)
	Names() []string
}

// ScriptPlayer plays one script at a time.
type ScriptPlayer interface {
	Play(ctx context.Context, s *script.Script) error
	Stop()
	Current() string
}

// Handler provides the speech REST endpoints.
type Handler struct {
	engine    Engine
	platform  string
	publisher *events.Publisher
	pool      workerpool.WorkerPool

	scripts ScriptSource
	player  ScriptPlayer
	journal *events.Journal
}

// NewHandler creates a handler for engine. platform names the active
// backend; publisher and pool may be nil.
func NewHandler(engine Engine, platform string, publisher *events.Publisher, pool workerpool.WorkerPool) *Handler {
	return &Handler{
		engine:    engine,
		platform:  platform,
		publisher: publisher,
		pool:      pool,
	}
}

// SetScripts enables the script endpoints.
func (h *Handler) SetScripts(src ScriptSource, player ScriptPlayer) {
	h.scripts = src
	h.player = player
}

// SetJournal enables the history endpoint.
func (h *Handler) SetJournal(j *events.Journal) {
	h.journal = j
}

// RegisterRoutes registers all speech API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/speech/initialize", h.Initialize)
	mux.HandleFunc("POST /api/v1/speech/speak", h.Speak)
	mux.HandleFunc("POST /api/v1/speech/stop", h.Stop)
	mux.HandleFunc("POST /api/v1/speech/pause", h.Pause)
	mux.HandleFunc("POST /api/v1/speech/resume", h.Resume)
	mux.HandleFunc("GET /api/v1/speech/status", h.Status)
	mux.HandleFunc("GET /api/v1/speech/voices", h.Voices)
	mux.HandleFunc("GET /api/v1/speech/voices/best", h.BestVoice)
	mux.HandleFunc("GET /api/v1/speech/platforms", h.Platforms)
	mux.HandleFunc("GET /api/v1/speech/events", h.Events)
	mux.HandleFunc("GET /api/v1/speech/history", h.History)
	mux.HandleFunc("GET /api/v1/scripts", h.ListScripts)
	mux.HandleFunc("POST /api/v1/scripts/stop", h.StopScript)
	mux.HandleFunc("POST /api/v1/scripts/{name}/play", h.PlayScript)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeSpeechError maps engine errors onto HTTP status codes.
func writeSpeechError(w http.ResponseWriter, r *http.Request, err error) {
	var serr *speech.SpeechError
	switch {
	case errors.Is(err, speech.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, speech.ErrUnsupportedPlatform):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, speech.ErrNoVoiceAvailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, speech.ErrSpeechTimeout):
		writeError(w, http.StatusGatewayTimeout, timeoutMessage)
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: serr.Error(), Code: serr.Code})
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the reply.
		slog.DebugContext(r.Context(), "speak request cancelled by client")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "request deadline exceeded")
	default:
		util.Log(r.Context()).WithError(err).Error("speech request failed")
		writeError(w, http.StatusInternalServerError, "speech request failed")
	}
}

func (h *Handler) status() StatusResponse {
	resp := StatusResponse{
		Supported:   h.engine.IsSupported(),
		Initialized: h.engine.IsInitialized(),
		Playing:     h.engine.IsPlaying(),
		Paused:      h.engine.IsPaused(),
	}
	if h.player != nil {
		resp.Script = h.player.Current()
	}
	return resp
}

// Initialize handles POST /api/v1/speech/initialize
func (h *Handler) Initialize(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Initialize(r.Context()); err != nil {
		writeSpeechError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}

// Speak handles POST /api/v1/speech/speak. It blocks until the utterance ends.
func (h *Handler) Speak(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.engine.Speak(r.Context(), req.Text, req.options()); err != nil {
		writeSpeechError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SpeakResponse{Status: "completed"})
}

// Stop handles POST /api/v1/speech/stop
func (h *Handler) Stop(w http.ResponseWriter, _ *http.Request) {
	h.engine.Stop()
	w.WriteHeader(http.StatusNoContent)
}

// Pause handles POST /api/v1/speech/pause
func (h *Handler) Pause(w http.ResponseWriter, _ *http.Request) {
	h.engine.Pause()
	w.WriteHeader(http.StatusNoContent)
}

// Resume handles POST /api/v1/speech/resume
func (h *Handler) Resume(w http.ResponseWriter, _ *http.Request) {
	h.engine.Resume()
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/v1/speech/status
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// Voices handles GET /api/v1/speech/voices
func (h *Handler) Voices(w http.ResponseWriter, _ *http.Request) {
	voices := h.engine.Voices()
	resp := VoicesResponse{Voices: make([]speech.Profile, 0, len(voices))}
	for _, v := range voices {
		resp.Voices = append(resp.Voices, speech.Classify(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// BestVoice handles GET /api/v1/speech/voices/best
func (h *Handler) BestVoice(w http.ResponseWriter, _ *http.Request) {
	if !h.engine.IsSupported() {
		writeError(w, http.StatusNotImplemented, speech.ErrUnsupportedPlatform.Error())
		return
	}
	profile, ok := h.engine.BestVoiceInfo()
	if !ok {
		writeError(w, http.StatusNotFound, speech.ErrNoVoiceAvailable.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Platforms handles GET /api/v1/speech/platforms
func (h *Handler) Platforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PlatformsResponse{
		Active:    h.platform,
		Available: registry.Platforms.List(),
	})
}

// Events handles GET /api/v1/speech/events as a server-sent event stream.
// Repeated "type" query parameters restrict the stream to those event types.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "event publisher not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	allowed := make(map[events.EventType]bool)
	for _, t := range r.URL.Query()["type"] {
		allowed[events.EventType(t)] = true
	}

	subID := xid.New().String()
	eventCh := h.publisher.Subscribe(subID, eventBufferSize)
	defer h.publisher.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-eventCh:
			if !ok {
				return
			}
			if len(allowed) > 0 && !allowed[env.Type] {
				continue
			}
			data, err := json.Marshal(env)
			if err != nil {
				slog.WarnContext(ctx, "marshal event for stream", slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// History handles GET /api/v1/speech/history
func (h *Handler) History(w http.ResponseWriter, _ *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusOK, HistoryResponse{Counts: map[events.EventType]int{}, Recent: []events.Envelope{}})
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Counts: h.journal.Counts(), Recent: h.journal.Recent()})
}

// ListScripts handles GET /api/v1/scripts
func (h *Handler) ListScripts(w http.ResponseWriter, _ *http.Request) {
	if h.scripts == nil {
		writeJSON(w, http.StatusOK, ScriptsResponse{Scripts: []string{}})
		return
	}
	resp := ScriptsResponse{Scripts: h.scripts.Names()}
	if h.player != nil {
		resp.Current = h.player.Current()
	}
	writeJSON(w, http.StatusOK, resp)
}

// PlayScript handles POST /api/v1/scripts/{name}/play. Playback runs in the
// background; progress is reported on the event stream.
func (h *Handler) PlayScript(w http.ResponseWriter, r *http.Request) {
	if h.scripts == nil || h.player == nil {
		writeError(w, http.StatusNotFound, "scripts not configured")
		return
	}
	if !h.engine.IsSupported() {
		writeError(w, http.StatusNotImplemented, speech.ErrUnsupportedPlatform.Error())
		return
	}

	name := r.PathValue("name")
	s, ok := h.scripts.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "script not found")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	play := func() {
		if err := h.player.Play(ctx, s); err != nil {
			util.Log(ctx).WithError(err).Error("script playback failed")
		}
	}
	if h.pool != nil {
		if err := h.pool.Submit(ctx, play); err != nil {
			slog.WarnContext(ctx, "worker pool rejected script playback", slog.String("script", name))
			writeError(w, http.StatusServiceUnavailable, "playback queue full")
			return
		}
	} else {
		go play()
	}

	writeJSON(w, http.StatusAccepted, PlayResponse{Script: name, Status: "playing"})
}

// StopScript handles POST /api/v1/scripts/stop
func (h *Handler) StopScript(w http.ResponseWriter, _ *http.Request) {
	if h.player != nil {
		h.player.Stop()
	}
	w.WriteHeader(http.StatusNoContent)
}
