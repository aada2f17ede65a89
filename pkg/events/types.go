package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	VoicesLoaded    EventType = "speech.voices_loaded"
	SpeechStarted   EventType = "speech.started"
	SpeechCompleted EventType = "speech.completed"
	SpeechCancelled EventType = "speech.cancelled"
	SpeechFailed    EventType = "speech.failed"
	SpeechTimedOut  EventType = "speech.timeout"
	SpeechPaused    EventType = "speech.paused"
	SpeechResumed   EventType = "speech.resumed"
	ScriptStarted   EventType = "script.started"
	ScriptFinished  EventType = "script.finished"
	ListenerTest    EventType = "listener.test"
)

// Known reports whether t is one of the event types above.
func Known(t EventType) bool {
	switch t {
	case VoicesLoaded, SpeechStarted, SpeechCompleted, SpeechCancelled,
		SpeechFailed, SpeechTimedOut, SpeechPaused, SpeechResumed,
		ScriptStarted, ScriptFinished, ListenerTest:
		return true
	}
	return false
}

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Source      string            `json:"source"`
	UtteranceID string            `json:"utterance_id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Data        json.RawMessage   `json:"data"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// VoicesLoadedData is the payload for speech.voices_loaded events.
type VoicesLoadedData struct {
	Count     int    `json:"count"`
	BestVoice string `json:"best_voice,omitempty"`
}

// UtteranceData is the payload for all speech.* lifecycle events.
type UtteranceData struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice,omitempty"`
	Language   string  `json:"language,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	Slow       bool    `json:"slow,omitempty"`
	Code       string  `json:"code,omitempty"` // platform error code
	DurationMs int64   `json:"duration_ms,omitempty"`
}

// ScriptData is the payload for script.started and script.finished events.
type ScriptData struct {
	Name   string `json:"name"`
	Steps  int    `json:"steps"`
	Spoken int    `json:"spoken,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ListenerTestData is the payload of a test delivery to a single listener.
type ListenerTestData struct {
	ListenerID string `json:"listener_id"`
	Message    string `json:"message"`
}
