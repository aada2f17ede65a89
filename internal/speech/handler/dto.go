package handler

import (
	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/speech"
)

// SpeakRequest is the body of POST /api/v1/speech/speak.
type SpeakRequest struct {
	Text     string  `json:"text"`
	Rate     float64 `json:"rate,omitempty"`
	Pitch    float64 `json:"pitch,omitempty"`
	Volume   float64 `json:"volume,omitempty"`
	Emphasis bool    `json:"emphasis,omitempty"`
	Slow     bool    `json:"slow,omitempty"`
}

func (r SpeakRequest) options() speech.Options {
	return speech.Options{
		Rate:     r.Rate,
		Pitch:    r.Pitch,
		Volume:   r.Volume,
		Emphasis: r.Emphasis,
		Slow:     r.Slow,
	}
}

// SpeakResponse reports how a speak request ended.
type SpeakResponse struct {
	Status string `json:"status"`
}

// StatusResponse describes the engine state.
type StatusResponse struct {
	Supported   bool   `json:"supported"`
	Initialized bool   `json:"initialized"`
	Playing     bool   `json:"playing"`
	Paused      bool   `json:"paused"`
	Script      string `json:"script,omitempty"`
}

// VoicesResponse lists the cached voices with their profiles.
type VoicesResponse struct {
	Voices []speech.Profile `json:"voices"`
}

// PlatformsResponse lists registered platforms.
type PlatformsResponse struct {
	Active    string   `json:"active"`
	Available []string `json:"available"`
}

// ScriptsResponse lists loaded scripts.
type ScriptsResponse struct {
	Scripts []string `json:"scripts"`
	Current string   `json:"current,omitempty"`
}

// PlayResponse acknowledges a script playback request.
type PlayResponse struct {
	Script string `json:"script"`
	Status string `json:"status"`
}

// HistoryResponse reports events read back from the event queue.
type HistoryResponse struct {
	Counts map[events.EventType]int `json:"counts"`
	Recent []events.Envelope        `json:"recent"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
