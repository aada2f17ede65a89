package speech

import (
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/wordwise/wordwise/pkg/events"
)

type flightState int

const (
	flightIdle flightState = iota
	flightSpeaking
	flightTerminating
)

// outcome is the single terminal result of a flight.
type outcome struct {
	event events.EventType
	code  string
	err   error
}

// flight tracks one submitted utterance. Only the first terminal signal is
// recorded; later ones are dropped.
type flight struct {
	id        string
	req       Request
	voice     Voice
	utterance *Utterance
	submitted time.Time

	mu      sync.Mutex
	state   flightState
	active  bool
	result  outcome
	started chan struct{}
	done    chan struct{}
}

func newFlight(req Request, voice Voice) *flight {
	f := &flight{
		id:      xid.New().String(),
		req:     req,
		voice:   voice,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	f.utterance = &Utterance{
		ID:     f.id,
		Text:   req.Text(),
		Voice:  voice,
		Rate:   req.Rate(),
		Pitch:  req.Pitch(),
		Volume: req.Volume(),
		notify: f.handle,
	}
	return f
}

func (f *flight) handle(ev UtteranceEvent, code string) {
	switch ev {
	case UtteranceStarted:
		f.markSpeaking()
	case UtteranceEnded:
		f.finish(outcome{event: events.SpeechCompleted})
	case UtteranceFailed:
		if IsBenignCode(code) {
			f.finish(outcome{event: events.SpeechCancelled, code: code})
			return
		}
		f.finish(outcome{event: events.SpeechFailed, code: code, err: &SpeechError{Code: code}})
	}
}

// markSpeaking moves an idle flight to speaking.
func (f *flight) markSpeaking() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != flightIdle {
		return
	}
	f.state = flightSpeaking
	close(f.started)
}

// finish records o as the terminal outcome and reports whether this call
// performed the transition.
func (f *flight) finish(o outcome) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == flightTerminating {
		return false
	}
	f.state = flightTerminating
	f.result = o
	close(f.done)
	return true
}

// markActive records that the platform reported the utterance as pending or
// speaking. It does not count as a start.
func (f *flight) markActive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = true
}

// wasActive reports whether the platform ever held the utterance.
func (f *flight) wasActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active || f.state == flightSpeaking
}

// hasStarted reports whether the utterance was observed speaking.
func (f *flight) hasStarted() bool {
	select {
	case <-f.started:
		return true
	default:
		return false
	}
}

func (f *flight) terminal() outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}
