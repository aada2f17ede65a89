// Package speechtest provides a simulated speech.Platform for tests.
package speechtest

import (
	"sync"
	"time"

	"github.com/wordwise/wordwise/pkg/speech"
)

// Mode controls how the simulated platform plays an utterance.
type Mode int

const (
	// EndAfter starts immediately and fires Ended after the configured delay.
	EndAfter Mode = iota
	// Hold starts and keeps speaking until Cancel or Finish.
	Hold
	// Stuck never fires any callback and stays pending.
	Stuck
	// DropEnd starts, then goes idle after the delay without firing Ended.
	DropEnd
	// FailAfter starts, then fires Failed with the configured code.
	FailAfter
	// Silent accepts the utterance and stays idle without any callback.
	Silent
	// Quiet speaks for the configured delay without firing any callback.
	Quiet
)

// Platform is an in-memory speech platform. The zero value is not usable;
// use New or Unsupported.
type Platform struct {
	mu        sync.Mutex
	available bool
	voices    []speech.Voice
	changed   chan struct{}
	mode      Mode
	delay     time.Duration
	failCode  string
	speakErr  error

	current  *speech.Utterance
	speaking bool
	pending  bool
	paused   bool

	utterances []*speech.Utterance
	voiceCalls int
	cancels    int
	overlaps   int
}

// New returns an available platform with the given voices that ends every
// utterance after 10ms.
func New(voices ...speech.Voice) *Platform {
	return &Platform{
		available: true,
		voices:    voices,
		changed:   make(chan struct{}, 1),
		mode:      EndAfter,
		delay:     10 * time.Millisecond,
	}
}

// Unsupported returns a platform without speech synthesis.
func Unsupported() *Platform {
	return &Platform{changed: make(chan struct{}, 1)}
}

// SetMode changes how subsequent utterances play.
func (p *Platform) SetMode(m Mode, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = m
	p.delay = delay
}

// FailWith makes subsequent utterances fail with code after delay.
func (p *Platform) FailWith(code string, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = FailAfter
	p.failCode = code
	p.delay = delay
}

// RejectSpeak makes Speak return err.
func (p *Platform) RejectSpeak(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speakErr = err
}

// PublishVoices replaces the voice list and signals a change.
func (p *Platform) PublishVoices(voices ...speech.Voice) {
	p.mu.Lock()
	p.voices = voices
	p.mu.Unlock()
	select {
	case p.changed <- struct{}{}:
	default:
	}
}

func (p *Platform) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *Platform) Voices() []speech.Voice {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voiceCalls++
	out := make([]speech.Voice, len(p.voices))
	copy(out, p.voices)
	return out
}

func (p *Platform) VoicesChanged() <-chan struct{} {
	return p.changed
}

func (p *Platform) Speak(u *speech.Utterance) error {
	p.mu.Lock()
	if p.speakErr != nil {
		err := p.speakErr
		p.mu.Unlock()
		return err
	}
	p.utterances = append(p.utterances, u)
	if p.current != nil {
		p.overlaps++
	}
	if p.mode == Silent {
		p.mu.Unlock()
		return nil
	}
	p.current = u
	p.pending = true
	p.speaking = false
	p.paused = false
	mode, delay, code := p.mode, p.delay, p.failCode
	p.mu.Unlock()

	switch mode {
	case Stuck:
		return nil
	case Quiet:
		p.mu.Lock()
		p.pending = false
		p.speaking = true
		p.mu.Unlock()
		time.AfterFunc(delay, func() { p.release(u) })
		return nil
	}
	time.AfterFunc(0, func() { p.start(u, mode, delay, code) })
	return nil
}

func (p *Platform) start(u *speech.Utterance, mode Mode, delay time.Duration, code string) {
	p.mu.Lock()
	if p.current != u {
		p.mu.Unlock()
		return
	}
	p.pending = false
	p.speaking = true
	p.mu.Unlock()

	u.Started()

	switch mode {
	case EndAfter:
		time.AfterFunc(delay, func() {
			if p.release(u) {
				u.Ended()
			}
		})
	case DropEnd:
		time.AfterFunc(delay, func() { p.release(u) })
	case FailAfter:
		time.AfterFunc(delay, func() {
			if p.release(u) {
				u.Failed(code)
			}
		})
	}
}

// release makes the platform idle if u is still current.
func (p *Platform) release(u *speech.Utterance) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != u {
		return false
	}
	p.current = nil
	p.speaking = false
	p.pending = false
	p.paused = false
	return true
}

// Finish ends the current utterance naturally.
func (p *Platform) Finish() {
	p.mu.Lock()
	u := p.current
	p.mu.Unlock()
	if u != nil && p.release(u) {
		u.Ended()
	}
}

// Cancel drops the current utterance and reports it as interrupted, or as
// canceled when it had not started yet.
func (p *Platform) Cancel() {
	p.mu.Lock()
	p.cancels++
	u := p.current
	code := speech.CodeInterrupted
	if p.pending {
		code = speech.CodeCanceled
	}
	p.current = nil
	p.speaking = false
	p.pending = false
	p.paused = false
	p.mu.Unlock()

	if u != nil {
		u.Failed(code)
	}
}

func (p *Platform) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speaking {
		p.paused = true
	}
}

func (p *Platform) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *Platform) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

func (p *Platform) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

func (p *Platform) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Utterances returns every utterance submitted so far, in order.
func (p *Platform) Utterances() []*speech.Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*speech.Utterance, len(p.utterances))
	copy(out, p.utterances)
	return out
}

// Last returns the most recent utterance, or nil.
func (p *Platform) Last() *speech.Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.utterances) == 0 {
		return nil
	}
	return p.utterances[len(p.utterances)-1]
}

// VoiceCalls counts calls to Voices.
func (p *Platform) VoiceCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiceCalls
}

// Cancels counts calls to Cancel.
func (p *Platform) Cancels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancels
}

// Overlaps counts submissions made while another utterance was still current.
func (p *Platform) Overlaps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overlaps
}

var _ speech.Platform = (*Platform)(nil)
