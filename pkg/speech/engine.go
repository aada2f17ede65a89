package speech

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wordwise/wordwise/pkg/events"
)

const warmUpID = "warm-up"

// Config tunes engine timing.
type Config struct {
	// Timeout bounds how long Speak waits for a terminal signal.
	Timeout time.Duration
	// PollInterval is the liveness poll period.
	PollInterval time.Duration
	// SettleDelay is the pause between cancelling an utterance and submitting the next.
	SettleDelay time.Duration
	// VoiceLoadWait bounds the wait for an asynchronous voice list.
	VoiceLoadWait time.Duration
	// WarmUp issues a near-silent utterance after the voices load.
	WarmUp bool
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		Timeout:       120 * time.Second,
		PollInterval:  250 * time.Millisecond,
		SettleDelay:   100 * time.Millisecond,
		VoiceLoadWait: time.Second,
		WarmUp:        true,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.VoiceLoadWait <= 0 {
		c.VoiceLoadWait = def.VoiceLoadWait
	}
	return c
}

// Engine drives a Platform: it loads voices once, selects the best English
// voice and turns callback-based playback into blocking Speak calls. At most
// one utterance is in flight; a new Speak supersedes the previous one.
type Engine struct {
	platform  Platform
	cfg       Config
	publisher *events.Publisher
	supported bool
	changed   <-chan struct{}

	initMu   sync.Mutex // serialises voice loading
	submitMu sync.Mutex // serialises cancel, settle and submit

	mu          sync.Mutex
	initialized bool
	voices      []Voice
	current     *flight
}

// NewEngine creates an engine over p. Support is probed once here. pub may be nil.
func NewEngine(p Platform, cfg Config, pub *events.Publisher) *Engine {
	e := &Engine{
		platform:  p,
		cfg:       cfg.withDefaults(),
		publisher: pub,
		supported: p != nil && p.Available(),
	}
	if e.supported {
		e.changed = p.VoicesChanged()
	}
	return e
}

// IsSupported reports whether the platform offers speech synthesis.
func (e *Engine) IsSupported() bool {
	return e.supported
}

// IsInitialized reports whether the voice list has been loaded.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Initialize loads the voice list. It is idempotent and safe to call
// concurrently; callers share a single load.
func (e *Engine) Initialize(ctx context.Context) error {
	if !e.supported {
		return ErrUnsupportedPlatform
	}

	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.IsInitialized() {
		return nil
	}

	voices, err := e.loadVoices(ctx)
	if err != nil {
		return fmt.Errorf("load voices: %w", err)
	}
	if e.cfg.WarmUp {
		e.warmUp(ctx)
	}

	e.mu.Lock()
	e.voices = voices
	e.initialized = true
	e.mu.Unlock()

	data := &events.VoicesLoadedData{Count: len(voices)}
	if best, ok := SelectVoice(voices); ok {
		data.BestVoice = best.Name
	}
	slog.DebugContext(ctx, "speech voices loaded",
		slog.Int("count", data.Count),
		slog.String("best_voice", data.BestVoice))
	e.publish(ctx, events.VoicesLoaded, "", data)
	return nil
}

// loadVoices returns the platform list, waiting for the voices-changed
// signal or VoiceLoadWait when it is empty.
func (e *Engine) loadVoices(ctx context.Context) ([]Voice, error) {
	if voices := e.platform.Voices(); len(voices) > 0 {
		return voices, nil
	}

	timer := time.NewTimer(e.cfg.VoiceLoadWait)
	defer timer.Stop()

	select {
	case <-e.changed:
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return e.platform.Voices(), nil
}

func (e *Engine) warmUp(ctx context.Context) {
	u := &Utterance{ID: warmUpID, Text: " ", Rate: 10, Pitch: DefaultPitch, Volume: 0.01}
	if err := e.platform.Speak(u); err != nil {
		slog.DebugContext(ctx, "speech warm-up failed", slog.String("error", err.Error()))
	}
	e.platform.Cancel()
}

// Voices returns a copy of the cached voice list.
func (e *Engine) Voices() []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Voice, len(e.voices))
	copy(out, e.voices)
	return out
}

// BestVoiceInfo returns the profile of the voice Speak would use now.
func (e *Engine) BestVoiceInfo() (Profile, bool) {
	if !e.supported {
		return Profile{}, false
	}
	v, ok := e.bestVoice()
	if !ok {
		return Profile{}, false
	}
	return Classify(v), true
}

func (e *Engine) bestVoice() (Voice, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SelectVoice(e.voices)
}

// refreshVoices reloads the list when it is still empty and the platform
// has signalled a change since the last load.
func (e *Engine) refreshVoices() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.voices) > 0 || e.changed == nil {
		return
	}
	select {
	case <-e.changed:
		e.voices = e.platform.Voices()
	default:
	}
}

// Speak says text and blocks until the utterance ends. It returns nil on
// natural completion and when the utterance is cancelled by Stop or a newer
// Speak. If ctx ends first the utterance is cancelled and ctx.Err() returned.
func (e *Engine) Speak(ctx context.Context, text string, opts Options) error {
	if !e.supported {
		return ErrUnsupportedPlatform
	}
	req, err := NewRequest(text, opts)
	if err != nil {
		return err
	}
	if err := e.Initialize(ctx); err != nil {
		return err
	}

	f, err := e.submit(ctx, req)
	if err != nil {
		return err
	}
	return e.await(ctx, f)
}

func (e *Engine) submit(ctx context.Context, req Request) (*flight, error) {
	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	e.interrupt()
	if err := sleepContext(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}

	e.refreshVoices()
	voice, ok := e.bestVoice()
	if !ok {
		return nil, ErrNoVoiceAvailable
	}

	f := newFlight(req, voice)
	f.submitted = time.Now()

	// Submission happens under mu so a concurrent Stop sees either no
	// flight or a flight the platform already knows about.
	e.mu.Lock()
	e.current = f
	err := e.platform.Speak(f.utterance)
	if err == nil && (e.platform.Speaking() || e.platform.Pending()) {
		f.markActive()
	}
	e.mu.Unlock()

	if err != nil {
		f.finish(outcome{
			event: events.SpeechFailed,
			code:  CodeSynthesisFailed,
			err:   &SpeechError{Code: CodeSynthesisFailed, Err: err},
		})
	}
	return f, nil
}

func (e *Engine) await(ctx context.Context, f *flight) error {
	timeout := time.NewTimer(e.cfg.Timeout)
	defer timeout.Stop()
	poll := time.NewTicker(e.cfg.PollInterval)
	defer poll.Stop()

	started := f.started
	for {
		select {
		case <-f.done:
			return e.settle(ctx, f, started != nil)

		case <-started:
			started = nil
			e.publish(ctx, events.SpeechStarted, f.id, e.utteranceData(f, ""))

		case <-poll.C:
			e.checkLiveness(f)

		case <-timeout.C:
			if f.finish(outcome{event: events.SpeechTimedOut, err: ErrSpeechTimeout}) {
				e.cancelFlight(f)
			}

		case <-ctx.Done():
			if f.finish(outcome{event: events.SpeechCancelled, code: CodeCanceled, err: ctx.Err()}) {
				e.cancelFlight(f)
			}
		}
	}
}

// checkLiveness resolves a flight whose platform went idle without firing
// an end callback. A flight the platform never held is left to the timeout.
func (e *Engine) checkLiveness(f *flight) {
	if e.platform.Speaking() {
		f.markSpeaking()
		return
	}
	if e.platform.Pending() || e.platform.Paused() {
		return
	}
	if f.wasActive() {
		f.finish(outcome{event: events.SpeechCompleted})
	}
}

func (e *Engine) settle(ctx context.Context, f *flight, startPending bool) error {
	e.release(f)

	if startPending && f.hasStarted() {
		e.publish(ctx, events.SpeechStarted, f.id, e.utteranceData(f, ""))
	}

	o := f.terminal()
	e.publish(ctx, o.event, f.id, e.utteranceData(f, o.code))

	switch o.event {
	case events.SpeechTimedOut:
		slog.WarnContext(ctx, "speech timed out",
			slog.String("utterance_id", f.id),
			slog.String("voice", f.voice.Name),
			slog.Duration("timeout", e.cfg.Timeout))
	case events.SpeechFailed:
		slog.WarnContext(ctx, "speech failed",
			slog.String("utterance_id", f.id),
			slog.String("voice", f.voice.Name),
			slog.String("code", o.code))
	}
	return o.err
}

// release clears the in-flight slot if it still holds f.
func (e *Engine) release(f *flight) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == f {
		e.current = nil
	}
}

// cancelFlight clears f and cancels the platform when f is still in flight.
func (e *Engine) cancelFlight(f *flight) {
	e.mu.Lock()
	current := e.current == f
	if current {
		e.current = nil
	}
	e.mu.Unlock()
	if current {
		e.platform.Cancel()
	}
}

// interrupt resolves the in-flight utterance as cancelled and silences the platform.
func (e *Engine) interrupt() {
	e.mu.Lock()
	f := e.current
	e.current = nil
	e.mu.Unlock()

	if f != nil {
		f.finish(outcome{event: events.SpeechCancelled, code: CodeInterrupted})
	}
	if f != nil || e.platform.Speaking() || e.platform.Pending() {
		e.platform.Cancel()
	}
}

// Stop cancels the current utterance. Its Speak call returns nil.
func (e *Engine) Stop() {
	if !e.supported {
		return
	}
	e.interrupt()
}

// Pause pauses playback when something is speaking.
func (e *Engine) Pause() {
	f := e.inFlight()
	if f == nil || !e.platform.Speaking() || e.platform.Paused() {
		return
	}
	e.platform.Pause()
	e.publish(context.Background(), events.SpeechPaused, f.id, e.utteranceData(f, ""))
}

// Resume continues paused playback.
func (e *Engine) Resume() {
	f := e.inFlight()
	if f == nil || !e.platform.Paused() {
		return
	}
	e.platform.Resume()
	e.publish(context.Background(), events.SpeechResumed, f.id, e.utteranceData(f, ""))
}

// IsPlaying reports whether the platform is speaking.
func (e *Engine) IsPlaying() bool {
	return e.supported && e.platform.Speaking()
}

// IsPaused reports whether the platform is paused.
func (e *Engine) IsPaused() bool {
	return e.supported && e.platform.Paused()
}

func (e *Engine) inFlight() *flight {
	if !e.supported {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) utteranceData(f *flight, code string) *events.UtteranceData {
	return &events.UtteranceData{
		Text:       f.req.Text(),
		Voice:      f.voice.Name,
		Language:   f.voice.Language,
		Rate:       f.req.Rate(),
		Slow:       f.req.Slow(),
		Code:       code,
		DurationMs: time.Since(f.submitted).Milliseconds(),
	}
}

func (e *Engine) publish(ctx context.Context, eventType events.EventType, utteranceID string, data any) {
	if e.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := e.publisher.Emit(ctx, eventType, utteranceID, data); err != nil {
		slog.WarnContext(ctx, "failed to publish speech event",
			slog.String("event_type", string(eventType)),
			slog.String("error", err.Error()))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
