package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/speech"
)

// Speaker is the part of the speech engine a Player needs.
type Speaker interface {
	Speak(ctx context.Context, text string, opts speech.Options) error
	Stop()
}

// Player plays scripts one at a time. Starting a script cancels the one
// already running.
type Player struct {
	speaker   Speaker
	publisher *events.Publisher

	mu      sync.Mutex
	seq     uint64
	current string
	cancel  context.CancelFunc
}

// NewPlayer creates a player. publisher may be nil.
func NewPlayer(speaker Speaker, publisher *events.Publisher) *Player {
	return &Player{speaker: speaker, publisher: publisher}
}

// Play speaks the steps of s in order and blocks until the script ends.
// A script superseded by another Play or by Stop returns nil.
func (p *Player) Play(ctx context.Context, s *Script) error {
	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	run := p.seq
	p.current = s.Name
	p.cancel = cancel
	p.mu.Unlock()

	defer p.release(run, cancel)

	p.emit(ctx, events.ScriptStarted, &events.ScriptData{Name: s.Name, Steps: len(s.Steps)})

	spoken, err := p.run(runCtx, s)
	if err != nil && ctx.Err() == nil && runCtx.Err() != nil {
		// Superseded or stopped.
		err = nil
	}

	data := &events.ScriptData{Name: s.Name, Steps: len(s.Steps), Spoken: spoken}
	if err != nil {
		data.Error = err.Error()
		slog.WarnContext(ctx, "script stopped on error",
			slog.String("script", s.Name), slog.String("error", err.Error()))
	}
	p.emit(ctx, events.ScriptFinished, data)
	return err
}

func (p *Player) run(ctx context.Context, s *Script) (int, error) {
	spoken := 0
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return spoken, err
		}

		if st.IsPause() {
			d, err := st.PauseDuration()
			if err != nil {
				return spoken, fmt.Errorf("step %d: %w", i, err)
			}
			if err := wait(ctx, d); err != nil {
				return spoken, err
			}
			continue
		}

		if err := p.speaker.Speak(ctx, st.Text, s.StepOptions(st)); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return spoken, err
			}
			return spoken, fmt.Errorf("step %d: %w", i, err)
		}
		spoken++
	}
	return spoken, ctx.Err()
}

func (p *Player) release(run uint64, cancel context.CancelFunc) {
	cancel()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq == run {
		p.current = ""
		p.cancel = nil
	}
}

// Stop cancels the running script and silences the speaker.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.current = ""
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		p.speaker.Stop()
	}
}

// Current returns the name of the running script, or "".
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Player) emit(ctx context.Context, eventType events.EventType, data *events.ScriptData) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Emit(context.WithoutCancel(ctx), eventType, "", data); err != nil {
		slog.WarnContext(ctx, "failed to publish script event",
			slog.String("event_type", string(eventType)), slog.String("error", err.Error()))
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
