// Package procutil runs a command-line synthesizer as a speech.Platform,
// one child process per utterance.
package procutil

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wordwise/wordwise/pkg/speech"
)

// Options describe how to drive a synthesizer binary.
type Options struct {
	// Binary is the executable name or path.
	Binary string
	// Args builds the command line for an utterance.
	Args func(u *speech.Utterance) []string
	// Stdin returns the text written to the process, or nil to write nothing.
	Stdin func(u *speech.Utterance) string
	// ListVoices enumerates voices. It runs once in the background.
	ListVoices func(ctx context.Context, binary string) ([]speech.Voice, error)
	// VoiceTimeout bounds ListVoices. Defaults to 5s.
	VoiceTimeout time.Duration
}

// Runner implements speech.Platform over a synthesizer binary.
type Runner struct {
	opts      Options
	available bool
	changed   chan struct{}

	mu      sync.Mutex
	voices  []speech.Voice
	current *job
}

type job struct {
	u         *speech.Utterance
	cmd       *exec.Cmd
	stderr    bytes.Buffer
	cancelled bool
	paused    bool
}

// New probes for the binary and, when found, starts loading its voices.
func New(opts Options) *Runner {
	if opts.VoiceTimeout <= 0 {
		opts.VoiceTimeout = 5 * time.Second
	}
	r := &Runner{opts: opts, changed: make(chan struct{})}
	if _, err := exec.LookPath(opts.Binary); err == nil {
		r.available = true
		go r.loadVoices()
	}
	return r
}

func (r *Runner) loadVoices() {
	defer close(r.changed)
	if r.opts.ListVoices == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.VoiceTimeout)
	defer cancel()

	voices, err := r.opts.ListVoices(ctx, r.opts.Binary)
	if err != nil {
		slog.Warn("failed to list speech voices",
			slog.String("binary", r.opts.Binary),
			slog.String("error", err.Error()))
		return
	}

	r.mu.Lock()
	r.voices = voices
	r.mu.Unlock()
}

func (r *Runner) Available() bool { return r.available }

func (r *Runner) Voices() []speech.Voice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]speech.Voice(nil), r.voices...)
}

// VoicesChanged is closed once the background voice listing finishes.
func (r *Runner) VoicesChanged() <-chan struct{} { return r.changed }

// Speak starts a process for u, replacing any running one.
func (r *Runner) Speak(u *speech.Utterance) error {
	if !r.available {
		return speech.ErrUnsupportedPlatform
	}

	var args []string
	if r.opts.Args != nil {
		args = r.opts.Args(u)
	}
	j := &job{u: u, cmd: exec.Command(r.opts.Binary, args...)}
	if r.opts.Stdin != nil {
		j.cmd.Stdin = strings.NewReader(r.opts.Stdin(u))
	}
	j.cmd.Stderr = &j.stderr

	if err := j.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.opts.Binary, err)
	}

	r.mu.Lock()
	prev := r.current
	r.current = j
	r.mu.Unlock()

	if prev != nil {
		r.kill(prev)
	}
	go r.wait(j)
	return nil
}

func (r *Runner) wait(j *job) {
	j.u.Started()
	err := j.cmd.Wait()

	r.mu.Lock()
	cancelled := j.cancelled
	if r.current == j {
		r.current = nil
	}
	r.mu.Unlock()

	switch {
	case cancelled:
		j.u.Failed(speech.CodeCanceled)
	case err != nil:
		slog.Warn("speech process failed",
			slog.String("binary", r.opts.Binary),
			slog.String("error", err.Error()),
			slog.String("stderr", strings.TrimSpace(j.stderr.String())))
		j.u.Failed(speech.CodeSynthesisFailed)
	default:
		j.u.Ended()
	}
}

func (r *Runner) kill(j *job) {
	r.mu.Lock()
	j.cancelled = true
	r.mu.Unlock()
	_ = j.cmd.Process.Kill()
}

// Cancel kills the running process. Its utterance fails with "canceled".
func (r *Runner) Cancel() {
	r.mu.Lock()
	j := r.current
	r.current = nil
	r.mu.Unlock()

	if j != nil {
		r.kill(j)
	}
}

func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.current
	if j == nil || j.paused {
		return
	}
	if err := stopProcess(j.cmd.Process); err != nil {
		slog.Debug("pause speech process", slog.String("error", err.Error()))
		return
	}
	j.paused = true
}

func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := r.current
	if j == nil || !j.paused {
		return
	}
	if err := continueProcess(j.cmd.Process); err != nil {
		slog.Debug("resume speech process", slog.String("error", err.Error()))
		return
	}
	j.paused = false
}

func (r *Runner) Speaking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Pending is always false: processes start synchronously in Speak.
func (r *Runner) Pending() bool { return false }

func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil && r.current.paused
}

// Scale maps v (1.0 = normal) onto a synthesizer's integer range.
func Scale(v, normal, lo, hi float64) int {
	return int(math.Round(math.Max(lo, math.Min(hi, v*normal))))
}

var _ speech.Platform = (*Runner)(nil)
