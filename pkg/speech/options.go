package speech

import "strings"

const (
	DefaultRate   = 0.85
	SlowRate      = 0.65
	DefaultPitch  = 1.0
	DefaultVolume = 1.0

	minRate  = 0.1
	maxRate  = 10
	maxPitch = 2
)

// Options tune a single Speak call. Zero values select the defaults.
type Options struct {
	Rate     float64 `json:"rate,omitempty"`
	Pitch    float64 `json:"pitch,omitempty"`
	Volume   float64 `json:"volume,omitempty"`
	Emphasis bool    `json:"emphasis,omitempty"`
	Slow     bool    `json:"slow,omitempty"`
}

// Request is an immutable utterance request built by NewRequest.
type Request struct {
	text     string
	rate     float64
	pitch    float64
	volume   float64
	emphasis bool
	slow     bool
}

// NewRequest trims text and resolves options into a Request. Slow overrides
// any explicit rate.
func NewRequest(text string, opts Options) (Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Request{}, ErrEmptyText
	}

	req := Request{
		text:     text,
		rate:     orDefault(opts.Rate, DefaultRate),
		pitch:    orDefault(opts.Pitch, DefaultPitch),
		volume:   orDefault(opts.Volume, DefaultVolume),
		emphasis: opts.Emphasis,
		slow:     opts.Slow,
	}
	if req.slow {
		req.rate = SlowRate
	}
	req.rate = clamp(req.rate, minRate, maxRate)
	req.pitch = clamp(req.pitch, 0, maxPitch)
	req.volume = clamp(req.volume, 0, 1)
	return req, nil
}

func (r Request) Text() string { return r.text }
func (r Request) Rate() float64 { return r.rate }
func (r Request) Pitch() float64 { return r.pitch }
func (r Request) Volume() float64 { return r.volume }
func (r Request) Emphasis() bool { return r.emphasis }
func (r Request) Slow() bool { return r.slow }

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
