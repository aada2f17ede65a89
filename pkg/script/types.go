// Package script plays YAML-defined sequences of utterances and pauses
// through the speech engine.
package script

import (
	"fmt"
	"time"

	"github.com/wordwise/wordwise/pkg/speech"
)

// Script is a YAML-mappable speech script.
type Script struct {
	Name        string  `yaml:"name"        json:"name"`
	Description string  `yaml:"description" json:"description,omitempty"`
	Rate        float64 `yaml:"rate"        json:"rate,omitempty"`
	Slow        bool    `yaml:"slow"        json:"slow,omitempty"`
	Steps       []Step  `yaml:"steps"       json:"steps"`
}

// Step either speaks Text or waits for Pause.
type Step struct {
	Text     string  `yaml:"text"     json:"text,omitempty"`
	Rate     float64 `yaml:"rate"     json:"rate,omitempty"`
	Pitch    float64 `yaml:"pitch"    json:"pitch,omitempty"`
	Volume   float64 `yaml:"volume"   json:"volume,omitempty"`
	Slow     bool    `yaml:"slow"     json:"slow,omitempty"`
	Emphasis bool    `yaml:"emphasis" json:"emphasis,omitempty"`
	Pause    string  `yaml:"pause"    json:"pause,omitempty"`
}

// IsPause reports whether the step is a pause.
func (st Step) IsPause() bool { return st.Pause != "" }

// PauseDuration parses the pause of a pause step.
func (st Step) PauseDuration() (time.Duration, error) {
	d, err := time.ParseDuration(st.Pause)
	if err != nil {
		return 0, fmt.Errorf("invalid pause %q: %w", st.Pause, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative pause %q", st.Pause)
	}
	return d, nil
}

// StepOptions resolves the speech options of st against the script defaults.
func (s *Script) StepOptions(st Step) speech.Options {
	opts := speech.Options{
		Rate:     st.Rate,
		Pitch:    st.Pitch,
		Volume:   st.Volume,
		Emphasis: st.Emphasis,
		Slow:     st.Slow || s.Slow,
	}
	if opts.Rate == 0 {
		opts.Rate = s.Rate
	}
	return opts
}

// Validate checks the script for structural errors.
func (s *Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("script: name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("script %q: at least one step is required", s.Name)
	}

	for i, st := range s.Steps {
		hasText := st.Text != ""
		switch {
		case hasText && st.IsPause():
			return fmt.Errorf("script %q step %d: text and pause are mutually exclusive", s.Name, i)
		case !hasText && !st.IsPause():
			return fmt.Errorf("script %q step %d: text or pause is required", s.Name, i)
		case st.IsPause():
			if _, err := st.PauseDuration(); err != nil {
				return fmt.Errorf("script %q step %d: %w", s.Name, i, err)
			}
		}
	}
	return nil
}
