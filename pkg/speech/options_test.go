package speech_test

import (
	"errors"
	"testing"

	"github.com/wordwise/wordwise/pkg/speech"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		opts   speech.Options
		rate   float64
		pitch  float64
		volume float64
	}{
		{"defaults", "  hello  ", speech.Options{}, 0.85, 1.0, 1.0},
		{"explicit", "hello", speech.Options{Rate: 1.2, Pitch: 1.5, Volume: 0.5}, 1.2, 1.5, 0.5},
		{"slow overrides rate", "hello", speech.Options{Rate: 1.2, Slow: true}, 0.65, 1.0, 1.0},
		{"clamped", "hello", speech.Options{Rate: 50, Pitch: 9, Volume: 3}, 10, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := speech.NewRequest(tt.text, tt.opts)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			if req.Text() != "hello" {
				t.Errorf("text = %q", req.Text())
			}
			if req.Rate() != tt.rate || req.Pitch() != tt.pitch || req.Volume() != tt.volume {
				t.Errorf("got rate=%v pitch=%v volume=%v, want %v %v %v",
					req.Rate(), req.Pitch(), req.Volume(), tt.rate, tt.pitch, tt.volume)
			}
		})
	}
}

func TestNewRequestEmptyText(t *testing.T) {
	if _, err := speech.NewRequest(" \t ", speech.Options{}); !errors.Is(err, speech.ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}
