// Package none is a platform without speech synthesis, for hosts where no
// synthesizer is installed.
package none

import (
	"github.com/wordwise/wordwise/internal/speech/registry"
	"github.com/wordwise/wordwise/pkg/speech"
)

func init() {
	registry.Platforms.Register("none", func(map[string]string) (speech.Platform, error) {
		return Platform{}, nil
	})
}

// Platform reports itself unavailable and ignores every call.
type Platform struct{}

func (Platform) Available() bool { return false }
func (Platform) Voices() []speech.Voice { return nil }
func (Platform) VoicesChanged() <-chan struct{} { return nil }
func (Platform) Speak(*speech.Utterance) error { return speech.ErrUnsupportedPlatform }
func (Platform) Cancel() {}
func (Platform) Pause() {}
func (Platform) Resume() {}
func (Platform) Speaking() bool { return false }
func (Platform) Pending() bool { return false }
func (Platform) Paused() bool { return false }
