package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned when the host has no speech synthesis.
	ErrUnsupportedPlatform = errors.New("speech synthesis is not supported on this platform")

	// ErrNoVoiceAvailable is returned when the voice list is empty.
	ErrNoVoiceAvailable = errors.New("no speech voice available")

	// ErrSpeechTimeout is returned when the platform never reported an end
	// to the utterance. Callers usually suggest another platform or voice.
	ErrSpeechTimeout = errors.New("speech did not finish in time")

	// ErrEmptyText is returned when the text is blank after trimming.
	ErrEmptyText = errors.New("text to speak is empty")
)

// SpeechError is a platform-reported failure other than a benign cancel.
type SpeechError struct {
	Code string
	Err  error
}

func (e *SpeechError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("speech synthesis error %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("speech synthesis error: %s", e.Code)
}

func (e *SpeechError) Unwrap() error { return e.Err }
