package speech

// Platform error codes reported through Utterance.Failed. The vocabulary
// follows the Web Speech API so browser-backed platforms can pass codes through.
const (
	CodeCanceled             = "canceled"
	CodeInterrupted          = "interrupted"
	CodeAudioBusy            = "audio-busy"
	CodeAudioHardware        = "audio-hardware"
	CodeNetwork              = "network"
	CodeSynthesisUnavailable = "synthesis-unavailable"
	CodeSynthesisFailed      = "synthesis-failed"
	CodeLanguageUnavailable  = "language-unavailable"
	CodeVoiceUnavailable     = "voice-unavailable"
	CodeTextTooLong          = "text-too-long"
	CodeInvalidArgument      = "invalid-argument"
	CodeNotAllowed           = "not-allowed"
)

// IsBenignCode reports whether a platform error code means the utterance was
// cut short by a cancel rather than failing.
func IsBenignCode(code string) bool {
	return code == CodeCanceled || code == CodeInterrupted
}

// Platform is the host speech subsystem. Implementations must be safe for
// concurrent use; utterance callbacks may be delivered on any goroutine.
type Platform interface {
	// Available reports whether the host exposes speech synthesis at all.
	Available() bool

	// Voices returns the voices the host currently knows about. The list may
	// be empty until the host fires its voices-changed signal.
	Voices() []Voice

	// VoicesChanged returns a channel that receives (or is closed) when the
	// voice list changes. A nil channel means the host never signals.
	VoicesChanged() <-chan struct{}

	// Speak queues an utterance without waiting for playback. Progress is
	// reported through u.Started, u.Ended and u.Failed.
	Speak(u *Utterance) error

	Cancel()
	Pause()
	Resume()

	Speaking() bool
	Pending() bool
	Paused() bool
}

// UtteranceEvent is a progress signal raised by a Platform.
type UtteranceEvent int

const (
	UtteranceStarted UtteranceEvent = iota + 1
	UtteranceEnded
	UtteranceFailed
)

// Utterance is a single submission to a Platform.
type Utterance struct {
	ID     string
	Text   string
	Voice  Voice
	Rate   float64
	Pitch  float64
	Volume float64

	notify func(ev UtteranceEvent, code string)
}

// Started is called by the platform when audio begins.
func (u *Utterance) Started() { u.emit(UtteranceStarted, "") }

// Ended is called by the platform when audio finished naturally.
func (u *Utterance) Ended() { u.emit(UtteranceEnded, "") }

// Failed is called by the platform with an error code, including the benign
// canceled and interrupted codes.
func (u *Utterance) Failed(code string) { u.emit(UtteranceFailed, code) }

func (u *Utterance) emit(ev UtteranceEvent, code string) {
	if u == nil || u.notify == nil {
		return
	}
	u.notify(ev, code)
}
