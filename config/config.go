package config

import (
	"time"

	"github.com/pitabwire/frame/config"

	"github.com/wordwise/wordwise/pkg/notify"
	"github.com/wordwise/wordwise/pkg/speech"
)

// SpeechServiceConfig holds configuration for the wordwise speech service.
// HTTP port, worker pool sizing, OIDC and the events queue come from frame.
type SpeechServiceConfig struct {
	config.ConfigurationDefault

	// Speech
	SpeechPlatform   string `envDefault:"espeak"    env:"SPEECH_PLATFORM"`
	SpeechBinaryPath string `envDefault:""          env:"SPEECH_BINARY_PATH"`
	VoiceLoadWaitMs  int    `envDefault:"1000"      env:"SPEECH_VOICE_LOAD_WAIT_MS"`
	SpeechWarmUp     bool   `envDefault:"true"      env:"SPEECH_WARM_UP"`
	PollIntervalMs   int    `envDefault:"250"       env:"SPEECH_POLL_INTERVAL_MS"`
	SettleDelayMs    int    `envDefault:"100"       env:"SPEECH_SETTLE_DELAY_MS"`

	// Scripts
	ScriptDir   string `envDefault:"./scripts" env:"SCRIPT_DIR"`
	ScriptWatch bool   `envDefault:"true"      env:"SCRIPT_WATCH"`

	// Events
	EventJournalSize int `envDefault:"100" env:"EVENT_JOURNAL_SIZE"`

	// Event listeners
	ListenersEnabled    bool   `envDefault:"true"   env:"LISTENERS_ENABLED"`
	ListenerStore       string `envDefault:"memory" env:"LISTENER_STORE"` // "memory" or "database"
	ListenerMaxAttempts int    `envDefault:"5"      env:"LISTENER_MAX_ATTEMPTS"`
	ListenerTimeoutSec  int    `envDefault:"10"     env:"LISTENER_TIMEOUT_SEC"`
	ListenerBackoffSec  int    `envDefault:"1"      env:"LISTENER_BACKOFF_INITIAL_SEC"`
	ListenerBackoffMax  int    `envDefault:"300"    env:"LISTENER_BACKOFF_MAX_SEC"`
	CBFailThreshold     int    `envDefault:"5"      env:"CB_FAILURE_THRESHOLD"`
	CBResetTimeoutSec   int    `envDefault:"60"     env:"CB_RESET_TIMEOUT_SEC"`
}

// UseDatabase reports whether listeners are kept in the service datastore.
func (c *SpeechServiceConfig) UseDatabase() bool {
	return c.ListenersEnabled && c.ListenerStore == "database"
}

// DelivererConfig builds the listener delivery settings.
func (c *SpeechServiceConfig) DelivererConfig() notify.DelivererConfig {
	return notify.DelivererConfig{
		MaxAttempts:     c.ListenerMaxAttempts,
		Timeout:         time.Duration(c.ListenerTimeoutSec) * time.Second,
		Backoff:         time.Duration(c.ListenerBackoffSec) * time.Second,
		MaxBackoff:      time.Duration(c.ListenerBackoffMax) * time.Second,
		BreakerFailures: c.CBFailThreshold,
		BreakerReset:    time.Duration(c.CBResetTimeoutSec) * time.Second,
	}
}

// EngineConfig builds the speech engine timings from the settings. The
// speech timeout is fixed at the engine default.
func (c *SpeechServiceConfig) EngineConfig() speech.Config {
	ec := speech.DefaultConfig()
	ec.PollInterval = time.Duration(c.PollIntervalMs) * time.Millisecond
	ec.SettleDelay = time.Duration(c.SettleDelayMs) * time.Millisecond
	ec.VoiceLoadWait = time.Duration(c.VoiceLoadWaitMs) * time.Millisecond
	ec.WarmUp = c.SpeechWarmUp
	return ec
}

// PlatformConfig is the factory config handed to the platform registry.
func (c *SpeechServiceConfig) PlatformConfig() map[string]string {
	return map[string]string{
		"binary_path": c.SpeechBinaryPath,
	}
}
