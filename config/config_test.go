package config

import (
	"testing"
	"time"
)

func TestEngineConfig(t *testing.T) {
	cfg := SpeechServiceConfig{
		VoiceLoadWaitMs: 1000,
		SpeechWarmUp:    true,
		PollIntervalMs:  250,
		SettleDelayMs:   100,
	}

	ec := cfg.EngineConfig()
	if ec.Timeout != 120*time.Second {
		t.Errorf("timeout = %v", ec.Timeout)
	}
	if ec.PollInterval != 250*time.Millisecond || ec.SettleDelay != 100*time.Millisecond {
		t.Errorf("poll = %v settle = %v", ec.PollInterval, ec.SettleDelay)
	}
	if ec.VoiceLoadWait != time.Second || !ec.WarmUp {
		t.Errorf("voice wait = %v warm up = %v", ec.VoiceLoadWait, ec.WarmUp)
	}
}

func TestPlatformConfig(t *testing.T) {
	cfg := SpeechServiceConfig{SpeechBinaryPath: "/usr/bin/espeak-ng"}
	if got := cfg.PlatformConfig()["binary_path"]; got != "/usr/bin/espeak-ng" {
		t.Errorf("binary_path = %q", got)
	}
}

func TestDelivererConfig(t *testing.T) {
	cfg := SpeechServiceConfig{
		ListenerMaxAttempts: 5,
		ListenerTimeoutSec:  10,
		ListenerBackoffSec:  1,
		ListenerBackoffMax:  300,
		CBFailThreshold:     5,
		CBResetTimeoutSec:   60,
	}

	dc := cfg.DelivererConfig()
	if dc.MaxAttempts != 5 || dc.BreakerFailures != 5 {
		t.Errorf("attempts = %d breaker failures = %d", dc.MaxAttempts, dc.BreakerFailures)
	}
	if dc.Timeout != 10*time.Second || dc.Backoff != time.Second || dc.MaxBackoff != 5*time.Minute {
		t.Errorf("timeout = %v backoff = %v max = %v", dc.Timeout, dc.Backoff, dc.MaxBackoff)
	}
	if dc.BreakerReset != time.Minute {
		t.Errorf("breaker reset = %v", dc.BreakerReset)
	}
}

func TestUseDatabase(t *testing.T) {
	tests := []struct {
		enabled bool
		store   string
		want    bool
	}{
		{true, "database", true},
		{true, "memory", false},
		{false, "database", false},
	}
	for _, tt := range tests {
		cfg := SpeechServiceConfig{ListenersEnabled: tt.enabled, ListenerStore: tt.store}
		if got := cfg.UseDatabase(); got != tt.want {
			t.Errorf("UseDatabase(enabled=%v, store=%q) = %v, want %v", tt.enabled, tt.store, got, tt.want)
		}
	}
}
