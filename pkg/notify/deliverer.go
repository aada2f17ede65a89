package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/wordwise/wordwise/pkg/events"
	"github.com/wordwise/wordwise/pkg/urlvalidation"
)

// DelivererConfig holds delivery settings. Zero values take defaults.
type DelivererConfig struct {
	MaxAttempts     int
	Timeout         time.Duration
	Backoff         time.Duration
	MaxBackoff      time.Duration
	BreakerFailures int
	BreakerReset    time.Duration
}

func (c DelivererConfig) withDefaults() DelivererConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	if c.MaxBackoff < c.Backoff {
		c.MaxBackoff = 5 * time.Minute
	}
	return c
}

// Deliverer posts signed event envelopes to listeners.
type Deliverer struct {
	store        Store
	client       *http.Client
	cfg          DelivererConfig
	pool         workerpool.WorkerPool
	validateOpts []urlvalidation.Option
	breakers     *breakers
}

// NewDeliverer creates a deliverer recording attempts in store. Retries run on
// pool, or on their own goroutines when pool is nil.
func NewDeliverer(store Store, cfg DelivererConfig, pool workerpool.WorkerPool, validateOpts ...urlvalidation.Option) *Deliverer {
	cfg = cfg.withDefaults()
	return &Deliverer{
		store: store,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:          cfg,
		pool:         pool,
		validateOpts: validateOpts,
		breakers:     newBreakers(cfg.BreakerFailures, cfg.BreakerReset),
	}
}

// BreakerState reports the circuit state for a listener.
func (d *Deliverer) BreakerState(listenerID string) string {
	return d.breakers.state(listenerID)
}

// Forget drops the circuit state of a removed listener.
func (d *Deliverer) Forget(listenerID string) {
	d.breakers.forget(listenerID)
}

// Enqueue schedules delivery of env to l in the background. The delivery
// outlives the request or message that triggered it.
func (d *Deliverer) Enqueue(ctx context.Context, l Listener, env events.Envelope) error {
	ctx = context.WithoutCancel(ctx)
	return d.submit(ctx, func() { d.Deliver(ctx, l, env) })
}

// Deliver posts env to l and blocks for the first attempt. Failures are
// retried in the background with exponential backoff; after MaxAttempts the
// event is dead-lettered.
func (d *Deliverer) Deliver(ctx context.Context, l Listener, env events.Envelope) {
	d.attempt(ctx, l, env, 1)
}

func (d *Deliverer) submit(ctx context.Context, job func()) error {
	if d.pool == nil {
		go job()
		return nil
	}
	return d.pool.Submit(ctx, job)
}

func (d *Deliverer) attempt(ctx context.Context, l Listener, env events.Envelope, n int) {
	if err := urlvalidation.ValidateCallbackURL(ctx, l.URL, d.validateOpts...); err != nil {
		slog.ErrorContext(ctx, "listener URL rejected",
			slog.String("listener_id", l.ID),
			slog.String("url", l.URL),
			slog.String("error", err.Error()))
		d.bury(ctx, l, env, n, err.Error())
		return
	}

	body, err := json.Marshal(env)
	if err != nil {
		d.bury(ctx, l, env, n, fmt.Sprintf("marshal: %v", err))
		return
	}

	start := time.Now()
	code, err := d.breakers.get(l.ID).Execute(func() (int, error) {
		return d.post(ctx, l, env, body)
	})

	rec := &Delivery{
		ListenerID: l.ID,
		EventID:    env.ID,
		EventType:  string(env.Type),
		Attempt:    n,
		StatusCode: code,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err == nil {
		rec.Status = StatusDelivered
		d.record(ctx, rec)
		return
	}

	rec.Status = StatusFailed
	rec.Error = err.Error()
	d.record(ctx, rec)
	d.retry(ctx, l, env, n, rec.Error)
}

func (d *Deliverer) post(ctx context.Context, l Listener, env events.Envelope, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	now := time.Now()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(l.Secret, now, body))
	req.Header.Set(TimestampHeader, fmt.Sprintf("%d", now.Unix()))
	req.Header.Set(EventHeader, string(env.Type))
	req.Header.Set(DeliveryHeader, env.ID)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain for connection reuse.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (d *Deliverer) retry(ctx context.Context, l Listener, env events.Envelope, n int, lastErr string) {
	if n >= d.cfg.MaxAttempts {
		d.bury(ctx, l, env, n, lastErr)
		return
	}

	wait := d.backoff(n)
	job := func() {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			d.attempt(ctx, l, env, n+1)
		}
	}
	if err := d.submit(ctx, job); err != nil {
		slog.WarnContext(ctx, "listener retry dropped",
			slog.String("listener_id", l.ID),
			slog.Int("attempt", n),
			slog.String("error", err.Error()))
		d.bury(ctx, l, env, n, lastErr)
	}
}

// backoff returns the wait after attempt n: Backoff doubled per attempt,
// capped at MaxBackoff.
func (d *Deliverer) backoff(n int) time.Duration {
	wait := d.cfg.Backoff
	for i := 1; i < n && wait < d.cfg.MaxBackoff; i++ {
		wait *= 2
	}
	return min(wait, d.cfg.MaxBackoff)
}

func (d *Deliverer) bury(ctx context.Context, l Listener, env events.Envelope, attempts int, lastErr string) {
	payload, _ := json.Marshal(env)
	err := d.store.CreateDeadLetter(ctx, &DeadLetter{
		ListenerID: l.ID,
		EventID:    env.ID,
		EventType:  string(env.Type),
		Payload:    string(payload),
		LastError:  lastErr,
		Attempts:   attempts,
		Replayable: true,
	})
	if err != nil {
		slog.ErrorContext(ctx, "create dead letter failed", slog.String("error", err.Error()))
	}
}

func (d *Deliverer) record(ctx context.Context, rec *Delivery) {
	if err := d.store.RecordDelivery(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "record delivery failed", slog.String("error", err.Error()))
	}
}
