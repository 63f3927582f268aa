package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// LimiterConfig tunes a RateLimiter.
type LimiterConfig struct {
	MinInterval time.Duration // minimum delay between two calls
	PerMinute   int           // sliding one-minute window cap
	Cooldown    time.Duration // how long the circuit stays open after a 429
	BackoffBase time.Duration
	BackoffMax  time.Duration
	RetryBudget time.Duration // total backoff Retry may spend; 0 means no cap
}

// DefaultLimiterConfig guards the marketplace API.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		MinInterval: 1200 * time.Millisecond,
		PerMinute:   10,
		Cooldown:    5 * time.Minute,
		BackoffBase: time.Second,
		BackoffMax:  8 * time.Second,
		RetryBudget: 4 * time.Second,
	}
}

// Deny reasons passed to the deny hook.
const (
	DenyCircuitOpen = "circuit_open"
	DenyWindowFull  = "window_full"
	DenyTrialBusy   = "trial_in_flight"
	DenyCancelled   = "cancelled"
)

// LimiterOption customizes a RateLimiter.
type LimiterOption func(*RateLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LimiterOption {
	return func(l *RateLimiter) { l.now = now }
}

// WithSleep replaces the context-aware sleep used for the inter-call delay
// and for Backoff.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) LimiterOption {
	return func(l *RateLimiter) { l.sleep = sleep }
}

// WithDenyHook is called (outside the lock) every time Acquire says no.
func WithDenyHook(fn func(resource, reason string)) LimiterOption {
	return func(l *RateLimiter) { l.onDeny = fn }
}

// RateLimiter protects one external resource. Create one per resource and
// share it between every caller of that resource.
type RateLimiter struct {
	name string
	cfg  LimiterConfig

	mu       sync.Mutex
	calls    []time.Time
	interval *rate.Limiter
	breaker  *gobreaker.TwoStepCircuitBreaker
	trial    bool

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	onDeny func(resource, reason string)
}

// NewRateLimiter builds a limiter. The circuit opens on the first reported
// rate-limit failure and half-opens after cfg.Cooldown for one trial call.
func NewRateLimiter(name string, cfg LimiterConfig, opts ...LimiterOption) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = DefaultLimiterConfig().PerMinute
	}
	l := &RateLimiter{
		name:  name,
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepCtx,
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	l.interval = rate.NewLimiter(limit, 1)
	l.breaker = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the guarded resource name.
func (l *RateLimiter) Name() string { return l.name }

// State returns the circuit state ("closed", "half-open", "open").
func (l *RateLimiter) State() string { return l.breaker.State().String() }

// Acquire reports whether the caller may call the resource now. It waits out
// the minimum inter-call delay but never waits for the per-minute window or
// for an open circuit: those deny immediately.
func (l *RateLimiter) Acquire(ctx context.Context) bool {
	l.mu.Lock()
	now := l.now()

	state := l.breaker.State()
	if state == gobreaker.StateOpen {
		l.mu.Unlock()
		l.deny(DenyCircuitOpen)
		return false
	}
	halfOpen := state == gobreaker.StateHalfOpen
	if halfOpen && l.trial {
		l.mu.Unlock()
		l.deny(DenyTrialBusy)
		return false
	}

	l.prune(now)
	if len(l.calls) >= l.cfg.PerMinute {
		l.mu.Unlock()
		l.deny(DenyWindowFull)
		return false
	}
	if halfOpen {
		l.trial = true
	}

	res := l.interval.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	slot := now.Add(wait)
	l.calls = append(l.calls, slot)
	l.mu.Unlock()

	if wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			l.mu.Lock()
			res.CancelAt(now)
			l.forget(slot)
			if halfOpen {
				l.trial = false
			}
			l.mu.Unlock()
			l.deny(DenyCancelled)
			return false
		}
	}
	return true
}

// RecordFailure opens the circuit when status signals rate limiting.
func (l *RateLimiter) RecordFailure(status int) {
	if status != 429 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trial = false
	if done, err := l.breaker.Allow(); err == nil {
		done(false)
	}
}

// RecordSuccess closes a half-open circuit.
func (l *RateLimiter) RecordSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trial = false
	if done, err := l.breaker.Allow(); err == nil {
		done(true)
	}
}

// Backoff suspends the caller for BackoffBase * 2^attempt, capped at BackoffMax.
func (l *RateLimiter) Backoff(ctx context.Context, attempt int) error {
	return l.sleep(ctx, BackoffDelay(l.cfg.BackoffBase, l.cfg.BackoffMax, attempt))
}

// Retry runs fn at most maxRetries+1 times, waiting Backoff(attempt) between
// attempts. No jitter: the waits are exactly 1s, 2s, 4s... and Retry gives up
// with the last error when the next wait would push the total past
// RetryBudget. Permanent errors and context cancellation end it at once.
func (l *RateLimiter) Retry(ctx context.Context, maxRetries int, fn func() error) error {
	var (
		lastErr error
		waited  time.Duration
	)
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil || IsPermanent(lastErr) || attempt == maxRetries {
			return lastErr
		}

		d := BackoffDelay(l.cfg.BackoffBase, l.cfg.BackoffMax, attempt)
		if l.cfg.RetryBudget > 0 && waited+d > l.cfg.RetryBudget {
			return lastErr
		}
		if d > 0 {
			if err := l.Backoff(ctx, attempt); err != nil {
				return err
			}
		}
		waited += d
	}
	return lastErr
}

// prune drops calls older than one minute. Caller holds mu.
func (l *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	l.calls = l.calls[i:]
}

// forget removes one recorded slot. Caller holds mu.
func (l *RateLimiter) forget(slot time.Time) {
	for i, c := range l.calls {
		if c.Equal(slot) {
			l.calls = append(l.calls[:i], l.calls[i+1:]...)
			return
		}
	}
}

func (l *RateLimiter) deny(reason string) {
	if l.onDeny != nil {
		l.onDeny(l.name, reason)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
