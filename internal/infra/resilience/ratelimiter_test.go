package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return nil
}

func newTestLimiter(clock *fakeClock, sleeps *sleepRecorder, cooldown time.Duration, denied *[]string) *resilience.RateLimiter {
	cfg := resilience.DefaultLimiterConfig()
	cfg.Cooldown = cooldown
	return resilience.NewRateLimiter("marketplace", cfg,
		resilience.WithClock(clock.Now),
		resilience.WithSleep(sleeps.Sleep),
		resilience.WithDenyHook(func(_, reason string) {
			if denied != nil {
				*denied = append(*denied, reason)
			}
		}),
	)
}

func TestRateLimiter_EleventhCallInAMinuteIsDeniedWithoutDelay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sleeps := &sleepRecorder{}
	var denied []string
	rl := newTestLimiter(clock, sleeps, 5*time.Minute, &denied)

	for i := 0; i < 10; i++ {
		require.True(t, rl.Acquire(context.Background()), "call %d should be allowed", i+1)
		clock.Advance(1300 * time.Millisecond)
	}
	assert.Empty(t, sleeps.calls, "1.3s spacing is above the minimum interval")

	start := time.Now()
	assert.False(t, rl.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Empty(t, sleeps.calls)
	assert.Equal(t, []string{resilience.DenyWindowFull}, denied)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := newTestLimiter(clock, &sleepRecorder{}, 5*time.Minute, nil)

	for i := 0; i < 10; i++ {
		require.True(t, rl.Acquire(context.Background()))
		clock.Advance(2 * time.Second)
	}
	require.False(t, rl.Acquire(context.Background()))

	// first call was at t0; at t0+61s it has left the window
	clock.Advance(41 * time.Second)
	assert.True(t, rl.Acquire(context.Background()))
}

func TestRateLimiter_EnforcesMinimumInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	sleeps := &sleepRecorder{}
	rl := newTestLimiter(clock, sleeps, 5*time.Minute, nil)

	require.True(t, rl.Acquire(context.Background()))
	require.True(t, rl.Acquire(context.Background()))

	require.Len(t, sleeps.calls, 1)
	assert.InDelta(t, float64(1200*time.Millisecond), float64(sleeps.calls[0]), float64(time.Millisecond))
}

func TestRateLimiter_RateLimitSignalOpensCircuit(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	var denied []string
	rl := newTestLimiter(clock, &sleepRecorder{}, 40*time.Millisecond, &denied)

	require.True(t, rl.Acquire(context.Background()))
	rl.RecordFailure(500)
	assert.Equal(t, "closed", rl.State(), "only 429 opens the circuit")

	rl.RecordFailure(429)
	assert.Equal(t, "open", rl.State())
	clock.Advance(2 * time.Second)
	assert.False(t, rl.Acquire(context.Background()))
	assert.Contains(t, denied, resilience.DenyCircuitOpen)

	// the breaker's cooldown runs on wall-clock time
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, "half-open", rl.State())

	require.True(t, rl.Acquire(context.Background()), "one trial call after cooldown")
	clock.Advance(2 * time.Second)
	assert.False(t, rl.Acquire(context.Background()), "second caller waits for the trial outcome")

	rl.RecordSuccess()
	assert.Equal(t, "closed", rl.State())
	clock.Advance(2 * time.Second)
	assert.True(t, rl.Acquire(context.Background()))
}

func TestRateLimiter_Backoff(t *testing.T) {
	sleeps := &sleepRecorder{}
	rl := newTestLimiter(&fakeClock{now: time.Now()}, sleeps, time.Minute, nil)

	for attempt := 0; attempt < 5; attempt++ {
		require.NoError(t, rl.Backoff(context.Background(), attempt))
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second,
	}, sleeps.calls)
}

func TestRateLimiter_RetryStaysWithinBudget(t *testing.T) {
	sleeps := &sleepRecorder{}
	rl := newTestLimiter(&fakeClock{now: time.Now()}, sleeps, time.Minute, nil)

	calls := 0
	err := rl.Retry(context.Background(), 5, func() error {
		calls++
		return errors.New("upstream 503")
	})

	require.Error(t, err)
	// 1s + 2s fit in the 4s budget, a further 4s would not
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.calls)
}

func TestRateLimiter_RetryStopsOnPermanentError(t *testing.T) {
	sleeps := &sleepRecorder{}
	rl := newTestLimiter(&fakeClock{now: time.Now()}, sleeps, time.Minute, nil)

	calls := 0
	err := rl.Retry(context.Background(), 2, func() error {
		calls++
		return resilience.Permanent(errors.New("bad request"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps.calls)
}

func TestRateLimiter_RetrySucceedsAfterFailure(t *testing.T) {
	sleeps := &sleepRecorder{}
	rl := newTestLimiter(&fakeClock{now: time.Now()}, sleeps, time.Minute, nil)

	calls := 0
	err := rl.Retry(context.Background(), 2, func() error {
		calls++
		if calls == 1 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{time.Second}, sleeps.calls)
}

func TestRateLimiter_IsolatedInstances(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestLimiter(clock, &sleepRecorder{}, time.Minute, nil)
	b := newTestLimiter(clock, &sleepRecorder{}, time.Minute, nil)

	a.RecordFailure(429)
	assert.False(t, a.Acquire(context.Background()))
	assert.True(t, b.Acquire(context.Background()))
}
