package breaker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stillsync/internal/logging"
)

// Breaker counts consecutive download failures and, once the threshold is
// reached, holds callers in a cooldown. The cooldown is slept in poll-sized
// increments so cancellation is honored promptly.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	poll      time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	failures int
}

// New creates a Breaker. A nil logger disables logging.
func New(threshold int, cooldown, poll time.Duration, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if threshold < 1 {
		threshold = 1
	}
	if poll <= 0 {
		poll = time.Second
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		poll:      poll,
		logger:    logging.NewComponentLogger(logger, "breaker"),
	}
}

// RecordFailure counts one failed download.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
}

// RecordSuccess resets the consecutive-failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Failures returns the current consecutive-failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Wait blocks while the breaker is open. It returns nil immediately when the
// failure count is below the threshold. When open it sleeps out the full
// cooldown in poll increments, then resets the counter. Cancellation
// abandons the wait without resetting, so a resumed run cools down again.
func (b *Breaker) Wait(ctx context.Context) error {
	b.mu.Lock()
	open := b.failures >= b.threshold
	failures := b.failures
	b.mu.Unlock()
	if !open {
		return nil
	}

	b.logger.Warn("too many consecutive failures, cooling down",
		logging.Int("failures", failures),
		logging.Duration("cooldown", b.cooldown))

	deadline := time.Now().Add(b.cooldown)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		interval := b.poll
		if remaining < interval {
			interval = remaining
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
	b.logger.Info("cooldown complete, resuming")
	return nil
}
