package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer spaces out downloads. Each delay is drawn uniformly from a window
// that widens by one second per current consecutive failure, so a struggling
// host automatically gets more breathing room.
type Pacer struct {
	base   time.Duration
	spread time.Duration
	cap    time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

// NewPacer creates a Pacer. base is the floor of the delay window, spread
// its width, cap the absolute ceiling.
func NewPacer(base, spread, cap time.Duration) *Pacer {
	if cap <= 0 {
		cap = 30 * time.Second
	}
	return &Pacer{
		base:   base,
		spread: spread,
		cap:    cap,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay computes the jittered pause for the given consecutive-failure count.
func (p *Pacer) Delay(failures int) time.Duration {
	if failures < 0 {
		failures = 0
	}
	lower := p.base + time.Duration(failures)*time.Second
	upper := lower + p.spread
	if upper > p.cap {
		upper = p.cap
	}
	if lower > upper {
		lower = upper
	}
	if upper <= 0 {
		return 0
	}
	if upper == lower {
		return lower
	}
	p.mu.Lock()
	jitter := time.Duration(p.rand.Int63n(int64(upper - lower)))
	p.mu.Unlock()
	return lower + jitter
}

// Pause sleeps for a jittered delay, returning early on cancellation.
func (p *Pacer) Pause(ctx context.Context, failures int) error {
	delay := p.Delay(failures)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
