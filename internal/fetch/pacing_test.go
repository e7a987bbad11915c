package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayWindow(t *testing.T) {
	p := NewPacer(5*time.Second, 3*time.Second, 30*time.Second)
	for range 50 {
		d := p.Delay(0)
		if d < 5*time.Second || d > 8*time.Second {
			t.Fatalf("delay %v outside [5s, 8s]", d)
		}
	}
	for range 50 {
		d := p.Delay(4)
		if d < 9*time.Second || d > 12*time.Second {
			t.Fatalf("delay %v outside [9s, 12s] for 4 failures", d)
		}
	}
}

func TestDelayCapped(t *testing.T) {
	p := NewPacer(5*time.Second, 3*time.Second, 30*time.Second)
	for range 50 {
		if d := p.Delay(100); d > 30*time.Second {
			t.Fatalf("delay %v exceeds cap", d)
		}
	}
}

func TestDelayNegativeFailures(t *testing.T) {
	p := NewPacer(time.Second, time.Second, 30*time.Second)
	if d := p.Delay(-3); d < time.Second || d > 2*time.Second {
		t.Fatalf("delay %v outside base window", d)
	}
}

func TestPauseCancellation(t *testing.T) {
	p := NewPacer(time.Hour, 0, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Pause(ctx, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pause returned %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Pause did not return promptly on cancellation")
	}
}

func TestPauseZeroDelay(t *testing.T) {
	p := NewPacer(0, 0, time.Second)
	if err := p.Pause(context.Background(), 0); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}
}
