package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// recordSleeps replaces the sleeper so tests run instantly.
func recordSleeps(b *Backoff) *[]time.Duration {
	var waits []time.Duration
	b.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestBackoff_FirstAttemptImmediate(t *testing.T) {
	b := DefaultBackoff()
	waits := recordSleeps(b)

	err := b.Do(context.Background(), func(attempt int) error {
		if attempt != 1 {
			t.Errorf("expected attempt 1, got %d", attempt)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*waits) != 0 {
		t.Errorf("expected no sleeps, got %v", *waits)
	}
}

func TestBackoff_SuccessAfterRetries(t *testing.T) {
	b := &Backoff{
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   1.5,
		MaxAttempts:  10,
	}
	calls := 0

	err := b.Do(context.Background(), func(attempt int) error {
		calls++
		if attempt < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_DelayGrowthCapped(t *testing.T) {
	b := &Backoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     300 * time.Millisecond,
		Multiplier:   2,
		MaxAttempts:  5,
	}
	waits := recordSleeps(b)

	_ = b.Do(context.Background(), func(_ int) error { return errors.New("down") })

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	if len(*waits) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), *waits)
	}
	for i, d := range want {
		if (*waits)[i] != d {
			t.Errorf("sleep %d: expected %v, got %v", i, d, (*waits)[i])
		}
	}
}

func TestBackoff_MaxAttempts(t *testing.T) {
	b := &Backoff{MaxAttempts: 3}
	recordSleeps(b)
	cause := errors.New("connection refused")
	calls := 0

	err := b.Do(context.Background(), func(_ int) error {
		calls++
		return cause
	})

	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected last error to be wrapped, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestBackoff_ContextCancelled(t *testing.T) {
	b := &Backoff{InitialDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- b.Do(ctx, func(_ int) error {
			calls++
			return errors.New("down")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBackoff_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultBackoff().Do(ctx, func(_ int) error {
		t.Fatal("fn should not run")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAddJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 1000; i++ {
		d := addJitter(base)
		if d < 75*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", d)
		}
	}
}
