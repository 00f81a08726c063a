package watchdog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func newQuiet(timeout time.Duration, fn func()) *Watchdog {
	w := New(timeout, fn)
	w.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return w
}

func TestExpiresWhenNotFed(t *testing.T) {
	var calls atomic.Int32
	w := newQuiet(20*time.Millisecond, func() { calls.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := w.Run(ctx); !errors.Is(err, ErrExpired) {
		t.Fatalf("Run() error = %v, want %v", err, ErrExpired)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expiry called %d times, want 1", got)
	}
	if !w.Expired() {
		t.Error("Expired() = false")
	}
}

func TestFeedKeepsAlive(t *testing.T) {
	w := newQuiet(50*time.Millisecond, func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.Feed()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := w.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want %v", err, context.DeadlineExceeded)
	}
	if w.Expired() {
		t.Error("fed watchdog expired")
	}
}
