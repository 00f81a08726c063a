// Package watchdog detects a stalled update loop.
//
// The loop calls Feed once per frame. If no feed arrives within the
// timeout, the watchdog calls its expiry function once and stops. The
// multilink command uses it to re-execute itself, which is the closest a
// hosted process gets to a hardware watchdog reset.
package watchdog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrExpired is returned by Run after the expiry function has run.
var ErrExpired = errors.New("watchdog: update loop stalled")

// Watchdog calls an expiry function when it is not fed in time.
type Watchdog struct {
	timeout  time.Duration
	interval time.Duration
	onExpire func()
	logger   *slog.Logger

	lastFed atomic.Int64
	expired atomic.Bool
}

// New creates a watchdog. It is armed by Run; the first feed is implied.
func New(timeout time.Duration, onExpire func()) *Watchdog {
	interval := timeout / 4
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Watchdog{
		timeout:  timeout,
		interval: interval,
		onExpire: onExpire,
		logger:   slog.Default().With("component", "watchdog"),
	}
}

// SetLogger replaces the watchdog's logger.
func (w *Watchdog) SetLogger(l *slog.Logger) {
	w.logger = l
}

// Feed records that the loop is alive. It is safe to call from any
// goroutine.
func (w *Watchdog) Feed() {
	w.lastFed.Store(time.Now().UnixNano())
}

// Run checks the feed every quarter timeout until ctx is done or the
// watchdog expires.
func (w *Watchdog) Run(ctx context.Context) error {
	w.Feed()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			idle := time.Since(time.Unix(0, w.lastFed.Load()))
			if idle <= w.timeout {
				continue
			}
			w.expired.Store(true)
			w.logger.Error("update loop stalled", "idle", idle, "timeout", w.timeout)
			if w.onExpire != nil {
				w.onExpire()
			}
			return ErrExpired
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Expired reports whether the watchdog has fired.
func (w *Watchdog) Expired() bool {
	return w.expired.Load()
}
