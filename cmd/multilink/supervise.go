package main

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/multilink-dev/multilink/internal/config"
	"github.com/multilink-dev/multilink/pkg/watchdog"
)

// supervise runs n under the configured watchdog. A stalled loop either
// re-executes the process or ends the run with watchdog.ErrExpired.
func supervise(ctx context.Context, cfg *config.Config, logger *slog.Logger, n *node) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var feed func()
	if timeout := cfg.Watchdog.Timeout.Std(); timeout > 0 {
		wd := watchdog.New(timeout, func() {
			if cfg.Watchdog.Restart {
				restart(logger)
			}
		})
		wd.SetLogger(logger.With("component", "watchdog"))
		feed = wd.Feed

		go func() {
			if err := wd.Run(ctx); stderrors.Is(err, watchdog.ErrExpired) {
				cancel(err)
			}
		}()
	}

	err := n.run(ctx, cfg.Sync.FrameTime.Std(), feed)
	if cause := context.Cause(ctx); stderrors.Is(cause, watchdog.ErrExpired) {
		return cause
	}
	return err
}
