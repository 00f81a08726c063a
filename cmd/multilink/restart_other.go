//go:build !unix

package main

import "log/slog"

func restart(logger *slog.Logger) {
	logger.Error("restart is not supported on this platform")
}
