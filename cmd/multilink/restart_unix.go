//go:build unix

package main

import (
	"log/slog"
	"os"
	"syscall"
)

// restart replaces the process with a fresh copy of itself. It returns
// only on failure.
func restart(logger *slog.Logger) {
	exe, err := os.Executable()
	if err != nil {
		logger.Error("restart failed", "error", err)
		return
	}
	logger.Warn("restarting", "exe", exe)
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		logger.Error("restart failed", "error", err)
	}
}
