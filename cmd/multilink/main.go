package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/multilink-dev/multilink/internal/config"
	"github.com/multilink-dev/multilink/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┬ ┬┬ ┌┬┐┬┬  ┬┌┐┌┬┌─
  ││││ ││  │ ││  ││││├┴┐
  ┴ ┴└─┘┴─┘┴ ┴┴─┘┴┘└┘┴ ┴
`

func main() {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "multilink",
		Short: "Two-player link transport",
		Long: `Multilink connects two game instances over a link cable.

The cable is a full-duplex word exchange clocked by one end. Multilink
frames events onto it, negotiates a session and keeps the two games'
shared random state in step. The cable can be:

  • simulated in-process (multilink sim)
  • carried over WebSocket (multilink host / multilink join)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.multilink.yaml)")

	rootCmd.AddCommand(
		hostCmd(&cfgFile),
		joinCmd(&cfgFile),
		simCmd(&cfgFile),
		configCmd(&cfgFile),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(errors.FromLink(err))
		os.Exit(1)
	}
}

// setup loads and validates the configuration and installs its logger as
// the default.
func setup(cfgFile string, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := cfg.NewLogger(w)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n  Leaving...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
