package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/multilink-dev/multilink/internal/errors"
	"github.com/multilink-dev/multilink/pkg/hal/wsport"
)

func joinCmd(cfgFile *string) *cobra.Command {
	var (
		metricsListen string
		levelEvery    time.Duration
		output        string
	)

	cmd := &cobra.Command{
		Use:   "join [url]",
		Short: "Join a host's session",
		Long: `Join dials a host's link endpoint and runs one session. It exits
when either side leaves or the link fails.

The URL defaults to net.peer from the config file.`,
		Example: `  multilink join ws://192.168.1.20:7420/link
  multilink join --metrics :9100`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, logger, err := setup(*cfgFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			url := cfg.Net.Peer
			if len(args) > 0 {
				url = args[0]
			}
			if url == "" {
				return errors.New("L203").
					WithField("key", "net.peer").
					WithDetail("No host URL was given.").
					WithSuggestion("Pass the URL, e.g. multilink join ws://host:7420/link")
			}

			ctx, cancel := signalContext()
			defer cancel()

			slave := wsport.NewSlave()
			slave.SetLogger(logger.With("component", "wsport"))

			var registry *prometheus.Registry
			if metricsListen != "" {
				registry = prometheus.NewRegistry()
			}
			nc := nodeConfig{
				name:     "peer",
				port:     slave,
				seed:     uint32(time.Now().UnixNano()),
				playerID: 1,
				logger:   logger,
			}
			if registry != nil {
				nc.registry = registry
			}
			n := newNode(cfg, nc)
			n.arm = func() { n.link.Connect(url) }
			n.levelEvery = levelEvery

			out := cmd.OutOrStdout()
			if registry != nil {
				r := chi.NewRouter()
				r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsListen, Handler: r, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						logger.Warn("metrics server stopped", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancelShutdown()
					srv.Shutdown(shutdownCtx)
				}()
				info(out, "Metrics: http://%s%s", metricsListen, cfg.Metrics.Path)
			}

			success(out, "Joining %s", url)
			runErr := supervise(ctx, cfg, logger, n)
			slave.Close()

			fmt.Fprintln(out)
			if err := writeReports(out, output, []report{n.report()}); err != nil {
				return err
			}
			if runErr != nil {
				return errors.FromLink(runErr).WithField("host", url)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsListen, "metrics", "", "serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&levelEvery, "levels", 0, "enter a new level this often while connected (0 disables)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "summary format: table, yaml")

	return cmd
}
