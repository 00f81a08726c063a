package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/multilink-dev/multilink/internal/config"
	"github.com/multilink-dev/multilink/internal/errors"
	"github.com/multilink-dev/multilink/pkg/hal/wsport"
)

func hostCmd(cfgFile *string) *cobra.Command {
	var (
		listen     string
		levelEvery time.Duration
		output     string
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Wait for a peer and host sessions",
		Long: `Host accepts one peer at a time over WebSocket and drives the
slot clock. After a session ends it listens for the next one.

The link endpoint, Prometheus metrics and a health check share one
HTTP listener:

  GET /link      WebSocket cable (net.path)
  GET /metrics   Prometheus metrics (metrics.path)
  GET /healthz   link state as JSON`,
		Example: `  multilink host
  multilink host --listen :9000 --levels 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, logger, err := setup(*cfgFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Net.Listen = listen
			}

			ctx, cancel := signalContext()
			defer cancel()

			master := wsport.NewMaster()
			master.SetLogger(logger.With("component", "wsport"))

			registry := prometheus.NewRegistry()
			n := newNode(cfg, nodeConfig{
				name:     "host",
				port:     master,
				seed:     uint32(time.Now().UnixNano()),
				playerID: 0,
				logger:   logger,
				registry: registry,
			})
			n.arm = n.link.Listen
			n.persistent = true
			n.levelEvery = levelEvery

			ln, err := net.Listen("tcp", cfg.Net.Listen)
			if err != nil {
				return errors.New("L006").Wrap(err).WithField("listen", cfg.Net.Listen)
			}
			srv := &http.Server{
				Handler:           hostRouter(cfg, master, registry, n),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go srv.Serve(ln)

			out := cmd.OutOrStdout()
			printBanner(out)
			success(out, "Listening on %s", ln.Addr())
			info(out, "Link:    ws://%s%s", ln.Addr(), cfg.Net.Path)
			if cfg.Metrics.Enabled {
				info(out, "Metrics: http://%s%s", ln.Addr(), cfg.Metrics.Path)
			}
			fmt.Fprintln(out)

			portCtx, stopPort := context.WithCancel(context.Background())
			defer stopPort()
			go master.Run(portCtx, cfg.Link.SlotPeriod.Std())

			runErr := supervise(ctx, cfg, logger, n)

			master.Hangup()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancelShutdown()
			srv.Shutdown(shutdownCtx)

			fmt.Fprintln(out)
			if err := writeReports(out, output, []report{n.report()}); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default from net.listen)")
	cmd.Flags().DurationVar(&levelEvery, "levels", 0, "enter a new level this often while connected (0 disables)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "summary format: table, yaml")

	return cmd
}

// hostRouter serves the link endpoint, metrics and health check.
func hostRouter(cfg *config.Config, master *wsport.Master, registry *prometheus.Registry, n *node) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle(cfg.Net.Path, master)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		st := n.link.State()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"state":    st.State.String(),
			"role":     st.Role.String(),
			"peer":     master.Connected(),
			"pending":  n.link.TxPending(),
			"counters": n.link.Counters(),
			"version":  programVersion().String(),
		})
	})
	return r
}
