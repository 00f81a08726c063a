package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/multilink-dev/multilink/internal/config"
	"github.com/multilink-dev/multilink/internal/errors"
	"github.com/multilink-dev/multilink/pkg/hal/cable"
	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/protocol"
)

// simOptions configures an in-process run.
type simOptions struct {
	duration    time.Duration
	levelEvery  time.Duration
	chatEvery   time.Duration
	faultAt     time.Duration
	hostSeed    uint32
	peerSeed    uint32
	peerVersion string
}

func simCmd(cfgFile *string) *cobra.Command {
	var (
		opts   simOptions
		output string
	)

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a host and a peer over a simulated cable",
		Long: `Sim connects two nodes through an in-process cable and steps them in
simulated time, so a run is fast and repeatable. At the end the host
leaves gracefully and both nodes are summarised.`,
		Example: `  multilink sim
  multilink sim --duration 1m --levels 5s -o yaml
  multilink sim --fault-at 3s
  multilink sim --peer-version 0.9.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			cfg, logger, err := setup(*cfgFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			host, peer, err := runSim(cfg, logger, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := writeReports(out, output, []report{host.report(), peer.report()}); err != nil {
				return err
			}
			if output == "yaml" {
				return nil
			}
			fmt.Fprintln(out)
			summarise(out, host, peer)
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVarP(&opts.duration, "duration", "d", 10*time.Second, "simulated run time")
	f.DurationVar(&opts.levelEvery, "levels", 2*time.Second, "enter a new level this often (0 disables)")
	f.DurationVar(&opts.chatEvery, "chat", time.Second, "send a quick chat from the host this often (0 disables)")
	f.DurationVar(&opts.faultAt, "fault-at", 0, "pull the cable at this simulated time (0 disables)")
	f.Uint32Var(&opts.hostSeed, "host-seed", 0xABCD1234, "host generator seed")
	f.Uint32Var(&opts.peerSeed, "peer-seed", 1, "peer generator seed")
	f.StringVar(&opts.peerVersion, "peer-version", "", "program version announced by the peer")
	f.StringVarP(&output, "output", "o", "table", "summary format: table, yaml")

	return cmd
}

// runSim steps a connected pair for opts.duration of simulated time, then
// has the host leave.
func runSim(cfg *config.Config, logger *slog.Logger, opts simOptions) (*node, *node, error) {
	var peerVersion *protocol.ProgramVersion
	if opts.peerVersion != "" {
		v, err := protocol.ParseProgramVersion(opts.peerVersion)
		if err != nil {
			return nil, nil, errors.New("L203").Wrap(err).WithField("peer-version", opts.peerVersion)
		}
		peerVersion = &v
	}

	c := cable.New()
	c.SetLogger(logger.With("component", "cable"))

	host := newNode(cfg, nodeConfig{
		name:     "host",
		port:     c.Master(),
		seed:     opts.hostSeed,
		playerID: 0,
		logger:   logger,
	})
	peer := newNode(cfg, nodeConfig{
		name:     "peer",
		port:     c.Slave(),
		seed:     opts.peerSeed,
		playerID: 1,
		logger:   logger,
		version:  peerVersion,
	})
	host.arm = host.link.Listen
	peer.arm = func() { peer.link.Connect("cable") }
	host.levelEvery = opts.levelEvery
	peer.levelEvery = opts.levelEvery

	frame := cfg.Sync.FrameTime.Std()
	slots := max(int(frame/cfg.Link.SlotPeriod.Std()), 1)

	step := func() {
		host.step(frame)
		peer.step(frame)
		c.TickN(slots)
	}

	host.start()
	peer.start()

	var (
		chatAge time.Duration
		chats   uint32
		faulted bool
	)
	for now := time.Duration(0); now < opts.duration; now += frame {
		step()

		if opts.faultAt > 0 && !faulted && now >= opts.faultAt {
			faulted = true
			logger.Info("pulling the cable", "at", now)
			c.InjectError()
		}
		if opts.chatEvery > 0 && host.session.Connected() {
			if chatAge += frame; chatAge >= opts.chatEvery {
				chatAge = 0
				chats++
				host.session.Send(protocol.QuickChat{Message: chats})
			}
		}
		if host.state == link.StateDisconnected && peer.state == link.StateDisconnected {
			break
		}
	}

	host.session.BeginLeave()
	deadline := int(leaveTimeout / frame)
	for i := 0; i < deadline; i++ {
		if host.state == link.StateDisconnected && peer.state == link.StateDisconnected {
			break
		}
		step()
	}
	host.link.Disconnect()
	peer.link.Disconnect()
	host.observe()
	peer.observe()

	return host, peer, nil
}

// summarise reports whether the two generators ended in step.
func summarise(w io.Writer, host, peer *node) {
	hs, ps := host.gen.State(), peer.gen.State()
	if hs == ps {
		success(w, "Shared seed %08x", hs)
	} else {
		warn(w, "Seeds differ: host %08x, peer %08x", hs, ps)
	}
	for _, n := range []*node{host, peer} {
		if n.lastSession != nil {
			info(w, "%s: %s", n.name, errors.FromLink(n.lastSession).FormatCompact())
		}
	}
}
