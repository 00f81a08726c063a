package main

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/multilink-dev/multilink/internal/config"
	"github.com/multilink-dev/multilink/pkg/hal"
	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/metrics"
	"github.com/multilink-dev/multilink/pkg/netsync"
	"github.com/multilink-dev/multilink/pkg/protocol"
	"github.com/multilink-dev/multilink/pkg/rng"
)

const (
	tracerName = "github.com/multilink-dev/multilink"

	// statsWindow is the saturation window of the stats report.
	statsWindow = time.Second

	// leaveTimeout bounds how long a leaving node waits for its
	// Disconnect notice to go out.
	leaveTimeout = time.Second
)

// node is one end of a link: a transport, its session and the services
// observing them.
type node struct {
	name    string
	logger  *slog.Logger
	link    *link.Transport
	gen     *rng.Generator
	session *netsync.Session
	metrics *metrics.Metrics

	// arm starts a negotiation. persistent nodes re-arm after every
	// session; others stop at the first disconnect.
	arm        func()
	persistent bool

	// levelEvery enters the seed barrier periodically while connected.
	levelEvery   time.Duration
	levelElapsed time.Duration
	levelWaiting bool
	difficulty   uint8
	levels       int

	state       link.State
	negStart    time.Time
	statsAge    time.Duration
	window      link.Stats
	peerPoses   uint64
	quickChats  uint64
	lastSession error
}

type nodeConfig struct {
	name     string
	port     hal.Port
	seed     uint32
	playerID uint8
	logger   *slog.Logger

	// version overrides the announced program version.
	version *protocol.ProgramVersion

	// registry receives the node's metrics. Nil disables them.
	registry prometheus.Registerer
}

func newNode(cfg *config.Config, nc nodeConfig) *node {
	logger := nc.logger.With("node", nc.name)

	opts := append(cfg.LinkOptions(),
		link.WithLogger(logger.With("component", "link")),
		link.WithTracer(otel.Tracer(tracerName)),
	)
	tr := link.New(nc.port, opts...)
	gen := rng.New(nc.seed)
	version := programVersion()
	if nc.version != nil {
		version = *nc.version
	}

	n := &node{
		name:   nc.name,
		logger: logger,
		link:   tr,
		gen:    gen,
	}
	n.session = netsync.NewSession(tr, gen, netsync.Config{
		Version:           version,
		Pose:              &wanderer{id: nc.playerID},
		BroadcastInterval: cfg.Sync.BroadcastInterval.Std(),
		IdleInterval:      cfg.Sync.IdleInterval.Std(),
		Logger:            logger.With("component", "netsync"),
	})

	n.session.Broadcast.OnPose(func(p protocol.PlayerInfo) {
		n.peerPoses++
		logger.Debug("peer pose", "player", p.PlayerID, "x", p.X, "y", p.Y)
	})
	protocol.On(n.session.Router(), func(c protocol.QuickChat) {
		n.quickChats++
		logger.Info("quick chat", "message", c.Message)
	})

	if nc.registry != nil {
		n.metrics = metrics.New(
			metrics.WithRegistry(nc.registry),
			metrics.WithConstLabels(prometheus.Labels{"node": nc.name}),
		)
		n.metrics.Watch(tr, n.session.Dispatcher())
	}
	return n
}

// start arms the link for a new session.
func (n *node) start() {
	n.arm()
	n.observe()
	if n.state == link.StateDisconnected {
		// The port failed to open.
		n.lastSession = n.cause()
	}
}

// step runs one application frame.
func (n *node) step(delta time.Duration) {
	n.session.Update(delta)
	n.observe()

	if n.session.Connected() && n.levelEvery > 0 && !n.session.Barrier.Active() {
		n.levelElapsed += delta
		if n.levelElapsed >= n.levelEvery {
			n.levelElapsed = 0
			n.difficulty++
			n.levelWaiting = true
			n.session.Barrier.Enter(n.difficulty)
		}
	}
	if n.levelWaiting && n.session.Barrier.Done() {
		n.levelWaiting = false
		n.levels++
		r := n.session.Barrier.Result()
		n.logger.Info("level started",
			"seed", r.Seed,
			"difficulty", r.Difficulty,
			"independent", r.Independent,
		)
	}

	n.statsAge += delta
	if n.statsAge >= statsWindow {
		n.statsAge = 0
		n.window = n.link.Stats()
		if n.metrics != nil {
			n.metrics.ObserveStats(n.window)
		}
	}
}

// observe records state transitions of the link.
func (n *node) observe() {
	st := n.link.State().State
	if st == n.state {
		return
	}
	prev := n.state
	n.state = st

	switch {
	case st == link.StateNegotiating:
		n.negStart = time.Now()
	case prev == link.StateNegotiating:
		var err error
		if st == link.StateDisconnected {
			err = n.link.Err()
		}
		if n.metrics != nil {
			n.metrics.ObserveNegotiation(time.Since(n.negStart), err)
		}
	}

	if n.metrics != nil {
		n.metrics.SetConnected(st == link.StateConnected)
	}
	if st == link.StateDisconnected {
		n.levelElapsed = 0
		n.levelWaiting = false
		n.lastSession = n.cause()
	}
}

// cause explains why the last session ended. A graceful leave by either
// side yields nil.
func (n *node) cause() error {
	if err := n.session.Err(); err != nil {
		return err
	}
	return n.link.Err()
}

// run drives the node at the configured frame time until ctx is done or
// a non-persistent node's session ends. feed is called once per frame.
func (n *node) run(ctx context.Context, frame time.Duration, feed func()) error {
	n.start()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			n.shutdown()
			return nil
		case now := <-ticker.C:
			n.step(now.Sub(last))
			last = now
			if feed != nil {
				feed()
			}
			if n.state != link.StateDisconnected {
				continue
			}
			if !n.persistent {
				return n.lastSession
			}
			if n.lastSession != nil {
				n.logger.Warn("session failed, listening again", "error", n.lastSession)
			}
			n.start()
		}
	}
}

// shutdown leaves the session gracefully. The port must still be running.
func (n *node) shutdown() {
	if !n.session.Connected() {
		n.link.Disconnect()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	if err := n.session.Leave(ctx); err != nil {
		n.logger.Warn("peer was not notified", "error", err)
	}
}

// wanderer circles the local player around the screen centre.
type wanderer struct {
	id    uint8
	frame int
}

func (w *wanderer) Pose() (protocol.PlayerInfo, bool) {
	w.frame++
	a := float64(w.frame) * math.Pi / 32
	return protocol.PlayerInfo{
		PlayerID:    w.id,
		X:           int16(120 + 60*math.Cos(a)),
		Y:           int16(80 + 40*math.Sin(a)),
		SpeedX:      float32(-6 * math.Sin(a)),
		SpeedY:      float32(4 * math.Cos(a)),
		Color:       w.id % 8,
		ColorAmount: 15,
	}, true
}
