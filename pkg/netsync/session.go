package netsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/multilink-dev/multilink/pkg/protocol"
)

// Config configures a Session.
type Config struct {
	// Version is the local build, checked against the peer's.
	Version protocol.ProgramVersion

	// Pose supplies the local player's pose for broadcasts. Optional.
	Pose PoseSource

	BroadcastInterval time.Duration
	IdleInterval      time.Duration

	Logger *slog.Logger
}

// Session drives one transport: it advances negotiation, dispatches
// received events and runs the synchronisation components.
type Session struct {
	link   Link
	disp   *protocol.Dispatcher
	router *protocol.Router
	logger *slog.Logger

	Broadcast *Broadcaster
	Barrier   *Barrier
	Version   *VersionCheck

	connected bool
	leaving   bool
	peerLeft  bool
	err       error
}

// NewSession wires the synchronisation components to l. seed is the
// shared generator.
func NewSession(l Link, seed Seeder, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	disp := protocol.NewDispatcher(l)
	disp.SetLogger(logger)

	s := &Session{
		link:      l,
		disp:      disp,
		router:    protocol.NewRouter(),
		logger:    logger,
		Broadcast: NewBroadcaster(l, disp, seed, cfg.Pose, cfg.BroadcastInterval),
		Barrier:   NewBarrier(l, disp, seed, cfg.IdleInterval),
		Version:   NewVersionCheck(cfg.Version, l, disp),
	}
	s.Barrier.SetLogger(logger)

	s.Broadcast.Register(s.router)
	s.Barrier.Register(s.router)
	s.Version.Register(s.router)
	protocol.On(s.router, func(protocol.Disconnect) {
		s.peerLeft = true
		s.logger.Info("peer left")
		s.link.Disconnect()
	})
	return s
}

// Router returns the session's router. Register game event callbacks on
// it before the first Update.
func (s *Session) Router() *protocol.Router {
	return s.router
}

// Dispatcher returns the session's dispatcher.
func (s *Session) Dispatcher() *protocol.Dispatcher {
	return s.disp
}

// Send queues ev for the peer.
func (s *Session) Send(ev protocol.Event) bool {
	if s.leaving {
		return false
	}
	return s.disp.Send(ev)
}

// Update runs one application frame.
func (s *Session) Update(delta time.Duration) {
	s.link.Update(delta)
	s.observe()

	if !s.connected {
		// A waiting barrier completes independently.
		s.Barrier.Update(delta)
		return
	}

	s.disp.PollAndDispatch(s.router)
	// The peer's version and its Disconnect can arrive in the same batch.
	if err := s.Version.Err(); err != nil && s.err == nil {
		s.err = err
		s.logger.Warn("version mismatch, leaving", "error", err)
		s.BeginLeave()
	}
	if s.observe(); !s.connected {
		s.Barrier.Update(delta)
		return
	}

	if s.leaving {
		if s.link.TxIdle() {
			s.link.Disconnect()
			s.observe()
		}
		return
	}

	s.Version.Update()
	s.Broadcast.Update(delta)
	s.Barrier.Update(delta)
}

// observe tracks session boundaries.
func (s *Session) observe() {
	connected := s.link.IsConnected()
	switch {
	case connected && !s.connected:
		s.Version.Reset()
		s.Barrier.Reset()
		s.leaving = false
		s.peerLeft = false
		s.err = nil
		s.logger.Info("session started", "host", s.link.IsHost())
	case !connected && s.connected:
		s.leaving = false
		s.logger.Info("session ended", "peer_left", s.peerLeft)
	}
	s.connected = connected
}

// BeginLeave sends a Disconnect notice. Later calls to Update tear the
// link down once the notice has been transmitted.
func (s *Session) BeginLeave() {
	if !s.connected || s.leaving {
		return
	}
	s.disp.Send(protocol.Disconnect{})
	s.leaving = true
}

// Leave is the blocking form of BeginLeave, for use outside the update
// loop. The port must keep running while it waits.
func (s *Session) Leave(ctx context.Context) error {
	err := Leave(ctx, s.link, s.disp)
	s.observe()
	return err
}

// Connected reports whether the last Update saw the link up.
func (s *Session) Connected() bool {
	return s.connected
}

// Leaving reports whether a graceful leave is in progress.
func (s *Session) Leaving() bool {
	return s.leaving
}

// PeerLeft reports whether the last session ended with the peer's
// Disconnect notice.
func (s *Session) PeerLeft() bool {
	return s.peerLeft
}

// Err returns the version mismatch that ended the last session, or nil.
func (s *Session) Err() error {
	return s.err
}
