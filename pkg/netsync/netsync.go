package netsync

import (
	"errors"
	"log/slog"
	"time"

	"github.com/multilink-dev/multilink/pkg/protocol"
)

const (
	// DefaultBroadcastInterval is the period of pose and seed broadcasts.
	DefaultBroadcastInterval = 50 * time.Millisecond

	// DefaultIdleInterval is the period of NewLevelIdle notices while a
	// barrier is waiting.
	DefaultIdleInterval = 250 * time.Millisecond
)

var (
	// ErrUpdateRequired means the peer runs a newer build.
	ErrUpdateRequired = errors.New("netsync: update required, peer runs a newer version")

	// ErrPeerUpdateRequired means the peer runs an older build.
	ErrPeerUpdateRequired = errors.New("netsync: peer must update, it runs an older version")
)

// LinkState is the part of the transport that reports the session.
type LinkState interface {
	IsConnected() bool
	IsHost() bool
}

// Sender queues events for the peer. *protocol.Dispatcher implements it.
type Sender interface {
	Send(ev protocol.Event) bool
}

// Seeder is the shared generator. *rng.Generator implements it.
type Seeder interface {
	State() uint32
	Seed(state uint32)
}

// PoseSource reports the local player's pose. ok is false while there is
// nothing to broadcast, for example when the player is dead.
type PoseSource interface {
	Pose() (info protocol.PlayerInfo, ok bool)
}

// PoseFunc adapts a function to PoseSource.
type PoseFunc func() (protocol.PlayerInfo, bool)

// Pose calls f.
func (f PoseFunc) Pose() (protocol.PlayerInfo, bool) { return f() }

func defaultLogger() *slog.Logger {
	return slog.Default().With("component", "netsync")
}
