package netsync

import (
	"time"

	"github.com/multilink-dev/multilink/pkg/protocol"
)

// Broadcaster sends periodic state updates while the link is up.
type Broadcaster struct {
	link     LinkState
	out      Sender
	pose     PoseSource
	seed     Seeder
	interval time.Duration
	elapsed  time.Duration

	onPose func(protocol.PlayerInfo)
	adopted uint64
}

// NewBroadcaster creates a broadcaster. pose may be nil, in which case only
// the seed is broadcast. An interval of zero selects
// DefaultBroadcastInterval.
func NewBroadcaster(link LinkState, out Sender, seed Seeder, pose PoseSource, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	return &Broadcaster{
		link:     link,
		out:      out,
		pose:     pose,
		seed:     seed,
		interval: interval,
	}
}

// OnPose sets the callback for the remote player's pose.
func (b *Broadcaster) OnPose(fn func(protocol.PlayerInfo)) {
	b.onPose = fn
}

// Register installs the broadcaster's routes on r.
func (b *Broadcaster) Register(r *protocol.Router) {
	protocol.On(r, func(ev protocol.SyncSeed) {
		if b.link.IsHost() {
			return
		}
		b.seed.Seed(ev.State)
		b.adopted++
	})
	protocol.On(r, func(ev protocol.PlayerInfo) {
		if b.onPose != nil {
			b.onPose(ev)
		}
	})
}

// Update advances the broadcast clock by delta and sends when it expires.
// The clock stops while the link is down.
func (b *Broadcaster) Update(delta time.Duration) {
	if !b.link.IsConnected() {
		b.elapsed = 0
		return
	}
	b.elapsed += delta
	if b.elapsed < b.interval {
		return
	}
	b.elapsed = 0

	if b.pose != nil {
		if info, ok := b.pose.Pose(); ok {
			b.out.Send(info)
		}
	}
	if b.link.IsHost() {
		b.out.Send(protocol.SyncSeed{State: b.seed.State()})
	}
}

// Adopted returns how many seed broadcasts the peer has applied.
func (b *Broadcaster) Adopted() uint64 {
	return b.adopted
}
