package netsync

import (
	"log/slog"
	"time"

	"github.com/multilink-dev/multilink/pkg/protocol"
)

// BarrierResult describes how a barrier completed.
type BarrierResult struct {
	// Seed is the generator state for the next level.
	Seed uint32

	// Difficulty is the host's difficulty for the next level.
	Difficulty uint8

	// Independent is set when the link dropped while waiting. Each side
	// then continues with its own generator.
	Independent bool
}

// Barrier holds both players at a level boundary. While waiting, each side
// sends NewLevelIdle every idle interval. The host answers the first idle
// notice it sees with NewLevelSyncSeed and proceeds; the peer proceeds
// once it has adopted that seed.
//
// A peer whose seed frame was lost keeps sending idle notices. Until the
// host enters its next barrier it answers each of them with the same seed.
// Seeds are numbered per session and the peer ignores one for a barrier
// it has already passed.
type Barrier struct {
	link     LinkState
	out      Sender
	seed     Seeder
	interval time.Duration
	logger   *slog.Logger

	active     bool
	done       bool
	peerIdle   bool
	elapsed    time.Duration
	difficulty uint8
	result     BarrierResult

	// passed counts the barriers passed together in this session.
	passed uint8
	// linger is set on the host between a completed barrier and the next
	// Enter, while a repeated idle notice is answered with the same seed.
	linger bool
}

// NewBarrier creates an idle barrier. An interval of zero selects
// DefaultIdleInterval.
func NewBarrier(link LinkState, out Sender, seed Seeder, interval time.Duration) *Barrier {
	if interval <= 0 {
		interval = DefaultIdleInterval
	}
	return &Barrier{
		link:     link,
		out:      out,
		seed:     seed,
		interval: interval,
		logger:   defaultLogger(),
	}
}

// SetLogger replaces the barrier's logger.
func (b *Barrier) SetLogger(l *slog.Logger) {
	b.logger = l
}

// Register installs the barrier's routes on r.
func (b *Barrier) Register(r *protocol.Router) {
	protocol.On(r, func(protocol.NewLevelIdle) {
		if b.active || b.linger {
			b.peerIdle = true
		}
	})
	protocol.On(r, func(ev protocol.NewLevelSyncSeed) {
		if !b.active || b.link.IsHost() {
			return
		}
		if ev.Level == b.passed {
			b.logger.Debug("ignoring repeated seed", "level", ev.Level)
			return
		}
		b.passed = ev.Level
		b.seed.Seed(ev.State)
		b.finish(BarrierResult{Seed: ev.State, Difficulty: ev.Difficulty})
	})
}

// Reset forgets the barriers passed so far. Call it when a session starts.
func (b *Barrier) Reset() {
	b.passed = 0
	b.linger = false
	b.peerIdle = false
}

// Enter starts waiting. difficulty is only used by the host. Entering an
// active barrier restarts it.
func (b *Barrier) Enter(difficulty uint8) {
	b.active = true
	b.done = false
	b.peerIdle = false
	b.linger = false
	b.difficulty = difficulty
	b.result = BarrierResult{}

	if !b.link.IsConnected() {
		b.finishIndependent()
		return
	}
	b.elapsed = 0
	b.out.Send(protocol.NewLevelIdle{})
	b.logger.Debug("waiting at level boundary", "host", b.link.IsHost())
}

// Update advances the barrier by delta and reports whether it has
// completed.
func (b *Barrier) Update(delta time.Duration) bool {
	if !b.active {
		b.answerLate()
		return b.done
	}
	if !b.link.IsConnected() {
		b.finishIndependent()
		return true
	}

	if b.link.IsHost() && b.peerIdle {
		state := b.seed.State()
		level := b.passed + 1
		if b.out.Send(protocol.NewLevelSyncSeed{State: state, Difficulty: b.difficulty, Level: level}) {
			b.passed = level
			b.linger = true
			b.peerIdle = false
			b.finish(BarrierResult{Seed: state, Difficulty: b.difficulty})
			return true
		}
	}

	b.elapsed += delta
	if b.elapsed >= b.interval {
		b.elapsed = 0
		b.out.Send(protocol.NewLevelIdle{})
	}
	return false
}

// Active reports whether the barrier is waiting.
func (b *Barrier) Active() bool {
	return b.active
}

// Done reports whether the last Enter has completed.
func (b *Barrier) Done() bool {
	return b.done
}

// Result returns how the last Enter completed. It is the zero value until
// Done reports true.
func (b *Barrier) Result() BarrierResult {
	return b.result
}

// answerLate repeats the last seed for a peer that is still waiting.
func (b *Barrier) answerLate() {
	if !b.linger {
		return
	}
	if !b.link.IsConnected() {
		b.linger = false
		return
	}
	if !b.peerIdle {
		return
	}
	ev := protocol.NewLevelSyncSeed{State: b.result.Seed, Difficulty: b.result.Difficulty, Level: b.passed}
	if b.out.Send(ev) {
		b.peerIdle = false
		b.logger.Debug("seed repeated for a waiting peer", "level", b.passed)
	}
}

func (b *Barrier) finish(r BarrierResult) {
	b.active = false
	b.done = true
	b.result = r
	b.logger.Debug("level boundary passed", "seed", r.Seed, "difficulty", r.Difficulty)
}

func (b *Barrier) finishIndependent() {
	b.finish(BarrierResult{Seed: b.seed.State(), Difficulty: b.difficulty, Independent: true})
}
