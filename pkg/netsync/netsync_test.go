package netsync

import (
	"errors"
	"testing"
	"time"

	"github.com/multilink-dev/multilink/pkg/protocol"
	"github.com/multilink-dev/multilink/pkg/rng"
)

type fakeLink struct {
	connected bool
	host      bool
}

func (f *fakeLink) IsConnected() bool { return f.connected }
func (f *fakeLink) IsHost() bool      { return f.host }

type recorder struct {
	events []protocol.Event
	refuse bool
}

func (r *recorder) Send(ev protocol.Event) bool {
	if r.refuse {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

func (r *recorder) count(t protocol.Type) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type() == t {
			n++
		}
	}
	return n
}

func TestBroadcasterInterval(t *testing.T) {
	l := &fakeLink{connected: true, host: true}
	out := &recorder{}
	pose := PoseFunc(func() (protocol.PlayerInfo, bool) {
		return protocol.PlayerInfo{PlayerID: 1, X: 10}, true
	})
	b := NewBroadcaster(l, out, rng.New(77), pose, 50*time.Millisecond)

	for i := 0; i < 10; i++ {
		b.Update(10 * time.Millisecond)
	}

	if got := out.count(protocol.TypePlayerInfo); got != 2 {
		t.Errorf("PlayerInfo sent %d times, want 2", got)
	}
	if got := out.count(protocol.TypeSyncSeed); got != 2 {
		t.Errorf("SyncSeed sent %d times, want 2", got)
	}
	if ev, ok := out.events[1].(protocol.SyncSeed); !ok || ev.State != 77 {
		t.Errorf("events[1] = %#v, want SyncSeed{77}", out.events[1])
	}
}

func TestBroadcasterPeerSendsNoSeed(t *testing.T) {
	l := &fakeLink{connected: true}
	out := &recorder{}
	dead := PoseFunc(func() (protocol.PlayerInfo, bool) { return protocol.PlayerInfo{}, false })
	b := NewBroadcaster(l, out, rng.New(1), dead, 0)

	b.Update(time.Second)

	if len(out.events) != 0 {
		t.Errorf("sent %v, want nothing", out.events)
	}
}

func TestBroadcasterStopsWhileDisconnected(t *testing.T) {
	l := &fakeLink{host: true}
	out := &recorder{}
	b := NewBroadcaster(l, out, rng.New(1), nil, 50*time.Millisecond)

	b.Update(40 * time.Millisecond)
	l.connected = true
	b.Update(40 * time.Millisecond)

	if len(out.events) != 0 {
		t.Errorf("sent %v before a full interval while connected", out.events)
	}
}

func TestBroadcasterAdoptsSeedOnPeer(t *testing.T) {
	tests := []struct {
		host bool
		want uint32
	}{
		{host: false, want: 0xABCD1234},
		{host: true, want: 5},
	}
	for _, tc := range tests {
		gen := rng.New(5)
		b := NewBroadcaster(&fakeLink{connected: true, host: tc.host}, &recorder{}, gen, nil, 0)
		r := protocol.NewRouter()
		b.Register(r)

		r.HandleEvent(protocol.SyncSeed{State: 0xABCD1234})

		if got := gen.State(); got != tc.want {
			t.Errorf("host=%v: State() = %#x, want %#x", tc.host, got, tc.want)
		}
	}
}

func TestBroadcasterRemotePose(t *testing.T) {
	b := NewBroadcaster(&fakeLink{connected: true}, &recorder{}, rng.New(0), nil, 0)
	r := protocol.NewRouter()
	b.Register(r)

	var got protocol.PlayerInfo
	b.OnPose(func(p protocol.PlayerInfo) { got = p })
	r.HandleEvent(protocol.PlayerInfo{PlayerID: 2, Y: -4})

	if got.PlayerID != 2 || got.Y != -4 {
		t.Errorf("remote pose = %+v", got)
	}
}

func TestBarrierHostSendsSeedAfterIdle(t *testing.T) {
	l := &fakeLink{connected: true, host: true}
	out := &recorder{}
	gen := rng.New(0xABCD1234)
	b := NewBarrier(l, out, gen, time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	b.Enter(3)
	if got := out.count(protocol.TypeNewLevelIdle); got != 1 {
		t.Fatalf("idle notices after Enter = %d, want 1", got)
	}

	for i := 0; i < 250; i++ {
		if b.Update(10 * time.Millisecond) {
			t.Fatal("host completed without seeing the peer idle")
		}
	}
	if got := out.count(protocol.TypeNewLevelIdle); got != 3 {
		t.Errorf("idle notices after 2.5s = %d, want 3", got)
	}

	r.HandleEvent(protocol.NewLevelIdle{})
	if !b.Update(10 * time.Millisecond) {
		t.Fatal("host did not complete after peer idle")
	}

	last := out.events[len(out.events)-1]
	want := protocol.NewLevelSyncSeed{State: 0xABCD1234, Difficulty: 3, Level: 1}
	if last != want {
		t.Errorf("last event = %#v, want %#v", last, want)
	}
	if got := b.Result(); got != (BarrierResult{Seed: 0xABCD1234, Difficulty: 3}) {
		t.Errorf("Result() = %+v", got)
	}
	if b.Active() {
		t.Error("Active() = true after completion")
	}
}

func TestBarrierHostRetriesRefusedSeed(t *testing.T) {
	l := &fakeLink{connected: true, host: true}
	out := &recorder{}
	b := NewBarrier(l, out, rng.New(1), time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	b.Enter(0)
	r.HandleEvent(protocol.NewLevelIdle{})

	out.refuse = true
	if b.Update(time.Millisecond) {
		t.Fatal("completed although the seed was refused")
	}
	out.refuse = false
	if !b.Update(time.Millisecond) {
		t.Fatal("did not complete once the seed was accepted")
	}
}

func TestBarrierIgnoresIdleWhenInactive(t *testing.T) {
	l := &fakeLink{connected: true, host: true}
	out := &recorder{}
	b := NewBarrier(l, out, rng.New(1), time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	r.HandleEvent(protocol.NewLevelIdle{})
	b.Enter(0)
	if b.Update(time.Millisecond) {
		t.Error("an idle notice from before Enter completed the barrier")
	}
}

func TestBarrierPeerAdoptsSeed(t *testing.T) {
	l := &fakeLink{connected: true}
	gen := rng.New(99)
	b := NewBarrier(l, &recorder{}, gen, time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	b.Enter(0)
	r.HandleEvent(protocol.NewLevelSyncSeed{State: 0xABCD1234, Difficulty: 4, Level: 1})

	if !b.Update(time.Millisecond) {
		t.Fatal("peer did not complete after seed")
	}
	if got := gen.State(); got != 0xABCD1234 {
		t.Errorf("State() = %#x, want 0xABCD1234", got)
	}
	if got := b.Result(); got.Difficulty != 4 || got.Independent {
		t.Errorf("Result() = %+v", got)
	}
}

func TestBarrierHostRepeatsSeedForWaitingPeer(t *testing.T) {
	l := &fakeLink{connected: true, host: true}
	out := &recorder{}
	gen := rng.New(0xABCD1234)
	b := NewBarrier(l, out, gen, time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	b.Enter(3)
	r.HandleEvent(protocol.NewLevelIdle{})
	if !b.Update(time.Millisecond) {
		t.Fatal("host did not complete after peer idle")
	}
	gen.Next()

	// The peer never saw the seed and idles again.
	r.HandleEvent(protocol.NewLevelIdle{})
	b.Update(time.Millisecond)
	want := protocol.NewLevelSyncSeed{State: 0xABCD1234, Difficulty: 3, Level: 1}
	if got := out.count(protocol.TypeNewLevelSyncSeed); got != 2 {
		t.Fatalf("seeds sent = %d, want 2", got)
	}
	if last := out.events[len(out.events)-1]; last != want {
		t.Errorf("repeated seed = %#v, want %#v", last, want)
	}

	// Without another idle nothing more is sent.
	b.Update(time.Second)
	if got := out.count(protocol.TypeNewLevelSyncSeed); got != 2 {
		t.Errorf("seeds sent without idle = %d, want 2", got)
	}

	// The next barrier carries the next level number.
	b.Enter(4)
	r.HandleEvent(protocol.NewLevelIdle{})
	b.Update(time.Millisecond)
	want = protocol.NewLevelSyncSeed{State: gen.State(), Difficulty: 4, Level: 2}
	if last := out.events[len(out.events)-1]; last != want {
		t.Errorf("next seed = %#v, want %#v", last, want)
	}
}

func TestBarrierHostStopsRepeatingAfterDisconnect(t *testing.T) {
	l := &fakeLink{connected: true, host: true}
	out := &recorder{}
	b := NewBarrier(l, out, rng.New(1), time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	b.Enter(0)
	r.HandleEvent(protocol.NewLevelIdle{})
	b.Update(time.Millisecond)

	l.connected = false
	b.Update(time.Millisecond)
	l.connected = true
	r.HandleEvent(protocol.NewLevelIdle{})
	b.Update(time.Millisecond)
	if got := out.count(protocol.TypeNewLevelSyncSeed); got != 1 {
		t.Errorf("seeds sent = %d, want 1", got)
	}
}

func TestBarrierPeerIgnoresRepeatedSeed(t *testing.T) {
	l := &fakeLink{connected: true}
	gen := rng.New(99)
	b := NewBarrier(l, &recorder{}, gen, time.Second)
	r := protocol.NewRouter()
	b.Register(r)

	b.Enter(0)
	r.HandleEvent(protocol.NewLevelSyncSeed{State: 10, Difficulty: 1, Level: 1})
	if !b.Done() {
		t.Fatal("first seed not adopted")
	}

	// A late repeat of the first answer must not end the second barrier.
	b.Enter(0)
	gen.Seed(11)
	r.HandleEvent(protocol.NewLevelSyncSeed{State: 10, Difficulty: 1, Level: 1})
	if b.Done() {
		t.Fatal("repeated seed completed the next barrier")
	}
	if got := gen.State(); got != 11 {
		t.Errorf("State() = %d, want 11", got)
	}

	r.HandleEvent(protocol.NewLevelSyncSeed{State: 20, Difficulty: 2, Level: 2})
	if !b.Done() || gen.State() != 20 {
		t.Errorf("Done() = %v, State() = %d, want true, 20", b.Done(), gen.State())
	}

	b.Reset()
	b.Enter(0)
	r.HandleEvent(protocol.NewLevelSyncSeed{State: 30, Level: 1})
	if !b.Done() || gen.State() != 30 {
		t.Errorf("after Reset: Done() = %v, State() = %d, want true, 30", b.Done(), gen.State())
	}
}

func TestBarrierIndependentOnDisconnect(t *testing.T) {
	l := &fakeLink{connected: true}
	gen := rng.New(7)
	b := NewBarrier(l, &recorder{}, gen, time.Second)

	b.Enter(2)
	l.connected = false
	if !b.Update(time.Millisecond) {
		t.Fatal("barrier still waiting after disconnect")
	}
	want := BarrierResult{Seed: 7, Difficulty: 2, Independent: true}
	if got := b.Result(); got != want {
		t.Errorf("Result() = %+v, want %+v", got, want)
	}
}

func TestBarrierEnterWhileDisconnected(t *testing.T) {
	b := NewBarrier(&fakeLink{}, &recorder{}, rng.New(0), 0)
	b.Enter(1)
	if !b.Done() || !b.Result().Independent {
		t.Errorf("Done() = %v, Result() = %+v", b.Done(), b.Result())
	}
}

func TestVersionCheck(t *testing.T) {
	local := protocol.ProgramVersion{Major: 1, Minor: 2}
	tests := []struct {
		name string
		peer protocol.ProgramVersion
		want error
	}{
		{"equal", local, nil},
		{"peer newer", protocol.ProgramVersion{Major: 1, Minor: 3}, ErrUpdateRequired},
		{"peer older", protocol.ProgramVersion{Major: 1, Minor: 1, Revision: 9}, ErrPeerUpdateRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := &fakeLink{}
			out := &recorder{}
			v := NewVersionCheck(local, l, out)
			r := protocol.NewRouter()
			v.Register(r)

			v.Update()
			if len(out.events) != 0 {
				t.Fatal("version sent while disconnected")
			}
			l.connected = true
			v.Update()
			v.Update()
			if len(out.events) != 1 || out.events[0] != local {
				t.Fatalf("sent %v, want one %v", out.events, local)
			}

			r.HandleEvent(tc.peer)
			if !v.Done() {
				t.Fatal("Done() = false after peer version")
			}
			if err := v.Err(); !errors.Is(err, tc.want) || (tc.want == nil) != (err == nil) {
				t.Errorf("Err() = %v, want %v", err, tc.want)
			}
			if p, ok := v.Peer(); !ok || p != tc.peer {
				t.Errorf("Peer() = %v, %v", p, ok)
			}

			v.Reset()
			if v.Done() || v.Err() != nil {
				t.Error("Reset did not clear the result")
			}
		})
	}
}
