package cable

import (
	"testing"

	"github.com/multilink-dev/multilink/pkg/hal"
)

type recorder struct {
	next uint16
	got  []uint16
}

func (r *recorder) NextWord() uint16 {
	r.next++
	return r.next
}

func (r *recorder) ReceiveWord(w uint16) {
	r.got = append(r.got, w)
}

func TestTickRequiresMasterHandler(t *testing.T) {
	c := New()
	if c.Tick() {
		t.Error("Tick() on closed cable = true, want false")
	}

	c.Master().Open("")
	c.Slave().Open("")
	if c.Tick() {
		t.Error("Tick() without master handler = true, want false")
	}

	c.Master().Attach(&recorder{})
	if !c.Tick() {
		t.Error("Tick() with master handler = false, want true")
	}
	if got := c.Transfers(); got != 1 {
		t.Errorf("Transfers() = %d, want 1", got)
	}
}

func TestModesValid(t *testing.T) {
	c := New()
	m, s := c.Master(), c.Slave()

	m.Open("")
	if m.ModesValid() {
		t.Error("ModesValid() with slave closed = true, want false")
	}
	s.Open("")
	if !m.ModesValid() || !s.ModesValid() {
		t.Error("ModesValid() with both open = false, want true")
	}
	if !m.IsMaster() || s.IsMaster() {
		t.Error("IsMaster() roles are wrong")
	}
}

func TestExchange(t *testing.T) {
	c := New()
	m, s := c.Master(), c.Slave()
	m.Open("")
	s.Open("")

	sr := &recorder{next: 100}
	s.Attach(sr)
	mr := &recorder{}
	m.Attach(mr)

	c.Tick()
	if len(mr.got) != 1 || mr.got[0] != 101 {
		t.Errorf("master got %v, want [101]", mr.got)
	}
	if len(sr.got) != 1 || sr.got[0] != 1 {
		t.Errorf("slave got %v, want [1]", sr.got)
	}

	c.Tick()
	if mr.got[1] != 102 || sr.got[1] != 2 {
		t.Errorf("second transfer = %d/%d, want 102/2", mr.got[1], sr.got[1])
	}
}

func TestMasterReadsNoPeer(t *testing.T) {
	c := New()
	c.Master().Open("")
	mr := &recorder{}
	c.Master().Attach(mr)

	c.Tick()
	if len(mr.got) != 1 || mr.got[0] != hal.NoPeer {
		t.Errorf("master got %v, want [%#x]", mr.got, hal.NoPeer)
	}
}

func TestInjectErrorStopsTransfers(t *testing.T) {
	c := New()
	m, s := c.Master(), c.Slave()
	m.Open("")
	s.Open("")
	m.Attach(&recorder{})

	c.InjectError()
	if !m.ErrorBit() || !s.ErrorBit() {
		t.Error("ErrorBit() = false after InjectError, want true")
	}
	if c.Tick() {
		t.Error("Tick() after error = true, want false")
	}

	m.Close()
	if m.ErrorBit() {
		t.Error("ErrorBit() after Close = true, want false")
	}
}

func TestDetachStopsHandler(t *testing.T) {
	c := New()
	m, s := c.Master(), c.Slave()
	m.Open("")
	s.Open("")
	m.Attach(&recorder{})

	sr := &recorder{}
	s.Attach(sr)
	c.Tick()
	s.Detach()
	c.TickN(3)

	if len(sr.got) != 1 {
		t.Errorf("slave received %d words after detach, want 1", len(sr.got))
	}
}

func TestLateSlaveWaitsForNextBurst(t *testing.T) {
	c := New()
	m, s := c.Master(), c.Slave()
	m.Open("")
	s.Open("")

	mr := &recorder{}
	m.Attach(mr)
	c.Tick()

	sr := &recorder{next: 100}
	s.Attach(sr)
	c.TickN(2)
	if len(sr.got) != 0 {
		t.Fatalf("late slave received %v before master reattached", sr.got)
	}
	if mr.got[2] != hal.Heartbeat {
		t.Errorf("master got %#x from pending slave, want heartbeat", mr.got[2])
	}

	m.Detach()
	m.Attach(mr)
	c.Tick()
	if len(sr.got) != 1 {
		t.Errorf("slave received %d words after master reattach, want 1", len(sr.got))
	}
	if last := mr.got[len(mr.got)-1]; last != 101 {
		t.Errorf("master got %d, want 101", last)
	}
}
