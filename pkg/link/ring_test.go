package link

import (
	"sort"
	"sync"
	"testing"
)

// pushValue acquires a frame, tags it with v and pushes it.
func pushValue(t *testing.T, p *Pool, r *Ring, v byte) bool {
	t.Helper()
	h, ok := p.Acquire()
	if !ok {
		t.Fatalf("Acquire() failed while pushing %d", v)
	}
	p.Frame(h)[0] = v
	return r.Push(h)
}

func popValues(p *Pool, r *Ring, n int) []int {
	var got []int
	for i := 0; i < n; i++ {
		h, ok := r.Pop()
		if !ok {
			break
		}
		got = append(got, int(p.Frame(h)[0]))
		p.Release(h)
	}
	return got
}

func TestRingFIFO(t *testing.T) {
	p := NewPool(8)
	r := NewRing(4, p)

	for v := byte(1); v <= 3; v++ {
		if !pushValue(t, p, r, v) {
			t.Errorf("Push(%d) = false, want true", v)
		}
	}
	got := popValues(p, r, 4)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("popped %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pop #%d = %d, want %d", i, got[i], want[i])
		}
	}
	if _, ok := r.Pop(); ok {
		t.Error("Pop() on empty ring = true, want false")
	}
}

func TestRingBound(t *testing.T) {
	tests := []struct {
		name   string
		pushes int
	}{
		{"under", 3},
		{"exact", 8},
		{"double", 16},
		{"many", 50},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPool(9)
			r := NewRing(8, p)
			for i := 0; i < tc.pushes; i++ {
				pushValue(t, p, r, byte(i+1))
				if r.Len() > r.Cap() {
					t.Fatalf("Len() = %d exceeds Cap() %d", r.Len(), r.Cap())
				}
			}

			wantLoss := 0
			if tc.pushes > r.Cap() {
				wantLoss = tc.pushes - r.Cap()
			}
			if got := r.Loss(); got != uint64(wantLoss) {
				t.Errorf("Loss() = %d, want %d", got, wantLoss)
			}
		})
	}
}

func TestRingLossUnderFlood(t *testing.T) {
	const n = 16
	p := NewPool(n + 1)
	r := NewRing(n, p)

	for v := 1; v <= n+5; v++ {
		pushValue(t, p, r, byte(v))
	}
	if got := r.Loss(); got != 5 {
		t.Errorf("Loss() = %d, want 5", got)
	}

	got := popValues(p, r, n)
	if len(got) != n {
		t.Fatalf("popped %d items, want %d", len(got), n)
	}
	sort.Ints(got)
	for i, v := range got {
		if want := i + 6; v != want {
			t.Errorf("sorted item %d = %d, want %d", i, v, want)
		}
	}
	if got := p.Available(); got != p.Cap() {
		t.Errorf("pool Available() = %d, want %d", got, p.Cap())
	}
}

func TestRingPopSkipsVacatedSlots(t *testing.T) {
	p := NewPool(4)
	r := NewRing(4, p)

	pushValue(t, p, r, 1)
	pushValue(t, p, r, 2)
	pushValue(t, p, r, 3)

	// Vacate the slot under the read cursor.
	p.Release(Handle(r.slots[0].Swap(int32(NoHandle))))

	got := popValues(p, r, 3)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("popped %v, want [2 3]", got)
	}
}

func TestRingDrain(t *testing.T) {
	p := NewPool(4)
	r := NewRing(4, p)
	pushValue(t, p, r, 1)
	pushValue(t, p, r, 2)

	r.Drain()
	if r.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", r.Len())
	}
	if got := p.Available(); got != 4 {
		t.Errorf("pool Available() after Drain = %d, want 4", got)
	}
}

func TestRingConcurrentConservation(t *testing.T) {
	const (
		n     = 8
		total = 5000
	)
	p := NewPool(n + 2)
	r := NewRing(n, p)

	var wg sync.WaitGroup
	done := make(chan struct{})
	var received int

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			if h, ok := r.Pop(); ok {
				received++
				p.Release(h)
				continue
			}
			select {
			case <-done:
				for {
					h, ok := r.Pop()
					if !ok {
						return
					}
					received++
					p.Release(h)
				}
			default:
			}
		}
	}()

	sent := 0
	for sent < total {
		h, ok := p.Acquire()
		if !ok {
			continue
		}
		r.Push(h)
		sent++
	}
	close(done)
	wg.Wait()

	if got := uint64(received) + r.Loss(); got != total {
		t.Errorf("received + loss = %d, want %d", got, total)
	}
	if got := p.Available(); got != p.Cap() {
		t.Errorf("pool Available() = %d, want %d", got, p.Cap())
	}
}
