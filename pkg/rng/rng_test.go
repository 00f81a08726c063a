package rng

import "testing"

func TestNextSequence(t *testing.T) {
	g := New(0)

	// state1 = 1013904223 = 0x3C6EF35F
	if got, want := g.Next(), (0x3C6EF35F>>16)&0x7FFF; got != want {
		t.Errorf("Next() = %d, want %d", got, want)
	}
	if got := g.State(); got != 0x3C6EF35F {
		t.Errorf("State() = %#x, want 0x3C6EF35F", got)
	}
}

func TestSeededGeneratorsAgree(t *testing.T) {
	a, b := New(0xABCD1234), New(1)
	b.Seed(a.State())

	for i := 0; i < 1000; i++ {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestRange(t *testing.T) {
	g := New(42)
	for i := 0; i < 10000; i++ {
		if v := g.Next(); v < 0 || v > 0x7FFF {
			t.Fatalf("Next() = %d out of range", v)
		}
		if v := g.Choice(7); v < 0 || v >= 7 {
			t.Fatalf("Choice(7) = %d out of range", v)
		}
		if v := g.Sample(100, 5); v <= 95 || v >= 105 {
			t.Fatalf("Sample(100, 5) = %d out of range", v)
		}
	}
}

func TestSampleWithoutOffset(t *testing.T) {
	for _, offset := range []int{0, -3} {
		g := New(42)
		if got := g.Sample(100, offset); got != 100 {
			t.Errorf("Sample(100, %d) = %d, want 100", offset, got)
		}
		if got := g.State(); got != 42 {
			t.Errorf("Sample(100, %d) moved the state to %d", offset, got)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	g := New(7)
	s := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	g.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })

	seen := make(map[int]bool)
	for _, v := range s {
		seen[v] = true
	}
	if len(seen) != 10 {
		t.Errorf("shuffle lost elements: %v", s)
	}
}
