package param

import "testing"

func TestSetClampsOnWrite(t *testing.T) {
	s := NewSet([]Descriptor{{Name: "gainDb", Min: -60, Max: 12, Default: 0}})
	got := s.Set(0, 100)
	if got != 12 {
		t.Fatalf("Set clamped to %v, want 12", got)
	}
	if s.Get(0) != 12 {
		t.Fatalf("Get = %v, want 12", s.Get(0))
	}
}

func TestSetIndexOf(t *testing.T) {
	s := NewSet([]Descriptor{{Name: "freq"}, {Name: "q"}})
	if s.IndexOf("q") != 1 {
		t.Fatalf("IndexOf(q) = %d, want 1", s.IndexOf("q"))
	}
	if s.IndexOf("missing") != -1 {
		t.Fatalf("IndexOf(missing) = %d, want -1", s.IndexOf("missing"))
	}
}

func TestSmootherRampsToTarget(t *testing.T) {
	sm := NewSmoother(0, 4)
	sm.SetTarget(1)
	var last float64
	for i := 0; i < 4; i++ {
		last = sm.Next()
	}
	if last != 1 {
		t.Fatalf("after ramp = %v, want 1", last)
	}
	if sm.IsSmoothing() {
		t.Fatalf("still smoothing after ramp complete")
	}
}
