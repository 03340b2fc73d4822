package audio

import "testing"

func TestBufferClearCopyMix(t *testing.T) {
	a := NewBuffer(4, 1)
	b := NewBuffer(4, 1)
	for i := range b.Data() {
		b.Data()[i] = 0.5
	}
	a.CopyFrom(b)
	for i, v := range a.Data() {
		if v != 0.5 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
	a.Clear()
	for i, v := range a.Data() {
		if v != 0 {
			t.Fatalf("sample %d = %v after clear, want 0", i, v)
		}
	}
	a.MixFrom(b, 1.0)
	a.MixFrom(b, 1.0)
	for i, v := range a.Data() {
		if v != 1.0 {
			t.Fatalf("sample %d = %v after double unity mix, want 1.0", i, v)
		}
	}
}

func TestBufferApplyGainAndClamp(t *testing.T) {
	a := NewBuffer(2, 1)
	a.Data()[0] = 0.5
	a.Data()[1] = -0.5
	a.ApplyGain(4)
	a.Clamp()
	if a.Data()[0] != 1 || a.Data()[1] != -1 {
		t.Fatalf("clamp got %v, want [1 -1]", a.Data())
	}
}

func TestClampIdempotent(t *testing.T) {
	a := NewBuffer(3, 1)
	a.Data()[0], a.Data()[1], a.Data()[2] = 2, -2, 0.3
	a.Clamp()
	first := append([]float32(nil), a.Data()...)
	a.Clamp()
	for i := range first {
		if first[i] != a.Data()[i] {
			t.Fatalf("clamp not idempotent at %d: %v vs %v", i, first[i], a.Data()[i])
		}
	}
}

func TestBufferPeakRMS(t *testing.T) {
	b := NewBuffer(4, 1)
	copy(b.Data(), []float32{0.5, -0.5, 0.5, -0.5})
	peakL, peakR := b.Peak()
	if peakL != 0.5 || peakR != 0.5 {
		t.Fatalf("peak = (%v, %v), want (0.5, 0.5)", peakL, peakR)
	}
	rmsL, rmsR := b.RMS()
	if rmsL < 0.499 || rmsL > 0.501 || rmsR < 0.499 || rmsR > 0.501 {
		t.Fatalf("rms = (%v, %v), want ~0.5", rmsL, rmsR)
	}
}

func TestMixFromCommutative(t *testing.T) {
	x := NewBuffer(4, 1)
	y := NewBuffer(4, 1)
	copy(x.Data(), []float32{0.1, 0.2, 0.3, 0.4})
	copy(y.Data(), []float32{0.05, -0.1, 0.2, 0.0})

	order1 := NewBuffer(4, 1)
	order1.MixFrom(x, 1)
	order1.MixFrom(y, 1)

	order2 := NewBuffer(4, 1)
	order2.MixFrom(y, 1)
	order2.MixFrom(x, 1)

	for i := range order1.Data() {
		if order1.Data()[i] != order2.Data()[i] {
			t.Fatalf("mixFrom not commutative at %d", i)
		}
	}
}
