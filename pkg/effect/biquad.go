package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
)

// biquad is a second-order IIR filter, Direct Form I, with per-channel
// state. Ported near-verbatim from the teacher's filter.Biquad: the
// teacher's SetPeakingEQ already implements the RBJ peaking-EQ cookbook
// formula this engine's 3-band EQ specifies.
type biquad struct {
	b0, b1, b2 float32
	a1, a2     float32
	x1, x2     []float32
	y1, y2     []float32
}

func newBiquad(channels int) *biquad {
	return &biquad{
		x1: make([]float32, channels),
		x2: make([]float32, channels),
		y1: make([]float32, channels),
		y2: make([]float32, channels),
	}
}

func (b *biquad) reset() {
	for i := range b.x1 {
		b.x1[i], b.x2[i], b.y1[i], b.y2[i] = 0, 0, 0, 0
	}
}

func (b *biquad) setCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	invA0 := 1.0 / a0
	b.b0 = float32(b0 * invA0)
	b.b1 = float32(b1 * invA0)
	b.b2 = float32(b2 * invA0)
	b.a1 = float32(a1 * invA0)
	b.a2 = float32(a2 * invA0)
}

// setPeakingEQ configures the RBJ cookbook peaking-EQ biquad.
func (b *biquad) setPeakingEQ(sampleRate, freq, q, gainDb float64) {
	A := math.Pow(10, gainDb/40)
	w0 := 2 * math.Pi * freq / sampleRate
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / (2 * q)

	b0 := 1 + alpha*A
	b1 := -2 * cosW0
	b2 := 1 - alpha*A
	a0 := 1 + alpha/A
	a1 := -2 * cosW0
	a2 := 1 - alpha/A
	b.setCoefficients(b0, b1, b2, a0, a1, a2)
}

// process filters one channel of an interleaved buffer in place, no
// allocation. The difference equation is evaluated in float64 so that a
// unity-gain peaking filter passes its input through unchanged.
func (b *biquad) process(buf *audio.Buffer, channel int) {
	x1, x2 := float64(b.x1[channel]), float64(b.x2[channel])
	y1, y2 := float64(b.y1[channel]), float64(b.y2[channel])
	b0, b1, b2 := float64(b.b0), float64(b.b1), float64(b.b2)
	a1, a2 := float64(b.a1), float64(b.a2)
	frames := buf.FrameCount()
	for f := 0; f < frames; f++ {
		x0 := float64(buf.At(f, channel))
		y0 := b0*x0 + b1*x1 + b2*x2 - a1*y1 - a2*y2
		x2, x1 = x1, x0
		y2, y1 = y1, y0
		buf.Set(f, channel, float32(y0))
	}
	b.x1[channel], b.x2[channel] = float32(x1), float32(x2)
	b.y1[channel], b.y2[channel] = float32(y1), float32(y2)
}
