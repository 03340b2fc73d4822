package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// Delay is a circular-buffer delay line processed directly over the
// interleaved sample stream (not per channel), so that an offset expressed
// in frames times the channel count reproduces an independent delay per
// channel without a separate ring per channel. Grounded on the teacher's
// delay.Line read/write/interpolate shape, rebuilt over audio.Ring to the
// exact sizing and formula this engine specifies.
type Delay struct {
	enabledFlag
	params *param.Set
	ring   *audio.Ring
}

// NewDelay creates a Delay sized for up to 2.1 seconds at sampleRate across
// channels channels.
func NewDelay(sampleRate float64, channels int, delayMs, feedback, mix float64) *Delay {
	size := int(math.Ceil(2.1*sampleRate)) * channels
	d := &Delay{enabledFlag: enabledFlag{enabled: true}, ring: audio.NewRing(size)}
	d.params = param.NewSet([]param.Descriptor{
		{Name: "delayMs", Min: 0, Max: 2100, Default: delayMs, Unit: "ms"},
		{Name: "feedback", Min: 0, Max: 0.95, Default: feedback},
		{Name: "mix", Min: 0, Max: 1, Default: mix},
	})
	d.params.Set(0, delayMs)
	d.params.Set(1, feedback)
	d.params.Set(2, mix)
	return d
}

// Params exposes delayMs (0), feedback (1), mix (2).
func (d *Delay) Params() *param.Set { return d.params }

func (d *Delay) delaySamples(sampleRate float64, channels int) int {
	frames := math.Round(d.params.Get(0) * sampleRate / 1000)
	n := int(frames) * channels
	size := d.ring.Size()
	if n < 1 {
		n = 1
	}
	if n > size-1 {
		n = size - 1
	}
	return n
}

// Process runs the delay sample-by-sample over the interleaved stream.
func (d *Delay) Process(buf *audio.Buffer, sampleRate float64) {
	if !d.enabled {
		return
	}
	channels := buf.Channels()
	offset := d.delaySamples(sampleRate, channels)
	feedback := float32(d.params.Get(1))
	mix := float32(d.params.Get(2))

	data := buf.Data()
	for i, input := range data {
		delayed := d.ring.ReadAt(offset - 1)
		d.ring.Write(input + delayed*feedback)
		data[i] = input*(1-mix) + delayed*mix
	}
}

// Reset zeros the delay buffer.
func (d *Delay) Reset() { d.ring.Reset() }
