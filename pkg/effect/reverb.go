package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// combTunings and allpassTunings are sample counts at 44100 Hz; scaled by
// sampleRate/44100 (rounded) at lazy-allocation time. Generalized from the
// teacher's schroeder.go 4-comb/2-allpass tank to this engine's 8-comb/
// 4-allpass tank and damping formula.
var combTunings = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTunings = [4]int{556, 441, 341, 225}

type reverbComb struct {
	ring  *audio.Ring
	store float32
}

func newReverbComb(length int) *reverbComb {
	return &reverbComb{ring: audio.NewRing(length)}
}

func (c *reverbComb) process(input, damping, roomSize float32) float32 {
	length := c.ring.Size()
	delayed := c.ring.ReadAt(length - 1)
	c.store = delayed*(1-damping) + c.store*damping
	c.ring.Write(input + c.store*roomSize)
	return delayed
}

func (c *reverbComb) reset() {
	c.ring.Reset()
	c.store = 0
}

type reverbAllpass struct {
	ring *audio.Ring
}

func newReverbAllpass(length int) *reverbAllpass {
	return &reverbAllpass{ring: audio.NewRing(length)}
}

func (a *reverbAllpass) process(x float32) float32 {
	length := a.ring.Size()
	buffered := a.ring.ReadAt(length - 1)
	out := -x + buffered
	a.ring.Write(x + buffered*0.5)
	return out
}

func (a *reverbAllpass) reset() { a.ring.Reset() }

const (
	reverbRoomSize = 0
	reverbDamping  = 1
	reverbMix      = 2
)

// Reverb is an eight-comb/four-allpass Schroeder reverb tank.
type Reverb struct {
	enabledFlag
	params     *param.Set
	combs      [8]*reverbComb
	allpasses  [4]*reverbAllpass
	allocated  bool
}

// NewReverb creates a Reverb; its comb/allpass buffers are allocated lazily
// on the first Process call, once the sample rate is known.
func NewReverb(roomSize, damping, mix float64) *Reverb {
	r := &Reverb{enabledFlag: enabledFlag{enabled: true}}
	r.params = param.NewSet([]param.Descriptor{
		{Name: "roomSize", Min: 0, Max: 1, Default: roomSize},
		{Name: "damping", Min: 0, Max: 1, Default: damping},
		{Name: "mix", Min: 0, Max: 1, Default: mix},
	})
	r.params.Set(reverbRoomSize, roomSize)
	r.params.Set(reverbDamping, damping)
	r.params.Set(reverbMix, mix)
	return r
}

// Params exposes roomSize(0)/damping(1)/mix(2).
func (r *Reverb) Params() *param.Set { return r.params }

func (r *Reverb) allocate(sampleRate float64) {
	scale := sampleRate / 44100
	for i, t := range combTunings {
		length := int(math.Round(float64(t) * scale))
		if length < 1 {
			length = 1
		}
		r.combs[i] = newReverbComb(length)
	}
	for i, t := range allpassTunings {
		length := int(math.Round(float64(t) * scale))
		if length < 1 {
			length = 1
		}
		r.allpasses[i] = newReverbAllpass(length)
	}
	r.allocated = true
}

// Process runs the tank: input is the mean of the frame's channels, and the
// tank's output is broadcast back to every channel.
func (r *Reverb) Process(buf *audio.Buffer, sampleRate float64) {
	if !r.enabled {
		return
	}
	if !r.allocated {
		r.allocate(sampleRate)
	}
	roomSize := float32(r.params.Get(reverbRoomSize))
	damping := float32(r.params.Get(reverbDamping))
	mix := float32(r.params.Get(reverbMix))

	frames := buf.FrameCount()
	channels := buf.Channels()
	for f := 0; f < frames; f++ {
		var mono float32
		for ch := 0; ch < channels; ch++ {
			mono += buf.At(f, ch)
		}
		mono /= float32(channels)

		var sum float32
		for _, c := range r.combs {
			sum += c.process(mono, damping, roomSize)
		}

		out := sum
		for _, a := range r.allpasses {
			out = a.process(out)
		}

		for ch := 0; ch < channels; ch++ {
			src := buf.At(f, ch)
			buf.Set(f, ch, src*(1-mix)+out*mix)
		}
	}
}

// Reset clears every comb and allpass tank.
func (r *Reverb) Reset() {
	for _, c := range r.combs {
		if c != nil {
			c.reset()
		}
	}
	for _, a := range r.allpasses {
		if a != nil {
			a.reset()
		}
	}
}
