package effect

import (
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// Fade multiplies each frame by the product of a fade-in ramp and a
// fade-out ramp computed from its position within totalFrames. There is no
// teacher effect of this shape; it follows the same enabled/Process/Reset
// shape as every other effect here.
type Fade struct {
	enabledFlag
	params     *param.Set
	totalFrames int
	pos        int
}

// NewFade creates a Fade spanning totalFrames frames, with fadeInMs and
// fadeOutMs each clamped to [0, 10000].
func NewFade(fadeInMs, fadeOutMs float64, totalFrames int) *Fade {
	f := &Fade{enabledFlag: enabledFlag{enabled: true}, totalFrames: totalFrames}
	f.params = param.NewSet([]param.Descriptor{
		{Name: "fadeInMs", Min: 0, Max: 10000, Default: fadeInMs, Unit: "ms"},
		{Name: "fadeOutMs", Min: 0, Max: 10000, Default: fadeOutMs, Unit: "ms"},
	})
	f.params.Set(0, fadeInMs)
	f.params.Set(1, fadeOutMs)
	return f
}

// Params exposes fadeInMs (index 0) and fadeOutMs (index 1).
func (f *Fade) Params() *param.Set { return f.params }

// Process multiplies each frame by min(f/fadeInFrames, 1) *
// min((totalFrames-f)/fadeOutFrames, 1), with divide-by-zero treated as 1.
func (f *Fade) Process(buf *audio.Buffer, sampleRate float64) {
	if !f.enabled {
		return
	}
	fadeInFrames := f.params.Get(0) * sampleRate / 1000
	fadeOutFrames := f.params.Get(1) * sampleRate / 1000

	frames := buf.FrameCount()
	channels := buf.Channels()
	for i := 0; i < frames; i++ {
		frame := f.pos + i

		inGain := 1.0
		if fadeInFrames > 0 {
			g := float64(frame) / fadeInFrames
			if g < 1 {
				inGain = g
			}
		}

		outGain := 1.0
		if fadeOutFrames > 0 {
			g := float64(f.totalFrames-frame) / fadeOutFrames
			if g < 1 {
				outGain = g
			}
		}

		gain := float32(inGain * outGain)
		for ch := 0; ch < channels; ch++ {
			buf.Set(i, ch, buf.At(i, ch)*gain)
		}
	}
	f.pos += frames
}

// Reset rewinds the fade position to the start.
func (f *Fade) Reset() { f.pos = 0 }
