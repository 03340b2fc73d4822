package track

import (
	"github.com/google/uuid"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/effect"
	"github.com/wavepath/dawcore/pkg/param"
)

// AudioClip is a windowed reference into a shared source buffer: it plays
// [TrimStartFrame, TrimStartFrame+DurationFrames) of Source starting at
// StartFrame on the track timeline.
type AudioClip struct {
	ID             uuid.UUID
	Name           string
	StartFrame     int64
	TrimStartFrame int64
	DurationFrames int64
	Volume         float32
	Source         *audio.Buffer // interleaved source sample data
	SourceChannels int
}

// NewAudioClip wraps source starting at trimStartFrame for durationFrames,
// placed at startFrame on the timeline.
func NewAudioClip(name string, source *audio.Buffer, startFrame, trimStartFrame, durationFrames int64) *AudioClip {
	return &AudioClip{
		ID:             uuid.New(),
		Name:           name,
		StartFrame:     startFrame,
		TrimStartFrame: trimStartFrame,
		DurationFrames: durationFrames,
		Volume:         1,
		Source:         source,
		SourceChannels: source.Channels(),
	}
}

// EndFrame returns StartFrame + DurationFrames, the exclusive timeline end.
func (c *AudioClip) EndFrame() int64 { return c.StartFrame + c.DurationFrames }

// render writes this clip's contribution for the window
// [startFrame, startFrame+frameCount) into dst (which must already be
// cleared by the caller for additive mixing across clips), applying
// Volume. Frames outside [StartFrame, EndFrame) or past the end of Source
// contribute silence.
func (c *AudioClip) render(dst *audio.Buffer, startFrame, frameCount int64) {
	channels := dst.Channels()
	srcFrames := c.Source.FrameCount()

	for f := int64(0); f < frameCount; f++ {
		timelineFrame := startFrame + f
		if timelineFrame < c.StartFrame || timelineFrame >= c.EndFrame() {
			continue
		}
		srcFrame := c.TrimStartFrame + (timelineFrame - c.StartFrame)
		if srcFrame < 0 || srcFrame >= int64(srcFrames) {
			continue
		}
		for ch := 0; ch < channels; ch++ {
			srcCh := ch
			if srcCh >= c.SourceChannels {
				srcCh = c.SourceChannels - 1
			}
			v := c.Source.At(int(srcFrame), srcCh) * c.Volume
			dst.Set(int(f), ch, dst.At(int(f), ch)+v)
		}
	}
}

// AudioTrack mixes its clips' windowed contributions for a render window,
// then applies its effect chain, volume and constant-power pan.
type AudioTrack struct {
	ID      uuid.UUID
	Name    string
	Volume  float32
	Pan     float32
	Muted   bool
	Soloed  bool
	Clips   []*AudioClip
	Effects *effect.Chain

	scratch *audio.Buffer

	volumeSmoother *param.Smoother
	panSmoother    *param.Smoother
}

// NewAudioTrack creates an empty audio track rendering into its own scratch
// buffer of the given frame/channel shape.
func NewAudioTrack(name string, frameCapacity, channels int) *AudioTrack {
	return &AudioTrack{
		ID:             uuid.New(),
		Name:           name,
		Volume:         1,
		Effects:        effect.NewChain(),
		scratch:        audio.NewBuffer(frameCapacity, channels),
		volumeSmoother: param.NewSmoother(1, paramRampSamples),
		panSmoother:    param.NewSmoother(0, paramRampSamples),
	}
}

// SetParam implements transport.ParamTarget: index 0 retargets volume,
// index 1 retargets pan, both ramped over paramRampSamples.
func (t *AudioTrack) SetParam(index int, value float64) {
	switch index {
	case 0:
		t.Volume = float32(value)
		t.volumeSmoother.SetTarget(value)
	case 1:
		t.Pan = float32(value)
		t.panSmoother.SetTarget(value)
	}
}

// Render implements the 4.H render algorithm: mute/solo gate, per-clip
// additive mix, effect chain, volume+pan.
func (t *AudioTrack) Render(startFrame, frameCount int64, hasSolo bool, sampleRate float64) {
	t.scratch.Clear()
	if t.Muted || (hasSolo && !t.Soloed) {
		return
	}

	for _, clip := range t.Clips {
		if startFrame+frameCount <= clip.StartFrame || startFrame >= clip.EndFrame() {
			continue
		}
		clip.render(t.scratch, startFrame, frameCount)
	}

	t.Effects.Process(t.scratch, sampleRate)

	applyVolumePan(t.scratch, t.volumeSmoother, t.panSmoother)
}

// Output returns the track's scratch buffer, valid until the next Render
// call.
func (t *AudioTrack) Output() *audio.Buffer { return t.scratch }

// Reset resets the effect chain's persistent state. Audio tracks have no
// voice allocation to clear.
func (t *AudioTrack) Reset() {
	t.Effects.Reset()
	t.volumeSmoother.Reset(float64(t.Volume))
	t.panSmoother.Reset(float64(t.Pan))
}

// TotalDurationFrames returns the largest clip end frame across this
// track's clips, or 0 if it has none.
func (t *AudioTrack) TotalDurationFrames() int64 {
	var max int64
	for _, c := range t.Clips {
		if e := c.EndFrame(); e > max {
			max = e
		}
	}
	return max
}
