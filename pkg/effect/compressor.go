package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// Compressor is a one-pole-peak-detector feedforward compressor. Grounded
// on the teacher's dynamics.Compressor and envelope.Detector, simplified to
// this engine's exact formula: no knee width, no lookahead, since neither
// has a place in this spec's effect.
type Compressor struct {
	enabledFlag
	params *param.Set
	env    float64

	thresholdSmoother *param.Smoother
	ratioSmoother     *param.Smoother
	lastThresholdDb   float64
	lastRatio         float64
}

const (
	compThresholdDb = 0
	compRatio       = 1
	compAttackMs    = 2
	compReleaseMs   = 3
	compMakeupDb    = 4
)

// NewCompressor creates a Compressor with the given threshold (dB), ratio
// (>=1), attack/release (ms) and makeup gain (dB).
func NewCompressor(thresholdDb, ratio, attackMs, releaseMs, makeupDb float64) *Compressor {
	c := &Compressor{enabledFlag: enabledFlag{enabled: true}}
	c.params = param.NewSet([]param.Descriptor{
		{Name: "thresholdDb", Min: -60, Max: 0, Default: thresholdDb, Unit: "dB"},
		{Name: "ratio", Min: 1, Max: 20, Default: ratio},
		{Name: "attackMs", Min: 0.1, Max: 500, Default: attackMs, Unit: "ms"},
		{Name: "releaseMs", Min: 1, Max: 2000, Default: releaseMs, Unit: "ms"},
		{Name: "makeupDb", Min: 0, Max: 24, Default: makeupDb, Unit: "dB"},
	})
	c.params.Set(compThresholdDb, thresholdDb)
	c.params.Set(compRatio, ratio)
	c.params.Set(compAttackMs, attackMs)
	c.params.Set(compReleaseMs, releaseMs)
	c.params.Set(compMakeupDb, makeupDb)
	c.thresholdSmoother = param.NewSmoother(thresholdDb, continuousParamRampBlocks)
	c.ratioSmoother = param.NewSmoother(ratio, continuousParamRampBlocks)
	c.lastThresholdDb = thresholdDb
	c.lastRatio = ratio
	return c
}

// Params exposes thresholdDb(0)/ratio(1)/attackMs(2)/releaseMs(3)/makeupDb(4).
func (c *Compressor) Params() *param.Set { return c.params }

// Process applies feedforward gain reduction, sample-by-block-frame, with
// the envelope persisting across calls.
func (c *Compressor) Process(buf *audio.Buffer, sampleRate float64) {
	if !c.enabled {
		return
	}
	if target := c.params.Get(compThresholdDb); target != c.lastThresholdDb {
		c.thresholdSmoother.SetTarget(target)
		c.lastThresholdDb = target
	}
	if target := c.params.Get(compRatio); target != c.lastRatio {
		c.ratioSmoother.SetTarget(target)
		c.lastRatio = target
	}
	thresholdLinear := math.Pow(10, c.thresholdSmoother.Next()/20)
	ratio := c.ratioSmoother.Next()
	makeupLinear := float32(math.Pow(10, c.params.Get(compMakeupDb)/20))
	alphaAttack := math.Exp(-1 / (c.params.Get(compAttackMs) * 0.001 * sampleRate))
	alphaRelease := math.Exp(-1 / (c.params.Get(compReleaseMs) * 0.001 * sampleRate))

	frames := buf.FrameCount()
	channels := buf.Channels()
	for f := 0; f < frames; f++ {
		var x float64
		for ch := 0; ch < channels; ch++ {
			a := math.Abs(float64(buf.At(f, ch)))
			if a > x {
				x = a
			}
		}
		if x > c.env {
			c.env = alphaAttack*c.env + (1-alphaAttack)*x
		} else {
			c.env = alphaRelease*c.env + (1-alphaRelease)*x
		}

		reduction := 1.0
		if c.env > thresholdLinear {
			dBAbove := 20 * math.Log10(c.env/thresholdLinear)
			reduction = math.Pow(10, -dBAbove*(1-1/ratio)/20)
		}
		gain := float32(reduction) * makeupLinear
		for ch := 0; ch < channels; ch++ {
			buf.Set(f, ch, buf.At(f, ch)*gain)
		}
	}
}

// Reset zeros the envelope follower and snaps the threshold/ratio smoothers
// to their last written values.
func (c *Compressor) Reset() {
	c.env = 0
	c.thresholdSmoother.Reset(c.lastThresholdDb)
	c.ratioSmoother.Reset(c.lastRatio)
}
