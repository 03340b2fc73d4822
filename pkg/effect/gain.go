package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

const gainUnityEpsilon = 1e-4

// Gain multiplies every sample by a fixed dB gain, skipping the multiply
// entirely when the linear factor is within gainUnityEpsilon of unity.
type Gain struct {
	enabledFlag
	params    *param.Set
	smoother  *param.Smoother
	lastWrite float64
}

// NewGain creates a Gain effect with gainDb clamped to [-60, 12].
func NewGain(gainDb float64) *Gain {
	g := &Gain{enabledFlag: enabledFlag{enabled: true}}
	g.params = param.NewSet([]param.Descriptor{
		{Name: "gainDb", Min: -60, Max: 12, Default: gainDb, Unit: "dB"},
	})
	gainDb = g.params.Set(0, gainDb)
	g.smoother = param.NewSmoother(gainDb, continuousParamRampBlocks)
	g.lastWrite = gainDb
	return g
}

// Params exposes the indexed parameter set (gainDb at index 0).
func (g *Gain) Params() *param.Set { return g.params }

func dbToLinear(db float64) float32 {
	return float32(math.Pow(10, db/20))
}

// Process multiplies the buffer by the configured linear gain, ramping
// toward a newly written gainDb over continuousParamRampBlocks calls
// rather than jumping on the block the write landed in.
func (g *Gain) Process(buf *audio.Buffer, sampleRate float64) {
	if !g.enabled {
		return
	}
	if target := g.params.Get(0); target != g.lastWrite {
		g.smoother.SetTarget(target)
		g.lastWrite = target
	}
	linear := dbToLinear(g.smoother.Next())
	if float32(math.Abs(float64(linear-1))) < gainUnityEpsilon {
		return
	}
	buf.ApplyGain(linear)
}

// Reset snaps the gain smoother to its last written value, clearing any
// in-flight ramp.
func (g *Gain) Reset() { g.smoother.Reset(g.lastWrite) }
