package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// gateState names the three-state machine this engine's noise gate uses,
// collapsed from the teacher's five-state Closed/Attack/Open/Hold/Release
// machine in dynamics.Gate.
type gateState int

const (
	gateClosed gateState = iota
	gateHold
	gateOpen
)

const (
	gateThresholdDb = 0
	gateHoldMs      = 1
	gateRangeDb     = 2
	gateAttackMs    = 3
	gateReleaseMs   = 4

	gateRiseCoeff = 0.999
	gateFallCoeff = 0.995
)

// NoiseGate attenuates the signal below a threshold, using a one-pole peak
// detector and a smoothed target gain. Grounded on the teacher's
// dynamics.Gate state machine, collapsed to this engine's three states.
type NoiseGate struct {
	enabledFlag
	params        *param.Set
	env           float64
	holdRemaining int
	actualGain    float64
	state         gateState
}

// NewNoiseGate creates a NoiseGate with threshold/hold/range/attack/release.
func NewNoiseGate(thresholdDb, holdMs, rangeDb, attackMs, releaseMs float64) *NoiseGate {
	g := &NoiseGate{enabledFlag: enabledFlag{enabled: true}, actualGain: 1}
	g.params = param.NewSet([]param.Descriptor{
		{Name: "thresholdDb", Min: -80, Max: 0, Default: thresholdDb, Unit: "dB"},
		{Name: "holdMs", Min: 0, Max: 1000, Default: holdMs, Unit: "ms"},
		{Name: "rangeDb", Min: -80, Max: 0, Default: rangeDb, Unit: "dB"},
		{Name: "attackMs", Min: 0.1, Max: 500, Default: attackMs, Unit: "ms"},
		{Name: "releaseMs", Min: 1, Max: 2000, Default: releaseMs, Unit: "ms"},
	})
	g.params.Set(gateThresholdDb, thresholdDb)
	g.params.Set(gateHoldMs, holdMs)
	g.params.Set(gateRangeDb, rangeDb)
	g.params.Set(gateAttackMs, attackMs)
	g.params.Set(gateReleaseMs, releaseMs)
	return g
}

// Params exposes thresholdDb(0)/holdMs(1)/rangeDb(2)/attackMs(3)/releaseMs(4).
func (g *NoiseGate) Params() *param.Set { return g.params }

// Process runs the envelope follower and gate state machine per frame.
func (g *NoiseGate) Process(buf *audio.Buffer, sampleRate float64) {
	if !g.enabled {
		return
	}
	thresholdLinear := math.Pow(10, g.params.Get(gateThresholdDb)/20)
	rangeLinear := math.Pow(10, g.params.Get(gateRangeDb)/20)
	holdFrames := int(g.params.Get(gateHoldMs) * 0.001 * sampleRate)
	alphaAttack := math.Exp(-1 / (g.params.Get(gateAttackMs) * 0.001 * sampleRate))
	alphaRelease := math.Exp(-1 / (g.params.Get(gateReleaseMs) * 0.001 * sampleRate))

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
		if x > g.env {
			g.env = alphaAttack*g.env + (1-alphaAttack)*x
		} else {
			g.env = alphaRelease*g.env + (1-alphaRelease)*x
		}

		var gateTarget float64
		if g.env >= thresholdLinear {
			g.state = gateOpen
			gateTarget = 1
			g.holdRemaining = holdFrames
		} else if g.holdRemaining > 0 {
			g.state = gateHold
			g.holdRemaining--
			gateTarget = 1
		} else {
			g.state = gateClosed
			gateTarget = rangeLinear
		}

		if gateTarget > g.actualGain {
			g.actualGain = gateRiseCoeff*g.actualGain + (1-gateRiseCoeff)*gateTarget
		} else {
			g.actualGain = gateFallCoeff*g.actualGain + (1-gateFallCoeff)*gateTarget
		}

		gain := float32(g.actualGain)
		for ch := 0; ch < channels; ch++ {
			buf.Set(f, ch, buf.At(f, ch)*gain)
		}
	}
}

// Reset zeros the envelope follower and hold counter and returns the
// smoothed gain to unity.
func (g *NoiseGate) Reset() {
	g.env = 0
	g.holdRemaining = 0
	g.actualGain = 1
	g.state = gateClosed
}
