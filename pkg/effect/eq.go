package effect

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// bandSkipGainDb is the threshold below which a band's gain is close
// enough to 0 dB that its filter is skipped entirely.
const bandSkipGainDb = 0.1

// ThreeBandEQ is three RBJ peaking-EQ biquads in series: low, mid, high.
type ThreeBandEQ struct {
	enabledFlag
	params *param.Set
	bands  [3]*biquad
	// cached coefficient inputs, to detect when a biquad needs recomputing
	lastFreq, lastGain, lastQ [3]float64
	lastSampleRate            float64

	// gainSmoothers ramp each band's gainDb toward a newly written value
	// over continuousParamRampBlocks calls instead of jumping.
	gainSmoothers [3]*param.Smoother
	lastGainWrite [3]float64
}

const (
	eqLowFreq, eqMidFreq, eqHighFreq = 0, 3, 6
	eqLowGain, eqMidGain, eqHighGain = 1, 4, 7
	eqLowQ, eqMidQ, eqHighQ          = 2, 5, 8
)

// NewThreeBandEQ creates an EQ with the spec defaults: low 100 Hz, mid
// 1 kHz, high 8 kHz; Q 0.707 for low/high, 1.0 for mid.
func NewThreeBandEQ(channels int) *ThreeBandEQ {
	e := &ThreeBandEQ{enabledFlag: enabledFlag{enabled: true}}
	e.params = param.NewSet([]param.Descriptor{
		{Name: "lowFreq", Min: 20, Max: 2000, Default: 100, Unit: "Hz", Logarithmic: true},
		{Name: "lowGainDb", Min: -24, Max: 24, Default: 0, Unit: "dB"},
		{Name: "lowQ", Min: 0.1, Max: 10, Default: 0.707},
		{Name: "midFreq", Min: 100, Max: 8000, Default: 1000, Unit: "Hz", Logarithmic: true},
		{Name: "midGainDb", Min: -24, Max: 24, Default: 0, Unit: "dB"},
		{Name: "midQ", Min: 0.1, Max: 10, Default: 1.0},
		{Name: "highFreq", Min: 1000, Max: 20000, Default: 8000, Unit: "Hz", Logarithmic: true},
		{Name: "highGainDb", Min: -24, Max: 24, Default: 0, Unit: "dB"},
		{Name: "highQ", Min: 0.1, Max: 10, Default: 0.707},
	})
	for i := range e.bands {
		e.bands[i] = newBiquad(channels)
		e.gainSmoothers[i] = param.NewSmoother(0, continuousParamRampBlocks)
	}
	return e
}

// Params exposes the nine band parameters: (freq, gainDb, q) for low, mid,
// high in that order.
func (e *ThreeBandEQ) Params() *param.Set { return e.params }

// Process runs the three bands in series, skipping a band whose gain is
// within bandSkipGainDb of 0 dB.
func (e *ThreeBandEQ) Process(buf *audio.Buffer, sampleRate float64) {
	if !e.enabled {
		return
	}
	freqIdx := [3]int{eqLowFreq, eqMidFreq, eqHighFreq}
	gainIdx := [3]int{eqLowGain, eqMidGain, eqHighGain}
	qIdx := [3]int{eqLowQ, eqMidQ, eqHighQ}

	for band := 0; band < 3; band++ {
		if target := e.params.Get(gainIdx[band]); target != e.lastGainWrite[band] {
			e.gainSmoothers[band].SetTarget(target)
			e.lastGainWrite[band] = target
		}
		gainDb := e.gainSmoothers[band].Next()
		if math.Abs(gainDb) < bandSkipGainDb {
			continue
		}
		freq := e.params.Get(freqIdx[band])
		q := e.params.Get(qIdx[band])
		if freq != e.lastFreq[band] || gainDb != e.lastGain[band] || q != e.lastQ[band] || sampleRate != e.lastSampleRate {
			e.bands[band].setPeakingEQ(sampleRate, freq, q, gainDb)
			e.lastFreq[band], e.lastGain[band], e.lastQ[band] = freq, gainDb, q
			e.lastSampleRate = sampleRate
		}
		for ch := 0; ch < buf.Channels(); ch++ {
			e.bands[band].process(buf, ch)
		}
	}
}

// Reset clears all three bands' filter histories.
func (e *ThreeBandEQ) Reset() {
	for i, b := range e.bands {
		b.reset()
		e.gainSmoothers[i].Reset(e.lastGainWrite[i])
	}
}
