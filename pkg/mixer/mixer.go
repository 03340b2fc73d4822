// Package mixer implements the MasterMixer: sums every track's rendered
// output into a master buffer, runs the master effect chain and gain, and
// reports peak/RMS telemetry for the block just rendered.
package mixer

import (
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/effect"
	"github.com/wavepath/dawcore/pkg/track"
)

// Meters holds the most recent block's level measurements.
type Meters struct {
	LeftPeak  float32
	RightPeak float32
	LeftRMS   float32
	RightRMS  float32
}

// MasterMixer sums every audio and MIDI track's rendered output into a
// master scratch buffer each block.
type MasterMixer struct {
	AudioTracks []*track.AudioTrack
	MidiTracks  []*track.MidiTrack

	MasterEffects *effect.Chain
	MasterGain    float32

	// BPM is the musical tempo MIDI tracks schedule against, set by the
	// caller; 120 is used while it is left zero.
	BPM float64

	sampleRate    float64
	masterScratch *audio.Buffer
	lastMeters    Meters
}

// NewMasterMixer creates a mixer rendering into a scratch buffer of
// frameCapacity frames at channels channel count.
func NewMasterMixer(frameCapacity, channels int, sampleRate float64) *MasterMixer {
	return &MasterMixer{
		MasterEffects: effect.NewChain(),
		MasterGain:    1,
		sampleRate:    sampleRate,
		masterScratch: audio.NewBuffer(frameCapacity, channels),
	}
}

// Render implements the 4.I block algorithm and returns the master scratch
// buffer, valid until the next Render call.
func (m *MasterMixer) Render(startFrame, frameCount int64) *audio.Buffer {
	m.masterScratch.Clear()

	hasSolo := false
	for _, t := range m.AudioTracks {
		if t.Soloed {
			hasSolo = true
			break
		}
	}
	if !hasSolo {
		for _, t := range m.MidiTracks {
			if t.Soloed {
				hasSolo = true
				break
			}
		}
	}

	for _, t := range m.AudioTracks {
		t.Render(startFrame, frameCount, hasSolo, m.sampleRate)
		m.masterScratch.MixFrom(t.Output(), 1)
	}
	for _, t := range m.MidiTracks {
		t.Render(startFrame, frameCount, m.sampleRate, m.bpm(), hasSolo)
		m.masterScratch.MixFrom(t.Output(), 1)
	}

	m.MasterEffects.Process(m.masterScratch, m.sampleRate)
	m.masterScratch.ApplyGain(m.MasterGain)
	m.masterScratch.Clamp()

	left, right := m.masterScratch.Peak()
	rmsL, rmsR := m.masterScratch.RMS()
	m.lastMeters = Meters{LeftPeak: left, RightPeak: right, LeftRMS: rmsL, RightRMS: rmsR}

	return m.masterScratch
}

func (m *MasterMixer) bpm() float64 {
	if m.BPM > 0 {
		return m.BPM
	}
	return 120
}

// LastMeters returns the measurements taken during the most recent Render
// call.
func (m *MasterMixer) LastMeters() Meters { return m.lastMeters }

// TotalDurationFrames returns the largest end frame across every audio
// clip and, converting ticks to frames at bpm, every MIDI clip. A bpm of
// zero or less falls back to the mixer's own tempo (BPM, or 120).
func (m *MasterMixer) TotalDurationFrames(bpm float64) int64 {
	if bpm <= 0 {
		bpm = m.bpm()
	}
	var max int64
	for _, t := range m.AudioTracks {
		if d := t.TotalDurationFrames(); d > max {
			max = d
		}
	}
	for _, t := range m.MidiTracks {
		ticks := t.TotalDurationTicks()
		frames := track.TicksToFrames(ticks, bpm, m.sampleRate)
		if frames > max {
			max = frames
		}
	}
	return max
}

// ResetAll zeroes every track's stateful DSP (effect chains, voice banks)
// while leaving parameter values untouched, per the transport's Stop/Seek
// reset contract.
func (m *MasterMixer) ResetAll() {
	for _, t := range m.AudioTracks {
		t.Reset()
	}
	for _, t := range m.MidiTracks {
		t.Reset()
	}
	m.MasterEffects.Reset()
}
