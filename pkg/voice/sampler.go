package voice

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
)

// LoopMode selects how a Zone's playback position wraps once it reaches
// loopEnd.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopForward
	LoopPingPong
)

// Zone describes one pitched region of sample-accurate playback data.
type Zone struct {
	Data        []float32 // mono sample data at SampleRate
	SampleRate  float64
	SampleStart int
	SampleEnd   int
	LoopStart   int
	LoopEnd     int
	RootKey     uint8
	TuneCents   float64
	LoopMode    LoopMode
}

const (
	samplerAttackMs  = 10
	samplerReleaseMs = 300
)

type samplerVoice struct {
	active                  bool
	noteNumber              uint8
	velocity                uint8
	zone                    *Zone
	pos                     float64
	rate                    float64
	direction               float64
	envStage                EnvStage
	envLevel                float64
	releaseStartLevel       float64
	releaseSamplesRemaining int
	activatedAt             uint64
}

// SamplerBank is a fixed-size pitched-sample-playback voice bank, sharing
// the same note-on/note-off allocation policy as SynthBank.
type SamplerBank struct {
	voices       []samplerVoice
	notes        *noteTracker
	zone         *Zone
	clock        uint64
	stealingMode StealingMode
}

// NewSamplerBank creates a bank of maxVoices voices playing from zone.
func NewSamplerBank(maxVoices int, zone *Zone) *SamplerBank {
	return &SamplerBank{
		voices: make([]samplerVoice, maxVoices),
		notes:  newNoteTracker(),
		zone:   zone,
	}
}

// SetStealingMode mirrors SynthBank.SetStealingMode.
func (s *SamplerBank) SetStealingMode(mode StealingMode) { s.stealingMode = mode }

func (s *SamplerBank) findFreeVoice() int {
	for i := range s.voices {
		if !s.voices[i].active {
			return i
		}
	}
	best := -1
	bestLevel := math.Inf(1)
	for i := range s.voices {
		if s.voices[i].envStage == Release && s.voices[i].envLevel < bestLevel {
			best = i
			bestLevel = s.voices[i].envLevel
		}
	}
	if best >= 0 {
		return best
	}
	switch s.stealingMode {
	case StealOldest:
		oldest := 0
		oldestClock := s.voices[0].activatedAt
		for i := 1; i < len(s.voices); i++ {
			if s.voices[i].activatedAt < oldestClock {
				oldest = i
				oldestClock = s.voices[i].activatedAt
			}
		}
		return oldest
	case StealNone:
		return -1
	default:
		return 0
	}
}

// NoteOn allocates a voice playing noteNumber/velocity from the bank's zone
// at the pitch-shifted playback rate.
func (s *SamplerBank) NoteOn(noteNumber, velocity uint8, sampleRateOut float64) {
	idx := s.findFreeVoice()
	if idx < 0 || s.zone == nil {
		return
	}
	z := s.zone
	semitones := float64(noteNumber) - float64(z.RootKey) + z.TuneCents/100
	rate := math.Pow(2, semitones/12) * z.SampleRate / sampleRateOut

	s.voices[idx] = samplerVoice{
		active:      true,
		noteNumber:  noteNumber,
		velocity:    velocity,
		zone:        z,
		pos:         float64(z.SampleStart),
		rate:        rate,
		direction:   1,
		envStage:    Attack,
		activatedAt: s.clock,
	}
	s.clock++
	s.notes.bind(noteNumber, idx)
}

// NoteOff transitions matching voices into Release.
func (s *SamplerBank) NoteOff(noteNumber uint8, sampleRateOut float64) {
	for _, idx := range s.notes.release(noteNumber) {
		v := &s.voices[idx]
		if v.active && v.envStage != Release {
			v.envStage = Release
			v.releaseStartLevel = v.envLevel
			v.releaseSamplesRemaining = int(samplerReleaseMs * 0.001 * sampleRateOut)
		}
	}
}

// AllNotesOff deactivates every voice, used on transport reset.
func (s *SamplerBank) AllNotesOff() {
	for i := range s.voices {
		s.voices[i] = samplerVoice{}
	}
	s.notes.clear()
}

// Reset mirrors AllNotesOff for the transport reset contract.
func (s *SamplerBank) Reset() { s.AllNotesOff() }

// ActiveVoices returns the number of currently active voices.
func (s *SamplerBank) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

// Render additively mixes every active voice's interpolated, enveloped
// playback into buf.
func (s *SamplerBank) Render(buf *audio.Buffer, sampleRate float64) {
	frames := buf.FrameCount()
	channels := buf.Channels()
	attackInc := 1.0 / (samplerAttackMs * 0.001 * sampleRate)

	for vi := range s.voices {
		v := &s.voices[vi]
		if !v.active || v.zone == nil {
			continue
		}
		z := v.zone
		for f := 0; f < frames; f++ {
			idx := int(math.Floor(v.pos))
			if idx < 0 || idx+1 >= len(z.Data) || idx < z.SampleStart || idx >= z.SampleEnd {
				v.active = false
				break
			}
			frac := float32(v.pos - math.Floor(v.pos))
			s0 := z.Data[idx]
			s1 := z.Data[idx+1]
			sample := s0*(1-frac) + s1*frac

			switch v.envStage {
			case Attack:
				v.envLevel += attackInc
				if v.envLevel >= 1 {
					v.envLevel = 1
					v.envStage = Sustain
				}
			case Sustain:
				// holds at 1
			case Release:
				if v.releaseSamplesRemaining <= 0 {
					v.envLevel = 0
					v.envStage = Off
				} else {
					v.envLevel = v.releaseStartLevel * float64(v.releaseSamplesRemaining) / (samplerReleaseMs * 0.001 * sampleRate)
					v.releaseSamplesRemaining--
				}
			}

			out := float32(float64(sample) * v.envLevel * float64(v.velocity) / 127)
			for ch := 0; ch < channels; ch++ {
				buf.Set(f, ch, buf.At(f, ch)+out)
			}

			v.pos += v.rate * v.direction
			if v.zone.LoopMode == LoopForward && v.pos >= float64(z.LoopEnd) {
				v.pos = float64(z.LoopStart) + (v.pos - float64(z.LoopEnd))
			} else if v.zone.LoopMode == LoopPingPong && v.pos >= float64(z.LoopEnd) {
				v.pos = float64(z.LoopEnd) - (v.pos - float64(z.LoopEnd))
				v.direction = -1
			} else if v.zone.LoopMode == LoopPingPong && v.pos <= float64(z.LoopStart) && v.direction < 0 {
				v.pos = float64(z.LoopStart) + (float64(z.LoopStart) - v.pos)
				v.direction = 1
			} else if v.zone.LoopMode == LoopNone && v.pos >= float64(z.SampleEnd) {
				v.active = false
				v.envStage = Off
				break
			}
		}
		if v.envStage == Off {
			v.active = false
		}
	}
}
