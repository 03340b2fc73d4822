package voice

import (
	"math"

	"github.com/wavepath/dawcore/pkg/audio"
)

// Waveform selects the oscillator shape used by every voice in a bank.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
)

func oscillate(w Waveform, phase float64) float64 {
	switch w {
	case Saw:
		return 1 - 2*(phase/(2*math.Pi))
	case Square:
		if phase < math.Pi {
			return 1
		}
		return -1
	case Triangle:
		return 2*math.Abs(2*(phase/(2*math.Pi))-1) - 1
	default:
		return math.Sin(phase)
	}
}

// EnvStage names the ADSR phase of a synth voice.
type EnvStage int

const (
	Off EnvStage = iota
	Attack
	Decay
	Sustain
	Release
)

type synthVoice struct {
	active                  bool
	noteNumber              uint8
	velocity                uint8
	phase, phaseDetune      float64
	freq, freqDetune        float64
	envStage                EnvStage
	envLevel                float64
	releaseStartLevel       float64
	releaseSamplesRemaining int
	activatedAt             uint64
}

// SynthBank is a fixed-size polyphonic oscillator+ADSR voice bank.
type SynthBank struct {
	voices      []synthVoice
	notes       *noteTracker
	waveform    Waveform
	detuneCents float64
	attack      float64
	decay       float64
	sustain     float64
	release     float64
	masterVol      float64
	clock          uint64
	stealingMode   StealingMode
	// lastSampleRate is remembered from the most recent Render call since
	// NoteOff needs it to size the release countdown but is driven from
	// the command-drain path, outside of Render.
	lastSampleRate float64
}

// NewSynthBank creates a bank with maxVoices voices (spec default 32).
func NewSynthBank(maxVoices int, waveform Waveform, detuneCents, attack, decay, sustain, release, masterVolume float64) *SynthBank {
	return &SynthBank{
		voices:      make([]synthVoice, maxVoices),
		notes:       newNoteTracker(),
		waveform:    waveform,
		detuneCents: detuneCents,
		attack:      attack,
		decay:       decay,
		sustain:     sustain,
		release:     release,
		masterVol:   masterVolume,
	}
}

func noteToFreq(noteNumber uint8) float64 {
	return 440 * math.Pow(2, (float64(noteNumber)-69)/12)
}

// SetStealingMode configures the fallback steal strategy for when no voice
// is free and none are releasing. The default, StealOldest, overwrites the
// voice activated longest ago; StealNone leaves the incoming note unheard.
func (s *SynthBank) SetStealingMode(mode StealingMode) { s.stealingMode = mode }

// NoteOn allocates a voice for noteNumber/velocity: first inactive voice,
// else the Release voice with lowest envLevel, else voice 0.
func (s *SynthBank) NoteOn(noteNumber, velocity uint8) {
	idx := s.findFreeVoice()
	if idx < 0 {
		return
	}
	v := &s.voices[idx]

	freq := noteToFreq(noteNumber)
	*v = synthVoice{
		active:      true,
		noteNumber:  noteNumber,
		velocity:    velocity,
		freq:        freq,
		freqDetune:  freq * math.Pow(2, s.detuneCents/1200),
		envStage:    Attack,
		activatedAt: s.clock,
	}
	s.clock++
	s.notes.bind(noteNumber, idx)
}

func (s *SynthBank) findFreeVoice() int {
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
	default: // StealVoiceZero
		return 0
	}
}

// NoteOff transitions every active voice matching noteNumber (not already
// releasing) into Release.
func (s *SynthBank) NoteOff(noteNumber uint8) {
	sampleRate := s.lastSampleRate
	for _, idx := range s.notes.release(noteNumber) {
		v := &s.voices[idx]
		if v.active && v.envStage != Release {
			v.envStage = Release
			v.releaseStartLevel = v.envLevel
			v.releaseSamplesRemaining = int(s.release * sampleRate)
		}
	}
}

// AllNotesOff deactivates every voice and clears note tracking, used on
// transport reset.
func (s *SynthBank) AllNotesOff() {
	for i := range s.voices {
		s.voices[i] = synthVoice{}
	}
	s.notes.clear()
}

// Render additively mixes every active voice into buf.
func (s *SynthBank) Render(buf *audio.Buffer, sampleRate float64) {
	s.lastSampleRate = sampleRate
	frames := buf.FrameCount()
	channels := buf.Channels()
	attackInc := 1 / (s.attack * sampleRate)
	decayDec := (1 - s.sustain) / (s.decay * sampleRate)
	phaseInc2Pi := 2 * math.Pi

	for vi := range s.voices {
		v := &s.voices[vi]
		if !v.active {
			continue
		}
		for f := 0; f < frames; f++ {
			sample := (oscillate(s.waveform, v.phase) + oscillate(s.waveform, v.phaseDetune)) / 2

			switch v.envStage {
			case Attack:
				v.envLevel += attackInc
				if v.envLevel >= 1 {
					v.envLevel = 1
					v.envStage = Decay
				}
			case Decay:
				v.envLevel -= decayDec
				if v.envLevel <= s.sustain {
					v.envLevel = s.sustain
					v.envStage = Sustain
				}
			case Sustain:
				// holds
			case Release:
				if s.release <= 0 || v.releaseSamplesRemaining <= 0 {
					v.envLevel = 0
					v.envStage = Off
				} else {
					v.envLevel = v.releaseStartLevel * float64(v.releaseSamplesRemaining) / (s.release * sampleRate)
					v.releaseSamplesRemaining--
				}
			}

			out := float32(sample * v.envLevel * float64(v.velocity) / 127 * s.masterVol)
			for ch := 0; ch < channels; ch++ {
				buf.Set(f, ch, buf.At(f, ch)+out)
			}

			v.phase += phaseInc2Pi * v.freq / sampleRate
			if v.phase >= 2*math.Pi {
				v.phase -= 2 * math.Pi
			}
			v.phaseDetune += phaseInc2Pi * v.freqDetune / sampleRate
			if v.phaseDetune >= 2*math.Pi {
				v.phaseDetune -= 2 * math.Pi
			}
		}
		if v.envStage == Off {
			v.active = false
		}
	}
}

// ActiveVoices returns the number of currently active voices.
func (s *SynthBank) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

// Reset deactivates every voice, used on transport Seek/Stop.
func (s *SynthBank) Reset() { s.AllNotesOff() }
