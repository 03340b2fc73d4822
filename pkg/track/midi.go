// Package track implements the clip and track models: MidiClip/MidiTrack
// schedule notes into a voice bank per render window, and AudioClip/
// AudioTrack render windowed views into source buffers. Both track kinds
// share the mute/solo gate, effect chain, volume and constant-power pan.
//
// MIDI scheduling is block-granular: every note-on/off whose tick falls in a
// render window reaches the voice bank before that window renders, so
// onsets snap to the block boundary; no sub-block offset is modeled.
package track

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/wavepath/dawcore/internal/clone"
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/effect"
	"github.com/wavepath/dawcore/pkg/param"
)

// paramRampSamples is the ramp length SetParam writes to volume/pan are
// smoothed over, avoiding a zipper click on the block boundary the write
// lands in.
const paramRampSamples = 64

// PPQ is the fixed ticks-per-quarter-note resolution musical time is
// expressed in.
const PPQ = 480

// SecondsToTicks converts a duration in seconds to ticks at the given BPM.
func SecondsToTicks(seconds, bpm float64) int64 {
	return int64(seconds * PPQ * bpm / 60)
}

// TicksToFrames converts a tick count to frames at the given BPM and
// sample rate, rounded to the nearest integer frame.
func TicksToFrames(ticks int64, bpm, sampleRate float64) int64 {
	seconds := float64(ticks) / PPQ * 60 / bpm
	return int64(seconds*sampleRate + 0.5)
}

// MidiNote is immutable: every editing method returns a replacement value
// rather than mutating the receiver.
type MidiNote struct {
	ID            uuid.UUID
	NoteNumber    uint8 // [0, 127]
	Velocity      uint8 // [1, 127]
	StartTick     int64
	DurationTicks int64 // >= 1
	Channel       uint8 // [0, 15]
}

// EndTick returns StartTick + DurationTicks.
func (n MidiNote) EndTick() int64 { return n.StartTick + n.DurationTicks }

// WithVelocity returns a copy of n with Velocity replaced.
func (n MidiNote) WithVelocity(v uint8) MidiNote {
	out := n
	out.Velocity = v
	return out
}

// WithDuration returns a copy of n with DurationTicks replaced.
func (n MidiNote) WithDuration(ticks int64) MidiNote {
	out := n
	out.DurationTicks = ticks
	return out
}

// NewMidiNote constructs a note with a fresh id.
func NewMidiNote(noteNumber, velocity uint8, startTick, durationTicks int64, channel uint8) MidiNote {
	return MidiNote{
		ID:            uuid.New(),
		NoteNumber:    noteNumber,
		Velocity:      velocity,
		StartTick:     startTick,
		DurationTicks: durationTicks,
		Channel:       channel,
	}
}

// MidiClip owns an ordered-by-(startTick, noteNumber) note list.
type MidiClip struct {
	ID          uuid.UUID
	Name        string
	StartTick   int64
	LengthTicks *int64 // nil means "derive from notes"
	notes       []MidiNote
}

// NewMidiClip creates an empty clip starting at startTick.
func NewMidiClip(name string, startTick int64) *MidiClip {
	return &MidiClip{ID: uuid.New(), Name: name, StartTick: startTick}
}

// Notes returns the clip's notes in stored order. Callers must not mutate
// the returned slice; use AddNote/RemoveNote to edit.
func (c *MidiClip) Notes() []MidiNote { return c.notes }

// AddNote inserts note, keeping the notes list ordered by (StartTick,
// NoteNumber). If an existing note at the same NoteNumber is fully covered
// by note's [StartTick, EndTick) span, it is removed first — this is the
// "remove fully covered duplicates" rule; partial overlaps are left
// unchanged, per the documented open-question resolution.
func (c *MidiClip) AddNote(note MidiNote) {
	notes := clone.Of(c.notes)

	kept := notes[:0]
	for _, existing := range notes {
		covered := existing.NoteNumber == note.NoteNumber &&
			existing.StartTick >= note.StartTick &&
			existing.EndTick() <= note.EndTick()
		if !covered {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, note)
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].StartTick != kept[j].StartTick {
			return kept[i].StartTick < kept[j].StartTick
		}
		return kept[i].NoteNumber < kept[j].NoteNumber
	})
	c.notes = kept
}

// RemoveNote deletes the note with the given id, if present.
func (c *MidiClip) RemoveNote(id uuid.UUID) {
	notes := clone.Of(c.notes)
	out := notes[:0]
	for _, n := range notes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	c.notes = out
}

// EffectiveLengthTicks returns LengthTicks if set, else the largest EndTick
// over all notes, or one whole note (4*PPQ ticks) if the clip is empty.
func (c *MidiClip) EffectiveLengthTicks() int64 {
	if c.LengthTicks != nil {
		return *c.LengthTicks
	}
	var maxEnd int64
	for _, n := range c.notes {
		if e := n.EndTick(); e > maxEnd {
			maxEnd = e
		}
	}
	if maxEnd == 0 {
		return 4 * PPQ
	}
	return maxEnd
}

// NoteOnEvents returns notes with StartTick in [fromTick, toTick), in
// (StartTick, NoteNumber) order.
func (c *MidiClip) NoteOnEvents(fromTick, toTick int64) []MidiNote {
	var out []MidiNote
	for _, n := range c.notes {
		if n.StartTick >= fromTick && n.StartTick < toTick {
			out = append(out, n)
		}
	}
	return out
}

// NoteOffEvents returns notes with EndTick in [fromTick, toTick), in
// (StartTick, NoteNumber) order.
func (c *MidiClip) NoteOffEvents(fromTick, toTick int64) []MidiNote {
	var out []MidiNote
	for _, n := range c.notes {
		if e := n.EndTick(); e >= fromTick && e < toTick {
			out = append(out, n)
		}
	}
	return out
}

// VoiceBank is the render/reset surface shared by SynthBank and
// SamplerBank, letting MidiTrack drive either without caring which; note-on
// and note-off go through the adapters passed to NewMidiTrack.
type VoiceBank interface {
	Render(buf *audio.Buffer, sampleRate float64)
	AllNotesOff()
}

// MidiTrack schedules note-on/off events from its clips into a voice bank
// each render window, then runs the bank's output through its effect chain,
// volume and pan.
type MidiTrack struct {
	ID      uuid.UUID
	Name    string
	Volume  float32
	Pan     float32
	Muted   bool
	Soloed  bool
	Clips   []*MidiClip
	Effects *effect.Chain
	Bank    VoiceBank

	noteOn  func(note, vel uint8)
	noteOff func(note uint8)

	scratch     *audio.Buffer
	activeNotes map[uuid.UUID]struct{}

	volumeSmoother *param.Smoother
	panSmoother    *param.Smoother
}

// NewMidiTrack creates a track around bank, with noteOn/noteOff adapters
// bound to the concrete bank type (SynthBank and SamplerBank take slightly
// different NoteOn signatures).
func NewMidiTrack(name string, bank VoiceBank, noteOn func(note, vel uint8), noteOff func(note uint8), scratch *audio.Buffer) *MidiTrack {
	return &MidiTrack{
		ID:             uuid.New(),
		Name:           name,
		Volume:         1,
		Effects:        effect.NewChain(),
		Bank:           bank,
		noteOn:         noteOn,
		noteOff:        noteOff,
		scratch:        scratch,
		activeNotes:    make(map[uuid.UUID]struct{}),
		volumeSmoother: param.NewSmoother(1, paramRampSamples),
		panSmoother:    param.NewSmoother(0, paramRampSamples),
	}
}

// MidiOn implements transport.MidiTarget, driving the bank directly for
// live input — e.g. a connected MIDI keyboard — independent of any
// clip-scheduled note-on in the same render window.
func (t *MidiTrack) MidiOn(note, velocity uint8) {
	t.noteOn(note, velocity)
}

// MidiOff implements transport.MidiTarget, the live-input counterpart to
// MidiOn.
func (t *MidiTrack) MidiOff(note uint8) {
	t.noteOff(note)
}

// SetParam implements transport.ParamTarget: index 0 retargets volume,
// index 1 retargets pan. Both ramp over paramRampSamples rather than
// jumping, so a command landing mid-playback doesn't click.
func (t *MidiTrack) SetParam(index int, value float64) {
	switch index {
	case 0:
		t.Volume = float32(value)
		t.volumeSmoother.SetTarget(value)
	case 1:
		t.Pan = float32(value)
		t.panSmoother.SetTarget(value)
	}
}

// Render implements the 4.G render algorithm.
func (t *MidiTrack) Render(startFrame, frameCount int64, sampleRate, bpm float64, hasSolo bool) {
	t.scratch.Clear()
	if t.Muted || (hasSolo && !t.Soloed) {
		return
	}

	startTick := SecondsToTicks(float64(startFrame)/sampleRate, bpm)
	endTick := SecondsToTicks(float64(startFrame+frameCount)/sampleRate, bpm)

	for _, clip := range t.Clips {
		localFrom := startTick - clip.StartTick
		localTo := endTick - clip.StartTick

		for _, n := range clip.NoteOnEvents(localFrom, localTo) {
			t.noteOn(n.NoteNumber, n.Velocity)
			t.activeNotes[n.ID] = struct{}{}
		}
		for _, n := range clip.NoteOffEvents(localFrom, localTo) {
			t.noteOff(n.NoteNumber)
			delete(t.activeNotes, n.ID)
		}
	}

	t.Bank.Render(t.scratch, sampleRate)
	t.Effects.Process(t.scratch, sampleRate)

	applyVolumePan(t.scratch, t.volumeSmoother, t.panSmoother)
}

// Output returns the track's scratch buffer, valid until the next Render
// call.
func (t *MidiTrack) Output() *audio.Buffer { return t.scratch }

// Reset invokes allNotesOff on the voice bank, clears activeNotes, and
// resets the effect chain — the transport reset contract for MIDI tracks.
func (t *MidiTrack) Reset() {
	t.Bank.AllNotesOff()
	t.activeNotes = make(map[uuid.UUID]struct{})
	t.Effects.Reset()
	t.volumeSmoother.Reset(float64(t.Volume))
	t.panSmoother.Reset(float64(t.Pan))
}

// TotalDurationTicks returns the largest clip end tick across this track's
// clips, or 0 if it has none.
func (t *MidiTrack) TotalDurationTicks() int64 {
	var max int64
	for _, c := range t.Clips {
		if e := c.StartTick + c.EffectiveLengthTicks(); e > max {
			max = e
		}
	}
	return max
}

// applyVolumePan scales buf frame-by-frame by volSm's ramped volume and, for
// stereo buffers, by the constant-power left/right gains derived from
// theta = (pan+1)*pi/4 with pan ramped through panSm.
func applyVolumePan(buf *audio.Buffer, volSm, panSm *param.Smoother) {
	channels := buf.Channels()
	frames := buf.FrameCount()
	if channels < 2 {
		for f := 0; f < frames; f++ {
			vol := float32(volSm.Next())
			panSm.Next()
			buf.Set(f, 0, buf.At(f, 0)*vol)
		}
		return
	}
	for f := 0; f < frames; f++ {
		vol := volSm.Next()
		theta := (panSm.Next() + 1) * math.Pi / 4
		left := float32(math.Cos(theta)) * float32(vol)
		right := float32(math.Sin(theta)) * float32(vol)
		buf.Set(f, 0, buf.At(f, 0)*left)
		buf.Set(f, 1, buf.At(f, 1)*right)
	}
}
