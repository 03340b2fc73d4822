// Package voice implements the polyphonic voice banks: a fixed-size array
// of voices, allocated by note number, with a stealing policy when all
// voices are busy. Grounded on the teacher's framework/voice.Allocator
// (AllocationMode/StealingMode enums, noteToVoice map, round-robin
// free-voice search), collapsed to this engine's single default policy —
// Poly allocation: first inactive voice, else the Release voice with the
// lowest envelope level, else voice 0 — while keeping the mode enumeration
// for the monophonic-lead use case the teacher's own allocator anticipates.
// No bank takes an AllocationMode; both always allocate polyphonically.
package voice

// AllocationMode selects how incoming notes claim voices.
type AllocationMode int

const (
	// Poly gives each note its own voice, up to MaxVoices.
	Poly AllocationMode = iota
	// Mono keeps exactly one voice active, retriggering on each note.
	Mono
	// Legato behaves like Mono but does not retrigger the envelope when
	// a new note arrives while one is already held.
	Legato
	// Unison spreads one note across every idle voice for a thicker tone.
	Unison
)

// StealingMode selects which voice is sacrificed when a note arrives with
// no free voice and no voice in Release to take over from (the bank's
// default, final-resort fallback).
type StealingMode int

const (
	// StealVoiceZero overwrites voice 0 unconditionally — this engine's
	// specified default fallback.
	StealVoiceZero StealingMode = iota
	// StealOldest overwrites the voice that was activated longest ago.
	StealOldest
	// StealNone refuses to steal; the incoming note is dropped.
	StealNone
)

// noteTracker maps a note number to the voice index currently sounding it,
// supporting multiple simultaneous voices per note number (re-triggers).
type noteTracker struct {
	noteToVoice map[uint8][]int
}

func newNoteTracker() *noteTracker {
	return &noteTracker{noteToVoice: make(map[uint8][]int)}
}

func (n *noteTracker) bind(note uint8, voiceIdx int) {
	n.noteToVoice[note] = append(n.noteToVoice[note], voiceIdx)
}

// release removes and returns every voice index bound to note.
func (n *noteTracker) release(note uint8) []int {
	idxs := n.noteToVoice[note]
	delete(n.noteToVoice, note)
	return idxs
}

func (n *noteTracker) clear() {
	n.noteToVoice = make(map[uint8][]int)
}
