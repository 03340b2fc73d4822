// Package transport drives the render loop: the §4.J state machine, the
// per-block command-drain/render/telemetry-post/advance cycle, and a
// rolling render-duration histogram (pkg/transport.Diagnostics) that makes
// the deadline-bound property observable.
package transport

import (
	"sync"
	"time"

	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/mixer"
	"github.com/wavepath/dawcore/pkg/xchan"
)

// State is the transport's playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// Sink receives each rendered block. Implementations (e.g. a PortAudio
// callback bridge) may apply back-pressure by blocking inside Write; the
// render loop treats that as the suspension point §5 permits.
type Sink interface {
	Write(buf *audio.Buffer)
}

// Transport owns the playback state machine and drives MasterMixer,
// reading commands from a CommandChannel and posting telemetry to a
// TelemetryChannel once per block.
type Transport struct {
	mu    sync.Mutex
	state State
	cursor int64

	bufferFrames int64
	sampleRate   float64

	mixer       *mixer.MasterMixer
	commands    *xchan.CommandChannel
	telemetry   *xchan.TelemetryChannel
	sink        Sink
	diagnostics *Diagnostics

	paramTargets  map[int]ParamTarget
	midiTargets   map[int]MidiTarget
	effectTargets map[int]ParamTarget

	stopCh chan struct{}
}

// ParamTarget receives SetParam commands addressed to a given trackRef.
type ParamTarget interface {
	SetParam(index int, value float64)
}

// MidiTarget receives MidiOn/MidiOff commands addressed to a given
// trackRef.
type MidiTarget interface {
	MidiOn(note, velocity uint8)
	MidiOff(note uint8)
}

// New creates a Transport around an already-wired mixer and channels.
func New(m *mixer.MasterMixer, bufferFrames int64, sampleRate float64, commands *xchan.CommandChannel, telemetry *xchan.TelemetryChannel) *Transport {
	return &Transport{
		bufferFrames:  bufferFrames,
		sampleRate:    sampleRate,
		mixer:         m,
		commands:      commands,
		telemetry:     telemetry,
		diagnostics:   newDiagnostics(),
		paramTargets:  make(map[int]ParamTarget),
		midiTargets:   make(map[int]MidiTarget),
		effectTargets: make(map[int]ParamTarget),
		stopCh:        make(chan struct{}),
	}
}

// AttachSink sets the block sink; may be changed only while Stopped.
func (t *Transport) AttachSink(s Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = s
}

// RegisterParamTarget binds trackRef to a SetParam-capable receiver, so
// command.SetParam{TrackRef: trackRef, ...} can be applied.
func (t *Transport) RegisterParamTarget(trackRef int, target ParamTarget) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paramTargets[trackRef] = target
}

// RegisterMidiTarget binds trackRef to a MidiOn/MidiOff-capable receiver.
func (t *Transport) RegisterMidiTarget(trackRef int, target MidiTarget) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.midiTargets[trackRef] = target
}

// RegisterEffectTarget binds effectRef to a SetParam-capable receiver,
// implementing spec's `SetParam(effectRef, paramIndex, value)` binding —
// command.SetEffectParam{EffectRef: effectRef, ...} reaches the effect's
// own indexed param.Set rather than a track's volume/pan.
func (t *Transport) RegisterEffectTarget(effectRef int, target ParamTarget) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.effectTargets[effectRef] = target
}

// State returns the current transport state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Cursor returns the current frame cursor.
func (t *Transport) Cursor() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// Diagnostics returns the render-duration histogram.
func (t *Transport) Diagnostics() *Diagnostics { return t.diagnostics }

// applyCommand mutates transport state per the §4.J state machine. Called
// only from the render loop goroutine.
func (t *Transport) applyCommand(cmd xchan.Command) {
	switch cmd.Kind {
	case xchan.Play:
		if t.state != Playing {
			t.state = Playing
		}
	case xchan.Pause:
		if t.state == Playing {
			t.state = Paused
		}
	case xchan.Stop:
		t.state = Stopped
		t.cursor = 0
		t.mixer.ResetAll()
	case xchan.Seek:
		t.cursor = cmd.Frame
		if t.state != Stopped {
			t.mixer.ResetAll()
		}
	case xchan.SetParam:
		if target, ok := t.paramTargets[cmd.TrackRef]; ok {
			target.SetParam(cmd.ParamIndex, cmd.Value)
		}
	case xchan.MidiOn:
		if target, ok := t.midiTargets[cmd.TrackRef]; ok {
			target.MidiOn(cmd.Note, cmd.Velocity)
		}
	case xchan.MidiOff:
		if target, ok := t.midiTargets[cmd.TrackRef]; ok {
			target.MidiOff(cmd.Note)
		}
	case xchan.SetEffectParam:
		if target, ok := t.effectTargets[cmd.EffectRef]; ok {
			target.SetParam(cmd.ParamIndex, cmd.Value)
		}
	}
}

// RunOnce executes exactly one loop iteration: drain commands, and if
// Playing, render one block, post telemetry, emit to the sink, and
// advance the cursor. Returns true if a block was rendered.
func (t *Transport) RunOnce() bool {
	t.mu.Lock()
	t.commands.DrainInto(t.applyCommand)

	if t.state != Playing {
		t.mu.Unlock()
		return false
	}

	cursor := t.cursor
	mixerRef := t.mixer
	sink := t.sink
	bufferFrames := t.bufferFrames
	t.mu.Unlock()

	start := time.Now()
	block := mixerRef.Render(cursor, bufferFrames)
	elapsed := time.Since(start)
	t.diagnostics.record(elapsed)

	meters := mixerRef.LastMeters()
	t.telemetry.Post(xchan.Telemetry{
		LeftPeak: meters.LeftPeak, RightPeak: meters.RightPeak,
		LeftRMS: meters.LeftRMS, RightRMS: meters.RightRMS,
		FrameCursor: cursor,
	})

	if sink != nil {
		sink.Write(block)
	}

	t.mu.Lock()
	t.cursor += bufferFrames
	total := mixerRef.TotalDurationFrames(mixerRef.BPM)
	if total > 0 && t.cursor >= total {
		t.state = Stopped
		t.cursor = 0
	}
	t.mu.Unlock()

	return true
}

// StopLoop signals Run's loop to exit; it does not touch transport state.
func (t *Transport) StopLoop() { close(t.stopCh) }

// Run drives RunOnce in a loop at a rate governed by the sink's own pacing
// when one is attached, or a conservative rate-limit (0.8*bufferFrames/
// sampleRate) when none is — matching §4.J's pacing delegation. It parks
// on a short timer rather than busy-spinning while not Playing.
func (t *Transport) Run() {
	idleWait := 100 * time.Millisecond
	playingWait := time.Duration(0.8 * float64(t.bufferFrames) / t.sampleRate * float64(time.Second))

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		rendered := t.RunOnce()
		t.mu.Lock()
		hasSink := t.sink != nil
		t.mu.Unlock()
		if hasSink && rendered {
			continue // the sink's Write call already provided back-pressure
		}
		if rendered {
			time.Sleep(playingWait)
		} else {
			time.Sleep(idleWait)
		}
	}
}
