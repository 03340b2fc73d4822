// Package engine wires together the config, mixer, transport and
// cross-thread channels into the top-level dawcore render engine —
// the one type external callers construct and drive.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/wavepath/dawcore/internal/config"
	"github.com/wavepath/dawcore/internal/rtlog"
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/effect"
	"github.com/wavepath/dawcore/pkg/mixer"
	"github.com/wavepath/dawcore/pkg/track"
	"github.com/wavepath/dawcore/pkg/transport"
	"github.com/wavepath/dawcore/pkg/xchan"
)

// Diagnostic is a preallocated out-of-band message slot that can be written
// without logging (§7's "no logging on the render worker" constraint). A
// control-side watcher drains it and forwards to rtlog. The transport's
// render loop holds no reference to it and does not write to it.
type Diagnostic struct {
	message atomic.Value // string
}

// Set publishes msg, overwriting any prior unread message. Safe to call
// from the render worker.
func (d *Diagnostic) Set(msg string) { d.message.Store(msg) }

// Drain returns the most recently published message and clears the slot,
// or ("", false) if nothing is pending.
func (d *Diagnostic) Drain() (string, bool) {
	v := d.message.Swap("")
	if v == nil {
		return "", false
	}
	s := v.(string)
	if s == "" {
		return "", false
	}
	return s, true
}

// Engine is the top-level render core: construction validates Config,
// wires a MasterMixer, a Transport, and the two cross-thread channels.
type Engine struct {
	mu sync.Mutex

	cfg       config.Config
	Mixer     *mixer.MasterMixer
	Transport *transport.Transport
	Commands  *xchan.CommandChannel
	Telemetry *xchan.TelemetryChannel

	diagnostic    Diagnostic
	nextTrackRef  int
	nextEffectRef int
}

// New validates cfg and constructs an Engine, or returns a ConfigError
// synchronously without constructing anything.
func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	commands := xchan.NewCommandChannel(cfg.CommandCapacity)
	telemetry := xchan.NewTelemetryChannel(cfg.TelemetryCapacity)
	m := mixer.NewMasterMixer(cfg.BufferFrames, cfg.Channels, cfg.SampleRate)
	tr := transport.New(m, int64(cfg.BufferFrames), cfg.SampleRate, commands, telemetry)

	return &Engine{
		cfg:       cfg,
		Mixer:     m,
		Transport: tr,
		Commands:  commands,
		Telemetry: telemetry,
	}, nil
}

// Config returns the engine's construction configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// EnqueueCommand enqueues cmd for the render worker, returning a
// CapacityError instead of blocking if the command queue is full.
func (e *Engine) EnqueueCommand(cmd xchan.Command) error {
	if err := e.Commands.Enqueue(cmd); err != nil {
		return &CapacityError{Reason: err.Error()}
	}
	return nil
}

// LatestTelemetry returns the most recent telemetry record, if any.
func (e *Engine) LatestTelemetry() (xchan.Telemetry, bool) {
	return e.Telemetry.Latest()
}

// AddAudioTrack registers tr with the mixer and returns the trackRef that
// addresses it in a SetParam command (volume at ParamIndex 0, pan at 1).
func (e *Engine) AddAudioTrack(tr *track.AudioTrack) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Mixer.AudioTracks = append(e.Mixer.AudioTracks, tr)
	ref := e.nextTrackRef
	e.nextTrackRef++
	e.Transport.RegisterParamTarget(ref, tr)
	return ref
}

// AddMidiTrack registers tr with the mixer and returns the trackRef that
// addresses it in a SetParam command (volume at ParamIndex 0, pan at 1).
func (e *Engine) AddMidiTrack(tr *track.MidiTrack) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Mixer.MidiTracks = append(e.Mixer.MidiTracks, tr)
	ref := e.nextTrackRef
	e.nextTrackRef++
	e.Transport.RegisterParamTarget(ref, tr)
	e.Transport.RegisterMidiTarget(ref, tr)
	return ref
}

// RegisterEffectParam exposes eff's indexed parameter set to
// xchan.Command{Kind: SetEffectParam} commands, returning the effectRef
// that addresses it per spec's `SetParam(effectRef, paramIndex, value)`
// binding. Callers still add eff to whichever chain it belongs to
// themselves (master or a track's Effects); this only wires its
// control-side addressability.
func (e *Engine) RegisterEffectParam(eff effect.Effect) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	ref := e.nextEffectRef
	e.nextEffectRef++
	e.Transport.RegisterEffectTarget(ref, effect.NewParamTarget(eff))
	return ref
}

// ReplaceClipSource swaps clip's source buffer, but only while the
// transport is Stopped — per §5's shared-resource policy that clip source
// data is read-only on the render worker after publication.
func (e *Engine) ReplaceClipSource(clip *track.AudioClip, source *audio.Buffer) error {
	if e.Transport.State() != transport.Stopped {
		return &StateViolation{Reason: ErrNotStopped.Error()}
	}
	clip.Source = source
	clip.SourceChannels = source.Channels()
	return nil
}

// Diagnostic returns the engine's out-of-band fatal-anomaly slot.
func (e *Engine) Diagnostic() *Diagnostic { return &e.diagnostic }

// DrainDiagnostics forwards any pending diagnostic message to rtlog. A
// control-side watcher calls this periodically; the render worker never
// calls it itself.
func (e *Engine) DrainDiagnostics() {
	if msg, ok := e.diagnostic.Drain(); ok {
		rtlog.Error("render worker: %s", msg)
	}
}

// Run starts the render loop on the calling goroutine; callers typically
// invoke this in its own goroutine.
func (e *Engine) Run() { e.Transport.Run() }

// Shutdown stops the render loop.
func (e *Engine) Shutdown() { e.Transport.StopLoop() }
