package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavepath/dawcore/internal/config"
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/effect"
	"github.com/wavepath/dawcore/pkg/track"
	"github.com/wavepath/dawcore/pkg/voice"
	"github.com/wavepath/dawcore/pkg/xchan"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(config.Default())
	require.NoError(t, err)
	return eng
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BufferFrames = 999
	_, err := New(cfg)
	require.Error(t, err)
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestEnqueueCommandFailsAtCapacity(t *testing.T) {
	cfg := config.Default()
	cfg.CommandCapacity = 256
	eng, err := New(cfg)
	require.NoError(t, err)

	var lastErr error
	for i := 0; i < 300; i++ {
		lastErr = eng.EnqueueCommand(xchan.Command{Kind: xchan.Play})
		if lastErr != nil {
			break
		}
	}
	require.Error(t, lastErr)
	var capErr *CapacityError
	assert.ErrorAs(t, lastErr, &capErr)
}

func TestScenarioPlayProducesTelemetryAndAdvancesCursor(t *testing.T) {
	eng := newTestEngine(t)
	source := audio.NewBuffer(4096, 2)
	clip := track.NewAudioClip("c", source, 0, 0, 4096)
	tr := track.NewAudioTrack("t", eng.Config().BufferFrames, eng.Config().Channels)
	tr.Clips = append(tr.Clips, clip)
	eng.AddAudioTrack(tr)

	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Play}))
	eng.Transport.RunOnce()
	eng.Transport.RunOnce()

	_, ok := eng.LatestTelemetry()
	assert.True(t, ok)
	assert.Equal(t, int64(eng.Config().BufferFrames*2), eng.Transport.Cursor())
}

func TestSetParamCommandRetargetsTrackVolume(t *testing.T) {
	eng := newTestEngine(t)
	tr := track.NewAudioTrack("t", eng.Config().BufferFrames, eng.Config().Channels)
	ref := eng.AddAudioTrack(tr)

	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.SetParam, TrackRef: ref, ParamIndex: 0, Value: 0.25}))
	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Play}))
	eng.Transport.RunOnce()

	assert.Equal(t, float32(0.25), tr.Volume)
}

func TestMidiOnCommandReachesRegisteredVoiceBank(t *testing.T) {
	eng := newTestEngine(t)
	bank := voice.NewSynthBank(8, voice.Sine, 0, 0.01, 0.05, 0.7, 0.1, 1)
	scratch := audio.NewBuffer(eng.Config().BufferFrames, eng.Config().Channels)
	tr := track.NewMidiTrack("t", bank, bank.NoteOn, bank.NoteOff, scratch)
	ref := eng.AddMidiTrack(tr)

	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.MidiOn, TrackRef: ref, Note: 60, Velocity: 100}))
	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Play}))
	eng.Transport.RunOnce()

	assert.Equal(t, 1, bank.ActiveVoices())
}

func TestSetEffectParamCommandReachesRegisteredEffect(t *testing.T) {
	eng := newTestEngine(t)
	tr := track.NewAudioTrack("t", eng.Config().BufferFrames, eng.Config().Channels)
	gain := effect.NewGain(0)
	tr.Effects.Add(gain)
	eng.AddAudioTrack(tr)
	ref := eng.RegisterEffectParam(gain)

	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.SetEffectParam, EffectRef: ref, ParamIndex: 0, Value: -12}))
	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Play}))
	eng.Transport.RunOnce()

	assert.Equal(t, -12.0, gain.Params().Get(0))
}

func TestReplaceClipSourceRejectedWhilePlaying(t *testing.T) {
	eng := newTestEngine(t)
	source := audio.NewBuffer(512, 2)
	clip := track.NewAudioClip("c", source, 0, 0, 512)

	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Play}))
	eng.Transport.RunOnce()

	newSource := audio.NewBuffer(512, 2)
	err := eng.ReplaceClipSource(clip, newSource)
	require.Error(t, err)
	var stateErr *StateViolation
	assert.ErrorAs(t, err, &stateErr)
	assert.True(t, errors.Is(err, ErrNotStopped))
}

func TestReplaceClipSourceAllowedWhileStopped(t *testing.T) {
	eng := newTestEngine(t)
	source := audio.NewBuffer(512, 2)
	clip := track.NewAudioClip("c", source, 0, 0, 512)

	newSource := audio.NewBuffer(512, 2)
	err := eng.ReplaceClipSource(clip, newSource)
	assert.NoError(t, err)
	assert.Same(t, newSource, clip.Source)
}

func TestStopResetsTransportCursor(t *testing.T) {
	eng := newTestEngine(t)
	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Play}))
	eng.Transport.RunOnce()
	require.NoError(t, eng.EnqueueCommand(xchan.Command{Kind: xchan.Stop}))
	eng.Transport.RunOnce()

	assert.Equal(t, int64(0), eng.Transport.Cursor())
}

func TestDiagnosticDrainReturnsPendingMessage(t *testing.T) {
	eng := newTestEngine(t)
	eng.Diagnostic().Set("buffer pointer unexpectedly nil")
	msg, ok := eng.Diagnostic().Drain()
	require.True(t, ok)
	assert.Contains(t, msg, "unexpectedly nil")

	_, ok = eng.Diagnostic().Drain()
	assert.False(t, ok)
}
