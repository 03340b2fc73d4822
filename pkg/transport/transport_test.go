package transport

import (
	"testing"

	"github.com/wavepath/dawcore/pkg/mixer"
	"github.com/wavepath/dawcore/pkg/xchan"
)

func newTestTransport() (*Transport, *xchan.CommandChannel, *xchan.TelemetryChannel) {
	m := mixer.NewMasterMixer(256, 2, 44100)
	cmds := xchan.NewCommandChannel(64)
	tel := xchan.NewTelemetryChannel(8)
	tr := New(m, 256, 44100, cmds, tel)
	return tr, cmds, tel
}

func TestTransportStoppedToPlayingOnPlay(t *testing.T) {
	tr, cmds, _ := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Play})
	tr.RunOnce()
	if tr.State() != Playing {
		t.Fatalf("state = %v, want Playing", tr.State())
	}
}

func TestTransportMonotonicCursorAdvance(t *testing.T) {
	tr, cmds, _ := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Play})
	tr.RunOnce()
	first := tr.Cursor()
	tr.RunOnce()
	second := tr.Cursor()
	if second-first != 256 {
		t.Fatalf("cursor delta = %d, want 256", second-first)
	}
}

func TestTransportStopResetsCursor(t *testing.T) {
	tr, cmds, _ := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Play})
	tr.RunOnce()
	tr.RunOnce()
	cmds.Enqueue(xchan.Command{Kind: xchan.Stop})
	tr.RunOnce()
	if tr.State() != Stopped {
		t.Fatalf("state = %v, want Stopped", tr.State())
	}
	if tr.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0 after Stop", tr.Cursor())
	}
}

func TestTransportSeekWhileStopped(t *testing.T) {
	tr, cmds, _ := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Seek, Frame: 5000})
	tr.RunOnce()
	if tr.Cursor() != 5000 {
		t.Fatalf("cursor = %d, want 5000", tr.Cursor())
	}
	if tr.State() != Stopped {
		t.Fatalf("state = %v, want Stopped", tr.State())
	}
}

func TestTransportPausedDoesNotAdvanceCursor(t *testing.T) {
	tr, cmds, _ := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Play})
	tr.RunOnce()
	cmds.Enqueue(xchan.Command{Kind: xchan.Pause})
	tr.RunOnce()
	before := tr.Cursor()
	tr.RunOnce()
	if tr.Cursor() != before {
		t.Fatalf("cursor advanced while Paused: %d -> %d", before, tr.Cursor())
	}
}

func TestTransportPostsTelemetryEachBlock(t *testing.T) {
	tr, cmds, tel := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Play})
	tr.RunOnce()
	if _, ok := tel.Latest(); !ok {
		t.Fatalf("expected a telemetry record after one Playing block")
	}
}

func TestDiagnosticsRecordsBlockDurations(t *testing.T) {
	tr, cmds, _ := newTestTransport()
	cmds.Enqueue(xchan.Command{Kind: xchan.Play})
	tr.RunOnce()
	snap := tr.Diagnostics().Snapshot()
	if snap.Samples != 1 {
		t.Fatalf("Samples = %d, want 1", snap.Samples)
	}
}
