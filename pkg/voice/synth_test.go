package voice

import (
	"testing"

	"github.com/wavepath/dawcore/pkg/audio"
)

func TestSynthBankInstantDecayDeactivatesBySecondBlock(t *testing.T) {
	sampleRate := 44100.0
	bank := NewSynthBank(4, Sine, 0, 1.0/sampleRate, 0, 0, 0, 1.0)
	bank.NoteOn(60, 100)
	bank.NoteOff(60)

	buf := audio.NewBuffer(512, 1)
	bank.Render(buf, sampleRate)
	if bank.ActiveVoices() != 0 {
		t.Fatalf("expected zero-release voice inactive after first block, got %d active", bank.ActiveVoices())
	}
	buf2 := audio.NewBuffer(512, 1)
	bank.Render(buf2, sampleRate)
	if bank.ActiveVoices() != 0 {
		t.Fatalf("expected voice inactive by second block, got %d active", bank.ActiveVoices())
	}
}

func TestSynthBankPolyphonicNoteTracking(t *testing.T) {
	bank := NewSynthBank(32, Saw, 0, 0.01, 0.1, 0.7, 0.2, 0.3)
	bank.NoteOn(60, 100)
	bank.NoteOn(64, 100)
	bank.NoteOn(67, 100)

	if bank.ActiveVoices() != 3 {
		t.Fatalf("ActiveVoices() = %d, want 3", bank.ActiveVoices())
	}

	sampleRate := 44100.0
	buf := audio.NewBuffer(512, 1)
	bank.Render(buf, sampleRate)
	buf2 := audio.NewBuffer(512, 1)
	bank.Render(buf2, sampleRate)

	peak1, _ := buf.Peak()
	peak2, _ := buf2.Peak()
	if peak1 > 1.0 || peak2 > 1.0 {
		t.Fatalf("peak exceeded 1.0: %v, %v", peak1, peak2)
	}

	bank.NoteOff(60)
	// render enough blocks to cover the 0.2s release period plus a block
	// margin; notes 64 and 67 are still held (sustaining), so only the
	// released voice for note 60 should deactivate.
	blocksFor02s := int(0.2*sampleRate/512) + 2
	for i := 0; i < blocksFor02s; i++ {
		b := audio.NewBuffer(512, 1)
		bank.Render(b, sampleRate)
	}
	if bank.ActiveVoices() != 2 {
		t.Fatalf("expected 2 voices still sustaining after note 60's release window, got %d", bank.ActiveVoices())
	}
}

func TestSynthBankResetDeactivatesAll(t *testing.T) {
	bank := NewSynthBank(8, Sine, 0, 0.01, 0.1, 0.7, 0.2, 1.0)
	bank.NoteOn(60, 100)
	bank.Reset()
	if bank.ActiveVoices() != 0 {
		t.Fatalf("ActiveVoices() after reset = %d, want 0", bank.ActiveVoices())
	}
}
