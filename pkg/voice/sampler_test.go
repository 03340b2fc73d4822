package voice

import (
	"testing"

	"github.com/wavepath/dawcore/pkg/audio"
)

func makeTestZone() *Zone {
	data := make([]float32, 2000)
	for i := range data {
		data[i] = 0.5
	}
	return &Zone{
		Data:        data,
		SampleRate:  44100,
		SampleStart: 0,
		SampleEnd:   1900,
		LoopStart:   100,
		LoopEnd:     1800,
		RootKey:     60,
		LoopMode:    LoopNone,
	}
}

func TestSamplerBankDeactivatesAtSampleEnd(t *testing.T) {
	zone := makeTestZone()
	zone.SampleEnd = 600
	bank := NewSamplerBank(4, zone)
	bank.NoteOn(60, 100, 44100)

	buf := audio.NewBuffer(512, 1)
	bank.Render(buf, 44100)
	buf2 := audio.NewBuffer(512, 1)
	bank.Render(buf2, 44100)

	if bank.ActiveVoices() != 0 {
		t.Fatalf("expected voice deactivated after reaching sampleEnd, got %d active", bank.ActiveVoices())
	}
}

func TestSamplerBankRootKeyUnityRate(t *testing.T) {
	zone := makeTestZone()
	bank := NewSamplerBank(2, zone)
	bank.NoteOn(zone.RootKey, 100, 44100)
	if bank.voices[0].rate < 0.999 || bank.voices[0].rate > 1.001 {
		t.Fatalf("rate at root key = %v, want ~1.0", bank.voices[0].rate)
	}
}

func TestSamplerBankLoopsForward(t *testing.T) {
	zone := makeTestZone()
	zone.LoopMode = LoopForward
	bank := NewSamplerBank(2, zone)
	bank.NoteOn(60, 100, 44100)

	for i := 0; i < 10; i++ {
		buf := audio.NewBuffer(512, 1)
		bank.Render(buf, 44100)
	}
	if bank.ActiveVoices() != 1 {
		t.Fatalf("expected looping voice to remain active, got %d", bank.ActiveVoices())
	}
}
