package track

import (
	"testing"

	"github.com/wavepath/dawcore/pkg/audio"
)

func makeSourceBuffer(frames, channels int, value float32) *audio.Buffer {
	buf := audio.NewBuffer(frames, channels)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			buf.Set(f, ch, value)
		}
	}
	return buf
}

func TestAudioClipSilentOutsideWindow(t *testing.T) {
	source := makeSourceBuffer(1000, 1, 0.5)
	clip := NewAudioClip("c1", source, 1000, 0, 500)

	dst := audio.NewBuffer(256, 1)
	clip.render(dst, 0, 256)
	peak, _ := dst.Peak()
	if peak != 0 {
		t.Fatalf("expected silence before clip start, got peak %v", peak)
	}
}

func TestAudioClipPlaysTrimmedWindow(t *testing.T) {
	source := makeSourceBuffer(1000, 1, 0.5)
	clip := NewAudioClip("c1", source, 0, 100, 200)

	dst := audio.NewBuffer(256, 1)
	clip.render(dst, 0, 256)

	if dst.At(0, 0) != 0.5 {
		t.Fatalf("frame 0 = %v, want 0.5", dst.At(0, 0))
	}
	if dst.At(199, 0) != 0.5 {
		t.Fatalf("frame 199 = %v, want 0.5 (last frame of clip)", dst.At(199, 0))
	}
	if dst.At(200, 0) != 0 {
		t.Fatalf("frame 200 = %v, want 0 (past clip end)", dst.At(200, 0))
	}
}

func TestAudioTrackMixesOverlappingClips(t *testing.T) {
	sourceA := makeSourceBuffer(500, 1, 0.3)
	sourceB := makeSourceBuffer(500, 1, 0.2)
	clipA := NewAudioClip("a", sourceA, 0, 0, 500)
	clipB := NewAudioClip("b", sourceB, 0, 0, 500)

	tr := NewAudioTrack("t1", 512, 1)
	tr.Clips = append(tr.Clips, clipA, clipB)
	tr.Render(0, 500, false, 44100)

	out := tr.Output()
	if got := out.At(0, 0); got < 0.49 || got > 0.51 {
		t.Fatalf("mixed sample = %v, want ~0.5", got)
	}
}

func TestAudioTrackMutedIsIdentitySilence(t *testing.T) {
	source := makeSourceBuffer(500, 1, 0.5)
	clip := NewAudioClip("a", source, 0, 0, 500)

	tr := NewAudioTrack("t1", 512, 1)
	tr.Clips = append(tr.Clips, clip)
	tr.Muted = true
	tr.Render(0, 500, false, 44100)

	peak, _ := tr.Output().Peak()
	if peak != 0 {
		t.Fatalf("muted track should render silence, got peak %v", peak)
	}
}

func TestAudioTrackSetParamRampsVolume(t *testing.T) {
	source := makeSourceBuffer(500, 1, 1.0)
	clip := NewAudioClip("a", source, 0, 0, 500)

	tr := NewAudioTrack("t1", 512, 1)
	tr.Clips = append(tr.Clips, clip)
	tr.SetParam(0, 0.5)

	tr.Render(0, 256, false, 44100)
	out := tr.Output()
	if first := out.At(0, 0); first >= 1.0 {
		t.Fatalf("first frame after SetParam should already be ramping down, got %v", first)
	}
	if last := out.At(paramRampSamples+10, 0); last < 0.49 || last > 0.51 {
		t.Fatalf("frame past ramp length = %v, want ~0.5", last)
	}
}

func TestAudioTrackTotalDurationFrames(t *testing.T) {
	source := makeSourceBuffer(500, 1, 0.5)
	clipA := NewAudioClip("a", source, 0, 0, 200)
	clipB := NewAudioClip("b", source, 300, 0, 400)

	tr := NewAudioTrack("t1", 512, 1)
	tr.Clips = append(tr.Clips, clipA, clipB)

	if got := tr.TotalDurationFrames(); got != 700 {
		t.Fatalf("TotalDurationFrames() = %d, want 700", got)
	}
}
