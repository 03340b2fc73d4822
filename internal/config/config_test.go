package config

import "testing"

func TestDefaultPassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestValidateRejectsBadSampleRate(t *testing.T) {
	cfg := Default()
	cfg.SampleRate = 22050
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unsupported sample rate")
	}
}

func TestValidateRejectsNonPowerOfTwoBuffer(t *testing.T) {
	cfg := Default()
	cfg.BufferFrames = 1000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for non-power-of-two buffer_frames")
	}
}

func TestValidateRejectsBadChannels(t *testing.T) {
	cfg := Default()
	cfg.Channels = 4
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for channels outside {1,2}")
	}
}

func TestValidateRejectsLowCommandCapacity(t *testing.T) {
	cfg := Default()
	cfg.CommandCapacity = 10
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for command_capacity < 256")
	}
}
