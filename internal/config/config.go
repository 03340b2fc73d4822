// Package config loads engine construction options from a TOML file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config mirrors the engine construction options of spec §6.
type Config struct {
	SampleRate        float64 `toml:"sample_rate"`
	Channels          int     `toml:"channels"`
	BufferFrames      int     `toml:"buffer_frames"`
	MaxVoicesPerSynth int     `toml:"max_voices_per_synth"`
	TelemetryCapacity int     `toml:"telemetry_capacity"`
	CommandCapacity   int     `toml:"command_capacity"`
}

// Default returns the construction defaults per spec §6.
func Default() Config {
	return Config{
		SampleRate:        44100,
		Channels:          2,
		BufferFrames:      1024,
		MaxVoicesPerSynth: 32,
		TelemetryCapacity: 8,
		CommandCapacity:   1024,
	}
}

// Load reads and parses a TOML config file, keeping Default() for any field
// the file does not set. It does not validate; see Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return cfg, nil
}

var validSampleRates = map[float64]bool{44100: true, 48000: true, 96000: true, 192000: true}

// Validate checks the config against spec §6's construction constraints,
// returning a descriptive error suitable for wrapping into
// engine.ConfigError.
func (c Config) Validate() error {
	if !validSampleRates[c.SampleRate] {
		return fmt.Errorf("config: sample_rate %v not in {44100,48000,96000,192000}", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("config: channels %d not in {1,2}", c.Channels)
	}
	if c.BufferFrames < 64 || c.BufferFrames > 8192 || !isPowerOfTwo(c.BufferFrames) {
		return fmt.Errorf("config: buffer_frames %d must be a power of two in [64,8192]", c.BufferFrames)
	}
	if c.MaxVoicesPerSynth < 8 {
		return fmt.Errorf("config: max_voices_per_synth %d must be >= 8", c.MaxVoicesPerSynth)
	}
	if c.TelemetryCapacity < 4 {
		return fmt.Errorf("config: telemetry_capacity %d must be >= 4", c.TelemetryCapacity)
	}
	if c.CommandCapacity < 256 {
		return fmt.Errorf("config: command_capacity %d must be >= 256", c.CommandCapacity)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
