package toolconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNoFileReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(\"\") = %+v, want Default()", cfg)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(missing) = %+v, want Default()", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "default_channels: 4\nverbose_level: 2\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultChannels != 4 {
		t.Fatalf("DefaultChannels = %d, want 4", cfg.DefaultChannels)
	}
	if cfg.VerboseLevel != 2 {
		t.Fatalf("VerboseLevel = %d, want 2", cfg.VerboseLevel)
	}
	if cfg.PlaybackLatencyMicros != Default().PlaybackLatencyMicros {
		t.Fatalf("PlaybackLatencyMicros = %d, want default %d", cfg.PlaybackLatencyMicros, Default().PlaybackLatencyMicros)
	}
}

func TestRecordOffsetFramesDerivedFromLatencies(t *testing.T) {
	cfg := Config{PlaybackLatencyMicros: 10000, CaptureLatencyMicros: 10000}
	got := cfg.RecordOffsetFrames(44100)
	// (10000+10000)us * 44100 / 1e6 = 882 frames
	if got != 882 {
		t.Fatalf("RecordOffsetFrames = %d, want 882", got)
	}
}
