// Package toolconfig loads the jamtransport CLI's own configuration: the
// default project directory, default channel count, declared device
// latencies (which feed the record offset), and log verbosity.
//
// This is deliberately separate from internal/sessionconfig, which is the
// per-project key=value file spec.md defines as part of the tape's on-disk
// format. toolconfig is ambient CLI convenience and follows the teacher's
// internal/config pattern of loading with viper and unmarshaling into a
// typed struct, generalized down from the teacher's profile/inheritance
// machinery (which this tool has no use for) to a flat struct.
package toolconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the CLI tool's own settings, distinct from a project's
// sessionconfig.Session.
type Config struct {
	ProjectDirectory      string `mapstructure:"project_directory" yaml:"project_directory"`
	DefaultChannels       int    `mapstructure:"default_channels" yaml:"default_channels"`
	PlaybackLatencyMicros int    `mapstructure:"playback_latency_micros" yaml:"playback_latency_micros"`
	CaptureLatencyMicros  int    `mapstructure:"capture_latency_micros" yaml:"capture_latency_micros"`
	VerboseLevel          int    `mapstructure:"verbose_level" yaml:"verbose_level"`
}

// Default returns the built-in tool defaults, used when no config file is
// present.
func Default() Config {
	return Config{
		ProjectDirectory:      filepath.Join(os.Getenv("HOME"), "Audio", "JamTransport"),
		DefaultChannels:       16,
		PlaybackLatencyMicros: 20000,
		CaptureLatencyMicros:  20000,
		VerboseLevel:          0,
	}
}

// Load reads configFile with viper and merges it over Default(). A
// missing file is not an error: Default() is returned unchanged.
func Load(configFile string) (Config, error) {
	cfg := Default()
	if configFile == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("JAMTRANSPORT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("toolconfig: read %s: %w", configFile, err)
	}

	v.SetDefault("project_directory", cfg.ProjectDirectory)
	v.SetDefault("default_channels", cfg.DefaultChannels)
	v.SetDefault("playback_latency_micros", cfg.PlaybackLatencyMicros)
	v.SetDefault("capture_latency_micros", cfg.CaptureLatencyMicros)
	v.SetDefault("verbose_level", cfg.VerboseLevel)

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("toolconfig: unmarshal %s: %w", configFile, err)
	}
	return cfg, nil
}

// RecordOffsetFrames derives R (spec.md §3/§9): the sum of declared
// playback and capture latencies, converted to frames at sampleRate.
func (c Config) RecordOffsetFrames(sampleRate int) int64 {
	totalMicros := int64(c.PlaybackLatencyMicros) + int64(c.CaptureLatencyMicros)
	return totalMicros * int64(sampleRate) / 1_000_000
}
