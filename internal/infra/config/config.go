// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/zainalm/sirenbox/internal/domain/mode"
	"github.com/zainalm/sirenbox/internal/domain/pattern"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	Player     PlayerConfig     `yaml:"player"`
	Transcoder TranscoderConfig `yaml:"transcoder"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Modes      []ModeConfig     `yaml:"modes"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr      string `yaml:"addr" default:":5000"`
	StaticDir string `yaml:"static_dir" default:"static"`
	TLSCert   string `yaml:"tls_cert"`
	TLSKey    string `yaml:"tls_key"`
}

// AudioConfig represents the asset store and PCM format configuration.
type AudioConfig struct {
	Dir          string  `yaml:"dir" default:"/var/lib/sirenbox/sirens"`
	SampleRate   int     `yaml:"sample_rate" default:"44100" validate:"gt=0"`
	BitDepth     int     `yaml:"bit_depth" default:"16" validate:"oneof=16 24 32"`
	Channels     int     `yaml:"channels" default:"2" validate:"gte=1,lte=8"`
	Amplitude    float64 `yaml:"amplitude" default:"0.75" validate:"gt=0,lte=0.95"`
	RestartGapMs int     `yaml:"restart_gap_ms" default:"150" validate:"gte=0,lte=5000"`
}

// PlayerConfig represents the external playback engine configuration.
type PlayerConfig struct {
	Command string   `yaml:"command" default:"aplay"`
	Args    []string `yaml:"args" default:"[\"-q\"]"`
	Loops   int      `yaml:"loops" default:"9999" validate:"gt=0"`
}

// TranscoderConfig represents the external transcoder configuration.
type TranscoderConfig struct {
	Command    string `yaml:"command" default:"ffmpeg"`
	TimeoutSec int    `yaml:"timeout_sec" default:"30" validate:"gte=0"`
}

// GPIOConfig represents hardware button and LED wiring (BCM line offsets).
type GPIOConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Chip       string `yaml:"chip" default:"gpiochip0"`
	StartPin   int    `yaml:"start_pin" default:"17"`
	ModePin    int    `yaml:"mode_pin" default:"22"`
	LEDPin     int    `yaml:"led_pin" default:"27"`
	DebounceMs int    `yaml:"debounce_ms" default:"50" validate:"gte=0"`
}

// ModeConfig represents a single alarm mode. A mode is backed either by a
// built-in pattern matching its name, an inline pattern, or uploads (the
// custom mode).
type ModeConfig struct {
	Name    string           `yaml:"name" validate:"required"`
	File    string           `yaml:"file"`
	Pattern []map[string]any `yaml:"pattern,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return finish(&cfg)
}

// Default returns the built-in configuration, used when no file is given.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if len(cfg.Modes) == 0 {
		cfg.Modes = defaultModes()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

func defaultModes() []ModeConfig {
	return []ModeConfig{
		{Name: "flood"},
		{Name: "earthquake"},
		{Name: mode.CustomName},
	}
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SIRENBOX_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SIRENBOX_AUDIO_DIR"); v != "" {
		c.Audio.Dir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]bool, len(c.Modes))
	hasCustom := false
	for _, m := range c.Modes {
		if seen[m.Name] {
			return errors.Newf("duplicate mode %q", m.Name)
		}
		seen[m.Name] = true
		if m.Name == mode.CustomName {
			hasCustom = true
			if len(m.Pattern) > 0 {
				return errors.Newf("mode %q is upload-backed and cannot declare a pattern", m.Name)
			}
			continue
		}
		if len(m.Pattern) == 0 {
			if _, ok := pattern.Builtin(m.Name); !ok {
				return errors.Newf("mode %q has no pattern and no built-in with that name exists", m.Name)
			}
		}
	}
	if !hasCustom {
		return errors.Newf("mode list must include the %q mode", mode.CustomName)
	}

	// Decode inline patterns eagerly so bad config fails at startup,
	// not on the first playback.
	if _, err := c.BuildModes(); err != nil {
		return err
	}

	return nil
}

// BuildModes resolves the configured mode list into domain modes with
// absolute asset paths and decoded patterns.
func (c *Config) BuildModes() ([]mode.Mode, error) {
	modes := make([]mode.Mode, 0, len(c.Modes))
	for _, mc := range c.Modes {
		file := mc.File
		if file == "" {
			file = mc.Name + ".wav"
		}

		m := mode.Mode{
			Name:      mc.Name,
			AssetPath: filepath.Join(c.Audio.Dir, file),
		}

		if mc.Name != mode.CustomName {
			if len(mc.Pattern) > 0 {
				p, err := pattern.DecodeSegments(mc.Pattern)
				if err != nil {
					return nil, errors.Wrapf(err, "mode %s", mc.Name)
				}
				m.Pattern = p
			} else if p, ok := pattern.Builtin(mc.Name); ok {
				m.Pattern = p
			}
		}

		modes = append(modes, m)
	}
	return modes, nil
}

// Format returns the canonical PCM format.
func (c *Config) Format() pattern.Format {
	return pattern.Format{
		SampleRate: c.Audio.SampleRate,
		BitDepth:   c.Audio.BitDepth,
		Channels:   c.Audio.Channels,
	}
}

// UploadsDir returns the directory for temporary upload artifacts.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.Audio.Dir, "uploads")
}

// CustomAssetPath returns the asset file backing the custom mode.
func (c *Config) CustomAssetPath() string {
	for _, mc := range c.Modes {
		if mc.Name == mode.CustomName {
			file := mc.File
			if file == "" {
				file = mc.Name + ".wav"
			}
			return filepath.Join(c.Audio.Dir, file)
		}
	}
	return filepath.Join(c.Audio.Dir, mode.CustomName+".wav")
}

// RestartGap returns the pause between stopping and restarting a loop.
func (c *Config) RestartGap() time.Duration {
	return time.Duration(c.Audio.RestartGapMs) * time.Millisecond
}

// TranscodeTimeout returns the per-invocation transcoder limit.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Transcoder.TimeoutSec) * time.Second
}

// Debounce returns the button debounce period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.GPIO.DebounceMs) * time.Millisecond
}
