// Package config handles renderer-side configuration loading and management.
package config

import (
	"go.uber.org/multierr"

	"github.com/Faultbox/prism/internal/engine/imagegen"
	"github.com/Faultbox/prism/internal/errs"
	"github.com/Faultbox/prism/internal/logger"
)

// Config holds all settings.
type Config struct {
	Encoding EncodingConfig `yaml:"encoding"`
	Scene    SceneConfig    `yaml:"scene"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EncodingConfig holds frame encoding settings.
type EncodingConfig struct {
	Format     string `yaml:"format"`
	Quality    int    `yaml:"quality"`
	FlipY      bool   `yaml:"flip_y"`
	BufferHint int    `yaml:"buffer_hint"` // bytes pre-allocated for JPEG output
}

// SceneConfig holds scene settings.
type SceneConfig struct {
	Path string `yaml:"path"`
	// Timestamp is the default time coordinate for primitives. The unit is
	// defined by the scene.
	Timestamp float32 `yaml:"timestamp"`
}

// OutputConfig holds snapshot output settings.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Encoding: EncodingConfig{
			Format:     imagegen.FormatJPEG,
			Quality:    90,
			FlipY:      false,
			BufferHint: 1 << 20,
		},
		Scene: SceneConfig{
			Path:      "",
			Timestamp: 0,
		},
		Output: OutputConfig{
			Dir:    "snapshots",
			Prefix: "frame",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if _, ferr := imagegen.NormalizeFormat(c.Encoding.Format); ferr != nil {
		err = multierr.Append(err, ferr)
	}
	if c.Encoding.Quality < imagegen.MinQuality || c.Encoding.Quality > imagegen.MaxQuality {
		err = multierr.Append(err, errs.Validation("encoding.quality", "%d outside [%d, %d]",
			c.Encoding.Quality, imagegen.MinQuality, imagegen.MaxQuality))
	}
	if c.Encoding.BufferHint < 0 || c.Encoding.BufferHint > imagegen.MaxBufferHint {
		err = multierr.Append(err, errs.Validation("encoding.buffer_hint", "%d outside [0, %d]",
			c.Encoding.BufferHint, imagegen.MaxBufferHint))
	}
	if _, lerr := logger.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, errs.Validation("logging.level", "%v", lerr))
	}
	if c.Output.Prefix == "" {
		err = multierr.Append(err, errs.Validation("output.prefix", "must not be empty"))
	}
	return err
}

// GeneratorOptions converts the encoding section into imagegen options.
func (c *Config) GeneratorOptions() imagegen.Options {
	return imagegen.Options{
		BufferHint: c.Encoding.BufferHint,
		FlipY:      c.Encoding.FlipY,
	}
}
