// Package config handles xoftool configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/xofkit/pkg/codepage"
	"github.com/Faultbox/xofkit/pkg/xfile"
)

// Config holds all tool settings.
type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	Assets  AssetsConfig  `yaml:"assets"`
	Logging LoggingConfig `yaml:"logging"`
}

// DecoderConfig holds the options passed to the X file parser.
type DecoderConfig struct {
	TextEncoding     string `yaml:"text_encoding"` // Code page for names and strings, empty for raw bytes
	FilterHierarchy  bool   `yaml:"filter_hierarchy"`
	PruneEmptyFrames bool   `yaml:"prune_empty_frames"`
}

// AssetsConfig holds asset source locations.
type AssetsConfig struct {
	SearchPaths []string `yaml:"search_paths"` // Directories of loose files
	GRFPaths    []string `yaml:"grf_paths"`    // Paths to GRF archives
	Workers     int      `yaml:"workers"`      // Parallel parses in batch commands
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Decoder: DecoderConfig{
			TextEncoding:     "",
			FilterHierarchy:  true,
			PruneEmptyFrames: false,
		},
		Assets: AssetsConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:   "warn",
			LogFile: "",
		},
	}
}

// DecoderOptions converts the decoder section into parser options.
// The logger is left for the caller to set.
func (c *Config) DecoderOptions() (xfile.Options, error) {
	opts := xfile.DefaultOptions()
	opts.FilterHierarchy = c.Decoder.FilterHierarchy
	opts.PruneEmptyFrames = c.Decoder.PruneEmptyFrames

	if c.Decoder.TextEncoding != "" {
		enc, err := codepage.Lookup(c.Decoder.TextEncoding)
		if err != nil {
			return opts, fmt.Errorf("decoder text encoding: %w", err)
		}
		opts.TextEncoding = enc
	}
	return opts, nil
}
