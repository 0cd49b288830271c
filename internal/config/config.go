// Package config defines the application configuration and its loading
// from files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"
)

// Config represents the complete configuration for the beamdec application.
// It includes settings for all commands (decode, batch, serve) and supports
// loading from configuration files, environment variables, and flags.
type Config struct {
	// Global settings
	AlphabetPath string `mapstructure:"alphabet" yaml:"alphabet" json:"alphabet"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Beam search settings
	Decoder DecoderConfig `mapstructure:"decoder" yaml:"decoder" json:"decoder"`

	// Language model settings
	LM LMConfig `mapstructure:"lm" yaml:"lm" json:"lm"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Acoustic model front-end (optional)
	Acoustic AcousticConfig `mapstructure:"acoustic" yaml:"acoustic" json:"acoustic"`
}

// DecoderConfig contains beam search settings.
type DecoderConfig struct {
	BeamWidth  int     `mapstructure:"beam_width" yaml:"beam_width" json:"beam_width"`
	CutoffProb float64 `mapstructure:"cutoff_prob" yaml:"cutoff_prob" json:"cutoff_prob"`
	CutoffTopN int     `mapstructure:"cutoff_top_n" yaml:"cutoff_top_n" json:"cutoff_top_n"`
}

// LMConfig contains language model fusion settings. An empty Path disables
// fusion entirely.
type LMConfig struct {
	Path           string  `mapstructure:"path" yaml:"path" json:"path"`
	Alpha          float64 `mapstructure:"alpha" yaml:"alpha" json:"alpha"`
	Beta           float64 `mapstructure:"beta" yaml:"beta" json:"beta"`
	CharacterBased bool    `mapstructure:"character_based" yaml:"character_based" json:"character_based"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format         string `mapstructure:"format" yaml:"format" json:"format"`
	File           string `mapstructure:"file" yaml:"file" json:"file"`
	ScorePrecision int    `mapstructure:"score_precision" yaml:"score_precision" json:"score_precision"`
	NumResults     int    `mapstructure:"num_results" yaml:"num_results" json:"num_results"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// AcousticConfig contains ONNX acoustic model settings. An empty ModelPath
// means matrices are read from files instead of being produced by a model.
type AcousticConfig struct {
	ModelPath  string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	NumThreads int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Decoder: DecoderConfig{
			BeamWidth:  100,
			CutoffProb: 1.0,
			CutoffTopN: 40,
		},
		LM: LMConfig{
			Alpha: 0.93,
			Beta:  1.18,
		},
		Output: OutputConfig{
			Format:         "text",
			ScorePrecision: 4,
			NumResults:     1,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: false,
		},
		Acoustic: AcousticConfig{
			NumThreads: 0,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "yaml", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.ScorePrecision < 0 {
		return fmt.Errorf("invalid score precision: %d (must be non-negative)", c.Output.ScorePrecision)
	}
	if c.Output.NumResults < 1 {
		return fmt.Errorf("invalid num results: %d (must be positive)", c.Output.NumResults)
	}

	if c.Decoder.BeamWidth < 1 {
		return fmt.Errorf("invalid beam width: %d (must be positive)", c.Decoder.BeamWidth)
	}
	if c.Decoder.CutoffProb <= 0 || c.Decoder.CutoffProb > 1 {
		return fmt.Errorf("invalid cutoff probability: %g (must be in (0, 1])", c.Decoder.CutoffProb)
	}
	if c.Decoder.CutoffTopN < 1 {
		return fmt.Errorf("invalid cutoff top-n: %d (must be positive)", c.Decoder.CutoffTopN)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}

	if c.Acoustic.NumThreads < 0 {
		return fmt.Errorf("invalid acoustic num threads: %d (must be non-negative)", c.Acoustic.NumThreads)
	}

	return nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
