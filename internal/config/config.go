// Package config provides configuration management for cortexlip
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Store      StoreConfig      `mapstructure:"store"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AnalysisConfig configures marker building and track synthesis
type AnalysisConfig struct {
	SilenceCorrection bool `mapstructure:"silence_correction"` // Hold the last voiced frame over silent rows
	StrictImport      bool `mapstructure:"strict_import"`      // Reject rows with unparsable numeric fields
	FrameShiftMs      int  `mapstructure:"frame_shift_ms"`     // Recognizer frame shift
}

// RecognizerConfig describes the recognizer output
type RecognizerConfig struct {
	LogEncoding string `mapstructure:"log_encoding"` // auto, utf-8, cp932
}

// StoreConfig configures the analysis history database
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Dir        string `mapstructure:"dir"`
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	MaxHistory int    `mapstructure:"max_history"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	dir := configDir()
	return &Config{
		Analysis: AnalysisConfig{
			SilenceCorrection: false,
			StrictImport:      false,
			FrameShiftMs:      10,
		},
		Recognizer: RecognizerConfig{
			LogEncoding: "auto",
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "history.db"),
		},
		Logging: LoggingConfig{
			Dir:        filepath.Join(dir, "logs"),
			Level:      "info",
			Console:    true,
			MaxHistory: 500,
		},
	}
}

// Load reads configuration from the given file (or the default search
// paths when empty) and from CORTEXLIP_* environment variables.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && os.IsNotExist(err)) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML to path
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	v := viper.New()
	v.Set("analysis.silence_correction", cfg.Analysis.SilenceCorrection)
	v.Set("analysis.strict_import", cfg.Analysis.StrictImport)
	v.Set("analysis.frame_shift_ms", cfg.Analysis.FrameShiftMs)
	v.Set("recognizer.log_encoding", cfg.Recognizer.LogEncoding)
	v.Set("store.enabled", cfg.Store.Enabled)
	v.Set("store.path", cfg.Store.Path)
	v.Set("logging.dir", cfg.Logging.Dir)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.console", cfg.Logging.Console)
	v.Set("logging.max_history", cfg.Logging.MaxHistory)

	v.SetConfigType("yaml")
	return v.WriteConfigAs(path)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Analysis.FrameShiftMs <= 0 {
		return fmt.Errorf("analysis.frame_shift_ms must be positive, got %d", c.Analysis.FrameShiftMs)
	}
	switch strings.ToLower(c.Recognizer.LogEncoding) {
	case "auto", "utf-8", "utf8", "cp932", "shift_jis", "sjis":
	default:
		return fmt.Errorf("recognizer.log_encoding %q is not supported", c.Recognizer.LogEncoding)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cortexlip"
	}
	return filepath.Join(home, ".cortexlip")
}

// newViper registers defaults for every key so AutomaticEnv can see them
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()

	v.SetDefault("analysis.silence_correction", cfg.Analysis.SilenceCorrection)
	v.SetDefault("analysis.strict_import", cfg.Analysis.StrictImport)
	v.SetDefault("analysis.frame_shift_ms", cfg.Analysis.FrameShiftMs)
	v.SetDefault("recognizer.log_encoding", cfg.Recognizer.LogEncoding)
	v.SetDefault("store.enabled", cfg.Store.Enabled)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("logging.dir", cfg.Logging.Dir)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.max_history", cfg.Logging.MaxHistory)

	v.SetEnvPrefix("CORTEXLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}
