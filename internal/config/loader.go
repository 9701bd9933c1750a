package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
type Config struct {
	Addr              string `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
	AdminAddr         string `json:"admin_addr" yaml:"admin_addr" toml:"admin_addr"`
	Workers           int    `json:"workers" yaml:"workers" toml:"workers" validate:"gt=0"`
	QueueDepth        int    `json:"queue_depth" yaml:"queue_depth" toml:"queue_depth" validate:"gt=0"`
	FragmentBuffer    int    `json:"fragment_buffer" yaml:"fragment_buffer" toml:"fragment_buffer" validate:"gt=0"`
	DefaultMaxLength  int    `json:"default_max_length" yaml:"default_max_length" toml:"default_max_length" validate:"gt=0"`
	DefaultIntervalMs int    `json:"default_interval_ms" yaml:"default_interval_ms" toml:"default_interval_ms" validate:"gt=0"`
	// MaxLengthLimit caps per-request max_length; 0 disables the cap.
	MaxLengthLimit    int    `json:"max_length_limit" yaml:"max_length_limit" toml:"max_length_limit" validate:"gte=0"`
	ShutdownTimeoutMs int    `json:"shutdown_timeout_ms" yaml:"shutdown_timeout_ms" toml:"shutdown_timeout_ms" validate:"gte=0"`

	Engine EngineConfig `json:"engine" yaml:"engine" toml:"engine"`
	Log    LogConfig    `json:"log" yaml:"log" toml:"log"`
	CORS   CORSConfig   `json:"cors" yaml:"cors" toml:"cors"`
}

// EngineConfig selects and configures the generation engine.
type EngineConfig struct {
	Kind             string `json:"kind" yaml:"kind" toml:"kind" validate:"oneof=llama llama-server"`
	Model            string `json:"model" yaml:"model" toml:"model"`
	ModelsDir        string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ServerURL        string `json:"server_url" yaml:"server_url" toml:"server_url"`
	APIKey           string `json:"api_key" yaml:"api_key" toml:"api_key"`
	RequestTimeoutMs int    `json:"request_timeout_ms" yaml:"request_timeout_ms" toml:"request_timeout_ms" validate:"gte=0"`
	ContextSize      int    `json:"context_size" yaml:"context_size" toml:"context_size" validate:"gte=0"`
	Threads          int    `json:"threads" yaml:"threads" toml:"threads" validate:"gte=0"`
}

// LogConfig controls the process logger and optional rotated log file.
type LogConfig struct {
	Level      string `json:"level" yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format     string `json:"format" yaml:"format" toml:"format" validate:"oneof=auto console json"`
	File       string `json:"file" yaml:"file" toml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" toml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" toml:"max_age_days" validate:"gte=0"`
	Compress   bool   `json:"compress" yaml:"compress" toml:"compress"`
}

// CORSConfig configures CORS on the admin server.
type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Default returns the configuration used when no file or flag overrides a field.
func Default() Config {
	return Config{
		Addr:              "[::]:50052",
		AdminAddr:         ":9090",
		Workers:           20,
		QueueDepth:        32,
		FragmentBuffer:    256,
		DefaultMaxLength:  20,
		DefaultIntervalMs: 1000,
		ShutdownTimeoutMs: 10000,
		Engine: EngineConfig{
			Kind:             "llama-server",
			ModelsDir:        "~/models/llm",
			ServerURL:        "http://127.0.0.1:8080",
			RequestTimeoutMs: 300000,
			ContextSize:      1024,
			Threads:          4,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads a configuration file based on its extension, on top of Default.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
