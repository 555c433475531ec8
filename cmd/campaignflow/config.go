package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all campaignflow configuration.
// Priority: env vars > settings.yaml > defaults.
type Config struct {
	LogLevel                   string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Output                     string `yaml:"output" validate:"oneof=json yaml"`
	Fallback                   bool   `yaml:"fallback"`
	Lint                       bool   `yaml:"lint"`
	DuplicateTargetsAsWarnings bool   `yaml:"duplicate_targets_as_warnings"`
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
		Output:   "json",
		Fallback: true,
	}
}

func campaignflowDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".campaignflow"
	}
	return filepath.Join(home, ".campaignflow")
}

func settingsPath() string {
	if v := os.Getenv("CAMPAIGNFLOW_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(campaignflowDir(), "settings.yaml")
}

// loadConfig layers the settings file at path (settingsPath when empty) and
// CAMPAIGNFLOW_* env vars over the defaults. A missing settings file is not
// an error; a malformed one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = settingsPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case explicit || !os.IsNotExist(err):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if v := os.Getenv("CAMPAIGNFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CAMPAIGNFLOW_OUTPUT"); v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if err := envBool("CAMPAIGNFLOW_FALLBACK", &cfg.Fallback); err != nil {
		return cfg, err
	}
	if err := envBool("CAMPAIGNFLOW_LINT", &cfg.Lint); err != nil {
		return cfg, err
	}
	if err := envBool("CAMPAIGNFLOW_DUPLICATE_TARGETS_AS_WARNINGS", &cfg.DuplicateTargetsAsWarnings); err != nil {
		return cfg, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func (c Config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
