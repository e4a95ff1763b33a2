// Package config loads the tool-level settings document and knows the
// layout of the project-local state directory.
//
// Settings live in .hookwise/settings.yaml and are optional: an absent
// file yields pure defaults. Hook-level configuration is a separate
// document owned by the registry.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the root of the tool-level configuration.
type Settings struct {
	Backend BackendSettings `yaml:"backend"` // Generative backend channels
	Logging LoggingSettings `yaml:"logging"` // Log level and optional file
}

// BackendSettings configures both invocation channels of the AI backend.
type BackendSettings struct {
	Endpoint    string        `yaml:"endpoint"`    // Messages API endpoint
	Model       string        `yaml:"model"`       // Default model
	MaxTokens   int           `yaml:"max_tokens"`  // Default response budget
	Temperature float64       `yaml:"temperature"` // Default sampling temperature
	CLIBin      string        `yaml:"cli_bin"`     // Command-channel executable
	Timeout     time.Duration `yaml:"timeout"`     // Per-call timeout, both channels
}

// LoggingSettings configures the global logger.
type LoggingSettings struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Optional append-only log file
}

// Defaults returns the settings used when no file is present.
func Defaults() *Settings {
	return &Settings{
		Backend: BackendSettings{
			Endpoint:    "https://api.anthropic.com/v1/messages",
			Model:       "claude-3-5-haiku-latest",
			MaxTokens:   1024,
			Temperature: 0.2,
			CLIBin:      "claude",
			Timeout:     60 * time.Second,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads settings from the given path. A missing file is not an
// error; defaults are returned.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s := Defaults()
			s.applyEnvOverrides()
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file '%s': %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses settings from raw YAML bytes. Supports
// ${VAR:-default} env var expansion, env overrides, and validation.
// Omitted fields keep their defaults.
func LoadFromBytes(data []byte) (*Settings, error) {
	expanded := expandEnvWithDefaults(string(data))

	s := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	s.applyEnvOverrides()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// applyEnvOverrides lets the environment win over the settings file for
// the fields users most often need to redirect per invocation.
func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("HOOKWISE_CLI_BIN"); v != "" {
		s.Backend.CLIBin = v
	}
	if v := os.Getenv("HOOKWISE_ENDPOINT"); v != "" {
		s.Backend.Endpoint = v
	}
	if v := os.Getenv("HOOKWISE_MODEL"); v != "" {
		s.Backend.Model = v
	}
}

// Validate checks if the settings are valid.
func (s *Settings) Validate() error {
	if s.Backend.Endpoint == "" {
		return fmt.Errorf("backend.endpoint is required")
	}
	if s.Backend.Model == "" {
		return fmt.Errorf("backend.model is required")
	}
	if s.Backend.MaxTokens <= 0 {
		return fmt.Errorf("backend.max_tokens must be positive, got %d", s.Backend.MaxTokens)
	}
	if s.Backend.Temperature < 0 || s.Backend.Temperature > 1 {
		return fmt.Errorf("invalid backend.temperature: %v (must be 0-1)", s.Backend.Temperature)
	}
	if s.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	switch s.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", s.Logging.Level)
	}
	return nil
}
