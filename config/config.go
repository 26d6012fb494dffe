// Package config handles loading and managing uniai configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. built-in defaults (Ollama on localhost, no API keys),
//  2. an optional TOML file following the XDG Base Directory spec,
//  3. environment variables, after loading a .env file if one exists.
//
// Example TOML configuration:
//
//	default_provider = "auto"
//	probe_timeout_seconds = 2
//	temperature = 0.7
//	max_tokens = 1000
//
//	[llms.ollama]
//	base_url = "http://localhost:11434"
//	model = "llama3"
//
//	[llms.groq]
//	api_key = "gsk_..."
//
// Example programmatic usage:
//
//	cfg := config.NewConfig("groq", 0, map[string]config.LLMConfig{
//		"groq": {APIKey: "key", Model: "llama3-8b-8192"},
//	})
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	appName         = "uniai"
	configFileName  = "config.toml"
	DefaultDirPerm  = 0750 // rwxr-x---
	DefaultFilePerm = 0600 // rw------- (contains secrets)

	// DefaultProbeTimeoutSeconds bounds the local Ollama reachability probe.
	DefaultProbeTimeoutSeconds = 2
	DefaultTemperature         = 0.7
	DefaultMaxTokens           = 1000
	DefaultOllamaURL           = "http://localhost:11434"
)

// Config holds the application's configuration.
type Config struct {
	// DefaultProvider is used when a request names no provider. "auto" (the
	// default) picks the first available provider in priority order.
	DefaultProvider string `toml:"default_provider"`

	// RequestTimeoutSeconds bounds each generation call. 0 means no timeout.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`

	// ProbeTimeoutSeconds bounds the Ollama reachability probe.
	ProbeTimeoutSeconds int `toml:"probe_timeout_seconds"`

	// Temperature and MaxTokens are the generation defaults.
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`

	// MaxHistory caps the chat transcript (system message excluded).
	// 0 keeps the full history and resends it on every turn.
	MaxHistory int `toml:"max_history"`

	// LLMs contains provider-specific configurations keyed by provider name.
	LLMs map[string]LLMConfig `toml:"llms"`
}

// LLMConfig holds configuration specific to an LLM provider.
//
// Cloud providers need APIKey; Ollama needs BaseURL. BaseURL may also point a
// cloud provider at a compatible proxy or a test server.
type LLMConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
	Model   string `toml:"model,omitempty"`
}

func defaultConfig() Config {
	return Config{
		DefaultProvider:     "auto",
		ProbeTimeoutSeconds: DefaultProbeTimeoutSeconds,
		Temperature:         DefaultTemperature,
		MaxTokens:           DefaultMaxTokens,
		LLMs: map[string]LLMConfig{
			"ollama": {BaseURL: DefaultOllamaURL},
		},
	}
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() Config {
	return defaultConfig()
}

// GetConfigFilePath determines the configuration file path based on XDG specs:
// $XDG_CONFIG_HOME/uniai/config.toml, or $HOME/.config/uniai/config.toml.
//
// The returned path may not exist.
func GetConfigFilePath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configHome, appName, configFileName), nil
}

// Load builds the effective configuration: defaults, then the XDG config file
// if it exists, then .env and the process environment.
func Load(debugMode bool) (Config, error) {
	cfg := defaultConfig()

	cfgPath, err := GetConfigFilePath()
	if err != nil {
		return Config{}, fmt.Errorf("failed to determine config path: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if debugMode {
			fmt.Printf("Loading configuration from %s\n", cfgPath)
		}
		if err := decodeInto(cfgPath, &cfg); err != nil {
			return Config{}, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to access config file %s: %w", cfgPath, err)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path, merged over the
// defaults. It does not consult the environment; call ApplyEnv for that.
func LoadFromFile(filePath string) (Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("configuration file not found at %s", filePath)
		}
		return Config{}, fmt.Errorf("failed to access config file %s: %w", filePath, err)
	}

	if err := decodeInto(filePath, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeInto(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: Unknown configuration keys found in %s: %v\n", path, undecoded)
	}
	if cfg.LLMs == nil {
		cfg.LLMs = map[string]LLMConfig{}
	}
	return nil
}

// Save writes cfg as TOML to path, creating the parent directory.
func Save(cfg Config, path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration to TOML: %w", err)
	}
	return nil
}

// GetLLMConfig retrieves the specific configuration for a given provider.
func (c *Config) GetLLMConfig(provider string) (LLMConfig, bool) {
	llmCfg, exists := c.LLMs[provider]
	return llmCfg, exists
}

// NewConfig creates a configuration programmatically, with generation
// defaults filled in. It performs no file I/O.
func NewConfig(defaultProvider string, timeoutSeconds int, providers map[string]LLMConfig) Config {
	cfg := defaultConfig()
	cfg.DefaultProvider = defaultProvider
	cfg.RequestTimeoutSeconds = timeoutSeconds
	cfg.LLMs = providers
	if cfg.LLMs == nil {
		cfg.LLMs = map[string]LLMConfig{}
	}
	return cfg
}
