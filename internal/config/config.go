// Package config loads and persists opencodex configuration.
// Stored config lives in ~/.codex (config.json, config.yaml or config.yml),
// alongside instructions.md and the session database.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"opencodex/internal/logging"
)

// DefaultProvider is the only supported LLM provider.
const DefaultProvider = "ollama"

// Default model names for the Ollama runtime.
const (
	DefaultAgenticModel     = "qwen2.5-coder"
	DefaultFullContextModel = "llama3.1:8b"
	DefaultBaseURL          = "http://localhost:11434"
)

// Config holds all opencodex configuration.
type Config struct {
	Provider string `yaml:"provider" json:"provider"`

	// Model used for the agentic loop; FullContextModel for one-shot
	// whole-repo analysis.
	Model            string `yaml:"model" json:"model"`
	FullContextModel string `yaml:"full_context_model" json:"fullContextModel"`

	// BaseURL of the Ollama server, without the /api suffix.
	BaseURL string `yaml:"base_url" json:"baseUrl"`

	// ApprovalMode is the default approval policy: suggest, auto-edit, full-auto.
	ApprovalMode string `yaml:"approval_mode" json:"approvalMode"`

	// FullAutoErrorMode controls behavior when a full-auto command fails:
	// "ask-user" or "ignore-and-continue".
	FullAutoErrorMode string `yaml:"full_auto_error_mode" json:"fullAutoErrorMode"`

	Memory    MemoryConfig    `yaml:"memory" json:"memory"`
	Execution ExecutionConfig `yaml:"execution" json:"execution"`

	// Instructions is the assembled system prompt (instructions.md plus any
	// project doc). Populated by Load, never persisted.
	Instructions string `yaml:"-" json:"-"`

	// Debug enables category file logging. Set from flag or CODEX_DEBUG.
	Debug bool `yaml:"-" json:"-"`
}

// MemoryConfig controls session transcript persistence.
type MemoryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// ExecutionConfig configures the sandbox.
type ExecutionConfig struct {
	// WritableRoots are directories the sandbox allows writes under.
	// Defaults to the working directory.
	WritableRoots []string `yaml:"writable_roots" json:"writableRoots"`

	// DefaultTimeoutSeconds bounds each command run.
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds" json:"defaultTimeoutSeconds"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider:          DefaultProvider,
		Model:             DefaultAgenticModel,
		FullContextModel:  DefaultFullContextModel,
		BaseURL:           DefaultBaseURL,
		ApprovalMode:      "suggest",
		FullAutoErrorMode: "ask-user",
		Execution: ExecutionConfig{
			DefaultTimeoutSeconds: 60,
		},
	}
}

// Dir returns the opencodex config directory, creating it if needed.
// CODEX_HOME overrides the default ~/.codex.
func Dir() (string, error) {
	if dir := os.Getenv("CODEX_HOME"); dir != "" {
		return dir, os.MkdirAll(dir, 0o755)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".codex")
	return dir, os.MkdirAll(dir, 0o755)
}

// InstructionsPath returns the path of the user instructions file.
func InstructionsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "instructions.md"), nil
}

// Load reads stored config, applies env overrides and loads instructions.
// Missing files are not an error; defaults apply.
func Load() (*Config, error) {
	cfg := Default()

	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	if err := cfg.loadStored(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if cfg.Provider != DefaultProvider {
		return nil, fmt.Errorf("unsupported provider %q: only %s is supported", cfg.Provider, DefaultProvider)
	}

	// User instructions are optional.
	if data, err := os.ReadFile(filepath.Join(dir, "instructions.md")); err == nil {
		cfg.Instructions = string(data)
	}

	logging.ConfigDebug("config loaded: model=%s base_url=%s approval=%s", cfg.Model, cfg.BaseURL, cfg.ApprovalMode)
	return cfg, nil
}

// loadStored merges the first config file found in dir into cfg.
// JSON is preferred over YAML for compatibility with older installs.
func (c *Config) loadStored(dir string) error {
	candidates := []string{"config.json", "config.yaml", "config.yml"}
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if filepath.Ext(name) == ".json" {
			if err := json.Unmarshal(data, c); err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, c); err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
		logging.ConfigDebug("loaded stored config from %s", path)
		return nil
	}
	return nil
}

// applyEnvOverrides layers environment variables over stored values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CODEX_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("CODEX_APPROVAL_MODE"); v != "" {
		c.ApprovalMode = v
	}
	if v := os.Getenv("CODEX_DEBUG"); v == "1" || v == "true" {
		c.Debug = true
	}
}

// Save writes the configuration as YAML to config.yaml in the config dir.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
