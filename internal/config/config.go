package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Dir is the project-level state directory (config, logs, runs).
const Dir = ".docgen"

// Naming strategies for persisted artifacts.
const (
	NamingIndex  = "index"
	NamingRandom = "random"
)

// Executors that can serve completions.
const (
	ExecutorAPI        = "api"
	ExecutorClaudeCode = "claude-code"
)

// Config is the top-level configuration structure.
type Config struct {
	Model        string           `yaml:"model"`
	MaxDocuments int              `yaml:"max_documents"`
	DelaySeconds float64          `yaml:"delay_seconds"`
	OutputDir    string           `yaml:"output_dir"`
	Naming       string           `yaml:"naming"`
	TopicsFile   string           `yaml:"topics_file"`
	Executor     string           `yaml:"executor"`
	Provider     ProviderConfig   `yaml:"provider"`
	ClaudeCode   ClaudeCodeConfig `yaml:"claude_code"`
	LogLevel     string           `yaml:"log_level"`
}

type ProviderConfig struct {
	Endpoint     string `yaml:"endpoint"`
	APIKeyEnv    string `yaml:"api_key_env"`
	APIKeySecret string `yaml:"api_key_secret"`
	APITimeout   string `yaml:"api_timeout"`
}

type ClaudeCodeConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Timeout string   `yaml:"timeout"`
}

// Delay returns the inter-call throttle duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Validate checks that required fields are present and values are in range.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.MaxDocuments < 0 {
		return fmt.Errorf("max_documents must be >= 0, got %d", c.MaxDocuments)
	}
	if c.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds must be >= 0, got %v", c.DelaySeconds)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	switch c.Naming {
	case NamingIndex, NamingRandom:
	default:
		return fmt.Errorf("naming must be %q or %q, got %q", NamingIndex, NamingRandom, c.Naming)
	}
	switch c.Executor {
	case ExecutorAPI:
		if c.Provider.Endpoint == "" {
			return errors.New("provider.endpoint is required")
		}
		if _, err := time.ParseDuration(c.Provider.APITimeout); c.Provider.APITimeout != "" && err != nil {
			return fmt.Errorf("provider.api_timeout: %w", err)
		}
	case ExecutorClaudeCode:
		if _, err := time.ParseDuration(c.ClaudeCode.Timeout); c.ClaudeCode.Timeout != "" && err != nil {
			return fmt.Errorf("claude_code.timeout: %w", err)
		}
	default:
		return fmt.Errorf("unknown executor %q", c.Executor)
	}
	return nil
}

// APIKey returns the API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.Provider.APIKeyEnv == "" {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv(c.Provider.APIKeyEnv)
}

// UserConfigPath is the per-user config file under the XDG config home.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "docgen", "config.yaml")
}

// ProjectConfigPath is the config file in the working directory.
func ProjectConfigPath() string {
	return filepath.Join(Dir, "config.yaml")
}

// Load resolves config from defaults → user → project → environment.
func Load() (*Config, error) {
	return load(UserConfigPath(), ProjectConfigPath(), os.Getenv)
}

func load(userPath, projectPath string, getenv func(string) string) (*Config, error) {
	cfg := defaults()

	if err := mergeFile(cfg, userPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading user config: %w", err)
	}
	// project-level config overrides the user file
	if err := mergeFile(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("DOCGEN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := getenv("DOCGEN_MAX_DOCUMENTS"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("DOCGEN_MAX_DOCUMENTS: %w", err)
		}
		cfg.MaxDocuments = n
	}
	if v := getenv("DOCGEN_DELAY_SECONDS"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("DOCGEN_DELAY_SECONDS: %w", err)
		}
		cfg.DelaySeconds = f
	}
	if v := getenv("DOCGEN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("DOCGEN_NAMING"); v != "" {
		cfg.Naming = v
	}
	if v := getenv("DOCGEN_TOPICS_FILE"); v != "" {
		cfg.TopicsFile = v
	}
	if v := getenv("DOCGEN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Model:        "gemini-2.5-flash",
		MaxDocuments: 200,
		DelaySeconds: 60,
		OutputDir:    filepath.Join("src", "temp"),
		Naming:       NamingIndex,
		Executor:     ExecutorAPI,
		Provider: ProviderConfig{
			Endpoint:   "https://generativelanguage.googleapis.com/v1beta/openai",
			APIKeyEnv:  "GEMINI_API_KEY",
			APITimeout: "300s",
		},
		ClaudeCode: ClaudeCodeConfig{
			Command: "claude",
			Timeout: "300s",
		},
		LogLevel: "info",
	}
}
