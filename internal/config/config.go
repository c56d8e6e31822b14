package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all xbot configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// X API credentials (OAuth 1.0a user context)
	X XConfig `yaml:"x"`

	// Gemini generation settings
	Gemini GeminiConfig `yaml:"gemini"`

	// Monthly posting quota
	Quota QuotaConfig `yaml:"quota"`

	// Bot voice used in prompt templates
	Personality string `yaml:"personality"`

	// Local bookkeeping database
	DatabasePath string `yaml:"database_path"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// XConfig holds the X API credentials and endpoint.
type XConfig struct {
	APIKey            string `yaml:"api_key"`
	APISecretKey      string `yaml:"api_secret_key"`
	AccessToken       string `yaml:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret"`
	BaseURL           string `yaml:"base_url"`
	UserID            string `yaml:"user_id"`
}

// GeminiConfig configures the generative-language client.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// QuotaConfig configures the monthly post ceiling.
// Threshold is the warn margin; Max blocks further posting.
type QuotaConfig struct {
	Threshold int `yaml:"threshold"`
	Max       int `yaml:"max"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "xbot",
		Version: "1.0.0",

		X: XConfig{
			BaseURL: "https://api.x.com/2",
		},

		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: "120s",
		},

		Quota: QuotaConfig{
			Threshold: 450,
			Max:       500,
		},

		Personality:  "friendly and helpful developer assistant",
		DatabasePath: "bot.db",

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "xbot.log",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file is not an error; defaults plus env overrides apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// X API credentials
	if v := os.Getenv("X_API_KEY"); v != "" {
		c.X.APIKey = v
	}
	if v := os.Getenv("X_API_SECRET_KEY"); v != "" {
		c.X.APISecretKey = v
	}
	if v := os.Getenv("X_ACCESS_TOKEN"); v != "" {
		c.X.AccessToken = v
	}
	if v := os.Getenv("X_ACCESS_TOKEN_SECRET"); v != "" {
		c.X.AccessTokenSecret = v
	}
	if v := os.Getenv("X_USER_ID"); v != "" {
		c.X.UserID = v
	}

	// Gemini
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}

	// Quota limits
	if v := os.Getenv("RATE_LIMIT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Quota.Threshold = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Quota.Max = n
		}
	}

	// Bot personality
	if v := os.Getenv("BOT_PERSONALITY"); v != "" {
		c.Personality = v
	}

	// Database path
	if v := os.Getenv("XBOT_DB"); v != "" {
		c.DatabasePath = v
	}
}

// ValidateXCredentials checks that all four X credentials are present.
// The error names every missing variable, never a value.
func (c *Config) ValidateXCredentials() error {
	var missing []string
	if c.X.APIKey == "" {
		missing = append(missing, "X_API_KEY")
	}
	if c.X.APISecretKey == "" {
		missing = append(missing, "X_API_SECRET_KEY")
	}
	if c.X.AccessToken == "" {
		missing = append(missing, "X_ACCESS_TOKEN")
	}
	if c.X.AccessTokenSecret == "" {
		missing = append(missing, "X_ACCESS_TOKEN_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing X API credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateGeminiCredentials checks that the Gemini API key is present.
func (c *Config) ValidateGeminiCredentials() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("missing GEMINI_API_KEY in environment")
	}
	return nil
}

// GetGeminiTimeout returns the Gemini request timeout as a duration.
func (c *Config) GetGeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}
