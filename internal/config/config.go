// Package config loads settings from config.yaml, EXAMREVIEW_* environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable
	EnvPrefix = "EXAMREVIEW"

	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultModel    = "gpt-4o-mini"
	DefaultLogLevel = "info"
	DefaultOutput   = "output"
)

// Config holds all configuration of the tool
type Config struct {
	AI      AIConfig
	Browser BrowserConfig

	OutputDir string
	VaultPath string
	LogLevel  string
}

// AIConfig configures the chat-completion transport
type AIConfig struct {
	Endpoint          string
	Model             string
	Temperature       float64
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
	// APIKey, when set, is used and persisted instead of the stored secret
	APIKey string
}

// BrowserConfig configures page rendering
type BrowserConfig struct {
	Headless bool
	Wait     time.Duration
	Timeout  time.Duration
}

// DefaultVaultPath is the credential file under the user config directory
func DefaultVaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "examreview", "vault.json")
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in the working directory and the user config
// directory and may be absent. The result is not validated, so callers can
// apply flag overrides first and then call Validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "examreview"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.endpoint", DefaultEndpoint)
	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.max_retries", 0)
	v.SetDefault("ai.requests_per_minute", 0)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.wait", 2*time.Second)
	v.SetDefault("browser.timeout", 60*time.Second)
	v.SetDefault("output_dir", DefaultOutput)
	v.SetDefault("vault_path", DefaultVaultPath())
	v.SetDefault("log_level", DefaultLogLevel)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AI: AIConfig{
			Endpoint:          v.GetString("ai.endpoint"),
			Model:             v.GetString("ai.model"),
			Temperature:       v.GetFloat64("ai.temperature"),
			Timeout:           v.GetDuration("ai.timeout"),
			MaxRetries:        v.GetInt("ai.max_retries"),
			RequestsPerMinute: v.GetInt("ai.requests_per_minute"),
			APIKey:            v.GetString("ai.api_key"),
		},
		Browser: BrowserConfig{
			Headless: v.GetBool("browser.headless"),
			Wait:     v.GetDuration("browser.wait"),
			Timeout:  v.GetDuration("browser.timeout"),
		},
		OutputDir: v.GetString("output_dir"),
		VaultPath: v.GetString("vault_path"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.AI.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ai endpoint must be an http(s) URL: %q", c.AI.Endpoint)
	}
	if c.AI.Model == "" {
		return errors.New("ai model cannot be empty")
	}
	if c.AI.Timeout <= 0 {
		return errors.New("ai timeout must be positive")
	}
	if c.AI.MaxRetries < 0 {
		return errors.New("ai max retries cannot be negative")
	}
	if c.AI.RequestsPerMinute < 0 {
		return errors.New("ai requests per minute cannot be negative")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2: %v", c.AI.Temperature)
	}
	if c.Browser.Timeout <= 0 {
		return errors.New("browser timeout must be positive")
	}
	if c.Browser.Wait < 0 {
		return errors.New("browser wait cannot be negative")
	}
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if c.VaultPath == "" {
		return errors.New("vault path cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}
