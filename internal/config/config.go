package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/redhat-data-and-ai/gitlab-util/internal/errors"
)

const (
	DefaultBaseURL  = "https://gitlab.com"
	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "warn"
)

// Config holds application configuration
type Config struct {
	GitLab  GitLabConfig  `yaml:"gitlab"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitLabConfig holds GitLab API configuration
type GitLabConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Token       string        `yaml:"token"`
	InsecureTLS bool          `yaml:"insecure_tls"` // Skip certificate verification
	CACertPath  string        `yaml:"ca_cert_path"` // Extra CA bundle for self-hosted instances
	Timeout     time.Duration `yaml:"timeout"`      // Per request
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() *Config {
	return &Config{
		GitLab: GitLabConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load loads configuration from environment variables on top of the defaults
func Load() *Config {
	cfg := Defaults()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields with any environment variables that are set
func (c *Config) ApplyEnv() {
	c.GitLab.BaseURL = getEnv("GITLAB_BASE_URL", c.GitLab.BaseURL)
	c.GitLab.Token = getEnv("GITLAB_TOKEN", c.GitLab.Token)
	c.GitLab.InsecureTLS = getEnvBool("GITLAB_INSECURE_TLS", c.GitLab.InsecureTLS)
	c.GitLab.CACertPath = getEnv("GITLAB_CA_CERT_PATH", c.GitLab.CACertPath)
	c.GitLab.Timeout = getEnvDuration("GITLAB_TIMEOUT", c.GitLab.Timeout)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// HasGitLabToken returns true if GitLab token is configured
func (c *Config) HasGitLabToken() bool {
	return c.GitLab.Token != ""
}

// Validate checks the settings needed to talk to the GitLab API
func (c *Config) Validate() error {
	v := apperrors.NewValidator().
		RequiredField("gitlab.base_url", c.GitLab.BaseURL).
		ValidateURL("gitlab.base_url", c.GitLab.BaseURL).
		RequiredField("gitlab.token", c.GitLab.Token).
		ValidatePositiveDuration("gitlab.timeout", c.GitLab.Timeout).
		ValidateEnum("logging.level", strings.ToLower(c.Logging.Level), []string{"debug", "info", "warn", "warning", "error"})

	if appErr := v.ToAppError(); appErr != nil {
		return appErr.WithContext("source", "configuration")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
