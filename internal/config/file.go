package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the YAML config file is looked up when no path is given
const DefaultConfigPath = "~/.gitlab-util/config.yaml"

// LoadFile builds configuration from defaults, then the YAML file at path,
// then environment variables. A missing file is only an error when mustExist is set.
func LoadFile(path string, mustExist bool) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.mergeFile(path, mustExist); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// mergeFile decodes the YAML file over the current values; keys absent from the file keep their value
func (c *Config) mergeFile(path string, mustExist bool) error {
	expanded, err := ExpandHome(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", expanded, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML %s: %w", expanded, err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from a .env file into the process environment.
// Variables that are already set are not overridden. A missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(expanded); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", expanded, err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
