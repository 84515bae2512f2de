package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "nia-tracker"
	configFile = "config.yaml"

	tokenEnvVar = "ASANA_ACCESS_TOKEN"
)

// ProcessBinding ties a tracked process to its external project.
type ProcessBinding struct {
	ProcessID  string `yaml:"process_id"`
	Name       string `yaml:"name"`
	ProjectGID string `yaml:"project_gid"`
}

type Config struct {
	// Token is the Asana personal access token. TokenFile points at a
	// file holding one; the inline value wins when both are set.
	Token        string           `yaml:"token,omitempty"`
	TokenFile    string           `yaml:"token_file,omitempty"`
	DatabasePath string           `yaml:"database_path,omitempty"`
	Processes    []ProcessBinding `yaml:"processes,omitempty"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tasks.db"
	}
	return filepath.Join(home, ".local", "share", xdgAppName, "tasks.db")
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields usable defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath()
	}
	return cfg, nil
}

// Save writes the config to path, or the default location when path is
// empty, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ResolveToken returns the access token: inline value, then token file,
// then the ASANA_ACCESS_TOKEN environment variable.
func (c *Config) ResolveToken() (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	if c.TokenFile != "" {
		b, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read token file: %w", err)
		}
		token := strings.TrimSpace(string(b))
		if token != "" {
			return token, nil
		}
	}
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("no access token configured: set token in config, token_file, or %s", tokenEnvVar)
}

// Binding finds the process binding for a process id.
func (c *Config) Binding(processID string) (ProcessBinding, bool) {
	for _, b := range c.Processes {
		if b.ProcessID == processID {
			return b, true
		}
	}
	return ProcessBinding{}, false
}
