package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings read from the viswiz config file. Empty fields
// mean "not configured"; callers layer flags and environment on top.
type Config struct {
	APIKey      string
	Server      string
	Project     string
	AppURL      string
	Concurrency int
	Theme       string
}

const (
	appName            = "viswiz"
	configFileName     = "config.toml"
	DefaultAppURL      = "https://app.viswiz.io"
	DefaultConcurrency = 4
	maxConcurrency     = 64
)

// DefaultPath returns $XDG_CONFIG_HOME/viswiz/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// Load reads the config file at path, or DefaultPath when path is empty. A
// missing file is not an error: defaults are returned instead.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{AppURL: DefaultAppURL, Concurrency: DefaultConcurrency}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIKey      string `toml:"api_key"`
		Server      string `toml:"server"`
		Project     string `toml:"project"`
		AppURL      string `toml:"app_url"`
		Concurrency int    `toml:"concurrency"`
		Theme       string `toml:"theme"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(raw.APIKey)
	cfg.Server = strings.TrimSpace(raw.Server)
	cfg.Project = strings.TrimSpace(raw.Project)
	cfg.Theme = strings.TrimSpace(raw.Theme)

	if appURL := strings.TrimSpace(raw.AppURL); appURL != "" {
		cfg.AppURL = strings.TrimSuffix(appURL, "/")
	}

	switch {
	case raw.Concurrency < 0:
		return Config{}, fmt.Errorf("parse config: concurrency must be positive, got %d", raw.Concurrency)
	case raw.Concurrency > maxConcurrency:
		cfg.Concurrency = maxConcurrency
	case raw.Concurrency > 0:
		cfg.Concurrency = raw.Concurrency
	}

	return cfg, nil
}

// ResultsURL returns the web page showing the comparison results of a build.
func (c Config) ResultsURL(projectID, buildID string) string {
	base := strings.TrimSuffix(strings.TrimSpace(c.AppURL), "/")
	if base == "" {
		base = DefaultAppURL
	}
	return fmt.Sprintf("%s/projects/%s/build/%s/results", base, projectID, buildID)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPath(), nil
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
