// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; secrets go to OS keychain.
// Environment variables override the stored file.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"

	"subsync/cli/internal/xdg"
)

// DefaultBackendURL is used until the user configures another deployment.
const DefaultBackendURL = "https://api.subsync.dev"

// Config holds non-sensitive CLI settings.
type Config struct {
	BackendURL string `json:"backend_url" env:"SUBSYNC_BACKEND_URL"`
	LogLevel   string `json:"log_level" env:"SUBSYNC_LOG_LEVEL"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults. Environment
// overrides are applied last so a shell-scoped SUBSYNC_BACKEND_URL wins.
func Load() (Config, error) {
	c := Config{
		BackendURL: DefaultBackendURL,
		LogLevel:   "info",
	}
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, err
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults stand.
	default:
		return c, err
	}

	// envdecode errors only on invalid values; absent vars keep file values.
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return c, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
