package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const clientDirName = "tripsaver"

// DefaultSyncTimeout bounds every request the client makes to the store
const DefaultSyncTimeout = 5 * time.Second

// ClientConfig holds the CLI's settings and session.
type ClientConfig struct {
	APIURL      string `toml:"api_url"`
	AnonKey     string `toml:"anon_key,omitempty"`
	Timezone    string `toml:"timezone,omitempty"`
	AccessToken string `toml:"access_token,omitempty"`
	SyncTimeout string `toml:"sync_timeout,omitempty"`
}

// DefaultClientConfig returns the configuration used when no file exists.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		APIURL:      "http://localhost:8080",
		Timezone:    "Local",
		SyncTimeout: DefaultSyncTimeout.String(),
	}
}

// ClientConfigDir returns the XDG-compliant config directory.
func ClientConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, clientDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", clientDirName)
}

// ClientConfigPath returns the full path to the config file.
func ClientConfigPath() string {
	return filepath.Join(ClientConfigDir(), "config.toml")
}

// ClientDataDir returns the XDG-compliant data directory holding local state.
func ClientDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, clientDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", clientDirName)
}

// LoadClient reads the config file, returning defaults if it doesn't exist.
func LoadClient() (ClientConfig, error) {
	return LoadClientFrom(ClientConfigPath())
}

// LoadClientFrom reads the config at path.
func LoadClientFrom(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// SaveClient writes the config to disk.
func SaveClient(cfg ClientConfig) error {
	return SaveClientTo(ClientConfigPath(), cfg)
}

// SaveClientTo writes the config to path with owner-only permissions, since it holds a token.
func SaveClientTo(path string, cfg ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Timeout parses SyncTimeout, falling back to DefaultSyncTimeout.
func (c ClientConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.SyncTimeout)
	if err != nil || d <= 0 {
		return DefaultSyncTimeout
	}
	return d
}

// Location resolves the configured time zone; "Local" or empty means the system zone.
func (c ClientConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GetAnonKey returns the anon key from env var or config, in that order.
func GetAnonKey(cfg ClientConfig) string {
	if key := os.Getenv("TRIPSAVER_ANON_KEY"); key != "" {
		return key
	}
	return cfg.AnonKey
}

// GetAPIURL returns the API URL from env var or config, in that order.
func GetAPIURL(cfg ClientConfig) string {
	if u := os.Getenv("TRIPSAVER_API_URL"); u != "" {
		return u
	}
	return cfg.APIURL
}
