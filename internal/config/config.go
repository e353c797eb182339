// Package config handles the XDG configuration directory, file paths and config.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "chatdo"

	// ConfigFile is the optional settings file.
	ConfigFile = "config.yaml"

	// TasksJSONFile is the task list for the json storage backend.
	TasksJSONFile = "tasks.json"

	// TasksDBFile is the task list for the sqlite storage backend.
	TasksDBFile = "tasks.db"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// DefaultSyncList is the Google Tasks list that sync writes to.
	DefaultSyncList = "ChatDo"

	// DefaultListen is the address serve listens on.
	DefaultListen = "127.0.0.1:8080"
)

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Environment variables holding the Gemini API key, in order of precedence.
var APIKeyEnv = []string{"GEMINI_API_KEY", "API_KEY"}

// Settings are the values read from config.yaml. Zero values mean "use the default".
type Settings struct {
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxRounds int    `yaml:"max_rounds"`
	Storage   string `yaml:"storage"`
	SyncList  string `yaml:"sync_list"`
	Listen    string `yaml:"listen"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings Settings

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

// New creates a new Config with the default or specified config directory
// and loads config.yaml from it if present.
// If configDir is empty, uses XDG_CONFIG_HOME/chatdo or $HOME/.config/chatdo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{Dir: dir, Getenv: os.Getenv}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) load() error {
	data, err := os.ReadFile(c.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	switch c.Settings.Storage {
	case "", StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("invalid %s: unknown storage %q (want %s or %s)",
			ConfigFile, c.Settings.Storage, StorageJSON, StorageSQLite)
	}
	if c.Settings.MaxRounds < 0 {
		return fmt.Errorf("invalid %s: max_rounds must not be negative", ConfigFile)
	}
	return nil
}

// Path returns the path to config.yaml.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// APIKey returns the Gemini API key: the first non-empty environment variable
// of APIKeyEnv, otherwise api_key from config.yaml.
func (c *Config) APIKey() string {
	getenv := c.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, name := range APIKeyEnv {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(c.Settings.APIKey)
}

// Storage returns the configured storage backend.
func (c *Config) Storage() string {
	if c.Settings.Storage == "" {
		return StorageJSON
	}
	return c.Settings.Storage
}

// TasksPath returns the task list file of the configured storage backend.
func (c *Config) TasksPath() string {
	if c.Storage() == StorageSQLite {
		return filepath.Join(c.Dir, TasksDBFile)
	}
	return filepath.Join(c.Dir, TasksJSONFile)
}

// SyncList returns the Google Tasks list name used by sync.
func (c *Config) SyncList() string {
	if c.Settings.SyncList == "" {
		return DefaultSyncList
	}
	return c.Settings.SyncList
}

// Listen returns the address serve listens on.
func (c *Config) Listen() string {
	if c.Settings.Listen == "" {
		return DefaultListen
	}
	return c.Settings.Listen
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
