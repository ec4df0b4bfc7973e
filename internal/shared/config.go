package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment override, e.g. SPOTWIDGET_SPOTIFY_CLIENT_ID.
const EnvPrefix = "SPOTWIDGET"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Store       StoreConfig       `toml:"store"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the public PKCE client settings. There is no client secret.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id" envconfig:"CLIENT_ID"`
	RedirectURI string   `toml:"redirect_uri" envconfig:"REDIRECT_URI"`
	Scopes      []string `toml:"scopes" envconfig:"SCOPES"`
	AuthURL     string   `toml:"auth_url" envconfig:"AUTH_URL"`
	TokenURL    string   `toml:"token_url" envconfig:"TOKEN_URL"`
	APIBaseURL  string   `toml:"api_base_url" envconfig:"API_BASE_URL"`
}

// StoreConfig selects the durable key/value store that keeps the code verifier across the redirect.
type StoreConfig struct {
	Backend        string `toml:"backend" envconfig:"BACKEND"`
	Key            string `toml:"key" envconfig:"KEY"`
	KeyringService string `toml:"keyring_service" envconfig:"KEYRING_SERVICE"`
	RedisAddr      string `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword  string `toml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `toml:"redis_db" envconfig:"REDIS_DB"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" envconfig:"HOST"`
	Port int    `toml:"port" envconfig:"PORT"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" envconfig:"LEVEL"`
	File  string `toml:"file" envconfig:"FILE"`
}

// Addr returns the host:port the local server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate reports missing values that make a login impossible.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" {
		return fmt.Errorf("%w: spotify client_id is empty", ErrMissingCredentials)
	}
	if sp.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri is empty", ErrInvalidConfig)
	}
	if sp.AuthURL == "" || sp.TokenURL == "" || sp.APIBaseURL == "" {
		return fmt.Errorf("%w: spotify endpoints must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads path when it exists (defaults otherwise), then applies .env and environment overrides.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv loads a .env file from the working directory if present and overlays SPOTWIDGET_* variables.
func ApplyEnv(config *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to load .env: %v", ErrInvalidConfig, err)
	}

	targets := []struct {
		prefix string
		spec   any
	}{
		{EnvPrefix + "_SPOTIFY", &config.Credentials.Spotify},
		{EnvPrefix + "_STORE", &config.Store},
		{EnvPrefix + "_SERVER", &config.Server},
		{EnvPrefix + "_LOG", &config.Log},
	}

	for _, t := range targets {
		if err := envconfig.Process(t.prefix, t.spec); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
