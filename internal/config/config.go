package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"auction-house/utils"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override configuration keys.
// AUCTION_SERVER_READ_TIMEOUT maps to server.read_timeout.
const EnvPrefix = "AUCTION_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Log      LogConfig      `koanf:"log"`
	Limits   LimitsConfig   `koanf:"limits"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is
	// believed. Empty means the client address is the socket peer.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type SecurityConfig struct {
	// SessionKey and CSRFKey are base64 encoded, at least 32 bytes once decoded
	SessionKey   string   `koanf:"session_key"`
	CSRFKey      string   `koanf:"csrf_key"`
	CookieSecure bool     `koanf:"cookie_secure"`
	BcryptCost   int      `koanf:"bcrypt_cost"`
	TrustedHosts []string `koanf:"trusted_hosts"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type LimitsConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "auction.db",
		},
		Security: SecurityConfig{
			BcryptCost:   10,
			TrustedHosts: []string{"localhost", "127.0.0.1"},
		},
		Log: LogConfig{
			Level: "info",
		},
		Limits: LimitsConfig{
			RequestsPerSecond: 2,
			Burst:             10,
		},
	}
}

// Load reads configuration from defaults, then the optional YAML file at path,
// then a .env file and AUCTION_ environment variables
func Load(path string) (*Config, error) {
	// .env is optional and never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
			utils.Warn("config file not found, using defaults", map[string]any{"path": path})
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns AUCTION_SECTION_SOME_KEY into section.some_key
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database.driver %q: want sqlite or postgres", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return errors.New("database.dsn is required for postgres")
	}
	// a zero rate turns rate limiting off
	if c.Limits.RequestsPerSecond < 0 {
		return errors.New("limits.requests_per_second must not be negative")
	}
	if c.Limits.RequestsPerSecond > 0 && c.Limits.Burst <= 0 {
		return errors.New("limits.burst must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// SessionKey decodes security.session_key, generating a random key when it is
// unset or unusable. Sessions signed with a generated key do not survive a restart.
func (c *Config) SessionKey() []byte {
	return decodeKey("security.session_key", c.Security.SessionKey)
}

// CSRFKey decodes security.csrf_key the same way as SessionKey
func (c *Config) CSRFKey() []byte {
	return decodeKey("security.csrf_key", c.Security.CSRFKey)
}

func decodeKey(name, encoded string) []byte {
	if encoded == "" {
		utils.Warn(name+" not set, generating a random key; set it in production", nil)
		return securecookie.GenerateRandomKey(32)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) < 32 {
		utils.Warn(name+" is invalid or shorter than 32 bytes, generating a random key", nil)
		return securecookie.GenerateRandomKey(32)
	}
	return key[:32]
}
