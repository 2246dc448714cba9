// Package config loads the service configuration: a YAML file, then a .env
// file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
	Offices []string      `yaml:"offices"`
}

type ServerConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

// StoreConfig selects the persistence adapter. URL is the file path for the
// file driver and the DSN or endpoint for the relational drivers; Key is the
// access key handed to the database as its password.
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	Key             string        `yaml:"key"`
	Seed            bool          `yaml:"seed"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnectRetries  int           `yaml:"connect_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

type AuthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type EventsConfig struct {
	AMQPURL        string        `yaml:"amqp_url"`
	Exchange       string        `yaml:"exchange"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, GinMode: "release"},
		Store: StoreConfig{
			Driver:          DriverFile,
			URL:             "data/mealdesk.json",
			Seed:            true,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectRetries:  10,
			RetryDelay:      2 * time.Second,
		},
		Auth: AuthConfig{TokenTTL: 12 * time.Hour},
		Events: EventsConfig{
			Exchange:       "mealdesk_events",
			PublishTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
		Offices: []string{"Ofis 1", "Ofis 2", "Ofis 3"},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Store.Driver = getEnv("MEALDESK_STORE_DRIVER", c.Store.Driver)
	c.Store.URL = getEnv("MEALDESK_STORE_URL", c.Store.URL)
	c.Store.Key = getEnv("MEALDESK_STORE_KEY", c.Store.Key)
	c.Auth.Secret = getEnv("MEALDESK_JWT_SECRET", c.Auth.Secret)
	c.Events.AMQPURL = getEnv("MEALDESK_AMQP_URL", c.Events.AMQPURL)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the combination of settings
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverSQLite, DriverPostgres, DriverPGX:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != DriverFile && c.Store.URL == "" {
		return fmt.Errorf("store driver %s needs a url", c.Store.Driver)
	}
	if len(c.Offices) == 0 {
		return errors.New("at least one office is required")
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return errors.New("auth is enabled but no jwt secret is set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
