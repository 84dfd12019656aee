package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Records   RecordsConfig   `yaml:"records"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig holds the key required on every mutating API call.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// TailscaleConfig switches the HTTP listener to a tsnet node.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// RecordsConfig bounds which sessions count towards the record ranking.
type RecordsConfig struct {
	MaxSets    int `yaml:"max_sets"`
	MaxRestSec int `yaml:"max_rest_sec"`
	TopCount   int `yaml:"top_count"`
}

// DSN returns a PostgreSQL connection string. User and password are escaped.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Load reads config from a YAML file, fills defaults, then applies environment
// variable overrides. Env vars use the prefix LIFTLOG_:
//
//	LIFTLOG_SERVER_HOST, LIFTLOG_SERVER_PORT,
//	LIFTLOG_DB_HOST, LIFTLOG_DB_PORT, LIFTLOG_DB_NAME,
//	LIFTLOG_DB_USER, LIFTLOG_DB_PASSWORD, LIFTLOG_DB_SSLMODE,
//	LIFTLOG_AUTH_API_KEY,
//	LIFTLOG_TAILSCALE_ENABLED, LIFTLOG_TAILSCALE_HOSTNAME, LIFTLOG_TAILSCALE_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Tailscale: TailscaleConfig{Hostname: "liftlog"},
		Records:   RecordsConfig{MaxSets: 4, MaxRestSec: 120, TopCount: 20},
	}
}

func applyEnvOverrides(cfg *Config) {
	strs := map[string]*string{
		"LIFTLOG_SERVER_HOST":         &cfg.Server.Host,
		"LIFTLOG_DB_HOST":             &cfg.Database.Host,
		"LIFTLOG_DB_NAME":             &cfg.Database.Name,
		"LIFTLOG_DB_USER":             &cfg.Database.User,
		"LIFTLOG_DB_PASSWORD":         &cfg.Database.Password,
		"LIFTLOG_DB_SSLMODE":          &cfg.Database.SSLMode,
		"LIFTLOG_AUTH_API_KEY":        &cfg.Auth.APIKey,
		"LIFTLOG_TAILSCALE_HOSTNAME":  &cfg.Tailscale.Hostname,
		"LIFTLOG_TAILSCALE_STATE_DIR": &cfg.Tailscale.StateDir,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"LIFTLOG_SERVER_PORT": &cfg.Server.Port,
		"LIFTLOG_DB_PORT":     &cfg.Database.Port,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	if v := os.Getenv("LIFTLOG_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Records.MaxSets < 0 || c.Records.MaxRestSec < 0 {
		return fmt.Errorf("records limits must not be negative")
	}
	if c.Records.TopCount <= 0 {
		return fmt.Errorf("records.top_count must be positive")
	}
	return nil
}
