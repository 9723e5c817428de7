package main

import (
	"os"
	"time"

	"github.com/go-playground/errors/v5"
	"gopkg.in/yaml.v3"

	"github.com/projector22/lbf-auth/cookie"
)

// DatabaseConfig selects and configures the account store driver.
type DatabaseConfig struct {
	// Driver is one of "postgres", "mysql", "spanner".
	Driver string `yaml:"driver"`
	// DSN is the connection string for postgres and mysql.
	DSN string `yaml:"dsn"`
	// SpannerDatabase is the full database path for the spanner driver:
	// projects/P/instances/I/databases/D.
	SpannerDatabase string `yaml:"spanner_database"`
	// AccountTable overrides the spanner account table name.
	AccountTable string `yaml:"account_table"`
}

// LDAPConfig configures directory-backed password verification.
type LDAPConfig struct {
	Enable bool `yaml:"enable"`
	// URL is an ldap:// or ldaps:// server address.
	URL string `yaml:"url"`
	// UserAttribute and BaseDN build the bind DN: <attr>=<user>,<base_dn>.
	UserAttribute string `yaml:"user_attribute"`
	BaseDN        string `yaml:"base_dn"`
}

// Config mirrors the lbf-authd.yaml schema.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// CookieKey is the base64-encoded master key cookie signing keys are
	// derived from. Empty generates a throwaway key at startup.
	CookieKey string `yaml:"cookie_key"`
	// CookieHash is the install secret mixed into derived session ids.
	CookieHash string `yaml:"cookie_hash"`

	// SessionIdle expires server-side sessions idle longer than this. It
	// accepts seconds or a relative expression like "30 minutes".
	SessionIdle string `yaml:"session_idle"`

	// RefreshTokens selects the refresh-timer wire format: "legacy" keeps
	// compatibility with existing client cookies, "paseto" issues opaque
	// encrypted tokens.
	RefreshTokens string `yaml:"refresh_tokens"`

	// MaintenanceFile puts the gate in maintenance mode while it exists.
	MaintenanceFile string `yaml:"maintenance_file"`

	Database DatabaseConfig `yaml:"database"`
	LDAP     LDAPConfig     `yaml:"ldap"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		SessionIdle:   "30 minutes",
		RefreshTokens: "legacy",
		Database:      DatabaseConfig{Driver: "mysql"},
		LDAP:          LDAPConfig{UserAttribute: "uid"},
	}
}

// SessionIdleDuration parses the configured session idle expiry.
func (c Config) SessionIdleDuration() (time.Duration, error) {
	d, err := cookie.ParseRelative(c.SessionIdle)
	if err != nil {
		return 0, errors.Wrap(err, "cookie.ParseRelative()")
	}

	return d, nil
}

// loadConfig reads a YAML config file and validates it.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, errors.New("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "os.ReadFile()")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "yaml.Unmarshal()")
	}

	if cfg.CookieHash == "" {
		return cfg, errors.New("cookie_hash is required")
	}
	switch cfg.Database.Driver {
	case "postgres", "mysql":
		if cfg.Database.DSN == "" {
			return cfg, errors.Newf("database.dsn is required for the %s driver", cfg.Database.Driver)
		}
	case "spanner":
		if cfg.Database.SpannerDatabase == "" {
			return cfg, errors.New("database.spanner_database is required for the spanner driver")
		}
	default:
		return cfg, errors.Newf("unknown database driver %q", cfg.Database.Driver)
	}
	switch cfg.RefreshTokens {
	case "legacy", "paseto":
	default:
		return cfg, errors.Newf("unknown refresh_tokens format %q", cfg.RefreshTokens)
	}
	if cfg.LDAP.Enable && cfg.LDAP.URL == "" {
		return cfg, errors.New("ldap.url is required when ldap is enabled")
	}
	if _, err := cfg.SessionIdleDuration(); err != nil {
		return cfg, errors.Wrap(err, "Config.SessionIdleDuration()")
	}

	return cfg, nil
}
