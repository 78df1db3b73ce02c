// Package config defines the top-level configuration for the stallbid
// client and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by STALLBID_* environment variables.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Session  SessionConfig  `toml:"session"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Watch    WatchConfig    `toml:"watch"`
	Bidding  BiddingConfig  `toml:"bidding"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BackendConfig holds the stall-bidding backend endpoints.
type BackendConfig struct {
	BaseURL string   `toml:"base_url"`
	WsURL   string   `toml:"ws_url"`
	Timeout duration `toml:"timeout"`
}

// SessionConfig holds session credentials. Either a raw bearer token or an
// email/password pair for login, or an encrypted session file from a previous
// login.
type SessionConfig struct {
	Token             string `toml:"token"`
	Email             string `toml:"email"`
	Password          string `toml:"password"`
	EncryptedFilePath string `toml:"encrypted_file_path"`
	FilePassword      string `toml:"file_password"`
}

// PostgresConfig holds PostgreSQL connection parameters for the bid archive.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for closed-auction
// archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// WatchConfig holds the live-view parameters: which stalls to watch and how
// the poll loop behaves.
type WatchConfig struct {
	StallIDs     []int64  `toml:"stall_ids"`
	PollInterval duration `toml:"poll_interval"`
	HistoryLimit int      `toml:"history_limit"`
	UsePush      bool     `toml:"use_push"`
}

// BiddingConfig holds bid-submission parameters.
type BiddingConfig struct {
	Increment     int64    `toml:"increment"`
	MaxAmount     int64    `toml:"max_amount"`
	RateLimit     int      `toml:"rate_limit"`
	RatePeriod    duration `toml:"rate_period"`
	AutoBid       bool     `toml:"auto_bid"`
	AutoBidCap    int64    `toml:"auto_bid_cap"`
	ConfirmManual bool     `toml:"confirm_manual"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP dashboard server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey guards the API when set; empty disables authentication.
	APIKey string `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080/api",
			WsURL:   "ws://localhost:8080/ws",
			Timeout: duration{15 * time.Second},
		},
		Session: SessionConfig{
			EncryptedFilePath: "",
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "stallbid",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "stallbid-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Watch: WatchConfig{
			PollInterval: duration{2 * time.Second},
			HistoryLimit: 10,
			UsePush:      false,
		},
		Bidding: BiddingConfig{
			Increment:  100,
			RateLimit:  5,
			RatePeriod: duration{10 * time.Second},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:4200"},
		},
		Notify: NotifyConfig{
			Events: []string{"outbid", "auction_ending", "auction_ended", "error"},
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"watch": true,
	"serve": true,
	"full":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: watch, serve, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Backend
	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend: base_url must not be empty")
	}
	if c.Watch.UsePush && c.Backend.WsURL == "" {
		errs = append(errs, "backend: ws_url is required when watch.use_push is set")
	}
	if c.Backend.Timeout.Duration <= 0 {
		errs = append(errs, "backend: timeout must be > 0")
	}

	// Session: a credential source is required, and the session file needs its password.
	if c.Session.Token == "" && c.Session.Email == "" && c.Session.EncryptedFilePath == "" {
		errs = append(errs, "session: one of token, email, or encrypted_file_path must be set")
	}
	if c.Session.Email != "" && c.Session.Password == "" {
		errs = append(errs, "session: password is required when email is set")
	}
	if c.Session.EncryptedFilePath != "" && c.Session.FilePassword == "" {
		errs = append(errs, "session: file_password is required when encrypted_file_path is set")
	}

	// Watch
	if len(c.Watch.StallIDs) == 0 && c.Mode != "serve" {
		errs = append(errs, "watch: stall_ids must list at least one stall for mode "+c.Mode)
	}
	if c.Watch.PollInterval.Duration <= 0 {
		errs = append(errs, "watch: poll_interval must be > 0")
	}
	if c.Watch.HistoryLimit < 1 {
		errs = append(errs, "watch: history_limit must be >= 1")
	}

	// Bidding
	if c.Bidding.Increment <= 0 {
		errs = append(errs, "bidding: increment must be > 0")
	}
	if c.Bidding.RateLimit < 0 {
		errs = append(errs, "bidding: rate_limit must be >= 0")
	}
	if c.Bidding.RateLimit > 0 && c.Bidding.RatePeriod.Duration <= 0 {
		errs = append(errs, "bidding: rate_period must be > 0 when rate_limit is set")
	}
	if c.Bidding.AutoBid && c.Bidding.AutoBidCap <= 0 {
		errs = append(errs, "bidding: auto_bid_cap must be > 0 when auto_bid is enabled")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
