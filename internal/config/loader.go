package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STALLBID_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STALLBID_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Backend ──
	setStr(&cfg.Backend.BaseURL, "STALLBID_BACKEND_BASE_URL")
	setStr(&cfg.Backend.WsURL, "STALLBID_BACKEND_WS_URL")
	setDuration(&cfg.Backend.Timeout, "STALLBID_BACKEND_TIMEOUT")

	// ── Session ──
	setStr(&cfg.Session.Token, "STALLBID_SESSION_TOKEN")
	setStr(&cfg.Session.Email, "STALLBID_SESSION_EMAIL")
	setStr(&cfg.Session.Password, "STALLBID_SESSION_PASSWORD")
	setStr(&cfg.Session.EncryptedFilePath, "STALLBID_SESSION_ENCRYPTED_FILE_PATH")
	setStr(&cfg.Session.FilePassword, "STALLBID_SESSION_FILE_PASSWORD")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "STALLBID_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "STALLBID_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "STALLBID_POSTGRES_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "STALLBID_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STALLBID_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STALLBID_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STALLBID_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STALLBID_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STALLBID_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STALLBID_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STALLBID_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STALLBID_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "STALLBID_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "STALLBID_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STALLBID_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STALLBID_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STALLBID_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STALLBID_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STALLBID_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "STALLBID_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "STALLBID_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STALLBID_S3_REGION")
	setStr(&cfg.S3.Bucket, "STALLBID_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STALLBID_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STALLBID_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "STALLBID_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "STALLBID_S3_FORCE_PATH_STYLE")

	// ── Watch ──
	setInt64Slice(&cfg.Watch.StallIDs, "STALLBID_WATCH_STALL_IDS")
	setDuration(&cfg.Watch.PollInterval, "STALLBID_WATCH_POLL_INTERVAL")
	setInt(&cfg.Watch.HistoryLimit, "STALLBID_WATCH_HISTORY_LIMIT")
	setBool(&cfg.Watch.UsePush, "STALLBID_WATCH_USE_PUSH")

	// ── Bidding ──
	setInt64(&cfg.Bidding.Increment, "STALLBID_BIDDING_INCREMENT")
	setInt64(&cfg.Bidding.MaxAmount, "STALLBID_BIDDING_MAX_AMOUNT")
	setInt(&cfg.Bidding.RateLimit, "STALLBID_BIDDING_RATE_LIMIT")
	setDuration(&cfg.Bidding.RatePeriod, "STALLBID_BIDDING_RATE_PERIOD")
	setBool(&cfg.Bidding.AutoBid, "STALLBID_BIDDING_AUTO_BID")
	setInt64(&cfg.Bidding.AutoBidCap, "STALLBID_BIDDING_AUTO_BID_CAP")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "STALLBID_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "STALLBID_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "STALLBID_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "STALLBID_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STALLBID_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STALLBID_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STALLBID_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "STALLBID_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "STALLBID_MODE")
	setStr(&cfg.LogLevel, "STALLBID_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

func setInt64Slice(dst *[]int64, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]int64, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if n, err := strconv.ParseInt(p, 10, 64); err == nil {
				cleaned = append(cleaned, n)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
