package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/campusbid/stallbid/internal/blob/s3"
	"github.com/campusbid/stallbid/internal/cache/redis"
	"github.com/campusbid/stallbid/internal/config"
	"github.com/campusbid/stallbid/internal/domain"
	"github.com/campusbid/stallbid/internal/notify"
	"github.com/campusbid/stallbid/internal/platform/stallapi"
	"github.com/campusbid/stallbid/internal/session"
	"github.com/campusbid/stallbid/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
// Optional backends (Postgres, Redis, S3) leave their fields nil when
// disabled; consumers degrade accordingly.
type Dependencies struct {
	// Backend access
	Backend  *stallapi.Client
	Sessions *session.Manager

	// Archive stores
	BidStore    domain.BidStore
	ResultStore domain.ResultStore

	// Caches and bus
	StallCache  domain.StallCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Cold storage
	Archiver *s3blob.AuctionArchiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL bid archive ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.BidStore = postgres.NewBidStore(pool)
		deps.ResultStore = postgres.NewResultStore(pool)
	}

	// --- Redis caches and signal bus ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.StallCache = redis.NewStallCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 cold storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewAuctionArchiver(s3blob.NewWriter(s3Client)).
			WithReader(s3blob.NewReader(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Session and backend client ---
	var sessionStore domain.SessionStore
	switch {
	case cfg.Session.EncryptedFilePath != "":
		sessionStore = session.NewFileStore(cfg.Session.EncryptedFilePath, cfg.Session.FilePassword)
	case redisClient != nil:
		sessionStore = redis.NewSessionStore(redisClient, cfg.Session.Email)
	}

	deps.Sessions = session.NewManager(sessionStore, logger)
	deps.Backend = stallapi.NewClient(cfg.Backend.BaseURL, deps.Sessions).
		WithLogger(logger).
		WithTimeout(cfg.Backend.Timeout.Duration)

	if err := deps.Sessions.Resolve(ctx, cfg.Session, deps.Backend); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: session: %w", err)
	}

	return deps, cleanup, nil
}
