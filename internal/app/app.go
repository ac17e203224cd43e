// Package app wires configuration into the stores, clients and services shared by the API
// server and classctl.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/liveclass/backend/config"
	"github.com/liveclass/backend/internal/auth"
	"github.com/liveclass/backend/internal/meetings"
	"github.com/liveclass/backend/internal/notify"
	"github.com/liveclass/backend/internal/provider"
	"github.com/liveclass/backend/internal/recordings"
	"github.com/liveclass/backend/internal/sessions"
	"github.com/liveclass/backend/pkg/database"
	"github.com/liveclass/backend/pkg/redis"
	"github.com/liveclass/backend/pkg/storage"
)

// App holds the process-wide dependencies built once from Config.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Blobs     *storage.S3
	Provider  provider.Client
	JWT       *auth.JWTService
	Sessions  *sessions.Service
	Meetings  *meetings.Service
	Pipeline  *recordings.Pipeline
	closeFunc []func()
}

// New connects to PostgreSQL (applying migrations when migrate is set), Redis and S3 and builds
// the services. Redis and S3 are optional: an empty REDIS_ADDR keeps tokens in process memory and
// a failing S3 setup disables blob storage with a warning.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.Pool = pool
	a.closeFunc = append(a.closeFunc, pool.Close)

	if migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	var tokenCache provider.TokenCache
	if rdb != nil {
		a.Redis = rdb
		tokenCache = rdb.Client
		a.closeFunc = append(a.closeFunc, func() { _ = rdb.Close() })
	}

	var blobs recordings.BlobStore
	if cfg.AWS.RecordingsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.RecordingsBucket,
			Endpoint:        cfg.AWS.Endpoint,
			ForcePathStyle:  cfg.AWS.ForcePathStyle,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			a.Blobs = s3Client
			blobs = s3Client
		}
	}

	httpClient := provider.NewHTTPClient(cfg.Provider.HTTPTimeout)
	a.Provider, err = provider.New(cfg.Provider, httpClient, tokenCache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	store := sessions.NewRepository(pool)
	invites := notify.NewInvites(notify.NewMailer(cfg.Email, logger), nil, logger)

	a.JWT = auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	a.Sessions = sessions.NewService(store, invites, logger)
	a.Meetings = meetings.NewService(store, a.Provider, invites, logger)
	// Recording downloads can be large; they are bounded by the request context only.
	fetcher := recordings.NewFetcher(provider.NewHTTPClient(0), recordings.DefaultStrategies(), logger)
	a.Pipeline = recordings.NewPipeline(store, a.Provider, fetcher, blobs, cfg.Recording.LocalDir, logger)
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closeFunc) - 1; i >= 0; i-- {
		a.closeFunc[i]()
	}
	a.closeFunc = nil
}
