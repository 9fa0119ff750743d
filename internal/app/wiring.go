package app

import (
	"fmt"
	"time"

	"overlay-service/internal/auth"
	"overlay-service/internal/broadcast"
	"overlay-service/internal/config"
	"overlay-service/internal/directory"
	ohttp "overlay-service/internal/http"
	"overlay-service/internal/media"
	"overlay-service/internal/repository/postgres"
	s3store "overlay-service/internal/storage/s3"
	"overlay-service/pkg/cache"
)

const (
	jwtTokenLifetime = 24 * time.Hour
	// Cached presigned URLs must die before the URLs themselves do.
	urlCacheHeadroom = time.Minute
)

// InitializeService wires up all dependencies and returns a configured Service
func InitializeService() (*Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := s3store.NewStore(&cfg.AWS, cfg.AWS.AssetBucket, cfg.App.PresignedURLExpiry)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	bus, err := broadcast.NewBus(&cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	pipeline := media.NewPipeline(&cfg.Media)
	if err := pipeline.AssertReady(); err != nil {
		db.Close()
		_ = bus.Close()
		return nil, fmt.Errorf("media toolchain not available: %w", err)
	}

	channelRepo := postgres.NewChannelRepository(db)
	assetRepo := postgres.NewAssetRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)

	urlCache := cache.NewURLCache()
	urlCacheTTL := cfg.App.PresignedURLExpiry - urlCacheHeadroom
	if urlCacheTTL <= 0 {
		urlCacheTTL = cfg.App.PresignedURLExpiry / 2
	}

	gate := auth.NewGate(cfg.Auth.SysadminManagesChannels)
	dir := directory.NewService(
		channelRepo, assetRepo, settingsRepo,
		store, pipeline, bus, gate,
		urlCache, urlCacheTTL,
		cfg.Redis.TopicPrefix, cfg.Media.MaxUploadSize,
	)

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, jwtTokenLifetime)
	authMiddleware := auth.NewMiddleware(jwtService)

	hub := broadcast.NewHub()

	server := ohttp.NewServer(&ohttp.ServerDependencies{
		Config:         cfg,
		Directory:      dir,
		Hub:            hub,
		AuthMiddleware: authMiddleware,
	})

	return &Service{
		config:   cfg,
		db:       db,
		bus:      bus,
		hub:      hub,
		server:   server,
		urlCache: urlCache,
	}, nil
}
