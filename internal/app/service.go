package app

import (
	"context"
	"log"
	"time"

	"overlay-service/internal/broadcast"
	"overlay-service/internal/config"
	ohttp "overlay-service/internal/http"
	"overlay-service/internal/repository/postgres"
	"overlay-service/pkg/cache"
)

const cacheCleanupInterval = 5 * time.Minute

// Service is the assembled overlay service: storage, broadcast fan-out and
// the HTTP surface.
type Service struct {
	config   *config.Config
	db       *postgres.DB
	bus      *broadcast.Bus
	hub      *broadcast.Hub
	server   *ohttp.Server
	urlCache *cache.URLCache

	cancelForwarder context.CancelFunc
}

// NewService creates and initializes a new Service instance
// This is a convenience wrapper around InitializeService
func NewService() (*Service, error) {
	return InitializeService()
}

// Start begins forwarding bus messages to connected renderers and serves
// HTTP until the listener stops.
func (s *Service) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelForwarder = cancel

	// Every instance forwards the full topic stream into its local hub so
	// renderers can connect to any instance.
	if err := s.bus.StartForwarder(ctx, s.hub.Dispatch); err != nil {
		cancel()
		return err
	}

	go s.startCacheCleanup(ctx)

	log.Println("Starting overlay service on port " + s.config.Server.Port)
	return s.server.Start(":" + s.config.Server.Port)
}

// startCacheCleanup periodically drops expired presigned URL entries.
func (s *Service) startCacheCleanup(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.urlCache.Clear()
		}
	}
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(ctx context.Context) error {
	if s.cancelForwarder != nil {
		s.cancelForwarder()
	}

	err := s.server.Shutdown(ctx)
	if cerr := s.bus.Close(); err == nil {
		err = cerr
	}
	s.db.Close()
	return err
}
