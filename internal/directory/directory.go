// Package directory is the orchestration layer for channels and their
// overlay assets. Every mutation follows the same shape: authorize, change
// storage, then notify connected renderers. Notifications go out strictly
// after the storage commit and a notification failure never rolls a
// committed change back.
package directory

import (
	"context"
	"log"
	"time"

	"overlay-service/internal/auth"
	"overlay-service/internal/broadcast"
	"overlay-service/internal/domain/asset"
	"overlay-service/internal/domain/channel"
	"overlay-service/internal/media"
	"overlay-service/internal/repository"
	"overlay-service/internal/settings"
	"overlay-service/internal/validate"
	"overlay-service/pkg/cache"
	apperrors "overlay-service/pkg/errors"
)

const (
	msgAssetNotFound   = "asset not found"
	msgChannelNotFound = "channel not found"

	adminAddedMessage   = "admin added"
	adminRemovedMessage = "admin removed"
)

// ObjectStore is the backing byte store for asset media.
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, data []byte, contentType string) error
	Get(ctx context.Context, objectKey string) ([]byte, string, error)
	Delete(ctx context.Context, objectKey string) error
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string) (string, error)
}

// Optimizer normalizes uploaded media for playback.
type Optimizer interface {
	Optimize(ctx context.Context, data []byte, mediaType string) (*media.Optimized, error)
}

// Service coordinates repositories, the object store, the ingestion
// pipeline and the broadcast publisher behind the management API.
type Service struct {
	channels      repository.ChannelRepository
	assets        repository.AssetRepository
	settings      settings.Service
	store         ObjectStore
	optimizer     Optimizer
	publisher     broadcast.Publisher
	gate          *auth.Gate
	urlCache      *cache.URLCache
	urlCacheTTL   time.Duration
	topicPrefix   string
	maxUploadSize int64
}

func NewService(
	channels repository.ChannelRepository,
	assets repository.AssetRepository,
	settingsSvc settings.Service,
	store ObjectStore,
	optimizer Optimizer,
	publisher broadcast.Publisher,
	gate *auth.Gate,
	urlCache *cache.URLCache,
	urlCacheTTL time.Duration,
	topicPrefix string,
	maxUploadSize int64,
) *Service {
	return &Service{
		channels:      channels,
		assets:        assets,
		settings:      settingsSvc,
		store:         store,
		optimizer:     optimizer,
		publisher:     publisher,
		gate:          gate,
		urlCache:      urlCache,
		urlCacheTTL:   urlCacheTTL,
		topicPrefix:   topicPrefix,
		maxUploadSize: maxUploadSize,
	}
}

// publish fires a post-commit notification. Failures are logged and
// swallowed; the mutation already happened.
func (s *Service) publish(ctx context.Context, broadcaster string, payload any) {
	topic := broadcast.Topic(s.topicPrefix, broadcaster)
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		log.Printf("directory: publish to %s failed: %v", topic, err)
	}
}

// GetOrCreateChannel returns the caller's channel, provisioning it on first
// access. Only the broadcaster themself (or a sysadmin, when the deployment
// allows) can bring a channel into existence.
func (s *Service) GetOrCreateChannel(ctx context.Context, id auth.Identity, broadcaster string) (*channel.Channel, error) {
	b := asset.NormalizeBroadcaster(broadcaster)

	ch, err := s.channels.Get(ctx, b)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		prospective := &channel.Channel{Broadcaster: b}
		if err := s.gate.Authorize(id, prospective); err != nil {
			return nil, err
		}
		return s.channels.GetOrCreate(ctx, b)
	}

	if err := s.gate.Authorize(id, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// authorizeChannel loads the channel and checks management rights.
func (s *Service) authorizeChannel(ctx context.Context, id auth.Identity, broadcaster string) (*channel.Channel, error) {
	ch, err := s.channels.Get(ctx, asset.NormalizeBroadcaster(broadcaster))
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(id, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// AddAdmin grants a user management rights over the channel. Adding a name
// already on the list changes nothing and notifies nobody.
func (s *Service) AddAdmin(ctx context.Context, id auth.Identity, broadcaster, username string) error {
	ch, err := s.authorizeChannel(ctx, id, broadcaster)
	if err != nil {
		return err
	}

	changed, err := s.channels.AddAdmin(ctx, ch.Broadcaster, asset.NormalizeBroadcaster(username))
	if err != nil {
		return err
	}
	if changed {
		s.publish(ctx, ch.Broadcaster, broadcast.AdminEvent{Channel: ch.Broadcaster, Message: adminAddedMessage})
	}
	return nil
}

func (s *Service) RemoveAdmin(ctx context.Context, id auth.Identity, broadcaster, username string) error {
	ch, err := s.authorizeChannel(ctx, id, broadcaster)
	if err != nil {
		return err
	}

	changed, err := s.channels.RemoveAdmin(ctx, ch.Broadcaster, asset.NormalizeBroadcaster(username))
	if err != nil {
		return err
	}
	if changed {
		s.publish(ctx, ch.Broadcaster, broadcast.AdminEvent{Channel: ch.Broadcaster, Message: adminRemovedMessage})
	}
	return nil
}

// UpdateCanvas resizes the channel's rendering surface and notifies
// renderers so they can re-project immediately.
func (s *Service) UpdateCanvas(ctx context.Context, id auth.Identity, broadcaster string, width, height float64) error {
	ch, err := s.authorizeChannel(ctx, id, broadcaster)
	if err != nil {
		return err
	}

	bounds, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if err := validate.Canvas(width, height, bounds); err != nil {
		return err
	}

	if err := s.channels.UpdateCanvas(ctx, ch.Broadcaster, width, height); err != nil {
		return err
	}

	s.publish(ctx, ch.Broadcaster, broadcast.CanvasEvent{
		Type:    broadcast.EventCanvas,
		Channel: ch.Broadcaster,
		Payload: channel.Canvas{Width: width, Height: height, FPS: bounds.CanvasFPS},
	})
	return nil
}

func (s *Service) UpdateFeatureFlags(ctx context.Context, id auth.Identity, broadcaster string, emoteChat, scriptChat *bool) error {
	ch, err := s.authorizeChannel(ctx, id, broadcaster)
	if err != nil {
		return err
	}
	return s.channels.UpdateFeatureFlags(ctx, ch.Broadcaster, emoteChat, scriptChat)
}

// Canvas is the anonymous read used by renderers on connect.
func (s *Service) Canvas(ctx context.Context, broadcaster string) (channel.Canvas, error) {
	ch, err := s.channels.Get(ctx, asset.NormalizeBroadcaster(broadcaster))
	if err != nil {
		return channel.Canvas{}, err
	}

	bounds, err := s.settings.Get(ctx)
	if err != nil {
		return channel.Canvas{}, err
	}

	return channel.Canvas{Width: ch.CanvasWidth, Height: ch.CanvasHeight, FPS: bounds.CanvasFPS}, nil
}
