package handler

import (
	"context"

	"github.com/google/uuid"

	"overlay-service/internal/auth"
	"overlay-service/internal/domain/asset"
	"overlay-service/internal/domain/channel"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// ChannelHandler interfaces
type ChannelDirectory interface {
	GetOrCreateChannel(ctx context.Context, id auth.Identity, broadcaster string) (*channel.Channel, error)
	AddAdmin(ctx context.Context, id auth.Identity, broadcaster, username string) error
	RemoveAdmin(ctx context.Context, id auth.Identity, broadcaster, username string) error
	UpdateCanvas(ctx context.Context, id auth.Identity, broadcaster string, width, height float64) error
	UpdateFeatureFlags(ctx context.Context, id auth.Identity, broadcaster string, emoteChat, scriptChat *bool) error
}

// AssetHandler interfaces
type AssetDirectory interface {
	ListAssets(ctx context.Context, id auth.Identity, broadcaster string) ([]asset.View, error)
	CreateAsset(ctx context.Context, id auth.Identity, broadcaster, name, declaredType string, data []byte) (*asset.View, error)
	DeleteAsset(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID) error
	UpdateTransform(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, req asset.TransformRequest) (*asset.Patch, error)
	PreviewTransform(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, req asset.TransformRequest) (*asset.Patch, error)
	TriggerPlayback(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, play *bool) error
	UpdateVisibility(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, hidden bool) error
	UpdateScript(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, source []byte, description, name *string, public *bool) (*asset.View, error)
	AddAttachment(ctx context.Context, id auth.Identity, broadcaster string, scriptAssetID uuid.UUID, name, declaredType string, data []byte) (*asset.View, error)
	RemoveAttachment(ctx context.Context, id auth.Identity, broadcaster string, scriptAssetID, attachmentID uuid.UUID) (*asset.View, error)
	DownloadURL(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID) (string, error)
}

// PublicHandler interfaces
type PublicDirectory interface {
	PublicAssets(ctx context.Context, broadcaster string) ([]asset.View, error)
	Canvas(ctx context.Context, broadcaster string) (channel.Canvas, error)
	AssetContent(ctx context.Context, assetID uuid.UUID) ([]byte, string, error)
	PreviewContent(ctx context.Context, assetID uuid.UUID) ([]byte, string, error)
}
