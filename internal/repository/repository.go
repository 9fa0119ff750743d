package repository

import (
	"context"

	"github.com/google/uuid"

	"overlay-service/internal/domain/asset"
	"overlay-service/internal/domain/channel"
)

// ChannelRepository defines channel data access operations. All writes for
// one broadcaster serialize against each other; writes for different
// broadcasters never block one another.
type ChannelRepository interface {
	GetOrCreate(ctx context.Context, broadcaster string) (*channel.Channel, error)
	Get(ctx context.Context, broadcaster string) (*channel.Channel, error)
	// AddAdmin returns false without touching anything when the username is
	// already present.
	AddAdmin(ctx context.Context, broadcaster, username string) (bool, error)
	RemoveAdmin(ctx context.Context, broadcaster, username string) (bool, error)
	UpdateCanvas(ctx context.Context, broadcaster string, width, height float64) error
	UpdateFeatureFlags(ctx context.Context, broadcaster string, emoteChat, scriptChat *bool) error
}

// AssetRepository defines asset header + subtype data access. Creation and
// deletion touch the header and its single subtype row in one transaction so
// a failure can never leave one without the other.
type AssetRepository interface {
	CreateVisual(ctx context.Context, broadcaster string, v asset.Visual) (*asset.Record, error)
	CreateAudio(ctx context.Context, broadcaster string, a asset.Audio) (*asset.Record, error)
	CreateScript(ctx context.Context, broadcaster string, s asset.Script) (*asset.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*asset.Record, error)
	ListByBroadcaster(ctx context.Context, broadcaster string) ([]asset.Record, error)
	// Mutate runs fn against the freshly loaded record inside a transaction
	// that serializes with every other mutation for the same broadcaster,
	// then persists whatever fn changed.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*asset.Record) error) (*asset.Record, error)
	// Delete removes the header, subtype row and attachments and returns the
	// deleted record so callers can clean up backing files.
	Delete(ctx context.Context, id uuid.UUID) (*asset.Record, error)
	AddAttachment(ctx context.Context, att asset.ScriptAttachment) (*asset.ScriptAttachment, error)
	RemoveAttachment(ctx context.Context, scriptAssetID, attachmentID uuid.UUID) error
}
