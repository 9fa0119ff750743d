package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"overlay-service/internal/domain/channel"
	apperrors "overlay-service/pkg/errors"
)

type ChannelRepository struct {
	db *DB
}

func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

const channelColumns = `broadcaster, admins, canvas_width, canvas_height, emote_chat_enabled, script_chat_enabled, created_at, updated_at`

func scanChannel(row pgx.Row) (*channel.Channel, error) {
	ch := &channel.Channel{}
	err := row.Scan(
		&ch.Broadcaster, &ch.Admins, &ch.CanvasWidth, &ch.CanvasHeight,
		&ch.EmoteChatEnabled, &ch.ScriptChatEnabled, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// GetOrCreate lazily provisions a channel row on first access. Idempotent;
// concurrent callers converge on the same row.
func (r *ChannelRepository) GetOrCreate(ctx context.Context, broadcaster string) (*channel.Channel, error) {
	insert := `
		INSERT INTO channels (broadcaster, admins, canvas_width, canvas_height)
		VALUES ($1, '{}', $2, $3)
		ON CONFLICT (broadcaster) DO NOTHING
	`
	if _, err := r.db.Pool.Exec(ctx, insert, broadcaster, channel.DefaultCanvasWidth, channel.DefaultCanvasHeight); err != nil {
		return nil, apperrors.Wrap(err, "create channel")
	}

	return r.Get(ctx, broadcaster)
}

func (r *ChannelRepository) Get(ctx context.Context, broadcaster string) (*channel.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE broadcaster = $1`

	ch, err := scanChannel(r.db.Pool.QueryRow(ctx, query, broadcaster))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errChannelNotFound)
		}
		return nil, apperrors.Wrap(err, "get channel")
	}

	return ch, nil
}

// AddAdmin appends the username unless already present. The membership check
// and append happen in one statement, so concurrent adds of the same name
// cannot both report a change.
func (r *ChannelRepository) AddAdmin(ctx context.Context, broadcaster, username string) (bool, error) {
	query := `
		UPDATE channels
		SET admins = array_append(admins, $2), updated_at = NOW()
		WHERE broadcaster = $1 AND NOT ($2 = ANY(admins))
	`

	result, err := r.db.Pool.Exec(ctx, query, broadcaster, username)
	if err != nil {
		return false, apperrors.Wrap(err, "add admin")
	}

	return result.RowsAffected() > 0, nil
}

func (r *ChannelRepository) RemoveAdmin(ctx context.Context, broadcaster, username string) (bool, error) {
	query := `
		UPDATE channels
		SET admins = array_remove(admins, $2), updated_at = NOW()
		WHERE broadcaster = $1 AND $2 = ANY(admins)
	`

	result, err := r.db.Pool.Exec(ctx, query, broadcaster, username)
	if err != nil {
		return false, apperrors.Wrap(err, "remove admin")
	}

	return result.RowsAffected() > 0, nil
}

func (r *ChannelRepository) UpdateCanvas(ctx context.Context, broadcaster string, width, height float64) error {
	query := `
		UPDATE channels
		SET canvas_width = $2, canvas_height = $3, updated_at = NOW()
		WHERE broadcaster = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, broadcaster, width, height)
	if err != nil {
		return apperrors.Wrap(err, "update canvas")
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errChannelNotFound)
	}

	return nil
}

func (r *ChannelRepository) UpdateFeatureFlags(ctx context.Context, broadcaster string, emoteChat, scriptChat *bool) error {
	query := `
		UPDATE channels
		SET emote_chat_enabled = COALESCE($2, emote_chat_enabled),
		    script_chat_enabled = COALESCE($3, script_chat_enabled),
		    updated_at = NOW()
		WHERE broadcaster = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, broadcaster, emoteChat, scriptChat)
	if err != nil {
		return apperrors.Wrap(err, "update feature flags")
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errChannelNotFound)
	}

	return nil
}
