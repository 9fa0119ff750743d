package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"overlay-service/internal/settings"
	apperrors "overlay-service/pkg/errors"
)

// SettingsRepository reads the operator-managed bounds row. The core never
// writes it; administration happens through a separate surface. A missing
// row yields the compiled-in defaults so a fresh database works out of the
// box.
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (settings.Bounds, error) {
	query := `
		SELECT min_speed, max_speed, min_pitch, max_pitch, min_volume, max_volume,
		       max_canvas_side_length, canvas_fps
		FROM system_settings
		ORDER BY updated_at DESC
		LIMIT 1
	`

	b := settings.Bounds{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&b.MinSpeed, &b.MaxSpeed, &b.MinPitch, &b.MaxPitch,
		&b.MinVolume, &b.MaxVolume, &b.MaxCanvasSideLength, &b.CanvasFPS,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return settings.Defaults(), nil
		}
		return settings.Bounds{}, apperrors.Wrap(err, "get settings")
	}

	return b, nil
}
