package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"overlay-service/internal/domain/asset"
	apperrors "overlay-service/pkg/errors"
)

type AssetRepository struct {
	db *DB
}

func NewAssetRepository(db *DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// lockBroadcaster serializes every mutation for one broadcaster for the
// duration of the transaction. Different broadcasters hash to different
// locks and proceed independently.
func lockBroadcaster(ctx context.Context, tx pgx.Tx, broadcaster string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, broadcaster)
	return err
}

// insertHeader assigns the next display order for the broadcaster inside
// the same statement, so concurrent uploads cannot race the max+1 read.
func insertHeader(ctx context.Context, tx pgx.Tx, a *asset.Asset) error {
	query := `
		INSERT INTO assets (id, broadcaster, asset_type, display_order)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(display_order), 0) + 1 FROM assets WHERE broadcaster = $2))
		RETURNING display_order, created_at, updated_at
	`
	return tx.QueryRow(ctx, query, a.ID, a.Broadcaster, a.Type).
		Scan(&a.DisplayOrder, &a.CreatedAt, &a.UpdatedAt)
}

const visualColumns = `id, name, preview_key, x, y, width, height, rotation, speed, muted, media_type, original_media_type, audio_volume, hidden`

func insertVisual(ctx context.Context, tx pgx.Tx, v *asset.Visual) error {
	query := `
		INSERT INTO visual_assets (` + visualColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := tx.Exec(ctx, query,
		v.ID, v.Name, v.PreviewKey, v.X, v.Y, v.Width, v.Height, v.Rotation,
		v.Speed, v.Muted, v.MediaType, v.OriginalMediaType, v.AudioVolume, v.Hidden,
	)
	return err
}

const audioColumns = `id, name, media_type, loop_enabled, delay_millis, speed, pitch, volume, hidden`

func insertAudio(ctx context.Context, tx pgx.Tx, a *asset.Audio) error {
	query := `
		INSERT INTO audio_assets (` + audioColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, query,
		a.ID, a.Name, a.MediaType, a.Loop, a.DelayMillis, a.Speed, a.Pitch, a.Volume, a.Hidden,
	)
	return err
}

const scriptColumns = `id, name, description, is_public, media_type, logo_key, source_key, z_index`

func insertScript(ctx context.Context, tx pgx.Tx, s *asset.Script) error {
	query := `
		INSERT INTO script_assets (` + scriptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(ctx, query,
		s.ID, s.Name, s.Description, s.Public, s.MediaType, s.LogoKey, s.SourceKey, s.ZIndex,
	)
	return err
}

func (r *AssetRepository) CreateVisual(ctx context.Context, broadcaster string, v asset.Visual) (*asset.Record, error) {
	return r.create(ctx, broadcaster, asset.TypeVisual, v.ID, func(tx pgx.Tx) error {
		return insertVisual(ctx, tx, &v)
	}, func(rec *asset.Record) { rec.Visual = &v })
}

func (r *AssetRepository) CreateAudio(ctx context.Context, broadcaster string, a asset.Audio) (*asset.Record, error) {
	return r.create(ctx, broadcaster, asset.TypeAudio, a.ID, func(tx pgx.Tx) error {
		return insertAudio(ctx, tx, &a)
	}, func(rec *asset.Record) { rec.Audio = &a })
}

func (r *AssetRepository) CreateScript(ctx context.Context, broadcaster string, s asset.Script) (*asset.Record, error) {
	return r.create(ctx, broadcaster, asset.TypeScript, s.ID, func(tx pgx.Tx) error {
		return insertScript(ctx, tx, &s)
	}, func(rec *asset.Record) { rec.Script = &s })
}

// create inserts the header and exactly one subtype row atomically. A
// subtype insert failure rolls the header back, so no orphan metadata can
// survive a failed ingestion.
func (r *AssetRepository) create(
	ctx context.Context,
	broadcaster string,
	assetType asset.Type,
	id uuid.UUID,
	insertSubtype func(pgx.Tx) error,
	attach func(*asset.Record),
) (*asset.Record, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, errFailedStartTransaction(err)
	}
	defer tx.Rollback(ctx)

	if err := lockBroadcaster(ctx, tx, broadcaster); err != nil {
		return nil, apperrors.Wrap(err, "lock broadcaster")
	}

	header := asset.Asset{ID: id, Broadcaster: broadcaster, Type: assetType}
	if err := insertHeader(ctx, tx, &header); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("asset already exists")
		}
		return nil, apperrors.Wrap(err, "insert asset header")
	}

	if err := insertSubtype(tx); err != nil {
		return nil, apperrors.Wrap(err, "insert asset subtype")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errFailedCommitTransaction(err)
	}

	rec := &asset.Record{Asset: header}
	attach(rec)
	return rec, nil
}

func (r *AssetRepository) Get(ctx context.Context, id uuid.UUID) (*asset.Record, error) {
	return getRecord(ctx, r.db.Pool, id)
}

// querier covers both pool and transaction access.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getRecord(ctx context.Context, q querier, id uuid.UUID) (*asset.Record, error) {
	header := asset.Asset{}
	query := `SELECT id, broadcaster, asset_type, display_order, created_at, updated_at FROM assets WHERE id = $1`
	err := q.QueryRow(ctx, query, id).Scan(
		&header.ID, &header.Broadcaster, &header.Type, &header.DisplayOrder,
		&header.CreatedAt, &header.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errAssetNotFound)
		}
		return nil, apperrors.Wrap(err, "get asset header")
	}

	rec := &asset.Record{Asset: header}
	if err := loadSubtype(ctx, q, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func loadSubtype(ctx context.Context, q querier, rec *asset.Record) error {
	id := rec.Asset.ID

	switch rec.Asset.Type {
	case asset.TypeVisual:
		v := asset.Visual{}
		query := `SELECT ` + visualColumns + ` FROM visual_assets WHERE id = $1`
		err := q.QueryRow(ctx, query, id).Scan(
			&v.ID, &v.Name, &v.PreviewKey, &v.X, &v.Y, &v.Width, &v.Height, &v.Rotation,
			&v.Speed, &v.Muted, &v.MediaType, &v.OriginalMediaType, &v.AudioVolume, &v.Hidden,
		)
		if err != nil {
			return subtypeError(err)
		}
		rec.Visual = &v
	case asset.TypeAudio:
		a := asset.Audio{}
		query := `SELECT ` + audioColumns + ` FROM audio_assets WHERE id = $1`
		err := q.QueryRow(ctx, query, id).Scan(
			&a.ID, &a.Name, &a.MediaType, &a.Loop, &a.DelayMillis, &a.Speed, &a.Pitch, &a.Volume, &a.Hidden,
		)
		if err != nil {
			return subtypeError(err)
		}
		rec.Audio = &a
	case asset.TypeScript:
		s := asset.Script{}
		query := `SELECT ` + scriptColumns + ` FROM script_assets WHERE id = $1`
		err := q.QueryRow(ctx, query, id).Scan(
			&s.ID, &s.Name, &s.Description, &s.Public, &s.MediaType, &s.LogoKey, &s.SourceKey, &s.ZIndex,
		)
		if err != nil {
			return subtypeError(err)
		}
		if s.Attachments, err = listAttachments(ctx, q, id); err != nil {
			return err
		}
		rec.Script = &s
	}

	return nil
}

func subtypeError(err error) error {
	if err == pgx.ErrNoRows {
		// Header without subtype row violates the one-to-one invariant.
		return apperrors.InternalServer("asset subtype row missing", err)
	}
	return apperrors.Wrap(err, "get asset subtype")
}

func listAttachments(ctx context.Context, q querier, scriptAssetID uuid.UUID) ([]asset.ScriptAttachment, error) {
	query := `
		SELECT id, script_asset_id, file_key, name, media_type, asset_type
		FROM script_attachments WHERE script_asset_id = $1 ORDER BY name ASC
	`
	rows, err := q.Query(ctx, query, scriptAssetID)
	if err != nil {
		return nil, apperrors.Wrap(err, "list attachments")
	}
	defer rows.Close()

	var attachments []asset.ScriptAttachment
	for rows.Next() {
		att := asset.ScriptAttachment{}
		if err := rows.Scan(&att.ID, &att.ScriptAssetID, &att.FileKey, &att.Name, &att.MediaType, &att.AssetType); err != nil {
			return nil, apperrors.Wrap(err, "scan attachment")
		}
		attachments = append(attachments, att)
	}

	return attachments, rows.Err()
}

func (r *AssetRepository) ListByBroadcaster(ctx context.Context, broadcaster string) ([]asset.Record, error) {
	query := `
		SELECT id, broadcaster, asset_type, display_order, created_at, updated_at
		FROM assets WHERE broadcaster = $1 ORDER BY display_order ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, broadcaster)
	if err != nil {
		return nil, apperrors.Wrap(err, "list assets")
	}
	defer rows.Close()

	var headers []asset.Asset
	for rows.Next() {
		h := asset.Asset{}
		if err := rows.Scan(&h.ID, &h.Broadcaster, &h.Type, &h.DisplayOrder, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, apperrors.Wrap(err, "scan asset header")
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]asset.Record, 0, len(headers))
	for _, h := range headers {
		rec := asset.Record{Asset: h}
		if err := loadSubtype(ctx, r.db.Pool, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// Mutate is the transactional read-modify-write every asset mutation goes
// through. It loads the record under the broadcaster's lock, lets fn edit
// it, then persists the subtype row and header in the same transaction.
func (r *AssetRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(*asset.Record) error) (*asset.Record, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, errFailedStartTransaction(err)
	}
	defer tx.Rollback(ctx)

	var broadcaster string
	err = tx.QueryRow(ctx, `SELECT broadcaster FROM assets WHERE id = $1`, id).Scan(&broadcaster)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errAssetNotFound)
		}
		return nil, apperrors.Wrap(err, "resolve asset broadcaster")
	}

	if err := lockBroadcaster(ctx, tx, broadcaster); err != nil {
		return nil, apperrors.Wrap(err, "lock broadcaster")
	}

	rec, err := getRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(rec); err != nil {
		return nil, err
	}

	if err := persistRecord(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errFailedCommitTransaction(err)
	}

	return rec, nil
}

func persistRecord(ctx context.Context, tx pgx.Tx, rec *asset.Record) error {
	headerQuery := `UPDATE assets SET display_order = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	if err := tx.QueryRow(ctx, headerQuery, rec.Asset.ID, rec.Asset.DisplayOrder).Scan(&rec.Asset.UpdatedAt); err != nil {
		return apperrors.Wrap(err, "update asset header")
	}

	switch {
	case rec.Visual != nil:
		v := rec.Visual
		query := `
			UPDATE visual_assets
			SET name = $2, preview_key = $3, x = $4, y = $5, width = $6, height = $7,
			    rotation = $8, speed = $9, muted = $10, media_type = $11,
			    original_media_type = $12, audio_volume = $13, hidden = $14
			WHERE id = $1
		`
		_, err := tx.Exec(ctx, query,
			v.ID, v.Name, v.PreviewKey, v.X, v.Y, v.Width, v.Height,
			v.Rotation, v.Speed, v.Muted, v.MediaType, v.OriginalMediaType, v.AudioVolume, v.Hidden,
		)
		if err != nil {
			return apperrors.Wrap(err, "update visual asset")
		}
	case rec.Audio != nil:
		a := rec.Audio
		query := `
			UPDATE audio_assets
			SET name = $2, media_type = $3, loop_enabled = $4, delay_millis = $5,
			    speed = $6, pitch = $7, volume = $8, hidden = $9
			WHERE id = $1
		`
		_, err := tx.Exec(ctx, query,
			a.ID, a.Name, a.MediaType, a.Loop, a.DelayMillis, a.Speed, a.Pitch, a.Volume, a.Hidden,
		)
		if err != nil {
			return apperrors.Wrap(err, "update audio asset")
		}
	case rec.Script != nil:
		s := rec.Script
		query := `
			UPDATE script_assets
			SET name = $2, description = $3, is_public = $4, media_type = $5,
			    logo_key = $6, source_key = $7, z_index = $8
			WHERE id = $1
		`
		_, err := tx.Exec(ctx, query,
			s.ID, s.Name, s.Description, s.Public, s.MediaType, s.LogoKey, s.SourceKey, s.ZIndex,
		)
		if err != nil {
			return apperrors.Wrap(err, "update script asset")
		}
	}

	return nil
}

// Delete removes the header and everything hanging off it in one
// transaction and returns the removed record for backing-file cleanup. The
// record is read only after the broadcaster's lock is held, same ordering as
// Mutate, so a concurrently added attachment cannot slip past the returned
// snapshot.
func (r *AssetRepository) Delete(ctx context.Context, id uuid.UUID) (*asset.Record, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, errFailedStartTransaction(err)
	}
	defer tx.Rollback(ctx)

	var broadcaster string
	err = tx.QueryRow(ctx, `SELECT broadcaster FROM assets WHERE id = $1`, id).Scan(&broadcaster)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errAssetNotFound)
		}
		return nil, apperrors.Wrap(err, "resolve asset broadcaster")
	}

	if err := lockBroadcaster(ctx, tx, broadcaster); err != nil {
		return nil, apperrors.Wrap(err, "lock broadcaster")
	}

	rec, err := getRecord(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM script_attachments WHERE script_asset_id = $1`,
		`DELETE FROM visual_assets WHERE id = $1`,
		`DELETE FROM audio_assets WHERE id = $1`,
		`DELETE FROM script_assets WHERE id = $1`,
		`DELETE FROM assets WHERE id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return nil, apperrors.Wrap(err, "delete asset")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errFailedCommitTransaction(err)
	}

	return rec, nil
}

func (r *AssetRepository) AddAttachment(ctx context.Context, att asset.ScriptAttachment) (*asset.ScriptAttachment, error) {
	query := `
		INSERT INTO script_attachments (id, script_asset_id, file_key, name, media_type, asset_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		att.ID, att.ScriptAssetID, att.FileKey, att.Name, att.MediaType, att.AssetType,
	).Scan(&att.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("attachment already exists")
		}
		return nil, apperrors.Wrap(err, "add attachment")
	}

	return &att, nil
}

func (r *AssetRepository) RemoveAttachment(ctx context.Context, scriptAssetID, attachmentID uuid.UUID) error {
	query := `DELETE FROM script_attachments WHERE id = $1 AND script_asset_id = $2`
	result, err := r.db.Pool.Exec(ctx, query, attachmentID, scriptAssetID)
	if err != nil {
		return apperrors.Wrap(err, "remove attachment")
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errAttachmentNotFound)
	}

	return nil
}
