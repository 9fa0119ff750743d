package directory

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"overlay-service/internal/auth"
	"overlay-service/internal/broadcast"
	"overlay-service/internal/domain/asset"
	"overlay-service/internal/media"
	s3store "overlay-service/internal/storage/s3"
	"overlay-service/internal/validate"
	apperrors "overlay-service/pkg/errors"
)

const previewMediaType = "image/png"

// authorizeAsset loads the asset and checks that it belongs to the channel
// named in the request and that the caller manages that channel. Assets the
// caller cannot reach report as missing rather than forbidden, so guessing
// IDs cannot confirm their existence.
func (s *Service) authorizeAsset(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID) (*asset.Record, error) {
	rec, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if rec.Asset.Broadcaster != asset.NormalizeBroadcaster(broadcaster) {
		return nil, apperrors.NotFound(msgAssetNotFound)
	}

	ch, err := s.channels.Get(ctx, rec.Asset.Broadcaster)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(id, ch); err != nil {
		return nil, apperrors.NotFound(msgAssetNotFound)
	}

	return rec, nil
}

// ListAssets is the management view: every asset of the channel, hidden
// ones included, in display order.
func (s *Service) ListAssets(ctx context.Context, id auth.Identity, broadcaster string) ([]asset.View, error) {
	ch, err := s.authorizeChannel(ctx, id, broadcaster)
	if err != nil {
		return nil, err
	}

	records, err := s.assets.ListByBroadcaster(ctx, ch.Broadcaster)
	if err != nil {
		return nil, err
	}

	views := make([]asset.View, 0, len(records))
	for _, rec := range records {
		views = append(views, asset.ViewOf(rec))
	}
	return views, nil
}

// PublicAssets is the anonymous renderer view; hidden assets never appear.
func (s *Service) PublicAssets(ctx context.Context, broadcaster string) ([]asset.View, error) {
	b := asset.NormalizeBroadcaster(broadcaster)
	if _, err := s.channels.Get(ctx, b); err != nil {
		return nil, err
	}

	records, err := s.assets.ListByBroadcaster(ctx, b)
	if err != nil {
		return nil, err
	}
	return asset.PublicViews(records), nil
}

// CreateAsset ingests an uploaded file: detect and normalize the media,
// store the bytes, then record the asset. Storage failures after the object
// write clean the object up again so nothing leaks.
func (s *Service) CreateAsset(ctx context.Context, id auth.Identity, broadcaster, name, declaredType string, data []byte) (*asset.View, error) {
	ch, err := s.GetOrCreateChannel(ctx, id, broadcaster)
	if err != nil {
		return nil, err
	}

	if err := validate.AssetName(name); err != nil {
		return nil, err
	}
	if err := validate.UploadSize(int64(len(data)), s.maxUploadSize); err != nil {
		return nil, err
	}
	declared, err := validate.ContentType(declaredType)
	if err != nil {
		return nil, err
	}

	mediaType, err := media.DetectAllowedMediaType(data, declared, name)
	if err != nil {
		return nil, err
	}

	assetType := asset.TypeForMediaType(mediaType)
	if assetType == asset.TypeOther {
		// Fonts and the like only enter as script attachments.
		return nil, apperrors.Ingestion("media type not supported as a standalone asset: " + mediaType)
	}
	if assetType == asset.TypeScript {
		return s.createScriptFromUpload(ctx, ch.Broadcaster, name, mediaType, data)
	}

	opt, err := s.optimizer.Optimize(ctx, data, mediaType)
	if err != nil {
		return nil, err
	}

	assetID := uuid.New()
	assetKey := s3store.AssetKey(ch.Broadcaster, assetID)
	if err := s.store.Put(ctx, assetKey, opt.Data, opt.MediaType); err != nil {
		return nil, err
	}

	var previewKey *string
	if len(opt.Preview) > 0 {
		key := s3store.PreviewKey(ch.Broadcaster, assetID)
		if err := s.store.Put(ctx, key, opt.Preview, previewMediaType); err != nil {
			// Previews are best-effort; the asset stays usable without one.
			log.Printf("directory: store preview for %s failed: %v", assetID, err)
		} else {
			previewKey = &key
		}
	}

	rec, err := s.createRecord(ctx, ch.Broadcaster, assetID, assetType, name, mediaType, previewKey, opt)
	if err != nil {
		s.cleanupObjects(ctx, assetKey, previewKey)
		return nil, err
	}

	view := asset.ViewOf(*rec)
	s.publish(ctx, ch.Broadcaster, broadcast.AssetEvent{
		Type:    broadcast.EventCreated,
		Channel: ch.Broadcaster,
		AssetID: rec.Asset.ID,
		Payload: &view,
	})
	return &view, nil
}

func (s *Service) createRecord(
	ctx context.Context,
	broadcaster string,
	assetID uuid.UUID,
	assetType asset.Type,
	name, mediaType string,
	previewKey *string,
	opt *media.Optimized,
) (*asset.Record, error) {
	switch assetType {
	case asset.TypeAudio:
		return s.assets.CreateAudio(ctx, broadcaster, asset.Audio{
			ID:        assetID,
			Name:      name,
			MediaType: opt.MediaType,
			Speed:     1,
			Pitch:     1,
			Volume:    1,
		})
	default:
		width, height := float64(opt.Width), float64(opt.Height)
		if width <= 0 || height <= 0 {
			width, height = asset.DefaultGeometry(assetType)
		}
		return s.assets.CreateVisual(ctx, broadcaster, asset.Visual{
			ID:                assetID,
			Name:              name,
			PreviewKey:        previewKey,
			Width:             width,
			Height:            height,
			Speed:             1,
			MediaType:         opt.MediaType,
			OriginalMediaType: mediaType,
			AudioVolume:       1,
		})
	}
}

func (s *Service) createScriptFromUpload(ctx context.Context, broadcaster, name, mediaType string, source []byte) (*asset.View, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, apperrors.Validation("script source cannot be blank")
	}

	assetID := uuid.New()
	sourceKey := s3store.AssetKey(broadcaster, assetID)
	if err := s.store.Put(ctx, sourceKey, source, mediaType); err != nil {
		return nil, err
	}

	rec, err := s.assets.CreateScript(ctx, broadcaster, asset.Script{
		ID:        assetID,
		Name:      name,
		MediaType: mediaType,
		SourceKey: sourceKey,
		ZIndex:    1,
	})
	if err != nil {
		s.cleanupObjects(ctx, sourceKey, nil)
		return nil, err
	}

	view := asset.ViewOf(*rec)
	s.publish(ctx, broadcaster, broadcast.AssetEvent{
		Type:    broadcast.EventCreated,
		Channel: broadcaster,
		AssetID: rec.Asset.ID,
		Payload: &view,
	})
	return &view, nil
}

// UpdateScript replaces a script asset's source code.
func (s *Service) UpdateScript(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, source []byte, description, name *string, public *bool) (*asset.View, error) {
	if len(source) > 0 {
		if err := validate.UploadSize(int64(len(source)), s.maxUploadSize); err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(source)) == 0 {
			return nil, apperrors.Validation("script source cannot be blank")
		}
	}
	if name != nil {
		if err := validate.AssetName(*name); err != nil {
			return nil, err
		}
	}

	rec, err := s.authorizeAsset(ctx, id, broadcaster, assetID)
	if err != nil {
		return nil, err
	}
	if rec.Script == nil {
		return nil, apperrors.Validation("asset is not a script")
	}

	updated, err := s.assets.Mutate(ctx, assetID, func(r *asset.Record) error {
		if r.Script == nil {
			return apperrors.Validation("asset is not a script")
		}
		if name != nil {
			r.Script.Name = *name
		}
		if description != nil {
			r.Script.Description = *description
		}
		if public != nil {
			r.Script.Public = *public
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The stored source is only replaced once the metadata commit succeeds,
	// so a failed update can never leave the record pointing at new bytes.
	if len(source) > 0 {
		if err := s.store.Put(ctx, updated.Script.SourceKey, source, updated.Script.MediaType); err != nil {
			return nil, err
		}
	}

	view := asset.ViewOf(*updated)
	s.publish(ctx, updated.Asset.Broadcaster, broadcast.AssetEvent{
		Type:    broadcast.EventUpdated,
		Channel: updated.Asset.Broadcaster,
		AssetID: assetID,
		Payload: &view,
	})
	return &view, nil
}

// DeleteAsset removes the record and then its backing objects. Object
// cleanup is best-effort; a stranded object is cheaper than a phantom
// record.
func (s *Service) DeleteAsset(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID) error {
	rec, err := s.authorizeAsset(ctx, id, broadcaster, assetID)
	if err != nil {
		return err
	}

	deleted, err := s.assets.Delete(ctx, assetID)
	if err != nil {
		return err
	}

	b := rec.Asset.Broadcaster
	s.cleanupObjects(ctx, s3store.AssetKey(b, assetID), nil)
	if deleted.Visual != nil && deleted.Visual.PreviewKey != nil {
		s.cleanupObjects(ctx, *deleted.Visual.PreviewKey, nil)
	}
	if deleted.Script != nil {
		for _, att := range deleted.Script.Attachments {
			s.cleanupObjects(ctx, att.FileKey, nil)
		}
	}

	s.publish(ctx, b, broadcast.AssetEvent{
		Type:    broadcast.EventDeleted,
		Channel: b,
		AssetID: assetID,
	})
	return nil
}

func (s *Service) cleanupObjects(ctx context.Context, key string, extra *string) {
	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("directory: cleanup of %s failed: %v", key, err)
	}
	if extra != nil {
		if err := s.store.Delete(ctx, *extra); err != nil {
			log.Printf("directory: cleanup of %s failed: %v", *extra, err)
		}
	}
}

// AssetContent serves an asset's bytes to anonymous renderers. Hidden
// assets are not served.
func (s *Service) AssetContent(ctx context.Context, assetID uuid.UUID) ([]byte, string, error) {
	rec, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, "", err
	}

	view := asset.ViewOf(*rec)
	if view.Hidden {
		return nil, "", apperrors.NotFound(msgAssetNotFound)
	}

	return s.store.Get(ctx, s3store.AssetKey(rec.Asset.Broadcaster, assetID))
}

// PreviewContent serves the still preview frame of a motion asset.
func (s *Service) PreviewContent(ctx context.Context, assetID uuid.UUID) ([]byte, string, error) {
	rec, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, "", err
	}
	if rec.Visual == nil || rec.Visual.PreviewKey == nil || rec.Visual.Hidden {
		return nil, "", apperrors.NotFound(msgAssetNotFound)
	}

	return s.store.Get(ctx, *rec.Visual.PreviewKey)
}

// DownloadURL hands a channel manager a short-lived direct link to the
// stored bytes. Presigning is pure CPU but links are requested repeatedly
// by editor sessions, so they are cached until shortly before expiry.
func (s *Service) DownloadURL(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID) (string, error) {
	rec, err := s.authorizeAsset(ctx, id, broadcaster, assetID)
	if err != nil {
		return "", err
	}

	key := s3store.AssetKey(rec.Asset.Broadcaster, assetID)
	if url, ok := s.urlCache.Get(key); ok {
		return url, nil
	}

	url, err := s.store.GeneratePresignedDownloadURL(ctx, key)
	if err != nil {
		return "", err
	}
	s.urlCache.Set(key, url, time.Now().Add(s.urlCacheTTL))
	return url, nil
}

// AddAttachment stores a companion file under a script asset. Attachments
// may be any allowed media type, fonts included.
func (s *Service) AddAttachment(ctx context.Context, id auth.Identity, broadcaster string, scriptAssetID uuid.UUID, name, declaredType string, data []byte) (*asset.View, error) {
	if err := validate.AssetName(name); err != nil {
		return nil, err
	}
	if err := validate.UploadSize(int64(len(data)), s.maxUploadSize); err != nil {
		return nil, err
	}
	declared, err := validate.ContentType(declaredType)
	if err != nil {
		return nil, err
	}

	rec, err := s.authorizeAsset(ctx, id, broadcaster, scriptAssetID)
	if err != nil {
		return nil, err
	}
	if rec.Script == nil {
		return nil, apperrors.Validation("asset is not a script")
	}

	mediaType, err := media.DetectAllowedMediaType(data, declared, name)
	if err != nil {
		return nil, err
	}

	attID := uuid.New()
	fileKey := s3store.AttachmentKey(rec.Asset.Broadcaster, attID)
	if err := s.store.Put(ctx, fileKey, data, mediaType); err != nil {
		return nil, err
	}

	if _, err := s.assets.AddAttachment(ctx, asset.ScriptAttachment{
		ID:            attID,
		ScriptAssetID: scriptAssetID,
		FileKey:       fileKey,
		Name:          name,
		MediaType:     mediaType,
		AssetType:     asset.TypeForMediaType(mediaType),
	}); err != nil {
		s.cleanupObjects(ctx, fileKey, nil)
		return nil, err
	}

	return s.broadcastUpdated(ctx, scriptAssetID)
}

func (s *Service) RemoveAttachment(ctx context.Context, id auth.Identity, broadcaster string, scriptAssetID, attachmentID uuid.UUID) (*asset.View, error) {
	rec, err := s.authorizeAsset(ctx, id, broadcaster, scriptAssetID)
	if err != nil {
		return nil, err
	}
	if rec.Script == nil {
		return nil, apperrors.Validation("asset is not a script")
	}

	var fileKey string
	for _, att := range rec.Script.Attachments {
		if att.ID == attachmentID {
			fileKey = att.FileKey
		}
	}

	if err := s.assets.RemoveAttachment(ctx, scriptAssetID, attachmentID); err != nil {
		return nil, err
	}
	if fileKey != "" {
		s.cleanupObjects(ctx, fileKey, nil)
	}

	return s.broadcastUpdated(ctx, scriptAssetID)
}

// broadcastUpdated reloads an asset and pushes its full view as an UPDATED
// event.
func (s *Service) broadcastUpdated(ctx context.Context, assetID uuid.UUID) (*asset.View, error) {
	rec, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, err
	}

	view := asset.ViewOf(*rec)
	s.publish(ctx, rec.Asset.Broadcaster, broadcast.AssetEvent{
		Type:    broadcast.EventUpdated,
		Channel: rec.Asset.Broadcaster,
		AssetID: assetID,
		Payload: &view,
	})
	return &view, nil
}
