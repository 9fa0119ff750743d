package directory

import (
	"context"

	"github.com/google/uuid"

	"overlay-service/internal/auth"
	"overlay-service/internal/broadcast"
	"overlay-service/internal/domain/asset"
	"overlay-service/internal/patch"
	"overlay-service/internal/validate"
	apperrors "overlay-service/pkg/errors"
)

// UpdateTransform applies a partial placement/playback mutation. Supplied
// fields are validated against the live bounds and persisted atomically;
// absent fields survive untouched. Connected renderers receive a patch
// carrying only what actually changed, and a true no-op is not broadcast.
func (s *Service) UpdateTransform(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, req asset.TransformRequest) (*asset.Patch, error) {
	bounds, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Transform(req, bounds); err != nil {
		return nil, err
	}

	if _, err := s.authorizeAsset(ctx, id, broadcaster, assetID); err != nil {
		return nil, err
	}

	var before asset.View
	rec, err := s.assets.Mutate(ctx, assetID, func(r *asset.Record) error {
		before = asset.ViewOf(*r)
		return applyTransform(r, req)
	})
	if err != nil {
		return nil, err
	}

	delta := patch.Diff(before, asset.ViewOf(*rec))
	if patch.HasChanges(delta) {
		s.publish(ctx, rec.Asset.Broadcaster, broadcast.AssetEvent{
			Type:    broadcast.EventUpdated,
			Channel: rec.Asset.Broadcaster,
			AssetID: assetID,
			Patch:   &delta,
		})
	}
	return &delta, nil
}

// PreviewTransform broadcasts what an asset would look like with the
// requested values applied, without persisting anything. The patch always
// goes out, even when every value matches the stored state, so dragging in
// the editor stays live on connected renderers.
func (s *Service) PreviewTransform(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, req asset.TransformRequest) (*asset.Patch, error) {
	bounds, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Transform(req, bounds); err != nil {
		return nil, err
	}

	rec, err := s.authorizeAsset(ctx, id, broadcaster, assetID)
	if err != nil {
		return nil, err
	}

	scratch := copyRecord(rec)
	if err := applyTransform(scratch, req); err != nil {
		return nil, err
	}

	delta := patch.Full(asset.ViewOf(*scratch))
	s.publish(ctx, rec.Asset.Broadcaster, broadcast.AssetEvent{
		Type:    broadcast.EventPreview,
		Channel: rec.Asset.Broadcaster,
		AssetID: assetID,
		Patch:   &delta,
	})
	return &delta, nil
}

// TriggerPlayback tells renderers to start or stop an asset. Nothing is
// persisted; playback state lives only in the renderers. The event carries
// the current view so a renderer can mount the asset without a follow-up
// fetch.
func (s *Service) TriggerPlayback(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, play *bool) error {
	rec, err := s.authorizeAsset(ctx, id, broadcaster, assetID)
	if err != nil {
		return err
	}

	val := true
	if play != nil {
		val = *play
	}

	view := asset.ViewOf(*rec)
	s.publish(ctx, rec.Asset.Broadcaster, broadcast.AssetEvent{
		Type:    broadcast.EventPlay,
		Channel: rec.Asset.Broadcaster,
		AssetID: assetID,
		Payload: &view,
		Play:    &val,
	})
	return nil
}

// UpdateVisibility toggles whether an asset appears for anonymous viewers.
// Setting the stored value again is a no-op and notifies nobody. Hiding
// sends a bare event; revealing includes the full view so renderers can
// mount the asset without a follow-up fetch.
func (s *Service) UpdateVisibility(ctx context.Context, id auth.Identity, broadcaster string, assetID uuid.UUID, hidden bool) error {
	if _, err := s.authorizeAsset(ctx, id, broadcaster, assetID); err != nil {
		return err
	}

	changed := false
	rec, err := s.assets.Mutate(ctx, assetID, func(r *asset.Record) error {
		switch {
		case r.Visual != nil:
			changed = r.Visual.Hidden != hidden
			r.Visual.Hidden = hidden
		case r.Audio != nil:
			changed = r.Audio.Hidden != hidden
			r.Audio.Hidden = hidden
		default:
			return apperrors.Validation("script assets use the public flag, not visibility")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	event := broadcast.AssetEvent{
		Type:    broadcast.EventVisibility,
		Channel: rec.Asset.Broadcaster,
		AssetID: assetID,
	}
	if !hidden {
		view := asset.ViewOf(*rec)
		event.Payload = &view
	}
	s.publish(ctx, rec.Asset.Broadcaster, event)
	return nil
}

// applyTransform copies supplied request fields onto the record. Fields
// that do not exist for the asset's type are ignored, except mute, which is
// only legal on muteable types.
func applyTransform(rec *asset.Record, req asset.TransformRequest) error {
	if req.Muted != nil && !rec.Asset.Type.Muteable() {
		return apperrors.Validation("asset type does not support muting")
	}

	if req.Order != nil {
		rec.Asset.DisplayOrder = *req.Order
	}

	switch {
	case rec.Visual != nil:
		v := rec.Visual
		setFloat(&v.X, req.X)
		setFloat(&v.Y, req.Y)
		setFloat(&v.Width, req.Width)
		setFloat(&v.Height, req.Height)
		setFloat(&v.Rotation, req.Rotation)
		setFloat(&v.Speed, req.Speed)
		setFloat(&v.AudioVolume, req.AudioVolume)
		if req.Muted != nil {
			v.Muted = *req.Muted
		}
	case rec.Audio != nil:
		a := rec.Audio
		setFloat(&a.Speed, req.AudioSpeed)
		setFloat(&a.Pitch, req.AudioPitch)
		setFloat(&a.Volume, req.AudioVolume)
		if req.AudioDelayMillis != nil {
			a.DelayMillis = *req.AudioDelayMillis
		}
		if req.Loop != nil {
			a.Loop = *req.Loop
		}
	}

	return nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// copyRecord clones a record deeply enough that preview edits cannot leak
// into the loaded state.
func copyRecord(rec *asset.Record) *asset.Record {
	clone := &asset.Record{Asset: rec.Asset}
	if rec.Visual != nil {
		v := *rec.Visual
		clone.Visual = &v
	}
	if rec.Audio != nil {
		a := *rec.Audio
		clone.Audio = &a
	}
	if rec.Script != nil {
		sc := *rec.Script
		clone.Script = &sc
	}
	return clone
}
