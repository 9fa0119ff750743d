package asset

import "github.com/google/uuid"

// View is the flat client-facing projection of an asset, merged from the
// header and its subtype row. Type-specific fields are zero-valued when they
// do not apply; the patch engine diffs two Views field by field.
type View struct {
	ID           uuid.UUID `json:"id"`
	Broadcaster  string    `json:"broadcaster"`
	Type         Type      `json:"assetType"`
	DisplayOrder int       `json:"displayOrder"`
	Name         string    `json:"name"`
	MediaType    string    `json:"mediaType"`
	Hidden       bool      `json:"hidden"`

	// Visual
	OriginalMediaType string  `json:"originalMediaType,omitempty"`
	HasPreview        bool    `json:"hasPreview,omitempty"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	Rotation          float64 `json:"rotation"`
	Speed             float64 `json:"speed,omitempty"`
	Muted             bool    `json:"muted,omitempty"`
	AudioVolume       float64 `json:"audioVolume,omitempty"`

	// Audio
	Loop        bool    `json:"loop,omitempty"`
	DelayMillis int64   `json:"delayMillis,omitempty"`
	Pitch       float64 `json:"pitch,omitempty"`
	Volume      float64 `json:"volume,omitempty"`

	// Script
	Description string           `json:"description,omitempty"`
	Public      bool             `json:"public,omitempty"`
	ZIndex      int              `json:"zIndex,omitempty"`
	Attachments []AttachmentView `json:"attachments,omitempty"`
}

type AttachmentView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MediaType string    `json:"mediaType"`
	AssetType Type      `json:"assetType"`
}

// ViewOf flattens a record into its client projection.
func ViewOf(rec Record) View {
	v := View{
		ID:           rec.Asset.ID,
		Broadcaster:  rec.Asset.Broadcaster,
		Type:         rec.Asset.Type,
		DisplayOrder: rec.Asset.DisplayOrder,
	}

	switch {
	case rec.Visual != nil:
		vis := rec.Visual
		v.Name = vis.Name
		v.MediaType = vis.MediaType
		v.OriginalMediaType = vis.OriginalMediaType
		v.HasPreview = vis.PreviewKey != nil
		v.X = vis.X
		v.Y = vis.Y
		v.Width = vis.Width
		v.Height = vis.Height
		v.Rotation = vis.Rotation
		v.Speed = vis.Speed
		v.Muted = vis.Muted
		v.AudioVolume = vis.AudioVolume
		v.Hidden = vis.Hidden
	case rec.Audio != nil:
		a := rec.Audio
		v.Name = a.Name
		v.MediaType = a.MediaType
		v.Loop = a.Loop
		v.DelayMillis = a.DelayMillis
		v.Speed = a.Speed
		v.Pitch = a.Pitch
		v.Volume = a.Volume
		v.Hidden = a.Hidden
		w, h := DefaultGeometry(TypeAudio)
		v.Width, v.Height = w, h
	case rec.Script != nil:
		s := rec.Script
		v.Name = s.Name
		v.MediaType = s.MediaType
		v.Description = s.Description
		v.Public = s.Public
		v.ZIndex = s.ZIndex
		w, h := DefaultGeometry(TypeScript)
		v.Width, v.Height = w, h
		for _, att := range s.Attachments {
			v.Attachments = append(v.Attachments, AttachmentView{
				ID:        att.ID,
				Name:      att.Name,
				MediaType: att.MediaType,
				AssetType: att.AssetType,
			})
		}
	}

	return v
}

// Hidden assets never appear in anonymous projections.
func PublicViews(records []Record) []View {
	views := make([]View, 0, len(records))
	for _, rec := range records {
		view := ViewOf(rec)
		if view.Hidden {
			continue
		}
		views = append(views, view)
	}
	return views
}
