package broadcast

import (
	"github.com/google/uuid"

	"overlay-service/internal/domain/asset"
	"overlay-service/internal/domain/channel"
)

// EventType enumerates the asset lifecycle notifications a channel topic
// carries.
type EventType string

const (
	EventCreated    EventType = "CREATED"
	EventUpdated    EventType = "UPDATED"
	EventVisibility EventType = "VISIBILITY"
	EventPlay       EventType = "PLAY"
	EventPreview    EventType = "PREVIEW"
	EventDeleted    EventType = "DELETED"
	EventCanvas     EventType = "CANVAS"
)

// AssetEvent is published on a channel topic whenever an asset changes.
// Optional fields drop out of the serialized payload entirely.
type AssetEvent struct {
	Type    EventType    `json:"type"`
	Channel string       `json:"channel"`
	AssetID uuid.UUID    `json:"assetId"`
	Payload *asset.View  `json:"payload,omitempty"`
	Patch   *asset.Patch `json:"patch,omitempty"`
	Play    *bool        `json:"play,omitempty"`
}

// CanvasEvent notifies renderers of a canvas reconfiguration.
type CanvasEvent struct {
	Type    EventType      `json:"type"`
	Channel string         `json:"channel"`
	Payload channel.Canvas `json:"payload"`
}

// AdminEvent is the plain notification sent when the admin set changes.
type AdminEvent struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}
