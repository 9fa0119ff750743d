package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies an asset by the kind of media backing it. Every place
// that branches on type-specific behavior goes through TypeForMediaType.
type Type string

const (
	TypeVisual Type = "VISUAL"
	TypeAudio  Type = "AUDIO"
	TypeScript Type = "SCRIPT"
	TypeOther  Type = "OTHER"
)

const (
	MediaTypeJavaScript     = "application/javascript"
	MediaTypeJavaScriptText = "text/javascript"
)

// TypeForMediaType is the single classification rule mapping a media type
// to an asset type.
func TypeForMediaType(mediaType string) Type {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch {
	case strings.HasPrefix(mt, "image/"), strings.HasPrefix(mt, "video/"), strings.HasPrefix(mt, "model/"):
		return TypeVisual
	case strings.HasPrefix(mt, "audio/"):
		return TypeAudio
	case mt == MediaTypeJavaScript, mt == MediaTypeJavaScriptText:
		return TypeScript
	default:
		return TypeOther
	}
}

// Muteable reports whether the type carries a mute toggle.
func (t Type) Muteable() bool {
	return t == TypeVisual
}

// Asset is the type-independent header. Exactly one subtype record
// (Visual, Audio or Script) shares its ID.
type Asset struct {
	ID           uuid.UUID
	Broadcaster  string
	Type         Type
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Visual struct {
	ID                uuid.UUID
	Name              string
	PreviewKey        *string
	X                 float64
	Y                 float64
	Width             float64
	Height            float64
	Rotation          float64
	Speed             float64
	Muted             bool
	MediaType         string
	OriginalMediaType string
	AudioVolume       float64
	Hidden            bool
}

type Audio struct {
	ID          uuid.UUID
	Name        string
	MediaType   string
	Loop        bool
	DelayMillis int64
	Speed       float64
	Pitch       float64
	Volume      float64
	Hidden      bool
}

type Script struct {
	ID          uuid.UUID
	Name        string
	Description string
	Public      bool
	MediaType   string
	LogoKey     *string
	SourceKey   string
	ZIndex      int
	Attachments []ScriptAttachment
}

type ScriptAttachment struct {
	ID            uuid.UUID
	ScriptAssetID uuid.UUID
	FileKey       string
	Name          string
	MediaType     string
	AssetType     Type
}

// Record bundles a header with its single subtype row.
type Record struct {
	Asset  Asset
	Visual *Visual
	Audio  *Audio
	Script *Script
}

// Default geometry per category when the ingestion pipeline reports no
// dimensions.
const (
	DefaultAudioWidth   = 400
	DefaultAudioHeight  = 80
	DefaultScriptWidth  = 480
	DefaultScriptHeight = 270
	DefaultVisualWidth  = 640
	DefaultVisualHeight = 360
)

// DefaultGeometry returns the fallback width/height for a freshly created
// asset of the given type.
func DefaultGeometry(t Type) (width, height float64) {
	switch t {
	case TypeAudio:
		return DefaultAudioWidth, DefaultAudioHeight
	case TypeScript:
		return DefaultScriptWidth, DefaultScriptHeight
	default:
		return DefaultVisualWidth, DefaultVisualHeight
	}
}

// NormalizeBroadcaster lowercases a broadcaster name for storage and
// comparison. Every entry point must apply it before touching state.
func NormalizeBroadcaster(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
