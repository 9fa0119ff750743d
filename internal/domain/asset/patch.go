package asset

// TransformRequest is a partial mutation of an asset's placement and
// playback fields. A nil field means "not supplied": it is neither
// validated nor applied, so stored values survive untouched.
type TransformRequest struct {
	X                *float64 `json:"x,omitempty"`
	Y                *float64 `json:"y,omitempty"`
	Width            *float64 `json:"width,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	Rotation         *float64 `json:"rotation,omitempty"`
	Speed            *float64 `json:"speed,omitempty"`
	Muted            *bool    `json:"muted,omitempty"`
	Order            *int     `json:"order,omitempty"`
	AudioDelayMillis *int64   `json:"audioDelayMillis,omitempty"`
	AudioSpeed       *float64 `json:"audioSpeed,omitempty"`
	AudioPitch       *float64 `json:"audioPitch,omitempty"`
	AudioVolume      *float64 `json:"audioVolume,omitempty"`
	Loop             *bool    `json:"loop,omitempty"`
}

// Patch is the sparse before/after delta of a View. Nil means unchanged;
// nil fields drop out of the serialized payload so broadcasts stay small.
// Patches are ephemeral and never persisted.
type Patch struct {
	Name         *string  `json:"name,omitempty"`
	DisplayOrder *int     `json:"displayOrder,omitempty"`
	Hidden       *bool    `json:"hidden,omitempty"`
	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	Rotation     *float64 `json:"rotation,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`
	Muted        *bool    `json:"muted,omitempty"`
	AudioVolume  *float64 `json:"audioVolume,omitempty"`
	Loop         *bool    `json:"loop,omitempty"`
	DelayMillis  *int64   `json:"delayMillis,omitempty"`
	Pitch        *float64 `json:"pitch,omitempty"`
	Volume       *float64 `json:"volume,omitempty"`
	ZIndex       *int     `json:"zIndex,omitempty"`
}
