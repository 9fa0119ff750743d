package asset

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTypeForMediaType(t *testing.T) {
	tests := []struct {
		mediaType string
		want      Type
	}{
		{"image/png", TypeVisual},
		{"image/gif", TypeVisual},
		{"video/mp4", TypeVisual},
		{"video/webm", TypeVisual},
		{"model/gltf-binary", TypeVisual},
		{"audio/mpeg", TypeAudio},
		{"audio/ogg", TypeAudio},
		{"application/javascript", TypeScript},
		{"text/javascript", TypeScript},
		{"font/woff2", TypeOther},
		{"font/ttf", TypeOther},
		{"application/pdf", TypeOther},
		{"", TypeOther},
		// Classification normalizes case and whitespace
		{" IMAGE/PNG ", TypeVisual},
		{"Audio/OGG", TypeAudio},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeForMediaType(tt.mediaType), "media type %q", tt.mediaType)
	}
}

func TestTypeMuteable(t *testing.T) {
	assert.True(t, TypeVisual.Muteable())
	assert.False(t, TypeAudio.Muteable())
	assert.False(t, TypeScript.Muteable())
	assert.False(t, TypeOther.Muteable())
}

func TestDefaultGeometry(t *testing.T) {
	w, h := DefaultGeometry(TypeAudio)
	assert.Equal(t, float64(DefaultAudioWidth), w)
	assert.Equal(t, float64(DefaultAudioHeight), h)

	w, h = DefaultGeometry(TypeScript)
	assert.Equal(t, float64(DefaultScriptWidth), w)
	assert.Equal(t, float64(DefaultScriptHeight), h)

	w, h = DefaultGeometry(TypeVisual)
	assert.Equal(t, float64(DefaultVisualWidth), w)
	assert.Equal(t, float64(DefaultVisualHeight), h)
}

func TestNormalizeBroadcaster(t *testing.T) {
	assert.Equal(t, "streamer", NormalizeBroadcaster("Streamer"))
	assert.Equal(t, "streamer", NormalizeBroadcaster("  STREAMER  "))
	assert.Equal(t, "", NormalizeBroadcaster("   "))
}

func TestViewOfVisual(t *testing.T) {
	id := uuid.New()
	previewKey := "previews/streamer/" + id.String()
	rec := Record{
		Asset: Asset{ID: id, Broadcaster: "streamer", Type: TypeVisual, DisplayOrder: 3},
		Visual: &Visual{
			ID:                id,
			Name:              "logo.png",
			PreviewKey:        &previewKey,
			X:                 10,
			Y:                 20,
			Width:             640,
			Height:            360,
			Speed:             1,
			MediaType:         "image/png",
			OriginalMediaType: "image/png",
			AudioVolume:       1,
		},
	}

	v := ViewOf(rec)
	assert.Equal(t, id, v.ID)
	assert.Equal(t, TypeVisual, v.Type)
	assert.Equal(t, 3, v.DisplayOrder)
	assert.Equal(t, "logo.png", v.Name)
	assert.True(t, v.HasPreview)
	assert.Equal(t, float64(10), v.X)
	assert.Equal(t, float64(640), v.Width)
}

func TestViewOfAudioUsesDefaultGeometry(t *testing.T) {
	id := uuid.New()
	rec := Record{
		Asset: Asset{ID: id, Broadcaster: "streamer", Type: TypeAudio},
		Audio: &Audio{ID: id, Name: "alert.mp3", MediaType: "audio/mpeg", Speed: 1, Pitch: 1, Volume: 1},
	}

	v := ViewOf(rec)
	assert.Equal(t, float64(DefaultAudioWidth), v.Width)
	assert.Equal(t, float64(DefaultAudioHeight), v.Height)
	assert.Equal(t, float64(1), v.Volume)
}

func TestPublicViewsFiltersHidden(t *testing.T) {
	visible := Record{
		Asset:  Asset{ID: uuid.New(), Type: TypeVisual},
		Visual: &Visual{Name: "visible"},
	}
	hidden := Record{
		Asset:  Asset{ID: uuid.New(), Type: TypeVisual},
		Visual: &Visual{Name: "hidden", Hidden: true},
	}

	views := PublicViews([]Record{visible, hidden})
	assert.Len(t, views, 1)
	assert.Equal(t, "visible", views[0].Name)
}
