package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"overlay-service/internal/domain/asset"
	"overlay-service/internal/settings"
	apperrors "overlay-service/pkg/errors"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func i64(v int64) *int64   { return &v }

func TestTransformAcceptsEmptyRequest(t *testing.T) {
	assert.NoError(t, Transform(asset.TransformRequest{}, settings.Defaults()))
}

func TestTransformBounds(t *testing.T) {
	bounds := settings.Defaults()

	tests := []struct {
		name    string
		req     asset.TransformRequest
		wantErr bool
	}{
		{"valid placement", asset.TransformRequest{X: f(100), Y: f(-50), Width: f(640), Height: f(360)}, false},
		{"zero width", asset.TransformRequest{Width: f(0)}, true},
		{"width above canvas ceiling", asset.TransformRequest{Width: f(5000)}, true},
		{"negative height", asset.TransformRequest{Height: f(-1)}, true},
		{"speed below minimum", asset.TransformRequest{Speed: f(0.05)}, true},
		{"speed at minimum", asset.TransformRequest{Speed: f(0.1)}, false},
		{"speed at maximum", asset.TransformRequest{Speed: f(4.0)}, false},
		{"speed above maximum", asset.TransformRequest{Speed: f(4.5)}, true},
		{"order below one", asset.TransformRequest{Order: i(0)}, true},
		{"order at one", asset.TransformRequest{Order: i(1)}, false},
		{"negative delay", asset.TransformRequest{AudioDelayMillis: i64(-1)}, true},
		{"audio speed out of range", asset.TransformRequest{AudioSpeed: f(9)}, true},
		{"pitch out of range", asset.TransformRequest{AudioPitch: f(0.01)}, true},
		{"volume above maximum", asset.TransformRequest{AudioVolume: f(1.5)}, true},
		{"volume at zero", asset.TransformRequest{AudioVolume: f(0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transform(tt.req, bounds)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperrors.ErrValidation), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransformUsesLiveBounds(t *testing.T) {
	// Operator-widened bounds admit values the defaults reject
	bounds := settings.Defaults()
	bounds.MaxSpeed = 10

	assert.NoError(t, Transform(asset.TransformRequest{Speed: f(8)}, bounds))
	assert.Error(t, Transform(asset.TransformRequest{Speed: f(8)}, settings.Defaults()))
}

func TestCanvas(t *testing.T) {
	bounds := settings.Defaults()

	assert.NoError(t, Canvas(1920, 1080, bounds))
	assert.NoError(t, Canvas(4096, 4096, bounds))
	assert.Error(t, Canvas(0, 1080, bounds))
	assert.Error(t, Canvas(1920, -1, bounds))
	assert.Error(t, Canvas(4097, 1080, bounds))
	assert.Error(t, Canvas(1920, 8000, bounds))
}
