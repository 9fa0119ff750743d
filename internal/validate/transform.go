// Package validate range-checks mutation requests against the live
// configurable bounds. Bounds are read fresh from the settings collaborator
// on every call so operator tuning applies immediately; nothing here is
// hard-coded.
package validate

import (
	"fmt"

	"overlay-service/internal/domain/asset"
	"overlay-service/internal/settings"
	apperrors "overlay-service/pkg/errors"
)

// Transform checks every supplied field of a transform request. Absent
// fields are neither validated nor applied.
func Transform(req asset.TransformRequest, bounds settings.Bounds) error {
	if req.Width != nil && (*req.Width <= 0 || *req.Width > bounds.MaxCanvasSideLength) {
		return apperrors.Validation(fmt.Sprintf("width must be in (0, %g]", bounds.MaxCanvasSideLength))
	}

	if req.Height != nil && *req.Height <= 0 {
		return apperrors.Validation("height must be positive")
	}

	if req.Speed != nil && (*req.Speed < bounds.MinSpeed || *req.Speed > bounds.MaxSpeed) {
		return speedRangeError(bounds)
	}

	if req.Order != nil && *req.Order < 1 {
		return apperrors.Validation("order must be at least 1")
	}

	if req.AudioDelayMillis != nil && *req.AudioDelayMillis < 0 {
		return apperrors.Validation("audio delay must not be negative")
	}

	if req.AudioSpeed != nil && (*req.AudioSpeed < bounds.MinSpeed || *req.AudioSpeed > bounds.MaxSpeed) {
		return speedRangeError(bounds)
	}

	if req.AudioPitch != nil && (*req.AudioPitch < bounds.MinPitch || *req.AudioPitch > bounds.MaxPitch) {
		return apperrors.Validation(fmt.Sprintf("pitch must be in [%g, %g]", bounds.MinPitch, bounds.MaxPitch))
	}

	if req.AudioVolume != nil && (*req.AudioVolume < bounds.MinVolume || *req.AudioVolume > bounds.MaxVolume) {
		return apperrors.Validation(fmt.Sprintf("volume must be in [%g, %g]", bounds.MinVolume, bounds.MaxVolume))
	}

	return nil
}

// Canvas checks a canvas resize against the configured side-length ceiling.
func Canvas(width, height float64, bounds settings.Bounds) error {
	if width <= 0 || height <= 0 {
		return apperrors.Validation("canvas dimensions must be positive")
	}
	if width > bounds.MaxCanvasSideLength || height > bounds.MaxCanvasSideLength {
		return apperrors.Validation(fmt.Sprintf("canvas side length must not exceed %g", bounds.MaxCanvasSideLength))
	}
	return nil
}

func speedRangeError(bounds settings.Bounds) error {
	return apperrors.Validation(fmt.Sprintf("speed must be in [%g, %g]", bounds.MinSpeed, bounds.MaxSpeed))
}
