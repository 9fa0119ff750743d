package settings

import "context"

// Bounds are the live operator-tunable validation limits. The core only
// ever reads them; administration happens elsewhere. Callers fetch bounds
// fresh for every validation so tuning takes effect without a restart.
type Bounds struct {
	MinSpeed            float64
	MaxSpeed            float64
	MinPitch            float64
	MaxPitch            float64
	MinVolume           float64
	MaxVolume           float64
	MaxCanvasSideLength float64
	CanvasFPS           int
}

// Service exposes the current bounds.
type Service interface {
	Get(ctx context.Context) (Bounds, error)
}

// Defaults are used when no settings row has been provisioned yet.
func Defaults() Bounds {
	return Bounds{
		MinSpeed:            0.1,
		MaxSpeed:            4.0,
		MinPitch:            0.1,
		MaxPitch:            4.0,
		MinVolume:           0,
		MaxVolume:           1,
		MaxCanvasSideLength: 4096,
		CanvasFPS:           60,
	}
}

// Static is a fixed-bounds Service, used in tests and as a fallback when
// the backing store is unavailable.
type Static struct {
	Bounds Bounds
}

func (s Static) Get(context.Context) (Bounds, error) {
	return s.Bounds, nil
}
