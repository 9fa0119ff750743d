package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	b := Defaults()

	assert.Equal(t, 0.1, b.MinSpeed)
	assert.Equal(t, 4.0, b.MaxSpeed)
	assert.Equal(t, 0.1, b.MinPitch)
	assert.Equal(t, 4.0, b.MaxPitch)
	assert.Equal(t, 0.0, b.MinVolume)
	assert.Equal(t, 1.0, b.MaxVolume)
	assert.Equal(t, 4096.0, b.MaxCanvasSideLength)
	assert.Equal(t, 60, b.CanvasFPS)
}

func TestStatic(t *testing.T) {
	bounds := Defaults()
	bounds.MaxSpeed = 8

	got, err := Static{Bounds: bounds}.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bounds, got)
}
