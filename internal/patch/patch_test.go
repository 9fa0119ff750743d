package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"overlay-service/internal/domain/asset"
)

func TestDiffOnlyChangedFields(t *testing.T) {
	before := asset.View{X: 10, Y: 20, Width: 640, Height: 360, Speed: 1}
	after := before
	after.X = 50
	after.Rotation = 90

	p := Diff(before, after)

	assert.NotNil(t, p.X)
	assert.Equal(t, float64(50), *p.X)
	assert.NotNil(t, p.Rotation)
	assert.Equal(t, float64(90), *p.Rotation)

	// Untouched fields stay out of the patch
	assert.Nil(t, p.Y)
	assert.Nil(t, p.Width)
	assert.Nil(t, p.Height)
	assert.Nil(t, p.Speed)
	assert.Nil(t, p.Name)
	assert.Nil(t, p.Hidden)
}

func TestDiffIdenticalViewsIsEmpty(t *testing.T) {
	v := asset.View{Name: "logo", X: 1, Y: 2, Width: 3, Height: 4, Speed: 1, Muted: true}

	p := Diff(v, v)
	assert.False(t, HasChanges(p))
}

func TestDiffBoolAndIntFields(t *testing.T) {
	before := asset.View{Muted: false, DisplayOrder: 1, DelayMillis: 0}
	after := asset.View{Muted: true, DisplayOrder: 4, DelayMillis: 250}

	p := Diff(before, after)

	assert.NotNil(t, p.Muted)
	assert.True(t, *p.Muted)
	assert.NotNil(t, p.DisplayOrder)
	assert.Equal(t, 4, *p.DisplayOrder)
	assert.NotNil(t, p.DelayMillis)
	assert.Equal(t, int64(250), *p.DelayMillis)
}

func TestHasChanges(t *testing.T) {
	assert.False(t, HasChanges(asset.Patch{}))

	x := 1.0
	assert.True(t, HasChanges(asset.Patch{X: &x}))

	hidden := false
	assert.True(t, HasChanges(asset.Patch{Hidden: &hidden}))
}

func TestFullCarriesEveryField(t *testing.T) {
	v := asset.View{Name: "logo", X: 5, Y: 6, Width: 7, Height: 8, Rotation: 9, Speed: 1}

	p := Full(v)

	assert.NotNil(t, p.Name)
	assert.NotNil(t, p.X)
	assert.NotNil(t, p.Y)
	assert.NotNil(t, p.Width)
	assert.NotNil(t, p.Height)
	assert.NotNil(t, p.Rotation)
	assert.NotNil(t, p.Speed)
	assert.NotNil(t, p.Muted)
	assert.NotNil(t, p.Hidden)
	assert.NotNil(t, p.DisplayOrder)
	assert.Equal(t, "logo", *p.Name)
	assert.Equal(t, float64(5), *p.X)

	// Zero values are carried too; previews must override stale state
	assert.Equal(t, false, *p.Muted)
	assert.True(t, HasChanges(p))
}
