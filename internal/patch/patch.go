// Package patch computes minimal before/after deltas of asset views for
// broadcast payloads. Diffs size WebSocket traffic only; they never decide
// whether anything is persisted.
package patch

import "overlay-service/internal/domain/asset"

// Diff compares a pre-mutation snapshot with the post-mutation view and
// returns a patch carrying only the fields whose values actually changed.
// Equality is exact per field.
func Diff(before, after asset.View) asset.Patch {
	var p asset.Patch

	p.Name = diffString(before.Name, after.Name)
	p.DisplayOrder = diffInt(before.DisplayOrder, after.DisplayOrder)
	p.Hidden = diffBool(before.Hidden, after.Hidden)
	p.X = diffFloat(before.X, after.X)
	p.Y = diffFloat(before.Y, after.Y)
	p.Width = diffFloat(before.Width, after.Width)
	p.Height = diffFloat(before.Height, after.Height)
	p.Rotation = diffFloat(before.Rotation, after.Rotation)
	p.Speed = diffFloat(before.Speed, after.Speed)
	p.Muted = diffBool(before.Muted, after.Muted)
	p.AudioVolume = diffFloat(before.AudioVolume, after.AudioVolume)
	p.Loop = diffBool(before.Loop, after.Loop)
	p.DelayMillis = diffInt64(before.DelayMillis, after.DelayMillis)
	p.Pitch = diffFloat(before.Pitch, after.Pitch)
	p.Volume = diffFloat(before.Volume, after.Volume)
	p.ZIndex = diffInt(before.ZIndex, after.ZIndex)

	return p
}

// HasChanges reports whether any field of the patch is set. A transform
// producing an all-nil patch is a true no-op and is not broadcast.
func HasChanges(p asset.Patch) bool {
	return p.Name != nil ||
		p.DisplayOrder != nil ||
		p.Hidden != nil ||
		p.X != nil ||
		p.Y != nil ||
		p.Width != nil ||
		p.Height != nil ||
		p.Rotation != nil ||
		p.Speed != nil ||
		p.Muted != nil ||
		p.AudioVolume != nil ||
		p.Loop != nil ||
		p.DelayMillis != nil ||
		p.Pitch != nil ||
		p.Volume != nil ||
		p.ZIndex != nil
}

// Full maps every view field into a patch regardless of change. Drag
// previews use it so connected clients receive live feedback even for
// values that happen to match the stored state.
func Full(v asset.View) asset.Patch {
	return asset.Patch{
		Name:         &v.Name,
		DisplayOrder: &v.DisplayOrder,
		Hidden:       &v.Hidden,
		X:            &v.X,
		Y:            &v.Y,
		Width:        &v.Width,
		Height:       &v.Height,
		Rotation:     &v.Rotation,
		Speed:        &v.Speed,
		Muted:        &v.Muted,
		AudioVolume:  &v.AudioVolume,
		Loop:         &v.Loop,
		DelayMillis:  &v.DelayMillis,
		Pitch:        &v.Pitch,
		Volume:       &v.Volume,
		ZIndex:       &v.ZIndex,
	}
}

func diffString(before, after string) *string {
	if before == after {
		return nil
	}
	return &after
}

func diffInt(before, after int) *int {
	if before == after {
		return nil
	}
	return &after
}

func diffInt64(before, after int64) *int64 {
	if before == after {
		return nil
	}
	return &after
}

func diffFloat(before, after float64) *float64 {
	if before == after {
		return nil
	}
	return &after
}

func diffBool(before, after bool) *bool {
	if before == after {
		return nil
	}
	return &after
}
