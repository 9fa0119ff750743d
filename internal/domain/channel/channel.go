package channel

import (
	"slices"
	"time"
)

// Channel is the per-broadcaster aggregate: its admin set, canvas
// configuration and feature flags. Keyed by the lowercase broadcaster name
// and created lazily on first access.
type Channel struct {
	Broadcaster       string
	Admins            []string
	CanvasWidth       float64
	CanvasHeight      float64
	EmoteChatEnabled  bool
	ScriptChatEnabled bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

const (
	DefaultCanvasWidth  = 1920
	DefaultCanvasHeight = 1080
)

// HasAdmin reports membership in the channel's admin set. Callers must pass
// a normalized (lowercase) username.
func (c *Channel) HasAdmin(username string) bool {
	return slices.Contains(c.Admins, username)
}

// Canvas is the public projection of a channel's canvas configuration.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	FPS    int     `json:"fps,omitempty"`
}
