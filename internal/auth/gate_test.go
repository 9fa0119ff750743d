package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"overlay-service/internal/domain/channel"
	apperrors "overlay-service/pkg/errors"
)

func TestGateAuthorizeOwner(t *testing.T) {
	g := NewGate(false)
	ch := &channel.Channel{Broadcaster: "streamer"}

	assert.NoError(t, g.Authorize(Identity{Username: "streamer"}, ch))
}

func TestGateAuthorizeAdmin(t *testing.T) {
	g := NewGate(false)
	ch := &channel.Channel{Broadcaster: "streamer", Admins: []string{"moderator"}}

	assert.NoError(t, g.Authorize(Identity{Username: "moderator"}, ch))
}

func TestGateRejectsStranger(t *testing.T) {
	g := NewGate(false)
	ch := &channel.Channel{Broadcaster: "streamer", Admins: []string{"moderator"}}

	err := g.Authorize(Identity{Username: "viewer"}, ch)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestGateSysadminRequiresDeploymentOptIn(t *testing.T) {
	ch := &channel.Channel{Broadcaster: "streamer"}
	sysadmin := Identity{Username: "ops", Sysadmin: true}

	// Opted out: the sysadmin role grants nothing
	err := NewGate(false).Authorize(sysadmin, ch)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	// Opted in: the sysadmin manages any channel
	assert.NoError(t, NewGate(true).Authorize(sysadmin, ch))
}

func TestGateEmptyUsernameNeverOwns(t *testing.T) {
	g := NewGate(false)
	ch := &channel.Channel{Broadcaster: ""}

	err := g.Authorize(Identity{Username: ""}, ch)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}
