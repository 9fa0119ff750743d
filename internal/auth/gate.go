package auth

import (
	"overlay-service/internal/domain/channel"
	apperrors "overlay-service/pkg/errors"
)

// Gate decides whether a caller may manage a channel. Three independent
// grounds grant access: owning the channel, being on its admin list, or
// holding the sysadmin role when the deployment opts in to that.
type Gate struct {
	sysadminManagesChannels bool
}

func NewGate(sysadminManagesChannels bool) *Gate {
	return &Gate{sysadminManagesChannels: sysadminManagesChannels}
}

func (g *Gate) Authorize(id Identity, ch *channel.Channel) error {
	if id.Username != "" && id.Username == ch.Broadcaster {
		return nil
	}

	if ch.HasAdmin(id.Username) {
		return nil
	}

	if id.Sysadmin && g.sysadminManagesChannels {
		return nil
	}

	return apperrors.Forbidden(msgNotChannelManager)
}
