package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"overlay-service/internal/broadcast"
	"overlay-service/internal/domain/asset"
)

const (
	feedReadBufferSize  = 1024
	feedWriteBufferSize = 1024
)

// FeedHandler upgrades renderer connections and subscribes them to their
// channel's event stream. The feed is read-only for clients; anything they
// send is drained and dropped.
type FeedHandler struct {
	hub         *broadcast.Hub
	topicPrefix string
	upgrader    websocket.Upgrader
}

func NewFeedHandler(hub *broadcast.Hub, topicPrefix string) *FeedHandler {
	return &FeedHandler{
		hub:         hub,
		topicPrefix: topicPrefix,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  feedReadBufferSize,
			WriteBufferSize: feedWriteBufferSize,
			// Overlay pages load from OBS browser sources and arbitrary
			// hosts; the feed carries no credentials and is public data.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *FeedHandler) Subscribe(c echo.Context) error {
	broadcaster := asset.NormalizeBroadcaster(c.Param(paramBroadcaster))
	if broadcaster == "" {
		return respondError(c, http.StatusBadRequest, msgUsernameRequired)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}

	client := h.hub.Register(broadcast.Topic(h.topicPrefix, broadcaster), conn)
	go client.WritePump()
	go client.ReadPump()

	return nil
}
