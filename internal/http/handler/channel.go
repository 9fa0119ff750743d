package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"overlay-service/internal/auth"
)

type ChannelHandler struct {
	directory ChannelDirectory
}

func NewChannelHandler(directory ChannelDirectory) *ChannelHandler {
	return &ChannelHandler{directory: directory}
}

type ChannelResponse struct {
	Broadcaster       string   `json:"broadcaster"`
	Admins            []string `json:"admins"`
	CanvasWidth       float64  `json:"canvasWidth"`
	CanvasHeight      float64  `json:"canvasHeight"`
	EmoteChatEnabled  bool     `json:"emoteChatEnabled"`
	ScriptChatEnabled bool     `json:"scriptChatEnabled"`
}

func (h *ChannelHandler) GetChannel(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	ch, err := h.directory.GetOrCreateChannel(c.Request().Context(), id, c.Param(paramBroadcaster))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ChannelResponse{
		Broadcaster:       ch.Broadcaster,
		Admins:            ch.Admins,
		CanvasWidth:       ch.CanvasWidth,
		CanvasHeight:      ch.CanvasHeight,
		EmoteChatEnabled:  ch.EmoteChatEnabled,
		ScriptChatEnabled: ch.ScriptChatEnabled,
	})
}

type AdminRequest struct {
	Username string `json:"username"`
}

func (h *ChannelHandler) AddAdmin(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	var req AdminRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}
	if req.Username == "" {
		return respondError(c, http.StatusBadRequest, msgUsernameRequired)
	}

	if err := h.directory.AddAdmin(c.Request().Context(), id, c.Param(paramBroadcaster), req.Username); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgAdminAdded)
}

func (h *ChannelHandler) RemoveAdmin(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	username := c.Param(paramUsername)
	if username == "" {
		return respondError(c, http.StatusBadRequest, msgUsernameRequired)
	}

	if err := h.directory.RemoveAdmin(c.Request().Context(), id, c.Param(paramBroadcaster), username); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgAdminRemoved)
}

type CanvasRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (h *ChannelHandler) UpdateCanvas(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	var req CanvasRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	if err := h.directory.UpdateCanvas(c.Request().Context(), id, c.Param(paramBroadcaster), req.Width, req.Height); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgCanvasUpdated)
}

type FeatureFlagsRequest struct {
	EmoteChatEnabled  *bool `json:"emoteChatEnabled,omitempty"`
	ScriptChatEnabled *bool `json:"scriptChatEnabled,omitempty"`
}

func (h *ChannelHandler) UpdateFeatureFlags(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	var req FeatureFlagsRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	if err := h.directory.UpdateFeatureFlags(c.Request().Context(), id, c.Param(paramBroadcaster), req.EmoteChatEnabled, req.ScriptChatEnabled); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgFlagsUpdated)
}
