package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PublicHandler serves the anonymous renderer surface: asset listings,
// canvas configuration and media bytes. No authentication, no hidden
// assets.
type PublicHandler struct {
	directory PublicDirectory
}

func NewPublicHandler(directory PublicDirectory) *PublicHandler {
	return &PublicHandler{directory: directory}
}

func (h *PublicHandler) GetOverlay(c echo.Context) error {
	views, err := h.directory.PublicAssets(c.Request().Context(), c.Param(paramBroadcaster))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *PublicHandler) GetCanvas(c echo.Context) error {
	canvas, err := h.directory.Canvas(c.Request().Context(), c.Param(paramBroadcaster))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, canvas)
}

func (h *PublicHandler) GetAssetContent(c echo.Context) error {
	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	data, contentType, err := h.directory.AssetContent(c.Request().Context(), assetID)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, contentType, data)
}

func (h *PublicHandler) GetAssetPreview(c echo.Context) error {
	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	data, contentType, err := h.directory.PreviewContent(c.Request().Context(), assetID)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, contentType, data)
}
