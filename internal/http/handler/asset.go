package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"overlay-service/internal/auth"
	"overlay-service/internal/domain/asset"
)

type AssetHandler struct {
	directory AssetDirectory
}

func NewAssetHandler(directory AssetDirectory) *AssetHandler {
	return &AssetHandler{directory: directory}
}

func (h *AssetHandler) ListAssets(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	views, err := h.directory.ListAssets(c.Request().Context(), id, c.Param(paramBroadcaster))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// CreateAsset ingests a multipart upload. The display name defaults to the
// uploaded filename when no explicit name field is sent.
func (h *AssetHandler) CreateAsset(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile(formKeyFile)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgMissingUploadFile)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgMissingUploadFile)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequestBody)
	}

	name := c.FormValue(formKeyName)
	if name == "" {
		name = fileHeader.Filename
	}

	view, err := h.directory.CreateAsset(
		c.Request().Context(), id, c.Param(paramBroadcaster),
		name, fileHeader.Header.Get(echo.HeaderContentType), data,
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *AssetHandler) DeleteAsset(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	if err := h.directory.DeleteAsset(c.Request().Context(), id, c.Param(paramBroadcaster), assetID); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgAssetDeleted)
}

func (h *AssetHandler) UpdateTransform(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	var req asset.TransformRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	delta, err := h.directory.UpdateTransform(c.Request().Context(), id, c.Param(paramBroadcaster), assetID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, delta)
}

func (h *AssetHandler) PreviewTransform(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	var req asset.TransformRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	delta, err := h.directory.PreviewTransform(c.Request().Context(), id, c.Param(paramBroadcaster), assetID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, delta)
}

type PlaybackRequest struct {
	Play *bool `json:"play,omitempty"`
}

func (h *AssetHandler) TriggerPlayback(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	req := PlaybackRequest{}
	// An empty body means "play".
	if c.Request().ContentLength > 0 {
		if err := bindStrictJSON(c, &req); err != nil {
			return handleHTTPError(c, err)
		}
	}

	if err := h.directory.TriggerPlayback(c.Request().Context(), id, c.Param(paramBroadcaster), assetID, req.Play); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgPlaybackTriggered)
}

type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

func (h *AssetHandler) UpdateVisibility(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	var req VisibilityRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	if err := h.directory.UpdateVisibility(c.Request().Context(), id, c.Param(paramBroadcaster), assetID, req.Hidden); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgVisibilityUpdated)
}

type UpdateScriptRequest struct {
	Source      *string `json:"source,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Public      *bool   `json:"public,omitempty"`
}

func (h *AssetHandler) UpdateScript(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	var req UpdateScriptRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	var source []byte
	if req.Source != nil {
		source = []byte(*req.Source)
	}

	view, err := h.directory.UpdateScript(c.Request().Context(), id, c.Param(paramBroadcaster), assetID, source, req.Description, req.Name, req.Public)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *AssetHandler) AddAttachment(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile(formKeyFile)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgMissingUploadFile)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgMissingUploadFile)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequestBody)
	}

	name := c.FormValue(formKeyName)
	if name == "" {
		name = fileHeader.Filename
	}

	view, err := h.directory.AddAttachment(
		c.Request().Context(), id, c.Param(paramBroadcaster), assetID,
		name, fileHeader.Header.Get(echo.HeaderContentType), data,
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *AssetHandler) RemoveAttachment(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	attachmentID, err := uuid.Parse(c.Param(paramAttachmentID))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidAttachmentID)
	}

	view, err := h.directory.RemoveAttachment(c.Request().Context(), id, c.Param(paramBroadcaster), assetID, attachmentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

func (h *AssetHandler) GetDownloadURL(c echo.Context) error {
	id, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	assetID, err := parseAssetID(c)
	if err != nil {
		return err
	}

	url, err := h.directory.DownloadURL(c.Request().Context(), id, c.Param(paramBroadcaster), assetID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DownloadURLResponse{DownloadURL: url})
}

func parseAssetID(c echo.Context) (uuid.UUID, error) {
	assetID, err := uuid.Parse(c.Param(paramAssetID))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, msgInvalidAssetID)
	}
	return assetID, nil
}
