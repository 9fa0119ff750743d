package handler

const (
	jsonKeyError   = "error"
	jsonKeyMessage = "message"

	paramBroadcaster  = "broadcaster"
	paramAssetID      = "id"
	paramAttachmentID = "attachment_id"
	paramUsername     = "username"

	formKeyFile = "file"
	formKeyName = "name"
)

const (
	msgContentTypeJSONRequired = "Content-Type application/json required"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidAssetID          = "invalid asset id"
	msgInvalidAttachmentID     = "invalid attachment id"
	msgMissingUploadFile       = "missing upload file"
	msgUsernameRequired        = "username required"
	msgAssetDeleted            = "asset deleted"
	msgAdminAdded              = "admin added"
	msgAdminRemoved            = "admin removed"
	msgCanvasUpdated           = "canvas updated"
	msgFlagsUpdated            = "feature flags updated"
	msgVisibilityUpdated       = "visibility updated"
	msgPlaybackTriggered       = "playback triggered"
)
