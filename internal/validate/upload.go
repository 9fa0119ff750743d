package validate

import (
	"fmt"
	"mime"
	"strings"

	apperrors "overlay-service/pkg/errors"
)

const (
	maxAssetNameLen   = 255
	maxContentTypeLen = 255
	asciiControlStart = 32
	asciiDelete       = 127
)

// AssetName checks an upload filename / asset display name.
func AssetName(name string) error {
	if name == "" {
		return apperrors.Validation("asset name cannot be empty")
	}

	if len(name) > maxAssetNameLen {
		return apperrors.Validation(fmt.Sprintf("asset name must not exceed %d characters", maxAssetNameLen))
	}

	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return apperrors.Validation("asset name cannot contain path separators")
	}

	for _, char := range name {
		if char < asciiControlStart || char == asciiDelete {
			return apperrors.Validation("asset name cannot contain control characters")
		}
	}

	return nil
}

// ContentType parses and normalizes a declared content type. Empty is fine;
// detection relies on sniffing first anyway.
func ContentType(contentType string) (string, error) {
	if contentType == "" {
		return "", nil
	}

	if len(contentType) > maxContentTypeLen {
		return "", apperrors.Validation(fmt.Sprintf("content type must not exceed %d characters", maxContentTypeLen))
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", apperrors.Validation("invalid content type")
	}

	return mt, nil
}

// UploadSize enforces the configured upload ceiling.
func UploadSize(size, ceiling int64) error {
	if size <= 0 {
		return apperrors.Validation("upload is empty")
	}
	if size > ceiling {
		return apperrors.PayloadTooLarge(fmt.Sprintf("upload exceeds %d bytes", ceiling))
	}
	return nil
}
