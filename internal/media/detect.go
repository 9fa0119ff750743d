package media

import (
	"bytes"
	"path/filepath"
	"strings"

	apperrors "overlay-service/pkg/errors"
)

// Allow-list of everything the overlay renderer knows how to play.
var allowedMediaTypes = map[string]bool{
	"image/png":              true,
	"image/apng":             true,
	"image/jpeg":             true,
	"image/gif":              true,
	"image/webp":             true,
	"image/svg+xml":          true,
	"video/mp4":              true,
	"video/webm":             true,
	"video/quicktime":        true,
	"audio/mpeg":             true,
	"audio/ogg":              true,
	"audio/wav":              true,
	"audio/flac":             true,
	"font/woff":              true,
	"font/woff2":             true,
	"font/ttf":               true,
	"font/otf":               true,
	"model/gltf-binary":      true,
	"model/gltf+json":        true,
	"application/javascript": true,
	"text/javascript":        true,
}

var extensionMediaTypes = map[string]string{
	".png":   "image/png",
	".apng":  "image/apng",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".mov":   "video/quicktime",
	".mp3":   "audio/mpeg",
	".ogg":   "audio/ogg",
	".wav":   "audio/wav",
	".flac":  "audio/flac",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".glb":   "model/gltf-binary",
	".gltf":  "model/gltf+json",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
}

// DetectAllowedMediaType resolves the effective media type of an upload.
// Magic-byte sniffing wins over the declared content type; when sniffing is
// inconclusive the filename extension decides. Anything outside the fixed
// allow-list is rejected.
func DetectAllowedMediaType(data []byte, declaredType, filename string) (string, error) {
	sniffed := sniffMediaType(data)

	// An explicit APNG declaration refines a PNG sniff; the byte streams
	// are indistinguishable up front.
	if sniffed == "image/png" && normalizeDeclared(declaredType) == "image/apng" {
		sniffed = "image/apng"
	}

	if sniffed != "" {
		if !allowedMediaTypes[sniffed] {
			return "", apperrors.Ingestion("media type not allowed: " + sniffed)
		}
		return sniffed, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := extensionMediaTypes[ext]; ok {
		return mt, nil
	}

	return "", apperrors.Ingestion("unrecognized media type")
}

func normalizeDeclared(declaredType string) string {
	mt := strings.TrimSpace(strings.ToLower(declaredType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func sniffMediaType(data []byte) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "image/gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio/wav"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		if bytes.Equal(data[8:10], []byte("qt")) {
			return "video/quicktime"
		}
		return "video/mp4"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "video/webm"
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")),
		len(data) >= 2 && data[0] == 0xFF && (data[1] == 0xFB || data[1] == 0xF3 || data[1] == 0xF2):
		return "audio/mpeg"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS")):
		return "audio/ogg"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("fLaC")):
		return "audio/flac"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("wOFF")):
		return "font/woff"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("wOF2")):
		return "font/woff2"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x00, 0x01, 0x00, 0x00}):
		return "font/ttf"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OTTO")):
		return "font/otf"
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("glTF")):
		return "model/gltf-binary"
	case looksLikeSVG(data):
		return "image/svg+xml"
	default:
		return ""
	}
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<svg")) {
		return true
	}
	return bytes.HasPrefix(trimmed, []byte("<?xml")) && bytes.Contains(head, []byte("<svg"))
}
