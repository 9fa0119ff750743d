package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/gif"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"

	"overlay-service/internal/config"
	apperrors "overlay-service/pkg/errors"
)

// Optimized is the result of normalizing an upload: the bytes to store, the
// effective media type, the renderable dimensions and an optional first-frame
// preview for motion content.
type Optimized struct {
	Data      []byte
	MediaType string
	Width     int
	Height    int
	Preview   []byte
}

const alphaVideoMediaType = "video/webm"

// Pipeline normalizes uploads once at ingest so the serving path never
// transcodes. Transcoding is CPU heavy and runs behind a weighted semaphore
// so an upload burst cannot starve unrelated requests.
type Pipeline struct {
	tools *Tools
	sem   *semaphore.Weighted
}

func NewPipeline(cfg *config.MediaConfig) *Pipeline {
	return &Pipeline{
		tools: NewTools(cfg),
		sem:   semaphore.NewWeighted(int64(cfg.TranscodeWorkers)),
	}
}

// AssertReady checks the underlying toolchain.
func (p *Pipeline) AssertReady() error {
	return p.tools.AssertReady()
}

// Optimize normalizes an upload that already passed DetectAllowedMediaType.
func (p *Pipeline) Optimize(ctx context.Context, data []byte, mediaType string) (*Optimized, error) {
	switch {
	case mediaType == "image/apng" || (mediaType == "image/png" && hasAPNGAnimationChunk(data)):
		return p.optimizeAPNG(ctx, data)
	case mediaType == "image/gif" && isAnimatedGIF(data):
		return p.optimizeAnimatedGIF(ctx, data)
	case strings.HasPrefix(mediaType, "image/"):
		return optimizeStaticImage(data, mediaType)
	case strings.HasPrefix(mediaType, "video/"):
		return p.optimizeVideo(ctx, data, mediaType)
	case strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "font/"),
		strings.HasPrefix(mediaType, "model/"),
		mediaType == "application/javascript",
		mediaType == "text/javascript":
		return &Optimized{Data: data, MediaType: mediaType}, nil
	default:
		return nil, apperrors.Ingestion("no ingest transform for media type " + mediaType)
	}
}

// optimizeAPNG runs the two-stage APNG->GIF->WebM transcode. Any stage
// failure rejects the whole ingestion; there is no partial or raw fallback.
func (p *Pipeline) optimizeAPNG(ctx context.Context, data []byte) (*Optimized, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	inPath, cleanupIn, err := p.tools.WriteTempFile(data, ".apng")
	if err != nil {
		return nil, apperrors.Transcode("stage apng temp file: " + err.Error())
	}
	defer cleanupIn()

	gifPath := strings.TrimSuffix(inPath, ".apng") + ".gif"
	if err := p.tools.ConvertAPNGToGIF(ctx, inPath, gifPath); err != nil {
		log.Printf("media: apng->gif stage failed: %v", err)
		return nil, apperrors.Transcode("apng to gif stage failed")
	}
	defer os.Remove(gifPath)

	gifData, err := os.ReadFile(gifPath)
	if err != nil {
		return nil, apperrors.Transcode("read gif stage output: " + err.Error())
	}

	return p.transcodeGIFLocked(ctx, gifData)
}

func (p *Pipeline) optimizeAnimatedGIF(ctx context.Context, data []byte) (*Optimized, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	return p.transcodeGIFLocked(ctx, data)
}

// transcodeGIFLocked converts GIF bytes to an alpha-capable WebM. Dimensions
// come from probing the transcoded video; the first-frame preview is
// best-effort. Callers hold a pool slot.
func (p *Pipeline) transcodeGIFLocked(ctx context.Context, gifData []byte) (*Optimized, error) {
	inPath, cleanupIn, err := p.tools.WriteTempFile(gifData, ".gif")
	if err != nil {
		return nil, apperrors.Transcode("gif temp file: " + err.Error())
	}
	defer cleanupIn()

	outPath := strings.TrimSuffix(inPath, ".gif") + ".webm"
	if err := p.tools.ConvertGIFToAlphaVideo(ctx, inPath, outPath); err != nil {
		log.Printf("media: gif->webm stage failed: %v", err)
		return nil, apperrors.Transcode("gif to video stage failed")
	}
	defer os.Remove(outPath)

	videoData, err := os.ReadFile(outPath)
	if err != nil {
		return nil, apperrors.Transcode("read webm output: " + err.Error())
	}

	width, height, err := p.tools.ProbeDimensions(ctx, outPath)
	if err != nil {
		log.Printf("media: probe of transcoded video failed: %v", err)
		return nil, apperrors.Transcode("probe of transcoded video failed")
	}

	return &Optimized{
		Data:      videoData,
		MediaType: alphaVideoMediaType,
		Width:     width,
		Height:    height,
		Preview:   p.extractPreview(ctx, outPath),
	}, nil
}

func (p *Pipeline) optimizeVideo(ctx context.Context, data []byte, mediaType string) (*Optimized, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	ext := "." + strings.TrimPrefix(mediaType, "video/")
	inPath, cleanup, err := p.tools.WriteTempFile(data, ext)
	if err != nil {
		return nil, apperrors.Ingestion("video temp file: " + err.Error())
	}
	defer cleanup()

	width, height, err := p.tools.ProbeDimensions(ctx, inPath)
	if err != nil {
		// Unprobeable video still plays; fall back to the standard pair.
		log.Printf("media: video probe failed, using default dimensions: %v", err)
		width, height = defaultVideoWidth, defaultVideoHeight
	}

	return &Optimized{
		Data:      data,
		MediaType: mediaType,
		Width:     width,
		Height:    height,
		Preview:   p.extractPreview(ctx, inPath),
	}, nil
}

const (
	defaultVideoWidth  = 640
	defaultVideoHeight = 360
)

// extractPreview is best-effort: a missing thumbnail never blocks playback
// correctness.
func (p *Pipeline) extractPreview(ctx context.Context, videoPath string) []byte {
	outPath := videoPath + ".preview.png"
	if err := p.tools.ExtractFirstFrame(ctx, videoPath, outPath); err != nil {
		log.Printf("media: preview extraction failed: %v", err)
		return nil
	}
	defer os.Remove(outPath)

	preview, err := os.ReadFile(outPath)
	if err != nil {
		log.Printf("media: read preview failed: %v", err)
		return nil
	}
	return preview
}

func optimizeStaticImage(data []byte, mediaType string) (*Optimized, error) {
	var width, height int

	switch mediaType {
	case "image/webp":
		cfg, err := webp.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, apperrors.Ingestion("undecodable webp image")
		}
		width, height = cfg.Width, cfg.Height
	case "image/svg+xml":
		width, height = svgDimensions(data)
	default:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, apperrors.Ingestion("undecodable image")
		}
		width, height = cfg.Width, cfg.Height
	}

	return &Optimized{
		Data:      data,
		MediaType: mediaType,
		Width:     width,
		Height:    height,
	}, nil
}

var (
	svgDimRe     = regexp.MustCompile(`<svg[^>]*\swidth="([0-9.]+)(?:px)?"[^>]*\sheight="([0-9.]+)(?:px)?"`)
	svgViewBoxRe = regexp.MustCompile(`<svg[^>]*\sviewBox="[0-9.\- ]*?([0-9.]+)\s+([0-9.]+)"`)
)

// svgDimensions is a header parse, not a full SVG render. Unsized vector
// images are legal; they report zero dimensions and fall back to the
// category default geometry downstream.
func svgDimensions(data []byte) (int, int) {
	head := data
	if len(head) > 2048 {
		head = head[:2048]
	}
	if m := svgDimRe.FindSubmatch(head); m != nil {
		w, err1 := strconv.ParseFloat(string(m[1]), 64)
		h, err2 := strconv.ParseFloat(string(m[2]), 64)
		if err1 == nil && err2 == nil {
			return int(w), int(h)
		}
	}
	if m := svgViewBoxRe.FindSubmatch(head); m != nil {
		w, err1 := strconv.ParseFloat(string(m[1]), 64)
		h, err2 := strconv.ParseFloat(string(m[2]), 64)
		if err1 == nil && err2 == nil {
			return int(w), int(h)
		}
	}
	return 0, 0
}

// hasAPNGAnimationChunk scans PNG chunks for the animation control chunk
// (acTL) that distinguishes an APNG from a plain PNG. The scan stops at the
// first IDAT because acTL must precede image data.
func hasAPNGAnimationChunk(data []byte) bool {
	const pngHeaderLen = 8
	if len(data) < pngHeaderLen+8 {
		return false
	}

	offset := pngHeaderLen
	for offset+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[offset : offset+4])
		chunkType := string(data[offset+4 : offset+8])

		switch chunkType {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}

		next := offset + 8 + int(length) + 4
		if next <= offset || next > len(data) {
			return false
		}
		offset = next
	}
	return false
}

func isAnimatedGIF(data []byte) bool {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return len(g.Image) > 1
}
