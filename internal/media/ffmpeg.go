package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"overlay-service/internal/config"
)

// Tools shells out to ffmpeg/ffprobe for the transforms the ingestion
// pipeline needs. Synchronous and deterministic; callers are expected to
// hold a slot on the transcode pool before invoking anything expensive.
type Tools struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	timeout     time.Duration
}

func NewTools(cfg *config.MediaConfig) *Tools {
	return &Tools{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		workDir:     cfg.WorkDir,
		timeout:     cfg.TranscodeTimeout,
	}
}

// AssertReady verifies the required binaries exist and the work directory
// is writable. Called once at startup.
func (t *Tools) AssertReady() error {
	for _, bin := range []string{t.ffmpegPath, t.ffprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("missing required binary %q in PATH: %w", bin, err)
		}
	}
	if err := os.MkdirAll(t.workDir, 0o755); err != nil {
		return fmt.Errorf("create media work dir: %w", err)
	}
	return nil
}

// WriteTempFile writes bytes into the work dir under a content-hash name
// and returns the path with a cleanup func.
func (t *Tools) WriteTempFile(data []byte, suffix string) (string, func(), error) {
	if err := os.MkdirAll(t.workDir, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("mkdir work dir: %w", err)
	}
	h := sha256.Sum256(data)
	base := hex.EncodeToString(h[:])[:16]
	if suffix != "" && !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	path := filepath.Join(t.workDir, base+suffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", func() {}, fmt.Errorf("write temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}

// ConvertAPNGToGIF is the first stage of the APNG ingest transform.
func (t *Tools) ConvertAPNGToGIF(ctx context.Context, inputPath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-f", "apng",
		"-i", inputPath,
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg apng->gif failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("gif output missing at %s", outPath)
	}
	return nil
}

// ConvertGIFToAlphaVideo transcodes an animated GIF into a VP9 WebM with an
// alpha channel so transparency survives on the canvas.
func (t *Tools) ConvertGIFToAlphaVideo(ctx context.Context, inputPath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-c:v", "libvpx-vp9",
		"-pix_fmt", "yuva420p",
		"-auto-alt-ref", "0",
		"-an",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg gif->webm failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("webm output missing at %s", outPath)
	}
	return nil
}

// ProbeDimensions reads width/height of the first video stream.
func (t *Tools) ProbeDimensions(ctx context.Context, path string) (width, height int, err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	parts := strings.SplitN(strings.TrimSpace(string(out)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected ffprobe output %q", strings.TrimSpace(string(out)))
	}
	width, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse width: %w", err)
	}
	height, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse height: %w", err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("non-positive dimensions %dx%d", width, height)
	}
	return width, height, nil
}

// ExtractFirstFrame renders the first frame of a video as a PNG preview.
func (t *Tools) ExtractFirstFrame(ctx context.Context, videoPath, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-frames:v", "1",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg first frame failed: %w; out=%s", err, string(out))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("preview output missing at %s", outPath)
	}
	return nil
}
