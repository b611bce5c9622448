package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/nfnt/resize"
)

// Recognizer turns a screen region image into recognized text lines in
// top-to-bottom reading order.
type Recognizer interface {
	RecognizeImage(ctx context.Context, img image.Image) ([]string, error)
}

const (
	// DefaultTimeout bounds a single helper invocation
	DefaultTimeout = 5 * time.Second

	// upscaleMinEdge: crops with a shorter edge below this are upscaled
	// before recognition. Small countdown text reads far better at 3x.
	upscaleMinEdge = 48
	upscaleFactor  = 3
)

// Engine invokes the external recognition helper. The helper takes one
// positional argument (an image path), prints recognized lines to stdout
// one per line in detection order, and exits non-zero with a message on
// stderr when loading or recognition fails. The helper owns accuracy and
// auto-correction switches; nothing is post-corrected on this side.
type Engine struct {
	helperPath string
	timeout    time.Duration
}

// NewEngine creates an engine for the helper binary at helperPath
func NewEngine(helperPath string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		helperPath: helperPath,
		timeout:    timeout,
	}
}

// RecognizeFile runs the helper against an image file on disk
func (e *Engine) RecognizeFile(ctx context.Context, path string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.helperPath, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, &RecognitionEngineError{Detail: fmt.Sprintf("helper timed out after %v", e.timeout)}
	}
	if err != nil {
		return nil, classifyFailure(path, strings.TrimSpace(stderr.String()), err)
	}

	return splitLines(stdout.String()), nil
}

// RecognizeImage encodes an in-memory image to a temp PNG, upscaling small
// crops first, runs the helper, and cleans up the file.
func (e *Engine) RecognizeImage(ctx context.Context, img image.Image) ([]string, error) {
	img = maybeUpscale(img)

	tmp, err := os.CreateTemp("", "roxfarm-ocr-*.png")
	if err != nil {
		return nil, &ImageLoadError{Path: "(temp)", Detail: err.Error()}
	}
	path := tmp.Name()
	defer os.Remove(path)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return nil, &ImageLoadError{Path: path, Detail: fmt.Sprintf("encode crop: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return nil, &ImageLoadError{Path: path, Detail: err.Error()}
	}

	return e.RecognizeFile(ctx, path)
}

// maybeUpscale applies Lanczos upscaling to crops too small for reliable
// recognition. Larger crops pass through untouched.
func maybeUpscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return img
	}
	if w >= upscaleMinEdge && h >= upscaleMinEdge {
		return img
	}
	return resize.Resize(uint(w*upscaleFactor), uint(h*upscaleFactor), img, resize.Lanczos3)
}

// classifyFailure maps a helper failure to the transient error taxonomy.
// The helper reports unreadable input with load/decode wording on stderr;
// everything else is an engine failure.
func classifyFailure(path, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "load") || strings.Contains(lower, "decode") || strings.Contains(lower, "read image") {
		return &ImageLoadError{Path: path, Detail: stderr}
	}

	detail := stderr
	if detail == "" {
		detail = "helper exited with error"
	}
	return &RecognitionEngineError{Detail: detail, Err: err}
}

// splitLines splits helper stdout into trimmed, non-empty lines preserving
// detection order. No output means no text was detected.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
