package vision

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/go-vgo/robotgo"
)

// Capturer interface for different capture backends
type Capturer interface {
	CaptureRegion(x, y, w, h int) (*image.RGBA, error)
	ScreenSize() (width, height int)
}

// ScreenCapturer captures regions of the desktop screen
type ScreenCapturer struct{}

// NewScreenCapturer creates a desktop screen capturer
func NewScreenCapturer() *ScreenCapturer {
	return &ScreenCapturer{}
}

// CaptureRegion grabs a rectangle of the screen as RGBA
func (c *ScreenCapturer) CaptureRegion(x, y, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid capture region %dx%d at (%d,%d)", w, h, x, y)
	}

	img, err := robotgo.CaptureImg(x, y, w, h)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("screen capture returned no image")
	}

	return toRGBA(img), nil
}

// ScreenSize returns the primary display dimensions
func (c *ScreenCapturer) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}

// toRGBA normalizes any decoded image to RGBA with a zero origin
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}
