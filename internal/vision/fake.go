package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// FakeCapturer serves pre-rendered frames for tests and dry runs.
// Regions are served from a single backing screen image.
type FakeCapturer struct {
	mu     sync.Mutex
	screen *image.RGBA
	Calls  int
}

// NewFakeCapturer creates a fake capturer with a uniform gray screen
func NewFakeCapturer(width, height int, gray uint8) *FakeCapturer {
	screen := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(screen, screen.Bounds(), &image.Uniform{color.RGBA{gray, gray, gray, 255}}, image.Point{}, draw.Src)
	return &FakeCapturer{screen: screen}
}

// SetScreen replaces the backing screen image
func (f *FakeCapturer) SetScreen(screen *image.RGBA) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = screen
}

// Fill paints a rectangle of the backing screen with a uniform gray level
func (f *FakeCapturer) Fill(x, y, w, h int, gray uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rect := image.Rect(x, y, x+w, y+h).Intersect(f.screen.Bounds())
	draw.Draw(f.screen, rect, &image.Uniform{color.RGBA{gray, gray, gray, 255}}, image.Point{}, draw.Src)
}

// CaptureRegion returns a copy of the requested region of the fake screen
func (f *FakeCapturer) CaptureRegion(x, y, w, h int) (*image.RGBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	region := image.Rect(x, y, x+w, y+h)
	if !region.In(f.screen.Bounds()) {
		return nil, fmt.Errorf("region %v outside fake screen %v", region, f.screen.Bounds())
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), f.screen, region.Min, draw.Src)
	return out, nil
}

// ScreenSize returns the fake screen dimensions
func (f *FakeCapturer) ScreenSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screen.Bounds().Dx(), f.screen.Bounds().Dy()
}
