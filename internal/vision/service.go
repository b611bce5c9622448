package vision

import (
	"fmt"
	"image"
	"sync"
	"time"
)

// Service handles all screen analysis operations. Capture is a serialized
// resource: the mutex guarantees only one capture is in flight even when
// ad-hoc GUI probes race the engine loop.
type Service struct {
	capturer Capturer

	// Short-lived region cache so a burst of reads against the same
	// region (brightness probe + OCR crop) costs one capture.
	cachedRegion image.Rectangle
	cachedFrame  *image.RGBA
	cachedAt     time.Time
	cacheFor     time.Duration

	mu sync.Mutex
}

// NewService creates a vision service backed by the given capturer
func NewService(capturer Capturer) *Service {
	return &Service{
		capturer: capturer,
		cacheFor: 100 * time.Millisecond,
	}
}

// NewServiceWithCache creates a vision service with a custom cache duration
func NewServiceWithCache(capturer Capturer, cacheFor time.Duration) *Service {
	return &Service{
		capturer: capturer,
		cacheFor: cacheFor,
	}
}

// CaptureRegion grabs a screen region, reusing the cached frame when the
// exact same region was captured within the cache window.
func (s *Service) CaptureRegion(x, y, w, h int) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	region := image.Rect(x, y, x+w, y+h)
	if s.cachedFrame != nil && region == s.cachedRegion && time.Since(s.cachedAt) < s.cacheFor {
		return s.cachedFrame, nil
	}

	frame, err := s.capturer.CaptureRegion(x, y, w, h)
	if err != nil {
		return nil, fmt.Errorf("capture region (%d,%d) %dx%d: %w", x, y, w, h, err)
	}

	s.cachedRegion = region
	s.cachedFrame = frame
	s.cachedAt = time.Now()

	return frame, nil
}

// InvalidateCache forces the next capture to hit the screen
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedFrame = nil
}

// ScreenSize returns the capturer's screen dimensions
func (s *Service) ScreenSize() (int, int) {
	return s.capturer.ScreenSize()
}

// BrightRegion captures a region and reports whether its average grayscale
// brightness exceeds threshold. Used for dialog/modal/loading probes.
func (s *Service) BrightRegion(x, y, w, h int, threshold float64) (bool, error) {
	if w <= 0 || h <= 0 {
		return false, fmt.Errorf("invalid probe region %dx%d", w, h)
	}

	frame, err := s.CaptureRegion(x, y, w, h)
	if err != nil {
		return false, err
	}

	return AverageBrightness(frame) > threshold, nil
}
