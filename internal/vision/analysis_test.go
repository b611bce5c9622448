package vision

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"
)

func uniformImage(w, h int, gray uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{gray, gray, gray, 255}}, image.Point{}, draw.Src)
	return img
}

func TestAverageBrightness(t *testing.T) {
	tests := []struct {
		name string
		gray uint8
		want float64
	}{
		{"black", 0, 0},
		{"white", 255, 255},
		{"mid", 128, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := uniformImage(20, 20, tt.gray)
			got := AverageBrightness(img)
			if got < tt.want-1 || got > tt.want+1 {
				t.Errorf("AverageBrightness() = %.1f, want ~%.1f", got, tt.want)
			}
		})
	}
}

func TestAverageBrightnessMixed(t *testing.T) {
	img := uniformImage(10, 10, 0)
	// Paint half the image white; average should land near 127
	draw.Draw(img, image.Rect(0, 0, 5, 10), &image.Uniform{color.White}, image.Point{}, draw.Src)

	got := AverageBrightness(img)
	if got < 120 || got > 135 {
		t.Errorf("AverageBrightness() = %.1f, want ~127", got)
	}
}

func TestDiffPercent(t *testing.T) {
	t.Run("identical images", func(t *testing.T) {
		a := uniformImage(16, 16, 100)
		b := uniformImage(16, 16, 100)
		if got := DiffPercent(a, b); got != 0 {
			t.Errorf("DiffPercent() = %.1f, want 0", got)
		}
	})

	t.Run("small shift below threshold", func(t *testing.T) {
		a := uniformImage(16, 16, 100)
		b := uniformImage(16, 16, 105)
		if got := DiffPercent(a, b); got != 0 {
			t.Errorf("DiffPercent() = %.1f, want 0 (within 10 levels)", got)
		}
	})

	t.Run("fully different", func(t *testing.T) {
		a := uniformImage(16, 16, 0)
		b := uniformImage(16, 16, 255)
		if got := DiffPercent(a, b); got != 100 {
			t.Errorf("DiffPercent() = %.1f, want 100", got)
		}
	})

	t.Run("quarter different", func(t *testing.T) {
		a := uniformImage(16, 16, 0)
		b := uniformImage(16, 16, 0)
		draw.Draw(b, image.Rect(0, 0, 8, 8), &image.Uniform{color.White}, image.Point{}, draw.Src)
		got := DiffPercent(a, b)
		if got < 24 || got > 26 {
			t.Errorf("DiffPercent() = %.1f, want 25", got)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		a := uniformImage(16, 16, 0)
		b := uniformImage(8, 8, 0)
		if got := DiffPercent(a, b); got != 100 {
			t.Errorf("DiffPercent() = %.1f, want 100 on size mismatch", got)
		}
	})
}

func TestCrop(t *testing.T) {
	frame := uniformImage(40, 40, 0)
	draw.Draw(frame, image.Rect(10, 10, 20, 20), &image.Uniform{color.White}, image.Point{}, draw.Src)

	crop := Crop(frame, 10, 10, 10, 10)

	if crop.Bounds().Dx() != 10 || crop.Bounds().Dy() != 10 {
		t.Fatalf("crop size = %v, want 10x10", crop.Bounds())
	}
	if got := AverageBrightness(crop); got < 250 {
		t.Errorf("cropped white region brightness = %.1f, want ~255", got)
	}
}

func TestCropClampsToBounds(t *testing.T) {
	frame := uniformImage(20, 20, 50)
	crop := Crop(frame, 15, 15, 10, 10)
	if crop.Bounds().Dx() != 5 || crop.Bounds().Dy() != 5 {
		t.Errorf("crop size = %v, want clamped 5x5", crop.Bounds())
	}
}

func TestSimilarPatch(t *testing.T) {
	t.Run("identical patches match", func(t *testing.T) {
		a := uniformImage(32, 32, 90)
		draw.Draw(a, image.Rect(4, 4, 20, 12), &image.Uniform{color.White}, image.Point{}, draw.Src)
		b := Crop(a, 0, 0, 32, 32)

		ok, err := SimilarPatch(a, b, DefaultHashTolerance)
		if err != nil {
			t.Fatalf("SimilarPatch() error = %v", err)
		}
		if !ok {
			t.Error("identical patches should match")
		}
	})

	t.Run("structurally different patches", func(t *testing.T) {
		a := uniformImage(32, 32, 0)
		draw.Draw(a, image.Rect(0, 0, 16, 32), &image.Uniform{color.White}, image.Point{}, draw.Src)
		b := uniformImage(32, 32, 0)
		draw.Draw(b, image.Rect(0, 0, 32, 16), &image.Uniform{color.White}, image.Point{}, draw.Src)

		ok, err := SimilarPatch(a, b, 4)
		if err != nil {
			t.Fatalf("SimilarPatch() error = %v", err)
		}
		if ok {
			t.Error("orthogonal patterns should not match at tight tolerance")
		}
	})
}

func TestServiceRegionCache(t *testing.T) {
	fake := NewFakeCapturer(100, 100, 128)
	svc := NewServiceWithCache(fake, time.Minute)

	if _, err := svc.CaptureRegion(0, 0, 10, 10); err != nil {
		t.Fatalf("CaptureRegion() error = %v", err)
	}
	if _, err := svc.CaptureRegion(0, 0, 10, 10); err != nil {
		t.Fatalf("CaptureRegion() error = %v", err)
	}
	if fake.Calls != 1 {
		t.Errorf("capturer calls = %d, want 1 (second read cached)", fake.Calls)
	}

	// A different region must not be served from cache
	if _, err := svc.CaptureRegion(10, 10, 10, 10); err != nil {
		t.Fatalf("CaptureRegion() error = %v", err)
	}
	if fake.Calls != 2 {
		t.Errorf("capturer calls = %d, want 2", fake.Calls)
	}

	svc.InvalidateCache()
	if _, err := svc.CaptureRegion(10, 10, 10, 10); err != nil {
		t.Fatalf("CaptureRegion() error = %v", err)
	}
	if fake.Calls != 3 {
		t.Errorf("capturer calls = %d, want 3 after invalidation", fake.Calls)
	}
}

func TestBrightRegion(t *testing.T) {
	fake := NewFakeCapturer(200, 200, 30)
	fake.Fill(50, 50, 40, 40, 220)
	svc := NewService(fake)

	bright, err := svc.BrightRegion(50, 50, 40, 40, 160)
	if err != nil {
		t.Fatalf("BrightRegion() error = %v", err)
	}
	if !bright {
		t.Error("painted region should read as bright")
	}

	dark, err := svc.BrightRegion(0, 0, 40, 40, 160)
	if err != nil {
		t.Fatalf("BrightRegion() error = %v", err)
	}
	if dark {
		t.Error("background region should read as dark")
	}
}

func BenchmarkAverageBrightness(b *testing.B) {
	img := uniformImage(200, 200, 120)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AverageBrightness(img)
	}
}

func BenchmarkDiffPercent(b *testing.B) {
	x := uniformImage(150, 150, 100)
	y := uniformImage(150, 150, 130)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DiffPercent(x, y)
	}
}
