package ocr

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeHelper(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell helper scripts not supported on windows")
	}

	path := filepath.Join(t.TempDir(), "fake_helper")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write helper: %v", err)
	}
	return path
}

func TestRecognizeFileLines(t *testing.T) {
	helper := writeHelper(t, "printf 'Phreeoni\\n02:15\\n'")
	engine := NewEngine(helper, time.Second)

	lines, err := engine.RecognizeFile(context.Background(), "ignored.png")
	if err != nil {
		t.Fatalf("RecognizeFile() error = %v", err)
	}

	want := []string{"Phreeoni", "02:15"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRecognizeFileNoText(t *testing.T) {
	helper := writeHelper(t, "exit 0")
	engine := NewEngine(helper, time.Second)

	lines, err := engine.RecognizeFile(context.Background(), "blank.png")
	if err != nil {
		t.Fatalf("RecognizeFile() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("lines = %v, want empty", lines)
	}
}

func TestRecognizeFileImageLoadError(t *testing.T) {
	helper := writeHelper(t, "echo 'could not load image' >&2; exit 1")
	engine := NewEngine(helper, time.Second)

	_, err := engine.RecognizeFile(context.Background(), "broken.png")
	var loadErr *ImageLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error = %v, want *ImageLoadError", err)
	}
}

func TestRecognizeFileEngineError(t *testing.T) {
	helper := writeHelper(t, "echo 'vision request failed' >&2; exit 2")
	engine := NewEngine(helper, time.Second)

	_, err := engine.RecognizeFile(context.Background(), "region.png")
	var engErr *RecognitionEngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("error = %v, want *RecognitionEngineError", err)
	}
}

func TestRecognizeFileTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timeout test in short mode")
	}

	helper := writeHelper(t, "sleep 5")
	engine := NewEngine(helper, 100*time.Millisecond)

	_, err := engine.RecognizeFile(context.Background(), "slow.png")
	var engErr *RecognitionEngineError
	if !errors.As(err, &engErr) {
		t.Fatalf("error = %v, want *RecognitionEngineError on timeout", err)
	}
}

func TestRecognizeImageWritesTempFile(t *testing.T) {
	// Helper asserts its argument exists, proving the crop reached disk
	helper := writeHelper(t, "test -f \"$1\" && echo ok")
	engine := NewEngine(helper, time.Second)

	img := image.NewRGBA(image.Rect(0, 0, 120, 36))
	lines, err := engine.RecognizeImage(context.Background(), img)
	if err != nil {
		t.Fatalf("RecognizeImage() error = %v", err)
	}
	if len(lines) != 1 || lines[0] != "ok" {
		t.Errorf("lines = %v, want [ok]", lines)
	}
}

func TestMaybeUpscale(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"small countdown crop scales 3x", 120, 36, 360, 108},
		{"large crop untouched", 300, 100, 300, 100},
		{"empty crop untouched", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			out := maybeUpscale(img)
			bounds := out.Bounds()
			if bounds.Dx() != tt.wantW || bounds.Dy() != tt.wantH {
				t.Errorf("upscaled to %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("  CH 1 \n\n  appeared\n")
	if len(lines) != 2 || lines[0] != "CH 1" || lines[1] != "appeared" {
		t.Errorf("splitLines() = %v, want [CH 1, appeared]", lines)
	}
}
