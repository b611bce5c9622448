package vision

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/corona10/goimagehash"
)

// DefaultHashTolerance is the maximum perceptual hash distance at which
// two patches are still considered the same UI element.
const DefaultHashTolerance = 8

// SimilarPatch reports whether two image patches look alike using
// perceptual hashing. Hamming distance within tolerance counts as a match.
func SimilarPatch(a, b image.Image, tolerance int) (bool, error) {
	ha, err := goimagehash.PerceptionHash(a)
	if err != nil {
		return false, fmt.Errorf("hash patch: %w", err)
	}
	hb, err := goimagehash.PerceptionHash(b)
	if err != nil {
		return false, fmt.Errorf("hash patch: %w", err)
	}

	distance, err := ha.Distance(hb)
	if err != nil {
		return false, fmt.Errorf("hash distance: %w", err)
	}

	return distance <= tolerance, nil
}

// LoadReference reads a saved PNG reference patch from disk
func LoadReference(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode reference %s: %w", path, err)
	}
	return img, nil
}

// SaveReference writes a reference patch to disk as PNG
func SaveReference(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode reference %s: %w", path, err)
	}
	return nil
}
