package vision

import (
	"image"
	"image/draw"
)

// grayAt returns the luma of a pixel using the integer Rec. 601 weights
func grayAt(img *image.RGBA, x, y int) int {
	i := img.PixOffset(x, y)
	r := int(img.Pix[i])
	g := int(img.Pix[i+1])
	b := int(img.Pix[i+2])
	return (299*r + 587*g + 114*b) / 1000
}

// AverageBrightness returns the mean grayscale value of an image (0-255)
func AverageBrightness(img *image.RGBA) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}

	sum := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += grayAt(img, x, y)
		}
	}

	return float64(sum) / float64(bounds.Dx()*bounds.Dy())
}

// DiffPercent returns the share (0-100) of pixels whose grayscale values
// differ by more than 10 levels. A size mismatch counts as fully different.
func DiffPercent(a, b *image.RGBA) float64 {
	ab := a.Bounds()
	bb := b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 100.0
	}
	if ab.Empty() {
		return 0
	}

	changed := 0
	for dy := 0; dy < ab.Dy(); dy++ {
		for dx := 0; dx < ab.Dx(); dx++ {
			ga := grayAt(a, ab.Min.X+dx, ab.Min.Y+dy)
			gb := grayAt(b, bb.Min.X+dx, bb.Min.Y+dy)
			d := ga - gb
			if d < 0 {
				d = -d
			}
			if d > 10 {
				changed++
			}
		}
	}

	return float64(changed) / float64(ab.Dx()*ab.Dy()) * 100.0
}

// Crop extracts a sub-rectangle of a frame as a new zero-origin image.
// The rectangle is clamped to the frame bounds.
func Crop(frame *image.RGBA, x, y, w, h int) *image.RGBA {
	region := image.Rect(x, y, x+w, y+h).Intersect(frame.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(out, out.Bounds(), frame, region.Min, draw.Src)
	return out
}
