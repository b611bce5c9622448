package calibration

import "fmt"

// Kind distinguishes what an anchor point is used for
type Kind string

const (
	// KindClick is a click target (W/H are zero)
	KindClick Kind = "click"
	// KindTextRegion is a rectangle read via OCR
	KindTextRegion Kind = "text_region"
)

// Point is a named screen anchor stored as an offset from the game window
// origin, so a moved window never invalidates calibration. Immutable once
// saved; re-calibration overwrites the whole entry.
type Point struct {
	Name string
	Kind Kind
	X    int
	Y    int
	W    int
	H    int
}

// XY is an absolute screen coordinate
type XY struct {
	X int
	Y int
}

// Region is an absolute screen rectangle
type Region struct {
	X int
	Y int
	W int
	H int
}

// ResolveClick returns the absolute screen position of a click anchor
// given the current window origin.
func (p Point) ResolveClick(wx, wy int) XY {
	return XY{X: wx + p.X, Y: wy + p.Y}
}

// ResolveRegion returns the absolute screen rectangle of a text-region
// anchor given the current window origin.
func (p Point) ResolveRegion(wx, wy int) Region {
	return Region{X: wx + p.X, Y: wy + p.Y, W: p.W, H: p.H}
}

// NotCalibratedError reports a referenced anchor point that was never
// recorded. Fatal for the referencing task until recalibrated.
type NotCalibratedError struct {
	Name string
}

func (e *NotCalibratedError) Error() string {
	return fmt.Sprintf("anchor point %q is not calibrated", e.Name)
}

// require fetches a named point of the expected kind from a snapshot
func require(points map[string]Point, name string, kind Kind) (Point, error) {
	p, ok := points[name]
	if !ok {
		return Point{}, &NotCalibratedError{Name: name}
	}
	if p.Kind != kind {
		return Point{}, fmt.Errorf("anchor point %q has kind %s, want %s", name, p.Kind, kind)
	}
	return p, nil
}
