package window

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/shirou/gopsutil/v4/process"
)

// Rect is a window rectangle in screen coordinates
type Rect struct {
	X int
	Y int
	W int
	H int
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d) %dx%d", r.X, r.Y, r.W, r.H)
}

// Finder locates the game window. The loop re-detects at the top of every
// cycle so a moved window keeps working.
type Finder interface {
	Find() (Rect, error)
}

// ProcessFinder finds the game window by matching the owning process name
// (case-insensitive substring) and reading its window bounds.
type ProcessFinder struct {
	match string
}

// NewProcessFinder creates a finder matching processes whose name contains
// the given substring.
func NewProcessFinder(match string) *ProcessFinder {
	return &ProcessFinder{match: strings.ToLower(match)}
}

// Find scans the process list for the game and returns its window bounds
func (f *ProcessFinder) Find() (Rect, error) {
	pids, err := process.Pids()
	if err != nil {
		return Rect{}, fmt.Errorf("list processes: %w", err)
	}

	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		name, err := proc.Name()
		if err != nil || name == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(name), f.match) {
			continue
		}

		x, y, w, h := robotgo.GetBounds(int(pid))
		if w <= 0 || h <= 0 {
			continue
		}
		return Rect{X: x, Y: y, W: w, H: h}, nil
	}

	return Rect{}, fmt.Errorf("no window found for process matching %q", f.match)
}

// FixedFinder always returns a manually supplied rectangle, for the
// --window override when auto-detection fails.
type FixedFinder struct {
	rect Rect
}

// NewFixedFinder wraps a fixed window rectangle as a Finder
func NewFixedFinder(rect Rect) *FixedFinder {
	return &FixedFinder{rect: rect}
}

// Find returns the fixed rectangle
func (f *FixedFinder) Find() (Rect, error) {
	return f.rect, nil
}

// ParseRect parses a manual "x,y,w,h" window override
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("window override %q: want 4 comma-separated values x,y,w,h", s)
	}

	values := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Rect{}, fmt.Errorf("window override %q: %w", s, err)
		}
		values[i] = v
	}

	rect := Rect{X: values[0], Y: values[1], W: values[2], H: values[3]}
	if rect.W <= 0 || rect.H <= 0 {
		return Rect{}, fmt.Errorf("window override %q: width and height must be positive", s)
	}
	return rect, nil
}
