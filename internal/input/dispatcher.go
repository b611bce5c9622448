package input

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-vgo/robotgo"

	"github.com/kellerith/rox-farm-go/internal/calibration"
)

// DefaultJitter is the uniform ± pixel offset applied to click targets
const DefaultJitter = 6

// Dispatcher issues synthetic input at calibrated coordinates. All
// dispatch is synchronous; implementations serialize so ad-hoc actions
// cannot interleave with the control loop's capture/act sequences.
type Dispatcher interface {
	// Click presses at (x±jitter, y±jitter); jitter < 0 uses the default
	Click(x, y, jitter int) error

	// MoveTo moves the pointer without clicking
	MoveTo(x, y int) error

	// DragVertical presses at (x, y), drags by dy pixels, and releases.
	// Positive dy drags downward.
	DragVertical(x, y, dy int) error

	// TypeDigits taps numpad keys for each digit of n
	TypeDigits(n int, pad map[string]calibration.XY) error

	// KeyTap taps a keyboard key
	KeyTap(key string) error
}

// RobotDispatcher dispatches real input through the desktop automation
// layer, with humanized jitter and inter-action delays.
type RobotDispatcher struct {
	mu sync.Mutex
}

// NewRobotDispatcher creates a real input dispatcher
func NewRobotDispatcher() *RobotDispatcher {
	return &RobotDispatcher{}
}

// Click moves to a jittered target and performs an explicit
// press-hold-release so the game reliably registers the click.
func (d *RobotDispatcher) Click(x, y, jitter int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if jitter < 0 {
		jitter = DefaultJitter
	}
	tx := x + randBetween(-jitter, jitter)
	ty := y + randBetween(-jitter, jitter)

	robotgo.MoveSmooth(tx, ty)
	robotgo.MilliSleep(50 + rand.Intn(80))

	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("mouse down: %w", err)
	}
	robotgo.MilliSleep(40 + rand.Intn(60))
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("mouse up: %w", err)
	}
	robotgo.MilliSleep(30 + rand.Intn(50))

	return nil
}

// MoveTo moves the pointer to (x, y)
func (d *RobotDispatcher) MoveTo(x, y int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	robotgo.MoveSmooth(x, y)
	return nil
}

// DragVertical press-drags vertically, used for panel scrolling
func (d *RobotDispatcher) DragVertical(x, y, dy int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := x + randBetween(-4, 4)
	ty := y + randBetween(-4, 4)

	robotgo.MoveSmooth(tx, ty)
	robotgo.MilliSleep(50)
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("drag press: %w", err)
	}
	robotgo.MilliSleep(50)
	robotgo.MoveSmooth(tx, ty+dy)
	robotgo.MilliSleep(50)
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("drag release: %w", err)
	}
	robotgo.MilliSleep(200)

	return nil
}

// TypeDigits taps numpad keys for each digit of n with human-ish delays.
// Digits missing from the pad are skipped.
func (d *RobotDispatcher) TypeDigits(n int, pad map[string]calibration.XY) error {
	if n < 0 {
		n = -n
	}
	for _, ch := range fmt.Sprintf("%d", n) {
		key, ok := pad[string(ch)]
		if !ok {
			continue
		}
		if err := d.Click(key.X, key.Y, 4); err != nil {
			return err
		}
		robotgo.MilliSleep(200 + rand.Intn(250))
	}
	return nil
}

// KeyTap taps a keyboard key
func (d *RobotDispatcher) KeyTap(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return robotgo.KeyTap(key)
}

func randBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rand.Intn(hi-lo+1)
}
