package permissions

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/kellerith/rox-farm-go/internal/vision"
)

// Grant names reported in PermissionDeniedError
const (
	GrantScreenCapture  = "screen-capture"
	GrantSyntheticInput = "synthetic-input"
)

// PermissionDeniedError reports a missing OS-level grant. Fatal at
// startup: run refuses to start and names the grant.
type PermissionDeniedError struct {
	Grant string
	Err   error
}

func (e *PermissionDeniedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing OS grant %q: %v", e.Grant, e.Err)
	}
	return fmt.Sprintf("missing OS grant %q", e.Grant)
}

func (e *PermissionDeniedError) Unwrap() error {
	return e.Err
}

// CheckScreenCapture probes the screen-capture grant by capturing a
// one-pixel region. Without the grant the capture fails or comes back
// empty rather than silently no-opping.
func CheckScreenCapture(capturer vision.Capturer) error {
	img, err := capturer.CaptureRegion(0, 0, 1, 1)
	if err != nil {
		return &PermissionDeniedError{Grant: GrantScreenCapture, Err: err}
	}
	if img == nil || img.Bounds().Empty() {
		return &PermissionDeniedError{Grant: GrantScreenCapture, Err: fmt.Errorf("capture returned an empty frame")}
	}
	return nil
}

// CheckSyntheticInput probes the input grant with a harmless
// pointer-position roundtrip: move to where the pointer already is and
// verify the position reads back.
func CheckSyntheticInput() error {
	x, y := robotgo.Location()
	robotgo.Move(x, y)

	rx, ry := robotgo.Location()
	dx, dy := rx-x, ry-y
	if dx < -2 || dx > 2 || dy < -2 || dy > 2 {
		return &PermissionDeniedError{
			Grant: GrantSyntheticInput,
			Err:   fmt.Errorf("pointer roundtrip moved (%d,%d) -> (%d,%d)", x, y, rx, ry),
		}
	}
	return nil
}

// CheckGameRunning scans the process list for the game. Not a grant, but
// run/test are pointless without it; the caller reports it the same way.
func CheckGameRunning(match string) error {
	pids, err := process.Pids()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	match = strings.ToLower(match)
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		name, err := proc.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(name), match) {
			return nil
		}
	}

	return fmt.Errorf("game process matching %q not found; make sure the game is running and visible", match)
}

// Preflight runs every startup probe and returns the first failure
func Preflight(capturer vision.Capturer, gameMatch string) error {
	if err := CheckScreenCapture(capturer); err != nil {
		return err
	}
	if err := CheckSyntheticInput(); err != nil {
		return err
	}
	return CheckGameRunning(gameMatch)
}
