package input

import (
	"fmt"
	"sync"

	"github.com/kellerith/rox-farm-go/internal/calibration"
)

// Action records one intended input operation without touching the OS
type Action struct {
	Type   string // "click", "move", "drag", "key"
	X      int
	Y      int
	Detail string
}

// DryRunDispatcher records intended actions instead of dispatching them.
// Used by test mode and unit tests.
type DryRunDispatcher struct {
	mu      sync.Mutex
	actions []Action
}

// NewDryRunDispatcher creates a recording dispatcher
func NewDryRunDispatcher() *DryRunDispatcher {
	return &DryRunDispatcher{}
}

// Click records an intended click at the unjittered target
func (d *DryRunDispatcher) Click(x, y, jitter int) error {
	d.record(Action{Type: "click", X: x, Y: y, Detail: fmt.Sprintf("jitter=%d", jitter)})
	return nil
}

// MoveTo records an intended pointer move
func (d *DryRunDispatcher) MoveTo(x, y int) error {
	d.record(Action{Type: "move", X: x, Y: y})
	return nil
}

// DragVertical records an intended drag
func (d *DryRunDispatcher) DragVertical(x, y, dy int) error {
	d.record(Action{Type: "drag", X: x, Y: y, Detail: fmt.Sprintf("dy=%d", dy)})
	return nil
}

// TypeDigits records one click per digit of n
func (d *DryRunDispatcher) TypeDigits(n int, pad map[string]calibration.XY) error {
	if n < 0 {
		n = -n
	}
	for _, ch := range fmt.Sprintf("%d", n) {
		key, ok := pad[string(ch)]
		if !ok {
			continue
		}
		d.record(Action{Type: "click", X: key.X, Y: key.Y, Detail: "digit=" + string(ch)})
	}
	return nil
}

// KeyTap records an intended key tap
func (d *DryRunDispatcher) KeyTap(key string) error {
	d.record(Action{Type: "key", Detail: key})
	return nil
}

func (d *DryRunDispatcher) record(a Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
}

// Actions returns a copy of the recorded actions in dispatch order
func (d *DryRunDispatcher) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Action, len(d.actions))
	copy(out, d.actions)
	return out
}

// Reset clears the recording
func (d *DryRunDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = nil
}
