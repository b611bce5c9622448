package farm

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/logging"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

// gardenSettle is how long the dialog gets to render after the click
// before the CAPTCHA probe runs.
const gardenSettle = 600 * time.Millisecond

// GardenRunner waters the garden plot: click the garden button whenever
// it is visible and solve the arithmetic check when one appears.
type GardenRunner struct {
	vision     *vision.Service
	dispatcher input.Dispatcher
	finder     window.Finder
	store      *calibration.Store
	solver     *CaptchaSolver
	bus        events.EventBus
	logger     *logging.Logger

	refPath string
	ref     image.Image

	layout   *calibration.GardenLayout
	lastRect window.Rect

	pause func(ctx context.Context, d time.Duration) bool
}

// NewGardenRunner wires a garden runner. refPath points at the saved
// garden-button reference patch; an unreadable patch disables the
// visibility check rather than the whole task.
func NewGardenRunner(vs *vision.Service, disp input.Dispatcher, finder window.Finder,
	store *calibration.Store, solver *CaptchaSolver, bus events.EventBus, refPath string) *GardenRunner {
	return &GardenRunner{
		vision:     vs,
		dispatcher: disp,
		finder:     finder,
		store:      store,
		solver:     solver,
		bus:        bus,
		logger:     logging.NewLogger("garden"),
		refPath:    refPath,
		pause:      sleepWithContext,
	}
}

// Validate resolves the garden calibration anchors and loads the
// reference patch.
func (g *GardenRunner) Validate() error {
	points, err := g.store.LoadAll()
	if err != nil {
		return err
	}
	layout, err := calibration.GardenFrom(points)
	if err != nil {
		return err
	}
	g.layout = layout

	if g.refPath != "" {
		ref, err := vision.LoadReference(g.refPath)
		if err != nil {
			g.logger.WarnWithFields("Reference patch unavailable, visibility check disabled",
				map[string]interface{}{"path": g.refPath, "error": err.Error()})
		} else {
			g.ref = ref
		}
	}
	return nil
}

// Poll checks whether the garden button is currently on screen
func (g *GardenRunner) Poll(ctx context.Context) (Classification, error) {
	if ctx.Err() != nil {
		return Classification{State: StateUnknown}, ctx.Err()
	}

	pos, err := g.positions()
	if err != nil {
		return Classification{State: StateUnknown}, err
	}

	if g.ref == nil {
		return Classification{State: StateActionAvailable, Line: "garden"}, nil
	}

	half := calibration.GardenPatchSize / 2
	patch, err := g.vision.CaptureRegion(pos.Garden.X-half, pos.Garden.Y-half,
		calibration.GardenPatchSize, calibration.GardenPatchSize)
	if err != nil {
		return Classification{State: StateUnknown}, err
	}

	visible, err := vision.SimilarPatch(patch, g.ref, vision.DefaultHashTolerance)
	if err != nil {
		return Classification{State: StateUnknown}, err
	}
	if !visible {
		return Classification{State: StateIdle, Line: "garden hidden"}, nil
	}
	return Classification{State: StateActionAvailable, Line: "garden"}, nil
}

// Act clicks the garden button, then probes for the CAPTCHA dialog and
// solves it when present.
func (g *GardenRunner) Act(ctx context.Context, _ Classification) error {
	pos, err := g.positions()
	if err != nil {
		return err
	}

	if err := g.dispatcher.Click(pos.Garden.X, pos.Garden.Y, 8); err != nil {
		return fmt.Errorf("garden click failed: %w", err)
	}
	if !g.pause(ctx, gardenSettle) {
		return ctx.Err()
	}
	g.vision.InvalidateCache()

	present, err := g.solver.Detect(pos)
	if err != nil {
		return fmt.Errorf("captcha probe failed: %w", err)
	}
	if !present {
		return nil
	}

	g.logger.Info("Captcha dialog detected")
	return g.solver.Solve(ctx, pos)
}

// positions re-resolves the window every call so a moved window keeps
// working without restarting the loop.
func (g *GardenRunner) positions() (*calibration.GardenPositions, error) {
	rect, err := g.finder.Find()
	if err != nil {
		return nil, fmt.Errorf("game window not found: %w", err)
	}
	if rect != g.lastRect && g.lastRect != (window.Rect{}) {
		g.logger.InfoWithFields("Game window moved",
			map[string]interface{}{"from": g.lastRect.String(), "to": rect.String()})
		g.bus.Publish(events.NewWindowMovedEvent(rect.X, rect.Y, rect.W, rect.H))
	}
	g.lastRect = rect
	return g.layout.Positions(rect.X, rect.Y), nil
}
