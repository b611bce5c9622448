package farm

import (
	"context"
	"fmt"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/ocr"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

// TextRunner is the generic screen-text watcher: OCR a calibrated region,
// classify it with the task's token sets, and click a calibrated point
// when the action is ready. Countdown text reschedules the poll.
type TextRunner struct {
	vision     *vision.Service
	recognizer ocr.Recognizer
	dispatcher input.Dispatcher
	finder     window.Finder
	store      *calibration.Store

	regionName string
	clickName  string
	classifier Classifier

	region calibration.Point
	click  calibration.Point
}

// NewTextRunner wires a text runner for one configured watch
func NewTextRunner(vs *vision.Service, rec ocr.Recognizer, disp input.Dispatcher,
	finder window.Finder, store *calibration.Store,
	regionName, clickName string, readyTokens, idleTokens []string) *TextRunner {
	return &TextRunner{
		vision:     vs,
		recognizer: rec,
		dispatcher: disp,
		finder:     finder,
		store:      store,
		regionName: regionName,
		clickName:  clickName,
		classifier: Classifier{ReadyTokens: readyTokens, IdleTokens: idleTokens},
	}
}

// Validate resolves the two calibration references
func (t *TextRunner) Validate() error {
	region, err := t.store.Load(t.regionName)
	if err != nil {
		return err
	}
	if region.Kind != calibration.KindTextRegion {
		return fmt.Errorf("point %q is %s, expected %s", t.regionName, region.Kind, calibration.KindTextRegion)
	}
	click, err := t.store.Load(t.clickName)
	if err != nil {
		return err
	}
	if click.Kind != calibration.KindClick {
		return fmt.Errorf("point %q is %s, expected %s", t.clickName, click.Kind, calibration.KindClick)
	}
	t.region = region
	t.click = click
	return nil
}

// Poll reads the watched region and classifies it
func (t *TextRunner) Poll(ctx context.Context) (Classification, error) {
	rect, err := t.finder.Find()
	if err != nil {
		return Classification{State: StateUnknown}, fmt.Errorf("game window not found: %w", err)
	}

	reg := t.region.ResolveRegion(rect.X, rect.Y)
	img, err := t.vision.CaptureRegion(reg.X, reg.Y, reg.W, reg.H)
	if err != nil {
		return Classification{State: StateUnknown}, err
	}

	lines, err := t.recognizer.RecognizeImage(ctx, img)
	if err != nil {
		return Classification{State: StateUnknown}, err
	}

	return t.classifier.Classify(RecognitionResult{Lines: lines}), nil
}

// Act clicks the configured point once
func (t *TextRunner) Act(ctx context.Context, _ Classification) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	rect, err := t.finder.Find()
	if err != nil {
		return fmt.Errorf("game window not found: %w", err)
	}
	xy := t.click.ResolveClick(rect.X, rect.Y)
	return t.dispatcher.Click(xy.X, xy.Y, input.DefaultJitter)
}
