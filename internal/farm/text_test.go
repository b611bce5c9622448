package farm

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/kellerith/rox-farm-go/internal/calibration"
)

func textTaskStore(t *testing.T, region calibration.Point) *calibration.Store {
	t.Helper()
	store := calibration.NewStore(filepath.Join(t.TempDir(), "calibration.ini"))
	points := []calibration.Point{
		region,
		{Name: "gift_button", Kind: calibration.KindClick, X: 320, Y: 540},
	}
	if err := store.SaveAll(points); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	return store
}

func TestTextRunnerValidateAcceptsRecordedRegion(t *testing.T) {
	// Region anchors are recorded as two corners during calibration
	region := calibration.RegionFromCorners("gift_region", 210, 80, 90, 40)
	store := textTaskStore(t, region)

	runner := NewTextRunner(nil, nil, nil, nil, store,
		"gift_region", "gift_button", []string{"claim"}, []string{"done"})
	if err := runner.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if runner.region.W != 120 || runner.region.H != 40 {
		t.Errorf("region = %dx%d, want 120x40", runner.region.W, runner.region.H)
	}
}

func TestTextRunnerValidateRejectsClickRegion(t *testing.T) {
	region := calibration.Point{Name: "gift_region", Kind: calibration.KindClick, X: 90, Y: 40}
	store := textTaskStore(t, region)

	runner := NewTextRunner(nil, nil, nil, nil, store,
		"gift_region", "gift_button", []string{"claim"}, nil)
	err := runner.Validate()
	if err == nil {
		t.Fatal("Validate() accepted a click anchor as the watch region")
	}
	if !strings.Contains(err.Error(), string(calibration.KindTextRegion)) {
		t.Errorf("Validate() error = %v, want mention of %s", err, calibration.KindTextRegion)
	}
}

func TestTextRunnerValidateMissingAnchor(t *testing.T) {
	store := calibration.NewStore(filepath.Join(t.TempDir(), "calibration.ini"))
	runner := NewTextRunner(nil, nil, nil, nil, store,
		"gift_region", "gift_button", []string{"claim"}, nil)
	if err := runner.Validate(); err == nil {
		t.Fatal("Validate() passed with an empty calibration store")
	}
}
