package calibration

import (
	"errors"
	"testing"
)

func gardenPoints() map[string]Point {
	return map[string]Point{
		PointGardenButton: {Name: PointGardenButton, Kind: KindClick, X: 400, Y: 600},
		PointInputField:   {Name: PointInputField, Kind: KindClick, X: 500, Y: 400},
		PointNumpad1:      {Name: PointNumpad1, Kind: KindClick, X: 440, Y: 450},
		PointNumpad0:      {Name: PointNumpad0, Kind: KindClick, X: 500, Y: 530},
	}
}

func TestGardenFromMissingAnchor(t *testing.T) {
	points := gardenPoints()
	delete(points, PointNumpad0)

	_, err := GardenFrom(points)
	var notCal *NotCalibratedError
	if !errors.As(err, &notCal) {
		t.Fatalf("GardenFrom() error = %v, want *NotCalibratedError", err)
	}
}

func TestGardenPositions(t *testing.T) {
	layout, err := GardenFrom(gardenPoints())
	if err != nil {
		t.Fatalf("GardenFrom() error = %v", err)
	}

	// Window at (100, 50): offsets shift by the origin
	pos := layout.Positions(100, 50)

	if pos.Garden != (XY{500, 650}) {
		t.Errorf("Garden = %+v, want {500 650}", pos.Garden)
	}
	if pos.Input != (XY{600, 450}) {
		t.Errorf("Input = %+v, want {600 450}", pos.Input)
	}

	// Math region centered above the input field
	wantMath := Region{X: 600 - MathWidth/2, Y: 450 - MathAboveInput - MathHeight, W: MathWidth, H: MathHeight}
	if pos.MathRegion != wantMath {
		t.Errorf("MathRegion = %+v, want %+v", pos.MathRegion, wantMath)
	}

	if pos.OK != (XY{600, 450 + OKBelowInput}) {
		t.Errorf("OK = %+v, want {600 %d}", pos.OK, 450+OKBelowInput)
	}
}

func TestGardenNumpadGrid(t *testing.T) {
	layout, err := GardenFrom(gardenPoints())
	if err != nil {
		t.Fatalf("GardenFrom() error = %v", err)
	}
	pos := layout.Positions(0, 0)

	// '1' at (440,450), '0' at (500,530): column stride 20, row stride 80
	tests := []struct {
		key  string
		want XY
	}{
		{"1", XY{440, 450}},
		{"2", XY{460, 450}},
		{"3", XY{480, 450}},
		{"5", XY{460, 530}},
		{"9", XY{480, 610}},
		{"0", XY{500, 530}},
		{"clear", XY{500, 450}},
		{"confirm", XY{500, 610}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := pos.Numpad[tt.key]; got != tt.want {
				t.Errorf("Numpad[%s] = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func bossPoints() map[string]Point {
	names := []string{
		PointPanelButton, PointMVPTab, PointMiniTab, PointGoButton,
		PointAutoAttackToggle, PointMonsterListFirst, PointResurrectButton,
	}
	points := map[string]Point{
		PointFirstBossRow:  {Name: PointFirstBossRow, Kind: KindClick, X: 100, Y: 150},
		PointLastBossRow:   {Name: PointLastBossRow, Kind: KindClick, X: 100, Y: 450},
		PointPanelClose:    {Name: PointPanelClose, Kind: KindClick, X: 700, Y: 100},
		PointChannelButton: {Name: PointChannelButton, Kind: KindClick, X: 900, Y: 30},
		PointCh1Button:     {Name: PointCh1Button, Kind: KindClick, X: 450, Y: 300},
	}
	for i, name := range names {
		points[name] = Point{Name: name, Kind: KindClick, X: 200 + i*10, Y: 100 + i*10}
	}
	return points
}

func TestBossDerivedGeometry(t *testing.T) {
	layout, err := BossFrom(bossPoints())
	if err != nil {
		t.Fatalf("BossFrom() error = %v", err)
	}

	// First row y=150, last y=450: row height 100, scroll distance 400
	if layout.RowHeight != 100 {
		t.Errorf("RowHeight = %d, want 100", layout.RowHeight)
	}
	if layout.ScrollDistance != 400 {
		t.Errorf("ScrollDistance = %d, want 400", layout.ScrollDistance)
	}
	if layout.PanelWidth != 600 {
		t.Errorf("PanelWidth = %d, want 600", layout.PanelWidth)
	}
}

func TestBossPositionsRegions(t *testing.T) {
	layout, err := BossFrom(bossPoints())
	if err != nil {
		t.Fatalf("BossFrom() error = %v", err)
	}
	pos := layout.Positions(10, 20)

	wantScroll := Region{X: 110, Y: 170, W: 600, H: 400}
	if pos.ScrollRegion != wantScroll {
		t.Errorf("ScrollRegion = %+v, want %+v", pos.ScrollRegion, wantScroll)
	}

	// Channel button resolved to (910, 50)
	wantChRead := Region{X: 850, Y: 35, W: 130, H: 35}
	if pos.ChannelRead != wantChRead {
		t.Errorf("ChannelRead = %+v, want %+v", pos.ChannelRead, wantChRead)
	}

	wantMinimap := Region{X: 790, Y: 90, W: 150, H: 150}
	if pos.MinimapProbe != wantMinimap {
		t.Errorf("MinimapProbe = %+v, want %+v", pos.MinimapProbe, wantMinimap)
	}
	if pos.MinimapButton != (XY{910, 100}) {
		t.Errorf("MinimapButton = %+v, want {910 100}", pos.MinimapButton)
	}

	row2 := pos.RowRegion(2)
	if row2.Y != pos.ScrollRegion.Y+2*pos.RowHeight {
		t.Errorf("RowRegion(2).Y = %d, want %d", row2.Y, pos.ScrollRegion.Y+2*pos.RowHeight)
	}
}

func TestBossFromMissingAnchor(t *testing.T) {
	points := bossPoints()
	delete(points, PointResurrectButton)

	_, err := BossFrom(points)
	var notCal *NotCalibratedError
	if !errors.As(err, &notCal) {
		t.Fatalf("BossFrom() error = %v, want *NotCalibratedError", err)
	}
	if notCal.Name != PointResurrectButton {
		t.Errorf("error names %q, want %s", notCal.Name, PointResurrectButton)
	}
}

func TestRegionFromCorners(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           Point
	}{
		{
			"top-left then bottom-right",
			40, 20, 180, 60,
			Point{Name: "watch", Kind: KindTextRegion, X: 40, Y: 20, W: 140, H: 40},
		},
		{
			"corners swapped",
			180, 60, 40, 20,
			Point{Name: "watch", Kind: KindTextRegion, X: 40, Y: 20, W: 140, H: 40},
		},
		{
			"mixed order",
			180, 20, 40, 60,
			Point{Name: "watch", Kind: KindTextRegion, X: 40, Y: 20, W: 140, H: 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionFromCorners("watch", tt.x1, tt.y1, tt.x2, tt.y2)
			if got != tt.want {
				t.Errorf("RegionFromCorners() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTextTaskSteps(t *testing.T) {
	steps := TextTaskSteps("daily_gift", "gift_region", "gift_button")
	if len(steps) != 2 {
		t.Fatalf("TextTaskSteps() returned %d steps, want 2", len(steps))
	}
	if steps[0].Name != "gift_region" || steps[0].Kind != KindTextRegion {
		t.Errorf("region step = %+v, want name gift_region kind %s", steps[0], KindTextRegion)
	}
	if steps[1].Name != "gift_button" || steps[1].Kind != KindClick {
		t.Errorf("click step = %+v, want name gift_button kind %s", steps[1], KindClick)
	}
}

func TestWalkStepsAreClickKind(t *testing.T) {
	for _, step := range append(append([]Step{}, GardenSteps...), BossSteps...) {
		if step.Kind != KindClick {
			t.Errorf("step %q kind = %s, want %s", step.Name, step.Kind, KindClick)
		}
	}
}
