package calibration

import "fmt"

// Layout constants recovered from the game's fixed dialog geometry.
const (
	// Math (CAPTCHA expression) region relative to the input field
	MathAboveInput = 25
	MathWidth      = 120
	MathHeight     = 36

	// OK button sits directly below the input field
	OKBelowInput = 85

	// GardenPatchSize is the reference patch edge captured around the
	// garden button during calibration.
	GardenPatchSize = 40

	// VisibleBossRows is how many boss rows the panel shows per page
	VisibleBossRows = 4
)

// Garden anchor names recorded by the calibration pass
const (
	PointGardenButton = "garden_button"
	PointInputField   = "input_field"
	PointNumpad1      = "numpad_1"
	PointNumpad0      = "numpad_0"
)

// Boss anchor names recorded by the calibration pass
const (
	PointPanelButton      = "mvp_panel_button"
	PointMVPTab           = "mvp_tab"
	PointMiniTab          = "mini_tab"
	PointFirstBossRow     = "first_boss_row"
	PointLastBossRow      = "last_visible_boss_row"
	PointGoButton         = "go_button"
	PointPanelClose       = "panel_close"
	PointAutoAttackToggle = "auto_attack_toggle"
	PointMonsterListFirst = "monster_list_first"
	PointResurrectButton  = "resurrect_button"
	PointChannelButton    = "channel_button"
	PointCh1Button        = "ch1_button"
)

// Step describes one stop of the interactive calibration walk. Click
// steps record the pointer position; text-region steps record two
// corners and store the spanned rectangle.
type Step struct {
	Name        string
	Kind        Kind
	Description string
}

// GardenSteps is the garden calibration walk, recorded while a CAPTCHA
// dialog is visible so the numpad anchors exist on screen.
var GardenSteps = []Step{
	{PointGardenButton, KindClick, "the GARDEN BUTTON (the plot you click repeatedly)"},
	{PointInputField, KindClick, "the INPUT FIELD (answer box in the CAPTCHA dialog)"},
	{PointNumpad1, KindClick, "numpad button '1'"},
	{PointNumpad0, KindClick, "numpad button '0'"},
}

// BossSteps is the boss calibration walk
var BossSteps = []Step{
	{PointPanelButton, KindClick, "the MVP panel button (top bar icon)"},
	{PointMVPTab, KindClick, "the MVP tab at the top of the panel"},
	{PointMiniTab, KindClick, "the Mini tab at the top of the panel"},
	{PointFirstBossRow, KindClick, "the top-left of the FIRST boss entry in the list"},
	{PointLastBossRow, KindClick, "the top-left of the LAST visible boss entry (4th row)"},
	{PointGoButton, KindClick, "the Go button on a boss entry"},
	{PointPanelClose, KindClick, "the panel close (X) button"},
	{PointAutoAttackToggle, KindClick, "the auto-attack toggle (above chat)"},
	{PointMonsterListFirst, KindClick, "the first monster in the auto-attack dropdown"},
	{PointResurrectButton, KindClick, "the resurrect button (shown on death)"},
	{PointChannelButton, KindClick, "the channel button (top-right)"},
	{PointCh1Button, KindClick, "the Channel 1 button in the popup"},
}

// TextTaskSteps returns the calibration walk for one configured text
// task: the watched OCR rectangle and the click target it triggers.
func TextTaskSteps(taskName, region, click string) []Step {
	return []Step{
		{region, KindTextRegion, fmt.Sprintf("the TEXT REGION watched by task %q", taskName)},
		{click, KindClick, fmt.Sprintf("the CLICK TARGET of task %q", taskName)},
	}
}

// RegionFromCorners builds a text-region point from two recorded corner
// positions, tolerating either capture order.
func RegionFromCorners(name string, x1, y1, x2, y2 int) Point {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Point{Name: name, Kind: KindTextRegion, X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// GardenLayout holds the four recorded garden anchors; every other garden
// position is derived from them.
type GardenLayout struct {
	Garden  Point
	Input   Point
	Numpad1 Point
	Numpad0 Point
}

// GardenPositions are the absolute screen positions for one window origin
type GardenPositions struct {
	Garden     XY
	MathRegion Region
	Input      XY
	OK         XY
	Numpad     map[string]XY
}

// GardenFrom assembles a garden layout from a calibration snapshot,
// failing with *NotCalibratedError on the first missing anchor.
func GardenFrom(points map[string]Point) (*GardenLayout, error) {
	garden, err := require(points, PointGardenButton, KindClick)
	if err != nil {
		return nil, err
	}
	input, err := require(points, PointInputField, KindClick)
	if err != nil {
		return nil, err
	}
	n1, err := require(points, PointNumpad1, KindClick)
	if err != nil {
		return nil, err
	}
	n0, err := require(points, PointNumpad0, KindClick)
	if err != nil {
		return nil, err
	}

	return &GardenLayout{Garden: garden, Input: input, Numpad1: n1, Numpad0: n0}, nil
}

// Positions resolves all garden element positions against a window origin.
// The numpad grid is derived from the '1' and '0' key anchors: column
// stride is a third of their horizontal distance, row stride their full
// vertical distance.
func (g *GardenLayout) Positions(wx, wy int) *GardenPositions {
	input := g.Input.ResolveClick(wx, wy)

	x1 := wx + g.Numpad1.X
	y1 := wy + g.Numpad1.Y
	x0 := wx + g.Numpad0.X
	y0 := wy + g.Numpad0.Y
	cs := (x0 - x1) / 3
	rs := y0 - y1

	numpad := map[string]XY{
		"1":       {x1, y1},
		"2":       {x1 + cs, y1},
		"3":       {x1 + 2*cs, y1},
		"4":       {x1, y1 + rs},
		"5":       {x1 + cs, y1 + rs},
		"6":       {x1 + 2*cs, y1 + rs},
		"7":       {x1, y1 + 2*rs},
		"8":       {x1 + cs, y1 + 2*rs},
		"9":       {x1 + 2*cs, y1 + 2*rs},
		"0":       {x0, y0},
		"clear":   {x1 + 3*cs, y1},
		"confirm": {x1 + 3*cs, y1 + 2*rs},
	}

	return &GardenPositions{
		Garden: g.Garden.ResolveClick(wx, wy),
		MathRegion: Region{
			X: input.X - MathWidth/2,
			Y: input.Y - MathAboveInput - MathHeight,
			W: MathWidth,
			H: MathHeight,
		},
		Input:  input,
		OK:     XY{X: input.X, Y: input.Y + OKBelowInput},
		Numpad: numpad,
	}
}

// BossLayout holds the recorded boss anchors plus geometry derived from
// the first and last visible row positions.
type BossLayout struct {
	PanelButton      Point
	MVPTab           Point
	MiniTab          Point
	FirstRow         Point
	LastRow          Point
	GoButton         Point
	PanelClose       Point
	AutoAttackToggle Point
	MonsterListFirst Point
	ResurrectButton  Point
	ChannelButton    Point
	Ch1Button        Point

	RowHeight      int
	ScrollDistance int
	PanelWidth     int
}

// BossFrom assembles a boss layout from a calibration snapshot
func BossFrom(points map[string]Point) (*BossLayout, error) {
	layout := &BossLayout{}
	targets := []struct {
		name string
		dst  *Point
	}{
		{PointPanelButton, &layout.PanelButton},
		{PointMVPTab, &layout.MVPTab},
		{PointMiniTab, &layout.MiniTab},
		{PointFirstBossRow, &layout.FirstRow},
		{PointLastBossRow, &layout.LastRow},
		{PointGoButton, &layout.GoButton},
		{PointPanelClose, &layout.PanelClose},
		{PointAutoAttackToggle, &layout.AutoAttackToggle},
		{PointMonsterListFirst, &layout.MonsterListFirst},
		{PointResurrectButton, &layout.ResurrectButton},
		{PointChannelButton, &layout.ChannelButton},
		{PointCh1Button, &layout.Ch1Button},
	}

	for _, t := range targets {
		p, err := require(points, t.name, KindClick)
		if err != nil {
			return nil, err
		}
		*t.dst = p
	}

	// Four visible rows means three gaps between the first and last
	layout.RowHeight = (layout.LastRow.Y - layout.FirstRow.Y) / 3
	layout.ScrollDistance = layout.LastRow.Y - layout.FirstRow.Y + layout.RowHeight
	layout.PanelWidth = layout.PanelClose.X - layout.FirstRow.X
	if layout.PanelWidth <= 0 {
		layout.PanelWidth = 300
	}

	return layout, nil
}

// BossPositions are the absolute boss-panel positions for one window origin
type BossPositions struct {
	PanelButton      XY
	MVPTab           XY
	MiniTab          XY
	FirstRow         XY
	GoButton         XY
	PanelClose       XY
	AutoAttackToggle XY
	MonsterListFirst XY
	ResurrectButton  XY
	ChannelButton    XY
	Ch1Button        XY

	RowHeight      int
	ScrollDistance int

	// Derived probe/read regions
	ScrollRegion     Region // the four visible boss rows
	ChannelRead      Region // OCR area around the channel label
	ChannelModal     Region // brightness probe for the channel popup
	PanelHeader      Region // brightness probe around the close button
	MinimapProbe     Region // brightness/diff probe of the minimap content
	MinimapButton    XY     // minimap toggle, below the channel button
	ResurrectRead    Region // OCR area around the resurrect button
	MonsterListRead  Region // OCR area of the full monster dropdown
	MonsterListWidth int
}

// Monster dropdown geometry: entries stack vertically at a fixed height.
const (
	MonsterEntryHeight = 38
	MonsterMaxEntries  = 6
	MonsterEntryWidth  = 200
)

// Positions resolves all boss element positions against a window origin
func (b *BossLayout) Positions(wx, wy int) *BossPositions {
	first := b.FirstRow.ResolveClick(wx, wy)
	channel := b.ChannelButton.ResolveClick(wx, wy)
	ch1 := b.Ch1Button.ResolveClick(wx, wy)
	closeBtn := b.PanelClose.ResolveClick(wx, wy)
	resurrect := b.ResurrectButton.ResolveClick(wx, wy)
	monsterFirst := b.MonsterListFirst.ResolveClick(wx, wy)

	return &BossPositions{
		PanelButton:      b.PanelButton.ResolveClick(wx, wy),
		MVPTab:           b.MVPTab.ResolveClick(wx, wy),
		MiniTab:          b.MiniTab.ResolveClick(wx, wy),
		FirstRow:         first,
		GoButton:         b.GoButton.ResolveClick(wx, wy),
		PanelClose:       closeBtn,
		AutoAttackToggle: b.AutoAttackToggle.ResolveClick(wx, wy),
		MonsterListFirst: monsterFirst,
		ResurrectButton:  resurrect,
		ChannelButton:    channel,
		Ch1Button:        ch1,

		RowHeight:      b.RowHeight,
		ScrollDistance: b.ScrollDistance,

		ScrollRegion:    Region{X: first.X, Y: first.Y, W: b.PanelWidth, H: b.ScrollDistance},
		ChannelRead:     Region{X: channel.X - 60, Y: channel.Y - 15, W: 130, H: 35},
		ChannelModal:    Region{X: ch1.X - 60, Y: ch1.Y - 40, W: 120, H: 80},
		PanelHeader:     Region{X: closeBtn.X - 40, Y: closeBtn.Y - 15, W: 80, H: 30},
		MinimapProbe:    Region{X: channel.X - 120, Y: channel.Y + 40, W: 150, H: 150},
		MinimapButton:   XY{X: channel.X, Y: channel.Y + 50},
		ResurrectRead:   Region{X: resurrect.X - 60, Y: resurrect.Y - 15, W: 120, H: 30},
		MonsterListRead: Region{X: monsterFirst.X - 100, Y: monsterFirst.Y - 10, W: MonsterEntryWidth, H: MonsterEntryHeight * MonsterMaxEntries},
	}
}

// RowRegion returns the OCR rectangle of one visible boss row (0-3)
func (p *BossPositions) RowRegion(row int) Region {
	return Region{
		X: p.ScrollRegion.X,
		Y: p.ScrollRegion.Y + row*p.RowHeight,
		W: p.ScrollRegion.W,
		H: p.RowHeight,
	}
}

// MonsterRowRegion returns the OCR rectangle of one dropdown entry (0-5)
func (p *BossPositions) MonsterRowRegion(row int) Region {
	return Region{
		X: p.MonsterListFirst.X - 100,
		Y: p.MonsterListFirst.Y + row*MonsterEntryHeight - 5,
		W: MonsterEntryWidth,
		H: MonsterEntryHeight,
	}
}

// MonsterRowClick returns the click point for one dropdown entry
func (p *BossPositions) MonsterRowClick(row int) XY {
	return XY{
		X: p.MonsterListFirst.X,
		Y: p.MonsterListFirst.Y + row*MonsterEntryHeight + MonsterEntryHeight/2,
	}
}

// CardDragPoint returns the center of a visible boss card, used as the
// start of drag scrolling (drags must start on a card, not between them).
func (p *BossPositions) CardDragPoint(row int) XY {
	return XY{
		X: (p.FirstRow.X + p.GoButton.X) / 2,
		Y: p.FirstRow.Y + row*p.RowHeight + p.RowHeight/2,
	}
}
