package farm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/logging"
	"github.com/kellerith/rox-farm-go/internal/ocr"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

// MVPBosses is the MVP tab roster in panel order
var MVPBosses = []string{
	"Phreeoni", "Mistress", "Kraken", "Eddga",
	"Maya", "Orc Hero", "Pharaoh", "Orc Lord",
}

// MiniBosses is the Mini tab roster in panel order
var MiniBosses = []string{
	"Dragon Fly", "Eclipse", "Mastering", "Ghostring",
	"Toad", "King Dramoh", "Deviling", "Angeling",
}

// defaultReadyTokens mark a boss row as attackable right now. The live
// token set is per-runner configuration; these are the fallback.
var defaultReadyTokens = []string{"appeared", "battle", "inthebattle"}

// monsterBlacklist entries must never be clicked in the attack dropdown
var monsterBlacklist = []string{"allmonsters", "allmonster"}

// Brightness thresholds for the boss flow's pixel probes
const (
	modalBright   = 150.0 // channel popup visible
	panelBright   = 150.0 // boss panel header visible
	minimapBright = 140.0 // minimap content visible
	deathDark     = 80.0  // screen dimmed by the death overlay
	loadingDark   = 40.0  // loading screen (near black)
)

// Timing bounds for the engagement sequence
const (
	loadingMaxWait    = 30 * time.Second
	loadingAppearWait = 10 * time.Second
	arrivalPoll       = 1500 * time.Millisecond
	arrivalStable     = 5 * time.Second
	arrivalCap        = 120 * time.Second
	deathPoll         = 2500 * time.Millisecond
	defaultFightCap   = 90 * time.Second
	resurrectPause    = 2500 * time.Millisecond
	maxEngageCycles   = 3
)

// arrivalDiffPct is the minimap change above which travel is still ongoing
const arrivalDiffPct = 2.0

var channelPattern = regexp.MustCompile(`(?i)ch\s*(\d+)`)

// BossRunner farms selected MVP and Mini bosses: scan the boss panel for
// an attackable target, travel to it on channel 1, auto-attack it, and
// recover through deaths.
type BossRunner struct {
	vision     *vision.Service
	dispatcher input.Dispatcher
	recognizer ocr.Recognizer
	finder     window.Finder
	store      *calibration.Store
	bus        events.EventBus
	logger     *logging.Logger

	selected    map[string]bool
	fightCap    time.Duration
	readyTokens []string

	layout   *calibration.BossLayout
	lastRect window.Rect

	// target of the pending engagement, set by Poll and consumed by Act
	target    string
	targetRow int
	targetTab string

	mu     sync.Mutex
	timers map[string]string // boss -> last observed countdown text
	deaths int

	pause func(ctx context.Context, d time.Duration) bool
}

// NewBossRunner wires a boss runner for the given selections
func NewBossRunner(vs *vision.Service, disp input.Dispatcher, rec ocr.Recognizer,
	finder window.Finder, store *calibration.Store, bus events.EventBus,
	selectedMVPs, selectedMinis []string, fightCap time.Duration) *BossRunner {

	selected := make(map[string]bool)
	for _, name := range selectedMVPs {
		selected[normalizeName(name)] = true
	}
	for _, name := range selectedMinis {
		selected[normalizeName(name)] = true
	}
	if fightCap <= 0 {
		fightCap = defaultFightCap
	}

	return &BossRunner{
		vision:      vs,
		dispatcher:  disp,
		recognizer:  rec,
		finder:      finder,
		store:       store,
		bus:         bus,
		logger:      logging.NewLogger("boss_hunt"),
		selected:    selected,
		fightCap:    fightCap,
		readyTokens: defaultReadyTokens,
		timers:      make(map[string]string),
		pause:       sleepWithContext,
	}
}

// WithReadyTokens overrides the row markers that flag a boss as
// attackable. An empty set keeps the defaults.
func (r *BossRunner) WithReadyTokens(tokens []string) *BossRunner {
	if len(tokens) > 0 {
		normalized := make([]string, 0, len(tokens))
		for _, token := range tokens {
			normalized = append(normalized, normalizeName(token))
		}
		r.readyTokens = normalized
	}
	return r
}

// rowReady reports whether a normalized row text carries a ready marker
func (r *BossRunner) rowReady(rowText string) bool {
	for _, token := range r.readyTokens {
		if strings.Contains(rowText, token) {
			return true
		}
	}
	return false
}

// Validate resolves the boss calibration anchors
func (r *BossRunner) Validate() error {
	if len(r.selected) == 0 {
		return fmt.Errorf("no bosses selected")
	}
	points, err := r.store.LoadAll()
	if err != nil {
		return err
	}
	layout, err := calibration.BossFrom(points)
	if err != nil {
		return err
	}
	r.layout = layout
	return nil
}

// SpawnTimers returns the last observed countdown per boss
func (r *BossRunner) SpawnTimers() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.timers))
	for k, v := range r.timers {
		out[k] = v
	}
	return out
}

// Deaths returns how many times the player died this run
func (r *BossRunner) Deaths() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deaths
}

// Poll scans the boss panel for an attackable selected boss. The scan
// switches to channel 1 first so spawn states match what Act will see.
func (r *BossRunner) Poll(ctx context.Context) (Classification, error) {
	pos, rect, err := r.positions()
	if err != nil {
		return Classification{State: StateUnknown}, err
	}

	if err := r.waitLoading(ctx, rect); err != nil {
		return Classification{State: StateUnknown}, err
	}
	if err := r.ensureChannel1(ctx, pos, rect); err != nil {
		return Classification{State: StateUnknown}, err
	}
	if err := r.openPanel(ctx, pos); err != nil {
		return Classification{State: StateUnknown}, err
	}

	boss, row, tab, found, err := r.scanStatus(ctx, pos)
	if err != nil {
		r.closePanel(pos)
		return Classification{State: StateUnknown}, err
	}
	if !found {
		r.closePanel(pos)
		return Classification{State: StateIdle, Line: "no boss up"}, nil
	}

	// Panel stays open; Act clicks Go from here
	r.target = boss
	r.targetRow = row
	r.targetTab = tab
	return Classification{State: StateActionAvailable, Line: boss}, nil
}

// Act engages the target found by Poll and sees the fight through,
// including death recovery. Bounded by the fight cap per engagement and
// a fixed number of re-engagement cycles.
func (r *BossRunner) Act(ctx context.Context, c Classification) error {
	if r.target == "" {
		return fmt.Errorf("no engagement target")
	}
	target := r.target
	r.target = ""

	pos, rect, err := r.positions()
	if err != nil {
		return err
	}

	r.bus.Publish(events.NewBossEngagedEvent(target, 1))

	for cycle := 0; cycle < maxEngageCycles; cycle++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if cycle > 0 {
			// Re-navigate after a death: same target, fresh panel scan
			if err := r.openPanel(ctx, pos); err != nil {
				return err
			}
			boss, row, _, found, err := r.scanStatus(ctx, pos)
			if err != nil || !found || normalizeName(boss) != normalizeName(target) {
				r.closePanel(pos)
				r.logger.InfoWithFields("Target gone after death, ending engagement",
					map[string]interface{}{"boss": target})
				return nil
			}
			r.targetRow = row
		}

		if err := r.clickGo(ctx, pos); err != nil {
			return err
		}
		if err := r.travel(ctx, pos, rect); err != nil {
			return err
		}
		if err := r.startAttack(ctx, pos, target); err != nil {
			return err
		}

		died, err := r.fight(ctx, pos, rect)
		if err != nil {
			return err
		}
		if !died {
			r.logger.InfoWithFields("Fight finished", map[string]interface{}{"boss": target})
			return nil
		}
		if err := r.resurrect(ctx, pos); err != nil {
			return err
		}
	}

	r.logger.WarnWithFields("Engagement abandoned after repeated deaths",
		map[string]interface{}{"boss": target})
	return nil
}

// CancelPending dismisses the boss panel Poll left open when the engine
// declines to engage. The staged target is dropped so a later Act never
// fights a stale row.
func (r *BossRunner) CancelPending(ctx context.Context) {
	if r.target == "" {
		return
	}
	r.target = ""
	r.targetRow = 0
	r.targetTab = ""

	pos, _, err := r.positions()
	if err != nil {
		r.logger.WarnWithFields("Cannot close boss panel",
			map[string]interface{}{"error": err.Error()})
		return
	}
	r.closePanel(pos)
}

// positions re-resolves the window and boss anchor positions
func (r *BossRunner) positions() (*calibration.BossPositions, window.Rect, error) {
	rect, err := r.finder.Find()
	if err != nil {
		return nil, window.Rect{}, fmt.Errorf("game window not found: %w", err)
	}
	if rect != r.lastRect && r.lastRect != (window.Rect{}) {
		r.bus.Publish(events.NewWindowMovedEvent(rect.X, rect.Y, rect.W, rect.H))
	}
	r.lastRect = rect
	return r.layout.Positions(rect.X, rect.Y), rect, nil
}

// centerBrightness samples a patch at the middle of the game window
func (r *BossRunner) centerBrightness(rect window.Rect) (float64, error) {
	img, err := r.vision.CaptureRegion(rect.X+rect.W/2-100, rect.Y+rect.H/2-100, 200, 200)
	if err != nil {
		return 0, err
	}
	return vision.AverageBrightness(img), nil
}

// waitLoading blocks while the loading screen is up, then returns. An
// unresolved loading screen after the cap is an error.
func (r *BossRunner) waitLoading(ctx context.Context, rect window.Rect) error {
	deadline := time.Now().Add(loadingMaxWait)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
		brightness, err := r.centerBrightness(rect)
		if err != nil {
			return err
		}
		if brightness >= loadingDark {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("loading screen did not clear within %s", loadingMaxWait)
		}
		r.logger.Debug("Loading screen, waiting")
		if !r.pause(ctx, time.Second) {
			return ctx.Err()
		}
	}
}

// readChannel OCRs the channel label. Multi-digit reads drop a trailing
// 1, the dropdown arrow next to the label reads as a one.
func (r *BossRunner) readChannel(ctx context.Context, pos *calibration.BossPositions) (int, error) {
	reg := pos.ChannelRead
	img, err := r.vision.CaptureRegion(reg.X, reg.Y, reg.W, reg.H)
	if err != nil {
		return 0, err
	}
	lines, err := r.recognizer.RecognizeImage(ctx, img)
	if err != nil {
		return 0, err
	}
	for _, line := range lines {
		if ch, ok := parseChannel(line); ok {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("channel label not readable")
}

// parseChannel extracts the channel number from an OCR line
func parseChannel(line string) (int, bool) {
	m := channelPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	digits := m[1]
	if len(digits) > 1 && strings.HasSuffix(digits, "1") {
		digits = digits[:len(digits)-1]
	}
	ch, err := strconv.Atoi(digits)
	if err != nil || ch <= 0 {
		return 0, false
	}
	return ch, true
}

// ensureChannel1 switches to channel 1 when the current channel differs
func (r *BossRunner) ensureChannel1(ctx context.Context, pos *calibration.BossPositions, rect window.Rect) error {
	ch, err := r.readChannel(ctx, pos)
	if err != nil {
		return err
	}
	if ch == 1 {
		return nil
	}

	r.logger.InfoWithFields("Switching channel", map[string]interface{}{"from": ch, "to": 1})

	opened := false
	for attempt := 0; attempt < 3; attempt++ {
		if err := r.dispatcher.Click(pos.ChannelButton.X, pos.ChannelButton.Y, 4); err != nil {
			return err
		}
		if !r.pause(ctx, 800*time.Millisecond) {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
		m := pos.ChannelModal
		bright, err := r.vision.BrightRegion(m.X, m.Y, m.W, m.H, modalBright)
		if err != nil {
			return err
		}
		if bright {
			opened = true
			break
		}
	}
	if !opened {
		return fmt.Errorf("channel popup did not open")
	}

	if err := r.dispatcher.Click(pos.Ch1Button.X, pos.Ch1Button.Y, 4); err != nil {
		return err
	}
	if !r.pause(ctx, 2*time.Second) {
		return ctx.Err()
	}
	return r.waitLoading(ctx, rect)
}

// openPanel opens the boss panel and scrolls the list back to the top
func (r *BossRunner) openPanel(ctx context.Context, pos *calibration.BossPositions) error {
	opened := false
	for attempt := 0; attempt < 3; attempt++ {
		if err := r.dispatcher.Click(pos.PanelButton.X, pos.PanelButton.Y, 4); err != nil {
			return err
		}
		if !r.pause(ctx, time.Second) {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
		h := pos.PanelHeader
		bright, err := r.vision.BrightRegion(h.X, h.Y, h.W, h.H, panelBright)
		if err != nil {
			return err
		}
		if bright {
			opened = true
			break
		}
	}
	if !opened {
		return fmt.Errorf("boss panel did not open")
	}

	// Two generous downward drags force the list to the top regardless
	// of where a previous session left it
	for i := 0; i < 2; i++ {
		drag := pos.CardDragPoint(1)
		if err := r.dispatcher.DragVertical(drag.X, drag.Y, pos.ScrollDistance); err != nil {
			return err
		}
		if !r.pause(ctx, 500*time.Millisecond) {
			return ctx.Err()
		}
	}
	r.vision.InvalidateCache()
	return nil
}

// closePanel clicks the close button; failures are logged only, the next
// cycle's loading guard recovers from a stuck panel.
func (r *BossRunner) closePanel(pos *calibration.BossPositions) {
	if err := r.dispatcher.Click(pos.PanelClose.X, pos.PanelClose.Y, 4); err != nil {
		r.logger.WarnWithFields("Panel close click failed",
			map[string]interface{}{"error": err.Error()})
	}
	r.vision.InvalidateCache()
}

// scanStatus walks both tabs looking for a selected boss with a ready
// marker. Countdown rows update the spawn timer table as a side effect.
func (r *BossRunner) scanStatus(ctx context.Context, pos *calibration.BossPositions) (string, int, string, bool, error) {
	tabs := []struct {
		name  string
		click calibration.XY
	}{
		{"mvp", pos.MVPTab},
		{"mini", pos.MiniTab},
	}

	for _, tab := range tabs {
		if err := r.dispatcher.Click(tab.click.X, tab.click.Y, 4); err != nil {
			return "", 0, "", false, err
		}
		if !r.pause(ctx, 700*time.Millisecond) {
			return "", 0, "", false, ctx.Err()
		}
		r.vision.InvalidateCache()

		for page := 0; page < 2; page++ {
			if page == 1 {
				// Second page: one upward drag
				drag := pos.CardDragPoint(1)
				if err := r.dispatcher.DragVertical(drag.X, drag.Y, -pos.ScrollDistance); err != nil {
					return "", 0, "", false, err
				}
				if !r.pause(ctx, 600*time.Millisecond) {
					return "", 0, "", false, ctx.Err()
				}
				r.vision.InvalidateCache()
			}

			for row := 0; row < calibration.VisibleBossRows; row++ {
				if ctx.Err() != nil {
					return "", 0, "", false, ctx.Err()
				}
				boss, ready, err := r.scanRow(ctx, pos, row)
				if err != nil {
					continue // a single unreadable row never aborts the scan
				}
				if ready {
					r.bus.Publish(events.NewBossSpottedEvent(boss, row, page+1))
					r.logger.InfoWithFields("Boss ready",
						map[string]interface{}{"boss": boss, "row": row, "page": page + 1, "tab": tab.name})
					return boss, row, tab.name, true, nil
				}
			}
		}
	}
	return "", 0, "", false, nil
}

// scanRow OCRs one visible row. Returns the matched selected boss and
// whether its ready marker is present.
func (r *BossRunner) scanRow(ctx context.Context, pos *calibration.BossPositions, row int) (string, bool, error) {
	reg := pos.RowRegion(row)
	img, err := r.vision.CaptureRegion(reg.X, reg.Y, reg.W, reg.H)
	if err != nil {
		return "", false, err
	}
	lines, err := r.recognizer.RecognizeImage(ctx, img)
	if err != nil {
		return "", false, err
	}

	rowText := normalizeName(strings.Join(lines, " "))
	boss := matchRoster(rowText)
	if boss == "" || !r.selected[normalizeName(boss)] {
		return "", false, nil
	}

	if r.rowReady(rowText) {
		return boss, true, nil
	}

	if timer, ok := findRowCountdown(lines); ok {
		r.mu.Lock()
		r.timers[boss] = timer
		r.mu.Unlock()
		r.bus.Publish(events.NewBossTimerEvent(boss, timer))
	}
	return boss, false, nil
}

// clickGo presses the Go button aligned with the found row and verifies
// the panel closed.
func (r *BossRunner) clickGo(ctx context.Context, pos *calibration.BossPositions) error {
	calibRow := 0
	if pos.RowHeight > 0 {
		calibRow = (pos.GoButton.Y - pos.FirstRow.Y) / pos.RowHeight
	}
	goY := pos.GoButton.Y + (r.targetRow-calibRow)*pos.RowHeight

	if err := r.dispatcher.Click(pos.GoButton.X, goY, 4); err != nil {
		return err
	}
	if !r.pause(ctx, time.Second) {
		return ctx.Err()
	}
	r.vision.InvalidateCache()

	h := pos.PanelHeader
	stillOpen, err := r.vision.BrightRegion(h.X, h.Y, h.W, h.H, panelBright)
	if err == nil && stillOpen {
		r.closePanel(pos)
	}
	return nil
}

// travel waits for the loading screen transition and then watches the
// minimap until the position stabilizes.
func (r *BossRunner) travel(ctx context.Context, pos *calibration.BossPositions, rect window.Rect) error {
	// The loading screen may take a while to appear after Go
	appearBy := time.Now().Add(loadingAppearWait)
	for time.Now().Before(appearBy) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
		brightness, err := r.centerBrightness(rect)
		if err != nil {
			return err
		}
		if brightness < loadingDark {
			break
		}
		if !r.pause(ctx, 500*time.Millisecond) {
			return ctx.Err()
		}
	}
	if err := r.waitLoading(ctx, rect); err != nil {
		return err
	}
	if err := r.ensureChannel1(ctx, pos, rect); err != nil {
		return err
	}
	return r.watchArrival(ctx, pos)
}

// watchArrival polls the minimap until it stops changing: travel is done
// when the view holds still for the stability window.
func (r *BossRunner) watchArrival(ctx context.Context, pos *calibration.BossPositions) error {
	m := pos.MinimapProbe

	open, err := r.vision.BrightRegion(m.X, m.Y, m.W, m.H, minimapBright)
	if err != nil {
		return err
	}
	if !open {
		if err := r.dispatcher.Click(pos.MinimapButton.X, pos.MinimapButton.Y, 4); err != nil {
			return err
		}
		if !r.pause(ctx, 800*time.Millisecond) {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
	}

	prev, err := r.vision.CaptureRegion(m.X, m.Y, m.W, m.H)
	if err != nil {
		return err
	}

	stableSince := time.Now()
	deadline := time.Now().Add(arrivalCap)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			r.logger.Warn("Arrival watch hit the travel cap, proceeding")
			break
		}
		if !r.pause(ctx, arrivalPoll) {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
		cur, err := r.vision.CaptureRegion(m.X, m.Y, m.W, m.H)
		if err != nil {
			return err
		}
		if vision.DiffPercent(prev, cur) > arrivalDiffPct {
			stableSince = time.Now()
		} else if time.Since(stableSince) >= arrivalStable {
			break
		}
		prev = cur
	}

	// Close the minimap again, one retry
	for attempt := 0; attempt < 2; attempt++ {
		if err := r.dispatcher.Click(pos.MinimapButton.X, pos.MinimapButton.Y, 4); err != nil {
			return err
		}
		if !r.pause(ctx, 600*time.Millisecond) {
			return ctx.Err()
		}
		r.vision.InvalidateCache()
		open, err := r.vision.BrightRegion(m.X, m.Y, m.W, m.H, minimapBright)
		if err != nil || !open {
			break
		}
	}
	return nil
}

// startAttack opens the auto-attack dropdown and clicks the row matching
// the target boss. No row matched means no click at all.
func (r *BossRunner) startAttack(ctx context.Context, pos *calibration.BossPositions, target string) error {
	if err := r.dispatcher.Click(pos.AutoAttackToggle.X, pos.AutoAttackToggle.Y, 4); err != nil {
		return err
	}
	if !r.pause(ctx, 800*time.Millisecond) {
		return ctx.Err()
	}
	r.vision.InvalidateCache()

	for row := 0; row < calibration.MonsterMaxEntries; row++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		reg := pos.MonsterRowRegion(row)
		img, err := r.vision.CaptureRegion(reg.X, reg.Y, reg.W, reg.H)
		if err != nil {
			continue
		}
		lines, err := r.recognizer.RecognizeImage(ctx, img)
		if err != nil {
			continue
		}
		entry := strings.Join(lines, " ")
		if isBlacklisted(entry) {
			continue
		}
		if matchesMonster(entry, target) {
			click := pos.MonsterRowClick(row)
			return r.dispatcher.Click(click.X, click.Y, 4)
		}
	}

	r.logger.WarnWithFields("Target not in the monster list, not attacking",
		map[string]interface{}{"boss": target})
	return nil
}

// fight waits for the fight to end: either the player dies or the cap
// expires, which is taken to mean the boss is down.
func (r *BossRunner) fight(ctx context.Context, pos *calibration.BossPositions, rect window.Rect) (bool, error) {
	deadline := time.Now().Add(r.fightCap)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if !r.pause(ctx, deathPoll) {
			return false, ctx.Err()
		}
		r.vision.InvalidateCache()

		dead, err := r.isDead(ctx, pos, rect)
		if err != nil {
			continue
		}
		if dead {
			r.mu.Lock()
			r.deaths++
			deaths := r.deaths
			r.mu.Unlock()
			r.bus.Publish(events.NewPlayerDiedEvent(deaths))
			r.logger.WarnWithFields("Player died", map[string]interface{}{"deaths": deaths})
			return true, nil
		}
	}
	return false, nil
}

// isDead probes the resurrect button text, falling back to the dimmed
// screen check.
func (r *BossRunner) isDead(ctx context.Context, pos *calibration.BossPositions, rect window.Rect) (bool, error) {
	reg := pos.ResurrectRead
	img, err := r.vision.CaptureRegion(reg.X, reg.Y, reg.W, reg.H)
	if err == nil {
		lines, rerr := r.recognizer.RecognizeImage(ctx, img)
		if rerr == nil {
			for _, line := range lines {
				lower := strings.ToLower(line)
				if strings.Contains(lower, "resurrect") || strings.Contains(lower, "revive") {
					return true, nil
				}
			}
		}
	}

	brightness, err := r.centerBrightness(rect)
	if err != nil {
		return false, err
	}
	return brightness < deathDark && brightness >= loadingDark, nil
}

// resurrect clicks the resurrect button and verifies the death overlay
// cleared, one retry.
func (r *BossRunner) resurrect(ctx context.Context, pos *calibration.BossPositions) error {
	if !r.pause(ctx, resurrectPause) {
		return ctx.Err()
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := r.dispatcher.Click(pos.ResurrectButton.X, pos.ResurrectButton.Y, 4); err != nil {
			return err
		}
		if !r.pause(ctx, 2*time.Second) {
			return ctx.Err()
		}
		r.vision.InvalidateCache()

		rect := r.lastRect
		dead, err := r.isDead(ctx, pos, rect)
		if err == nil && !dead {
			return nil
		}
	}
	return fmt.Errorf("resurrect did not clear the death overlay")
}

// normalizeName lowercases and strips everything but letters and digits
// so OCR spacing noise cannot break a roster match.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchRoster finds which roster boss a normalized row mentions
func matchRoster(rowText string) string {
	for _, roster := range [][]string{MVPBosses, MiniBosses} {
		for _, boss := range roster {
			if strings.Contains(rowText, normalizeName(boss)) {
				return boss
			}
		}
	}
	return ""
}

// matchesMonster accepts a dropdown entry for the target on a full match
// or when every word of the target appears in the entry.
func matchesMonster(entry, target string) bool {
	normEntry := normalizeName(entry)
	if normEntry == "" {
		return false
	}
	if strings.Contains(normEntry, normalizeName(target)) {
		return true
	}
	words := strings.Fields(strings.ToLower(target))
	if len(words) < 2 {
		return false
	}
	for _, word := range words {
		if !strings.Contains(normEntry, normalizeName(word)) {
			return false
		}
	}
	return true
}

// isBlacklisted rejects dropdown entries that target everything at once
func isBlacklisted(entry string) bool {
	norm := normalizeName(entry)
	for _, banned := range monsterBlacklist {
		if strings.Contains(norm, banned) {
			return true
		}
	}
	return false
}

// findRowCountdown locates an h:mm:ss or mm:ss countdown in a row's lines
func findRowCountdown(lines []string) (string, bool) {
	for _, line := range lines {
		for _, field := range strings.Fields(line) {
			if _, ok := parseCountdown(field); ok {
				return field, true
			}
		}
	}
	return "", false
}
