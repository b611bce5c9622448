package gui

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/kellerith/rox-farm-go/internal/config"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/farm"
	"github.com/kellerith/rox-farm-go/internal/history"
	"github.com/kellerith/rox-farm-go/internal/logging"
)

// Session is one wired engine run with its introspection handles
type Session struct {
	Engine *farm.Engine
	Boss   *farm.BossRunner    // nil when boss farming is disabled
	Solver *farm.CaptchaSolver // nil when the garden task is disabled
}

// Deps bundles everything the GUI needs from the wiring layer. The
// engine is rebuilt per start so edited selections take effect.
type Deps struct {
	Settings    *config.Settings
	Tasks       *config.Tasks
	TasksPath   string
	LogBuffer   *logging.RingBuffer
	Bus         events.EventBus
	History     *history.Store // may be nil when history is disabled
	Preflight   func() error   // OS grant check, runs before every start
	BuildEngine func(tasks *config.Tasks) (*Session, error)
}

// Controller manages the GUI state and the running engine session
type Controller struct {
	deps   Deps
	app    fyne.App
	window fyne.Window

	mu      sync.RWMutex
	session *Session

	dashboard  *DashboardTab
	bossTab    *BossTab
	logTab     *LogTab
	historyTab *HistoryTab

	contentArea *fyne.Container
	currentTab  int
}

// NewController creates a new GUI controller
func NewController(deps Deps, app fyne.App, window fyne.Window) *Controller {
	ctrl := &Controller{
		deps:   deps,
		app:    app,
		window: window,
	}

	ctrl.dashboard = NewDashboardTab(ctrl)
	ctrl.bossTab = NewBossTab(ctrl)
	ctrl.logTab = NewLogTab(ctrl)
	ctrl.historyTab = NewHistoryTab(ctrl)

	return ctrl
}

// BuildUI constructs the main UI with horizontal tabs
func (c *Controller) BuildUI() fyne.CanvasObject {
	tabButtons := container.NewHBox(
		widget.NewButton("Dashboard", func() { c.switchTab(0) }),
		widget.NewButton("Tasks", func() { c.switchTab(1) }),
		widget.NewButton("Log", func() { c.switchTab(2) }),
		widget.NewButton("History", func() { c.switchTab(3) }),
	)

	c.contentArea = container.NewStack(
		c.dashboard.Build(),
		c.bossTab.Build(),
		c.logTab.Build(),
		c.historyTab.Build(),
	)

	c.showTab(0)

	return container.NewBorder(tabButtons, nil, nil, nil, c.contentArea)
}

func (c *Controller) switchTab(tabIndex int) {
	c.mu.Lock()
	c.currentTab = tabIndex
	c.mu.Unlock()
	c.showTab(tabIndex)
}

func (c *Controller) showTab(tabIndex int) {
	for i, obj := range c.contentArea.Objects {
		if i == tabIndex {
			obj.Show()
		} else {
			obj.Hide()
		}
	}
	c.contentArea.Refresh()
}

// StartEngine builds a fresh session from the current task config and
// starts it.
func (c *Controller) StartEngine() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.Engine.IsRunning() {
		return fmt.Errorf("engine already running")
	}

	if c.deps.Preflight != nil {
		if err := c.deps.Preflight(); err != nil {
			return fmt.Errorf("preflight failed: %w", err)
		}
	}

	session, err := c.deps.BuildEngine(c.deps.Tasks)
	if err != nil {
		return err
	}
	if c.deps.History != nil {
		// History must never block a run
		_ = c.deps.History.StartRun("gui")
	}
	if err := session.Engine.Start(context.Background()); err != nil {
		return err
	}
	c.session = session
	return nil
}

// StopEngine halts the running session
func (c *Controller) StopEngine() {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return
	}
	session.Engine.Stop()
	if c.deps.History != nil {
		if err := c.deps.History.FinishRun("stopped"); err != nil {
			c.ShowError(err)
		}
	}
}

// Session returns the current engine session, nil when never started
func (c *Controller) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Running reports whether an engine session is active
func (c *Controller) Running() bool {
	s := c.Session()
	return s != nil && s.Engine.IsRunning()
}

// SaveTasks persists the task configuration to disk
func (c *Controller) SaveTasks() error {
	if err := c.deps.Tasks.Validate(); err != nil {
		return err
	}
	return config.SaveTasks(c.deps.Tasks, c.deps.TasksPath)
}

// ShowError pops an error dialog on the main window
func (c *Controller) ShowError(err error) {
	dialog.ShowError(err, c.window)
}

// Shutdown stops the engine and background refreshers before exit
func (c *Controller) Shutdown() {
	c.StopEngine()
	c.dashboard.Stop()
	c.logTab.Stop()
}
