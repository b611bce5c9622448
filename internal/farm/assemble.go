package farm

import (
	"time"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/config"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/ocr"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

// Assembly is a fully wired engine plus handles to the runners that
// expose extra state to the UIs.
type Assembly struct {
	Engine *Engine
	Garden *GardenRunner
	Boss   *BossRunner
	Solver *CaptchaSolver
}

// AssembleDeps are the shared services the runners are built on
type AssembleDeps struct {
	Vision     *vision.Service
	Recognizer ocr.Recognizer
	Dispatcher input.Dispatcher
	Finder     window.Finder
	Store      *calibration.Store
	Bus        events.EventBus
	Recorder   Recorder
	Alerter    Alerter
}

// Assemble builds the engine and registers every enabled task from the
// configuration. Disabled tasks are registered too so the GUI can toggle
// them without a rebuild.
func Assemble(settings *config.Settings, tasks *config.Tasks, deps AssembleDeps) (*Assembly, error) {
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}
	if deps.Alerter == nil {
		deps.Alerter = NopAlerter{}
	}

	engine := NewEngine(deps.Bus,
		WithRecorder(deps.Recorder),
		WithAlerter(deps.Alerter),
	)

	minPoll := time.Duration(settings.MinPollSeconds) * time.Second
	shortRetry := time.Duration(settings.ShortRetrySeconds) * time.Second

	a := &Assembly{Engine: engine}

	a.Solver = NewCaptchaSolver(deps.Vision, deps.Recognizer, deps.Dispatcher, deps.Bus, deps.Recorder).
		WithAlerter(deps.Alerter)
	a.Garden = NewGardenRunner(deps.Vision, deps.Dispatcher, deps.Finder,
		deps.Store, a.Solver, deps.Bus, settings.GardenRefPath)

	err := engine.Register(&Task{
		Name:         "garden",
		Runner:       a.Garden,
		Interval:     orDefault(tasks.Garden.Interval.Std(), 3*time.Second),
		JitterPct:    tasks.Garden.JitterPercent,
		ShortRetry:   shortRetry,
		MinPoll:      minPoll,
		UnknownLimit: settings.UnknownLimit,
		Enabled:      tasks.Garden.Enabled,
	})
	if err != nil {
		return nil, err
	}

	a.Boss = NewBossRunner(deps.Vision, deps.Dispatcher, deps.Recognizer,
		deps.Finder, deps.Store, deps.Bus,
		tasks.Boss.SelectedMVPs, tasks.Boss.SelectedMinis,
		tasks.Boss.FightTimeout.Std()).
		WithReadyTokens(tasks.Boss.ReadyTokens)

	err = engine.Register(&Task{
		Name:         "boss_hunt",
		Runner:       a.Boss,
		Interval:     orDefault(tasks.Boss.CheckInterval.Std(), time.Minute),
		ShortRetry:   shortRetry,
		MinPoll:      minPoll,
		UnknownLimit: settings.UnknownLimit,
		Enabled:      tasks.Boss.Enabled,
	})
	if err != nil {
		return nil, err
	}

	for _, tt := range tasks.TextTasks {
		runner := NewTextRunner(deps.Vision, deps.Recognizer, deps.Dispatcher,
			deps.Finder, deps.Store, tt.Region, tt.Click, tt.ReadyTokens, tt.IdleTokens)
		err := engine.Register(&Task{
			Name:         tt.Name,
			Runner:       runner,
			Interval:     orDefault(tt.Interval.Std(), time.Minute),
			ShortRetry:   shortRetry,
			MinPoll:      minPoll,
			UnknownLimit: settings.UnknownLimit,
			Enabled:      tt.Enabled,
		})
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

// orDefault guards registration against zeroed intervals on disabled tasks
func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
