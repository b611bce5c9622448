package main

import (
	"log"
	"time"

	"fyne.io/fyne/v2/app"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/config"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/farm"
	"github.com/kellerith/rox-farm-go/internal/gui"
	"github.com/kellerith/rox-farm-go/internal/history"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/logging"
	"github.com/kellerith/rox-farm-go/internal/monitor"
	"github.com/kellerith/rox-farm-go/internal/ocr"
	"github.com/kellerith/rox-farm-go/internal/permissions"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

func main() {
	settings, err := config.LoadSettings("Settings.ini")
	if err != nil {
		log.Printf("Warning: failed to load settings, using defaults: %v", err)
		settings = config.NewDefaultSettings()
	}

	// Component loggers are created during assembly, so the ring buffer
	// and level must be registered before any engine is built.
	logBuffer := logging.NewRingBuffer(500)
	logging.AddDefaultOutput(logBuffer)
	level := logging.ParseLevel(settings.LogLevel)
	if settings.VerboseLogging {
		level = logging.LogLevelDebug
	}
	logging.SetDefaultLevel(level)

	tasks, err := config.LoadTasks(settings.TasksPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", settings.TasksPath, err)
	}

	bus := events.NewEventBus(64)
	defer bus.Stop()

	var store *history.Store
	if settings.HistoryEnabled {
		store, err = history.Open(settings.HistoryDBPath)
		if err != nil {
			log.Printf("Warning: history disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	buildEngine := func(current *config.Tasks) (*gui.Session, error) {
		var finder window.Finder
		if settings.WindowOverride != "" {
			rect, err := window.ParseRect(settings.WindowOverride)
			if err != nil {
				return nil, err
			}
			finder = window.NewFixedFinder(rect)
		} else {
			finder = window.NewProcessFinder(settings.GameWindowMatch)
		}

		deps := farm.AssembleDeps{
			Vision:     vision.NewService(vision.NewScreenCapturer()),
			Recognizer: ocr.NewEngine(settings.OCRHelperPath, time.Duration(settings.OCRTimeoutSeconds)*time.Second),
			Dispatcher: input.NewRobotDispatcher(),
			Finder:     finder,
			Store:      calibration.NewStore(settings.CalibrationPath),
			Bus:        bus,
		}
		if store != nil {
			deps.Recorder = store
		}
		if settings.AlertsEnabled {
			deps.Alerter = monitor.NewToneAlerter()
		}

		assembly, err := farm.Assemble(settings, current, deps)
		if err != nil {
			return nil, err
		}
		return &gui.Session{
			Engine: assembly.Engine,
			Boss:   assembly.Boss,
			Solver: assembly.Solver,
		}, nil
	}

	myApp := app.NewWithID("com.kellerith.rox-farm-go")
	myApp.Settings().SetTheme(&gui.FarmTheme{})

	mainWindow := myApp.NewWindow("ROX Farm")
	mainWindow.Resize(gui.DefaultWindowSize)

	controller := gui.NewController(gui.Deps{
		Settings:  settings,
		Tasks:     tasks,
		TasksPath: settings.TasksPath,
		LogBuffer: logBuffer,
		Bus:       bus,
		History:   store,
		Preflight: func() error {
			return permissions.Preflight(vision.NewScreenCapturer(), settings.GameWindowMatch)
		},
		BuildEngine: buildEngine,
	}, myApp, mainWindow)

	mainWindow.SetContent(controller.BuildUI())
	mainWindow.SetMaster()
	mainWindow.ShowAndRun()

	controller.Shutdown()
}
