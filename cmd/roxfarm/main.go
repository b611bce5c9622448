package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/config"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/farm"
	"github.com/kellerith/rox-farm-go/internal/history"
	"github.com/kellerith/rox-farm-go/internal/input"
	"github.com/kellerith/rox-farm-go/internal/logging"
	"github.com/kellerith/rox-farm-go/internal/monitor"
	"github.com/kellerith/rox-farm-go/internal/ocr"
	"github.com/kellerith/rox-farm-go/internal/permissions"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: roxfarm [flags] <command>

Commands:
  calibrate [garden|boss|text]  Record screen anchors for the farming tasks
  window                   Report window detection and permission status
  test                     Poll every task once without clicking anything
  run                      Start the farming loop

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "Settings.ini", "Path to settings file")
	windowRect := flag.String("window", "", `Manual window rect "x,y,w,h" (overrides auto-detection)`)
	flag.Usage = usage
	flag.Parse()

	settings := loadSettings(*configPath)
	if *windowRect != "" {
		settings.WindowOverride = *windowRect
	}

	level := logging.ParseLevel(settings.LogLevel)
	if settings.VerboseLogging {
		level = logging.LogLevelDebug
	}
	logging.SetDefaultLevel(level)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "calibrate":
		runCalibrate(settings, args[1:])
	case "window":
		runWindow(settings)
	case "test":
		runTest(settings)
	case "run":
		runFarm(settings)
	default:
		log.Fatalf("Unknown command %q", args[0])
	}
}

func loadSettings(path string) *config.Settings {
	settings, err := config.LoadSettings(path)
	if err != nil {
		log.Printf("Warning: failed to load %s, using defaults: %v", path, err)
		return config.NewDefaultSettings()
	}
	return settings
}

func loadTasks(settings *config.Settings) *config.Tasks {
	tasks, err := config.LoadTasks(settings.TasksPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", settings.TasksPath, err)
	}
	if err := tasks.Validate(); err != nil {
		log.Fatalf("Invalid task configuration: %v", err)
	}
	return tasks
}

func newFinder(settings *config.Settings) window.Finder {
	if settings.WindowOverride != "" {
		rect, err := window.ParseRect(settings.WindowOverride)
		if err != nil {
			log.Fatalf("Invalid window override %q: %v", settings.WindowOverride, err)
		}
		return window.NewFixedFinder(rect)
	}
	return window.NewProcessFinder(settings.GameWindowMatch)
}

func buildDeps(settings *config.Settings, dispatcher input.Dispatcher, bus events.EventBus) farm.AssembleDeps {
	return farm.AssembleDeps{
		Vision:     vision.NewService(vision.NewScreenCapturer()),
		Recognizer: ocr.NewEngine(settings.OCRHelperPath, time.Duration(settings.OCRTimeoutSeconds)*time.Second),
		Dispatcher: dispatcher,
		Finder:     newFinder(settings),
		Store:      calibration.NewStore(settings.CalibrationPath),
		Bus:        bus,
	}
}

// runWindow reports everything the other commands depend on: capture and
// input permissions, the game process, the resolved window rect and the
// calibration state.
func runWindow(settings *config.Settings) {
	capturer := vision.NewScreenCapturer()

	report := func(name string, err error) {
		if err != nil {
			fmt.Printf("  %-18s FAIL  %v\n", name, err)
			return
		}
		fmt.Printf("  %-18s ok\n", name)
	}

	fmt.Println("Permissions:")
	report("screen capture", permissions.CheckScreenCapture(capturer))
	report("synthetic input", permissions.CheckSyntheticInput())
	report("game process", permissions.CheckGameRunning(settings.GameWindowMatch))

	fmt.Println("Window:")
	rect, err := newFinder(settings).Find()
	if err != nil {
		fmt.Printf("  not found: %v\n", err)
		return
	}
	fmt.Printf("  %s\n", rect.String())

	store := calibration.NewStore(settings.CalibrationPath)
	points, err := store.LoadAll()
	if err != nil {
		fmt.Printf("Calibration: failed to read %s: %v\n", store.Path(), err)
		return
	}

	fmt.Printf("Calibration (%s, %d anchors):\n", store.Path(), len(points))
	names := make([]string, 0, len(points))
	for name := range points {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := points[name]
		abs := p.ResolveClick(rect.X, rect.Y)
		fmt.Printf("  %-24s offset (%4d,%4d)  screen (%4d,%4d)\n", name, p.X, p.Y, abs.X, abs.Y)
	}
	if _, err := calibration.GardenFrom(points); err != nil {
		fmt.Printf("  garden  incomplete: %v\n", err)
	} else {
		fmt.Println("  garden  ok")
	}
	if _, err := calibration.BossFrom(points); err != nil {
		fmt.Printf("  boss    incomplete: %v\n", err)
	} else {
		fmt.Println("  boss    ok")
	}
}

// runTest polls every configured task once against the live screen and
// prints what the run command would have clicked, without clicking.
func runTest(settings *config.Settings) {
	capturer := vision.NewScreenCapturer()
	if err := permissions.Preflight(capturer, settings.GameWindowMatch); err != nil {
		log.Printf("Warning: preflight failed, results may be empty: %v", err)
	}

	tasks := loadTasks(settings)
	bus := events.NewEventBus(64)
	defer bus.Stop()

	dry := input.NewDryRunDispatcher()
	assembly, err := farm.Assemble(settings, tasks, buildDeps(settings, dry, bus))
	if err != nil {
		log.Fatalf("Failed to assemble tasks: %v", err)
	}

	statuses, err := assembly.Engine.RunOnce(context.Background())
	if err != nil {
		log.Fatalf("Test poll failed: %v", err)
	}

	fmt.Println("Task results:")
	for _, s := range statuses {
		if !s.Enabled {
			fmt.Printf("  %-12s disabled\n", s.Name)
			continue
		}
		line := ""
		if s.LastLine != "" {
			line = fmt.Sprintf("  %q", s.LastLine)
		}
		fmt.Printf("  %-12s %s%s\n", s.Name, s.LastState, line)
	}

	actions := dry.Actions()
	fmt.Printf("Suppressed actions (%d):\n", len(actions))
	for _, a := range actions {
		fmt.Printf("  %+v\n", a)
	}
}

// runFarm is the headless farming loop. It stops cleanly on SIGINT or
// SIGTERM and records the run in the history database.
func runFarm(settings *config.Settings) {
	capturer := vision.NewScreenCapturer()
	if err := permissions.Preflight(capturer, settings.GameWindowMatch); err != nil {
		log.Fatalf("Preflight failed: %v", err)
	}

	tasks := loadTasks(settings)
	bus := events.NewEventBus(64)
	defer bus.Stop()

	eventLog, err := logging.NewEventLogger(bus, settings.LogDir)
	if err != nil {
		log.Printf("Warning: event log disabled: %v", err)
	} else {
		defer eventLog.Close()
	}

	deps := buildDeps(settings, input.NewRobotDispatcher(), bus)

	var store *history.Store
	if settings.HistoryEnabled {
		store, err = history.Open(settings.HistoryDBPath)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer store.Close()
		if err := store.StartRun("cli"); err != nil {
			log.Printf("Warning: failed to record run start: %v", err)
		}
		deps.Recorder = store
	}

	var alerter *monitor.ToneAlerter
	if settings.AlertsEnabled {
		alerter = monitor.NewToneAlerter()
		deps.Alerter = alerter
	}

	assembly, err := farm.Assemble(settings, tasks, deps)
	if err != nil {
		log.Fatalf("Failed to assemble tasks: %v", err)
	}

	logger := logging.NewLogger("main")

	health := monitor.NewHealthWatcher().WithStuckCallback(func(reason string) {
		logger.Warn("Farming loop looks stuck: " + reason)
		if alerter != nil {
			alerter.Alert(reason)
		}
	})
	pollSub := bus.Subscribe(events.EventTypeTaskPolled, func(events.Event) {
		health.RecordActivity()
	})
	defer bus.Unsubscribe(pollSub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := assembly.Engine.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	health.Start()
	logger.Info("Farming loop running, press Ctrl+C to stop")

	<-ctx.Done()
	logger.Info("Shutting down")

	assembly.Engine.Stop()
	health.Stop()

	if store != nil {
		if err := store.FinishRun("stopped"); err != nil {
			log.Printf("Warning: failed to record run end: %v", err)
		}
	}
}
