package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/go-vgo/robotgo"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/config"
	"github.com/kellerith/rox-farm-go/internal/vision"
	"github.com/kellerith/rox-farm-go/internal/window"
)

// runCalibrate walks the operator through the anchor list: hover the mouse
// over each named element, press Enter, and the cursor position is stored
// as a window-relative offset. Re-running a walk overwrites only its own
// anchors, so garden and boss can be calibrated independently.
func runCalibrate(settings *config.Settings, args []string) {
	which := "all"
	if len(args) > 0 {
		which = args[0]
	}

	var steps []calibration.Step
	switch which {
	case "garden":
		steps = calibration.GardenSteps
	case "boss":
		steps = calibration.BossSteps
	case "text":
		steps = textTaskSteps(settings)
	case "all":
		steps = append(steps, calibration.GardenSteps...)
		steps = append(steps, calibration.BossSteps...)
		steps = append(steps, textTaskSteps(settings)...)
	default:
		log.Fatalf("Unknown calibration target %q (want garden, boss, text or all)", which)
	}
	if len(steps) == 0 {
		log.Fatalf("Nothing to calibrate for target %q", which)
	}

	rect, err := newFinder(settings).Find()
	if err != nil {
		log.Fatalf("Game window not found: %v", err)
	}

	fmt.Printf("Game window: %s\n", rect.String())
	fmt.Println("Bring the game to the front and open the dialogs as prompted.")
	if which != "boss" {
		fmt.Println("The garden anchors need a CAPTCHA dialog on screen for the numpad.")
	}
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	points := make([]calibration.Point, 0, len(steps))
	for i, step := range steps {
		var p calibration.Point
		if step.Kind == calibration.KindTextRegion {
			fmt.Printf("[%2d/%d] Hover over the TOP-LEFT corner of %s, then press Enter: ", i+1, len(steps), step.Description)
			if _, err := reader.ReadString('\n'); err != nil {
				log.Fatalf("Calibration aborted: %v", err)
			}
			x1, y1 := robotgo.Location()
			fmt.Print("        now hover over the BOTTOM-RIGHT corner, then press Enter: ")
			if _, err := reader.ReadString('\n'); err != nil {
				log.Fatalf("Calibration aborted: %v", err)
			}
			x2, y2 := robotgo.Location()
			p = calibration.RegionFromCorners(step.Name, x1-rect.X, y1-rect.Y, x2-rect.X, y2-rect.Y)
			points = append(points, p)
			fmt.Printf("        recorded %dx%d region at window offset (%d, %d)\n", p.W, p.H, p.X, p.Y)
			continue
		}

		fmt.Printf("[%2d/%d] Hover over %s, then press Enter: ", i+1, len(steps), step.Description)
		if _, err := reader.ReadString('\n'); err != nil {
			log.Fatalf("Calibration aborted: %v", err)
		}
		x, y := robotgo.Location()
		p = calibration.Point{
			Name: step.Name,
			Kind: calibration.KindClick,
			X:    x - rect.X,
			Y:    y - rect.Y,
		}
		points = append(points, p)
		fmt.Printf("        recorded at window offset (%d, %d)\n", p.X, p.Y)
	}

	store := calibration.NewStore(settings.CalibrationPath)
	if err := store.SaveAll(points); err != nil {
		log.Fatalf("Failed to save calibration: %v", err)
	}
	fmt.Printf("Saved %d anchors to %s\n", len(points), store.Path())

	if which == "garden" || which == "all" {
		captureGardenReference(settings, rect, points)
	}
}

// textTaskSteps derives calibration prompts from the configured text
// tasks so their anchors can be recorded without hand-editing the file.
func textTaskSteps(settings *config.Settings) []calibration.Step {
	tasks, err := config.LoadTasks(settings.TasksPath)
	if err != nil {
		log.Printf("Warning: cannot read %s, skipping text task anchors: %v", settings.TasksPath, err)
		return nil
	}
	var steps []calibration.Step
	for _, tt := range tasks.TextTasks {
		steps = append(steps, calibration.TextTaskSteps(tt.Name, tt.Region, tt.Click)...)
	}
	return steps
}

// captureGardenReference snapshots the patch around the garden button in
// its ready state. The garden poll compares against this image to decide
// whether the button is on screen.
func captureGardenReference(settings *config.Settings, rect window.Rect, points []calibration.Point) {
	var garden *calibration.Point
	for i := range points {
		if points[i].Name == calibration.PointGardenButton {
			garden = &points[i]
			break
		}
	}
	if garden == nil {
		return
	}

	fmt.Print("Close any dialogs so the garden button is visible, then press Enter: ")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		log.Fatalf("Calibration aborted: %v", err)
	}

	abs := garden.ResolveClick(rect.X, rect.Y)
	half := calibration.GardenPatchSize / 2
	svc := vision.NewService(vision.NewScreenCapturer())
	img, err := svc.CaptureRegion(abs.X-half, abs.Y-half, calibration.GardenPatchSize, calibration.GardenPatchSize)
	if err != nil {
		log.Fatalf("Failed to capture garden reference: %v", err)
	}
	if err := vision.SaveReference(settings.GardenRefPath, img); err != nil {
		log.Fatalf("Failed to save garden reference: %v", err)
	}
	fmt.Printf("Saved garden reference patch to %s\n", settings.GardenRefPath)
}
