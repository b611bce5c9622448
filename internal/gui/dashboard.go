package gui

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// DashboardTab shows engine controls and live per-task status
type DashboardTab struct {
	controller *Controller

	startBtn  *widget.Button
	stopBtn   *widget.Button
	statusLbl *widget.Label
	taskList  *widget.Label
	timerList *widget.Label

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDashboardTab creates the dashboard tab
func NewDashboardTab(ctrl *Controller) *DashboardTab {
	return &DashboardTab{
		controller: ctrl,
		stopCh:     make(chan struct{}),
	}
}

// Build constructs the dashboard UI and starts the refresh loop
func (d *DashboardTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Farm Control", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	d.statusLbl = widget.NewLabel("Stopped")
	d.taskList = widget.NewLabel("No tasks polled yet")
	d.timerList = widget.NewLabel("")

	d.startBtn = widget.NewButton("Start", func() {
		if err := d.controller.StartEngine(); err != nil {
			d.controller.ShowError(err)
			return
		}
		d.refresh()
	})
	d.stopBtn = widget.NewButton("Stop", func() {
		d.controller.StopEngine()
		d.refresh()
	})

	resetBtn := widget.NewButton("Reset Degraded", func() {
		session := d.controller.Session()
		if session == nil {
			return
		}
		for _, status := range session.Engine.Statuses() {
			if status.Degraded {
				if err := session.Engine.Reset(status.Name); err != nil {
					d.controller.ShowError(err)
				}
			}
		}
		d.refresh()
	})

	go d.refreshLoop()

	controls := container.NewHBox(d.startBtn, d.stopBtn, resetBtn)
	return container.NewVBox(
		header,
		controls,
		d.statusLbl,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Tasks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		d.taskList,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Boss Timers", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		d.timerList,
	)
}

// Stop halts the background refresh loop
func (d *DashboardTab) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

func (d *DashboardTab) refreshLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			fyne.Do(d.refresh)
		}
	}
}

// refresh repaints the status labels; must run on the UI thread
func (d *DashboardTab) refresh() {
	session := d.controller.Session()

	if d.controller.Running() {
		d.statusLbl.SetText("Running")
	} else {
		d.statusLbl.SetText("Stopped")
	}

	if session == nil {
		return
	}

	var taskText string
	for _, status := range session.Engine.Statuses() {
		line := fmt.Sprintf("%s: %s", status.Name, status.LastState)
		if !status.Enabled {
			line = fmt.Sprintf("%s: disabled", status.Name)
		} else if status.Degraded {
			line += fmt.Sprintf(" [DEGRADED x%d]", status.ConsecutiveUnknown)
		} else if !status.NextDue.IsZero() {
			line += fmt.Sprintf(" (next %s)", status.NextDue.Format("15:04:05"))
		}
		if status.Actions > 0 {
			line += fmt.Sprintf(" actions=%d", status.Actions)
		}
		taskText += line + "\n"
	}
	if taskText == "" {
		taskText = "No tasks polled yet"
	}
	d.taskList.SetText(taskText)

	if session.Boss != nil {
		timers := session.Boss.SpawnTimers()
		names := make([]string, 0, len(timers))
		for name := range timers {
			names = append(names, name)
		}
		sort.Strings(names)

		var timerText string
		for _, name := range names {
			timerText += fmt.Sprintf("%s: %s\n", name, timers[name])
		}
		if deaths := session.Boss.Deaths(); deaths > 0 {
			timerText += fmt.Sprintf("deaths this run: %d\n", deaths)
		}
		d.timerList.SetText(timerText)
	}
	if session.Solver != nil {
		d.statusLbl.SetText(fmt.Sprintf("%s | captchas solved: %d",
			d.statusLbl.Text, session.Solver.SolvedCount()))
	}
}
