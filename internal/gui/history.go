package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// HistoryTab shows recent runs and task events from the history store
type HistoryTab struct {
	controller *Controller

	runsLbl   *widget.Label
	eventsLbl *widget.Label
}

// NewHistoryTab creates the history tab
func NewHistoryTab(ctrl *Controller) *HistoryTab {
	return &HistoryTab{controller: ctrl}
}

// Build constructs the history pane
func (h *HistoryTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Recent History", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	h.runsLbl = widget.NewLabel("")
	h.eventsLbl = widget.NewLabel("")

	refreshBtn := widget.NewButton("Refresh", h.refresh)
	h.refresh()

	return container.NewVScroll(container.NewVBox(
		container.NewHBox(header, refreshBtn),
		widget.NewLabelWithStyle("Runs", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		h.runsLbl,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Task Events", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		h.eventsLbl,
	))
}

func (h *HistoryTab) refresh() {
	store := h.controller.deps.History
	if store == nil {
		h.runsLbl.SetText("History is disabled")
		h.eventsLbl.SetText("")
		return
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		h.runsLbl.SetText(fmt.Sprintf("error: %v", err))
	} else {
		text := ""
		for _, run := range runs {
			stopped := "running"
			if run.StoppedAt != nil {
				stopped = run.StoppedAt.Format("15:04:05")
			}
			text += fmt.Sprintf("#%d %s  %s -> %s  %s\n",
				run.ID, run.Mode, run.StartedAt.Format("01-02 15:04:05"), stopped, run.Outcome)
		}
		if text == "" {
			text = "No runs recorded"
		}
		h.runsLbl.SetText(text)
	}

	taskEvents, err := store.RecentTaskEvents(30)
	if err != nil {
		h.eventsLbl.SetText(fmt.Sprintf("error: %v", err))
		return
	}
	text := ""
	for _, event := range taskEvents {
		text += fmt.Sprintf("%s  %s  %s  %s\n",
			event.ObservedAt.Format("15:04:05"), event.Task, event.State, event.Detail)
	}
	if text == "" {
		text = "No events recorded"
	}
	h.eventsLbl.SetText(text)
}
