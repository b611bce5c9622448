package gui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/kellerith/rox-farm-go/internal/config"
	"github.com/kellerith/rox-farm-go/internal/farm"
)

// BossTab edits the task configuration: garden toggle and interval,
// boss farming toggle and per-boss selection checkboxes. Changes persist
// to the tasks file and apply on the next engine start.
type BossTab struct {
	controller *Controller

	gardenCheck   *widget.Check
	gardenEntry   *widget.Entry
	bossCheck     *widget.Check
	intervalEntry *widget.Entry
	mvpChecks     map[string]*widget.Check
	miniChecks    map[string]*widget.Check
}

// NewBossTab creates the task configuration tab
func NewBossTab(ctrl *Controller) *BossTab {
	return &BossTab{
		controller: ctrl,
		mvpChecks:  make(map[string]*widget.Check),
		miniChecks: make(map[string]*widget.Check),
	}
}

// Build constructs the task configuration UI
func (b *BossTab) Build() fyne.CanvasObject {
	tasks := b.controller.deps.Tasks

	b.gardenCheck = widget.NewCheck("Garden watering", nil)
	b.gardenCheck.SetChecked(tasks.Garden.Enabled)

	b.gardenEntry = widget.NewEntry()
	b.gardenEntry.SetText(tasks.Garden.Interval.Std().String())

	b.bossCheck = widget.NewCheck("Boss farming", nil)
	b.bossCheck.SetChecked(tasks.Boss.Enabled)

	b.intervalEntry = widget.NewEntry()
	b.intervalEntry.SetText(tasks.Boss.CheckInterval.Std().String())

	selectedMVPs := toSet(tasks.Boss.SelectedMVPs)
	selectedMinis := toSet(tasks.Boss.SelectedMinis)

	mvpBox := container.NewVBox(widget.NewLabelWithStyle("MVP", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	for _, name := range farm.MVPBosses {
		check := widget.NewCheck(name, nil)
		check.SetChecked(selectedMVPs[name])
		b.mvpChecks[name] = check
		mvpBox.Add(check)
	}

	miniBox := container.NewVBox(widget.NewLabelWithStyle("Mini", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	for _, name := range farm.MiniBosses {
		check := widget.NewCheck(name, nil)
		check.SetChecked(selectedMinis[name])
		b.miniChecks[name] = check
		miniBox.Add(check)
	}

	saveBtn := widget.NewButton("Save", func() {
		if err := b.apply(); err != nil {
			b.controller.ShowError(err)
			return
		}
		if err := b.controller.SaveTasks(); err != nil {
			b.controller.ShowError(err)
		}
	})

	form := container.NewVBox(
		b.gardenCheck,
		container.NewHBox(widget.NewLabel("Garden interval"), b.gardenEntry),
		widget.NewSeparator(),
		b.bossCheck,
		container.NewHBox(widget.NewLabel("Check interval"), b.intervalEntry),
		container.NewGridWithColumns(2, mvpBox, miniBox),
		saveBtn,
	)
	return container.NewVScroll(form)
}

// apply copies the widget state back into the task configuration
func (b *BossTab) apply() error {
	tasks := b.controller.deps.Tasks

	gardenInterval, err := time.ParseDuration(b.gardenEntry.Text)
	if err != nil {
		return fmt.Errorf("invalid garden interval: %w", err)
	}
	checkInterval, err := time.ParseDuration(b.intervalEntry.Text)
	if err != nil {
		return fmt.Errorf("invalid boss check interval: %w", err)
	}

	tasks.Garden.Enabled = b.gardenCheck.Checked
	tasks.Garden.Interval = config.Duration(gardenInterval)
	tasks.Boss.Enabled = b.bossCheck.Checked
	tasks.Boss.CheckInterval = config.Duration(checkInterval)

	tasks.Boss.SelectedMVPs = checkedNames(farm.MVPBosses, b.mvpChecks)
	tasks.Boss.SelectedMinis = checkedNames(farm.MiniBosses, b.miniChecks)
	return nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// checkedNames keeps roster order so the saved file is stable
func checkedNames(roster []string, checks map[string]*widget.Check) []string {
	var out []string
	for _, name := range roster {
		if check, ok := checks[name]; ok && check.Checked {
			out = append(out, name)
		}
	}
	return out
}
