package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/kellerith/rox-farm-go/internal/events"
)

// LogTab shows the engine log buffer plus a live event feed
type LogTab struct {
	controller *Controller

	mu    sync.Mutex
	lines []string

	logView *widget.Label
	subID   events.SubscriptionID

	maxLines int
	stopOnce sync.Once
}

// NewLogTab creates the log tab and subscribes to the event bus
func NewLogTab(ctrl *Controller) *LogTab {
	tab := &LogTab{
		controller: ctrl,
		maxLines:   300,
	}

	if ctrl.deps.LogBuffer != nil {
		ctrl.deps.LogBuffer.SetNotify(tab.appendLine)
	}
	if ctrl.deps.Bus != nil {
		tab.subID = ctrl.deps.Bus.SubscribeAll(func(event events.Event) {
			tab.appendLine(fmt.Sprintf("[event] %s %v", event.Type, event.Data))
		})
	}
	return tab
}

// Build constructs the log viewer UI
func (l *LogTab) Build() fyne.CanvasObject {
	header := widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	l.logView = widget.NewLabel("")
	l.logView.Wrapping = fyne.TextWrapWord

	if l.controller.deps.LogBuffer != nil {
		l.mu.Lock()
		l.lines = append(l.lines, l.controller.deps.LogBuffer.Lines()...)
		l.mu.Unlock()
		l.repaintLocked()
	}

	clearBtn := widget.NewButton("Clear", func() {
		l.mu.Lock()
		l.lines = nil
		l.mu.Unlock()
		l.logView.SetText("")
	})

	return container.NewBorder(
		container.NewHBox(header, clearBtn),
		nil, nil, nil,
		container.NewVScroll(l.logView),
	)
}

// Stop unsubscribes from the event bus
func (l *LogTab) Stop() {
	l.stopOnce.Do(func() {
		if l.controller.deps.Bus != nil {
			l.controller.deps.Bus.Unsubscribe(l.subID)
		}
	})
}

// appendLine may be called from any goroutine
func (l *LogTab) appendLine(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	if len(l.lines) > l.maxLines {
		l.lines = l.lines[len(l.lines)-l.maxLines:]
	}
	l.mu.Unlock()

	fyne.Do(l.repaintLocked)
}

// repaintLocked rebuilds the label text from the buffered lines
func (l *LogTab) repaintLocked() {
	if l.logView == nil {
		return
	}
	l.mu.Lock()
	text := ""
	for _, line := range l.lines {
		text += line + "\n"
	}
	l.mu.Unlock()
	l.logView.SetText(text)
}
