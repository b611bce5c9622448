package farm

import (
	"context"
	"fmt"
	"time"
)

// Runner implements one task's per-poll behavior. Poll captures and
// classifies; Act dispatches at most one action for the classification it
// is given. Runners never sleep across polls, the scheduler owns timing.
type Runner interface {
	// Validate resolves every calibration reference the runner needs.
	// Called once before the loop starts; a failure skips the task.
	Validate() error

	// Poll performs one capture/recognize/classify pass
	Poll(ctx context.Context) (Classification, error)

	// Act dispatches the action for an ActionAvailable classification
	Act(ctx context.Context, c Classification) error
}

// PendingCanceler is implemented by runners whose Poll leaves game UI
// open for Act to consume. The engine calls CancelPending when it
// classifies ActionAvailable but suppresses the dispatch, so the UI is
// restored instead of blocking other tasks until the next cycle.
type PendingCanceler interface {
	CancelPending(ctx context.Context)
}

// Task binds a runner to its schedule parameters
type Task struct {
	Name         string
	Runner       Runner
	Interval     time.Duration // reschedule delay after Idle or a dispatched action
	JitterPct    int           // humanized ± percent spread applied to Interval
	ShortRetry   time.Duration // reschedule delay after an Unknown poll
	MinPoll      time.Duration // floor applied to cooldown reschedules
	UnknownLimit int           // consecutive Unknowns before the task degrades
	Enabled      bool
}

// Validate checks the task configuration before registration
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if t.Runner == nil {
		return fmt.Errorf("task %q: runner is required", t.Name)
	}
	if t.Interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive", t.Name)
	}
	if t.JitterPct < 0 || t.JitterPct > 100 {
		return fmt.Errorf("task %q: jitter percent must be 0-100", t.Name)
	}
	if t.ShortRetry <= 0 {
		return fmt.Errorf("task %q: short retry must be positive", t.Name)
	}
	if t.MinPoll <= 0 {
		return fmt.Errorf("task %q: min poll must be positive", t.Name)
	}
	if t.UnknownLimit <= 0 {
		return fmt.Errorf("task %q: unknown limit must be positive", t.Name)
	}
	return nil
}

// TaskStatus is a read-only snapshot of one task's runtime state,
// consumed by the CLI test mode and the GUI dashboard.
type TaskStatus struct {
	Name               string
	Enabled            bool
	Degraded           bool
	ConsecutiveUnknown int
	LastState          GameState
	LastLine           string
	LastPolled         time.Time
	NextDue            time.Time
	Actions            int
}

// Recorder persists engine activity. History failures never stall the
// loop, implementations log and move on.
type Recorder interface {
	RecordTaskEvent(task, state, detail string)
	RecordCaptcha(expression string, answer int, solved bool)
}

// Alerter raises operator-facing alerts for degraded tasks
type Alerter interface {
	Alert(reason string)
}

// NopRecorder discards all records. Used when history is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordTaskEvent(task, state, detail string) {}

func (NopRecorder) RecordCaptcha(expression string, answer int, solved bool) {}

// NopAlerter discards all alerts
type NopAlerter struct{}

func (NopAlerter) Alert(reason string) {}
