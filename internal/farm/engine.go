package farm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/kellerith/rox-farm-go/internal/calibration"
	"github.com/kellerith/rox-farm-go/internal/events"
	"github.com/kellerith/rox-farm-go/internal/logging"
)

// taskRecord is the engine's runtime state for one registered task
type taskRecord struct {
	task               *Task
	skipped            bool // calibration failed at startup, never polled
	degraded           bool
	consecutiveUnknown int
	lastState          GameState
	lastLine           string
	lastPolled         time.Time
	nextDue            time.Time
	actions            int
}

// Engine drives all registered tasks from a single scheduling loop.
// Exactly one task is processed per wakeup; a poll sequence that has
// started always completes before the loop honors cancellation.
type Engine struct {
	logger   *logging.Logger
	bus      events.EventBus
	recorder Recorder
	alerter  Alerter

	// Injected time sources keep the loop testable
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	mu      sync.Mutex
	tasks   []*taskRecord
	byName  map[string]int
	sched   *schedule
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	cycles  int
}

// EngineOption customizes engine construction
type EngineOption func(*Engine)

// WithRecorder attaches a history recorder
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithAlerter attaches an alerter for degradation warnings
func WithAlerter(a Alerter) EngineOption {
	return func(e *Engine) { e.alerter = a }
}

// WithClock overrides the time source and sleeper, used by tests
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) bool) EngineOption {
	return func(e *Engine) {
		e.now = now
		e.sleep = sleep
	}
}

// NewEngine creates an engine with no registered tasks
func NewEngine(bus events.EventBus, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   logging.NewLogger("engine"),
		bus:      bus,
		recorder: NopRecorder{},
		alerter:  NopAlerter{},
		now:      time.Now,
		sleep:    sleepWithContext,
		byName:   make(map[string]int),
		sched:    newSchedule(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sleepWithContext waits for d or until ctx is cancelled. Returns false
// on cancellation.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Register adds a task before the loop starts
func (e *Engine) Register(task *Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("cannot register task %q while running", task.Name)
	}
	if _, exists := e.byName[task.Name]; exists {
		return fmt.Errorf("task %q already registered", task.Name)
	}

	e.byName[task.Name] = len(e.tasks)
	e.tasks = append(e.tasks, &taskRecord{task: task, lastState: StateUnknown})
	return nil
}

// Start launches the scheduling loop in the background. Calibration is
// resolved per task here; a task that fails validation is skipped and the
// rest keep running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	if len(e.tasks) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("no tasks registered")
	}

	names := e.prepareLocked()
	if len(names) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("no runnable tasks after validation")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	e.cycles = 0
	e.mu.Unlock()

	e.logger.InfoWithFields("Engine started", map[string]interface{}{"tasks": len(names)})
	e.bus.Publish(events.NewEngineStartedEvent("run", names))

	go e.loop(runCtx)
	return nil
}

// prepareLocked validates runners and seeds the schedule. Caller holds e.mu.
func (e *Engine) prepareLocked() []string {
	e.sched = newSchedule()
	start := e.now()

	var names []string
	for id, rec := range e.tasks {
		rec.skipped = false
		if err := rec.task.Runner.Validate(); err != nil {
			rec.skipped = true
			var notCal *calibration.NotCalibratedError
			if errors.As(err, &notCal) {
				e.logger.ErrorWithFields("Task skipped, not calibrated", err,
					map[string]interface{}{"task": rec.task.Name})
			} else {
				e.logger.ErrorWithFields("Task skipped, validation failed", err,
					map[string]interface{}{"task": rec.task.Name})
			}
			continue
		}
		rec.nextDue = start
		e.sched.Push(id, start)
		if rec.task.Enabled {
			names = append(names, rec.task.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Stop cancels the loop and waits for the in-flight poll to finish
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done
}

// IsRunning reports whether the loop is active
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) loop(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.running = false
		cycles := e.cycles
		close(e.done)
		e.mu.Unlock()

		e.logger.InfoWithFields("Engine stopped", map[string]interface{}{"cycles": cycles})
		e.bus.Publish(events.NewEngineStoppedEvent("cancelled", cycles))
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		e.mu.Lock()
		entry, ok := e.sched.Peek()
		e.mu.Unlock()
		if !ok {
			return
		}

		if wait := entry.due.Sub(e.now()); wait > 0 {
			if !e.sleep(ctx, wait) {
				return
			}
		}

		e.mu.Lock()
		entry, ok = e.sched.Pop()
		e.mu.Unlock()
		if !ok {
			return
		}

		e.processTask(ctx, entry.taskID)

		e.mu.Lock()
		e.cycles++
		e.mu.Unlock()
	}
}

// processTask runs one full poll sequence for the task and reschedules it
func (e *Engine) processTask(ctx context.Context, taskID int) {
	e.mu.Lock()
	rec := e.tasks[taskID]
	task := rec.task
	enabled := task.Enabled
	degraded := rec.degraded
	e.mu.Unlock()

	if !enabled {
		// Keep the entry cycling so a re-enabled task resumes on its own
		e.reschedule(taskID, task.Interval)
		return
	}

	classification := e.pollSafely(ctx, rec)
	now := e.now()

	e.bus.Publish(events.NewTaskPolledEvent(task.Name, classification.State.String(), classification.Remaining))
	e.recorder.RecordTaskEvent(task.Name, classification.State.String(), classification.Line)

	var delay time.Duration
	switch classification.State {
	case StateActionAvailable:
		delay = jitterDelay(task.Interval, task.JitterPct)
		if degraded {
			e.logger.WarnWithFields("Dispatch suppressed, task degraded",
				map[string]interface{}{"task": task.Name})
			e.bus.Publish(events.NewTaskSkippedEvent(task.Name, "degraded"))
			e.cancelPendingSafely(ctx, rec)
		} else {
			e.actSafely(ctx, rec, classification)
		}
		e.clearUnknowns(rec)

	case StateOnCooldown:
		delay = classification.Remaining
		if delay < task.MinPoll {
			delay = task.MinPoll
		}
		e.clearUnknowns(rec)

	case StateIdle:
		delay = jitterDelay(task.Interval, task.JitterPct)
		e.clearUnknowns(rec)

	default: // StateUnknown
		delay = task.ShortRetry
		e.noteUnknown(rec)
	}

	e.mu.Lock()
	rec.lastState = classification.State
	rec.lastLine = classification.Line
	rec.lastPolled = now
	e.mu.Unlock()

	e.reschedule(taskID, delay)
}

// pollSafely runs Runner.Poll with panic recovery; any failure is an
// Unknown classification so the loop never acts on a broken read.
func (e *Engine) pollSafely(ctx context.Context, rec *taskRecord) (c Classification) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorWithFields("Task poll panicked", fmt.Errorf("%v", r),
				map[string]interface{}{"task": rec.task.Name})
			c = Classification{State: StateUnknown}
		}
	}()

	classification, err := rec.task.Runner.Poll(ctx)
	if err != nil {
		e.logger.WarnWithFields("Poll failed",
			map[string]interface{}{"task": rec.task.Name, "error": err.Error()})
		e.bus.Publish(events.NewErrorEvent(rec.task.Name, errorKind(err), err))
		return Classification{State: StateUnknown}
	}
	return classification
}

// actSafely runs Runner.Act with panic recovery
func (e *Engine) actSafely(ctx context.Context, rec *taskRecord, c Classification) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorWithFields("Task action panicked", fmt.Errorf("%v", r),
				map[string]interface{}{"task": rec.task.Name})
		}
	}()

	if err := rec.task.Runner.Act(ctx, c); err != nil {
		e.logger.WarnWithFields("Action failed",
			map[string]interface{}{"task": rec.task.Name, "error": err.Error()})
		e.bus.Publish(events.NewErrorEvent(rec.task.Name, errorKind(err), err))
		return
	}

	e.mu.Lock()
	rec.actions++
	e.mu.Unlock()

	e.bus.Publish(events.NewTaskActedEvent(rec.task.Name, c.Line))
	e.recorder.RecordTaskEvent(rec.task.Name, "acted", c.Line)
}

// cancelPendingSafely lets a runner restore game UI its Poll opened when
// the engine will not run Act
func (e *Engine) cancelPendingSafely(ctx context.Context, rec *taskRecord) {
	canceler, ok := rec.task.Runner.(PendingCanceler)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorWithFields("Pending cancel panicked", fmt.Errorf("%v", r),
				map[string]interface{}{"task": rec.task.Name})
		}
	}()
	canceler.CancelPending(ctx)
}

func (e *Engine) clearUnknowns(rec *taskRecord) {
	e.mu.Lock()
	rec.consecutiveUnknown = 0
	e.mu.Unlock()
}

func (e *Engine) noteUnknown(rec *taskRecord) {
	e.mu.Lock()
	rec.consecutiveUnknown++
	count := rec.consecutiveUnknown
	limit := rec.task.UnknownLimit
	already := rec.degraded
	if count > limit {
		rec.degraded = true
	}
	nowDegraded := rec.degraded
	e.mu.Unlock()

	if nowDegraded && !already {
		e.logger.WarnWithFields("Task degraded, dispatch suppressed until reset",
			map[string]interface{}{"task": rec.task.Name, "consecutive_unknown": count})
		e.bus.Publish(events.NewTaskDegradedEvent(rec.task.Name, count))
		e.recorder.RecordTaskEvent(rec.task.Name, "degraded", fmt.Sprintf("unknown x%d", count))
		e.alerter.Alert(fmt.Sprintf("task %s degraded", rec.task.Name))
	}
}

// reschedule queues the task's next poll
func (e *Engine) reschedule(taskID int, delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	due := e.now().Add(delay)
	e.tasks[taskID].nextDue = due
	e.sched.Push(taskID, due)
}

// Reset clears a task's degraded flag and unknown counter
func (e *Engine) Reset(name string) error {
	e.mu.Lock()
	id, ok := e.byName[name]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown task %q", name)
	}
	rec := e.tasks[id]
	rec.degraded = false
	rec.consecutiveUnknown = 0
	e.mu.Unlock()

	e.logger.InfoWithFields("Task reset", map[string]interface{}{"task": name})
	e.bus.Publish(events.NewTaskResetEvent(name, "operator"))
	return nil
}

// SetEnabled toggles a task. Registered tasks stay in the schedule while
// disabled and resume automatically when re-enabled.
func (e *Engine) SetEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("unknown task %q", name)
	}
	e.tasks[id].task.Enabled = enabled
	return nil
}

// Statuses returns a snapshot of every registered task
func (e *Engine) Statuses() []TaskStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	statuses := make([]TaskStatus, 0, len(e.tasks))
	for _, rec := range e.tasks {
		statuses = append(statuses, TaskStatus{
			Name:               rec.task.Name,
			Enabled:            rec.task.Enabled && !rec.skipped,
			Degraded:           rec.degraded,
			ConsecutiveUnknown: rec.consecutiveUnknown,
			LastState:          rec.lastState,
			LastLine:           rec.lastLine,
			LastPolled:         rec.lastPolled,
			NextDue:            rec.nextDue,
			Actions:            rec.actions,
		})
	}
	return statuses
}

// RunOnce polls every enabled task exactly once and acts on available
// actions. Used by the test CLI mode with a dry-run dispatcher.
func (e *Engine) RunOnce(ctx context.Context) ([]TaskStatus, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine already running")
	}
	names := e.prepareLocked()
	e.mu.Unlock()

	if len(names) == 0 {
		return nil, fmt.Errorf("no runnable tasks after validation")
	}

	for {
		if ctx.Err() != nil {
			return e.Statuses(), ctx.Err()
		}
		e.mu.Lock()
		entry, ok := e.sched.Pop()
		e.mu.Unlock()
		if !ok {
			break
		}

		e.mu.Lock()
		rec := e.tasks[entry.taskID]
		e.mu.Unlock()
		if !rec.task.Enabled || rec.skipped {
			continue
		}

		classification := e.pollSafely(ctx, rec)
		e.mu.Lock()
		rec.lastState = classification.State
		rec.lastLine = classification.Line
		rec.lastPolled = e.now()
		e.mu.Unlock()

		if classification.State == StateActionAvailable {
			e.actSafely(ctx, rec, classification)
		}
	}

	return e.Statuses(), nil
}

// jitterDelay spreads d by ± percent so repeated actions do not land on
// a metronome. Results never drop below one second.
func jitterDelay(d time.Duration, percent int) time.Duration {
	if percent <= 0 {
		return d
	}
	spread := int64(d) * int64(percent) / 100
	jittered := time.Duration(int64(d) + rand.Int63n(2*spread+1) - spread)
	if jittered < time.Second {
		jittered = time.Second
	}
	return jittered
}

// errorKind names the error category for event payloads
func errorKind(err error) string {
	var notCal *calibration.NotCalibratedError
	if errors.As(err, &notCal) {
		return "not_calibrated"
	}
	return "transient"
}
