package farm

import (
	"context"
	"testing"
	"time"

	"github.com/kellerith/rox-farm-go/internal/events"
)

func testTask(name string, runner Runner) *Task {
	return &Task{
		Name:         name,
		Runner:       runner,
		Interval:     10 * time.Second,
		ShortRetry:   2 * time.Second,
		MinPoll:      5 * time.Second,
		UnknownLimit: 3,
		Enabled:      true,
	}
}

// testEngine builds an engine with a fixed clock and instant sleeps
func testEngine(t *testing.T) (*Engine, *events.DefaultEventBus, func() time.Time) {
	t.Helper()
	bus := events.NewEventBus(64)
	t.Cleanup(bus.Stop)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	engine := NewEngine(bus, WithClock(clock, noPause))
	return engine, bus, clock
}

func TestTaskValidate(t *testing.T) {
	runner := &stubRunner{}
	tests := []struct {
		name    string
		task    *Task
		wantErr bool
	}{
		{"valid", testTask("ok", runner), false},
		{"missing name", &Task{Runner: runner, Interval: time.Second, ShortRetry: time.Second, MinPoll: time.Second, UnknownLimit: 1}, true},
		{"missing runner", &Task{Name: "x", Interval: time.Second, ShortRetry: time.Second, MinPoll: time.Second, UnknownLimit: 1}, true},
		{"zero interval", &Task{Name: "x", Runner: runner, ShortRetry: time.Second, MinPoll: time.Second, UnknownLimit: 1}, true},
		{"bad jitter", &Task{Name: "x", Runner: runner, Interval: time.Second, JitterPct: 150, ShortRetry: time.Second, MinPoll: time.Second, UnknownLimit: 1}, true},
		{"zero unknown limit", &Task{Name: "x", Runner: runner, Interval: time.Second, ShortRetry: time.Second, MinPoll: time.Second}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestEngineRegisterRejectsDuplicates(t *testing.T) {
	engine, _, _ := testEngine(t)

	if err := engine.Register(testTask("a", &stubRunner{})); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := engine.Register(testTask("a", &stubRunner{})); err == nil {
		t.Fatal("duplicate Register() should fail")
	}
}

func TestEngineRunOnceDispatchesExactlyOneAction(t *testing.T) {
	engine, _, _ := testEngine(t)
	runner := &stubRunner{pollResults: []Classification{{State: StateActionAvailable, Line: "go"}}}

	if err := engine.Register(testTask("garden", runner)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	statuses, err := engine.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if runner.actCount() != 1 {
		t.Errorf("acts = %d, want 1", runner.actCount())
	}
	if len(statuses) != 1 || statuses[0].LastState != StateActionAvailable {
		t.Errorf("statuses = %+v", statuses)
	}
}

func TestEngineRunOnceSkipsUnvalidatedTask(t *testing.T) {
	engine, _, _ := testEngine(t)
	bad := &stubRunner{validateErr: context.DeadlineExceeded}
	good := &stubRunner{pollResults: []Classification{{State: StateIdle}}}

	if err := engine.Register(testTask("bad", bad)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := engine.Register(testTask("good", good)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	statuses, err := engine.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	var byName = map[string]TaskStatus{}
	for _, s := range statuses {
		byName[s.Name] = s
	}
	if byName["bad"].Enabled {
		t.Error("failed-validation task should report disabled")
	}
	if byName["good"].LastState != StateIdle {
		t.Errorf("good task state = %v, want Idle", byName["good"].LastState)
	}
}

// prepare seeds the schedule the way Start does, without the loop
func prepare(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.Lock()
	names := e.prepareLocked()
	e.mu.Unlock()
	if len(names) == 0 {
		t.Fatal("no runnable tasks after prepare")
	}
}

func TestEngineCooldownAppliesMinPollFloor(t *testing.T) {
	engine, _, clock := testEngine(t)
	runner := &stubRunner{pollResults: []Classification{
		{State: StateOnCooldown, Remaining: time.Second}, // below the 5s floor
	}}
	if err := engine.Register(testTask("boss", runner)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	prepare(t, engine)

	entry, _ := engine.sched.Pop()
	engine.processTask(context.Background(), entry.taskID)

	next, ok := engine.sched.Peek()
	if !ok {
		t.Fatal("task was not rescheduled")
	}
	if got := next.due.Sub(clock()); got != 5*time.Second {
		t.Errorf("reschedule delay = %v, want MinPoll 5s", got)
	}
}

func TestEngineCooldownUsesRemainingWhenLonger(t *testing.T) {
	engine, _, clock := testEngine(t)
	runner := &stubRunner{pollResults: []Classification{
		{State: StateOnCooldown, Remaining: time.Minute},
	}}
	if err := engine.Register(testTask("boss", runner)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	prepare(t, engine)

	entry, _ := engine.sched.Pop()
	engine.processTask(context.Background(), entry.taskID)

	next, _ := engine.sched.Peek()
	if got := next.due.Sub(clock()); got != time.Minute {
		t.Errorf("reschedule delay = %v, want 1m", got)
	}
}

func TestEngineUnknownShortRetryAndDegradation(t *testing.T) {
	engine, _, _ := testEngine(t)
	runner := &stubRunner{} // always Unknown
	task := testTask("garden", runner)
	if err := engine.Register(task); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	prepare(t, engine)

	// UnknownLimit is 3: degradation on the 4th consecutive unknown
	for i := 0; i < 4; i++ {
		entry, ok := engine.sched.Pop()
		if !ok {
			t.Fatalf("iteration %d: schedule empty", i)
		}
		engine.processTask(context.Background(), entry.taskID)

		status := engine.Statuses()[0]
		wantDegraded := i >= 3
		if status.Degraded != wantDegraded {
			t.Errorf("iteration %d: Degraded = %v, want %v", i, status.Degraded, wantDegraded)
		}
	}
}

func TestEngineDegradedSuppressesDispatchButKeepsPolling(t *testing.T) {
	engine, _, _ := testEngine(t)
	runner := &stubRunner{pollResults: []Classification{{State: StateActionAvailable}}}
	if err := engine.Register(testTask("garden", runner)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	prepare(t, engine)
	engine.tasks[0].degraded = true

	entry, _ := engine.sched.Pop()
	engine.processTask(context.Background(), entry.taskID)

	if runner.actCount() != 0 {
		t.Errorf("acts = %d, degraded task must not dispatch", runner.actCount())
	}
	if runner.polls != 1 {
		t.Errorf("polls = %d, degraded task must keep polling", runner.polls)
	}
	if _, ok := engine.sched.Peek(); !ok {
		t.Error("degraded task must stay scheduled")
	}
}

type cancelingRunner struct {
	stubRunner
	cancels int
}

func (c *cancelingRunner) CancelPending(_ context.Context) { c.cancels++ }

func TestEngineDegradedSuppressionCancelsPendingAction(t *testing.T) {
	engine, _, _ := testEngine(t)
	runner := &cancelingRunner{
		stubRunner: stubRunner{pollResults: []Classification{{State: StateActionAvailable}}},
	}
	if err := engine.Register(testTask("boss_hunt", runner)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	prepare(t, engine)
	engine.tasks[0].degraded = true

	entry, _ := engine.sched.Pop()
	engine.processTask(context.Background(), entry.taskID)

	if runner.actCount() != 0 {
		t.Errorf("acts = %d, degraded task must not dispatch", runner.actCount())
	}
	if runner.cancels != 1 {
		t.Errorf("cancels = %d, suppressed dispatch must release the pending action", runner.cancels)
	}

	// A healthy task dispatches instead of canceling
	engine.tasks[0].degraded = false
	entry, _ = engine.sched.Pop()
	engine.processTask(context.Background(), entry.taskID)
	if runner.actCount() != 1 || runner.cancels != 1 {
		t.Errorf("acts = %d, cancels = %d after recovery", runner.actCount(), runner.cancels)
	}
}

func TestEngineResetClearsDegradation(t *testing.T) {
	engine, _, _ := testEngine(t)
	if err := engine.Register(testTask("garden", &stubRunner{})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	engine.tasks[0].degraded = true
	engine.tasks[0].consecutiveUnknown = 7

	if err := engine.Reset("garden"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	status := engine.Statuses()[0]
	if status.Degraded || status.ConsecutiveUnknown != 0 {
		t.Errorf("status after reset = %+v", status)
	}

	if err := engine.Reset("nope"); err == nil {
		t.Error("Reset of unknown task should fail")
	}
}

func TestEnginePollPanicBecomesUnknown(t *testing.T) {
	engine, _, _ := testEngine(t)
	runner := &stubRunner{pollPanic: true}
	if err := engine.Register(testTask("garden", runner)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	prepare(t, engine)

	entry, _ := engine.sched.Pop()
	engine.processTask(context.Background(), entry.taskID)

	status := engine.Statuses()[0]
	if status.LastState != StateUnknown {
		t.Errorf("LastState = %v, want Unknown", status.LastState)
	}
	if status.ConsecutiveUnknown != 1 {
		t.Errorf("ConsecutiveUnknown = %d, want 1", status.ConsecutiveUnknown)
	}
}

func TestEngineDisabledTaskIsNotPolled(t *testing.T) {
	engine, _, _ := testEngine(t)
	a := &stubRunner{pollResults: []Classification{{State: StateIdle}}}
	b := &stubRunner{pollResults: []Classification{{State: StateIdle}}}
	if err := engine.Register(testTask("a", a)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := engine.Register(testTask("b", b)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := engine.SetEnabled("b", false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	if _, err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if a.polls != 1 {
		t.Errorf("task a polls = %d, want 1", a.polls)
	}
	if b.polls != 0 {
		t.Errorf("task b polls = %d, want 0", b.polls)
	}
}

func TestEngineStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping loop test in short mode")
	}

	bus := events.NewEventBus(64)
	defer bus.Stop()

	engine := NewEngine(bus)
	runner := &stubRunner{pollResults: []Classification{{State: StateIdle}}}
	task := testTask("garden", runner)
	task.Interval = 20 * time.Millisecond
	task.ShortRetry = 20 * time.Millisecond
	task.MinPoll = 20 * time.Millisecond
	if err := engine.Register(task); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := engine.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	time.Sleep(100 * time.Millisecond)
	engine.Stop()

	if engine.IsRunning() {
		t.Error("engine should be stopped")
	}
	if runner.polls == 0 {
		t.Error("task was never polled")
	}
}

func TestJitterDelay(t *testing.T) {
	base := 10 * time.Second
	for i := 0; i < 50; i++ {
		got := jitterDelay(base, 30)
		if got < 7*time.Second || got > 13*time.Second {
			t.Fatalf("jitterDelay(10s, 30) = %v, outside ±30%%", got)
		}
	}
	if got := jitterDelay(base, 0); got != base {
		t.Errorf("zero percent should return the base interval, got %v", got)
	}
	if got := jitterDelay(500*time.Millisecond, 50); got < time.Second {
		t.Errorf("jittered delay = %v, want the 1s floor", got)
	}
}
