package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kellerith/rox-farm-go/internal/logging"
)

// StuckCallback is called when the engine stops making progress
type StuckCallback func(reason string)

// HealthWatcher flags a control loop that has gone quiet. The engine
// records activity after every poll; silence past the threshold fires
// the callback repeatedly until activity resumes.
type HealthWatcher struct {
	logger *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	checkInterval  time.Duration
	stuckThreshold time.Duration
	onStuck        StuckCallback

	mu           sync.RWMutex
	lastActivity time.Time
	stuckCount   int
}

// NewHealthWatcher creates a watcher with the default thresholds
func NewHealthWatcher() *HealthWatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &HealthWatcher{
		logger:         logging.NewLogger("health"),
		ctx:            ctx,
		cancel:         cancel,
		checkInterval:  10 * time.Second,
		stuckThreshold: 90 * time.Second,
		lastActivity:   time.Now(),
	}
}

// WithStuckCallback sets the callback for stuck detection
func (hw *HealthWatcher) WithStuckCallback(cb StuckCallback) *HealthWatcher {
	hw.onStuck = cb
	return hw
}

// WithThreshold overrides the silence threshold
func (hw *HealthWatcher) WithThreshold(d time.Duration) *HealthWatcher {
	hw.stuckThreshold = d
	return hw
}

// WithCheckInterval overrides how often the watcher checks
func (hw *HealthWatcher) WithCheckInterval(d time.Duration) *HealthWatcher {
	hw.checkInterval = d
	return hw
}

// Start begins watching in the background
func (hw *HealthWatcher) Start() {
	hw.wg.Add(1)
	go hw.watch()
}

// Stop halts the watcher and waits for it to exit
func (hw *HealthWatcher) Stop() {
	hw.cancel()
	hw.wg.Wait()
}

// RecordActivity marks the loop as alive
func (hw *HealthWatcher) RecordActivity() {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	hw.lastActivity = time.Now()
	hw.stuckCount = 0
}

// LastActivity returns the most recent recorded activity time
func (hw *HealthWatcher) LastActivity() time.Time {
	hw.mu.RLock()
	defer hw.mu.RUnlock()
	return hw.lastActivity
}

func (hw *HealthWatcher) watch() {
	defer hw.wg.Done()

	ticker := time.NewTicker(hw.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-hw.ctx.Done():
			return
		case <-ticker.C:
			hw.checkIfStuck()
		}
	}
}

func (hw *HealthWatcher) checkIfStuck() {
	hw.mu.Lock()
	silence := time.Since(hw.lastActivity)
	stuck := silence > hw.stuckThreshold
	if stuck {
		hw.stuckCount++
	}
	count := hw.stuckCount
	hw.mu.Unlock()

	if !stuck {
		return
	}

	reason := fmt.Sprintf("no engine activity for %s (check %d)", silence.Round(time.Second), count)
	hw.logger.Warn(reason)
	if hw.onStuck != nil {
		hw.onStuck(reason)
	}
}
