package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Engine lifecycle events
	EventTypeEngineStarted EventType = "engine.started"
	EventTypeEngineStopped EventType = "engine.stopped"

	// Task events
	EventTypeTaskPolled   EventType = "task.polled"
	EventTypeTaskActed    EventType = "task.acted"
	EventTypeTaskSkipped  EventType = "task.skipped"
	EventTypeTaskDegraded EventType = "task.degraded"
	EventTypeTaskReset    EventType = "task.reset"

	// CAPTCHA events
	EventTypeCaptchaDetected EventType = "captcha.detected"
	EventTypeCaptchaSolved   EventType = "captcha.solved"
	EventTypeCaptchaFailed   EventType = "captcha.failed"

	// Boss hunt events
	EventTypeBossSpotted EventType = "boss.spotted"
	EventTypeBossEngaged EventType = "boss.engaged"
	EventTypeBossTimer   EventType = "boss.timer"
	EventTypePlayerDied  EventType = "player.died"

	// Environment events
	EventTypeWindowMoved EventType = "window.moved"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted the event (e.g. "engine", "boss_hunt")
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// SubscribeAll registers a handler for every event type
	SubscribeAll(handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper constructors for common events

// NewEngineStartedEvent creates an engine started event
func NewEngineStartedEvent(mode string, taskNames []string) Event {
	return Event{
		Type:      EventTypeEngineStarted,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"mode":  mode,
			"tasks": taskNames,
		},
	}
}

// NewEngineStoppedEvent creates an engine stopped event
func NewEngineStoppedEvent(reason string, cycles int) Event {
	return Event{
		Type:      EventTypeEngineStopped,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason": reason,
			"cycles": cycles,
		},
	}
}

// NewTaskPolledEvent creates a task polled event
func NewTaskPolledEvent(task, state string, remaining time.Duration) Event {
	return Event{
		Type:      EventTypeTaskPolled,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"task":      task,
			"state":     state,
			"remaining": remaining.String(),
		},
	}
}

// NewTaskActedEvent creates a task acted event
func NewTaskActedEvent(task, detail string) Event {
	return Event{
		Type:      EventTypeTaskActed,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"task":   task,
			"detail": detail,
		},
	}
}

// NewTaskSkippedEvent creates a task skipped event
func NewTaskSkippedEvent(task, reason string) Event {
	return Event{
		Type:      EventTypeTaskSkipped,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"task":   task,
			"reason": reason,
		},
	}
}

// NewTaskDegradedEvent creates a task degraded event
func NewTaskDegradedEvent(task string, consecutiveUnknown int) Event {
	return Event{
		Type:      EventTypeTaskDegraded,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"task":                task,
			"consecutive_unknown": consecutiveUnknown,
		},
	}
}

// NewTaskResetEvent creates a task reset event
func NewTaskResetEvent(task, by string) Event {
	return Event{
		Type:      EventTypeTaskReset,
		Source:    "engine",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"task": task,
			"by":   by,
		},
	}
}

// NewCaptchaDetectedEvent creates a captcha detected event
func NewCaptchaDetectedEvent(brightness float64) Event {
	return Event{
		Type:      EventTypeCaptchaDetected,
		Source:    "garden",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"brightness": brightness,
		},
	}
}

// NewCaptchaSolvedEvent creates a captcha solved event
func NewCaptchaSolvedEvent(expression string, answer int) Event {
	return Event{
		Type:      EventTypeCaptchaSolved,
		Source:    "garden",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"expression": expression,
			"answer":     answer,
		},
	}
}

// NewCaptchaFailedEvent creates a captcha failed event
func NewCaptchaFailedEvent(rawText string) Event {
	return Event{
		Type:      EventTypeCaptchaFailed,
		Source:    "garden",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"raw_text": rawText,
		},
	}
}

// NewBossSpottedEvent creates a boss spotted event
func NewBossSpottedEvent(boss string, row, page int) Event {
	return Event{
		Type:      EventTypeBossSpotted,
		Source:    "boss_hunt",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"boss": boss,
			"row":  row,
			"page": page,
		},
	}
}

// NewBossEngagedEvent creates a boss engaged event
func NewBossEngagedEvent(boss string, channel int) Event {
	return Event{
		Type:      EventTypeBossEngaged,
		Source:    "boss_hunt",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"boss":    boss,
			"channel": channel,
		},
	}
}

// NewBossTimerEvent creates a boss timer observation event
func NewBossTimerEvent(boss, timer string) Event {
	return Event{
		Type:      EventTypeBossTimer,
		Source:    "boss_hunt",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"boss":  boss,
			"timer": timer,
		},
	}
}

// NewPlayerDiedEvent creates a player died event
func NewPlayerDiedEvent(deaths int) Event {
	return Event{
		Type:      EventTypePlayerDied,
		Source:    "boss_hunt",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"deaths": deaths,
		},
	}
}

// NewWindowMovedEvent creates a window moved event
func NewWindowMovedEvent(x, y, w, h int) Event {
	return Event{
		Type:      EventTypeWindowMoved,
		Source:    "window",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"x": x, "y": y, "w": w, "h": h,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, kind string, err error) Event {
	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"kind":  kind,
			"error": err.Error(),
		},
	}
}
