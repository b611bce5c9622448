package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kellerith/rox-farm-go/internal/events"
)

// EventLogger subscribes to the event bus and logs every event to a
// session file, so a full run can be reconstructed afterwards.
type EventLogger struct {
	logger         *Logger
	eventBus       events.EventBus
	subscriptionID events.SubscriptionID
	logFile        *os.File
}

// NewEventLogger creates a new event logger writing under logDir
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := NewLogger("events")
	logger.AddOutput(logFile)

	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
		logFile:  logFile,
	}

	el.subscriptionID = eventBus.SubscribeAll(el.handleEvent)

	return el, nil
}

// handleEvent logs an incoming event with its data as fields
func (el *EventLogger) handleEvent(event events.Event) {
	fields := map[string]interface{}{
		"source": event.Source,
	}
	for k, v := range event.Data {
		fields[k] = v
	}

	el.logger.InfoWithFields(string(event.Type), fields)
}

// Close detaches from the bus and closes the log file
func (el *EventLogger) Close() error {
	el.eventBus.Unsubscribe(el.subscriptionID)
	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
