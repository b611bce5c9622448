package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
	LogLevelFatal LogLevel = "FATAL"
)

var levelRank = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
	LogLevelFatal: 4,
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Component string
	Message   string
	Err       error
	Fields    map[string]interface{}
}

// LogFormatter renders entries for output
type LogFormatter interface {
	Format(entry *LogEntry) string
}

// TextFormatter formats logs as human-readable text:
// [timestamp] LEVEL [component] message | error=... | key=value
type TextFormatter struct{}

func (f *TextFormatter) Format(entry *LogEntry) string {
	timestamp := entry.Timestamp.Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf("[%s] %s [%s] %s", timestamp, entry.Level, entry.Component, entry.Message)

	if entry.Err != nil {
		msg += fmt.Sprintf(" | error=%v", entry.Err)
	}

	if len(entry.Fields) > 0 {
		// Sorted keys so repeated runs produce comparable lines
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		msg += " |"
		for _, k := range keys {
			msg += fmt.Sprintf(" %s=%v", k, entry.Fields[k])
		}
	}

	return msg + "\n"
}

// Logger provides component-scoped structured logging
type Logger struct {
	component string
	minLevel  LogLevel
	outputs   []io.Writer
	mu        sync.Mutex
	formatter LogFormatter
}

// Process-wide defaults applied to loggers at creation time. Components
// build their own loggers, so the entry points set these before wiring.
var (
	defaultsMu      sync.Mutex
	defaultMinLevel = LogLevelInfo
	extraOutputs    []io.Writer
)

// SetDefaultLevel sets the minimum level for loggers created afterwards
func SetDefaultLevel(level LogLevel) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaultMinLevel = level
}

// AddDefaultOutput registers an extra writer for loggers created afterwards
func AddDefaultOutput(w io.Writer) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	extraOutputs = append(extraOutputs, w)
}

// ParseLevel maps a configuration string to a log level, defaulting to INFO
func ParseLevel(s string) LogLevel {
	level := LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelRank[level]; !ok {
		return LogLevelInfo
	}
	return level
}

// NewLogger creates a logger for a specific component (e.g. "engine", "ocr")
func NewLogger(component string) *Logger {
	defaultsMu.Lock()
	outputs := make([]io.Writer, 0, 1+len(extraOutputs))
	outputs = append(outputs, os.Stdout)
	outputs = append(outputs, extraOutputs...)
	minLevel := defaultMinLevel
	defaultsMu.Unlock()

	return &Logger{
		component: component,
		minLevel:  minLevel,
		outputs:   outputs,
		formatter: &TextFormatter{},
	}
}

// SetMinLevel sets the minimum log level to output
func (l *Logger) SetMinLevel(level LogLevel) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

// AddOutput adds an output writer for logs
func (l *Logger) AddOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, w)
	return l
}

// SetFormatter sets the log formatter
func (l *Logger) SetFormatter(formatter LogFormatter) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formatter = formatter
	return l
}

func (l *Logger) log(level LogLevel, message string, err error, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		Message:   message,
		Err:       err,
		Fields:    fields,
	}

	formatted := l.formatter.Format(entry)

	for _, output := range l.outputs {
		output.Write([]byte(formatted))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(LogLevelDebug, message, nil, nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LogLevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(LogLevelInfo, message, nil, nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LogLevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// InfoWithFields logs an info message with key=value fields
func (l *Logger) InfoWithFields(message string, fields map[string]interface{}) {
	l.log(LogLevelInfo, message, nil, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(LogLevelWarn, message, nil, nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LogLevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// WarnWithFields logs a warning message with key=value fields
func (l *Logger) WarnWithFields(message string, fields map[string]interface{}) {
	l.log(LogLevelWarn, message, nil, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(LogLevelError, message, err, nil)
}

// ErrorWithFields logs an error message with key=value fields
func (l *Logger) ErrorWithFields(message string, err error, fields map[string]interface{}) {
	l.log(LogLevelError, message, err, fields)
}

// Fatal logs a fatal error message
func (l *Logger) Fatal(message string, err error) {
	l.log(LogLevelFatal, message, err, nil)
}

// WithFields returns a logger that includes the fields on every entry
func (l *Logger) WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{
		logger: l,
		fields: fields,
	}
}

// FieldLogger is a logger with pre-set fields (e.g. task name)
type FieldLogger struct {
	logger *Logger
	fields map[string]interface{}
}

// Debug logs a debug message with pre-set fields
func (fl *FieldLogger) Debug(message string) {
	fl.logger.log(LogLevelDebug, message, nil, fl.fields)
}

// Info logs an info message with pre-set fields
func (fl *FieldLogger) Info(message string) {
	fl.logger.log(LogLevelInfo, message, nil, fl.fields)
}

// Infof logs a formatted info message with pre-set fields
func (fl *FieldLogger) Infof(format string, args ...interface{}) {
	fl.logger.log(LogLevelInfo, fmt.Sprintf(format, args...), nil, fl.fields)
}

// Warn logs a warning message with pre-set fields
func (fl *FieldLogger) Warn(message string) {
	fl.logger.log(LogLevelWarn, message, nil, fl.fields)
}

// Error logs an error message with pre-set fields
func (fl *FieldLogger) Error(message string, err error) {
	fl.logger.log(LogLevelError, message, err, fl.fields)
}
