// Package logging provides structured logging for MindfulTube.
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

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) Color() string {
	switch l {
	case DEBUG:
		return "\033[36m" // Cyan
	case INFO:
		return "\033[32m" // Green
	case WARN:
		return "\033[33m" // Yellow
	case ERROR:
		return "\033[31m" // Red
	default:
		return "\033[0m"
	}
}

// ParseLevel maps a config string to a Level. Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// sink is shared by a logger and every logger derived from it, so
// SetLevel/SetOutput reach component loggers created earlier.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	color  bool
}

// Logger is a structured logger
type Logger struct {
	sink   *sink
	fields map[string]interface{}
}

var defaultLogger = &Logger{
	sink: &sink{
		level:  INFO,
		output: os.Stdout,
		color:  true,
	},
	fields: make(map[string]interface{}),
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	defaultLogger.sink.mu.Lock()
	defaultLogger.sink.level = level
	defaultLogger.sink.mu.Unlock()
}

// SetOutput sets the output writer
func SetOutput(w io.Writer) {
	defaultLogger.sink.mu.Lock()
	defaultLogger.sink.output = w
	defaultLogger.sink.mu.Unlock()
}

// SetColor toggles ANSI colors on level tags
func SetColor(enabled bool) {
	defaultLogger.sink.mu.Lock()
	defaultLogger.sink.color = enabled
	defaultLogger.sink.mu.Unlock()
}

// Component returns a logger tagged with the component name.
func Component(name string) *Logger {
	return defaultLogger.WithField("component", name)
}

// WithField returns a logger with a field added
func WithField(key string, value interface{}) *Logger {
	return defaultLogger.WithField(key, value)
}

// WithFields returns a logger with multiple fields added
func WithFields(fields map[string]interface{}) *Logger {
	return defaultLogger.WithFields(fields)
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields adds multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newLogger := &Logger{
		sink:   l.sink,
		fields: make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// WithError attaches an error under the "error" key
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}

	timestamp := time.Now().Format("15:04:05")

	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}

	// Fields are sorted so lines are stable across runs
	var fieldsStr strings.Builder
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fieldsStr.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&fieldsStr, " %s=%v", k, l.fields[k])
		}
	}

	tag := "[" + level.String() + "]"
	if s.color {
		tag = level.Color() + tag + "\033[0m"
	}

	fmt.Fprintf(s.output, "%s %s %s%s\n", timestamp, tag, formatted, fieldsStr.String())
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	defaultLogger.log(DEBUG, msg, args...)
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	defaultLogger.log(INFO, msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	defaultLogger.log(WARN, msg, args...)
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	defaultLogger.log(ERROR, msg, args...)
}

// Logger methods
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(ERROR, msg, args...) }
