// Package logger provides levelled logging for shwrap with optional colors and
// key/value fields. It honours --verbose and --debug; in debug mode every line
// is also appended to $HOME/.shwrap/logs/shwrap-YYYY-MM-DD.log.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelVerbose
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelVerbose:
		return "VERBOSE"
	case LevelDebug:
		return "DEBUG"
	}
	return "LOG"
}

func (l Level) color() string {
	switch l {
	case LevelError:
		return "\033[31m"
	case LevelWarn:
		return "\033[33m"
	case LevelInfo:
		return "\033[32m"
	case LevelVerbose:
		return "\033[36m"
	case LevelDebug:
		return "\033[35m"
	}
	return ""
}

// Fields are key/value pairs appended to a log line in sorted key order.
type Fields map[string]interface{}

// Logger writes levelled lines to an output and an optional file.
type Logger struct {
	mu      sync.Mutex
	level   Level
	output  io.Writer
	file    *os.File
	colors  bool
	timings map[string]time.Time
	now     func() time.Time
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// New returns a logger writing to w at the given level without colors.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level:   level,
		output:  w,
		timings: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Initialize sets up the global logger
func Initialize(verbose, debug bool) {
	once.Do(func() {
		level := LevelInfo
		if verbose {
			level = LevelVerbose
		}
		if debug {
			level = LevelDebug
		}

		defaultLogger = New(os.Stderr, level)
		defaultLogger.colors = isTerminal()

		if debug {
			logDir := os.ExpandEnv("$HOME/.shwrap/logs")
			_ = os.MkdirAll(logDir, 0o755)
			logFile := filepath.Join(logDir, fmt.Sprintf("shwrap-%s.log", time.Now().Format("2006-01-02")))
			if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				defaultLogger.file = file
				Debugf("Logging to %s", logFile)
			}
		}
	})
}

// Default returns the global logger, or nil before Initialize.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the global logger. Intended for tests and embedding.
func SetDefault(l *Logger) { defaultLogger = l }

// Close closes any resources used by the logger
func Close() {
	if defaultLogger != nil && defaultLogger.file != nil {
		_ = defaultLogger.file.Close()
	}
}

// Enabled reports whether the global logger emits lines at level.
func Enabled(level Level) bool {
	return defaultLogger != nil && level <= defaultLogger.level
}

func Info(msg string)                          { logAt(LevelInfo, msg, nil) }
func Infof(format string, args ...interface{}) { Info(fmt.Sprintf(format, args...)) }

func Verbose(msg string)                          { logAt(LevelVerbose, msg, nil) }
func Verbosef(format string, args ...interface{}) { Verbose(fmt.Sprintf(format, args...)) }

func Debug(msg string)                          { logAt(LevelDebug, msg, nil) }
func Debugf(format string, args ...interface{}) { Debug(fmt.Sprintf(format, args...)) }

func Warn(msg string)                          { logAt(LevelWarn, msg, nil) }
func Warnf(format string, args ...interface{}) { Warn(fmt.Sprintf(format, args...)) }

func Error(msg string)                          { logAt(LevelError, msg, nil) }
func Errorf(format string, args ...interface{}) { Error(fmt.Sprintf(format, args...)) }

// Verbosew logs msg with fields at verbose level.
func Verbosew(msg string, fields Fields) { logAt(LevelVerbose, msg, fields) }

// Debugw logs msg with fields at debug level.
func Debugw(msg string, fields Fields) { logAt(LevelDebug, msg, fields) }

func logAt(level Level, msg string, fields Fields) {
	if defaultLogger != nil {
		defaultLogger.log(level, msg, fields)
	}
}

// StartTimer begins timing an operation
func StartTimer(operation string) {
	if Enabled(LevelVerbose) {
		defaultLogger.mu.Lock()
		defaultLogger.timings[operation] = defaultLogger.now()
		defaultLogger.mu.Unlock()
		Verbosef("⏱  Starting: %s", operation)
	}
}

// EndTimer logs the duration of an operation
func EndTimer(operation string) {
	if !Enabled(LevelVerbose) {
		return
	}
	defaultLogger.mu.Lock()
	start, ok := defaultLogger.timings[operation]
	delete(defaultLogger.timings, operation)
	defaultLogger.mu.Unlock()
	if ok {
		Verbosef("✓ Completed %s in %v", operation, time.Since(start))
	}
}

// Log writes msg with fields at level on l.
func (l *Logger) Log(level Level, msg string, fields Fields) {
	l.log(level, msg, fields)
}

func (l *Logger) log(level Level, msg string, fields Fields) {
	if level > l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := l.now().Format("15:04:05")
	prefix := level.String()
	if l.colors {
		prefix = level.color() + prefix + "\033[0m"
	}

	caller := ""
	if level == LevelDebug {
		if _, file, line, ok := runtime.Caller(3); ok {
			caller = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	line := fmt.Sprintf("[%s] %s%s: %s%s\n", timestamp, prefix, caller, strings.TrimRight(msg, "\n"), formatFields(fields))
	fmt.Fprint(l.output, line)
	if l.file != nil {
		fmt.Fprint(l.file, line)
	}
}

func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, fields[k])
	}
	return sb.String()
}

func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
