// Package logging provides the structured, dual-mode logger used across the
// agent and cluster service. It wraps log/slog with a subsystem-tagged API
// and an alternate channel-based mode for a future interactive viewer.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEntry is the structured log entry passed to TUI-mode consumers.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

var (
	defaultLogger *slog.Logger
	tuiLogChannel chan LogEntry
	isTuiMode     bool
)

const tuiChannelBufferSize = 2048

// InitForCLI initializes the logger for attached-terminal operation: every
// call is written immediately through a text handler.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	isTuiMode = false
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: filterLevel.SlogLevel()})
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// InitForTUI initializes channel-based logging and returns the channel a
// future interactive viewer would drain. Kept as a thin pass-through; no
// viewer ships with this repository.
func InitForTUI(filterLevel LogLevel) <-chan LogEntry {
	isTuiMode = true
	tuiLogChannel = make(chan LogEntry, tuiChannelBufferSize)
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: filterLevel.SlogLevel()})
	defaultLogger = slog.New(handler)
	return tuiLogChannel
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	if !isTuiMode {
		if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
			return
		}
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	if isTuiMode {
		entry := LogEntry{Timestamp: now, Level: level, Subsystem: subsystem, Message: msg, Err: err}
		select {
		case tuiLogChannel <- entry:
		default:
			fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] TUI log channel full. Dropping: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		}
		return
	}

	if defaultLogger == nil {
		fmt.Fprintf(os.Stderr, "[LOGGING_ERROR] logger not initialized. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		return
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message alongside the error that triggered it.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}
