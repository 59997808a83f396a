// ============================================================================
// mBASIC - Scripting Language Front-End
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating service and command loggers
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	mdwlog "github.com/msto63/mbasic/foundation/core/log"
)

var (
	defaultsMu sync.RWMutex
	defaults   = struct {
		level  string
		format string
		output io.Writer
	}{level: "info", format: "text", output: os.Stderr}
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or component name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: json, text, console or logfmt
	Format string

	// Output writer (default: the configured process output, stderr)
	Output io.Writer

	// Additional outputs besides Output
	AdditionalOutputs []io.Writer
}

// Configure sets the process-wide level, format and output used by
// DefaultLoggerConfig and New, and replaces the foundation default logger.
// Empty values and a nil output keep the current setting.
func Configure(level, format string, output io.Writer) {
	defaultsMu.Lock()
	if level != "" {
		defaults.level = level
	}
	if format != "" {
		defaults.format = format
	}
	if output != nil {
		defaults.output = output
	}
	defaultsMu.Unlock()

	mdwlog.SetDefault(NewLogger(DefaultLoggerConfig("")))
}

// DefaultLoggerConfig returns the process defaults for a service
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()

	return LoggerConfig{
		ServiceName: serviceName,
		Level:       defaults.level,
		Format:      defaults.format,
		Output:      defaults.output,
	}
}

// NewLogger creates a new Foundation logger
func NewLogger(cfg LoggerConfig) *mdwlog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	format, err := mdwlog.ParseFormat(cfg.Format)
	if err != nil {
		format = mdwlog.FormatJSON
	}

	return mdwlog.NewWithConfig(mdwlog.Config{
		Level:  parseLevel(cfg.Level),
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
}

// NewServiceLogger creates a logger for a service with the process defaults
func NewServiceLogger(serviceName string) *mdwlog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

// parseLevel converts a string level to mdwlog.Level, defaulting to info
func parseLevel(level string) mdwlog.Level {
	if strings.EqualFold(level, "warning") {
		return mdwlog.LevelWarn
	}
	l, err := mdwlog.ParseLevel(level)
	if err != nil {
		return mdwlog.LevelInfo
	}
	return l
}

// Key/value layer used by servers and commands

// Logger wraps the Foundation logger with key/value logging methods
type Logger struct {
	*mdwlog.Logger
	name string
}

// New creates a key/value logger with the process defaults
func New(name string) *Logger {
	return &Logger{
		Logger: NewServiceLogger(name),
		name:   name,
	}
}

// Wrap adapts an existing Foundation logger
func Wrap(logger *mdwlog.Logger, name string) *Logger {
	return &Logger{Logger: logger.WithName(name), name: name}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level string) *Logger {
	return &Logger{
		Logger: l.Logger.WithLevel(parseLevel(level)),
		name:   l.name,
	}
}

// With returns a logger carrying the given key/value pairs on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.WithFields(toFields(keysAndValues...)),
		name:   l.name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to mdwlog.Fields
func toFields(keysAndValues ...interface{}) mdwlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(mdwlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
