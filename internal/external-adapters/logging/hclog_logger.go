// Package logging adapts hclog to the domain Logger interface.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/openforbc/phoronix-converter/internal/domain/interfaces"
)

// Environment variables read when options leave a value unset
const (
	EnvLogLevel = "PHORONIX_CONVERTER_LOG_LEVEL"
	EnvLogPath  = "PHORONIX_CONVERTER_LOG_PATH"
)

// Options configures a Logger
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error; "json:<level>" switches to JSON
	JSON   bool
	Output io.Writer
}

// Logger implements interfaces.Logger on top of hclog
type Logger struct {
	hl     hclog.Logger
	closer io.Closer
}

// New creates a logger. Level falls back to PHORONIX_CONVERTER_LOG_LEVEL, then info.
// When Output is nil, PHORONIX_CONVERTER_LOG_PATH or stderr is used.
func New(opts Options) *Logger {
	level := opts.Level
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	jsonFormat := opts.JSON
	if rest, ok := strings.CutPrefix(level, "json"); ok {
		jsonFormat = true
		level = strings.TrimPrefix(rest, ":")
	}
	if level == "" {
		level = "info"
	}

	var closer io.Closer
	output := opts.Output
	if output == nil {
		output = os.Stderr
		if logPath := os.Getenv(EnvLogPath); logPath != "" {
			//nolint:gosec // G304: log path comes from the operator's environment
			if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
				output = file
				closer = file
			}
		}
	}

	name := opts.Name
	if name == "" {
		name = "phoronix-converter"
	}

	return &Logger{hl: hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}), closer: closer}
}

// Close releases the log file opened from PHORONIX_CONVERTER_LOG_PATH, if any
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// Named returns a sub-logger for a component
func (l *Logger) Named(name string) *Logger {
	return &Logger{hl: l.hl.Named(name)}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.hl.Debug(msg, args(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.hl.Info(msg, args(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.hl.Warn(msg, args(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.hl.Error(msg, args(fields)...)
}

func args(fields []interfaces.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
