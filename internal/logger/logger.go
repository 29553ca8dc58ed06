// Package logger provides the component-tagged structured logging used
// throughout the daemon. Every call site names the originating component
// so operators can filter a single subsystem's output.
package logger

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
)

// Fields is a convenience alias for structured log attributes.
type Fields map[string]interface{}

// Init replaces the base logger, e.g. to redirect to a file or change
// the minimum level. Safe to call before any other logger function.
func Init(w zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = w
}

// SetLevel adjusts the global minimum level (debug, info, warn, error).
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func withFields(e *zerolog.Event, fields Fields) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

// Info logs a plain informational message with no component tag.
func Info(msg string) { current().Info().Msg(msg) }

// Warn logs a plain warning message with no component tag.
func Warn(msg string) { current().Warn().Msg(msg) }

// Error logs a plain error message with no component tag.
func Error(msg string) { current().Error().Msg(msg) }

// Debug logs a plain debug message with no component tag.
func Debug(msg string) { current().Debug().Msg(msg) }

// InfoCF logs an informational message tagged with a component and
// optional structured fields.
func InfoCF(component, msg string, fields Fields) {
	withFields(current().Info().Str("component", component), fields).Msg(msg)
}

// WarnCF logs a warning tagged with a component and optional fields.
func WarnCF(component, msg string, fields Fields) {
	withFields(current().Warn().Str("component", component), fields).Msg(msg)
}

// ErrorCF logs an error tagged with a component and optional fields.
func ErrorCF(component, msg string, fields Fields) {
	withFields(current().Error().Str("component", component), fields).Msg(msg)
}

// DebugCF logs a debug message tagged with a component and optional fields.
func DebugCF(component, msg string, fields Fields) {
	withFields(current().Debug().Str("component", component), fields).Msg(msg)
}
