// Package logging builds bolt loggers for the engine and the CLI.
package logging

import (
	"io"
	"os"

	"github.com/felixgeelhaar/bolt/v3"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is the output format (json or console).
	Format string `yaml:"format"`

	// Output is the destination. Nil means stderr.
	Output io.Writer `yaml:"-"`
}

// DefaultConfig returns console output at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

// parseLevel converts a string level to bolt.Level.
func parseLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// New returns a logger for config.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	var handler bolt.Handler
	if config.Format == "json" {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}
	return bolt.New(handler).SetLevel(parseLevel(config.Level))
}

// Discard returns a logger that drops everything.
func Discard() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(io.Discard)).SetLevel(bolt.ERROR)
}

// Event wraps a bolt.Event for field application.
type Event struct {
	event *bolt.Event
}

// Add applies a field to the event and returns the wrapper for chaining.
func (e *Event) Add(f Field) *Event {
	if e.event != nil {
		e.event = f(e.event)
	}
	return e
}

// Msg sends the event with a message.
func (e *Event) Msg(msg string) {
	if e.event != nil {
		e.event.Msg(msg)
	}
}

// Debug starts a debug event on l. A nil logger discards.
func Debug(l *bolt.Logger) *Event {
	if l == nil {
		return &Event{}
	}
	return &Event{event: l.Debug()}
}

// Info starts an info event on l.
func Info(l *bolt.Logger) *Event {
	if l == nil {
		return &Event{}
	}
	return &Event{event: l.Info()}
}

// Warn starts a warn event on l.
func Warn(l *bolt.Logger) *Event {
	if l == nil {
		return &Event{}
	}
	return &Event{event: l.Warn()}
}

// Error starts an error event on l.
func Error(l *bolt.Logger) *Event {
	if l == nil {
		return &Event{}
	}
	return &Event{event: l.Error()}
}
