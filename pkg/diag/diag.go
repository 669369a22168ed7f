// Package diag provides the diagnostics channel used by scans and copies.
//
// Long-running operations publish discrete events (a skipped file, a repaired
// record, a failed copy) through a [Sink]. Publishing is fire-and-forget: the
// engine never waits on a sink and never assumes a UI is listening. Callers
// that need to marshal events onto a UI thread do so in their own Sink
// implementation.
//
// # Usage
//
//	collector := diag.NewCollector()
//	sink := diag.Multi(collector, diag.NewLogSink(logger))
//	sink.Warningf("art/forest/managedItemData.json", "dropped duplicate key %q", key)
//	// ... after the run:
//	for _, ev := range collector.Events() { ... }
package diag

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Level classifies the severity of an event.
type Level int

const (
	// Info reports normal progress (phase complete, file batch done).
	Info Level = iota
	// Warning reports a degraded condition the run recovered from
	// (repaired JSON, skipped record, unresolved reference).
	Warning
	// Error reports a failed unit of work (unreadable file, failed copy).
	// Errors never abort the run by themselves; they are counted and
	// surfaced in the summary.
	Error
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Event is one diagnostic message. Path names the file the event is about,
// when there is one.
type Event struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// Sink receives events. Publish must not block on slow consumers and must
// be safe for use from the single goroutine running the operation.
type Sink interface {
	Publish(ev Event)
}

// Convenience constructors for the three levels. Path may be empty.

// Infof publishes an Info event to s.
func Infof(s Sink, path, format string, args ...any) {
	s.Publish(Event{Level: Info, Message: fmt.Sprintf(format, args...), Path: path})
}

// Warningf publishes a Warning event to s.
func Warningf(s Sink, path, format string, args ...any) {
	s.Publish(Event{Level: Warning, Message: fmt.Sprintf(format, args...), Path: path})
}

// Errorf publishes an Error event to s.
func Errorf(s Sink, path, format string, args ...any) {
	s.Publish(Event{Level: Error, Message: fmt.Sprintf(format, args...), Path: path})
}

// =============================================================================
// Collector
// =============================================================================

// Collector is a Sink that records every event in order. It backs run
// reports and tests. Collector is safe for concurrent use, although scans
// publish from a single goroutine.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Publish appends the event.
func (c *Collector) Publish(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a copy of the recorded events in publish order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Count returns the number of recorded events at the given level.
func (c *Collector) Count(level Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Level == level {
			n++
		}
	}
	return n
}

// =============================================================================
// Log sink
// =============================================================================

// LogSink forwards events to a charmbracelet logger. Info events log at
// debug level so routine progress stays out of default CLI output.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a sink writing to logger. A nil logger uses log.Default.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

// Publish logs the event at a level matching its severity.
func (s *LogSink) Publish(ev Event) {
	switch ev.Level {
	case Error:
		if ev.Path != "" {
			s.logger.Error(ev.Message, "path", ev.Path)
		} else {
			s.logger.Error(ev.Message)
		}
	case Warning:
		if ev.Path != "" {
			s.logger.Warn(ev.Message, "path", ev.Path)
		} else {
			s.logger.Warn(ev.Message)
		}
	default:
		if ev.Path != "" {
			s.logger.Debug(ev.Message, "path", ev.Path)
		} else {
			s.logger.Debug(ev.Message)
		}
	}
}

// =============================================================================
// Composition
// =============================================================================

// multiSink fans events out to several sinks.
type multiSink []Sink

func (m multiSink) Publish(ev Event) {
	for _, s := range m {
		s.Publish(ev)
	}
}

// Multi returns a sink that publishes to every given sink in order.
// Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// discard is a Sink that drops everything.
type discard struct{}

func (discard) Publish(Event) {}

// Discard returns a sink that ignores all events.
func Discard() Sink { return discard{} }
