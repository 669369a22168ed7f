package diag

import (
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{Info, "info"},
		{Warning, "warning"},
		{Error, "error"},
		{Level(42), "level(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), got, tt.expected)
		}
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	Infof(c, "", "scanned %d files", 3)
	Warningf(c, "art/forest/brushes.json", "dropped duplicate key %q", "rock")
	Errorf(c, "art/shapes/rock.dae", "copy failed")

	events := c.Events()
	if len(events) != 3 {
		t.Fatalf("Events() returned %d events, want 3", len(events))
	}

	if events[0].Level != Info || events[0].Message != "scanned 3 files" {
		t.Errorf("event 0 = %+v, want info 'scanned 3 files'", events[0])
	}
	if events[1].Level != Warning || events[1].Path != "art/forest/brushes.json" {
		t.Errorf("event 1 = %+v, want warning with path", events[1])
	}
	if events[2].Level != Error {
		t.Errorf("event 2 = %+v, want error", events[2])
	}

	if got := c.Count(Warning); got != 1 {
		t.Errorf("Count(Warning) = %d, want 1", got)
	}
	if got := c.Count(Error); got != 1 {
		t.Errorf("Count(Error) = %d, want 1", got)
	}
}

func TestCollectorEventsIsCopy(t *testing.T) {
	c := NewCollector()
	Infof(c, "", "one")

	events := c.Events()
	events[0].Message = "mutated"

	if c.Events()[0].Message != "one" {
		t.Error("mutating the returned slice changed the collector's state")
	}
}

func TestMulti(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	sink := Multi(a, nil, b)
	Warningf(sink, "x.json", "problem")

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("Multi did not fan out: a=%d b=%d events", len(a.Events()), len(b.Events()))
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic and must accept anything.
	s := Discard()
	s.Publish(Event{Level: Error, Message: "ignored"})
	Infof(s, "p", "ignored too")
}
