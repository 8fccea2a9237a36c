// Package telemetry provides colony health tracking, event history and CSV output.
package telemetry

import "log/slog"

// EventType identifies notable colony events.
type EventType string

const (
	EventProcessComplete EventType = "process_complete"
	EventMissionComplete EventType = "mission_complete"
	EventPowerCritical   EventType = "power_critical"
	EventDayAdvance      EventType = "day_advance"
	EventUpgrade         EventType = "upgrade"
	EventPanelBuilt      EventType = "panel_built"
	EventVictory         EventType = "victory"
)

// Event is a single entry in the colony log.
type Event struct {
	Type    EventType `csv:"type"`
	Tick    int64     `csv:"tick"`
	SimTime float64   `csv:"sim_time"`
	Sol     int       `csv:"sol"`
	Subject string    `csv:"subject"` // process or upgrade name, empty otherwise
	Amount  float64   `csv:"amount"`  // panel count, ore recovered or battery fraction
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	attrs := []any{
		"type", string(e.Type),
		"tick", e.Tick,
		"sol", e.Sol,
	}
	if e.Subject != "" {
		attrs = append(attrs, "subject", e.Subject)
	}
	if e.Amount != 0 {
		attrs = append(attrs, "amount", e.Amount)
	}
	slog.Info("event", attrs...)
}

// EventLog keeps the most recent events in a circular buffer.
type EventLog struct {
	events []Event
	size   int
	next   int
	full   bool
	total  int
}

// NewEventLog creates a log holding up to size events.
func NewEventLog(size int) *EventLog {
	if size < 1 {
		size = 256
	}
	return &EventLog{
		events: make([]Event, size),
		size:   size,
	}
}

// Append records an event, evicting the oldest when full.
func (l *EventLog) Append(e Event) {
	l.events[l.next] = e
	l.next = (l.next + 1) % l.size
	if l.next == 0 {
		l.full = true
	}
	l.total++
}

// Recent returns up to n events, oldest first.
func (l *EventLog) Recent(n int) []Event {
	held := l.next
	if l.full {
		held = l.size
	}
	if n <= 0 || n > held {
		n = held
	}

	out := make([]Event, 0, n)
	start := (l.next - n + l.size) % l.size
	for i := 0; i < n; i++ {
		out = append(out, l.events[(start+i)%l.size])
	}
	return out
}

// Count returns the total number of events ever appended.
func (l *EventLog) Count() int {
	return l.total
}

// CountByType tallies the retained events by type.
func (l *EventLog) CountByType() map[EventType]int {
	counts := make(map[EventType]int)
	for _, e := range l.Recent(0) {
		counts[e.Type]++
	}
	return counts
}
