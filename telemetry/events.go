// Package telemetry provides flock statistics, performance timing, event
// logging, metrics and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventActivated EventType = iota
	EventDispatchFailure
	EventDeactivated
	EventShutdown
	EventBookmark
)

// String returns the event name used in events.csv.
func (t EventType) String() string {
	switch t {
	case EventActivated:
		return "activated"
	case EventDispatchFailure:
		return "dispatch_failure"
	case EventDeactivated:
		return "deactivated"
	case EventShutdown:
		return "shutdown"
	case EventBookmark:
		return "bookmark"
	default:
		return "unknown"
	}
}

// Event represents a single population lifecycle event or bookmark.
type Event struct {
	Type       EventType `csv:"-"`
	Name       string    `csv:"event"`
	Tick       int32     `csv:"tick"`
	SimTimeSec float64   `csv:"sim_time"`
	Population string    `csv:"population"`
	Count      int       `csv:"count"`
	Err        string    `csv:"error"`
	Detail     string    `csv:"detail"`
}

func newEvent(t EventType, tick int32, simTime float64, population string) Event {
	return Event{Type: t, Name: t.String(), Tick: tick, SimTimeSec: simTime, Population: population}
}

// NewActivatedEvent records a population that finished initialization.
func NewActivatedEvent(tick int32, simTime float64, population string, count int) Event {
	e := newEvent(EventActivated, tick, simTime, population)
	e.Count = count
	return e
}

// NewDispatchFailureEvent records a failed tick.
func NewDispatchFailureEvent(tick int32, simTime float64, population string, err error) Event {
	e := newEvent(EventDispatchFailure, tick, simTime, population)
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

// NewDeactivatedEvent records a population removed by the host.
func NewDeactivatedEvent(tick int32, simTime float64, population string) Event {
	return newEvent(EventDeactivated, tick, simTime, population)
}

// NewShutdownEvent records a population released at world close.
func NewShutdownEvent(tick int32, simTime float64, population string) Event {
	return newEvent(EventShutdown, tick, simTime, population)
}

// NewBookmarkEvent records a detected flock bookmark.
func NewBookmarkEvent(simTime float64, b Bookmark) Event {
	e := newEvent(EventBookmark, b.Tick, simTime, b.Population)
	e.Detail = string(b.Type) + ": " + b.Description
	return e
}
