// Package telemetry provides histories, run statistics and CSV output for
// simulation runs.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventDeath EventType = iota
	EventConsume
	EventDisturbanceOn
	EventDisturbanceOff
)

func (t EventType) String() string {
	switch t {
	case EventDeath:
		return "death"
	case EventConsume:
		return "consume"
	case EventDisturbanceOn:
		return "disturbance_on"
	case EventDisturbanceOff:
		return "disturbance_off"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type   EventType
	Tick   int
	Source string  // agent or disturbance name
	Amount float64 // energy yield for consume events
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int, agent string) Event {
	return Event{Type: EventDeath, Tick: tick, Source: agent}
}

// NewConsumeEvent creates an event for a consumable eaten by some agent.
func NewConsumeEvent(tick int, consumable string, yield float64) Event {
	return Event{Type: EventConsume, Tick: tick, Source: consumable, Amount: yield}
}

// NewDisturbanceEvent creates an event for a disturbance switching on or off.
func NewDisturbanceEvent(tick int, name string, enabled bool) Event {
	t := EventDisturbanceOff
	if enabled {
		t = EventDisturbanceOn
	}
	return Event{Type: t, Tick: tick, Source: name}
}
