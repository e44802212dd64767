package sim

// EventKind tags bus events.
type EventKind int

const (
	EventPeekStarted EventKind = iota
	EventPeekStopped
)

func (k EventKind) String() string {
	switch k {
	case EventPeekStarted:
		return "peek_started"
	case EventPeekStopped:
		return "peek_stopped"
	default:
		return "unknown"
	}
}

// Event is one published notification.
type Event struct {
	Kind  EventKind
	Agent AgentID
	Pos   Vec2
}

// EventBus queues events during a tick; the world drains the queue exactly
// once at the end of the tick and routes entries to their consumers. No
// synchronous fan-out from publish sites.
type EventBus struct {
	queue []Event
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (b *EventBus) Publish(ev Event) {
	b.queue = append(b.queue, ev)
}

// Drain hands every queued event to fn in publish order, then clears.
func (b *EventBus) Drain(fn func(Event)) {
	for _, ev := range b.queue {
		fn(ev)
	}
	b.queue = b.queue[:0]
}

// Pending returns the queued event count, for tests.
func (b *EventBus) Pending() int { return len(b.queue) }

// peekListener is implemented by states that react to another agent's
// exposure changes. The world fans drained events out to them.
type peekListener interface {
	OnPeek(a *Agent, w *World, ev Event)
}
