package machine

// EventKind identifies machine events.
type EventKind string

const (
	EventTransitionStarted   EventKind = "transition_started"
	EventTransitionCompleted EventKind = "transition_completed"
	EventTransitionRejected  EventKind = "transition_rejected"
)

// Event is emitted when the transition lifecycle changes.
type Event struct {
	Kind       EventKind
	Transition int
	Name       string
	From       StateHandle
	To         StateHandle
	Err        error
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
