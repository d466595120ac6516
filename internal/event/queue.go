package event

// Emitter accepts events from the core.
type Emitter interface {
	Emit(e Event)
}

// Observer receives delivered events. Implementations must not call back
// into the match.
type Observer interface {
	Notify(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// Queue buffers events emitted during an update so they are delivered after
// the core has finished mutating state. Single-goroutine use only.
type Queue struct {
	pending   []Event
	observers []Observer
}

// Compile-time check that Queue implements Emitter.
var _ Emitter = (*Queue)(nil)

// NewQueue creates a queue delivering to the given observers.
func NewQueue(observers ...Observer) *Queue {
	return &Queue{observers: observers}
}

// Subscribe adds an observer for future Flush calls.
func (q *Queue) Subscribe(o Observer) {
	if o != nil {
		q.observers = append(q.observers, o)
	}
}

// Emit appends an event to the pending buffer.
func (q *Queue) Emit(e Event) {
	q.pending = append(q.pending, e)
}

// Len returns the number of undelivered events.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Flush delivers every pending event exactly once, in emission order, to
// every observer. Events emitted by observers during delivery are kept for
// the next Flush. Returns the number of events delivered.
func (q *Queue) Flush() int {
	batch := q.pending
	q.pending = nil
	for _, e := range batch {
		for _, o := range q.observers {
			o.Notify(e)
		}
	}
	return len(batch)
}

// Drain returns and clears the pending events without delivering them.
func (q *Queue) Drain() []Event {
	batch := q.pending
	q.pending = nil
	return batch
}
