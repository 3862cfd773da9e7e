package events

import "time"

// Kind names an event type within the voice_session namespace.
type Kind string

// Event is implemented by every voice session event. Consumers either switch
// on the concrete type or route on Kind.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all voice session
// events. Concrete events embed it and are built through their New
// constructors, which stamp the emission time.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
