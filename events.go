package treads

import (
	"github.com/ByteArena/box2d"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
)

type EventType uint8

// Event reports a contact transition between two named world elements.
type Event struct {
	Kind EventType
	// Element names in normalized order.
	A, B string
}

func (e Event) Type() EventType { return e.Kind }

// EventListener - callback for events
type EventListener func(event Event)

type pairKey struct {
	a, b string
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Events turns per-tick touching contact pairs into Enter/Stay/Exit
// notifications. The world feeds it after every integration step.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Contact tracking for Enter/Stay/Exit detection
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 64),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContacts walks the physics engine's contact list and marks every
// touching pair of known elements as active this tick.
func (e *Events) recordContacts(world *box2d.B2World, names map[*box2d.B2Body]string) {
	for c := world.GetContactList(); c != nil; c = c.GetNext() {
		if !c.IsTouching() {
			continue
		}
		nameA, okA := names[c.GetFixtureA().GetBody()]
		nameB, okB := names[c.GetFixtureB().GetBody()]
		if !okA || !okB {
			continue
		}
		e.currentActivePairs[makePairKey(nameA, nameB)] = true
	}
}

// forget drops any tracked pair involving the named element; called when
// the element leaves the world.
func (e *Events) forget(name string) {
	for pair := range e.previousActivePairs {
		if pair.a == name || pair.b == name {
			delete(e.previousActivePairs, pair)
		}
	}
	for pair := range e.currentActivePairs {
		if pair.a == name || pair.b == name {
			delete(e.currentActivePairs, pair)
		}
	}
}

// processContactEvents compares current and previous pairs to detect
// Enter/Stay/Exit transitions.
func (e *Events) processContactEvents() {
	for pair := range e.currentActivePairs {
		if e.previousActivePairs[pair] {
			// Pair was active before and still is, Stay
			e.buffer = append(e.buffer, Event{Kind: COLLISION_STAY, A: pair.a, B: pair.b})
		} else {
			// New pair, Enter
			e.buffer = append(e.buffer, Event{Kind: COLLISION_ENTER, A: pair.a, B: pair.b})
		}
	}

	for pair := range e.previousActivePairs {
		if !e.currentActivePairs[pair] {
			// Pair was active but is no longer, Exit
			e.buffer = append(e.buffer, Event{Kind: COLLISION_EXIT, A: pair.a, B: pair.b})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processContactEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
