package rules

import (
	"sync"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// EventType indicates the category of a game event.
type EventType string

const (
	EventGameStarted      EventType = "GAME_STARTED"
	EventActionsUpdated   EventType = "ACTIONS_UPDATED"
	EventTurnCompleted    EventType = "TURN_COMPLETED"
	EventPieceCaptured    EventType = "PIECE_CAPTURED"
	EventMutationRequired EventType = "MUTATION_REQUIRED"
	EventMutationOffered  EventType = "MUTATION_OFFERED"
	EventMutationApplied  EventType = "MUTATION_APPLIED"
	EventClockFlagged     EventType = "CLOCK_FLAGGED"
	EventGameOver         EventType = "GAME_OVER"
)

// Event is a state change published by the turn engine.
type Event struct {
	Type    EventType
	GameID  string
	PieceID string
	Team    Team
	Ply     int
	Square  board.Square
	Action  *Action
	Actions Actions
	// Options carries mutation option identities.
	Options []string
	// Mutated is the identity a piece mutated into, empty if none.
	Mutated   string
	Winner    *Team
	Timestamp time.Time
}

// NewEvent creates an event with common fields populated.
func NewEvent(eventType EventType, gameID, pieceID string) Event {
	return Event{
		Type:      eventType,
		GameID:    gameID,
		PieceID:   pieceID,
		Timestamp: time.Now(),
	}
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType
	callback  Listener
}

// EventBus provides a synchronous publish/subscribe implementation with type
// filtering. Listeners are called in subscription order.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	return bus.SubscribeTyped("", listener)
}

// SubscribeTyped registers a listener for one event type. An empty type
// receives every event.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback Listener) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{handle: handle, eventType: eventType, callback: callback})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			bus.subs = append(bus.subs[:i], bus.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to all matching listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.eventType == "" || sub.eventType == event.Type {
			sub.callback(event)
		}
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
