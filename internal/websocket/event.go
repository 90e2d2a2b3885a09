package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTrip    EntityType = "trip"
	EntityTypeBalance EntityType = "balance"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string     `json:"type"`   // e.g. "trip.updated"
	Entity    EntityType `json:"entity"` // e.g. "trip"
	Payload   any        `json:"payload"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload any) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TripCreated creates a trip.created event
func TripCreated(payload any) Event {
	return NewEvent(EventTypeCreated, EntityTypeTrip, payload)
}

// TripUpdated creates a trip.updated event
func TripUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTrip, payload)
}

// TripDeleted creates a trip.deleted event
func TripDeleted(payload any) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTrip, payload)
}

// BalanceUpdated creates a balance.updated event
func BalanceUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBalance, payload)
}
