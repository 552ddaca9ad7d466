package model

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventSubmitted EventKind = "submitted"
	EventVerified  EventKind = "verified"
	EventRejected  EventKind = "rejected"
	EventRemoved   EventKind = "removed"
	EventRevoked   EventKind = "revoked"
	EventRestored  EventKind = "restored"
	EventStatus    EventKind = "status"

	EventCreated       EventKind = "created"
	EventUpdated       EventKind = "updated"
	EventEditSubmitted EventKind = "edit_submitted"
	EventEditUpdated   EventKind = "edit_updated"
	EventEditApproved  EventKind = "edit_approved"
	EventEditRejected  EventKind = "edit_rejected"
)

// Event is what the registry hands to the notification collaborator.
type Event struct {
	ID       uuid.UUID   `json:"id"`
	Kind     EventKind   `json:"kind"`
	Table    ObjectTable `json:"table"`
	ObjectID uint        `json:"object_id"`
	GameName string      `json:"game_name"`
	ActorID  uint        `json:"actor_id"`
	Reason   string      `json:"reason,omitempty"`
	Entity   any         `json:"entity,omitempty"`
	Previous any         `json:"previous,omitempty"`
	At       time.Time   `json:"at"`
}

func NewEvent(kind EventKind, table ObjectTable, objectID uint, gameName string, actorID uint) Event {
	return Event{
		ID:       uuid.New(),
		Kind:     kind,
		Table:    table,
		ObjectID: objectID,
		GameName: gameName,
		ActorID:  actorID,
		At:       time.Now().UTC(),
	}
}
