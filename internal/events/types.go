// Package events provides event types and publishing infrastructure for boardwalk.
package events

import (
	"time"
)

// EventType defines the type of event.
type EventType string

const (
	// EventTaskCreated indicates a new task was created.
	EventTaskCreated EventType = "task-created"
	// EventTaskUpdated indicates a task was modified, reordered, or moved.
	EventTaskUpdated EventType = "task-updated"
	// EventTaskDeleted indicates a task was deleted.
	EventTaskDeleted EventType = "task-deleted"
	// EventRelationshipCreated indicates a relationship edge was created.
	EventRelationshipCreated EventType = "task-relationship-created"
	// EventRelationshipDeleted indicates a relationship edge was deleted.
	EventRelationshipDeleted EventType = "task-relationship-deleted"
	// EventBoardCreated indicates a new board was created.
	EventBoardCreated EventType = "board-created"
	// EventBoardUpdated indicates a board was modified.
	EventBoardUpdated EventType = "board-updated"
	// EventBoardReordered indicates board or column ordering changed.
	EventBoardReordered EventType = "board-reordered"
)

// Event represents a published event. Events are delivered at most once to
// live subscribers of the owning tenant; there is no durable event log, so
// a missed event is recovered by a client-side refetch.
type Event struct {
	Type     EventType `json:"type"`
	BoardID  string    `json:"board_id"`
	TenantID string    `json:"tenant_id,omitempty"`
	Payload  any       `json:"payload"`
	Time     time.Time `json:"time"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, boardID, tenantID string, payload any) Event {
	return Event{
		Type:     eventType,
		BoardID:  boardID,
		TenantID: tenantID,
		Payload:  payload,
		Time:     time.Now(),
	}
}
