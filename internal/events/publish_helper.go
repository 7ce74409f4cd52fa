package events

import (
	"log/slog"
)

// PublishHelper wraps event publishing with nil-safety and convenience
// methods. Publication is fire-and-forget: it runs only after a mutation
// has committed, and any failure is logged and swallowed so a missed
// live-update can never unwind the caller.
//
// Thread-safe: all methods can be called concurrently.
type PublishHelper struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewPublishHelper creates a new PublishHelper wrapping the given publisher.
// If p is nil, all publish operations become no-ops.
func NewPublishHelper(p Publisher, logger *slog.Logger) *PublishHelper {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishHelper{publisher: p, logger: logger}
}

// Publish sends an event to the underlying publisher.
// Safe to call with nil publisher (no-op). A panicking publisher is
// recovered and logged.
func (ep *PublishHelper) Publish(ev Event) {
	if ep == nil || ep.publisher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			ep.logger.Error("event publish failed", "type", ev.Type, "board_id", ev.BoardID, "panic", r)
		}
	}()
	ep.publisher.Publish(ev)
}

// TaskCreated publishes a task-created event.
func (ep *PublishHelper) TaskCreated(boardID, tenantID string, task any) {
	ep.Publish(NewEvent(EventTaskCreated, boardID, tenantID, task))
}

// TaskUpdated publishes a task-updated event.
func (ep *PublishHelper) TaskUpdated(boardID, tenantID string, task any) {
	ep.Publish(NewEvent(EventTaskUpdated, boardID, tenantID, task))
}

// TaskDeleted publishes a task-deleted event.
func (ep *PublishHelper) TaskDeleted(boardID, tenantID string, task any) {
	ep.Publish(NewEvent(EventTaskDeleted, boardID, tenantID, task))
}

// RelationshipCreated publishes a task-relationship-created event.
func (ep *PublishHelper) RelationshipCreated(boardID, tenantID string, rel any) {
	ep.Publish(NewEvent(EventRelationshipCreated, boardID, tenantID, rel))
}

// RelationshipDeleted publishes a task-relationship-deleted event.
func (ep *PublishHelper) RelationshipDeleted(boardID, tenantID string, rel any) {
	ep.Publish(NewEvent(EventRelationshipDeleted, boardID, tenantID, rel))
}

// BoardCreated publishes a board-created event.
func (ep *PublishHelper) BoardCreated(boardID, tenantID string, board any) {
	ep.Publish(NewEvent(EventBoardCreated, boardID, tenantID, board))
}

// BoardUpdated publishes a board-updated event.
func (ep *PublishHelper) BoardUpdated(boardID, tenantID string, board any) {
	ep.Publish(NewEvent(EventBoardUpdated, boardID, tenantID, board))
}

// BoardReordered publishes a board-reordered event.
func (ep *PublishHelper) BoardReordered(boardID, tenantID string, payload any) {
	ep.Publish(NewEvent(EventBoardReordered, boardID, tenantID, payload))
}
