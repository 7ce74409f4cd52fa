package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mpelletier/boardwalk/internal/db"
	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
	"github.com/mpelletier/boardwalk/internal/events"
)

// Engine is the facade route and service code calls into. Every mutation
// reads current state fresh, builds one mutation plan, applies it
// atomically through the coordinator, and publishes events post-commit.
// The engine holds no shared mutable state between calls.
type Engine struct {
	store         *db.DB
	coord         *Coordinator
	positions     *PositionManager
	relationships *RelationshipManager
	events        *events.PublishHelper
	logger        *slog.Logger
}

// New creates an engine over the given store and coordinator. pub may be
// nil to disable event publication.
func New(store *db.DB, coord *Coordinator, pub events.Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:         store,
		coord:         coord,
		positions:     NewPositionManager(store),
		relationships: NewRelationshipManager(store),
		events:        events.NewPublishHelper(pub, logger),
		logger:        logger,
	}
}

// NewTask describes a task to create.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ColumnID    string `json:"column_id"`
}

// --- Task operations ---

// CreateTaskAtBottom creates a task at the bottom of its column.
func (e *Engine) CreateTaskAtBottom(ctx context.Context, nt NewTask) (*db.Task, error) {
	return e.createTask(ctx, nt, false)
}

// CreateTaskAtTop creates a task at position 0, shifting the column down.
func (e *Engine) CreateTaskAtTop(ctx context.Context, nt NewTask) (*db.Task, error) {
	return e.createTask(ctx, nt, true)
}

func (e *Engine) createTask(ctx context.Context, nt NewTask, atTop bool) (*db.Task, error) {
	col, board, err := e.resolveColumn(ctx, nt.ColumnID)
	if err != nil {
		return nil, err
	}

	task := &db.Task{
		ID:          uuid.NewString(),
		ColumnID:    col.ID,
		BoardID:     col.BoardID,
		Title:       nt.Title,
		Description: nt.Description,
	}

	var plan *Plan
	if atTop {
		plan, err = e.positions.PlanCreateAtTop(ctx, task)
	} else {
		plan, err = e.positions.PlanCreateAtBottom(ctx, task)
	}
	if err != nil {
		return nil, err
	}

	if err := e.coord.Apply(ctx, plan, func() {
		e.events.TaskCreated(board.ID, board.TenantID, task)
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// ReorderTask moves a task to newPos. When columnID is empty or names the
// task's current column the move is a within-column ripple; otherwise the
// task moves across columns. Reordering a task to its current position is
// a no-op and emits no event.
func (e *Engine) ReorderTask(ctx context.Context, taskID string, newPos int, columnID string) (*db.Task, error) {
	task, err := e.requireTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var plan *Plan
	if columnID == "" || columnID == task.ColumnID {
		plan, err = e.positions.PlanReorderWithinColumn(ctx, task, newPos)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return task, nil
		}
	} else {
		target, _, err := e.resolveColumn(ctx, columnID)
		if err != nil {
			return nil, err
		}
		plan, err = e.positions.PlanMoveAcrossColumns(ctx, task, target, newPos)
		if err != nil {
			return nil, err
		}
	}

	sourceBoardID := task.BoardID
	if err := e.applyAndReload(ctx, plan, &task, func(updated *db.Task) {
		e.publishTaskUpdated(ctx, updated)
		if updated.BoardID != sourceBoardID {
			// Source board clients need to see the vacated slot close.
			e.publishBoardReordered(ctx, sourceBoardID, map[string]any{"task_id": updated.ID, "moved_to": updated.BoardID})
		}
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// MoveTaskAcrossBoard moves a task to another board, landing at position 0
// of the column whose title matches the task's current column, or the
// board's first column when no title matches. Fails when the target board
// has no columns.
func (e *Engine) MoveTaskAcrossBoard(ctx context.Context, taskID, targetBoardID string) (*db.Task, error) {
	task, err := e.requireTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	board, err := e.store.GetBoard(ctx, targetBoardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, bwerrors.ErrBoardNotFound(targetBoardID)
	}

	dest, err := e.positions.ResolveDestinationColumn(ctx, task, targetBoardID)
	if err != nil {
		return nil, err
	}

	plan, err := e.positions.PlanMoveAcrossBoards(ctx, task, dest)
	if err != nil {
		return nil, err
	}

	sourceBoardID := task.BoardID
	if err := e.applyAndReload(ctx, plan, &task, func(updated *db.Task) {
		e.events.TaskUpdated(board.ID, board.TenantID, updated)
		e.publishBoardReordered(ctx, sourceBoardID, map[string]any{"task_id": updated.ID, "moved_to": board.ID})
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// BatchRepositionTasks applies many independent position/column changes as
// one atomic mutation. The caller must supply an internally consistent set
// of updates; the engine does not auto-resolve duplicate target positions.
func (e *Engine) BatchRepositionTasks(ctx context.Context, updates []Reposition) error {
	plan, boards, err := e.positions.PlanBatchReposition(ctx, updates)
	if err != nil {
		return err
	}

	return e.coord.Apply(ctx, plan, func() {
		for boardID := range boards {
			e.publishBoardReordered(ctx, boardID, map[string]any{"updates": len(updates)})
		}
	})
}

// UpdateTask changes a task's title and/or description.
func (e *Engine) UpdateTask(ctx context.Context, taskID string, title, description *string) (*db.Task, error) {
	task, err := e.requireTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if title == nil && description == nil {
		return task, nil
	}

	newTitle := task.Title
	if title != nil {
		newTitle = *title
	}
	newDescription := task.Description
	if description != nil {
		newDescription = *description
	}

	p := e.store.Placeholder
	plan := NewPlan()
	plan.Add(fmt.Sprintf(
		"UPDATE tasks SET title = %s, description = %s, updated_at = %s WHERE id = %s",
		p(1), p(2), p(3), p(4)),
		newTitle, newDescription, nowRFC3339(), task.ID)

	if err := e.applyAndReload(ctx, plan, &task, func(updated *db.Task) {
		e.publishTaskUpdated(ctx, updated)
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task, every relationship edge touching it, and
// renumbers the vacated column, as one atomic mutation.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	task, err := e.requireTask(ctx, taskID)
	if err != nil {
		return err
	}

	p := e.store.Placeholder
	plan := NewPlan()
	plan.Add(fmt.Sprintf(
		"DELETE FROM relationships WHERE task_id = %s OR related_task_id = %s", p(1), p(2)),
		task.ID, task.ID)
	plan.Add(fmt.Sprintf("DELETE FROM tasks WHERE id = %s", p(1)), task.ID)
	if err := e.positions.PlanRenumber(ctx, plan, task.ColumnID, task.ID); err != nil {
		return err
	}

	tenantID := e.boardTenant(ctx, task.BoardID)
	return e.coord.Apply(ctx, plan, func() {
		e.events.TaskDeleted(task.BoardID, tenantID, task)
	})
}

// --- Relationship operations ---

// CreateRelationship creates a relationship edge from a task. Parent/child
// edges are mirrored onto the counterpart task atomically.
func (e *Engine) CreateRelationship(ctx context.Context, taskID, kind, relatedTaskID string) (*db.Relationship, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	task, err := e.requireTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := e.requireTask(ctx, relatedTaskID); err != nil {
		return nil, err
	}

	plan, rel, err := e.relationships.PlanCreate(ctx, taskID, k, relatedTaskID)
	if err != nil {
		return nil, err
	}

	tenantID := e.boardTenant(ctx, task.BoardID)
	if err := e.coord.Apply(ctx, plan, func() {
		e.events.RelationshipCreated(task.BoardID, tenantID, rel)
	}); err != nil {
		return nil, err
	}
	return rel, nil
}

// DeleteRelationship removes a relationship edge belonging to a task.
// Both directions of a parent/child pair are removed together.
func (e *Engine) DeleteRelationship(ctx context.Context, taskID, relationshipID string) error {
	task, err := e.requireTask(ctx, taskID)
	if err != nil {
		return err
	}

	plan, rel, err := e.relationships.PlanDelete(ctx, taskID, relationshipID)
	if err != nil {
		return err
	}

	tenantID := e.boardTenant(ctx, task.BoardID)
	return e.coord.Apply(ctx, plan, func() {
		e.events.RelationshipDeleted(task.BoardID, tenantID, rel)
	})
}

// GetConnectedTaskGraph returns the task's relationship neighborhood,
// breadth-first and capped at limit nodes.
func (e *Engine) GetConnectedTaskGraph(ctx context.Context, taskID string, limit int) (*Graph, error) {
	return e.relationships.ConnectedGraph(ctx, taskID, limit)
}

// --- Board operations ---

// CreateBoard creates a board at the bottom of the tenant's board list.
func (e *Engine) CreateBoard(ctx context.Context, tenantID, title string) (*db.Board, error) {
	existing, err := e.store.TenantBoards(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	board := &db.Board{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Title:    title,
		Position: len(existing),
	}

	p := e.store.Placeholder
	now := nowRFC3339()
	plan := NewPlan()
	plan.Add(fmt.Sprintf(`
		INSERT INTO boards (id, tenant_id, title, position, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5), p(6)),
		board.ID, board.TenantID, board.Title, board.Position, now, now)

	if err := e.coord.Apply(ctx, plan, func() {
		e.events.BoardCreated(board.ID, board.TenantID, board)
	}); err != nil {
		return nil, err
	}
	return board, nil
}

// UpdateBoard renames a board.
func (e *Engine) UpdateBoard(ctx context.Context, boardID, title string) (*db.Board, error) {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, bwerrors.ErrBoardNotFound(boardID)
	}

	p := e.store.Placeholder
	plan := NewPlan()
	plan.Add(fmt.Sprintf(
		"UPDATE boards SET title = %s, updated_at = %s WHERE id = %s",
		p(1), p(2), p(3)),
		title, nowRFC3339(), board.ID)

	board.Title = title
	if err := e.coord.Apply(ctx, plan, func() {
		e.events.BoardUpdated(board.ID, board.TenantID, board)
	}); err != nil {
		return nil, err
	}
	return board, nil
}

// ReorderBoard moves a board to newPos within its tenant's board list,
// using the same ripple logic as task reordering. Moving a board to its
// current position is a no-op and emits no event.
func (e *Engine) ReorderBoard(ctx context.Context, boardID string, newPos int) (*db.Board, error) {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, bwerrors.ErrBoardNotFound(boardID)
	}

	boards, err := e.store.TenantBoards(ctx, board.TenantID)
	if err != nil {
		return nil, err
	}
	newPos = clamp(newPos, 0, len(boards)-1)
	if newPos == board.Position {
		return board, nil
	}

	p := e.store.Placeholder
	plan := NewPlan()
	if newPos > board.Position {
		plan.Add(fmt.Sprintf(
			"UPDATE boards SET position = position - 1 WHERE tenant_id = %s AND position > %s AND position <= %s",
			p(1), p(2), p(3)),
			board.TenantID, board.Position, newPos)
	} else {
		plan.Add(fmt.Sprintf(
			"UPDATE boards SET position = position + 1 WHERE tenant_id = %s AND position >= %s AND position < %s",
			p(1), p(2), p(3)),
			board.TenantID, newPos, board.Position)
	}
	plan.Add(fmt.Sprintf(
		"UPDATE boards SET position = %s, updated_at = %s WHERE id = %s",
		p(1), p(2), p(3)),
		newPos, nowRFC3339(), board.ID)

	board.Position = newPos
	if err := e.coord.Apply(ctx, plan, func() {
		e.events.BoardReordered(board.ID, board.TenantID, board)
	}); err != nil {
		return nil, err
	}
	return board, nil
}

// CreateColumn appends a column at the bottom of a board.
func (e *Engine) CreateColumn(ctx context.Context, boardID, title string) (*db.Column, error) {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, bwerrors.ErrBoardNotFound(boardID)
	}

	existing, err := e.store.BoardColumns(ctx, boardID)
	if err != nil {
		return nil, err
	}

	col := &db.Column{
		ID:       uuid.NewString(),
		BoardID:  boardID,
		Title:    title,
		Position: len(existing),
	}

	p := e.store.Placeholder
	now := nowRFC3339()
	plan := NewPlan()
	plan.Add(fmt.Sprintf(`
		INSERT INTO columns (id, board_id, title, position, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5), p(6)),
		col.ID, col.BoardID, col.Title, col.Position, now, now)

	if err := e.coord.Apply(ctx, plan, func() {
		e.events.BoardUpdated(board.ID, board.TenantID, col)
	}); err != nil {
		return nil, err
	}
	return col, nil
}

// --- helpers ---

// requireTask loads a task or returns a typed not-found error.
func (e *Engine) requireTask(ctx context.Context, taskID string) (*db.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, bwerrors.ErrTaskNotFound(taskID)
	}
	return task, nil
}

// resolveColumn loads a column and its board, or returns typed errors.
func (e *Engine) resolveColumn(ctx context.Context, columnID string) (*db.Column, *db.Board, error) {
	col, err := e.store.GetColumn(ctx, columnID)
	if err != nil {
		return nil, nil, err
	}
	if col == nil {
		return nil, nil, bwerrors.ErrColumnNotFound(columnID)
	}
	board, err := e.store.GetBoard(ctx, col.BoardID)
	if err != nil {
		return nil, nil, err
	}
	if board == nil {
		return nil, nil, bwerrors.ErrBoardNotFound(col.BoardID)
	}
	return col, board, nil
}

// applyAndReload applies the plan, re-reads the task post-commit, and hands
// the fresh row to the event callback. *task is updated in place so the
// caller returns committed state.
func (e *Engine) applyAndReload(ctx context.Context, plan *Plan, task **db.Task, publish func(updated *db.Task)) error {
	id := (*task).ID
	return e.coord.Apply(ctx, plan, func() {
		updated, err := e.store.GetTask(ctx, id)
		if err != nil || updated == nil {
			e.logger.Error("reload task after commit", "task_id", id, "error", err)
			return
		}
		*task = updated
		publish(updated)
	})
}

// publishTaskUpdated emits task-updated on the task's current board.
func (e *Engine) publishTaskUpdated(ctx context.Context, task *db.Task) {
	e.events.TaskUpdated(task.BoardID, e.boardTenant(ctx, task.BoardID), task)
}

// publishBoardReordered emits board-reordered for a board.
func (e *Engine) publishBoardReordered(ctx context.Context, boardID string, payload any) {
	e.events.BoardReordered(boardID, e.boardTenant(ctx, boardID), payload)
}

// boardTenant resolves a board's tenant for event scoping. Lookup failures
// degrade to the single-tenant channel rather than failing the mutation.
func (e *Engine) boardTenant(ctx context.Context, boardID string) string {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil || board == nil {
		e.logger.Warn("resolve board tenant", "board_id", boardID, "error", err)
		return ""
	}
	return board.TenantID
}
