package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mpelletier/boardwalk/internal/db"
	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
)

// PositionManager computes ordinal position changes within a column, across
// columns, and across boards. It reads current positions fresh for every
// plan and emits ranged ripple UPDATEs rather than per-row statements, so
// plans stay small under the proxy backend's batch model.
type PositionManager struct {
	store *db.DB
}

// NewPositionManager creates a position manager over the given store.
func NewPositionManager(store *db.DB) *PositionManager {
	return &PositionManager{store: store}
}

// Reposition is one entry of a batch reposition request.
type Reposition struct {
	TaskID   string `json:"task_id"`
	ColumnID string `json:"column_id"`
	Position int    `json:"position"`
}

// nowRFC3339 returns the current UTC time formatted for storage.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// planInsertTask appends the INSERT for a new task row. t.Position must
// already be final.
func (m *PositionManager) planInsertTask(plan *Plan, t *db.Task) {
	p := m.store.Placeholder
	now := nowRFC3339()
	plan.Add(fmt.Sprintf(`
		INSERT INTO tasks (id, column_id, board_id, pre_board_id, pre_column_id, title, description, position, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8), p(9), p(10)),
		t.ID, t.ColumnID, t.BoardID, t.PreBoardID, t.PreColumnID,
		t.Title, t.Description, t.Position, now, now)
}

// PlanCreateAtBottom places t at max(position)+1 in its column, or 0 when
// the column is empty.
func (m *PositionManager) PlanCreateAtBottom(ctx context.Context, t *db.Task) (*Plan, error) {
	next, err := m.store.NextPosition(ctx, t.ColumnID)
	if err != nil {
		return nil, err
	}
	t.Position = next

	plan := NewPlan()
	m.planInsertTask(plan, t)
	return plan, nil
}

// PlanCreateAtTop shifts every task in the column up by one and inserts t
// at position 0, as one atomic write set.
func (m *PositionManager) PlanCreateAtTop(ctx context.Context, t *db.Task) (*Plan, error) {
	t.Position = 0

	p := m.store.Placeholder
	plan := NewPlan()
	plan.Add(fmt.Sprintf(
		"UPDATE tasks SET position = position + 1 WHERE column_id = %s", p(1)),
		t.ColumnID)
	m.planInsertTask(plan, t)
	return plan, nil
}

// PlanReorderWithinColumn moves task to newPos inside its current column.
// The intervening range ripples by exactly one slot; the moved task's
// placement write comes last. Returns a nil plan when the move is a no-op.
func (m *PositionManager) PlanReorderWithinColumn(ctx context.Context, task *db.Task, newPos int) (*Plan, error) {
	count, err := m.store.ColumnTaskCount(ctx, task.ColumnID)
	if err != nil {
		return nil, err
	}
	newPos = clamp(newPos, 0, count-1)
	if newPos == task.Position {
		return nil, nil
	}

	p := m.store.Placeholder
	plan := NewPlan()
	if newPos > task.Position {
		// Moving down: close the gap by pulling (cp, np] up one slot.
		plan.Add(fmt.Sprintf(
			"UPDATE tasks SET position = position - 1 WHERE column_id = %s AND position > %s AND position <= %s",
			p(1), p(2), p(3)),
			task.ColumnID, task.Position, newPos)
	} else {
		// Moving up: open a slot by pushing [np, cp) down one.
		plan.Add(fmt.Sprintf(
			"UPDATE tasks SET position = position + 1 WHERE column_id = %s AND position >= %s AND position < %s",
			p(1), p(2), p(3)),
			task.ColumnID, newPos, task.Position)
	}
	plan.Add(fmt.Sprintf(
		"UPDATE tasks SET position = %s, updated_at = %s WHERE id = %s",
		p(1), p(2), p(3)),
		newPos, nowRFC3339(), task.ID)
	return plan, nil
}

// PlanMoveAcrossColumns moves task into target at newPos, closing the gap
// in the source column and opening one in the destination. The previous
// location is recorded on the task row.
func (m *PositionManager) PlanMoveAcrossColumns(ctx context.Context, task *db.Task, target *db.Column, newPos int) (*Plan, error) {
	destCount, err := m.store.ColumnTaskCount(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	newPos = clamp(newPos, 0, destCount)

	p := m.store.Placeholder
	plan := NewPlan()

	// Close the vacated slot in the source column.
	plan.Add(fmt.Sprintf(
		"UPDATE tasks SET position = position - 1 WHERE column_id = %s AND position > %s",
		p(1), p(2)),
		task.ColumnID, task.Position)

	// Open a slot in the destination column.
	plan.Add(fmt.Sprintf(
		"UPDATE tasks SET position = position + 1 WHERE column_id = %s AND position >= %s",
		p(1), p(2)),
		target.ID, newPos)

	plan.Add(fmt.Sprintf(`
		UPDATE tasks SET column_id = %s, board_id = %s, pre_column_id = %s, pre_board_id = %s, position = %s, updated_at = %s
		WHERE id = %s`,
		p(1), p(2), p(3), p(4), p(5), p(6), p(7)),
		target.ID, target.BoardID, task.ColumnID, task.BoardID, newPos, nowRFC3339(), task.ID)
	return plan, nil
}

// ResolveDestinationColumn picks the column a cross-board move lands in:
// the target board's column whose title matches the task's current column,
// falling back to the board's first column by position.
func (m *PositionManager) ResolveDestinationColumn(ctx context.Context, task *db.Task, targetBoardID string) (*db.Column, error) {
	source, err := m.store.GetColumn(ctx, task.ColumnID)
	if err != nil {
		return nil, err
	}
	if source != nil {
		dest, err := m.store.FindColumnByTitle(ctx, targetBoardID, source.Title)
		if err != nil {
			return nil, err
		}
		if dest != nil {
			return dest, nil
		}
	}

	cols, err := m.store.BoardColumns(ctx, targetBoardID)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, bwerrors.ErrNoDestinationColumn(targetBoardID)
	}
	return cols[0], nil
}

// PlanMoveAcrossBoards moves task to position 0 of dest, shifting the
// destination column down and closing the source gap.
func (m *PositionManager) PlanMoveAcrossBoards(ctx context.Context, task *db.Task, dest *db.Column) (*Plan, error) {
	return m.PlanMoveAcrossColumns(ctx, task, dest, 0)
}

// PlanBatchReposition applies many independent position/column changes as
// one mutation. The caller is responsible for supplying a set of updates
// that, taken together, yields a valid dense ordering per affected column;
// the engine is a thin-but-atomic batch applier.
// Returns the plan and the set of affected board IDs.
func (m *PositionManager) PlanBatchReposition(ctx context.Context, updates []Reposition) (*Plan, map[string]bool, error) {
	if len(updates) == 0 {
		return nil, nil, bwerrors.ErrInvalidMutationPlan("batch contains no updates")
	}

	p := m.store.Placeholder
	plan := NewPlan()
	boards := make(map[string]bool)
	columns := make(map[string]*db.Column)
	now := nowRFC3339()

	for i, u := range updates {
		if u.TaskID == "" || u.ColumnID == "" {
			return nil, nil, bwerrors.ErrInvalidMutationPlan(fmt.Sprintf("update %d is missing task_id or column_id", i))
		}
		if u.Position < 0 {
			return nil, nil, bwerrors.ErrInvalidMutationPlan(fmt.Sprintf("update %d has negative position %d", i, u.Position))
		}

		col, ok := columns[u.ColumnID]
		if !ok {
			var err error
			col, err = m.store.GetColumn(ctx, u.ColumnID)
			if err != nil {
				return nil, nil, err
			}
			if col == nil {
				return nil, nil, bwerrors.ErrColumnNotFound(u.ColumnID)
			}
			columns[u.ColumnID] = col
		}
		boards[col.BoardID] = true

		plan.Add(fmt.Sprintf(
			"UPDATE tasks SET column_id = %s, board_id = %s, position = %s, updated_at = %s WHERE id = %s",
			p(1), p(2), p(3), p(4), p(5)),
			col.ID, col.BoardID, u.Position, now, u.TaskID)
	}
	return plan, boards, nil
}

// PlanRenumber re-assigns positions 0..n-1 to the column's tasks in their
// existing relative order, writing only rows whose position actually
// changed. exclude skips a task id (the row being deleted in the same plan).
func (m *PositionManager) PlanRenumber(ctx context.Context, plan *Plan, columnID, exclude string) error {
	tasks, err := m.store.ColumnTasks(ctx, columnID)
	if err != nil {
		return err
	}

	p := m.store.Placeholder
	next := 0
	for _, t := range tasks {
		if t.ID == exclude {
			continue
		}
		if t.Position != next {
			plan.Add(fmt.Sprintf(
				"UPDATE tasks SET position = %s WHERE id = %s", p(1), p(2)),
				next, t.ID)
		}
		next++
	}
	return nil
}

// clamp bounds v to [lo, hi]. hi below lo collapses to lo.
func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
