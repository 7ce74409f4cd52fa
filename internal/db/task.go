package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Task represents a task stored in the database.
//
// Position is a dense zero-based ordinal within the task's column: for a
// fixed column the active tasks occupy exactly {0..n-1}. PreBoardID and
// PreColumnID record the previous location after a cross-column or
// cross-board move, for audit and undo.
type Task struct {
	ID          string    `json:"id"`
	ColumnID    string    `json:"column_id"`
	BoardID     string    `json:"board_id"`
	PreBoardID  *string   `json:"pre_board_id,omitempty"`
	PreColumnID *string   `json:"pre_column_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const taskColumns = "id, column_id, board_id, pre_board_id, pre_column_id, title, description, position, created_at, updated_at"

// GetTask returns the task with the given id, or nil if it doesn't exist.
func (d *DB) GetTask(ctx context.Context, id string) (*Task, error) {
	p := d.Placeholder
	row := d.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM tasks WHERE id = %s", taskColumns, p(1)), id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ColumnTasks returns all tasks in a column ordered by position.
func (d *DB) ColumnTasks(ctx context.Context, columnID string) ([]*Task, error) {
	p := d.Placeholder
	rows, err := d.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM tasks WHERE column_id = %s ORDER BY position", taskColumns, p(1)), columnID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ColumnTaskCount returns the number of tasks in a column.
func (d *DB) ColumnTaskCount(ctx context.Context, columnID string) (int, error) {
	p := d.Placeholder
	var n int
	err := d.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM tasks WHERE column_id = %s", p(1)), columnID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// NextPosition returns max(position)+1 for a column, or 0 when empty.
func (d *DB) NextPosition(ctx context.Context, columnID string) (int, error) {
	p := d.Placeholder
	var next int
	err := d.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE column_id = %s", p(1)), columnID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next position: %w", err)
	}
	return next, nil
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var createdAt, updatedAt string
	if err := s.Scan(&t.ID, &t.ColumnID, &t.BoardID, &t.PreBoardID, &t.PreColumnID,
		&t.Title, &t.Description, &t.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}
