package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Relationship represents a directed relationship edge between two tasks.
// Parent/child edges are stored as mirrored pairs; related edges are a
// single row created from the requester's perspective.
type Relationship struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"task_id"`
	Kind          string    `json:"kind"`
	RelatedTaskID string    `json:"related_task_id"`
	CreatedAt     time.Time `json:"created_at"`
}

const relationshipColumns = "id, task_id, kind, related_task_id, created_at"

// GetRelationship returns the relationship with the given id, or nil if it
// doesn't exist.
func (d *DB) GetRelationship(ctx context.Context, id string) (*Relationship, error) {
	p := d.Placeholder
	row := d.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT %s FROM relationships WHERE id = %s", relationshipColumns, p(1)), id)

	r, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// RelationshipExists reports whether the exact (task, kind, related) triple
// is stored.
func (d *DB) RelationshipExists(ctx context.Context, taskID, kind, relatedTaskID string) (bool, error) {
	p := d.Placeholder
	var n int
	err := d.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM relationships
		WHERE task_id = %s AND kind = %s AND related_task_id = %s`,
		p(1), p(2), p(3)), taskID, kind, relatedTaskID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check relationship: %w", err)
	}
	return n > 0, nil
}

// TaskRelationships returns all outgoing edges of a task.
func (d *DB) TaskRelationships(ctx context.Context, taskID string) ([]*Relationship, error) {
	p := d.Placeholder
	rows, err := d.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM relationships WHERE task_id = %s ORDER BY created_at, id",
		relationshipColumns, p(1)), taskID)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	return collectRelationships(rows)
}

// TaskEdges returns every edge touching a task, in either direction.
// Used by the connected-graph traversal.
func (d *DB) TaskEdges(ctx context.Context, taskID string) ([]*Relationship, error) {
	p := d.Placeholder
	rows, err := d.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s FROM relationships WHERE task_id = %s OR related_task_id = %s ORDER BY created_at, id",
		relationshipColumns, p(1), p(2)), taskID, taskID)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	return collectRelationships(rows)
}

func collectRelationships(rows *sql.Rows) ([]*Relationship, error) {
	defer func() { _ = rows.Close() }()

	var rels []*Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

func scanRelationship(s scanner) (*Relationship, error) {
	var r Relationship
	var createdAt string
	if err := s.Scan(&r.ID, &r.TaskID, &r.Kind, &r.RelatedTaskID, &createdAt); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}
