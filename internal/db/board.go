package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Board represents a board stored in the database.
// Position is a dense zero-based ordinal within the board's tenant.
type Board struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Column represents a column stored in the database.
// Position is a dense zero-based ordinal within the column's board.
type Column struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetBoard returns the board with the given id, or nil if it doesn't exist.
func (d *DB) GetBoard(ctx context.Context, id string) (*Board, error) {
	p := d.Placeholder
	row := d.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, tenant_id, title, position, created_at, updated_at
		FROM boards WHERE id = %s`, p(1)), id)

	b, err := scanBoard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// TenantBoards returns all boards for a tenant ordered by position.
func (d *DB) TenantBoards(ctx context.Context, tenantID string) ([]*Board, error) {
	p := d.Placeholder
	rows, err := d.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, tenant_id, title, position, created_at, updated_at
		FROM boards WHERE tenant_id = %s ORDER BY position`, p(1)), tenantID)
	if err != nil {
		return nil, fmt.Errorf("query boards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var boards []*Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// GetColumn returns the column with the given id, or nil if it doesn't exist.
func (d *DB) GetColumn(ctx context.Context, id string) (*Column, error) {
	p := d.Placeholder
	row := d.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, board_id, title, position, created_at, updated_at
		FROM columns WHERE id = %s`, p(1)), id)

	c, err := scanColumn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// BoardColumns returns all columns of a board ordered by position.
func (d *DB) BoardColumns(ctx context.Context, boardID string) ([]*Column, error) {
	p := d.Placeholder
	rows, err := d.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, board_id, title, position, created_at, updated_at
		FROM columns WHERE board_id = %s ORDER BY position`, p(1)), boardID)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []*Column
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// FindColumnByTitle returns the column in boardID with the given title,
// or nil if no column matches. Ties resolve to the lowest position.
func (d *DB) FindColumnByTitle(ctx context.Context, boardID, title string) (*Column, error) {
	p := d.Placeholder
	row := d.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, board_id, title, position, created_at, updated_at
		FROM columns WHERE board_id = %s AND title = %s
		ORDER BY position LIMIT 1`, p(1), p(2)), boardID, title)

	c, err := scanColumn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(s scanner) (*Board, error) {
	var b Board
	var createdAt, updatedAt string
	if err := s.Scan(&b.ID, &b.TenantID, &b.Title, &b.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func scanColumn(s scanner) (*Column, error) {
	var c Column
	var createdAt, updatedAt string
	if err := s.Scan(&c.ID, &c.BoardID, &c.Title, &c.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
