package engine

import (
	"context"
	"fmt"

	"github.com/mpelletier/boardwalk/internal/db"
)

// Gateway applies a mutation plan atomically: either every write in the
// plan is applied, or none are. Callers must not know which backend is
// active; the Coordinator is the only consumer.
type Gateway interface {
	Apply(ctx context.Context, plan *Plan) error
}

// DirectGateway applies plans inside a native database transaction.
type DirectGateway struct {
	db *db.DB
}

// NewDirectGateway creates a gateway over a transactional database handle.
func NewDirectGateway(d *db.DB) *DirectGateway {
	return &DirectGateway{db: d}
}

// Apply executes each write in order inside one transaction. On any failure
// the transaction is rolled back; no partial effect is observable.
func (g *DirectGateway) Apply(ctx context.Context, plan *Plan) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for i, w := range plan.Writes() {
		if _, err := tx.Exec(ctx, w.SQL, w.Args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply write %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
