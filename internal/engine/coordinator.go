package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
)

// Hook is a post-commit callback. Hooks run strictly after a plan has been
// applied, outside the atomic unit; a failing hook is logged and swallowed.
type Hook func()

// Coordinator wraps a logical mutation in the active backend's atomicity
// model, guaranteeing all-or-nothing application. It does not retry on
// failure: retrying blind position ripples without re-reading current
// state risks double-application, so retries are the caller's concern.
type Coordinator struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewCoordinator creates a coordinator over the given gateway. The gateway
// is selected once per process; call sites never branch on backend kind.
func NewCoordinator(gw Gateway, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{gateway: gw, logger: logger}
}

// Apply validates the plan, applies it atomically, and then runs each
// post-commit hook. Backend failures surface as StorageFailure; no hook
// runs unless the plan committed.
func (c *Coordinator) Apply(ctx context.Context, plan *Plan, hooks ...Hook) error {
	if plan == nil || plan.Empty() {
		return bwerrors.ErrInvalidMutationPlan("plan contains no writes")
	}
	for i, w := range plan.Writes() {
		if strings.TrimSpace(w.SQL) == "" {
			return bwerrors.ErrInvalidMutationPlan(fmt.Sprintf("write %d has an empty statement", i))
		}
	}

	if err := c.gateway.Apply(ctx, plan); err != nil {
		return bwerrors.ErrStorageFailure(err)
	}

	for _, h := range hooks {
		c.runHook(h)
	}
	return nil
}

// runHook invokes a post-commit hook, recovering and logging any panic so
// side effects never unwind the mutation's caller.
func (c *Coordinator) runHook(h Hook) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("post-commit hook failed", "panic", r)
		}
	}()
	h()
}
