package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpelletier/boardwalk/internal/db"
	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
)

func TestCoordinatorRejectsInvalidPlans(t *testing.T) {
	t.Parallel()
	store := db.NewTestDB(t)
	coord := NewCoordinator(NewDirectGateway(store), testLogger())
	ctx := context.Background()

	err := coord.Apply(ctx, nil)
	assert.ErrorIs(t, err, bwerrors.ErrInvalidMutationPlan(""))

	err = coord.Apply(ctx, NewPlan())
	assert.ErrorIs(t, err, bwerrors.ErrInvalidMutationPlan(""))

	plan := NewPlan()
	plan.Add("   ")
	err = coord.Apply(ctx, plan)
	assert.ErrorIs(t, err, bwerrors.ErrInvalidMutationPlan(""))
}

func TestCoordinatorRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	store := db.NewTestDB(t)
	coord := NewCoordinator(NewDirectGateway(store), testLogger())
	ctx := context.Background()

	plan := NewPlan()
	plan.Add(
		"INSERT INTO boards (id, tenant_id, title, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"b1", "acme", "Roadmap", 0, nowRFC3339(), nowRFC3339())
	plan.Add("INSERT INTO no_such_table (id) VALUES (?)", "x")

	hookRan := false
	err := coord.Apply(ctx, plan, func() { hookRan = true })
	require.Error(t, err)
	assert.ErrorIs(t, err, bwerrors.ErrStorageFailure(nil))
	assert.False(t, hookRan, "hooks must not run for a failed plan")

	// The first write must have been rolled back with the rest.
	board, err := store.GetBoard(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, board)
}

func TestCoordinatorRunsHooksAfterCommit(t *testing.T) {
	t.Parallel()
	store := db.NewTestDB(t)
	coord := NewCoordinator(NewDirectGateway(store), testLogger())
	ctx := context.Background()

	plan := NewPlan()
	plan.Add(
		"INSERT INTO boards (id, tenant_id, title, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"b1", "acme", "Roadmap", 0, nowRFC3339(), nowRFC3339())

	var order []string
	err := coord.Apply(ctx, plan,
		func() {
			// The committed row is visible from inside the hook.
			board, err := store.GetBoard(ctx, "b1")
			require.NoError(t, err)
			require.NotNil(t, board)
			order = append(order, "first")
		},
		func() { order = append(order, "second") },
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCoordinatorSwallowsHookPanic(t *testing.T) {
	t.Parallel()
	store := db.NewTestDB(t)
	coord := NewCoordinator(NewDirectGateway(store), testLogger())
	ctx := context.Background()

	plan := NewPlan()
	plan.Add(
		"INSERT INTO boards (id, tenant_id, title, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"b1", "acme", "Roadmap", 0, nowRFC3339(), nowRFC3339())

	secondRan := false
	err := coord.Apply(ctx, plan,
		func() { panic("subscriber exploded") },
		func() { secondRan = true },
	)
	require.NoError(t, err, "a panicking hook must not fail the mutation")
	assert.True(t, secondRan, "later hooks still run")
}
