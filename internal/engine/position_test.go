package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
	"github.com/mpelletier/boardwalk/internal/events"
)

func TestReorderWithinColumnDown(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3", "T4", "T5")

	// Move T1 from 0 to 3: (0, 3] shifts up one slot.
	moved, err := eng.ReorderTask(ctx, tasks[0].ID, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 3, moved.Position)
	assert.Equal(t, []string{"T2", "T3", "T4", "T1", "T5"}, columnOrder(t, store, col.ID))
}

func TestReorderWithinColumnUp(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3", "T4", "T5")

	// Move T4 from 3 to 0: [0, 3) shifts down one slot.
	moved, err := eng.ReorderTask(ctx, tasks[3].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
	assert.Equal(t, []string{"T4", "T1", "T2", "T3", "T5"}, columnOrder(t, store, col.ID))
}

func TestReorderToTopScenario(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3")

	_, err := eng.ReorderTask(ctx, tasks[2].ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"T3", "T1", "T2"}, columnOrder(t, store, col.ID))
}

func TestReorderNoOpEmitsNoEvent(t *testing.T) {
	t.Parallel()
	eng, store, pub := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1", "T2")

	ch := pub.Subscribe("acme")
	same, err := eng.ReorderTask(ctx, tasks[1].ID, 1, "")
	require.NoError(t, err)
	assert.Equal(t, 1, same.Position)
	assert.Empty(t, drainEvents(ch), "a no-op move must not publish")
	assert.Equal(t, []string{"T1", "T2"}, columnOrder(t, store, col.ID))
}

func TestReorderClampsOutOfRangePositions(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3")

	moved, err := eng.ReorderTask(ctx, tasks[0].ID, 99, "")
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Position)

	moved, err = eng.ReorderTask(ctx, moved.ID, -5, "")
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
	assert.Equal(t, []string{"T1", "T2", "T3"}, columnOrder(t, store, col.ID))
}

func TestMoveAcrossColumns(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	board, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	dest, err := eng.CreateColumn(ctx, board.ID, "Doing")
	require.NoError(t, err)

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3")
	seedTasks(t, eng, dest.ID, "D1", "D2")

	moved, err := eng.ReorderTask(ctx, tasks[1].ID, 1, dest.ID)
	require.NoError(t, err)
	assert.Equal(t, dest.ID, moved.ColumnID)
	assert.Equal(t, 1, moved.Position)
	require.NotNil(t, moved.PreColumnID)
	assert.Equal(t, col.ID, *moved.PreColumnID)

	// Source gap closed, destination slot opened.
	assert.Equal(t, []string{"T1", "T3"}, columnOrder(t, store, col.ID))
	assert.Equal(t, []string{"D1", "T2", "D2"}, columnOrder(t, store, dest.ID))
}

func TestMoveAcrossColumnsClampsToAppend(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	board, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	dest, err := eng.CreateColumn(ctx, board.ID, "Doing")
	require.NoError(t, err)

	tasks := seedTasks(t, eng, col.ID, "T1")
	seedTasks(t, eng, dest.ID, "D1")

	// A cross-column move may land one past the last occupant.
	moved, err := eng.ReorderTask(ctx, tasks[0].ID, 42, dest.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)
	assert.Equal(t, []string{"D1", "T1"}, columnOrder(t, store, dest.ID))
}

func TestMoveAcrossBoardsMatchingColumnTitle(t *testing.T) {
	t.Parallel()
	eng, store, pub := newTestEngine(t)
	source, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	target, err := eng.CreateBoard(ctx, "acme", "Sprint")
	require.NoError(t, err)
	_, err = eng.CreateColumn(ctx, target.ID, "Backlog")
	require.NoError(t, err)
	match, err := eng.CreateColumn(ctx, target.ID, "To Do")
	require.NoError(t, err)

	tasks := seedTasks(t, eng, col.ID, "T1", "T2")
	seedTasks(t, eng, match.ID, "M1")

	ch := pub.Subscribe("acme")
	moved, err := eng.MoveTaskAcrossBoard(ctx, tasks[0].ID, target.ID)
	require.NoError(t, err)

	assert.Equal(t, target.ID, moved.BoardID)
	assert.Equal(t, match.ID, moved.ColumnID, "title match wins over first column")
	assert.Equal(t, 0, moved.Position)
	require.NotNil(t, moved.PreBoardID)
	assert.Equal(t, source.ID, *moved.PreBoardID)

	assert.Equal(t, []string{"T2"}, columnOrder(t, store, col.ID))
	assert.Equal(t, []string{"T1", "M1"}, columnOrder(t, store, match.ID))

	// Target board clients see the task, source board clients the removal.
	got := drainEvents(ch)
	require.Len(t, got, 2)
	assert.Equal(t, events.EventTaskUpdated, got[0].Type)
	assert.Equal(t, target.ID, got[0].BoardID)
	assert.Equal(t, events.EventBoardReordered, got[1].Type)
	assert.Equal(t, source.ID, got[1].BoardID)
}

func TestMoveAcrossBoardsFallsBackToFirstColumn(t *testing.T) {
	t.Parallel()
	eng, _, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	target, err := eng.CreateBoard(ctx, "acme", "Sprint")
	require.NoError(t, err)
	first, err := eng.CreateColumn(ctx, target.ID, "Inbox")
	require.NoError(t, err)
	_, err = eng.CreateColumn(ctx, target.ID, "Later")
	require.NoError(t, err)

	tasks := seedTasks(t, eng, col.ID, "T1")

	moved, err := eng.MoveTaskAcrossBoard(ctx, tasks[0].ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, moved.ColumnID)
	assert.Equal(t, 0, moved.Position)
}

func TestMoveAcrossBoardsRequiresColumns(t *testing.T) {
	t.Parallel()
	eng, _, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	empty, err := eng.CreateBoard(ctx, "acme", "Empty")
	require.NoError(t, err)

	tasks := seedTasks(t, eng, col.ID, "T1")

	_, err = eng.MoveTaskAcrossBoard(ctx, tasks[0].ID, empty.ID)
	assert.ErrorIs(t, err, bwerrors.ErrNoDestinationColumn(empty.ID))

	_, err = eng.MoveTaskAcrossBoard(ctx, tasks[0].ID, "missing")
	assert.ErrorIs(t, err, bwerrors.ErrBoardNotFound("missing"))
}

func TestBatchRepositionTasks(t *testing.T) {
	t.Parallel()
	eng, store, pub := newTestEngine(t)
	board, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	dest, err := eng.CreateColumn(ctx, board.ID, "Doing")
	require.NoError(t, err)

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3")

	ch := pub.Subscribe("acme")
	// Move T3 to the other column and swap T1/T2 in one atomic batch.
	err = eng.BatchRepositionTasks(ctx, []Reposition{
		{TaskID: tasks[2].ID, ColumnID: dest.ID, Position: 0},
		{TaskID: tasks[0].ID, ColumnID: col.ID, Position: 1},
		{TaskID: tasks[1].ID, ColumnID: col.ID, Position: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"T2", "T1"}, columnOrder(t, store, col.ID))
	assert.Equal(t, []string{"T3"}, columnOrder(t, store, dest.ID))

	got := drainEvents(ch)
	require.Len(t, got, 1, "one reorder event per affected board")
	assert.Equal(t, events.EventBoardReordered, got[0].Type)
	assert.Equal(t, board.ID, got[0].BoardID)
}

func TestBatchRepositionValidation(t *testing.T) {
	t.Parallel()
	eng, _, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1")

	err := eng.BatchRepositionTasks(ctx, nil)
	assert.ErrorIs(t, err, bwerrors.ErrInvalidMutationPlan(""))

	err = eng.BatchRepositionTasks(ctx, []Reposition{{TaskID: tasks[0].ID, ColumnID: col.ID, Position: -1}})
	assert.ErrorIs(t, err, bwerrors.ErrInvalidMutationPlan(""))

	err = eng.BatchRepositionTasks(ctx, []Reposition{{TaskID: tasks[0].ID, ColumnID: "missing", Position: 0}})
	assert.ErrorIs(t, err, bwerrors.ErrColumnNotFound("missing"))
}

func TestPlanRenumberWritesOnlyChangedRows(t *testing.T) {
	t.Parallel()
	eng, store, _ := newTestEngine(t)
	_, col := seedBoard(t, eng, "acme", "Roadmap")
	ctx := context.Background()

	tasks := seedTasks(t, eng, col.ID, "T1", "T2", "T3", "T4")

	// Punch a hole at position 1.
	_, err := store.ExecContext(ctx, "UPDATE tasks SET position = 7 WHERE id = ?", tasks[1].ID)
	require.NoError(t, err)

	pm := NewPositionManager(store)
	plan := NewPlan()
	require.NoError(t, pm.PlanRenumber(ctx, plan, col.ID, ""))

	// T1 keeps 0, T3 moves 2->1, T4 moves 3->2, T2 moves 7->3.
	assert.Equal(t, 3, plan.Len())

	coord := NewCoordinator(NewDirectGateway(store), testLogger())
	require.NoError(t, coord.Apply(ctx, plan))
	assert.Equal(t, []string{"T1", "T3", "T4", "T2"}, columnOrder(t, store, col.ID))
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, clamp(-3, 0, 5))
	assert.Equal(t, 5, clamp(9, 0, 5))
	assert.Equal(t, 2, clamp(2, 0, 5))
	assert.Equal(t, 0, clamp(4, 0, -1), "empty range collapses to the lower bound")
}
