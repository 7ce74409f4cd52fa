package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mpelletier/boardwalk/internal/db"
	bwerrors "github.com/mpelletier/boardwalk/internal/errors"
)

// Kind identifies a relationship edge type.
type Kind string

const (
	KindParent  Kind = "parent"
	KindChild   Kind = "child"
	KindRelated Kind = "related"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindParent, KindChild, KindRelated:
		return Kind(s), nil
	default:
		return "", bwerrors.ErrInvalidKind(s)
	}
}

// Inverse returns the mirrored kind: parent<->child. Related is its own
// mirror but is stored as a single directed row, so it has no inverse edge.
func (k Kind) Inverse() Kind {
	switch k {
	case KindParent:
		return KindChild
	case KindChild:
		return KindParent
	default:
		return KindRelated
	}
}

// Mirrored reports whether edges of this kind are maintained as mirrored
// pairs on both tasks.
func (k Kind) Mirrored() bool {
	return k == KindParent || k == KindChild
}

// RelationshipManager creates and removes relationship edges, maintaining
// the parent/child inverse invariant and rejecting direct two-node cycles.
type RelationshipManager struct {
	store *db.DB
}

// NewRelationshipManager creates a relationship manager over the store.
func NewRelationshipManager(store *db.DB) *RelationshipManager {
	return &RelationshipManager{store: store}
}

// CycleCheck rejects an edge that would invert an existing parent/child
// pair between the same two tasks. It has no side effects and only checks
// the direct pair, not longer ancestor chains; related edges never conflict.
func (m *RelationshipManager) CycleCheck(ctx context.Context, taskID, relatedTaskID string, kind Kind) error {
	if !kind.Mirrored() {
		return nil
	}

	inverse := kind.Inverse()
	exists, err := m.store.RelationshipExists(ctx, taskID, string(inverse), relatedTaskID)
	if err != nil {
		return err
	}
	if exists {
		return bwerrors.ErrCycleDetected(fmt.Sprintf(
			"task %s already has a %s relationship to task %s", taskID, inverse, relatedTaskID))
	}
	return nil
}

// PlanCreate validates and builds the atomic write set for a new edge.
// For parent/child kinds the inverse edge is inserted on the counterpart
// task in the same plan, unless it already exists.
func (m *RelationshipManager) PlanCreate(ctx context.Context, taskID string, kind Kind, relatedTaskID string) (*Plan, *db.Relationship, error) {
	if taskID == relatedTaskID {
		return nil, nil, bwerrors.ErrSelfRelationship(taskID)
	}

	exists, err := m.store.RelationshipExists(ctx, taskID, string(kind), relatedTaskID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, bwerrors.ErrDuplicateRelationship(taskID, string(kind), relatedTaskID)
	}

	if err := m.CycleCheck(ctx, taskID, relatedTaskID, kind); err != nil {
		return nil, nil, err
	}

	rel := &db.Relationship{
		ID:            uuid.NewString(),
		TaskID:        taskID,
		Kind:          string(kind),
		RelatedTaskID: relatedTaskID,
	}

	plan := NewPlan()
	m.planInsert(plan, rel)

	if kind.Mirrored() {
		inverse := kind.Inverse()
		mirrorExists, err := m.store.RelationshipExists(ctx, relatedTaskID, string(inverse), taskID)
		if err != nil {
			return nil, nil, err
		}
		if !mirrorExists {
			m.planInsert(plan, &db.Relationship{
				ID:            uuid.NewString(),
				TaskID:        relatedTaskID,
				Kind:          string(inverse),
				RelatedTaskID: taskID,
			})
		}
	}
	return plan, rel, nil
}

// PlanDelete builds the atomic write set to remove an edge. Both directions
// of a parent/child pair are removed together.
func (m *RelationshipManager) PlanDelete(ctx context.Context, taskID, relationshipID string) (*Plan, *db.Relationship, error) {
	rel, err := m.store.GetRelationship(ctx, relationshipID)
	if err != nil {
		return nil, nil, err
	}
	if rel == nil || rel.TaskID != taskID {
		return nil, nil, bwerrors.ErrRelationshipNotFound(relationshipID)
	}

	p := m.store.Placeholder
	plan := NewPlan()
	plan.Add(fmt.Sprintf("DELETE FROM relationships WHERE id = %s", p(1)), rel.ID)

	if Kind(rel.Kind).Mirrored() {
		inverse := Kind(rel.Kind).Inverse()
		plan.Add(fmt.Sprintf(
			"DELETE FROM relationships WHERE task_id = %s AND kind = %s AND related_task_id = %s",
			p(1), p(2), p(3)),
			rel.RelatedTaskID, string(inverse), rel.TaskID)
	}
	return plan, rel, nil
}

func (m *RelationshipManager) planInsert(plan *Plan, rel *db.Relationship) {
	p := m.store.Placeholder
	plan.Add(fmt.Sprintf(`
		INSERT INTO relationships (id, task_id, kind, related_task_id, created_at)
		VALUES (%s, %s, %s, %s, %s)`,
		p(1), p(2), p(3), p(4), p(5)),
		rel.ID, rel.TaskID, rel.Kind, rel.RelatedTaskID, nowRFC3339())
}

// GraphNode is a task in a connected relationship neighborhood.
type GraphNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ColumnID string `json:"column_id"`
	BoardID  string `json:"board_id"`
}

// GraphEdge is a directed edge in a connected relationship neighborhood.
type GraphEdge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Kind string `json:"kind"`
	To   string `json:"to"`
}

// Graph is the local relationship neighborhood of a task.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// DefaultGraphLimit bounds traversal when the caller passes no limit.
const DefaultGraphLimit = 50

// ConnectedGraph walks the undirected union of all edges touching taskID,
// breadth-first, up to limit nodes. Expansion is iterative, never
// recursive, so the node cap guarantees termination on dense graphs.
func (m *RelationshipManager) ConnectedGraph(ctx context.Context, taskID string, limit int) (*Graph, error) {
	if limit <= 0 {
		limit = DefaultGraphLimit
	}

	root, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, bwerrors.ErrTaskNotFound(taskID)
	}

	graph := &Graph{}
	visited := map[string]bool{}
	seenEdges := map[string]bool{}
	queue := []*db.Task{root}

	for len(queue) > 0 && len(visited) < limit {
		current := queue[0]
		queue = queue[1:]
		if visited[current.ID] {
			continue
		}
		visited[current.ID] = true
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:       current.ID,
			Title:    current.Title,
			ColumnID: current.ColumnID,
			BoardID:  current.BoardID,
		})

		edges, err := m.store.TaskEdges(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if !seenEdges[e.ID] {
				seenEdges[e.ID] = true
				graph.Edges = append(graph.Edges, GraphEdge{
					ID:   e.ID,
					From: e.TaskID,
					Kind: e.Kind,
					To:   e.RelatedTaskID,
				})
			}

			neighborID := e.RelatedTaskID
			if neighborID == current.ID {
				neighborID = e.TaskID
			}
			if visited[neighborID] {
				continue
			}
			neighbor, err := m.store.GetTask(ctx, neighborID)
			if err != nil {
				return nil, err
			}
			if neighbor != nil {
				queue = append(queue, neighbor)
			}
		}
	}
	return graph, nil
}
