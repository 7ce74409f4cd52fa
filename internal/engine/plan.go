// Package engine implements the task ordering and relationship consistency
// engine: dense per-column task positions, mirrored relationship edges, and
// atomic mutation application over direct and proxy storage backends.
package engine

// Write is a single (statement, params) tuple in a mutation plan.
type Write struct {
	SQL  string `json:"sql"`
	Args []any  `json:"params"`
}

// Plan is the ordered list of row writes computed for one logical mutation.
// Plans are built by pure functions from freshly-read state and applied
// atomically by the Coordinator; order matters: ripple-shift writes must
// precede the final placement write.
type Plan struct {
	writes []Write
}

// NewPlan creates an empty mutation plan.
func NewPlan() *Plan {
	return &Plan{}
}

// Add appends a write to the plan.
func (p *Plan) Add(sql string, args ...any) {
	p.writes = append(p.writes, Write{SQL: sql, Args: args})
}

// Writes returns the ordered writes.
func (p *Plan) Writes() []Write {
	return p.writes
}

// Len returns the number of writes in the plan.
func (p *Plan) Len() int {
	return len(p.writes)
}

// Empty reports whether the plan has no writes.
func (p *Plan) Empty() bool {
	return len(p.writes) == 0
}
