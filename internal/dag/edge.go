package dag

import (
	"sync"

	"fluxgo/internal/status"
)

// Condition is a parameterless predicate guarding an edge. It is evaluated
// live each time eligibility is asked.
type Condition func() bool

type edgeKind int

const (
	edgePlain edgeKind = iota
	edgeConditional
	edgeSourceCompleted
	edgeExpr
)

// Edge is a directed dependency between two nodes, optionally guarded.
// ConditionPassed is tri-state: unevaluated until the first Evaluate call.
type Edge struct {
	Source      string
	Destination string

	kind       edgeKind
	condition  Condition
	expression string

	mu        sync.Mutex
	evaluated bool
	passed    bool
}

// HasCondition reports whether the edge carries a predicate.
func (e *Edge) HasCondition() bool {
	return e.condition != nil
}

// Evaluate runs the predicate and records the observable tri-state.
// Unconditional edges always pass.
func (e *Edge) Evaluate() bool {
	result := true
	if e.condition != nil {
		result = e.condition()
	}

	e.mu.Lock()
	e.evaluated = true
	e.passed = result
	e.mu.Unlock()
	return result
}

// ConditionPassed returns (passed, evaluated). Before the first evaluation
// the first value is meaningless.
func (e *Edge) ConditionPassed() (bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passed, e.evaluated
}

// sourceCompletedCondition is the sugar predicate: the source node has at
// least one attempt and its last status is COMPLETED.
func sourceCompletedCondition(g *Graph, source string) Condition {
	return func() bool {
		n := g.Node(source)
		if n == nil {
			return false
		}
		last := n.LastExecution()
		return last != nil && last.Status == status.Completed
	}
}
