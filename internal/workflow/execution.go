package workflow

import (
	"sync"

	"github.com/google/uuid"

	"fluxgo/internal/node"
	"fluxgo/internal/status"
)

// Output collects every completed node execution of one workflow attempt,
// in completion order.
type Output struct {
	NodesExecutions []*node.Execution `json:"nodes_executions"`
}

// Execution is one attempt of the whole workflow. Appended to the
// workflow's attempt list and never removed.
type Execution struct {
	ID       string        `json:"id"`
	Attempt  int           `json:"attempt"`
	Metadata node.Metadata `json:"metadata"`
	Status   status.Code   `json:"status"`
	Output   Output        `json:"output"`

	mu     sync.Mutex
	sealed bool
}

func newWorkflowExecution(attempt int) *Execution {
	return &Execution{
		ID:      uuid.NewString(),
		Attempt: attempt,
		Status:  status.Waiting,
	}
}

// appendNodeExecution publishes a reaped node attempt into the record.
// Returns false once the record has been sealed, which tells an abandoned
// scheduling loop that the record now belongs to the caller.
func (e *Execution) appendNodeExecution(ne *node.Execution) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return false
	}
	e.Output.NodesExecutions = append(e.Output.NodesExecutions, ne)
	return true
}

// seal stops further publications into the record. Called when the
// workflow deadline expires and the scheduling goroutine is abandoned.
func (e *Execution) seal() {
	e.mu.Lock()
	e.sealed = true
	e.mu.Unlock()
}
