package node

import (
	"time"

	"github.com/google/uuid"

	"fluxgo/internal/status"
)

// Metadata stamps the wall-clock boundaries of a single attempt. The same
// shape is reused for workflow-level attempts.
type Metadata struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// ProcessTime is the derived attempt duration; zero until both stamps exist.
func (m Metadata) ProcessTime() time.Duration {
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return 0
	}
	return m.EndTime.Sub(m.StartTime)
}

// Error captures the failure of one attempt in a serializable form.
type Error struct {
	Status    status.Code `json:"status"`
	ClassName string      `json:"exception_class_name"`
	Message   string      `json:"exception_message"`
}

// Execution is one attempt of a node. Appended to the node's attempt list
// and never removed; a retry appends a new record.
type Execution struct {
	ID       string      `json:"id"`
	NodeName string      `json:"name"`
	Metadata Metadata    `json:"metadata"`
	Status   status.Code `json:"status"`
	Output   any         `json:"output,omitempty"`
	Err      *Error      `json:"error,omitempty"`
}

func newExecution(nodeName string) *Execution {
	return &Execution{
		ID:       uuid.NewString(),
		NodeName: nodeName,
		Status:   status.Waiting,
	}
}
