package node

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fluxgo/internal/logger"
)

const (
	MinNameLength = 3
	MaxNameLength = 30
)

// Logic is the user-provided body of a node. Side effects flow through the
// node's own per-attempt output container (SetOutput); peer outputs are
// reachable through the workflow context.
type Logic func(n *Node) error

// Hooks are user-overridable lifecycle callbacks. Failures inside a hook
// are not caught.
type Hooks struct {
	OnStart   func(n *Node)
	OnSuccess func(n *Node)
	OnFailure func(n *Node, err error)
	OnFinish  func(n *Node)
}

// WorkflowContext is attached by the scheduler before the body runs: the
// run-wide input, the current workflow attempt's metadata, and a lookup
// for peer nodes in the same run.
type WorkflowContext struct {
	Input    any
	Metadata *Metadata
	Lookup   func(name string) *Node
}

// Node is a single unit of user work. Created at build time, mutated only
// by its own runner during execution, never destroyed.
type Node struct {
	Name              string
	Description       string
	TimeoutSeconds    int // 0 = no per-node deadline
	MaxRetries        int
	RetryDelaySeconds int
	Logic             Logic
	Hooks             Hooks

	id  string
	log *logger.Service

	mu         sync.RWMutex
	executions []*Execution
	resets     uint64
	wctx       WorkflowContext
}

// New builds a node and validates its configuration.
func New(name string, logic Logic) (*Node, error) {
	n := &Node{Name: name, Logic: logic, id: uuid.NewString(), log: logger.Discard()}
	if err := n.ValidateConfig(); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNew is New for statically-known workflow definitions.
func MustNew(name string, logic Logic) *Node {
	n, err := New(name, logic)
	if err != nil {
		panic(err)
	}
	return n
}

// ValidateConfig checks the name and numeric bounds.
func (n *Node) ValidateConfig() error {
	if l := len(n.Name); l < MinNameLength || l > MaxNameLength {
		return fmt.Errorf("node name %q must be %d-%d characters", n.Name, MinNameLength, MaxNameLength)
	}
	if n.TimeoutSeconds < 0 {
		return fmt.Errorf("node %q: timeout_seconds must be positive or unset", n.Name)
	}
	if n.MaxRetries < 0 {
		return fmt.Errorf("node %q: max_retries must be >= 0", n.Name)
	}
	if n.RetryDelaySeconds < 0 {
		return fmt.Errorf("node %q: retry_delay_seconds must be >= 0", n.Name)
	}
	if n.Logic == nil {
		return fmt.Errorf("node %q: logic body is required", n.Name)
	}
	return nil
}

// ID returns the generated node identity.
func (n *Node) ID() string { return n.id }

// SetLogger replaces the discard logger; called by the owning workflow.
func (n *Node) SetLogger(log *logger.Service) {
	if log != nil {
		n.log = log
	}
}

// SetWorkflowContext attaches the run-wide input and metadata. Called by
// the scheduler before dispatch; read-only to the body.
func (n *Node) SetWorkflowContext(wctx WorkflowContext) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.wctx = wctx
}

// WorkflowInput exposes the run-wide input to the body.
func (n *Node) WorkflowInput() any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.wctx.Input
}

// WorkflowMetadata exposes the current workflow attempt's metadata.
func (n *Node) WorkflowMetadata() *Metadata {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.wctx.Metadata
}

// Peer resolves another node in the running workflow by name, so a consumer
// can read a producer's LastExecution().Output. Nil when unknown or when
// the node runs outside a workflow.
func (n *Node) Peer(name string) *Node {
	n.mu.RLock()
	lookup := n.wctx.Lookup
	n.mu.RUnlock()
	if lookup == nil {
		return nil
	}
	return lookup(name)
}

// Attempts returns how many executions have been opened.
func (n *Node) Attempts() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.executions)
}

// Executions returns a snapshot of the attempt list.
func (n *Node) Executions() []*Execution {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Execution, len(n.executions))
	copy(out, n.executions)
	return out
}

// LastExecution returns the most recent attempt, or nil before the first.
func (n *Node) LastExecution() *Execution {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.executions) == 0 {
		return nil
	}
	return n.executions[len(n.executions)-1]
}

// SetOutput stores v on the current attempt's output container.
func (n *Node) SetOutput(v any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.executions) == 0 {
		return
	}
	n.executions[len(n.executions)-1].Output = v
}

// Output returns the current attempt's output container.
func (n *Node) Output() any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.executions) == 0 {
		return nil
	}
	return n.executions[len(n.executions)-1].Output
}

// ResetExecutions clears the attempt list. The scheduler calls this at the
// start of each workflow-level retry so a fresh attempt observes fresh
// nodes. Bumping the reset generation invalidates any runner that was
// abandoned by a workflow deadline and is still in flight.
func (n *Node) ResetExecutions() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.executions = nil
	n.resets++
}

// session returns the current reset generation. A runner may only open
// attempts while its session is current.
func (n *Node) session() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.resets
}

// Clone returns a node with the same identity and configuration but an
// empty execution history. Logic and hooks are shared; they receive the
// clone as their argument, so attempt state stays per-run.
func (n *Node) Clone() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return &Node{
		Name:              n.Name,
		Description:       n.Description,
		TimeoutSeconds:    n.TimeoutSeconds,
		MaxRetries:        n.MaxRetries,
		RetryDelaySeconds: n.RetryDelaySeconds,
		Logic:             n.Logic,
		Hooks:             n.Hooks,
		id:                n.id,
		log:               n.log,
	}
}

func (n *Node) timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}
