package workflow

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"fluxgo/internal/dag"
	"fluxgo/internal/logger"
	"fluxgo/internal/node"
	"fluxgo/internal/status"
)

// Hooks are user-overridable workflow lifecycle callbacks. Failures inside
// a hook are not caught.
type Hooks struct {
	OnStart   func(w *Workflow)
	OnSuccess func(w *Workflow)
	OnFailure func(w *Workflow, err error)
	OnFinish  func(w *Workflow)
}

// Workflow owns a graph of nodes, an ordered list of execution groups, a
// run-wide input and an append-only execution history.
type Workflow struct {
	Name        string
	Description string
	Version     string
	Hooks       Hooks

	id         string
	graph      *dag.Graph
	groups     [][]string
	inputs     Input
	executions []*Execution
	log        *logger.Service
	docsGen    DocsGenerator
}

// New builds an empty workflow with default logging.
func New(name string) *Workflow {
	return &Workflow{
		Name:  name,
		id:    uuid.NewString(),
		graph: dag.NewGraph(),
		log:   logger.New(logger.Config{Component: "workflow"}),
	}
}

// SetLogger replaces the workflow's logger; also propagated to nodes when
// they are dispatched.
func (w *Workflow) SetLogger(log *logger.Service) {
	if log != nil {
		w.log = log
	}
}

// SetInput attaches the run-wide input configuration.
func (w *Workflow) SetInput(in Input) { w.inputs = in }

// Input returns the attached input, or nil.
func (w *Workflow) Input() Input { return w.inputs }

// ID returns the generated workflow identity.
func (w *Workflow) ID() string { return w.id }

// Graph exposes the underlying graph for read-only inspection.
func (w *Workflow) Graph() *dag.Graph { return w.graph }

// AddNode registers a node in the workflow's graph.
func (w *Workflow) AddNode(n *node.Node) error {
	return w.graph.AddNode(n)
}

// AddEdge adds an unconditional dependency between two registered nodes.
func (w *Workflow) AddEdge(source, destination string) error {
	_, err := w.graph.AddEdge(source, destination)
	return err
}

// AddConditionalEdge adds a dependency guarded by cond.
func (w *Workflow) AddConditionalEdge(source, destination string, cond dag.Condition) error {
	_, err := w.graph.AddConditionalEdge(source, destination, cond)
	return err
}

// AddEdgeIfSourceCompleted adds the source-completed sugar edge.
func (w *Workflow) AddEdgeIfSourceCompleted(source, destination string) error {
	_, err := w.graph.AddEdgeIfSourceCompleted(source, destination)
	return err
}

// AddExprEdge adds an expression-guarded dependency.
func (w *Workflow) AddExprEdge(source, destination, expression string) error {
	_, err := w.graph.AddExprEdge(source, destination, expression)
	return err
}

// AddExecutionGroup declares a set of node names the caller cares about
// succeeding together. The workflow aborts only when every declared group
// has at least one failed member.
func (w *Workflow) AddExecutionGroup(names ...string) error {
	if len(names) == 0 {
		return fmt.Errorf("execution group must include at least one node")
	}
	var missing []string
	seen := make(map[string]bool, len(names))
	group := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if w.graph.Node(name) == nil {
			missing = append(missing, name)
			continue
		}
		group = append(group, name)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("execution group contains unknown nodes: %v", missing)
	}
	w.groups = append(w.groups, group)
	return nil
}

// ExecutionGroups returns a copy of the declared groups in order.
func (w *Workflow) ExecutionGroups() [][]string {
	out := make([][]string, len(w.groups))
	for i, g := range w.groups {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// Attempt returns how many workflow executions have been opened.
func (w *Workflow) Attempt() int { return len(w.executions) }

// Executions returns a snapshot of the attempt list.
func (w *Workflow) Executions() []*Execution {
	out := make([]*Execution, len(w.executions))
	copy(out, w.executions)
	return out
}

// LastExecution returns the most recent attempt, or nil before the first.
func (w *Workflow) LastExecution() *Execution {
	if len(w.executions) == 0 {
		return nil
	}
	return w.executions[len(w.executions)-1]
}

// ExitCode maps the terminal outcome to a process exit code: the last
// execution's status value, or the error's code when no attempt opened.
func (w *Workflow) ExitCode(err error) int {
	if last := w.LastExecution(); last != nil {
		return last.Status.ExitCode()
	}
	if err != nil {
		return status.CodeOf(err).ExitCode()
	}
	return status.Unknown.ExitCode()
}

// Clone returns an independent copy for a new run: cloned graph and nodes
// with empty histories, copied groups, no input, no executions. The
// template's execution history is never touched by running the clone.
func (w *Workflow) Clone() *Workflow {
	return &Workflow{
		Name:        w.Name,
		Description: w.Description,
		Version:     w.Version,
		Hooks:       w.Hooks,
		id:          w.id,
		graph:       w.graph.Clone(),
		groups:      w.ExecutionGroups(),
		log:         w.log,
		docsGen:     w.docsGen,
	}
}
