package dag

import (
	"errors"
	"fmt"

	"fluxgo/internal/node"
)

var (
	ErrDuplicateName = errors.New("node name already present")
	ErrUnknownNode   = errors.New("unknown node")
	ErrSelfLoop      = errors.New("self-loop edges are not allowed")
	ErrDuplicateEdge = errors.New("edge already exists")
	ErrCycle         = errors.New("edge would create a cycle")
)

// Graph holds the workflow's nodes and edges. It is mutated during build
// and frozen once execution starts; the scheduler only reads it.
type Graph struct {
	nodes map[string]*node.Node
	order []string
	edges []*Edge
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*node.Node)}
}

// AddNode registers a node under its name.
func (g *Graph) AddNode(n *node.Node) error {
	if err := n.ValidateConfig(); err != nil {
		return err
	}
	if _, exists := g.nodes[n.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, n.Name)
	}
	g.nodes[n.Name] = n
	g.order = append(g.order, n.Name)
	return nil
}

// AddEdge adds an unconditional dependency source -> destination.
func (g *Graph) AddEdge(source, destination string) (*Edge, error) {
	return g.addEdge(&Edge{Source: source, Destination: destination, kind: edgePlain})
}

// AddConditionalEdge adds a dependency guarded by cond.
func (g *Graph) AddConditionalEdge(source, destination string, cond Condition) (*Edge, error) {
	if cond == nil {
		return nil, fmt.Errorf("condition is required for a conditional edge")
	}
	return g.addEdge(&Edge{Source: source, Destination: destination, kind: edgeConditional, condition: cond})
}

// AddEdgeIfSourceCompleted is sugar for a conditional edge whose predicate
// is "source has at least one attempt and its last status is COMPLETED".
func (g *Graph) AddEdgeIfSourceCompleted(source, destination string) (*Edge, error) {
	e := &Edge{Source: source, Destination: destination, kind: edgeSourceCompleted}
	e.condition = sourceCompletedCondition(g, source)
	return g.addEdge(e)
}

// AddExprEdge adds a dependency guarded by an expression over node state,
// e.g. `nodes["producer"].status == "COMPLETED" && nodes["producer"].attempts < 3`.
// The expression is compiled at build time; evaluation failures count as false.
func (g *Graph) AddExprEdge(source, destination, expression string) (*Edge, error) {
	cond, err := g.compileExprCondition(expression)
	if err != nil {
		return nil, err
	}
	return g.addEdge(&Edge{Source: source, Destination: destination, kind: edgeExpr, condition: cond, expression: expression})
}

func (g *Graph) addEdge(e *Edge) (*Edge, error) {
	if _, ok := g.nodes[e.Source]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, e.Source)
	}
	if _, ok := g.nodes[e.Destination]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, e.Destination)
	}
	if e.Source == e.Destination {
		return nil, fmt.Errorf("%w: %q", ErrSelfLoop, e.Source)
	}
	if g.Edge(e.Source, e.Destination) != nil {
		return nil, fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.Source, e.Destination)
	}
	// Committed only if the hypothetical edge set still sorts; no partial
	// mutation on rejection.
	if err := g.validateAcyclic(e); err != nil {
		return nil, err
	}
	g.edges = append(g.edges, e)
	return e, nil
}

// Node returns the node registered under name, or nil.
func (g *Graph) Node(name string) *node.Node {
	return g.nodes[name]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*node.Node {
	out := make([]*node.Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// NodeNames returns the registered names in insertion order.
func (g *Graph) NodeNames() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Edges returns the edge list in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Edge returns the edge source -> destination, or nil.
func (g *Graph) Edge(source, destination string) *Edge {
	for _, e := range g.edges {
		if e.Source == source && e.Destination == destination {
			return e
		}
	}
	return nil
}

// Parents returns the direct predecessors of name in edge-insertion order.
func (g *Graph) Parents(name string) []*node.Node {
	var out []*node.Node
	for _, e := range g.edges {
		if e.Destination == name {
			out = append(out, g.nodes[e.Source])
		}
	}
	return out
}

// Children returns the direct successors of name in edge-insertion order.
func (g *Graph) Children(name string) []*node.Node {
	var out []*node.Node
	for _, e := range g.edges {
		if e.Source == name {
			out = append(out, g.nodes[e.Destination])
		}
	}
	return out
}

// Eligibility classifies a node for one scheduling round.
type Eligibility int

const (
	// NotReady: already resolved, or some parent is still unresolved.
	NotReady Eligibility = iota
	// Ready: all parents resolved and every guarding condition passed.
	Ready
	// Skipped: all parents resolved but at least one condition evaluated
	// false; the node will never run and counts as resolved for its
	// descendants.
	Skipped
)

// Classify evaluates the node's parent edges against the resolved set.
// Conditions run live on every call; the scheduler asks at most once per
// round per node to avoid redundant side effects.
func (g *Graph) Classify(name string, resolved map[string]bool) Eligibility {
	if resolved[name] {
		return NotReady
	}

	for _, e := range g.edges {
		if e.Destination != name {
			continue
		}
		if !resolved[e.Source] {
			return NotReady
		}
	}

	for _, e := range g.edges {
		if e.Destination != name || !e.HasCondition() {
			continue
		}
		if !e.Evaluate() {
			return Skipped
		}
	}
	return Ready
}

// CanNodeRun reports whether name may be dispatched given the resolved set.
func (g *Graph) CanNodeRun(name string, resolved map[string]bool) bool {
	return g.Classify(name, resolved) == Ready
}

// Clone rebuilds the graph for an independent run. Nodes are cloned with
// empty histories; source-completed and expression conditions are rebound
// to the cloned nodes, raw condition funcs are shared.
func (g *Graph) Clone() *Graph {
	out := NewGraph()
	for _, name := range g.order {
		// config already validated on the template
		_ = out.AddNode(g.nodes[name].Clone())
	}
	for _, e := range g.edges {
		switch e.kind {
		case edgeSourceCompleted:
			_, _ = out.AddEdgeIfSourceCompleted(e.Source, e.Destination)
		case edgeExpr:
			_, _ = out.AddExprEdge(e.Source, e.Destination, e.expression)
		case edgeConditional:
			_, _ = out.AddConditionalEdge(e.Source, e.Destination, e.condition)
		default:
			_, _ = out.AddEdge(e.Source, e.Destination)
		}
	}
	return out
}
