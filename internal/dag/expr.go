package dag

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// compileExprCondition compiles an expression into a Condition evaluated
// against the graph's live node state. The environment exposes a `nodes`
// map: nodes["name"].status (enum name), .attempts and .output.
func (g *Graph) compileExprCondition(expression string) (Condition, error) {
	program, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile edge expression %q: %w", expression, err)
	}
	return func() bool {
		return g.runExpr(program)
	}, nil
}

func (g *Graph) runExpr(program *vm.Program) bool {
	nodes := make(map[string]any, len(g.nodes))
	for name, n := range g.nodes {
		state := map[string]any{
			"status":   "WAITING",
			"attempts": n.Attempts(),
			"output":   nil,
		}
		if last := n.LastExecution(); last != nil {
			state["status"] = last.Status.String()
			state["output"] = last.Output
		}
		nodes[name] = state
	}

	result, err := expr.Run(program, map[string]any{"nodes": nodes})
	if err != nil {
		return false
	}
	passed, ok := result.(bool)
	return ok && passed
}
