package workflow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"fluxgo/internal/dag"
	"fluxgo/internal/metrics"
	"fluxgo/internal/node"
	"fluxgo/internal/retry"
	"fluxgo/internal/status"
)

var (
	// ErrNodesNotFound signals an empty graph at execution time.
	ErrNodesNotFound = &status.Error{Code: status.PrerequisiteFail, Message: "no nodes found in workflow graph"}
	// ErrUnsupportedGraphScenario guards against scheduling a parent while
	// one of its descendants is still running. Cannot happen in a valid
	// acyclic graph; checked explicitly anyway.
	ErrUnsupportedGraphScenario = &status.Error{Code: status.PrerequisiteFail, Message: "attempted to start a node while one of its children is running"}
)

// Execute drives the workflow to a terminal state: per-attempt scheduling
// loop under the workflow deadline, workflow-level retry, hooks, and
// finalization (summary log + optional docs generation).
func (w *Workflow) Execute(ctx context.Context) (err error) {
	defer w.finalizeWorkflow()

	if w.graph.Len() == 0 {
		return ErrNodesNotFound
	}
	if w.inputs == nil {
		in := NewBaseInput()
		w.inputs = &in
	}

	ctx, span := metrics.StartSpan(ctx, "workflow.execute",
		attribute.String("workflow.name", w.Name),
		attribute.String("workflow.id", w.id))
	defer span.End()

	w.logWorkflowStart()

	base := w.inputs.Base()
	policy := retry.Policy{
		MaxRetries: base.MaxRetries,
		Delay:      time.Duration(base.RetryDelaySeconds) * time.Second,
	}

	for attempt := 1; ; attempt++ {
		err = w.runAttempt(ctx, attempt)
		if err == nil {
			return nil
		}
		if !policy.ShouldRetry(attempt) {
			w.log.Error("workflow retries exhausted",
				"workflow", w.Name, "attempts", attempt, "error", err.Error())
			return err
		}
		w.log.Warning("workflow attempt failed, retrying",
			"workflow", w.Name, "attempt", attempt,
			"delay_seconds", base.RetryDelaySeconds, "error", err.Error())
		metrics.IncRetry("workflow")
		policy.Wait()
	}
}

// runAttempt opens one WorkflowExecution, runs the scheduling loop under
// the workflow deadline and closes the record on every exit path.
func (w *Workflow) runAttempt(ctx context.Context, attempt int) (err error) {
	// Each workflow attempt observes fresh nodes; per-node histories from
	// a previous attempt are discarded.
	for _, n := range w.graph.Nodes() {
		n.ResetExecutions()
	}

	exec := newWorkflowExecution(attempt)
	exec.Metadata.StartTime = time.Now()
	exec.Status = status.InProgress
	w.executions = append(w.executions, exec)

	defer func() {
		if exec.Metadata.EndTime.IsZero() {
			exec.Metadata.EndTime = time.Now()
		}
		if exec.Status == status.InProgress {
			exec.Status = status.Completed
		}
		metrics.ObserveWorkflowRun(w.Name, exec.Status, exec.Metadata.ProcessTime())
		if w.Hooks.OnFinish != nil {
			w.Hooks.OnFinish(w)
		}
	}()

	if w.Hooks.OnStart != nil {
		w.Hooks.OnStart(w)
	}

	if err = w.runWithDeadline(ctx, exec); err != nil {
		exec.Status = status.CodeOf(err)
		if w.Hooks.OnFailure != nil {
			w.Hooks.OnFailure(w, err)
		}
		return err
	}

	if w.Hooks.OnSuccess != nil {
		w.Hooks.OnSuccess(w)
	}
	return nil
}

// runWithDeadline wraps the scheduling loop in the workflow-level timeout.
// On expiry the attempt is marked TIMED_OUT and in-flight node tasks are
// abandoned; no cooperative cancellation is delivered to user code.
func (w *Workflow) runWithDeadline(ctx context.Context, exec *Execution) error {
	timeout := time.Duration(w.inputs.Base().TimeoutSeconds) * time.Second

	done := make(chan error, 1)
	go func() {
		done <- w.iterateNodes(ctx, exec)
	}()

	if timeout <= 0 {
		return <-done
	}

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		// The scheduling goroutine is abandoned from here on; sealing the
		// record keeps it from publishing into an attempt the caller owns.
		exec.seal()
		return status.Timeout("workflow " + w.Name + " exceeded its deadline")
	}
}

// iterateNodes is the scheduling loop. Each round it classifies eligible
// nodes in graph-insertion order, resolves skipped nodes, dispatches every
// runnable node concurrently, then blocks for one completion and applies
// the execution-group failure policy.
func (w *Workflow) iterateNodes(ctx context.Context, exec *Execution) error {
	names := w.graph.NodeNames()

	type result struct {
		name string
		err  error
	}

	scheduled := make(map[string]bool, len(names))
	resolved := make(map[string]bool, len(names))
	running := make(map[string]bool, len(names))
	nodeErrors := make(map[string]error, len(names))
	results := make(chan result, len(names))

	for {
		var runnable, skipped []string
		for _, name := range names {
			if scheduled[name] || resolved[name] {
				continue
			}
			switch w.graph.Classify(name, resolved) {
			case dag.Ready:
				runnable = append(runnable, name)
			case dag.Skipped:
				skipped = append(skipped, name)
			}
		}

		// A false condition resolves the child without an execution; its
		// descendants see it as done.
		if len(skipped) > 0 {
			for _, name := range skipped {
				resolved[name] = true
				w.log.Info("node skipped, guarding condition evaluated false",
					"workflow", w.Name, "node", name)
			}
			continue
		}

		for _, name := range runnable {
			for _, child := range w.graph.Children(name) {
				if running[child.Name] {
					return ErrUnsupportedGraphScenario
				}
			}
		}

		for _, name := range runnable {
			n := w.graph.Node(name)
			n.SetLogger(w.log)
			n.SetWorkflowContext(node.WorkflowContext{
				Input:    w.inputs,
				Metadata: &exec.Metadata,
				Lookup:   w.graph.Node,
			})
			w.logNodeStart(n)
			scheduled[name] = true
			running[name] = true
			go func(n *node.Node) {
				_, span := metrics.StartSpan(ctx, "node.execute",
					attribute.String("node.name", n.Name))
				defer span.End()
				results <- result{name: n.Name, err: n.Execute()}
			}(n)
		}

		if len(running) == 0 {
			if len(runnable) == 0 {
				return nil
			}
			continue
		}

		select {
		case res := <-results:
			delete(running, res.name)
			resolved[res.name] = true
			if res.err != nil {
				nodeErrors[res.name] = res.err
			}

			n := w.graph.Node(res.name)
			last := n.LastExecution()
			if last == nil || !exec.appendNodeExecution(last) {
				return status.NewError(status.TimedOut, "workflow %s attempt abandoned after its deadline", w.Name)
			}
			metrics.ObserveNodeExecution(w.Name, res.name, last.Status, last.Metadata.ProcessTime())
			w.logNodeSummary(n)

			if last.Status != status.Completed && w.allGroupsDead() {
				if err := nodeErrors[res.name]; err != nil {
					return err
				}
				return status.NewError(last.Status, "node %s failed", res.name)
			}
		case <-ctx.Done():
			return status.WrapError(status.Failed, ctx.Err(), "workflow execution cancelled")
		}
	}
}

// allGroupsDead implements the partial-failure policy. A group is dead iff
// at least one member has a terminated non-COMPLETED attempt; the workflow
// aborts only when every group is dead. No declared groups behaves as one
// implicit group over every node.
func (w *Workflow) allGroupsDead() bool {
	groups := w.groups
	if len(groups) == 0 {
		groups = [][]string{w.graph.NodeNames()}
	}

	for _, group := range groups {
		dead := false
		for _, name := range group {
			n := w.graph.Node(name)
			if n == nil {
				continue
			}
			last := n.LastExecution()
			if last != nil && last.Status.Terminal() && last.Status != status.Completed {
				dead = true
				break
			}
		}
		if !dead {
			return false
		}
	}
	return true
}
