package node

import (
	"fmt"
	"time"

	"fluxgo/internal/metrics"
	"fluxgo/internal/retry"
	"fluxgo/internal/status"
)

// Execute runs the node's body up to MaxRetries+1 times, until an attempt
// succeeds or the budget is exhausted. The last error is returned as-is so
// the workflow level can inspect its status code.
//
// A runner abandoned by a workflow deadline may still be running when the
// next workflow attempt resets this node. From that point on the runner is
// stale: it stops opening attempts and its record writes are dropped.
func (n *Node) Execute() error {
	policy := retry.Policy{
		MaxRetries: n.MaxRetries,
		Delay:      time.Duration(n.RetryDelaySeconds) * time.Second,
	}
	session := n.session()

	for attempt := 1; ; attempt++ {
		exec := n.openExecution(session)
		if exec == nil {
			return status.NewError(status.Failed, "node %s run superseded by a newer workflow attempt", n.Name)
		}

		err := n.runAttempt(exec)
		if err == nil {
			return nil
		}

		if !policy.ShouldRetry(attempt) {
			n.log.Error("node retries exhausted",
				"node", n.Name, "attempts", attempt, "error", err.Error())
			return err
		}

		n.log.Warning("node attempt failed, retrying",
			"node", n.Name, "attempt", attempt,
			"delay_seconds", n.RetryDelaySeconds, "error", err.Error())
		metrics.IncRetry("node")
		policy.Wait()
	}
}

// runAttempt performs one attempt: run the body under the node deadline and
// finalize the record on every exit path.
func (n *Node) runAttempt(exec *Execution) (err error) {
	defer func() {
		n.finalizeExecution(exec)
		if n.Hooks.OnFinish != nil {
			n.Hooks.OnFinish(n)
		}
	}()

	if n.Hooks.OnStart != nil {
		n.Hooks.OnStart(n)
	}

	if err = n.runWithTimeout(exec); err != nil {
		if n.Hooks.OnFailure != nil {
			n.Hooks.OnFailure(n, err)
		}
		return err
	}

	if n.Hooks.OnSuccess != nil {
		n.Hooks.OnSuccess(n)
	}
	return nil
}

// runWithTimeout waits up to TimeoutSeconds for the body. On deadline
// expiry the attempt is marked TIMED_OUT immediately and the body goroutine
// is abandoned; whatever it does afterwards no longer affects status.
func (n *Node) runWithTimeout(exec *Execution) error {
	done := make(chan error, 1)
	go func() {
		done <- n.Logic(n)
	}()

	if n.TimeoutSeconds <= 0 {
		return n.handleBodyError(exec, <-done)
	}

	select {
	case err := <-done:
		return n.handleBodyError(exec, err)
	case <-time.After(n.timeout()):
		timeoutErr := status.Timeout(fmt.Sprintf("node %s exceeded %ds deadline", n.Name, n.TimeoutSeconds))
		n.recordFailure(exec, status.TimedOut, "TimeoutException", timeoutErr.Error())
		return timeoutErr
	}
}

// handleBodyError maps a body failure onto the taxonomy and records it.
func (n *Node) handleBodyError(exec *Execution, err error) error {
	if err == nil {
		return nil
	}
	code := retry.Classify(err)
	n.recordFailure(exec, code, exceptionClassName(code, err), err.Error())
	return err
}

// openExecution appends a new attempt record, unless the history was reset
// for a newer workflow attempt since this runner started.
func (n *Node) openExecution(session uint64) *Execution {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.resets != session {
		return nil
	}
	exec := newExecution(n.Name)
	exec.Metadata.StartTime = time.Now()
	exec.Status = status.InProgress
	n.executions = append(n.executions, exec)
	return exec
}

// owns reports whether exec is still this node's current attempt record.
// False after ResetExecutions discarded it or a newer attempt replaced it.
// Callers hold n.mu.
func (n *Node) owns(exec *Execution) bool {
	return len(n.executions) > 0 && n.executions[len(n.executions)-1] == exec
}

func (n *Node) finalizeExecution(exec *Execution) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.owns(exec) {
		return
	}
	if exec.Metadata.EndTime.IsZero() {
		exec.Metadata.EndTime = time.Now()
	}
	if exec.Status == status.InProgress {
		exec.Status = status.Completed
	}
}

func (n *Node) recordFailure(exec *Execution, code status.Code, className, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.owns(exec) {
		return
	}
	exec.Status = code
	exec.Err = &Error{Status: code, ClassName: className, Message: message}
}

// exceptionClassName mirrors the class names the status taxonomy is known
// by in run records and log lines.
func exceptionClassName(code status.Code, err error) string {
	switch code {
	case status.TimedOut:
		return "TimeoutException"
	case status.PrerequisiteFail:
		return "PrerequisiteFailureException"
	case status.InfrastructureError:
		return "InfrastructureErrorException"
	case status.DataError:
		return "DataErrorException"
	case status.APICallFailure:
		return "APICallFailureException"
	case status.NetworkFailure:
		return "NetworkFailureException"
	case status.DataValidationFailure:
		return "DataValidationFailureException"
	case status.DependencyUnavailable:
		return "DependencyUnavailableException"
	default:
		return fmt.Sprintf("%T", err)
	}
}
