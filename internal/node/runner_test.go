package node

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fluxgo/internal/status"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(n *Node)
		wantErr bool
	}{
		{"valid", func(n *Node) {}, false},
		{"name too short", func(n *Node) { n.Name = "ab" }, true},
		{"name too long", func(n *Node) { n.Name = "a_very_long_node_name_over_thirty_chars" }, true},
		{"negative timeout", func(n *Node) { n.TimeoutSeconds = -1 }, true},
		{"negative retries", func(n *Node) { n.MaxRetries = -1 }, true},
		{"negative retry delay", func(n *Node) { n.RetryDelaySeconds = -1 }, true},
		{"missing logic", func(n *Node) { n.Logic = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := MustNew("valid_node", func(n *Node) error { return nil })
			tt.mutate(n)
			if err := n.ValidateConfig(); (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecuteSuccess(t *testing.T) {
	n := MustNew("happy_node", func(n *Node) error {
		n.SetOutput("payload")
		return nil
	})

	if err := n.Execute(); err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	last := n.LastExecution()
	if last == nil || last.Status != status.Completed {
		t.Fatalf("last execution = %+v, want COMPLETED", last)
	}
	if last.Output != "payload" {
		t.Errorf("output = %v, want payload", last.Output)
	}
	if last.Metadata.StartTime.IsZero() || last.Metadata.EndTime.IsZero() {
		t.Error("execution metadata not stamped")
	}
	if last.Metadata.EndTime.Before(last.Metadata.StartTime) {
		t.Error("end time precedes start time")
	}
	if last.Err != nil {
		t.Errorf("successful execution carries error %+v", last.Err)
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	calls := 0
	n := MustNew("flaky_node", func(n *Node) error {
		calls++
		if calls < 3 {
			return status.Network("transient blip")
		}
		return nil
	})
	n.MaxRetries = 3

	if err := n.Execute(); err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if calls != 3 {
		t.Errorf("body ran %d times, want 3", calls)
	}
	if n.Attempts() != 3 {
		t.Errorf("Attempts() = %d, want 3", n.Attempts())
	}

	execs := n.Executions()
	for i, ex := range execs[:2] {
		if ex.Status != status.NetworkFailure {
			t.Errorf("attempt %d status = %v, want NETWORK_FAILURE", i+1, ex.Status)
		}
		if ex.Err == nil || ex.Err.ClassName != "NetworkFailureException" {
			t.Errorf("attempt %d error = %+v", i+1, ex.Err)
		}
	}
	if execs[2].Status != status.Completed {
		t.Errorf("final attempt status = %v, want COMPLETED", execs[2].Status)
	}
}

func TestExecuteExhaustsRetries(t *testing.T) {
	calls := 0
	n := MustNew("doomed_node", func(n *Node) error {
		calls++
		return status.Data("corrupt input")
	})
	n.MaxRetries = 2

	err := n.Execute()
	if err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
	if status.CodeOf(err) != status.DataError {
		t.Errorf("error code = %v, want DATA_ERROR", status.CodeOf(err))
	}
	// MaxRetries counts retries after the initial attempt
	if calls != 3 {
		t.Errorf("body ran %d times, want 3", calls)
	}
	if last := n.LastExecution(); last.Err == nil || last.Err.ClassName != "DataErrorException" {
		t.Errorf("last error = %+v", n.LastExecution().Err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	released := make(chan struct{})
	n := MustNew("slow_node", func(n *Node) error {
		<-released
		return nil
	})
	n.TimeoutSeconds = 1

	start := time.Now()
	err := n.Execute()
	close(released)

	if err == nil {
		t.Fatal("Execute() succeeded, want timeout")
	}
	if status.CodeOf(err) != status.TimedOut {
		t.Errorf("error code = %v, want TIMED_OUT", status.CodeOf(err))
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout took %s, body was not abandoned", elapsed)
	}

	last := n.LastExecution()
	if last.Status != status.TimedOut {
		t.Errorf("status = %v, want TIMED_OUT", last.Status)
	}
	if last.Err == nil || last.Err.ClassName != "TimeoutException" {
		t.Errorf("error = %+v, want TimeoutException", last.Err)
	}
}

func TestExecuteClassifiesPlainErrors(t *testing.T) {
	n := MustNew("plain_err_node", func(n *Node) error {
		return errors.New("something odd")
	})

	if err := n.Execute(); err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
	last := n.LastExecution()
	if last.Status != status.Failed {
		t.Errorf("status = %v, want FAILED", last.Status)
	}
	if last.Err.ClassName != "*errors.errorString" {
		t.Errorf("class name = %q", last.Err.ClassName)
	}
}

func TestHooksFireInOrder(t *testing.T) {
	var order []string
	n := MustNew("hooked_node", func(n *Node) error { return nil })
	n.Hooks = Hooks{
		OnStart:   func(n *Node) { order = append(order, "start") },
		OnSuccess: func(n *Node) { order = append(order, "success") },
		OnFailure: func(n *Node, err error) { order = append(order, "failure") },
		OnFinish:  func(n *Node) { order = append(order, "finish") },
	}

	if err := n.Execute(); err != nil {
		t.Fatal(err)
	}
	want := []string{"start", "success", "finish"}
	if len(order) != len(want) {
		t.Fatalf("hook order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hook order = %v, want %v", order, want)
		}
	}
}

func TestFailureHookReceivesError(t *testing.T) {
	var seen error
	n := MustNew("failing_node", func(n *Node) error { return status.APICall("502 from upstream") })
	n.Hooks.OnFailure = func(n *Node, err error) { seen = err }

	_ = n.Execute()
	if status.CodeOf(seen) != status.APICallFailure {
		t.Errorf("OnFailure error code = %v, want API_CALL_FAILURE", status.CodeOf(seen))
	}
}

func TestResetExecutions(t *testing.T) {
	n := MustNew("reset_node", func(n *Node) error { return nil })
	if err := n.Execute(); err != nil {
		t.Fatal(err)
	}
	n.ResetExecutions()
	if n.Attempts() != 0 || n.LastExecution() != nil {
		t.Error("history survived reset")
	}
}

// waitForAttempts blocks until the node has opened at least want records.
func waitForAttempts(t *testing.T, n *Node, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for n.Attempts() < want {
		if time.Now().After(deadline) {
			t.Fatalf("node never reached %d attempts", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResetWhileBodyInFlight(t *testing.T) {
	release := make(chan error)
	n := MustNew("raced_node", func(n *Node) error { return <-release })

	done := make(chan error, 1)
	go func() { done <- n.Execute() }()
	waitForAttempts(t, n, 1)

	// a workflow-level retry discards the history while the body still runs
	n.ResetExecutions()
	release <- status.Data("late failure")

	if err := <-done; err == nil {
		t.Fatal("abandoned run reported success")
	}
	if n.Attempts() != 0 {
		t.Errorf("abandoned runner wrote %d records into the reset history", n.Attempts())
	}
}

func TestAbandonedRunnerLeavesNewAttemptAlone(t *testing.T) {
	var calls int32
	release := make(chan error)
	n := MustNew("handover_node", func(n *Node) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return <-release
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- n.Execute() }()
	waitForAttempts(t, n, 1)

	n.ResetExecutions()
	if err := n.Execute(); err != nil {
		t.Fatal(err)
	}

	// let the first runner finish failing and observe the handover
	release <- status.Data("late failure")
	if err := <-done; err == nil {
		t.Fatal("abandoned run reported success")
	}

	if n.Attempts() != 1 {
		t.Fatalf("Attempts() = %d, want 1", n.Attempts())
	}
	last := n.LastExecution()
	if last.Status != status.Completed || last.Err != nil {
		t.Errorf("late failure leaked into the live record: %+v", last)
	}
}

func TestCloneSharesConfigNotHistory(t *testing.T) {
	n := MustNew("cloned_node", func(n *Node) error { return nil })
	n.TimeoutSeconds = 7
	if err := n.Execute(); err != nil {
		t.Fatal(err)
	}

	c := n.Clone()
	if c.ID() != n.ID() || c.TimeoutSeconds != 7 {
		t.Error("clone lost identity or config")
	}
	if c.Attempts() != 0 {
		t.Error("clone inherited execution history")
	}
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if n.Attempts() != 1 {
		t.Error("running the clone mutated the original")
	}
}

func TestPeerLookup(t *testing.T) {
	producer := MustNew("producer_node", func(n *Node) error {
		n.SetOutput(42)
		return nil
	})
	if err := producer.Execute(); err != nil {
		t.Fatal(err)
	}

	consumer := MustNew("consumer_node", func(n *Node) error {
		peer := n.Peer("producer_node")
		if peer == nil {
			return status.Dependency("producer not visible")
		}
		n.SetOutput(peer.LastExecution().Output)
		return nil
	})
	consumer.SetWorkflowContext(WorkflowContext{
		Lookup: func(name string) *Node {
			if name == "producer_node" {
				return producer
			}
			return nil
		},
	})

	if err := consumer.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := consumer.LastExecution().Output; got != 42 {
		t.Errorf("consumer output = %v, want 42", got)
	}

	outside := MustNew("lonely_node", func(n *Node) error { return nil })
	if outside.Peer("producer_node") != nil {
		t.Error("Peer outside a workflow should be nil")
	}
}
