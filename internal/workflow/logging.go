package workflow

import (
	"fmt"
	"strings"

	"fluxgo/internal/node"
	"fluxgo/internal/status"
)

// DocsGenerator is the documentation collaborator invoked after workflow
// finalization when auto_generate_md is set. Failures are non-fatal.
type DocsGenerator interface {
	Generate(w *Workflow, mdPath, diagramPath string) error
}

// SetDocsGenerator attaches the docs collaborator; nil disables generation.
func (w *Workflow) SetDocsGenerator(gen DocsGenerator) { w.docsGen = gen }

// finalizeWorkflow emits the summary and optionally generates docs. Runs
// on every exit path of Execute.
func (w *Workflow) finalizeWorkflow() {
	w.logWorkflowSummary()

	if w.inputs == nil || w.docsGen == nil {
		return
	}
	base := w.inputs.Base()
	if !base.AutoGenerateMD {
		return
	}
	if err := w.docsGen.Generate(w, base.MDFilePath, base.DiagramFilePath); err != nil {
		// docs failures never fail the run
		w.log.Warning("docs generation failed", "workflow", w.Name, "error", err.Error())
	}
}

func (w *Workflow) verbose() bool {
	return w.inputs == nil || w.inputs.Base().Verbose
}

const bannerRule = "------------------------------"

func (w *Workflow) logWorkflowStart() {
	if !w.verbose() {
		return
	}
	w.log.Infof("%s\nExecuting - Workflow: %s, version: %s\nCommand: %s\n%s",
		bannerRule, w.Name, w.Version, BuildCLICommand(w.inputs), bannerRule)
}

func (w *Workflow) logWorkflowSummary() {
	latest := w.LastExecution()

	if !w.verbose() {
		if latest == nil {
			w.log.Info("workflow finished without executions", "workflow", w.Name)
			return
		}
		w.log.Info("workflow finished",
			"workflow", w.Name,
			"status", latest.Status.String(),
			"attempt", latest.Attempt,
			"duration", latest.Metadata.ProcessTime().String())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nSummary - Workflow: %s - Attempt #%d\n", bannerRule, w.Name, w.Attempt())
	if latest != nil {
		fmt.Fprintf(&sb, "Status: %s\nDuration: %s\nNodes executed: %d\n",
			latest.Status, latest.Metadata.ProcessTime(), len(latest.Output.NodesExecutions))
	}
	if prev := w.executions; len(prev) > 1 {
		sb.WriteString("Previous executions:\n")
		for i, ex := range prev[:len(prev)-1] {
			fmt.Fprintf(&sb, "  - Attempt #%d: status=%s duration=%s\n",
				i+1, ex.Status, ex.Metadata.ProcessTime())
		}
	}
	sb.WriteString(bannerRule)
	w.log.Infof("%s", sb.String())
}

func (w *Workflow) logNodeStart(n *node.Node) {
	if !w.verbose() {
		return
	}
	w.log.Infof("%s\nExecuting - Node: %s\nTimeout Seconds: %d\nRetries: %d, Retry Delay Seconds: %d\n%s",
		bannerRule, n.Name, n.TimeoutSeconds, n.MaxRetries, n.RetryDelaySeconds, bannerRule)
}

func (w *Workflow) logNodeSummary(n *node.Node) {
	latest := n.LastExecution()

	if !w.verbose() {
		st := status.Unknown
		duration := "0s"
		if latest != nil {
			st = latest.Status
			duration = latest.Metadata.ProcessTime().String()
		}
		if st == status.Completed {
			w.log.Info("node completed", "node", n.Name, "duration", duration)
			return
		}
		attrs := []any{"node", n.Name, "status", st.String(), "duration", duration}
		if latest != nil && latest.Err != nil {
			attrs = append(attrs, "error_class", latest.Err.ClassName, "error", latest.Err.Message)
		}
		w.log.Info("node failed", attrs...)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nSummary - Node: %s - Execution #%d\n", bannerRule, n.Name, n.Attempts())
	if latest != nil {
		fmt.Fprintf(&sb, "Status: %s\nDuration: %s\n", latest.Status, latest.Metadata.ProcessTime())
		if latest.Err != nil {
			fmt.Fprintf(&sb, "Error: %s: %s\n", latest.Err.ClassName, latest.Err.Message)
		}
	}
	var failures []string
	for i, ex := range n.Executions() {
		if ex == latest || ex.Status == status.Completed {
			continue
		}
		line := fmt.Sprintf("  - Attempt #%d: status=%s duration=%s", i+1, ex.Status, ex.Metadata.ProcessTime())
		if ex.Err != nil {
			line += fmt.Sprintf(" error=%s: %s", ex.Err.ClassName, ex.Err.Message)
		}
		failures = append(failures, line)
	}
	if len(failures) > 0 {
		sb.WriteString("Previous execution failures:\n")
		sb.WriteString(strings.Join(failures, "\n"))
		sb.WriteString("\n")
	}
	sb.WriteString(bannerRule)
	w.log.Infof("%s", sb.String())
}
