// Package registry tracks asynchronous workflow runs. Submissions clone
// the workflow template, run it on a background goroutine and expose the
// run record for polling. The registry is process-local and non-durable;
// an optional archive records terminal states for audit.
package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"fluxgo/internal/logger"
	"fluxgo/internal/metrics"
	"fluxgo/internal/status"
	"fluxgo/internal/storage"
	"fluxgo/internal/workflow"
)

// RunRecord is the registry's view of one submission, exposed over HTTP.
// Status carries the enum name, not the numeric value.
type RunRecord struct {
	RunID           string                `json:"run_id"`
	Endpoint        string                `json:"endpoint"`
	WorkflowName    string                `json:"workflow_name"`
	WorkflowVersion string                `json:"workflow_version,omitempty"`
	WorkflowID      string                `json:"workflow_id,omitempty"`
	Status          string                `json:"status"`
	SubmittedAt     string                `json:"submitted_at"`
	StartedAt       string                `json:"started_at,omitempty"`
	Executions      []*workflow.Execution `json:"executions,omitempty"`
	Error           string                `json:"error,omitempty"`
}

// Service is the run registry. The map is written by submitters and by one
// background goroutine per run; every access goes through the mutex.
type Service struct {
	mu      sync.RWMutex
	runs    map[string]*RunRecord
	log     *logger.Service
	archive *storage.Archive
}

// New builds a registry. archive may be nil to disable the audit trail.
func New(log *logger.Service, archive *storage.Archive) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		runs:    make(map[string]*RunRecord),
		log:     log,
		archive: archive,
	}
}

// Submit clones the template, attaches the already-built input, registers
// a WAITING record under a fresh run id and spawns the execution. The
// returned record is the submission receipt.
func (s *Service) Submit(endpoint string, template *workflow.Workflow, in workflow.Input) (RunRecord, error) {
	if in != nil {
		if err := in.Base().Validate(); err != nil {
			return RunRecord{}, status.WrapError(status.DataValidationFailure, err, "invalid workflow input")
		}
	}

	wf := template.Clone()
	wf.SetInput(in)

	runID := uuid.NewString()
	record := &RunRecord{
		RunID:           runID,
		Endpoint:        endpoint,
		WorkflowName:    wf.Name,
		WorkflowVersion: wf.Version,
		WorkflowID:      wf.ID(),
		Status:          status.Waiting.String(),
		SubmittedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}

	s.mu.Lock()
	s.runs[runID] = record
	s.mu.Unlock()

	metrics.IncSubmission(endpoint)
	go s.run(runID, wf)

	return *record, nil
}

func (s *Service) run(runID string, wf *workflow.Workflow) {
	s.mu.Lock()
	record := s.runs[runID]
	record.Status = status.InProgress.String()
	record.StartedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.mu.Unlock()

	metrics.RunStarted()
	defer metrics.RunFinished()

	err := wf.Execute(context.Background())

	s.mu.Lock()
	if last := wf.LastExecution(); last != nil {
		record.Status = last.Status.String()
	} else {
		record.Status = status.CodeOf(err).String()
	}
	record.Executions = wf.Executions()
	if err != nil {
		record.Error = err.Error()
	}
	snapshot := *record
	s.mu.Unlock()

	if err != nil {
		s.log.Warning("run finished with error",
			"run_id", runID, "workflow", wf.Name, "status", snapshot.Status, "error", err.Error())
	} else {
		s.log.Info("run finished",
			"run_id", runID, "workflow", wf.Name, "status", snapshot.Status)
	}

	s.archiveRecord(&snapshot)
}

// archiveRecord persists a terminal record; failures only warn.
func (s *Service) archiveRecord(record *RunRecord) {
	if s.archive == nil {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		s.log.Warning("archive marshal failed", "run_id", record.RunID, "error", err.Error())
		return
	}
	if err := s.archive.Save(record.RunID, record.Endpoint, record.Status, record.SubmittedAt, payload); err != nil {
		s.log.Warning("archive write failed", "run_id", record.RunID, "error", err.Error())
	}
}

// Get returns a snapshot of the record for runID. Falls back to the
// archive when the in-memory map misses.
func (s *Service) Get(runID string) (RunRecord, bool) {
	s.mu.RLock()
	record, ok := s.runs[runID]
	if ok {
		snapshot := *record
		s.mu.RUnlock()
		return snapshot, true
	}
	s.mu.RUnlock()

	if s.archive != nil {
		payload, found, err := s.archive.Load(runID)
		if err == nil && found {
			var rec RunRecord
			if json.Unmarshal(payload, &rec) == nil {
				return rec, true
			}
		}
	}
	return RunRecord{}, false
}
