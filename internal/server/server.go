// Package server is the asynchronous HTTP submission surface: one POST
// route per registered endpoint, run polling by id, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"fluxgo/internal/config"
	"fluxgo/internal/logger"
	"fluxgo/internal/metrics"
	"fluxgo/internal/registry"
	"fluxgo/internal/workflow"
)

// endpointRunner binds one registered endpoint to its template, its input
// factory and the compiled submission schema.
type endpointRunner struct {
	name     string
	template *workflow.Workflow
	newInput func() workflow.Input
	schema   *jsonschema.Schema
}

// Server hosts the submission API.
type Server struct {
	cfg       *config.Config
	log       *logger.Service
	registry  *registry.Service
	endpoints map[string]*endpointRunner
}

// New builds a server around an existing registry.
func New(cfg *config.Config, log *logger.Service, reg *registry.Service) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		cfg:       cfg,
		log:       log,
		registry:  reg,
		endpoints: make(map[string]*endpointRunner),
	}
}

// Register adds a submission endpoint. The input schema is compiled once
// at registration time.
func (s *Server) Register(name string, template *workflow.Workflow, newInput func() workflow.Input) error {
	if _, exists := s.endpoints[name]; exists {
		return fmt.Errorf("endpoint %q already registered", name)
	}

	fields := newInput().Schema()
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("endpoint %q: %w", name, err)
	}
	schemaJSON, err := json.Marshal(fields.JSONSchema())
	if err != nil {
		return fmt.Errorf("endpoint %q: render schema: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	resource := name + "_input.json"
	if err := compiler.AddResource(resource, strings.NewReader(string(schemaJSON))); err != nil {
		return fmt.Errorf("endpoint %q: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("endpoint %q: compile schema: %w", name, err)
	}

	s.endpoints[name] = &endpointRunner{
		name:     name,
		template: template,
		newInput: newInput,
		schema:   compiled,
	}
	return nil
}

// Router assembles the chi mux; exposed separately for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/runs/{runID}", s.handleGetRun)
	r.Get("/{endpoint}/runs/{runID}", s.handleGetRunByEndpoint)
	r.Post("/{endpoint}/run", s.handleSubmit)

	return r
}

// Serve blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmit validates the payload against the endpoint's schema, builds
// the input and registers the run. The 202 response is the submission
// receipt; the eventual outcome surfaces via polling.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	runner, ok := s.endpoints[chi.URLParam(r, "endpoint")]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown endpoint")
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return
	}
	if err := runner.schema.Validate(payload); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	in := runner.newInput()
	if err := json.Unmarshal(body, in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "decode input: "+err.Error())
		return
	}

	record, err := s.registry.Submit(runner.name, runner.template, in)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":           record.RunID,
		"endpoint":         record.Endpoint,
		"workflow_name":    record.WorkflowName,
		"workflow_version": record.WorkflowVersion,
		"status":           record.Status,
		"submitted_at":     record.SubmittedAt,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	record, ok := s.registry.Get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetRunByEndpoint(w http.ResponseWriter, r *http.Request) {
	record, ok := s.registry.Get(chi.URLParam(r, "runID"))
	if !ok || record.Endpoint != chi.URLParam(r, "endpoint") {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	// an empty body submits the input defaults
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	return raw, nil
}

// validationDetail flattens a jsonschema error into the 422 payload.
func validationDetail(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
