// Package app assembles the two execution surfaces around a set of
// registered workflow endpoints: a synchronous CLI when arguments are
// present, an asynchronous HTTP server otherwise. The same endpoint
// registrations feed both.
package app

import (
	"context"
	"fmt"
	"os"

	"fluxgo/internal/cli"
	"fluxgo/internal/config"
	"fluxgo/internal/docs"
	"fluxgo/internal/logger"
	"fluxgo/internal/registry"
	"fluxgo/internal/server"
	"fluxgo/internal/storage"
	"fluxgo/internal/workflow"
)

// endpoint pairs a workflow template with its input factory.
type endpoint struct {
	name     string
	template *workflow.Workflow
	newInput func() workflow.Input
}

// App is the composition root.
type App struct {
	Name string

	cfg       *config.Config
	log       *logger.Service
	exit      cli.Exiter
	endpoints []endpoint
	names     map[string]bool
}

// New builds an application shell. exit defaults to os.Exit.
func New(name string, cfg *config.Config, log *logger.Service) *App {
	if log == nil {
		log = logger.Discard()
	}
	return &App{
		Name:  name,
		cfg:   cfg,
		log:   log,
		exit:  os.Exit,
		names: make(map[string]bool),
	}
}

// SetExiter overrides process termination; used by tests.
func (a *App) SetExiter(exit cli.Exiter) {
	if exit != nil {
		a.exit = exit
	}
}

// AddEndpoint registers a workflow under a name shared by the CLI
// subcommand and the HTTP route. The template gets the docs generator so
// auto_generate_md works on both surfaces.
func (a *App) AddEndpoint(name string, template *workflow.Workflow, newInput func() workflow.Input) error {
	if name == "" {
		return fmt.Errorf("endpoint name is required")
	}
	if a.names[name] {
		return fmt.Errorf("endpoint %q already registered", name)
	}
	if template == nil {
		return fmt.Errorf("endpoint %q: workflow template is required", name)
	}
	if newInput == nil {
		newInput = func() workflow.Input {
			base := workflow.NewBaseInput()
			return &base
		}
	}

	template.SetLogger(a.log)
	template.SetDocsGenerator(docs.New())

	a.names[name] = true
	a.endpoints = append(a.endpoints, endpoint{name: name, template: template, newInput: newInput})
	return nil
}

// Run dispatches on argv: any arguments select the CLI surface, none
// starts the HTTP server.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return a.runCLI(ctx, args)
	}
	return a.runServer(ctx)
}

func (a *App) runCLI(ctx context.Context, args []string) error {
	builder := cli.NewBuilder(a.Name, a.log, a.exit)
	for _, ep := range a.endpoints {
		if err := builder.AddCommand(ep.name, ep.template, ep.newInput); err != nil {
			return err
		}
	}
	builder.Root().SetArgs(args)
	return builder.Execute(ctx)
}

func (a *App) runServer(ctx context.Context) error {
	var archive *storage.Archive
	if a.cfg.Archive.Enabled {
		var err error
		archive, err = storage.Open(a.cfg.Archive.Path)
		if err != nil {
			return err
		}
		defer archive.Close()
	}

	reg := registry.New(a.log, archive)
	srv := server.New(a.cfg, a.log, reg)
	for _, ep := range a.endpoints {
		if err := srv.Register(ep.name, ep.template, ep.newInput); err != nil {
			return err
		}
	}
	return srv.Serve(ctx)
}
