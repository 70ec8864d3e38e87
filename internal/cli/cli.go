// Package cli generates one subcommand per registered endpoint. Options
// are derived from the endpoint's input schema; the process exit code is
// the terminal workflow status value.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fluxgo/internal/logger"
	"fluxgo/internal/schema"
	"fluxgo/internal/workflow"
)

// Exiter terminates the process with the workflow's status value; swapped
// out in tests.
type Exiter func(code int)

// Builder assembles the root command from registered endpoints.
type Builder struct {
	log  *logger.Service
	exit Exiter
	root *cobra.Command
}

// NewBuilder creates the root command shell.
func NewBuilder(appName string, log *logger.Service, exit Exiter) *Builder {
	if log == nil {
		log = logger.Discard()
	}
	return &Builder{
		log:  log,
		exit: exit,
		root: &cobra.Command{
			Use:           appName,
			Short:         "Workflow engine runner",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}
}

// AddCommand registers a subcommand executing the endpoint's workflow
// synchronously.
func (b *Builder) AddCommand(name string, template *workflow.Workflow, newInput func() workflow.Input) error {
	in := newInput()
	fields := in.Schema()
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("command %q: %w", name, err)
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Execute the %s workflow", name),
		Long:  commandHelp(name, template),
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyBooleanNegations(cmd.Flags(), fields)

			base := in.Base()
			base.CLICommandName = name
			if err := base.Validate(); err != nil {
				return err
			}

			wf := template.Clone()
			wf.SetLogger(b.log)
			wf.SetInput(in)

			err := wf.Execute(cmd.Context())
			b.exit(wf.ExitCode(err))
			return nil
		},
	}

	for _, f := range fields {
		if f.ExcludeFromCLI {
			continue
		}
		if err := bindFlag(cmd.Flags(), f); err != nil {
			return fmt.Errorf("command %q: %w", name, err)
		}
		if f.Required {
			if err := cmd.MarkFlagRequired(f.CLIName()); err != nil {
				return fmt.Errorf("command %q: %w", name, err)
			}
		}
	}

	b.root.AddCommand(cmd)
	return nil
}

// Execute runs the root command.
func (b *Builder) Execute(ctx context.Context) error {
	return b.root.ExecuteContext(ctx)
}

// Root exposes the assembled command for tests.
func (b *Builder) Root() *cobra.Command { return b.root }

// bindFlag wires a schema field to a pflag. Booleans get a --flag/--no-flag
// pair; arrays become repeatable options.
func bindFlag(flags *pflag.FlagSet, f schema.Field) error {
	name := f.CLIName()
	switch v := f.Bind.(type) {
	case *string:
		flags.StringVar(v, name, *v, f.Description)
	case *int:
		flags.IntVar(v, name, *v, f.Description)
	case *float64:
		flags.Float64Var(v, name, *v, f.Description)
	case *bool:
		flags.BoolVar(v, name, *v, f.Description)
		flags.Bool("no-"+name, false, "Disable "+name)
	case *[]string:
		flags.StringSliceVar(v, name, *v, f.Description)
	case *[]int:
		flags.IntSliceVar(v, name, *v, f.Description)
	default:
		return fmt.Errorf("field %q: unsupported bind type %T", f.Name, f.Bind)
	}
	return nil
}

// applyBooleanNegations folds --no-<flag> values back into their targets.
func applyBooleanNegations(flags *pflag.FlagSet, fields schema.Fields) {
	for _, f := range fields {
		if f.ExcludeFromCLI {
			continue
		}
		target, ok := f.Bind.(*bool)
		if !ok {
			continue
		}
		if negated, err := flags.GetBool("no-" + f.CLIName()); err == nil && negated {
			*target = false
		}
	}
}

func commandHelp(name string, template *workflow.Workflow) string {
	version := template.Version
	if version == "" {
		version = "N/A"
	}
	return fmt.Sprintf("Workflow: %s\nVersion: %s\nDescription: %s",
		template.Name, version, template.Description)
}
