package workflow

import (
	"strings"
	"testing"
)

func TestBaseInputDefaults(t *testing.T) {
	in := NewBaseInput()
	if !in.Verbose {
		t.Error("verbose should default to true")
	}
	if in.MDFilePath != "workflow_documentation.md" || in.DiagramFilePath != "workflow_diagram.png" {
		t.Errorf("doc paths = %q, %q", in.MDFilePath, in.DiagramFilePath)
	}
	if in.MaxRetries != 0 || in.TimeoutSeconds != 0 {
		t.Errorf("retry defaults = %d, %d", in.MaxRetries, in.TimeoutSeconds)
	}
}

func TestBaseInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *BaseInput)
		wantErr bool
	}{
		{"defaults valid", func(b *BaseInput) {}, false},
		{"negative timeout", func(b *BaseInput) { b.TimeoutSeconds = -1 }, true},
		{"negative retries", func(b *BaseInput) { b.MaxRetries = -5 }, true},
		{"negative delay", func(b *BaseInput) { b.RetryDelaySeconds = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewBaseInput()
			tt.mutate(&in)
			if err := in.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBaseInputSchemaIsValid(t *testing.T) {
	in := NewBaseInput()
	fields := in.Schema()
	if err := fields.Validate(); err != nil {
		t.Fatalf("base schema invalid: %v", err)
	}

	var cliHidden bool
	for _, f := range fields {
		if f.Name == "cli_command_name" {
			cliHidden = f.ExcludeFromCLI
		}
	}
	if !cliHidden {
		t.Error("cli_command_name should be excluded from the CLI surface")
	}
}

func TestBuildCLICommand(t *testing.T) {
	in := NewBaseInput()
	in.CLICommandName = "sample_report"
	in.MaxRetries = 2
	in.AutoGenerateMD = false

	cmd := BuildCLICommand(&in)

	if !strings.HasPrefix(cmd, "sample_report ") {
		t.Errorf("command = %q, want leading command name", cmd)
	}
	for _, want := range []string{"--verbose", "--max-retries 2", "--no-auto-generate-md", "--md-file-path workflow_documentation.md"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}
	if strings.Contains(cmd, "cli-command-name") {
		t.Errorf("command %q leaks the excluded field", cmd)
	}

	if got := BuildCLICommand(nil); got != "" {
		t.Errorf("BuildCLICommand(nil) = %q", got)
	}
}
