package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"fluxgo/internal/schema"
)

// Input is the run-wide configuration attached to a workflow. User-defined
// input types embed BaseInput and extend Schema with their own fields.
type Input interface {
	Base() *BaseInput
	Schema() schema.Fields
}

// BaseInput carries the options every workflow recognizes.
type BaseInput struct {
	CLICommandName    string `json:"cli_command_name,omitempty"`
	Verbose           bool   `json:"verbose"`
	TimeoutSeconds    int    `json:"timeout_seconds,omitempty"`
	MaxRetries        int    `json:"max_retries"`
	RetryDelaySeconds int    `json:"retry_delay_seconds"`
	AutoGenerateMD    bool   `json:"auto_generate_md"`
	MDFilePath        string `json:"md_file_path"`
	DiagramFilePath   string `json:"diagram_file_path"`
}

// NewBaseInput returns the documented defaults.
func NewBaseInput() BaseInput {
	return BaseInput{
		Verbose:         true,
		MDFilePath:      "workflow_documentation.md",
		DiagramFilePath: "workflow_diagram.png",
	}
}

func (b *BaseInput) Base() *BaseInput { return b }

// Schema describes the base options; user types append their own fields.
func (b *BaseInput) Schema() schema.Fields {
	return schema.Fields{
		{Name: "cli_command_name", Description: "CLI command name for the workflow.", ExcludeFromCLI: true, Bind: &b.CLICommandName},
		{Name: "verbose", Description: "Print more details for debug", Default: true, Bind: &b.Verbose},
		{Name: "timeout_seconds", Description: "Timeout for the workflow in seconds.", Bind: &b.TimeoutSeconds},
		{Name: "max_retries", Description: "Maximum number of run attempts allowed in case of failure.", Default: 0, Bind: &b.MaxRetries},
		{Name: "retry_delay_seconds", Description: "Delay between retries in seconds.", Default: 0, Bind: &b.RetryDelaySeconds},
		{Name: "auto_generate_md", Description: "Automatically generate markdown documentation for the workflow", Default: false, Bind: &b.AutoGenerateMD},
		{Name: "md_file_path", Description: "Path to save the generated markdown file.", Default: "workflow_documentation.md", Bind: &b.MDFilePath},
		{Name: "diagram_file_path", Description: "Path to save the generated workflow diagram (png).", Default: "workflow_diagram.png", Bind: &b.DiagramFilePath},
	}
}

// Validate checks the numeric bounds of the base options.
func (b *BaseInput) Validate() error {
	if b.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be positive or unset")
	}
	if b.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0")
	}
	if b.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay_seconds must be >= 0")
	}
	return nil
}

// BuildCLICommand synthesizes the equivalent CLI invocation for the verbose
// start banner.
func BuildCLICommand(in Input) string {
	if in == nil {
		return ""
	}
	parts := []string{}
	if name := in.Base().CLICommandName; name != "" {
		parts = append(parts, name)
	}
	for _, f := range in.Schema() {
		if f.ExcludeFromCLI {
			continue
		}
		flag := "--" + f.CLIName()
		switch v := f.Bind.(type) {
		case *bool:
			if *v {
				parts = append(parts, flag)
			} else {
				parts = append(parts, "--no-"+f.CLIName())
			}
		case *string:
			if *v != "" {
				parts = append(parts, flag, *v)
			}
		case *int:
			parts = append(parts, flag, strconv.Itoa(*v))
		case *float64:
			parts = append(parts, flag, strconv.FormatFloat(*v, 'g', -1, 64))
		case *[]string:
			for _, item := range *v {
				parts = append(parts, flag, item)
			}
		case *[]int:
			for _, item := range *v {
				parts = append(parts, flag, strconv.Itoa(item))
			}
		}
	}
	return strings.Join(parts, " ")
}
