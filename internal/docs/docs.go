// Package docs renders workflow documentation: a markdown page describing
// the workflow, its input schema and its nodes, plus a Graphviz diagram of
// the graph. Generation runs after a workflow finishes and never fails the
// run.
package docs

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"fluxgo/internal/schema"
	"fluxgo/internal/workflow"
)

// Generator writes workflow docs to disk. Implements workflow.DocsGenerator.
type Generator struct {
	// RenderPNG shells out to the graphviz dot binary when true. The DOT
	// source is written either way.
	RenderPNG bool
}

// New returns a generator that also renders a PNG when dot is installed.
func New() *Generator {
	_, err := exec.LookPath("dot")
	return &Generator{RenderPNG: err == nil}
}

// Generate writes the markdown page to mdPath and the DOT source next to
// diagramPath.
func (g *Generator) Generate(w *workflow.Workflow, mdPath, diagramPath string) error {
	if mdPath == "" {
		mdPath = "workflow.md"
	}
	if diagramPath == "" {
		diagramPath = "workflow_diagram.png"
	}

	dotPath := strings.TrimSuffix(diagramPath, filepath.Ext(diagramPath)) + ".dot"
	if err := writeFile(dotPath, g.renderDOT(w)); err != nil {
		return err
	}
	if g.RenderPNG {
		if err := renderPNG(dotPath, diagramPath); err != nil {
			return err
		}
	}
	return writeFile(mdPath, g.renderMarkdown(w, diagramPath))
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create docs dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func renderPNG(dotPath, pngPath string) error {
	out, err := exec.Command("dot", "-Tpng", dotPath, "-o", pngPath).CombinedOutput()
	if err != nil {
		return fmt.Errorf("render diagram: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// renderMarkdown builds the documentation page.
func (g *Generator) renderMarkdown(w *workflow.Workflow, diagramPath string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Workflow: %s\n\n", w.Name)
	if w.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", w.Description)
	}

	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Property | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Name | %s |\n", w.Name)
	fmt.Fprintf(&sb, "| Version | %s |\n", orNA(w.Version))
	fmt.Fprintf(&sb, "| Nodes | %d |\n", w.Graph().Len())
	fmt.Fprintf(&sb, "| Edges | %d |\n", len(w.Graph().Edges()))
	fmt.Fprintf(&sb, "| Execution groups | %d |\n\n", len(w.ExecutionGroups()))

	if in := w.Input(); in != nil {
		sb.WriteString("## Input schema\n\n")
		sb.WriteString(renderSchemaTable(in.Schema()))
	}

	sb.WriteString("## Nodes\n\n")
	sb.WriteString("| Node | Description | Timeout (s) | Max retries | Retry delay (s) |\n|---|---|---|---|---|\n")
	for _, name := range w.Graph().NodeNames() {
		n := w.Graph().Node(name)
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %d |\n",
			n.Name, orNA(n.Description), timeoutCell(n.TimeoutSeconds), n.MaxRetries, n.RetryDelaySeconds)
	}
	sb.WriteString("\n")

	if edges := w.Graph().Edges(); len(edges) > 0 {
		sb.WriteString("## Dependencies\n\n")
		sb.WriteString("| Source | Destination | Conditional |\n|---|---|---|\n")
		for _, e := range edges {
			cond := "no"
			if e.HasCondition() {
				cond = "yes"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", e.Source, e.Destination, cond)
		}
		sb.WriteString("\n")
	}

	if groups := w.ExecutionGroups(); len(groups) > 0 {
		sb.WriteString("## Execution groups\n\n")
		for i, group := range groups {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.Join(group, ", "))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Diagram\n\n![workflow diagram](%s)\n", filepath.Base(diagramPath))
	return sb.String()
}

func renderSchemaTable(fields schema.Fields) string {
	var sb strings.Builder
	sb.WriteString("| Field | Type | Required | Default | Description |\n|---|---|---|---|---|\n")
	for _, f := range fields {
		kind, err := f.Kind()
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			f.Name, kindName(kind), yesNo(f.Required), defaultCell(f.Default), orNA(f.Description))
	}
	sb.WriteString("\n")
	return sb.String()
}

// renderDOT emits the graph in Graphviz syntax. Conditional edges are
// dashed; execution groups become clusters.
func (g *Generator) renderDOT(w *workflow.Workflow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %q {\n", w.Name)
	sb.WriteString("\trankdir=LR;\n")
	sb.WriteString("\tnode [shape=box, style=rounded];\n")

	grouped := make(map[string]int)
	for i, group := range w.ExecutionGroups() {
		fmt.Fprintf(&sb, "\tsubgraph cluster_%d {\n\t\tlabel=\"group %d\";\n\t\tstyle=dashed;\n", i, i+1)
		members := append([]string(nil), group...)
		sort.Strings(members)
		for _, name := range members {
			grouped[name] = i
			fmt.Fprintf(&sb, "\t\t%q;\n", name)
		}
		sb.WriteString("\t}\n")
	}
	for _, name := range w.Graph().NodeNames() {
		if _, ok := grouped[name]; !ok {
			fmt.Fprintf(&sb, "\t%q;\n", name)
		}
	}

	for _, e := range w.Graph().Edges() {
		if e.HasCondition() {
			fmt.Fprintf(&sb, "\t%q -> %q [style=dashed, label=\"if\"];\n", e.Source, e.Destination)
		} else {
			fmt.Fprintf(&sb, "\t%q -> %q;\n", e.Source, e.Destination)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

func kindName(kind schema.Kind) string {
	switch kind {
	case schema.KindInt:
		return "integer"
	case schema.KindFloat:
		return "number"
	case schema.KindBool:
		return "boolean"
	case schema.KindStringSlice:
		return "array[string]"
	case schema.KindIntSlice:
		return "array[integer]"
	default:
		return "string"
	}
}

func timeoutCell(seconds int) string {
	if seconds == 0 {
		return "none"
	}
	return fmt.Sprintf("%d", seconds)
}

func defaultCell(v any) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
