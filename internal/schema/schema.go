// Package schema is the input-schema descriptor consumed by the CLI
// generator, the HTTP validation layer and the docs generator. Input types
// register their fields declaratively instead of being reflected at runtime.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the wire type of a field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStringSlice
	KindIntSlice
)

// Field describes one option of an input type. Bind points into the input
// struct so the CLI layer can populate values without reflection.
type Field struct {
	Name            string // snake_case, matches the JSON tag
	Description     string
	Required        bool
	Default         any
	ExcludeFromCLI  bool
	KeepUnderscores bool // suppress kebab-casing of the CLI flag name
	Bind            any  // *string, *int, *float64, *bool, *[]string or *[]int
}

// Kind derives the wire type from the bound pointer.
func (f Field) Kind() (Kind, error) {
	switch f.Bind.(type) {
	case *string:
		return KindString, nil
	case *int:
		return KindInt, nil
	case *float64:
		return KindFloat, nil
	case *bool:
		return KindBool, nil
	case *[]string:
		return KindStringSlice, nil
	case *[]int:
		return KindIntSlice, nil
	default:
		return 0, fmt.Errorf("field %q: unsupported bind type %T", f.Name, f.Bind)
	}
}

// CLIName returns the flag name: kebab-cased unless suppressed.
func (f Field) CLIName() string {
	if f.KeepUnderscores {
		return f.Name
	}
	return strings.ReplaceAll(f.Name, "_", "-")
}

// Fields is the ordered schema of an input type.
type Fields []Field

// Validate checks that every field binds a supported pointer and that
// names are unique.
func (fs Fields) Validate() error {
	seen := make(map[string]bool, len(fs))
	for _, f := range fs {
		if f.Name == "" {
			return fmt.Errorf("schema field with empty name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate schema field %q", f.Name)
		}
		seen[f.Name] = true
		if _, err := f.Kind(); err != nil {
			return err
		}
	}
	return nil
}

// JSONSchema renders the fields as a draft-07 object schema used both for
// submission validation and for documentation tables.
func (fs Fields) JSONSchema() map[string]any {
	properties := make(map[string]any, len(fs))
	var required []string

	for _, f := range fs {
		kind, err := f.Kind()
		if err != nil {
			continue
		}
		prop := map[string]any{"type": jsonType(kind)}
		if kind == KindStringSlice {
			prop["items"] = map[string]any{"type": "string"}
		}
		if kind == KindIntSlice {
			prop["items"] = map[string]any{"type": "integer"}
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func jsonType(kind Kind) string {
	switch kind {
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindBool:
		return "boolean"
	case KindStringSlice, KindIntSlice:
		return "array"
	default:
		return "string"
	}
}
