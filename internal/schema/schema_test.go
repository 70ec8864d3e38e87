package schema

import (
	"testing"
)

func TestFieldKind(t *testing.T) {
	var (
		s  string
		i  int
		f  float64
		b  bool
		ss []string
		is []int
	)
	tests := []struct {
		name string
		bind any
		want Kind
	}{
		{"string", &s, KindString},
		{"int", &i, KindInt},
		{"float", &f, KindFloat},
		{"bool", &b, KindBool},
		{"string slice", &ss, KindStringSlice},
		{"int slice", &is, KindIntSlice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Field{Name: "x", Bind: tt.bind}.Kind()
			if err != nil || got != tt.want {
				t.Errorf("Kind() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}

	if _, err := (Field{Name: "x", Bind: &struct{}{}}).Kind(); err == nil {
		t.Error("unsupported bind type accepted")
	}
}

func TestCLIName(t *testing.T) {
	if got := (Field{Name: "retry_delay_seconds"}).CLIName(); got != "retry-delay-seconds" {
		t.Errorf("CLIName() = %q", got)
	}
	if got := (Field{Name: "md_file_path", KeepUnderscores: true}).CLIName(); got != "md_file_path" {
		t.Errorf("CLIName() with KeepUnderscores = %q", got)
	}
}

func TestFieldsValidate(t *testing.T) {
	var s string
	tests := []struct {
		name    string
		fields  Fields
		wantErr bool
	}{
		{"valid", Fields{{Name: "one", Bind: &s}}, false},
		{"empty name", Fields{{Bind: &s}}, true},
		{"duplicate name", Fields{{Name: "one", Bind: &s}, {Name: "one", Bind: &s}}, true},
		{"bad bind", Fields{{Name: "one", Bind: s}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fields.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONSchema(t *testing.T) {
	var (
		subject string
		count   int
		tags    []string
	)
	fields := Fields{
		{Name: "subject", Description: "report subject", Required: true, Bind: &subject},
		{Name: "count", Default: 10, Bind: &count},
		{Name: "tags", Bind: &tags},
	}

	doc := fields.JSONSchema()

	if doc["type"] != "object" {
		t.Errorf("type = %v", doc["type"])
	}
	if doc["additionalProperties"] != false {
		t.Error("additionalProperties should be false")
	}

	props := doc["properties"].(map[string]any)
	subjectProp := props["subject"].(map[string]any)
	if subjectProp["type"] != "string" || subjectProp["description"] != "report subject" {
		t.Errorf("subject property = %v", subjectProp)
	}
	countProp := props["count"].(map[string]any)
	if countProp["type"] != "integer" || countProp["default"] != 10 {
		t.Errorf("count property = %v", countProp)
	}
	tagsProp := props["tags"].(map[string]any)
	if tagsProp["type"] != "array" {
		t.Errorf("tags property = %v", tagsProp)
	}
	if items := tagsProp["items"].(map[string]any); items["type"] != "string" {
		t.Errorf("tags items = %v", items)
	}

	required := doc["required"].([]string)
	if len(required) != 1 || required[0] != "subject" {
		t.Errorf("required = %v", required)
	}
}
