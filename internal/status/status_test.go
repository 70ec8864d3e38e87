package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestCodeValuesAreStable(t *testing.T) {
	tests := []struct {
		code Code
		want uint8
		name string
	}{
		{Completed, 0, "COMPLETED"},
		{Waiting, 1, "WAITING"},
		{InProgress, 2, "IN_PROGRESS"},
		{Failed, 3, "FAILED"},
		{TimedOut, 4, "TIMED_OUT"},
		{PrerequisiteFail, 5, "PREREQUISITE_FAIL"},
		{InfrastructureError, 6, "INFRASTRUCTURE_ERROR"},
		{DataError, 7, "DATA_ERROR"},
		{APICallFailure, 8, "API_CALL_FAILURE"},
		{NetworkFailure, 9, "NETWORK_FAILURE"},
		{DataValidationFailure, 10, "DATA_VALIDATION_FAILURE"},
		{DependencyUnavailable, 11, "DEPENDENCY_UNAVAILABLE"},
		{Unknown, 255, "UNKNOWN"},
	}
	for _, tt := range tests {
		if uint8(tt.code) != tt.want {
			t.Errorf("%s: value = %d, want %d", tt.name, uint8(tt.code), tt.want)
		}
		if tt.code.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.code.String(), tt.name)
		}
		if tt.code.ExitCode() != int(tt.want) {
			t.Errorf("%s: ExitCode() = %d, want %d", tt.name, tt.code.ExitCode(), tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Waiting.Terminal() || InProgress.Terminal() {
		t.Error("WAITING and IN_PROGRESS must not be terminal")
	}
	for _, c := range []Code{Completed, Failed, TimedOut, PrerequisiteFail, DataError, Unknown} {
		if !c.Terminal() {
			t.Errorf("%s should be terminal", c)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for code, name := range names {
		got, ok := Parse(name)
		if !ok || got != code {
			t.Errorf("Parse(%q) = %v, %v; want %v, true", name, got, ok, code)
		}
	}
	if _, ok := Parse("NOT_A_STATUS"); ok {
		t.Error("Parse accepted an unknown name")
	}
}

func TestJSONMarshalsAsName(t *testing.T) {
	raw, err := json.Marshal(TimedOut)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `"TIMED_OUT"` {
		t.Errorf("marshal = %s, want \"TIMED_OUT\"", raw)
	}

	var c Code
	if err := json.Unmarshal([]byte(`"DATA_ERROR"`), &c); err != nil {
		t.Fatal(err)
	}
	if c != DataError {
		t.Errorf("unmarshal = %v, want DATA_ERROR", c)
	}
	if err := json.Unmarshal([]byte(`"BOGUS"`), &c); err == nil {
		t.Error("unmarshal accepted an unknown name")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil maps to completed", nil, Completed},
		{"domain error carries its code", NewError(NetworkFailure, "conn reset"), NetworkFailure},
		{"wrapped domain error", fmt.Errorf("outer: %w", Timeout("")), TimedOut},
		{"plain error falls back to failed", errors.New("boom"), Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError(DependencyUnavailable, cause, "fetch upstream")
	if err.Error() != "fetch upstream: dial tcp: refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap chain lost the cause")
	}

	bare := &Error{Code: DataError}
	if bare.Error() != "DATA_ERROR" {
		t.Errorf("message-less error renders %q, want code name", bare.Error())
	}
}
