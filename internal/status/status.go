package status

import "fmt"

// Code is the closed set of run outcomes shared by nodes and workflows.
// Values are stable: the CLI path returns them as process exit codes,
// so COMPLETED must stay 0 and everything must fit in a byte.
type Code uint8

const (
	Completed             Code = 0
	Waiting               Code = 1
	InProgress            Code = 2
	Failed                Code = 3
	TimedOut              Code = 4
	PrerequisiteFail      Code = 5
	InfrastructureError   Code = 6
	DataError             Code = 7
	APICallFailure        Code = 8
	NetworkFailure        Code = 9
	DataValidationFailure Code = 10
	DependencyUnavailable Code = 11
	Unknown               Code = 255
)

var names = map[Code]string{
	Completed:             "COMPLETED",
	Waiting:               "WAITING",
	InProgress:            "IN_PROGRESS",
	Failed:                "FAILED",
	TimedOut:              "TIMED_OUT",
	PrerequisiteFail:      "PREREQUISITE_FAIL",
	InfrastructureError:   "INFRASTRUCTURE_ERROR",
	DataError:             "DATA_ERROR",
	APICallFailure:        "API_CALL_FAILURE",
	NetworkFailure:        "NETWORK_FAILURE",
	DataValidationFailure: "DATA_VALIDATION_FAILURE",
	DependencyUnavailable: "DEPENDENCY_UNAVAILABLE",
	Unknown:               "UNKNOWN",
}

// String returns the stable enum name, e.g. "COMPLETED".
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", uint8(c))
}

// Terminal reports whether c is a final outcome. WAITING and IN_PROGRESS
// are the only non-terminal codes.
func (c Code) Terminal() bool {
	return c != Waiting && c != InProgress
}

// ExitCode returns the numeric value used as a process exit code.
func (c Code) ExitCode() int {
	return int(c)
}

// Parse resolves an enum name back to its code.
func Parse(name string) (Code, bool) {
	for code, n := range names {
		if n == name {
			return code, true
		}
	}
	return Unknown, false
}

// MarshalText encodes the code as its enum name for JSON payloads
// (run records expose names, not values).
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes an enum name.
func (c *Code) UnmarshalText(text []byte) error {
	code, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown status code %q", string(text))
	}
	*c = code
	return nil
}
