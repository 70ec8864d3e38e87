package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	grpccodes "google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"fluxgo/internal/status"
)

// Classify maps an arbitrary error raised by a node body onto the status
// taxonomy. Domain errors keep their own code; well-known environment
// failures (deadlines, sockets, gRPC calls) get the matching domain code;
// anything else falls back to FAILED.
func Classify(err error) status.Code {
	if err == nil {
		return status.Completed
	}

	var se *status.Error
	if errors.As(err, &se) {
		return se.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return status.TimedOut
	}
	if errors.Is(err, context.Canceled) {
		return status.Failed
	}

	// Errno satisfies net.Error, so it has to be inspected first.
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return status.NetworkFailure
		case syscall.ETIMEDOUT:
			return status.TimedOut
		default:
			return status.InfrastructureError
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return status.TimedOut
		}
		return status.NetworkFailure
	}

	if st, ok := grpcstatus.FromError(err); ok && st.Code() != grpccodes.OK && st.Code() != grpccodes.Unknown {
		return classifyGRPC(st.Code())
	}

	return classifyMessage(err.Error())
}

func classifyGRPC(code grpccodes.Code) status.Code {
	switch code {
	case grpccodes.DeadlineExceeded:
		return status.TimedOut
	case grpccodes.Unavailable:
		return status.DependencyUnavailable
	case grpccodes.InvalidArgument, grpccodes.OutOfRange:
		return status.DataValidationFailure
	case grpccodes.FailedPrecondition:
		return status.PrerequisiteFail
	case grpccodes.Internal, grpccodes.DataLoss:
		return status.InfrastructureError
	default:
		return status.APICallFailure
	}
}

// classifyMessage applies string heuristics for errors that carry no
// structured type, mirroring how transient failures usually read.
func classifyMessage(msg string) status.Code {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return status.TimedOut
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "network unreachable"):
		return status.NetworkFailure
	case strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "too many requests"):
		return status.DependencyUnavailable
	default:
		return status.Failed
	}
}
