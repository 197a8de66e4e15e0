package breaker

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorType classifies an error as retry-worthy or not. Grounded on the
// teacher's retry.ClassifyError, with the gRPC-status branch replaced by
// HTTP-status/net-error classification since this repo never dials gRPC.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeTransient
	ErrorTypePermanent
)

func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

var transientPatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"temporary failure",
	"unavailable",
	"rate limit",
	"too many requests",
	"service unavailable",
	"gateway timeout",
	"network unreachable",
}

// ClassifyError reports whether err looks transient (worth another probe)
// or permanent. A nil error and context cancellation are permanent; an
// error that matches none of the transient checks is ErrorTypeUnknown.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTransient
	}
	if errors.Is(err, context.Canceled) {
		return ErrorTypePermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeTransient
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(errStr, p) {
			return ErrorTypeTransient
		}
	}
	return ErrorTypeUnknown
}
