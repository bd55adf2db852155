package llm

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies an inference failure. Callers use the kind to
// pick a degradation path; they never need to inspect the wrapped error.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
)

// InvokeError wraps an inference failure with its classification.
type InvokeError struct {
	Kind FailureKind
	Err  error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("inference %s failure: %v", e.Kind, e.Err)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// timeoutErr wraps err as a timeout failure.
func timeoutErr(err error) error {
	return &InvokeError{Kind: FailureTimeout, Err: err}
}

// transportErr wraps err as a transport failure.
func transportErr(err error) error {
	return &InvokeError{Kind: FailureTransport, Err: err}
}

// malformedErr wraps err as a malformed-envelope failure.
func malformedErr(err error) error {
	return &InvokeError{Kind: FailureMalformed, Err: err}
}

// classifyCallErr distinguishes timeouts from transport failures for an
// error returned by an HTTP round trip or SDK call.
func classifyCallErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeoutErr(err)
	}
	return transportErr(err)
}

// Classify returns the failure kind of err, or "" if err is not an
// inference failure.
func Classify(err error) FailureKind {
	var ie *InvokeError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
