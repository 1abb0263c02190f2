package client

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindUnknown covers malformed responses and unexpected statuses.
	KindUnknown Kind = iota
	// KindNetworkUnavailable means the backend could not be reached at all
	// (connection refused, DNS failure, timeout).
	KindNetworkUnavailable
	// KindServiceUnavailable means the backend answered but reported a
	// temporary outage.
	KindServiceUnavailable
	// KindCanceled means the caller abandoned the request.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNetworkUnavailable:
		return "network_unavailable"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Sentinel errors for classified failures.
// Use errors.Is() to check for these errors in calling code.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUnknown            = errors.New("unknown error")
	ErrCanceled           = errors.New("request canceled")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetworkUnavailable:
		return ErrNetworkUnavailable
	case KindServiceUnavailable:
		return ErrServiceUnavailable
	case KindCanceled:
		return ErrCanceled
	default:
		return ErrUnknown
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// Classify maps any error to a Kind. Errors not produced by this package
// are classified by their sentinel or context cause, falling back to
// KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	switch {
	case errors.Is(err, ErrNetworkUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindNetworkUnavailable
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// UserMessage is the text shown to the user for a failed exchange.
func UserMessage(kind Kind) string {
	switch kind {
	case KindNetworkUnavailable:
		return "Cannot connect to the server. Please check if the backend is running."
	case KindServiceUnavailable:
		return "The chat service is temporarily unavailable. Please try again in a moment."
	default:
		return "Sorry, I encountered an error. Please try again."
	}
}

// transportKind classifies an error returned by http.Client.Do or while
// reading the body. Every such error means the backend was not reached,
// except a caller cancellation.
func transportKind(ctx context.Context, err error) Kind {
	if errors.Is(err, context.Canceled) && errors.Is(ctx.Err(), context.Canceled) {
		return KindCanceled
	}
	return KindNetworkUnavailable
}
