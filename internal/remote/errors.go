package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies a failed remote call.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection"
	KindStatus     ErrorKind = "status"
)

// NetworkError is a non-fatal remote failure. Callers fall back to offline mode.
type NetworkError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "request timed out"
	case KindStatus:
		return fmt.Sprintf("HTTP error %d", e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("connection failed: %v", e.Err)
		}
		return "connection failed"
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ErrRejected is returned when the remote answers with success=false or with a
// payload that does not have the expected shape.
var ErrRejected = errors.New("remote rejected the request")

func classify(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &NetworkError{Kind: KindTimeout, Err: err}
	}
	return &NetworkError{Kind: KindConnection, Err: err}
}

// IsNetworkError reports whether err is a remote transport failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
