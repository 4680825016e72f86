package gateway

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindHTTP      Kind = "http"
	KindDecode    Kind = "decode"
)

const timeoutMessage = "Request timeout"

// ErrTimeout matches, via errors.Is, any gateway error of KindTimeout.
var ErrTimeout = errors.New(timeoutMessage)

// Error is returned by Client for every failed call. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 unless Kind is KindHTTP or KindDecode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrTimeout && e.Kind == KindTimeout
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// StatusCode returns the HTTP status carried by a gateway error, or 0.
func StatusCode(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}

func httpError(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return &Error{Kind: KindHTTP, Status: status, Message: message}
}
