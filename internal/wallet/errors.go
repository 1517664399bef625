package wallet

import (
	"context"

	"moff.io/wallet-connector/pkg/errors"
)

// Kind classifies a connection failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindNoProvider
	KindUserRejected
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindNoProvider:
		return "NoProviderError"
	case KindUserRejected:
		return "UserRejectedError"
	case KindProvider:
		return "ProviderError"
	default:
		return "UnknownError"
	}
}

// ConnectError is the single error shape every adapter failure is normalized to.
type ConnectError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *ConnectError) Error() string {
	return e.Message
}

func (e *ConnectError) Unwrap() error {
	return e.cause
}

func newError(kind Kind, message string, cause error) *ConnectError {
	return &ConnectError{Kind: kind, Message: message, cause: cause}
}

var (
	// ErrAttemptPending is returned when a pick arrives while another attempt is in flight.
	ErrAttemptPending = errors.New("connection attempt already pending")
	// ErrUnknownRow is returned when a pick names no row of the open surface.
	ErrUnknownRow = errors.New("unknown wallet option")
)

// Normalize converts any failure into a *ConnectError, keeping the native
// message text.
func Normalize(err error) *ConnectError {
	if err == nil {
		return nil
	}
	var ce *ConnectError
	if errors.As(err, &ce) {
		return ce
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.Code == codeUserRejected {
			return newError(KindUserRejected, rpcErr.Error(), err)
		}
		return newError(KindProvider, rpcErr.Error(), err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindProvider, err.Error(), err)
	}
	return newError(KindUnknown, err.Error(), err)
}
