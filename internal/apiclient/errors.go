package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ErrInvalidPath is returned, before any request is made, for an empty or
// absolute path.
var ErrInvalidPath = errors.New("path must be a non-empty relative route")

// User-facing failure messages.
const (
	MsgRequestFailed     = "request failed"
	MsgUnauthorized      = "unauthorized, please sign in again"
	MsgBadRequest        = "invalid request parameters"
	MsgForbidden         = "access denied"
	MsgNotFound          = "resource not found"
	MsgServerError       = "internal server error"
	MsgTimeout           = "request timed out"
	MsgNetworkConnection = "network connection error"
	MsgNetwork           = "network error"
)

// Outcome tags the result of a call.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeBusinessFailure  Outcome = "business_failure"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeInvalid          Outcome = "invalid"
)

// OutcomeOf classifies an error returned by the Client.
func OutcomeOf(err error) Outcome {
	var be *BusinessError
	var te *TransportError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &be):
		return OutcomeBusinessFailure
	case errors.As(err, &te):
		return OutcomeTransportFailure
	default:
		return OutcomeInvalid
	}
}

// BusinessError means the server answered but rejected the request through
// the code embedded in the payload.
type BusinessError struct {
	// Code is the raw JSON of the embedded code, empty when it was absent.
	Code    string
	Message string
}

func (e *BusinessError) Error() string { return e.Message }

// Kind sub-classifies transport failures.
type Kind string

const (
	KindStatus  Kind = "status"
	KindTimeout Kind = "timeout"
	KindNetwork Kind = "network"
	KindUnknown Kind = "unknown"
)

// TransportError means no usable HTTP response was received, either because
// the status was not 2xx or because the request never completed.
type TransportError struct {
	Kind    Kind
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

// Unauthorized reports whether the server answered 401.
func (e *TransportError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// statusError classifies a non-2xx response.
func statusError(status int) *TransportError {
	msg := fmt.Sprintf("connection error %d", status)
	switch status {
	case http.StatusUnauthorized:
		msg = MsgUnauthorized
	case http.StatusBadRequest:
		msg = MsgBadRequest
	case http.StatusForbidden:
		msg = MsgForbidden
	case http.StatusNotFound:
		msg = MsgNotFound
	case http.StatusInternalServerError:
		msg = MsgServerError
	}
	return &TransportError{Kind: KindStatus, Status: status, Message: msg}
}

// noResponseError classifies a request that produced no response.
func noResponseError(err error) *TransportError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TransportError{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	}
	if isNetworkFailure(err) {
		return &TransportError{Kind: KindNetwork, Message: MsgNetworkConnection, Err: err}
	}
	return &TransportError{Kind: KindUnknown, Message: MsgNetwork, Err: err}
}

func isNetworkFailure(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var addrErr *net.AddrError
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr), errors.As(err, &addrErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, net.ErrClosed):
		return true
	}
	return false
}
