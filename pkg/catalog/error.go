package catalog

import (
	"errors"
	"fmt"
)

const (
	// ConnectivityMessage is reported when no response was received.
	ConnectivityMessage = "Error occured while sending the request, please check your internet settings"
	// GenericMessage is reported for failed responses that carry no message.
	GenericMessage = "Error occured while sending the request"
)

type failureKind string

const (
	kindTransport failureKind = "transport"
	kindEnvelope  failureKind = "envelope"
	kindHTTP      failureKind = "http"
	kindDecode    failureKind = "decode"
)

// HTTPError is the single error shape returned for every failed catalog call.
// StatusCode is 0 when the request never produced a response.
type HTTPError struct {
	Message      string
	StatusCode   int
	Payload      any
	ResponseCode *int

	kind  failureKind
	cause error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("catalog %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Status returns the upstream HTTP status (0 for transport failures).
func (e *HTTPError) Status() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// UpstreamResponseCode returns the application response code, if any.
func (e *HTTPError) UpstreamResponseCode() *int {
	if e == nil {
		return nil
	}
	return e.ResponseCode
}

// IsTransport reports whether the request failed before a response arrived.
func (e *HTTPError) IsTransport() bool {
	return e != nil && e.StatusCode == 0
}

// AsHTTPError extracts a catalog error from err's chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	if err == nil {
		return nil, false
	}
	var typed *HTTPError
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

func transportError(err error) *HTTPError {
	return &HTTPError{
		Message:    ConnectivityMessage,
		StatusCode: 0,
		kind:       kindTransport,
		cause:      err,
	}
}
