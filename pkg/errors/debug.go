package errors

import (
	"errors"
	"fmt"
)

// upstreamError is satisfied by errors that carry the status of a remote call.
type upstreamError interface {
	error
	Status() int
	UpstreamResponseCode() *int
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	UpstreamStatus       *int `json:"upstream_status,omitempty"`
	UpstreamResponseCode *int `json:"upstream_response_code,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var upstream upstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status()
		d.UpstreamStatus = &status
		d.UpstreamResponseCode = upstream.UpstreamResponseCode()
	}

	return d
}
