package api

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is matched by every scan request the server refuses to run.
var ErrInvalidRequest = errors.New("invalid_request")

// requestError names the request field at fault, if any.
type requestError struct {
	field string
	msg   string
}

func (e requestError) Error() string {
	if e.field == "" {
		return e.msg
	}
	return e.field + ": " + e.msg
}

func (e requestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return requestError{msg: msg}
}

func invalidField(field, format string, args ...any) error {
	return requestError{field: field, msg: fmt.Sprintf(format, args...)}
}
