package connection

import (
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/dataapi/dataapi.go/pkg/constants"
)

// RemoteError is returned when the gateway answers with a non-2xx status.
// Body is the raw response, kept verbatim since it need not be valid
// Extended JSON.
type RemoteError struct {
	Action     string
	StatusCode int
	StatusText string
	Body       string

	// Code and Message are taken from the gateway's {"error_code", "error"}
	// body when it has that shape, and left empty otherwise.
	Code    string
	Message string
}

func NewRemoteError(action string, statusCode int, statusText string, body []byte) *RemoteError {
	e := &RemoteError{
		Action:     action,
		StatusCode: statusCode,
		StatusText: statusText,
		Body:       string(body),
	}
	if code, err := jsonparser.GetString(body, "error_code"); err == nil {
		e.Code = code
	}
	if msg, err := jsonparser.GetString(body, "error"); err == nil {
		e.Message = msg
	}
	return e
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.StatusText, e.Body)
}

// DecodeError is returned when a successful response cannot be decoded.
type DecodeError struct {
	Action string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", constants.ErrDecode, e.Action, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{constants.ErrDecode, e.Err}
}
