package constants

import "errors"

// Errors
var (
	ErrInvalidCredential     = errors.New("invalid auth options")
	ErrUnsupportedCredential = errors.New("credential kind not accepted by gateway")
	ErrInvalidConfig         = errors.New("invalid client configuration")
	ErrDecode                = errors.New("unable to decode Data API response")
	ErrUnexpectedResponse    = errors.New("unexpected Data API response shape")
)
