// Package auth resolves Data API credentials into request headers.
//
// A client is configured with exactly one [Credential]. Resolution happens
// once, when the client is built, and the resulting headers are reused for
// every request.
package auth

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/dataapi/dataapi.go/pkg/constants"
)

type Kind string

const (
	KindAPIKey        Kind = "api-key"
	KindCustomJWT     Kind = "custom-jwt"
	KindEmailPassword Kind = "email-password"
)

// AllKinds lists every credential kind in precedence order.
var AllKinds = []Kind{KindAPIKey, KindCustomJWT, KindEmailPassword}

// Credential is implemented by APIKey, CustomJWT and EmailPassword only.
type Credential interface {
	Kind() Kind
	credential()
}

type APIKey struct {
	Key string
}

type CustomJWT struct {
	Token string
}

type EmailPassword struct {
	Email    string
	Password string
}

func (APIKey) Kind() Kind        { return KindAPIKey }
func (CustomJWT) Kind() Kind     { return KindCustomJWT }
func (EmailPassword) Kind() Kind { return KindEmailPassword }

func (APIKey) credential()        {}
func (CustomJWT) credential()     {}
func (EmailPassword) credential() {}

// Resolve returns the authentication headers for c.
//
// When accepted is non-empty, c must be one of the listed kinds. Content
// negotiation headers are not part of the result; they belong to the gateway.
func Resolve(c Credential, accepted ...Kind) (http.Header, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no credential", constants.ErrInvalidCredential)
	}

	if len(accepted) > 0 && !slices.Contains(accepted, c.Kind()) {
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedCredential, c.Kind())
	}

	h := http.Header{}

	switch v := c.(type) {
	case APIKey:
		if v.Key == "" {
			return nil, fmt.Errorf("%w: empty api key", constants.ErrInvalidCredential)
		}
		h.Set(constants.HeaderAPIKey, v.Key)
	case CustomJWT:
		if v.Token == "" {
			return nil, fmt.Errorf("%w: empty jwt token", constants.ErrInvalidCredential)
		}
		setVerbatim(h, constants.HeaderJWT, v.Token)
	case EmailPassword:
		if v.Email == "" || v.Password == "" {
			return nil, fmt.Errorf("%w: email and password are both required", constants.ErrInvalidCredential)
		}
		h.Set(constants.HeaderEmail, v.Email)
		h.Set(constants.HeaderPassword, v.Password)
	default:
		return nil, fmt.Errorf("%w: unknown credential %T", constants.ErrInvalidCredential, c)
	}

	return h, nil
}

// setVerbatim stores a header without canonicalising its name, so
// jwtTokenString goes out with the exact casing the gateway expects.
func setVerbatim(h http.Header, key, value string) {
	h[key] = []string{value}
}
