package auth

import (
	"github.com/dataapi/dataapi.go/pkg/constants"
)

// Options is the flat credential surface, for callers that load settings
// from a file or the environment and cannot build a Credential directly.
// Any subset of fields may be set; Credential picks one.
type Options struct {
	APIKey         string `json:"apiKey,omitempty"`
	JWTTokenString string `json:"jwtTokenString,omitempty"`
	Email          string `json:"email,omitempty"`
	Password       string `json:"password,omitempty"`
}

// Credential selects the credential in precedence order: API key, then
// custom JWT, then email and password. Anything else is rejected.
func (o Options) Credential() (Credential, error) {
	switch {
	case o.APIKey != "":
		return APIKey{Key: o.APIKey}, nil
	case o.JWTTokenString != "":
		return CustomJWT{Token: o.JWTTokenString}, nil
	case o.Email != "" && o.Password != "":
		return EmailPassword{Email: o.Email, Password: o.Password}, nil
	}
	return nil, constants.ErrInvalidCredential
}
