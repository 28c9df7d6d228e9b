package connection

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataapi/dataapi.go/internal/codec"
	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/constants"
	"github.com/dataapi/dataapi.go/pkg/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds everything a client needs. It is read once, when the client
// is built, and never consulted again.
type Config struct {
	// Endpoint is the gateway base URL. The gateway route is appended to it.
	Endpoint string `validate:"required,url"`
	// DataSource names the backing cluster on the gateway side.
	DataSource string `validate:"required"`
	// AppID is required by gateways whose route contains {appId}.
	AppID string

	// Credential is checked by auth.Resolve when the connection is built.
	Credential auth.Credential `validate:"-"`
	Gateway    *Gateway        `validate:"required"`

	// Transport performs the HTTP call. Defaults to http.DefaultClient.
	Transport Doer `validate:"-"`

	// Marshaler and Unmarshaler default to the gateway's Extended JSON codec.
	Marshaler   codec.Marshaler   `validate:"-"`
	Unmarshaler codec.Unmarshaler `validate:"-"`

	Logger logger.Logger `validate:"-"`
	// Tracer defaults to the tracer of the global otel provider.
	Tracer trace.Tracer `validate:"-"`
}

// NewConfig creates a Config for the current Extended JSON gateway.
// The endpoint is usually of the form
// https://data.mongodb-api.com/app/<app id>/endpoint/data/v1.
func NewConfig(endpoint, dataSource string, cred auth.Credential) *Config {
	return &Config{
		Endpoint:   endpoint,
		DataSource: dataSource,
		Credential: cred,
		Gateway:    GatewayV1(),
		Transport:  http.DefaultClient,
		Logger:     logger.Nop(),
	}
}

// NewBetaConfig creates a Config for the legacy beta gateway, which only
// accepts an API key and addresses the app by id in the route.
func NewBetaConfig(appID, dataSource, apiKey string) *Config {
	return &Config{
		Endpoint:   constants.DefaultEndpoint,
		AppID:      appID,
		DataSource: dataSource,
		Credential: auth.APIKey{Key: apiKey},
		Gateway:    GatewayBeta(),
		Transport:  http.DefaultClient,
		Logger:     logger.Nop(),
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", constants.ErrInvalidConfig)
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", constants.ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", constants.ErrInvalidConfig, err)
	}

	if c.Gateway.NeedsAppID() && c.AppID == "" {
		return fmt.Errorf("%w: gateway %q requires an app id", constants.ErrInvalidConfig, c.Gateway.Name)
	}

	return nil
}
