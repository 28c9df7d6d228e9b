package dataapi

import (
	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/connection/http"
)

// Client is the only stateful handle. Its credentials and transport are
// fixed at construction, so a Client is safe for concurrent use.
type Client struct {
	con connection.Invoker
}

// New builds a Client over HTTP. It fails if cfg is invalid or its
// credential is not accepted by the configured gateway.
func New(cfg *connection.Config) (*Client, error) {
	con, err := http.New(cfg)
	if err != nil {
		return nil, err
	}
	return FromConnection(con), nil
}

// FromEndpointURLString is a shortcut for New with the default gateway.
func FromEndpointURLString(endpoint, dataSource string, cred auth.Credential) (*Client, error) {
	return New(connection.NewConfig(endpoint, dataSource, cred))
}

// FromConnection wraps an existing Invoker.
func FromConnection(con connection.Invoker) *Client {
	return &Client{con: con}
}

// Database returns a handle for name. Handles are not cached.
func (c *Client) Database(name string) *Database {
	return &Database{name: name, client: c}
}

// Connection returns the underlying Invoker.
func (c *Client) Connection() connection.Invoker {
	return c.con
}

// DataSource reports the configured data source when the underlying
// connection exposes it.
func (c *Client) DataSource() string {
	if ds, ok := c.con.(interface{ DataSource() string }); ok {
		return ds.DataSource()
	}
	return ""
}
