package connection

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
)

// Namespace addresses a collection inside a database. The data source is
// fixed per client and added by the Invoker.
type Namespace struct {
	Database   string
	Collection string
}

// Invoker runs one Data API action.
//
// The request body is {collection, database, dataSource, params...}.
// On success the response body is decoded into res, unless res is nil.
// Implementations must be safe for concurrent use.
type Invoker interface {
	Invoke(ctx context.Context, action string, ns Namespace, params bson.D, res any) error
}

// Doer is the transport. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}
