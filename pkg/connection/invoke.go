package connection

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Invoke runs action and decodes the response into a new T.
func Invoke[Result any](ctx context.Context, inv Invoker, action string, ns Namespace, params bson.D) (*Result, error) {
	var res Result
	if err := inv.Invoke(ctx, action, ns, params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
