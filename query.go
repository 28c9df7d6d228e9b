package dataapi

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/constants"
)

// FindOne decodes the first match of filter into a T, or returns nil if
// nothing matched.
func FindOne[T any](ctx context.Context, c *Collection, filter any, opts *FindOneOptions) (*T, error) {
	params := bson.D{{Key: "filter", Value: orEmpty(filter)}}
	if opts != nil && opts.Projection != nil {
		params = append(params, bson.E{Key: "projection", Value: opts.Projection})
	}

	var res documentResult
	if err := c.Send(ctx, constants.ActionFindOne, params, &res); err != nil {
		return nil, err
	}

	switch res.Document.Type {
	case 0:
		return nil, fmt.Errorf("%w: %s response has no document field", constants.ErrUnexpectedResponse, constants.ActionFindOne)
	case bsontype.Null:
		return nil, nil
	}

	var v T
	if err := res.Document.Unmarshal(&v); err != nil {
		return nil, &connection.DecodeError{Action: constants.ActionFindOne, Err: err}
	}
	return &v, nil
}

// Find decodes every match of filter into a T. A nil filter is left out of
// the request.
func Find[T any](ctx context.Context, c *Collection, filter any, opts *FindOptions) ([]T, error) {
	var params bson.D
	if !isNil(filter) {
		params = append(params, bson.E{Key: "filter", Value: filter})
	}
	if opts != nil {
		if opts.Projection != nil {
			params = append(params, bson.E{Key: "projection", Value: opts.Projection})
		}
		if opts.Sort != nil {
			params = append(params, bson.E{Key: "sort", Value: opts.Sort})
		}
		if opts.Limit != nil {
			params = append(params, bson.E{Key: "limit", Value: *opts.Limit})
		}
		if opts.Skip != nil {
			params = append(params, bson.E{Key: "skip", Value: *opts.Skip})
		}
	}

	return documents[T](ctx, c, constants.ActionFind, params)
}

// Aggregate runs pipeline and decodes each result row into a T.
func Aggregate[T any](ctx context.Context, c *Collection, pipeline any) ([]T, error) {
	return documents[T](ctx, c, constants.ActionAggregate, bson.D{{Key: "pipeline", Value: orEmptyArray(pipeline)}})
}

func documents[T any](ctx context.Context, c *Collection, action string, params bson.D) ([]T, error) {
	var res documentsResult[T]
	if err := c.Send(ctx, action, params, &res); err != nil {
		return nil, err
	}
	if res.Documents == nil {
		return nil, fmt.Errorf("%w: %s response has no documents field", constants.ErrUnexpectedResponse, action)
	}
	return *res.Documents, nil
}

// Decode converts a schema-free document into a T using its bson tags.
func Decode[T any](doc bson.D) (*T, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var v T
	if err := bson.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeAll applies Decode to each document in docs.
func DecodeAll[T any](docs []bson.D) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
