package dataapi

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/constants"
)

// Collection maps driver-style operations onto Data API actions. Each
// method performs exactly one request.
type Collection struct {
	name     string
	database *Database
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Database returns the database handle this collection belongs to.
func (c *Collection) Database() *Database {
	return c.database
}

func (c *Collection) invoker() connection.Invoker {
	return c.database.client.con
}

func (c *Collection) namespace() connection.Namespace {
	return connection.Namespace{Database: c.database.name, Collection: c.name}
}

// Send invokes action with params and decodes the response into res.
// The addressing fields are added automatically.
func (c *Collection) Send(ctx context.Context, action string, params bson.D, res any) error {
	return c.invoker().Invoke(ctx, action, c.namespace(), params, res)
}

// InsertOne inserts document. The gateway assigns an _id when the document
// has none.
func (c *Collection) InsertOne(ctx context.Context, document any) (*InsertOneResult, error) {
	return connection.Invoke[InsertOneResult](ctx, c.invoker(), constants.ActionInsertOne, c.namespace(),
		bson.D{{Key: "document", Value: document}})
}

// InsertMany inserts documents in order. A nil slice is sent as an empty
// array.
func (c *Collection) InsertMany(ctx context.Context, documents []any) (*InsertManyResult, error) {
	return connection.Invoke[InsertManyResult](ctx, c.invoker(), constants.ActionInsertMany, c.namespace(),
		bson.D{{Key: "documents", Value: orEmptyArray(documents)}})
}

// FindOne returns the first match of filter, or nil if nothing matched.
// A nil filter matches every document.
func (c *Collection) FindOne(ctx context.Context, filter any, opts *FindOneOptions) (bson.D, error) {
	doc, err := FindOne[bson.D](ctx, c, filter, opts)
	if err != nil || doc == nil {
		return nil, err
	}
	return *doc, nil
}

// Find returns every document matching filter.
func (c *Collection) Find(ctx context.Context, filter any, opts *FindOptions) ([]bson.D, error) {
	return Find[bson.D](ctx, c, filter, opts)
}

// UpdateOne applies update to the first document matching filter.
func (c *Collection) UpdateOne(ctx context.Context, filter, update any, opts *UpdateOptions) (*UpdateResult, error) {
	return c.update(ctx, constants.ActionUpdateOne, filter, bson.E{Key: "update", Value: update}, opts)
}

// UpdateMany applies update to every document matching filter.
func (c *Collection) UpdateMany(ctx context.Context, filter, update any, opts *UpdateOptions) (*UpdateResult, error) {
	return c.update(ctx, constants.ActionUpdateMany, filter, bson.E{Key: "update", Value: update}, opts)
}

// ReplaceOne swaps the first document matching filter for replacement,
// keeping its _id.
func (c *Collection) ReplaceOne(ctx context.Context, filter, replacement any, opts *UpdateOptions) (*UpdateResult, error) {
	return c.update(ctx, constants.ActionReplaceOne, filter, bson.E{Key: "replacement", Value: replacement}, opts)
}

func (c *Collection) update(ctx context.Context, action string, filter any, change bson.E, opts *UpdateOptions) (*UpdateResult, error) {
	params := bson.D{{Key: "filter", Value: orEmpty(filter)}, change}
	if opts != nil && opts.Upsert != nil {
		params = append(params, bson.E{Key: "upsert", Value: *opts.Upsert})
	}

	return connection.Invoke[UpdateResult](ctx, c.invoker(), action, c.namespace(), params)
}

// DeleteOne removes the first document matching filter.
func (c *Collection) DeleteOne(ctx context.Context, filter any) (*DeleteResult, error) {
	return c.delete(ctx, constants.ActionDeleteOne, filter)
}

// DeleteMany removes every document matching filter. A nil filter matches
// the whole collection.
func (c *Collection) DeleteMany(ctx context.Context, filter any) (*DeleteResult, error) {
	return c.delete(ctx, constants.ActionDeleteMany, filter)
}

func (c *Collection) delete(ctx context.Context, action string, filter any) (*DeleteResult, error) {
	return connection.Invoke[DeleteResult](ctx, c.invoker(), action, c.namespace(),
		bson.D{{Key: "filter", Value: orEmpty(filter)}})
}

// Aggregate runs pipeline, a list of stage documents such as []bson.D.
func (c *Collection) Aggregate(ctx context.Context, pipeline any) ([]bson.D, error) {
	return Aggregate[bson.D](ctx, c, pipeline)
}
