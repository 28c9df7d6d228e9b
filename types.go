package dataapi

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go/pkg/connection"
)

// InsertOneResult carries the _id of the inserted document.
type InsertOneResult struct {
	InsertedID any `bson:"insertedId"`
}

type InsertManyResult struct {
	InsertedIDs []any `bson:"insertedIds"`
}

// UpdateResult is returned by updateOne, updateMany and replaceOne.
// UpsertedID is nil unless the operation inserted a document.
type UpdateResult struct {
	MatchedCount  int64 `bson:"matchedCount"`
	ModifiedCount int64 `bson:"modifiedCount"`
	UpsertedID    any   `bson:"upsertedId,omitempty"`
}

// DeleteResult is returned by deleteOne and deleteMany.
type DeleteResult struct {
	DeletedCount int64 `bson:"deletedCount"`
}

// documentResult is the response shape of findOne. A missing field leaves
// Document with a zero Type, which is distinct from an explicit null.
type documentResult struct {
	Document bson.RawValue `bson:"document"`
}

// documentsResult is the response shape of find and aggregate.
type documentsResult[T any] struct {
	Documents *[]T `bson:"documents"`
}

type (
	RemoteError = connection.RemoteError
	DecodeError = connection.DecodeError
)
