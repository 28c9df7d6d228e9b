package dataapi

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

type countRow struct {
	N int64 `bson:"n"`
}

// CountDocuments counts the documents matching filter. The gateway has no
// count action, so this runs an aggregation:
//
//	[{$match: filter}] [{$skip: skip}] [{$limit: limit}] {$group: {_id: 1, n: {$sum: 1}}}
//
// The bracketed stages are only present when the corresponding argument is.
// An empty result counts as zero.
func (c *Collection) CountDocuments(ctx context.Context, filter any, opts *CountOptions) (int64, error) {
	return c.count(ctx, CountPipeline(filter, opts))
}

// EstimatedDocumentCount returns the count reported by collection
// statistics, which is cheap but may be approximate.
func (c *Collection) EstimatedDocumentCount(ctx context.Context) (int64, error) {
	return c.count(ctx, EstimatedCountPipeline())
}

func (c *Collection) count(ctx context.Context, pipeline []bson.D) (int64, error) {
	rows, err := Aggregate[countRow](ctx, c, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].N, nil
}

// CountPipeline returns the pipeline CountDocuments runs.
func CountPipeline(filter any, opts *CountOptions) []bson.D {
	pipeline := make([]bson.D, 0, 4)

	if !isNil(filter) {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: filter}})
	}
	if opts != nil && opts.Skip != nil {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: *opts.Skip}})
	}
	if opts != nil && opts.Limit != nil {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: *opts.Limit}})
	}

	return append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: int32(1)},
		{Key: "n", Value: bson.D{{Key: "$sum", Value: int32(1)}}},
	}}})
}

// EstimatedCountPipeline returns the pipeline EstimatedDocumentCount runs.
func EstimatedCountPipeline() []bson.D {
	return []bson.D{
		{{Key: "$collStats", Value: bson.D{{Key: "count", Value: bson.D{}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: int32(1)},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: "$count"}}},
		}}},
	}
}
