package fakedataapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMatches(t *testing.T) {
	doc := bson.D{
		{Key: "name", Value: "ada"},
		{Key: "age", Value: int32(36)},
		{Key: "address", Value: bson.D{{Key: "city", Value: "London"}}},
	}

	tests := []struct {
		name   string
		filter bson.D
		want   bool
	}{
		{"empty", bson.D{}, true},
		{"equality", bson.D{{Key: "name", Value: "ada"}}, true},
		{"numeric widths compare by value", bson.D{{Key: "age", Value: int64(36)}}, true},
		{"dotted path", bson.D{{Key: "address.city", Value: "London"}}, true},
		{"missing field", bson.D{{Key: "nope", Value: int32(1)}}, false},
		{"range", bson.D{{Key: "age", Value: bson.D{{Key: "$gte", Value: int32(30)}, {Key: "$lt", Value: 40.0}}}}, true},
		{"in", bson.D{{Key: "name", Value: bson.D{{Key: "$in", Value: bson.A{"grace", "ada"}}}}}, true},
		{"nin", bson.D{{Key: "name", Value: bson.D{{Key: "$nin", Value: bson.A{"ada"}}}}}, false},
		{"exists", bson.D{{Key: "nope", Value: bson.D{{Key: "$exists", Value: false}}}}, true},
		{"or", bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: "grace"}},
			bson.D{{Key: "age", Value: int32(36)}},
		}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matches(doc, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := matches(doc, bson.D{{Key: "age", Value: bson.D{{Key: "$regex", Value: "x"}}}})
	assert.Error(t, err)
}

func TestApplyUpdate(t *testing.T) {
	doc := bson.D{{Key: "_id", Value: int32(1)}, {Key: "n", Value: int32(1)}, {Key: "old", Value: true}}

	got, err := applyUpdate(doc, bson.D{
		{Key: "$set", Value: bson.D{{Key: "name", Value: "ada"}}},
		{Key: "$unset", Value: bson.D{{Key: "old", Value: ""}}},
		{Key: "$inc", Value: bson.D{{Key: "n", Value: int32(2)}}},
	})
	require.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: "_id", Value: int32(1)},
		{Key: "n", Value: int32(3)},
		{Key: "name", Value: "ada"},
	}, got)

	// the input is left untouched
	assert.Len(t, doc, 3)

	_, err = applyUpdate(doc, bson.D{{Key: "name", Value: "ada"}})
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	doc := bson.D{{Key: "_id", Value: int32(1)}, {Key: "a", Value: int32(1)}, {Key: "b", Value: int32(2)}}

	assert.Equal(t, bson.D{{Key: "_id", Value: int32(1)}, {Key: "a", Value: int32(1)}},
		project(doc, bson.D{{Key: "a", Value: int32(1)}}))
	assert.Equal(t, bson.D{{Key: "a", Value: int32(1)}},
		project(doc, bson.D{{Key: "_id", Value: false}, {Key: "a", Value: true}}))
	assert.Equal(t, bson.D{{Key: "_id", Value: int32(1)}, {Key: "a", Value: int32(1)}},
		project(doc, bson.D{{Key: "b", Value: int32(0)}}))
}

func TestGroupEmptyInput(t *testing.T) {
	rows, err := groupDocs(nil, bson.D{
		{Key: "_id", Value: int32(1)},
		{Key: "n", Value: bson.D{{Key: "$sum", Value: int32(1)}}},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
