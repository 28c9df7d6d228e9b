package dataapi_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go"
	"github.com/dataapi/dataapi.go/contrib/testenv"
	"github.com/dataapi/dataapi.go/internal/fakedataapi"
	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/constants"
	"github.com/dataapi/dataapi.go/pkg/ejson"
)

func TestScenario(t *testing.T) {
	client, fake := testenv.NewFake()
	coll := client.Database("shop").Collection("orders")
	ctx := context.Background()

	id := ejson.NewObjectID()
	first := bson.D{{Key: "_id", Value: id}, {Key: "status", Value: "A"}, {Key: "qty", Value: int32(5)}}
	ins, err := coll.InsertOne(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id, ins.InsertedID)

	many, err := coll.InsertMany(ctx, []any{
		bson.D{{Key: "status", Value: "A"}, {Key: "qty", Value: int32(1)}},
		bson.D{{Key: "status", Value: "B"}, {Key: "qty", Value: int64(7)}},
	})
	require.NoError(t, err)
	assert.Len(t, many.InsertedIDs, 2)

	counts := []struct {
		filter any
		opts   *dataapi.CountOptions
		want   int64
	}{
		{nil, nil, 3},
		{bson.D{{Key: "status", Value: "A"}}, nil, 2},
		{nil, dataapi.NewCountOptions().SetSkip(1), 2},
		{nil, dataapi.NewCountOptions().SetLimit(1), 1},
		{nil, dataapi.NewCountOptions().SetSkip(5), 0},
		{bson.D{{Key: "status", Value: "Z"}}, nil, 0},
	}
	for _, c := range counts {
		n, err := coll.CountDocuments(ctx, c.filter, c.opts)
		require.NoError(t, err)
		assert.Equal(t, c.want, n)
	}

	est, err := coll.EstimatedDocumentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), est)

	doc, err := coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, doc)

	missing, err := coll.FindOne(ctx, bson.D{{Key: "status", Value: "Z"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, missing)

	upd, err := coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "qty", Value: int32(6)}}}},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, &dataapi.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, upd)

	ups, err := coll.UpdateOne(ctx,
		bson.D{{Key: "status", Value: "C"}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "qty", Value: int32(2)}}}},
		dataapi.NewUpdateOptions().SetUpsert(true),
	)
	require.NoError(t, err)
	assert.Zero(t, ups.MatchedCount)
	assert.NotNil(t, ups.UpsertedID)

	found, err := coll.Find(ctx,
		bson.D{{Key: "status", Value: "A"}},
		dataapi.NewFindOptions().
			SetSort(bson.D{{Key: "qty", Value: int32(1)}}).
			SetProjection(bson.D{{Key: "_id", Value: int32(0)}, {Key: "qty", Value: int32(1)}}),
	)
	require.NoError(t, err)
	assert.Equal(t, []bson.D{
		{{Key: "qty", Value: int32(1)}},
		{{Key: "qty", Value: int32(6)}},
	}, found)

	del, err := coll.DeleteMany(ctx, bson.D{{Key: "status", Value: "A"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), del.DeletedCount)
	assert.Len(t, fake.Documents(testenv.DefaultDataSource, "shop", "orders"), 2)

	for _, r := range fake.Requests() {
		require.GreaterOrEqual(t, len(r.Body), 3)
		assert.Equal(t, bson.D{
			{Key: "collection", Value: "orders"},
			{Key: "database", Value: "shop"},
			{Key: "dataSource", Value: testenv.DefaultDataSource},
		}, r.Body[:3], r.Action)
	}
}

func TestRemoteRejection(t *testing.T) {
	client, fake := testenv.NewFake()
	fake.AddStubResponse(fakedataapi.StubResponse{
		Matcher: fakedataapi.RequestMatcher{Action: constants.ActionInsertOne},
		Error:   &fakedataapi.APIError{Status: http.StatusForbidden, Code: "Forbidden", Message: "no writes"},
	})

	_, err := client.Database("db").Collection("c").InsertOne(context.Background(), bson.D{})
	require.Error(t, err)

	var remote *dataapi.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusForbidden, remote.StatusCode)
	assert.Equal(t, "Forbidden", remote.Code)
	assert.Equal(t, "no writes", remote.Message)
	assert.Equal(t, `Forbidden: {"error_code":"Forbidden","error":"no writes"}`, err.Error())
	assert.NotErrorIs(t, err, constants.ErrDecode)
}

func TestTransportFailureIsPropagated(t *testing.T) {
	client, fake := testenv.NewFake()
	fake.SetGlobalFailures([]fakedataapi.FailureConfig{
		{Type: fakedataapi.FailureDropConnection, Probability: 1},
	})

	_, err := client.Database("db").Collection("c").DeleteOne(context.Background(), bson.D{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	var remote *dataapi.RemoteError
	assert.False(t, errors.As(err, &remote))
}

func TestInvalidResponseIsDecodeFailure(t *testing.T) {
	client, fake := testenv.NewFake()
	fake.SetGlobalFailures([]fakedataapi.FailureConfig{
		{Type: fakedataapi.FailureInvalidResponse, Probability: 1},
	})

	_, err := client.Database("db").Collection("c").Find(context.Background(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrDecode)
}

func TestWrongAPIKeyIsRejected(t *testing.T) {
	fake := fakedataapi.NewServer("")
	fake.AddAPIKey("right")

	conf := connection.NewConfig(testenv.FakeEndpoint, "Cluster0", auth.APIKey{Key: "wrong"})
	conf.Transport = fake.Transport()
	client, err := dataapi.New(conf)
	require.NoError(t, err)

	_, err = client.Database("db").Collection("c").Find(context.Background(), nil, nil)
	var remote *dataapi.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	assert.Equal(t, "InvalidSession", remote.Code)
}

func TestCustomJWTOverHTTP(t *testing.T) {
	fake := fakedataapi.NewServer("")
	fake.AddJWT("header.payload.signature")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := dataapi.FromEndpointURLString(srv.URL, "Cluster0", auth.CustomJWT{Token: "header.payload.signature"})
	require.NoError(t, err)
	coll := client.Database("db").Collection("c")

	_, err = coll.InsertOne(context.Background(), bson.D{{Key: "n", Value: int64(1) << 40}})
	require.NoError(t, err)

	doc, err := coll.FindOne(context.Background(), nil, dataapi.NewFindOneOptions().SetProjection(bson.D{{Key: "_id", Value: int32(0)}}))
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "n", Value: int64(1) << 40}}, doc)

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "v1", reqs[0].Gateway)
}

func TestBetaGatewayOverHTTP(t *testing.T) {
	fake := fakedataapi.NewServer("")
	fake.AddAPIKey("key")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	conf := connection.NewBetaConfig("data-abcde", "Cluster0", "key")
	conf.Endpoint = srv.URL
	client, err := dataapi.New(conf)
	require.NoError(t, err)
	coll := client.Database("db").Collection("c")

	_, err = coll.InsertMany(context.Background(), []any{bson.D{{Key: "x", Value: int32(1)}}, bson.D{{Key: "x", Value: int32(2)}}})
	require.NoError(t, err)

	n, err := coll.CountDocuments(context.Background(), bson.D{{Key: "x", Value: int32(2)}}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "beta", reqs[0].Gateway)
	assert.Equal(t, "data-abcde", reqs[0].AppID)
	assert.Equal(t, constants.ContentTypeJSON, reqs[0].Header.Get(constants.HeaderContentType))
	assert.Empty(t, reqs[0].Header.Get(constants.HeaderAccept))
}
