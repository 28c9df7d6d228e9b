package dataapi_test

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go"
	"github.com/dataapi/dataapi.go/contrib/testenv"
	"github.com/dataapi/dataapi.go/internal/fakedataapi"
	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/logger"
)

func ExampleCollection_InsertOne() {
	db := testenv.MustNew("examples", "people")
	people := db.Collection("people")
	ctx := context.Background()

	if _, err := people.InsertOne(ctx, bson.D{
		{Key: "name", Value: "Ada"},
		{Key: "born", Value: int32(1815)},
	}); err != nil {
		panic(err)
	}

	doc, err := people.FindOne(ctx, bson.D{{Key: "name", Value: "Ada"}}, dataapi.NewFindOneOptions().
		SetProjection(bson.D{{Key: "_id", Value: int32(0)}}))
	if err != nil {
		panic(err)
	}
	fmt.Printf("%v\n", doc)

	// Output:
	// [{name Ada} {born 1815}]
}

func ExampleCollection_CountDocuments() {
	db := testenv.MustNew("examples", "orders")
	orders := db.Collection("orders")
	ctx := context.Background()

	_, err := orders.InsertMany(ctx, []any{
		bson.D{{Key: "status", Value: "open"}},
		bson.D{{Key: "status", Value: "open"}},
		bson.D{{Key: "status", Value: "open"}},
		bson.D{{Key: "status", Value: "closed"}},
	})
	if err != nil {
		panic(err)
	}

	open, err := orders.CountDocuments(ctx, bson.D{{Key: "status", Value: "open"}}, nil)
	if err != nil {
		panic(err)
	}
	skipped, err := orders.CountDocuments(ctx, nil, dataapi.NewCountOptions().SetSkip(3))
	if err != nil {
		panic(err)
	}
	fmt.Println("open:", open)
	fmt.Println("after skipping 3:", skipped)

	// Output:
	// open: 3
	// after skipping 3: 1
}

func ExampleFind() {
	type Book struct {
		Title string `bson:"title"`
		Year  int    `bson:"year"`
	}

	db := testenv.MustNew("examples", "books")
	books := db.Collection("books")
	ctx := context.Background()

	_, err := books.InsertMany(ctx, []any{
		Book{Title: "Dune", Year: 1965},
		Book{Title: "Neuromancer", Year: 1984},
		Book{Title: "Foundation", Year: 1951},
	})
	if err != nil {
		panic(err)
	}

	found, err := dataapi.Find[Book](ctx, books,
		bson.D{{Key: "year", Value: bson.D{{Key: "$lt", Value: int32(1980)}}}},
		dataapi.NewFindOptions().SetSort(bson.D{{Key: "year", Value: int32(1)}}),
	)
	if err != nil {
		panic(err)
	}
	for _, b := range found {
		fmt.Println(b.Year, b.Title)
	}

	// Output:
	// 1951 Foundation
	// 1965 Dune
}

func ExampleCollection_Send() {
	db := testenv.MustNew("examples", "events")
	events := db.Collection("events")
	ctx := context.Background()

	var res struct {
		InsertedID any `bson:"insertedId"`
	}
	err := events.Send(ctx, "insertOne", bson.D{
		{Key: "document", Value: bson.D{{Key: "_id", Value: "evt-1"}}},
	}, &res)
	if err != nil {
		panic(err)
	}
	fmt.Println(res.InsertedID)

	// Output:
	// evt-1
}

func ExampleNew_logging() {
	fake := fakedataapi.NewServer("")
	fake.AddAPIKey("key")
	fake.AddStubResponse(fakedataapi.StubResponse{
		Matcher: fakedataapi.RequestMatcher{Action: "deleteMany"},
		Error:   &fakedataapi.APIError{Status: 403, Code: "Forbidden", Message: "read-only key"},
	})

	conf := connection.NewConfig(testenv.FakeEndpoint, "Cluster0", auth.APIKey{Key: "key"})
	conf.Transport = fake.Transport()
	conf.Logger = logger.FromZerolog(zerolog.New(os.Stdout).Level(zerolog.WarnLevel))

	client, err := dataapi.New(conf)
	if err != nil {
		panic(err)
	}

	_, err = client.Database("app").Collection("users").DeleteMany(context.Background(), nil)
	fmt.Println(err)

	// Output:
	// {"level":"warn","action":"deleteMany","status":403,"error_code":"Forbidden","message":"dataapi: remote rejection"}
	// Forbidden: {"error_code":"Forbidden","error":"read-only key"}
}
