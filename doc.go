// The [dataapi] package is a client for the document database Data API, an
// HTTP gateway that exposes insert, find, update, delete and aggregate as
// named "actions".
//
// It offers a driver-like surface for places where a native database
// connection is not available: serverless functions, edge runtimes and
// restricted networks.
//
// # Handles
//
// A [Client] is built once from a [connection.Config]. [Client.Database] and
// [Database.Collection] return lightweight handles that only carry names, so
// they can be created and dropped freely:
//
//	client, err := dataapi.New(connection.NewConfig(endpoint, "Cluster0", auth.APIKey{Key: key}))
//	if err != nil {
//		return err
//	}
//	users := client.Database("app").Collection("users")
//	res, err := users.InsertOne(ctx, bson.D{{Key: "name", Value: "ada"}})
//
// # Data Models
//
// Requests and responses are Extended JSON. Documents are [bson.D] values
// and rich scalars (object ids, dates, 64-bit integers, binary, decimals) are
// the types from [go.mongodb.org/mongo-driver/bson/primitive]. See
// [github.com/dataapi/dataapi.go/pkg/ejson] for the codec and helpers.
//
// Use [Decode], [FindOne], [Find] and [Aggregate] to decode results into
// your own structs.
//
// # Counting
//
// The gateway has no count action. [Collection.CountDocuments] and
// [Collection.EstimatedDocumentCount] run a synthesized aggregation pipeline
// instead.
//
// # Use Send for low-level control
//
// [Collection.Send] is used internally by all operations. Use it directly to
// call an action this package does not wrap.
package dataapi
