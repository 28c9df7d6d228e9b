package constants

const (
	// DefaultEndpoint is the base URL used by the legacy beta gateway
	// when no endpoint is configured.
	DefaultEndpoint = "https://data.mongodb-api.com"

	ContentTypeEJSON = "application/ejson"
	ContentTypeJSON  = "application/json"
)

// Header names understood by the gateway. The JWT header is not the
// standard Authorization header and must be sent verbatim.
const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderAPIKey      = "api-key"
	HeaderJWT         = "jwtTokenString"
	HeaderEmail       = "email"
	HeaderPassword    = "password"
)

// Envelope addressing fields present in every request body.
const (
	FieldCollection = "collection"
	FieldDatabase   = "database"
	FieldDataSource = "dataSource"
)

// Action names exposed by the gateway.
const (
	ActionInsertOne  = "insertOne"
	ActionInsertMany = "insertMany"
	ActionFindOne    = "findOne"
	ActionFind       = "find"
	ActionUpdateOne  = "updateOne"
	ActionUpdateMany = "updateMany"
	ActionReplaceOne = "replaceOne"
	ActionDeleteOne  = "deleteOne"
	ActionDeleteMany = "deleteMany"
	ActionAggregate  = "aggregate"
)
