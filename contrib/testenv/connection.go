// Package testenv provides utilities for testing the Data API Go client.
//
// Connection settings are read from DATAAPI_* environment variables, after
// loading a .env file from the working directory if one exists. When
// DATAAPI_URL is not set, clients are wired to an in-process fake gateway
// so tests and examples run without network access.
package testenv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go"
	"github.com/dataapi/dataapi.go/internal/fakedataapi"
	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/connection"
)

const (
	// EnvURL is the gateway endpoint. If not set, the fake gateway is used.
	EnvURL = "DATAAPI_URL"

	// EnvAppID selects the legacy beta gateway when set.
	EnvAppID = "DATAAPI_APP_ID"

	// EnvDataSource is the cluster name. Defaults to DefaultDataSource.
	EnvDataSource = "DATAAPI_DATA_SOURCE"

	// EnvAPIKey, EnvJWT, EnvEmail and EnvPassword feed auth.Options, so the
	// usual precedence applies when several are set.
	EnvAPIKey   = "DATAAPI_API_KEY"
	EnvJWT      = "DATAAPI_JWT"
	EnvEmail    = "DATAAPI_EMAIL"
	EnvPassword = "DATAAPI_PASSWORD"
)

const (
	DefaultDataSource = "Cluster0"

	// FakeEndpoint is the endpoint reported by clients wired to the fake.
	FakeEndpoint = "http://dataapi.fake"

	// FakeAPIKey is the key the fake gateway accepts.
	FakeAPIKey = "fake-api-key"
)

var loadEnv = sync.OnceValue(func() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
})

func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

// NewFake returns a client wired to a fresh fake gateway, and the gateway
// itself so tests can seed data, add stubs or inspect requests.
func NewFake() (*dataapi.Client, *fakedataapi.Server) {
	server := fakedataapi.NewServer("")
	server.AddAPIKey(FakeAPIKey)

	conf := connection.NewConfig(FakeEndpoint, DefaultDataSource, auth.APIKey{Key: FakeAPIKey})
	conf.Transport = server.Transport()

	client, err := dataapi.New(conf)
	if err != nil {
		panic(fmt.Sprintf("fake gateway config rejected: %v", err))
	}
	return client, server
}

// Config returns the client configuration described by the environment,
// or nil when DATAAPI_URL is not set.
func Config() (*connection.Config, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	endpoint := os.Getenv(EnvURL)
	if endpoint == "" {
		return nil, nil
	}

	cred, err := auth.Options{
		APIKey:         os.Getenv(EnvAPIKey),
		JWTTokenString: os.Getenv(EnvJWT),
		Email:          os.Getenv(EnvEmail),
		Password:       os.Getenv(EnvPassword),
	}.Credential()
	if err != nil {
		return nil, err
	}

	dataSource := GetEnvOrDefault(EnvDataSource, DefaultDataSource)
	if appID := os.Getenv(EnvAppID); appID != "" {
		conf := connection.NewBetaConfig(appID, dataSource, "")
		conf.Endpoint = endpoint
		conf.Credential = cred
		return conf, nil
	}
	return connection.NewConfig(endpoint, dataSource, cred), nil
}

func MustNew(database string, collections ...string) *dataapi.Database {
	db, err := New(database, collections...)
	if err != nil {
		panic(fmt.Sprintf("Failed to create Data API client: %v", err))
	}
	return db
}

// New returns a database handle from the environment, or from a fresh fake
// gateway. The named collections are emptied first.
func New(database string, collections ...string) (*dataapi.Database, error) {
	if database == "" {
		return nil, fmt.Errorf("database name must be specified")
	}

	conf, err := Config()
	if err != nil {
		return nil, err
	}
	if conf == nil {
		client, _ := NewFake()
		return client.Database(database), nil
	}

	client, err := dataapi.New(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create Data API client: %w", err)
	}

	db := client.Database(database)
	for _, name := range collections {
		if _, err := db.Collection(name).DeleteMany(context.Background(), bson.D{}); err != nil {
			return nil, fmt.Errorf("failed to clean collection %s: %w", name, err)
		}
	}

	return db, nil
}
