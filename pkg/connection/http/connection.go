// Package http implements the Data API action invoker over net/http.
//
// Every collection operation funnels through [Connection.Invoke], which
// performs exactly one POST per call. There are no retries and no caching;
// callers that need either wrap the client or the transport.
package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataapi/dataapi.go/internal/codec"
	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/constants"
	"github.com/dataapi/dataapi.go/pkg/ejson"
	"github.com/dataapi/dataapi.go/pkg/logger"
)

// TracerName is the instrumentation scope used when Config.Tracer is nil.
const TracerName = "github.com/dataapi/dataapi.go"

type Connection struct {
	endpoint   string
	appID      string
	dataSource string
	gateway    connection.Gateway

	// headers is computed once in New and only read afterwards.
	headers http.Header

	transport   connection.Doer
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger
	tracer      trace.Tracer
}

var _ connection.Invoker = (*Connection)(nil)

// New validates cfg and resolves its credential. An invalid or unsupported
// credential fails here, before any request is made.
func New(cfg *connection.Config) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	authHeaders, err := auth.Resolve(cfg.Credential, cfg.Gateway.Credentials...)
	if err != nil {
		return nil, err
	}

	headers := cfg.Gateway.Headers()
	for k, v := range authHeaders {
		headers[k] = slices.Clone(v)
	}

	c := &Connection{
		endpoint:    cfg.Endpoint,
		appID:       cfg.AppID,
		dataSource:  cfg.DataSource,
		gateway:     *cfg.Gateway,
		headers:     headers,
		transport:   cfg.Transport,
		marshaler:   cfg.Marshaler,
		unmarshaler: cfg.Unmarshaler,
		logger:      cfg.Logger,
		tracer:      cfg.Tracer,
	}

	wire := &ejson.Codec{Canonical: cfg.Gateway.Canonical}
	if c.transport == nil {
		c.transport = http.DefaultClient
	}
	if c.marshaler == nil {
		c.marshaler = wire
	}
	if c.unmarshaler == nil {
		c.unmarshaler = wire
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(TracerName)
	}

	return c, nil
}

func (c *Connection) DataSource() string {
	return c.dataSource
}

// Headers returns a copy of the headers attached to every request.
func (c *Connection) Headers() http.Header {
	return c.headers.Clone()
}

// URL returns the address action is posted to.
func (c *Connection) URL(action string) string {
	return c.gateway.URL(c.endpoint, c.appID, action)
}

// Envelope builds the request document: the three addressing fields first,
// then params in order.
func (c *Connection) Envelope(ns connection.Namespace, params bson.D) bson.D {
	env := make(bson.D, 0, len(params)+3)
	env = append(env,
		bson.E{Key: constants.FieldCollection, Value: ns.Collection},
		bson.E{Key: constants.FieldDatabase, Value: ns.Database},
		bson.E{Key: constants.FieldDataSource, Value: c.dataSource},
	)
	return append(env, params...)
}

// Invoke posts action and decodes the response into res.
//
// A transport failure is returned as is. A non-2xx status yields a
// *connection.RemoteError and the body is not parsed. A 2xx body that
// cannot be decoded yields a *connection.DecodeError.
func (c *Connection) Invoke(ctx context.Context, action string, ns connection.Namespace, params bson.D, res any) (err error) {
	ctx, span := c.tracer.Start(ctx, "dataapi."+action,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.operation", action),
			attribute.String("db.name", ns.Database),
			attribute.String("db.mongodb.collection", ns.Collection),
			attribute.String("dataapi.data_source", c.dataSource),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	reqBody, err := c.marshaler.Marshal(c.Envelope(ns, params))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(action), bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	for k, v := range c.headers {
		req.Header[k] = slices.Clone(v)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	respData, statusCode, statusText, err := c.MakeRequest(req)
	if err != nil {
		c.logger.Debug("dataapi: transport failure", "action", action, "error", err)
		return err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	c.logger.Debug("dataapi: action completed",
		"action", action,
		"database", ns.Database,
		"collection", ns.Collection,
		"status", statusCode,
		"elapsed", time.Since(start),
	)

	if statusCode < 200 || statusCode >= 300 {
		rerr := connection.NewRemoteError(action, statusCode, statusText, respData)
		c.logger.Warn("dataapi: remote rejection",
			"action", action,
			"status", statusCode,
			"error_code", rerr.Code,
		)
		return rerr
	}

	if res == nil {
		return nil
	}
	if err := c.unmarshaler.Unmarshal(respData, res); err != nil {
		return &connection.DecodeError{Action: action, Err: err}
	}

	return nil
}

// MakeRequest sends req and reads the whole body. Only transport failures
// are reported as errors; the status is left for the caller to judge.
func (c *Connection) MakeRequest(req *http.Request) (body []byte, statusCode int, statusText string, err error) {
	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, 0, "", err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", err
	}

	return body, resp.StatusCode, StatusText(resp), nil
}

// StatusText returns the reason phrase of resp, such as "Not Found".
func StatusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
