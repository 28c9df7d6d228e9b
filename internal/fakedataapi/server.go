// Package fakedataapi provides a fake Data API gateway for testing purposes.
// It serves both gateway generations from an in-memory store and includes
// various failure injection capabilities.
//
// The gateway routes are registered on a gorilla/mux router using the same
// templates the client expands, so a route change on either side shows up
// in tests.
//
// To flexibly inject failures, you can configure stub responses that match
// specific actions and request bodies, along with failure configurations
// that specify how it fails (e.g., delays, invalid responses, dropped
// connections).
package fakedataapi

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/constants"
	"github.com/dataapi/dataapi.go/pkg/ejson"
	"github.com/dataapi/dataapi.go/pkg/logger"
)

// cryptoRandInt64 generates a cryptographically secure random int64 in [0, max)
func cryptoRandInt64(rMax int64) int64 {
	if rMax <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(rMax))
	return n.Int64()
}

// cryptoRandFloat64 generates a cryptographically secure random float64 in [0.0, 1.0)
func cryptoRandFloat64() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(1<<53))
	return float64(n.Int64()) / float64(1<<53)
}

// FailureType represents the type of failure to inject during request processing
type FailureType string

const (
	// FailureNone indicates no failure injection
	FailureNone FailureType = "none"
	// FailureRequestDelay delays before processing the request
	FailureRequestDelay FailureType = "request_delay"
	// FailureInvalidResponse sends random bytes with a 200 status
	FailureInvalidResponse FailureType = "invalid_response"
	// FailureDropConnection closes the underlying network connection
	// without writing a response
	FailureDropConnection FailureType = "drop_connection"
	// FailurePartialMessage sends only half of the response body
	FailurePartialMessage FailureType = "partial_message"
)

// RequestMatcher defines criteria for matching incoming actions.
type RequestMatcher struct {
	// Action is the action name to match
	Action string
	// Matcher is an optional function to match based on the request body.
	// If nil, only the action name is used for matching.
	Matcher func(body bson.D) bool
}

// APIError is the error body written for rejected requests.
type APIError struct {
	// Status is the HTTP status; 400 when zero.
	Status  int    `json:"-"`
	Code    string `json:"error_code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// StubResponse defines a pre-configured response for matching requests.
type StubResponse struct {
	// Matcher determines which requests this stub should handle
	Matcher RequestMatcher
	// Result is encoded as the response body (mutually exclusive with Error)
	Result any
	// Error is the error to return (mutually exclusive with Result)
	Error *APIError
	// Failures defines failure injection configurations for this response
	Failures []FailureConfig
}

// SimpleStubResponse answers every call of action with result.
func SimpleStubResponse(action string, result any) StubResponse {
	return StubResponse{
		Matcher: RequestMatcher{Action: action},
		Result:  result,
	}
}

// FailureConfig defines how and when to inject a specific failure type
type FailureConfig struct {
	// Type specifies the type of failure to inject
	Type FailureType
	// Probability of triggering this failure (0.0 to 1.0)
	Probability float64
	// MinDelay is the minimum delay for delay-based failures
	MinDelay time.Duration
	// MaxDelay is the maximum delay for delay-based failures
	MaxDelay time.Duration
}

// Request is a recorded call.
type Request struct {
	Gateway string
	AppID   string
	Action  string
	Header  http.Header
	Body    bson.D
}

type namespace struct {
	dataSource string
	database   string
	collection string
}

// Server is a fake Data API gateway. It implements http.Handler, so it can
// be mounted on httptest.NewServer or started on its own listener.
type Server struct {
	mu             sync.RWMutex
	router         *mux.Router
	httpServer     *http.Server
	listener       net.Listener
	addr           string
	stubResponses  []StubResponse
	globalFailures []FailureConfig
	requests       []Request
	store          map[namespace][]bson.D

	apiKeys map[string]bool
	tokens  map[string]bool
	users   map[string]string

	// DataSource, when set, is the only data source the gateway knows.
	DataSource string

	Logger logger.Logger
}

// NewServer creates a new fake gateway.
// Use "127.0.0.1:0" to bind to a random available port when calling Start.
func NewServer(addr string) *Server {
	s := &Server{
		addr:    addr,
		store:   make(map[namespace][]bson.D),
		apiKeys: make(map[string]bool),
		tokens:  make(map[string]bool),
		users:   make(map[string]string),
		Logger:  logger.Nop(),
	}

	s.router = mux.NewRouter()
	for _, gw := range []*connection.Gateway{connection.GatewayV1(), connection.GatewayBeta()} {
		s.router.HandleFunc(gw.Route, s.handle(*gw)).Methods(http.MethodPost)
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, &APIError{Status: http.StatusNotFound, Code: "NotFound", Message: "no such route"})
	})

	return s
}

// AddAPIKey registers a key accepted by the api-key header.
func (s *Server) AddAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKeys[key] = true
}

// AddJWT registers a token accepted by the jwtTokenString header.
func (s *Server) AddJWT(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = true
}

// AddUser registers an email and password pair.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = password
}

// AddStubResponse adds a stub response configuration to the server.
// Stub responses are matched in the order they were added.
func (s *Server) AddStubResponse(stub StubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubResponses = append(s.stubResponses, stub)
}

// SetGlobalFailures sets failure configurations that apply to all requests.
// These are checked before stub-specific failures.
func (s *Server) SetGlobalFailures(failures []FailureConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalFailures = failures
}

// Seed appends docs to a collection without going through the gateway.
func (s *Server) Seed(dataSource, database, collection string, docs ...bson.D) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := namespace{dataSource, database, collection}
	for _, d := range docs {
		s.store[ns] = append(s.store[ns], withID(slices.Clone(d)))
	}
}

// Documents returns a copy of a collection's contents in insertion order.
func (s *Server) Documents(dataSource, database, collection string) []bson.D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.store[namespace{dataSource, database, collection}]
	out := make([]bson.D, len(docs))
	for i, d := range docs {
		out[i] = slices.Clone(d)
	}
	return out
}

// Requests returns the calls received so far, stubbed or not.
func (s *Server) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.requests)
}

// Start starts serving on the configured address.
func (s *Server) Start() error {
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("fakedataapi: server error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down and closes all connections.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// Address returns the actual address the server is listening on.
// This is useful when using "127.0.0.1:0" to get the assigned port.
func (s *Server) Address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// URL is the endpoint clients should be configured with after Start.
func (s *Server) URL() string {
	return "http://" + s.Address()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Transport returns a Doer that serves requests in process, without a
// listener.
func (s *Server) Transport() connection.Doer {
	return connection.DoerFunc(func(req *http.Request) (*http.Response, error) {
		if err := req.Context().Err(); err != nil {
			return nil, err
		}
		rec := newRecorder()
		s.ServeHTTP(rec, req)
		if rec.dropped {
			return nil, io.ErrUnexpectedEOF
		}
		return rec.result(req), nil
	})
}

func (s *Server) handle(gw connection.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		action := vars[connection.RouteVarAction]

		s.mu.RLock()
		globalFailures := s.globalFailures
		s.mu.RUnlock()
		for _, failure := range globalFailures {
			if shouldTriggerFailure(failure.Probability) {
				if stop := applyFailure(w, failure, nil); stop {
					return
				}
			}
		}

		kind, err := s.authenticate(r.Header)
		if err != nil {
			writeError(w, err)
			return
		}
		if !slices.Contains(gw.Credentials, kind) {
			writeError(w, &APIError{
				Status:  http.StatusUnauthorized,
				Code:    "InvalidSession",
				Message: "authentication method not supported by this endpoint",
			})
			return
		}

		ct := r.Header.Get(constants.HeaderContentType)
		if ct != constants.ContentTypeEJSON && ct != constants.ContentTypeJSON {
			writeError(w, &APIError{
				Status:  http.StatusUnsupportedMediaType,
				Code:    "UnsupportedMediaType",
				Message: "unsupported content type: " + ct,
			})
			return
		}

		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, &APIError{Code: "InvalidParameter", Message: err.Error()})
			return
		}
		var body bson.D
		if err := ejson.NewRelaxed().Unmarshal(data, &body); err != nil {
			writeError(w, &APIError{Code: "InvalidParameter", Message: "invalid request body: " + err.Error()})
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Gateway: gw.Name,
			AppID:   vars[connection.RouteVarAppID],
			Action:  action,
			Header:  r.Header.Clone(),
			Body:    body,
		})
		var matchedStub *StubResponse
		for i := range s.stubResponses {
			stub := s.stubResponses[i]
			if stub.Matcher.Action == action && (stub.Matcher.Matcher == nil || stub.Matcher.Matcher(body)) {
				matchedStub = &stub
				break
			}
		}
		s.mu.Unlock()

		s.Logger.Debug("fakedataapi: request", "gateway", gw.Name, "action", action, "stubbed", matchedStub != nil)

		var result any
		if matchedStub != nil {
			for _, failure := range matchedStub.Failures {
				if shouldTriggerFailure(failure.Probability) {
					if stop := applyFailure(w, failure, matchedStub); stop {
						return
					}
				}
			}
			if matchedStub.Error != nil {
				writeError(w, matchedStub.Error)
				return
			}
			result = matchedStub.Result
		} else {
			res, err := s.dispatch(action, body)
			if err != nil {
				writeError(w, err)
				return
			}
			result = res
		}

		// Canonical output is only produced when the client asked for it.
		canonical := gw.Accept != "" && r.Header.Get(constants.HeaderAccept) == gw.Accept
		out, err := (&ejson.Codec{Canonical: canonical}).Marshal(result)
		if err != nil {
			writeError(w, &APIError{Status: http.StatusInternalServerError, Code: "InternalServerError", Message: err.Error()})
			return
		}
		contentType := constants.ContentTypeJSON
		if canonical {
			contentType = constants.ContentTypeEJSON
		}
		w.Header().Set(constants.HeaderContentType, contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	}
}

func (s *Server) authenticate(h http.Header) (auth.Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invalid := &APIError{Status: http.StatusUnauthorized, Code: "InvalidSession", Message: "invalid session"}
	if key := headerValue(h, constants.HeaderAPIKey); key != "" {
		if !s.apiKeys[key] {
			return "", invalid
		}
		return auth.KindAPIKey, nil
	}
	if token := headerValue(h, constants.HeaderJWT); token != "" {
		if !s.tokens[token] {
			return "", invalid
		}
		return auth.KindCustomJWT, nil
	}
	email := headerValue(h, constants.HeaderEmail)
	if email != "" {
		if pw, ok := s.users[email]; !ok || pw != headerValue(h, constants.HeaderPassword) {
			return "", invalid
		}
		return auth.KindEmailPassword, nil
	}
	return "", &APIError{Status: http.StatusUnauthorized, Code: "MissingAuthentication", Message: "no authentication methods were specified"}
}

// headerValue reads key whether it was stored canonicalized or verbatim.
func headerValue(h http.Header, key string) string {
	if v := h[key]; len(v) > 0 {
		return v[0]
	}
	return h.Get(key)
}

func shouldTriggerFailure(probability float64) bool {
	if probability >= 1 {
		return true
	}
	return cryptoRandFloat64() < probability
}

func randomDuration(minDelay, maxDelay time.Duration) time.Duration {
	if maxDelay <= minDelay {
		return minDelay
	}
	return minDelay + time.Duration(cryptoRandInt64(int64(maxDelay-minDelay)))
}

// applyFailure injects failure and reports whether the response has been
// taken over.
func applyFailure(w http.ResponseWriter, failure FailureConfig, stub *StubResponse) bool {
	switch failure.Type {
	case FailureRequestDelay:
		time.Sleep(randomDuration(failure.MinDelay, failure.MaxDelay))
		return false

	case FailureInvalidResponse:
		data := make([]byte, 100)
		_, _ = rand.Read(data)
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeEJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return true

	case FailurePartialMessage:
		var result any = bson.D{}
		if stub != nil && stub.Result != nil {
			result = stub.Result
		}
		data, err := ejson.New().Marshal(result)
		if err != nil {
			data = []byte(`{"partial":true}`)
		}
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeEJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data[:len(data)/2])
		return true

	case FailureDropConnection:
		if rec, ok := w.(*recorder); ok {
			rec.dropped = true
			return true
		}
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return true
			}
		}
		panic(http.ErrAbortHandler)
	}
	return false
}
