package connection

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dataapi/dataapi.go/pkg/auth"
	"github.com/dataapi/dataapi.go/pkg/constants"
)

// Route template variables. The syntax matches gorilla/mux so the same
// template can be registered on a router.
const (
	RouteVarAppID  = "appId"
	RouteVarAction = "action"
)

// Gateway describes one generation of the Data API: where actions live,
// what content types are exchanged and which credentials it accepts.
type Gateway struct {
	Name string
	// Route is appended to the endpoint, e.g. "/action/{action}".
	Route       string `validate:"required"`
	ContentType string `validate:"required"`
	// Accept is omitted from requests when empty.
	Accept string
	// Canonical selects canonical Extended JSON for request bodies.
	Canonical   bool
	Credentials []auth.Kind
}

// GatewayV1 speaks Extended JSON both ways and accepts every credential kind.
func GatewayV1() *Gateway {
	return &Gateway{
		Name:        "v1",
		Route:       "/action/{" + RouteVarAction + "}",
		ContentType: constants.ContentTypeEJSON,
		Accept:      constants.ContentTypeEJSON,
		Canonical:   true,
		Credentials: auth.AllKinds,
	}
}

// GatewayBeta is the first public generation: relaxed bodies, plain JSON
// responses and API keys only.
func GatewayBeta() *Gateway {
	return &Gateway{
		Name:        "beta",
		Route:       "/app/{" + RouteVarAppID + "}/endpoint/data/beta/action/{" + RouteVarAction + "}",
		ContentType: constants.ContentTypeJSON,
		Canonical:   false,
		Credentials: []auth.Kind{auth.KindAPIKey},
	}
}

func (g *Gateway) NeedsAppID() bool {
	return strings.Contains(g.Route, "{"+RouteVarAppID+"}")
}

// URL joins endpoint and the expanded route.
func (g *Gateway) URL(endpoint, appID, action string) string {
	r := strings.NewReplacer(
		"{"+RouteVarAppID+"}", url.PathEscape(appID),
		"{"+RouteVarAction+"}", url.PathEscape(action),
	)
	return strings.TrimRight(endpoint, "/") + r.Replace(g.Route)
}

// Headers returns the content negotiation headers sent with every request.
func (g *Gateway) Headers() http.Header {
	h := http.Header{}
	h.Set(constants.HeaderContentType, g.ContentType)
	if g.Accept != "" {
		h.Set(constants.HeaderAccept, g.Accept)
	}
	return h
}
