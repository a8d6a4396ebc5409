package valhalla

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wayfarer-go/navigator/internal/domain/models"
	"github.com/wayfarer-go/navigator/internal/nav/routeadapter"
	"github.com/wayfarer-go/navigator/internal/service/navsession"
)

// Provider fulfils navsession.RouteProvider by driving RequestGenerator
// and ResponseParser over http.Client, taking only the first parsed
// route.
type Provider struct {
	Generator routeadapter.RequestGenerator
	Parser    routeadapter.ResponseParser
	Client    *http.Client
}

func NewProvider(baseURL, costing string) Provider {
	return Provider{
		Generator: RequestGenerator{BaseURL: baseURL, Costing: costing},
		Parser:    ResponseParser{},
		Client:    http.DefaultClient,
	}
}

var _ navsession.RouteProvider = Provider{}

func (p Provider) Route(ctx context.Context, loc models.UserLocation, waypoints []models.Waypoint) (models.Route, error) {
	req, err := p.Generator.GenerateRequest(loc, waypoints)
	if err != nil {
		return models.Route{}, err
	}
	if req.HttpPost == nil {
		return models.Route{}, routeadapter.RequestGenerationError{Detail: "generator produced no request variant this provider understands"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.HttpPost.URL, bytes.NewReader(req.HttpPost.Body))
	if err != nil {
		return models.Route{}, fmt.Errorf("building request: %w", err)
	}
	for k, v := range req.HttpPost.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return models.Route{}, fmt.Errorf("route provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Route{}, fmt.Errorf("reading route provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Route{}, fmt.Errorf("route provider returned status %d: %s", resp.StatusCode, body)
	}

	routes, err := p.Parser.ParseResponse(body)
	if err != nil {
		return models.Route{}, err
	}
	if len(routes) == 0 {
		return models.Route{}, routeadapter.ParseError{Detail: "response contained no routes"}
	}

	return routes[0], nil
}
