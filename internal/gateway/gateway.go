// Package gateway serves the AI tool endpoint for the coaching platform.
//
// DESIGN: Main request flow:
//   - handleAITool():  Entry point for POST /ai
//   - streamTool():    SSE relay of upstream deltas as gateway frames
//
// Every pre-stream failure is a plain JSON error with an HTTP status.
// Once streaming starts the status is already 200, so failures travel
// in-band as a terminal error frame instead.
//
// Also includes health check, admin usage endpoints, and the live
// usage WebSocket feed.
package gateway

import (
	"net/http"
	"time"

	"github.com/admitpath/coach-gateway/internal/auth"
	"github.com/admitpath/coach-gateway/internal/config"
	"github.com/admitpath/coach-gateway/internal/monitoring"
	"github.com/admitpath/coach-gateway/internal/quota"
	"github.com/admitpath/coach-gateway/internal/tools"
	"github.com/admitpath/coach-gateway/internal/upstream"
)

// Gateway holds the wired dependencies behind the HTTP surface.
type Gateway struct {
	cfg       *config.Config
	resolver  auth.Resolver
	quota     quota.Tracker
	registry  *tools.Registry
	upstream  upstream.Streamer
	store     *monitoring.Store
	estimator *monitoring.Estimator
	feed      *monitoring.Feed
	startTime time.Time
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithStore attaches the usage store. Nil store disables persistence.
func WithStore(store *monitoring.Store) Option {
	return func(g *Gateway) {
		g.store = store
	}
}

// WithEstimator attaches the token estimator.
func WithEstimator(est *monitoring.Estimator) Option {
	return func(g *Gateway) {
		g.estimator = est
	}
}

// WithFeed attaches the live usage feed.
func WithFeed(feed *monitoring.Feed) Option {
	return func(g *Gateway) {
		g.feed = feed
	}
}

// New creates a Gateway.
func New(cfg *config.Config, resolver auth.Resolver, tracker quota.Tracker, registry *tools.Registry, streamer upstream.Streamer, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:       cfg,
		resolver:  resolver,
		quota:     tracker,
		registry:  registry,
		upstream:  streamer,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Routes returns the HTTP mux for the gateway.
func (g *Gateway) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ai", g.handleAITool)
	mux.HandleFunc("/healthz", g.handleHealth)
	mux.HandleFunc("/usage/recent", g.handleRecentUsage)
	mux.HandleFunc("/ws/usage", g.handleUsageFeed)
	return mux
}
