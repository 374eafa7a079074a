// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package api serves the Firewatch JSON API.
//
// Every endpoint is request-driven: a request runs read, parse, classify,
// aggregate to completion in its handler and holds no per-client state on
// the server. The one exception is the websocket log stream, which owns a
// tail cursor for the lifetime of its connection.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/config"
	"grimm.is/firewatch/internal/conntrack"
	"grimm.is/firewatch/internal/fwlog"
	"grimm.is/firewatch/internal/geoip"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/metrics"
	"grimm.is/firewatch/internal/revdns"
	"grimm.is/firewatch/internal/zones"
)

// ServerConfig holds HTTP server security configuration.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration // Slowloris prevention
	ReadTimeout       time.Duration // Body read limit
	WriteTimeout      time.Duration // Response timeout
	IdleTimeout       time.Duration // Keep-alive timeout
	MaxHeaderBytes    int           // Header size limit
}

// DefaultServerConfig returns secure default server configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB header limit
	}
}

// Server handles API requests.
type Server struct {
	Config     *config.Config
	logger     *logging.Logger
	classifier *zones.Classifier
	reader     *fwlog.Reader
	conns      conntrack.Source
	snapshots  *conntrack.Parser
	geo        *geoip.Resolver
	names      *revdns.Resolver
	registry   *metrics.Registry
	collector  *metrics.Collector
	startTime  time.Time

	router *mux.Router
	server *http.Server
}

// ServerOptions holds dependencies for the API server. Any component may
// be nil; its endpoints then answer 503 instead of panicking.
type ServerOptions struct {
	Config     *config.Config
	Logger     *logging.Logger
	Classifier *zones.Classifier
	Reader     *fwlog.Reader
	Conns      conntrack.Source
	Snapshots  *conntrack.Parser
	Geo        *geoip.Resolver
	Names      *revdns.Resolver
	Registry   *metrics.Registry
	Collector  *metrics.Collector
}

// NewServer creates a new API server with the provided options.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.DefaultConfig())
	}

	s := &Server{
		Config:     opts.Config,
		logger:     logger.WithComponent("api"),
		classifier: opts.Classifier,
		reader:     opts.Reader,
		conns:      opts.Conns,
		snapshots:  opts.Snapshots,
		geo:        opts.Geo,
		names:      opts.Names,
		registry:   opts.Registry,
		collector:  opts.Collector,
		startTime:  clock.Now(),
	}

	s.initRoutes()
	return s
}

func (s *Server) initRoutes() {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/zones", s.handleZones).Methods("GET")
	api.HandleFunc("/log/firewall/raw", s.handleLogRaw).Methods("GET")
	api.HandleFunc("/log/firewall/stream", s.handleLogStream).Methods("GET")
	api.HandleFunc("/log/firewall/{group:ip|port|country}", s.handleLogGrouped).Methods("GET")
	api.HandleFunc("/connections", s.handleConnections).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	if s.registry != nil {
		r.Handle("/metrics", s.registry.Handler()).Methods("GET")
	}
	r.HandleFunc("/healthz", s.handleHealthz).Methods("GET")

	r.Use(s.metricsMiddleware)
	s.router = r
}

// Handler returns the full handler chain: access log -> CORS -> router.
func (s *Server) Handler() http.Handler {
	return s.requestLogger(s.corsMiddleware(s.router))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	cfg := DefaultServerConfig()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	logging.APILog("info", "API server starting on %s", addr)
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
