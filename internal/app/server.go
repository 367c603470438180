package app

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Server owns the request-facing state: the upstream client, the feed
// cache, the resolved display zone and the routes. The cache is created at
// process start and handed in; entries self-expire, so there is nothing to
// tear down.
type Server struct {
	cfg      *Config
	upstream Upstream
	cache    *Cache
	logger   *logrus.Logger
	metrics  *Metrics
	mux      *http.ServeMux

	zone   *time.Location
	zoneID string

	indexHTML []byte
}

// NewServer creates a Server, resolves the configured timezone and
// registers all routes. An unknown timezone falls back to UTC.
func NewServer(cfg *Config, upstream Upstream, cache *Cache, logger *logrus.Logger, indexHTML []byte) *Server {
	s := &Server{
		cfg:       cfg,
		upstream:  upstream,
		cache:     cache,
		logger:    logger,
		metrics:   NewMetrics(),
		mux:       http.NewServeMux(),
		indexHTML: indexHTML,
	}

	s.zoneID = cfg.Timezone
	zone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.WithField("timezone", cfg.Timezone).WithError(err).Warn("unknown timezone, falling back to UTC")
		zone = time.UTC
		s.zoneID = "UTC"
	}
	s.zone = zone

	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", s.metrics.Handler())
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/calendar/", s.handleCalendar)
	s.mux.HandleFunc("/api/members", s.handleMembers)
}
