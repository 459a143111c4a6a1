package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics shared across services.
type Metrics struct {
	// Event pipeline metrics
	EventsConsumed  *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	EventsDuplicate *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec

	// Database metrics
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Business metrics
	FriendRequestsCreated  prometheus.Counter
	FriendRequestsAccepted prometheus.Counter
	FriendshipsRemoved     prometheus.Counter
	FeedFanOutDeliveries   prometheus.Counter
	FeedFanOutSkipped      *prometheus.CounterVec
	RecommendationsServed  prometheus.Counter
	RateLimitRejections    *prometheus.CounterVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics under namespace/service.
func NewMetrics(namespace, service string) *Metrics {
	return &Metrics{
		EventsConsumed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "events_consumed_total",
				Help:      "Total number of domain events consumed",
			},
			[]string{"event_type"},
		),
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "events_published_total",
				Help:      "Total number of domain events published",
			},
			[]string{"event_type"},
		),
		EventsDuplicate: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "events_duplicate_total",
				Help:      "Total number of events skipped as already processed",
			},
			[]string{"event_type"},
		),
		EventsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "events_failed_total",
				Help:      "Total number of events whose handler returned an error",
			},
			[]string{"event_type"},
		),
		HandlerDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "event_handler_duration_seconds",
				Help:      "Event handler latencies in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"event_type"},
		),
		DBQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "db_queries_total",
				Help:      "Total number of database queries",
			},
			[]string{"query_type", "table", "status"},
		),
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "db_query_duration_seconds",
				Help:      "Database query latencies in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"query_type", "table"},
		),
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache_name"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache_name"},
		),
		FriendRequestsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "friend_requests_created_total",
				Help:      "Total number of friend requests created",
			},
		),
		FriendRequestsAccepted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "friend_requests_accepted_total",
				Help:      "Total number of friend requests accepted",
			},
		),
		FriendshipsRemoved: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "friendships_removed_total",
				Help:      "Total number of friendships removed",
			},
		),
		FeedFanOutDeliveries: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "feed_fanout_deliveries_total",
				Help:      "Total number of feed entries delivered to follower feeds",
			},
		),
		FeedFanOutSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "feed_fanout_skipped_total",
				Help:      "Total number of activity events skipped during fan-out",
			},
			[]string{"reason"},
		),
		RecommendationsServed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "recommendations_served_total",
				Help:      "Total number of recommendation lists served",
			},
		),
		RateLimitRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "rate_limit_rejections_total",
				Help:      "Total number of operations rejected by rate limiting",
			},
			[]string{"operation"},
		),
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: service,
				Name:      "errors_total",
				Help:      "Total number of errors by component",
			},
			[]string{"component", "kind"},
		),
	}
}

// ObserveDBQuery records a database query outcome and latency.
func (m *Metrics) ObserveDBQuery(queryType, table string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DBQueriesTotal.WithLabelValues(queryType, table, status).Inc()
	m.DBQueryDuration.WithLabelValues(queryType, table).Observe(time.Since(start).Seconds())
}

// Server exposes the metrics endpoint.
type Server struct {
	srv *http.Server
}

// NewServer creates an HTTP server serving /metrics on addr.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
