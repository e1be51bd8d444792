package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Eligibility metrics
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loginrewards_evaluations_total",
			Help: "Total eligibility evaluations by outcome",
		},
		[]string{"result"},
	)

	GrantsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loginrewards_grants_total",
			Help: "Total reward grants issued",
		},
	)

	GoldGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loginrewards_gold_granted_total",
			Help: "Total currency granted, in copper",
		},
	)

	// Session metrics
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loginrewards_active_sessions",
			Help: "Number of sessions currently polled for eligibility",
		},
	)

	// Storage metrics
	StoreSaveErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loginrewards_store_save_errors_total",
			Help: "Record store save failures",
		},
		[]string{"store"},
	)

	GrantLogErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loginrewards_grant_log_errors_total",
			Help: "Daily grant log append failures",
		},
	)
)

// Evaluation outcome labels.
const (
	ResultGranted       = "granted"
	ResultAccountWindow = "account_window"
	ResultOriginWindow  = "origin_window"
	ResultCached        = "cached"
)

func init() {
	prometheus.MustRegister(
		EvaluationsTotal,
		GrantsTotal,
		GoldGranted,
		ActiveSessions,
		StoreSaveErrors,
		GrantLogErrors,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
