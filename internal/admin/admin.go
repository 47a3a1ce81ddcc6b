// Package admin serves the operational HTTP endpoints: Prometheus metrics
// and a health probe.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Stats supplies the live numbers reported by /healthz.
type Stats interface {
	ParticipantCount() int
	ChannelCount() int
}

type Server struct {
	log   zerolog.Logger
	stats Stats
	srv   *http.Server
	start time.Time
}

func NewServer(addr string, stats Stats, logger zerolog.Logger) *Server {
	s := &Server{
		log:   logger,
		stats: stats,
		start: time.Now(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed separately so tests can drive it
// without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.start).Seconds()),
		"participants":   s.stats.ParticipantCount(),
		"channels":       s.stats.ChannelCount(),
	})
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("admin endpoint listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Close() error {
	return s.srv.Close()
}
