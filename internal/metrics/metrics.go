// Package metrics exposes Prometheus instrumentation for the harvest and
// render pipeline, plus an optional /metrics HTTP server.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hwibalyu/geminaverblog/internal/storage"
)

var (
	PagesHarvested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geminaverblog_pages_harvested_total",
			Help: "Total number of search result pages walked",
		},
	)

	RecordsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geminaverblog_records_extracted_total",
			Help: "Total number of result records extracted from search pages",
		},
	)

	FilterDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminaverblog_filter_decisions_total",
			Help: "Relevance gate decisions by gate and verdict",
		},
		[]string{"gate", "result"},
	)

	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminaverblog_renders_total",
			Help: "Processed posts by outcome status",
		},
		[]string{"status"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geminaverblog_render_duration_seconds",
			Help:    "Duration of per-post processing in seconds",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"status"},
	)

	ServiceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geminaverblog_service_failures_total",
			Help: "Total number of generative service call failures",
		},
	)
)

// RecordOutcome updates the render metrics from one per-post outcome.
func RecordOutcome(o *storage.RenderOutcome) {
	if o == nil {
		return
	}
	RendersTotal.WithLabelValues(o.Status).Inc()
	RenderDuration.WithLabelValues(o.Status).Observe(o.Duration.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
