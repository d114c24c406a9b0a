// Package metrics exposes narration counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nguyentantai21042004/video-narrator/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements narrator.Metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	sessionsStarted  prometheus.Counter
	sessionsEnded    *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	segmentsNarrated *prometheus.CounterVec
	framesTotal      *prometheus.CounterVec
	captionsTotal    *prometheus.CounterVec
	captionDuration  prometheus.Histogram
	summariesTotal   *prometheus.CounterVec
}

// NewCollector registers all narration metrics under namespace
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	c := &Collector{registry: reg}

	c.sessionsStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Narration sessions started",
	})

	c.sessionsEnded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_ended_total",
		Help:      "Narration sessions ended, by outcome",
	}, []string{"outcome"})

	c.activeSessions = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently running",
	})

	c.segmentsNarrated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "segments_narrated_total",
		Help:      "Segments whose summary was narrated",
	}, []string{"partial"})

	c.framesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Frame capture attempts, by result",
	}, []string{"result"})

	c.captionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captions_total",
		Help:      "Caption requests, by result",
	}, []string{"result"})

	c.captionDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "caption_duration_seconds",
		Help:      "Caption request latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	c.summariesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summaries_total",
		Help:      "Summary requests, by result",
	}, []string{"result"})

	return c
}

// SessionStarted counts a new session as active
func (c *Collector) SessionStarted() {
	c.sessionsStarted.Inc()
	c.activeSessions.Inc()
}

// SessionEnded records how a session finished
func (c *Collector) SessionEnded(outcome string) {
	c.sessionsEnded.WithLabelValues(outcome).Inc()
	c.activeSessions.Dec()
}

// SegmentNarrated counts a spoken segment summary
func (c *Collector) SegmentNarrated(partial bool) {
	c.segmentsNarrated.WithLabelValues(strconv.FormatBool(partial)).Inc()
}

func (c *Collector) FrameResult(ok bool) {
	c.framesTotal.WithLabelValues(result(ok)).Inc()
}

// CaptionResult records one caption request and its latency
func (c *Collector) CaptionResult(ok bool, elapsed time.Duration) {
	c.captionsTotal.WithLabelValues(result(ok)).Inc()
	c.captionDuration.Observe(elapsed.Seconds())
}

func (c *Collector) SummaryResult(ok bool) {
	c.summariesTotal.WithLabelValues(result(ok)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics on addr until ctx is done
func (c *Collector) Serve(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "Metrics listening on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
