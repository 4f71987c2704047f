// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     metrics
// Description: Prometheus instrumentation of the listening session
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/msto63/souffleur/pkg/core/logging"
)

// Metrics contains all Prometheus metrics of a souffleur process. It
// satisfies listener.Observer.
type Metrics struct {
	registry *prometheus.Registry

	// Segmentation
	SegmentsAccepted prometheus.Counter
	SegmentWords     prometheus.Histogram
	Questions        *prometheus.CounterVec
	QuestionDuration prometheus.Histogram
	QuestionWords    prometheus.Histogram

	// Recognition
	TranscriptionFailures *prometheus.CounterVec

	// Calibration
	Calibrations    *prometheus.CounterVec
	EnergyThreshold prometheus.Gauge

	// UI
	EventsDropped prometheus.Counter

	// Answers
	Answers        *prometheus.CounterVec
	AnswerDuration prometheus.Histogram
}

// New creates all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SegmentsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "souffleur_segments_accepted_total",
			Help: "Total number of recognized segments folded into an utterance",
		}),
		SegmentWords: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "souffleur_segment_words",
			Help:    "Words per recognized segment",
			Buckets: prometheus.ExponentialBuckets(1, 2, 7), // 1 to 64 words
		}),
		Questions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "souffleur_questions_total",
			Help: "Total number of finalized questions by finalization rule",
		}, []string{"rule"}),
		QuestionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "souffleur_question_duration_seconds",
			Help:    "Time from first speech to finalization",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s to ~2 minutes
		}),
		QuestionWords: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "souffleur_question_words",
			Help:    "Words per finalized question",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9), // 1 to 256 words
		}),
		TranscriptionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "souffleur_transcription_failures_total",
			Help: "Total number of clips that produced no text",
		}, []string{"engine", "kind"}),
		Calibrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "souffleur_calibrations_total",
			Help: "Total number of ambient noise calibrations",
		}, []string{"result"}),
		EnergyThreshold: factory.NewGauge(prometheus.GaugeOpts{
			Name: "souffleur_energy_threshold",
			Help: "Current speech energy threshold (int16 RMS scale)",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "souffleur_events_dropped_total",
			Help: "Total number of status events a slow consumer missed",
		}),
		Answers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "souffleur_answers_total",
			Help: "Total number of answer requests by backend and result",
		}, []string{"backend", "result"}),
		AnswerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "souffleur_answer_duration_seconds",
			Help:    "Answer generation latency",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),
	}
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SegmentAccepted records a recognized segment
func (m *Metrics) SegmentAccepted(words int) {
	m.SegmentsAccepted.Inc()
	m.SegmentWords.Observe(float64(words))
}

// UtteranceFinalized records a finalized question
func (m *Metrics) UtteranceFinalized(rule string, words int, duration time.Duration) {
	m.Questions.WithLabelValues(rule).Inc()
	m.QuestionWords.Observe(float64(words))
	m.QuestionDuration.Observe(duration.Seconds())
}

// TranscriptionFailed records a clip without text
func (m *Metrics) TranscriptionFailed(engine string, unrecognized bool) {
	kind := "service"
	if unrecognized {
		kind = "unrecognized"
	}
	m.TranscriptionFailures.WithLabelValues(engine, kind).Inc()
}

// Calibrated records a calibration and the resulting threshold
func (m *Metrics) Calibrated(threshold float64, failed bool) {
	if failed {
		m.Calibrations.WithLabelValues("failed").Inc()
	} else {
		m.Calibrations.WithLabelValues("ok").Inc()
	}
	m.EnergyThreshold.Set(threshold)
}

// EventDropped records a status event lost to a slow consumer
func (m *Metrics) EventDropped() {
	m.EventsDropped.Inc()
}

// AnswerGenerated records one answer request
func (m *Metrics) AnswerGenerated(backend string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Answers.WithLabelValues(backend, result).Inc()
	m.AnswerDuration.Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Nop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
