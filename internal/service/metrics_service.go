package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. A nil *MetricsService is a no-op.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	verifications      *prometheus.CounterVec
	paymentRuns        *prometheus.CounterVec
	paymentRunDuration prometheus.Histogram
	scheduledPayments  prometheus.Counter
	scheduledAmount    prometheus.Counter
	spoolSwept         prometheus.Counter
}

// NewMetricsService registers the HTTP and disbursement collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_verifications_total",
		Help: "Bank verification decisions by decision and outcome",
	}, []string{"decision", "outcome"})

	paymentRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_runs_total",
		Help: "Payment run commit attempts by outcome",
	}, []string{"outcome"})

	paymentRunDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_run_duration_seconds",
		Help:    "Time spent committing a payment run",
		Buckets: prometheus.DefBuckets,
	})

	scheduledPayments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_scheduled_total",
		Help: "Payments moved to Scheduled by committed runs",
	})

	scheduledAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payments_scheduled_amount_xof_total",
		Help: "Sum of amounts scheduled by committed runs, in XOF",
	})

	spoolSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batch_spool_files_swept_total",
		Help: "Orphaned batch files removed by the spool sweeper",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, verifications, paymentRuns, paymentRunDuration,
		scheduledPayments, scheduledAmount, spoolSwept, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		verifications:      verifications,
		paymentRuns:        paymentRuns,
		paymentRunDuration: paymentRunDuration,
		scheduledPayments:  scheduledPayments,
		scheduledAmount:    scheduledAmount,
		spoolSwept:         spoolSwept,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordVerification counts an approve or reject decision.
func (m *MetricsService) RecordVerification(decision, outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(decision, outcome).Inc()
}

// RecordPaymentRun counts a commit attempt. Count and total are only added for committed runs.
func (m *MetricsService) RecordPaymentRun(outcome string, count int, total int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.paymentRuns.WithLabelValues(outcome).Inc()
	m.paymentRunDuration.Observe(duration.Seconds())
	if outcome == runOutcomeCommitted {
		m.scheduledPayments.Add(float64(count))
		m.scheduledAmount.Add(float64(total))
	}
}

// RecordSpoolSweep counts files removed by the sweeper.
func (m *MetricsService) RecordSpoolSweep(removed int) {
	if m == nil || removed <= 0 {
		return
	}
	m.spoolSwept.Add(float64(removed))
}
