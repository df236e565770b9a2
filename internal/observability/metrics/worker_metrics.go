package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	WorkerRunReasonDeadlineExceeded = "deadline_exceeded"
	WorkerRunReasonDBLockTimeout    = "db_lock_timeout"
	WorkerRunReasonSerialization    = "serialization_failure"
	WorkerRunReasonUniqueViolation  = "unique_violation"
	WorkerRunReasonEngine           = "engine_error"
	WorkerRunReasonUnknown          = "unknown"
)

// EngineFailure marks errors produced by the analysis engine itself so the
// worker metrics can separate them from infrastructure faults.
type EngineFailure struct {
	Err error
}

func (e *EngineFailure) Error() string { return "external_engine_failure: " + e.Err.Error() }
func (e *EngineFailure) Unwrap() error { return e.Err }

// WorkerMetrics captures analysis worker health signals.
type WorkerMetrics struct {
	runsStarted   *prometheus.CounterVec
	runsFinished  *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runTimeouts   *prometheus.CounterVec
	runErrors     *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	creditRefunds prometheus.Counter
}

var (
	workerMetricsOnce sync.Once
	workerMetrics     *WorkerMetrics
)

// Worker returns the singleton worker metrics registry.
func Worker() *WorkerMetrics {
	return WorkerWithConfig(Config{})
}

// WorkerWithConfig returns the singleton worker metrics registry using config labels.
func WorkerWithConfig(cfg Config) *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetrics = newWorkerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return workerMetrics
}

// ResetWorkerMetricsForTest resets the worker metrics singleton for tests.
func ResetWorkerMetricsForTest() {
	workerMetricsOnce = sync.Once{}
	workerMetrics = nil
}

func newWorkerMetrics(registerer prometheus.Registerer, cfg Config) *WorkerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "traffictuner"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runsStarted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "traffictuner_analysis_runs_started_total",
		Help:        "Analysis runs picked up by the worker, by analysis type.",
		ConstLabels: constLabels,
	}, []string{"analysis_type"})
	runsFinished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "traffictuner_analysis_runs_finished_total",
		Help:        "Analysis runs finished, by analysis type and terminal status.",
		ConstLabels: constLabels,
	}, []string{"analysis_type", "status"})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "traffictuner_analysis_run_duration_seconds",
		Help:        "Analysis run latency from dequeue to terminal status.",
		Buckets:     []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300, 600},
		ConstLabels: constLabels,
	}, []string{"analysis_type"})
	runTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "traffictuner_analysis_run_timeouts_total",
		Help:        "Analysis runs aborted by the engine deadline.",
		ConstLabels: constLabels,
	}, []string{"analysis_type"})
	runErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "traffictuner_analysis_run_errors_total",
		Help:        "Analysis run errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"analysis_type", "reason"})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "traffictuner_analysis_queue_depth",
		Help:        "Queued analysis runs awaiting a worker.",
		ConstLabels: constLabels,
	})
	creditRefunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "traffictuner_credit_refunds_total",
		Help:        "Credits refunded after failed analysis runs.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		runsStarted,
		runsFinished,
		runDuration,
		runTimeouts,
		runErrors,
		queueDepth,
		creditRefunds,
	)

	return &WorkerMetrics{
		runsStarted:   runsStarted,
		runsFinished:  runsFinished,
		runDuration:   runDuration,
		runTimeouts:   runTimeouts,
		runErrors:     runErrors,
		queueDepth:    queueDepth,
		creditRefunds: creditRefunds,
	}
}

// IncRunStarted increments the started counter for an analysis type.
func (m *WorkerMetrics) IncRunStarted(analysisType string) {
	if m == nil || m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(analysisType).Inc()
}

// IncRunFinished increments the finished counter for a terminal status.
func (m *WorkerMetrics) IncRunFinished(analysisType, status string) {
	if m == nil || m.runsFinished == nil {
		return
	}
	m.runsFinished.WithLabelValues(analysisType, status).Inc()
}

// ObserveRunDuration records analysis run latency in seconds.
func (m *WorkerMetrics) ObserveRunDuration(analysisType string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.WithLabelValues(analysisType).Observe(duration.Seconds())
}

// IncRunTimeout increments the timeout counter for an analysis type.
func (m *WorkerMetrics) IncRunTimeout(analysisType string) {
	if m == nil || m.runTimeouts == nil {
		return
	}
	m.runTimeouts.WithLabelValues(analysisType).Inc()
}

// IncRunError increments the run error counter with classification.
func (m *WorkerMetrics) IncRunError(analysisType string, err error) {
	if m == nil || m.runErrors == nil || err == nil {
		return
	}
	m.runErrors.WithLabelValues(analysisType, ClassifyWorkerRunReason(err)).Inc()
}

// SetQueueDepth records the number of queued runs.
func (m *WorkerMetrics) SetQueueDepth(depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	if depth < 0 {
		depth = 0
	}
	m.queueDepth.Set(float64(depth))
}

// IncCreditRefund increments the refund counter.
func (m *WorkerMetrics) IncCreditRefund() {
	if m == nil || m.creditRefunds == nil {
		return
	}
	m.creditRefunds.Inc()
}

// ClassifyWorkerRunReason maps run errors to low-cardinality reasons.
func ClassifyWorkerRunReason(err error) string {
	if err == nil {
		return WorkerRunReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WorkerRunReasonDeadlineExceeded
	}
	var engineErr *EngineFailure
	if errors.As(err, &engineErr) {
		return WorkerRunReasonEngine
	}
	if isDBLockTimeout(err) {
		return WorkerRunReasonDBLockTimeout
	}
	if isSerializationFailure(err) {
		return WorkerRunReasonSerialization
	}
	if isUniqueViolation(err) {
		return WorkerRunReasonUniqueViolation
	}
	return WorkerRunReasonUnknown
}

// IsWorkerErrorRetryable reports whether the run error is worth retrying.
func IsWorkerErrorRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return isDBLockTimeout(err) || isSerializationFailure(err)
}

func isDBLockTimeout(err error) bool {
	return hasPGCode(err, "55P03")
}

func isSerializationFailure(err error) bool {
	return hasPGCode(err, "40001")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return hasPGCode(err, "23505")
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
