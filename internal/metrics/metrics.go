package metrics

import (
	"strconv"

	"github.com/alitto/pond/v2"
	"github.com/dlmiddlecote/sqlstats"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService interface {
	RegisterPoolMetrics(channel string, pool pond.Pool)
	GetRegistry() *prometheus.Registry
	IncRunsStarted(flow string)
	IncRunsFinished(flow, status string)
	ObserveStepDuration(flow, step string, duration float64)
	IncStepErrors(flow, step string)
	IncAnchorRequests(endpoint string, statusCode int)
	ObserveAnchorRequestDuration(endpoint string, duration float64)
	IncTransactionStatusPolls(flow string)
}

// metricsService handles all metrics for the anchor demo
type metricsService struct {
	registry *prometheus.Registry
	db       *sqlx.DB

	// Run Metrics
	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec

	// Step Metrics
	stepDuration *prometheus.HistogramVec
	stepErrors   *prometheus.CounterVec

	// Anchor HTTP Metrics
	anchorRequestsTotal   *prometheus.CounterVec
	anchorRequestDuration *prometheus.SummaryVec
	statusPollsTotal      *prometheus.CounterVec
}

// NewMetricsService creates the registry. db is optional; when set, its connection pool stats are exported too.
func NewMetricsService(db *sqlx.DB) MetricsService {
	m := &metricsService{
		registry: prometheus.NewRegistry(),
		db:       db,
	}

	m.runsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchor_demo_runs_started_total",
			Help: "Number of flow runs started",
		},
		[]string{"flow"},
	)
	m.runsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchor_demo_runs_finished_total",
			Help: "Number of flow runs finished, by outcome",
		},
		[]string{"flow", "status"},
	)

	m.stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anchor_demo_step_duration_seconds",
			Help:    "Duration of each step, including the minimum step pacing",
			Buckets: []float64{0.5, 1, 1.5, 2, 3, 5, 10, 30, 60, 120, 300},
		},
		[]string{"flow", "step"},
	)
	m.stepErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchor_demo_step_errors_total",
			Help: "Number of steps that halted a run",
		},
		[]string{"flow", "step"},
	)

	m.anchorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchor_demo_anchor_requests_total",
			Help: "Number of HTTP requests sent to the anchor",
		},
		[]string{"endpoint", "status_code"},
	)
	m.anchorRequestDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "anchor_demo_anchor_request_duration_seconds",
			Help:       "Duration of HTTP requests sent to the anchor",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"endpoint"},
	)
	m.statusPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anchor_demo_transaction_status_polls_total",
			Help: "Number of anchor transaction status polls",
		},
		[]string{"flow"},
	)

	m.registerMetrics()
	return m
}

func (m *metricsService) registerMetrics() {
	if m.db != nil {
		m.registry.MustRegister(sqlstats.NewStatsCollector("anchor-demo-db", m.db))
	}
	m.registry.MustRegister(
		m.runsStarted,
		m.runsFinished,
		m.stepDuration,
		m.stepErrors,
		m.anchorRequestsTotal,
		m.anchorRequestDuration,
		m.statusPollsTotal,
	)
}

func (m *metricsService) RegisterPoolMetrics(channel string, pool pond.Pool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_workers_running",
			Help:        "Number of running worker goroutines",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.RunningWorkers())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_submitted_total",
			Help:        "Number of tasks submitted",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.SubmittedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_failed_total",
			Help:        "Number of tasks that completed with an error or panic",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.FailedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_completed_total",
			Help:        "Number of tasks that completed either successfully or with an error",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.CompletedTasks())
		},
	))
}

// GetRegistry returns the prometheus registry
func (m *metricsService) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Run Metrics

func (m *metricsService) IncRunsStarted(flow string) {
	m.runsStarted.WithLabelValues(flow).Inc()
}

func (m *metricsService) IncRunsFinished(flow, status string) {
	m.runsFinished.WithLabelValues(flow, status).Inc()
}

// Step Metrics

func (m *metricsService) ObserveStepDuration(flow, step string, duration float64) {
	m.stepDuration.WithLabelValues(flow, step).Observe(duration)
}

func (m *metricsService) IncStepErrors(flow, step string) {
	m.stepErrors.WithLabelValues(flow, step).Inc()
}

// Anchor Metrics

func (m *metricsService) IncAnchorRequests(endpoint string, statusCode int) {
	m.anchorRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

func (m *metricsService) ObserveAnchorRequestDuration(endpoint string, duration float64) {
	m.anchorRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

func (m *metricsService) IncTransactionStatusPolls(flow string) {
	m.statusPollsTotal.WithLabelValues(flow).Inc()
}
