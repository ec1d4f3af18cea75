// Package metrics exposes prometheus instruments for reconciliation runs.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the const labels attached to every instrument.
type Config struct {
	ServiceName string
	Environment string
}

// EngineMetrics counts reconciliation activity.
type EngineMetrics struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	recordsIngested  *prometheus.CounterVec
	recordsRejected  *prometheus.CounterVec
	exceptionsOpen   prometheus.Gauge
	alertsBySeverity *prometheus.GaugeVec
	healthScore      prometheus.Gauge
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the process-wide engine metrics, registering them on first
// use.
func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

// EngineWithConfig is Engine with explicit const labels.
func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

// ResetEngineMetricsForTest clears the singleton so tests can register
// against their own registerer.
func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "recond"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "recond_engine_runs_total",
			Help:        "Total reconciliation engine runs.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "recond_engine_run_duration_seconds",
			Help:        "Wall time of one engine run over the full snapshot.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
	)

	recordsIngested := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "recond_records_ingested_total",
			Help:        "Raw records accepted by the normalizer, by schema.",
			ConstLabels: constLabels,
		},
		[]string{"schema"},
	)

	recordsRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "recond_records_rejected_total",
			Help:        "Raw records rejected by the normalizer, by reason.",
			ConstLabels: constLabels,
		},
		[]string{"schema", "reason"},
	)

	exceptionsOpen := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "recond_reconciliation_exceptions",
			Help:        "Net-amount mismatches found in the latest run.",
			ConstLabels: constLabels,
		},
	)

	alertsBySeverity := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "recond_risk_alerts",
			Help:        "Risk alerts produced by the latest run, by severity.",
			ConstLabels: constLabels,
		},
		[]string{"severity"},
	)

	healthScore := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "recond_health_score",
			Help:        "Composite reconciliation health score of the latest run.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(
		runsTotal,
		runDuration,
		recordsIngested,
		recordsRejected,
		exceptionsOpen,
		alertsBySeverity,
		healthScore,
	)

	return &EngineMetrics{
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		recordsIngested:  recordsIngested,
		recordsRejected:  recordsRejected,
		exceptionsOpen:   exceptionsOpen,
		alertsBySeverity: alertsBySeverity,
		healthScore:      healthScore,
	}
}

func (m *EngineMetrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
}

func (m *EngineMetrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

func (m *EngineMetrics) AddIngested(schema string, n int) {
	if m == nil {
		return
	}
	m.recordsIngested.WithLabelValues(schema).Add(float64(n))
}

func (m *EngineMetrics) IncRejected(schema, reason string) {
	if m == nil {
		return
	}
	m.recordsRejected.WithLabelValues(schema, reason).Inc()
}

func (m *EngineMetrics) SetExceptions(n int) {
	if m == nil {
		return
	}
	m.exceptionsOpen.Set(float64(n))
}

func (m *EngineMetrics) SetAlerts(severity string, n int) {
	if m == nil {
		return
	}
	m.alertsBySeverity.WithLabelValues(severity).Set(float64(n))
}

func (m *EngineMetrics) SetHealthScore(score int) {
	if m == nil {
		return
	}
	m.healthScore.Set(float64(score))
}
