// Package worker runs the reconciliation engine on a schedule, publishes its
// findings to the outbox and refreshes the cached report.
package worker

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sellerdesk/recond/internal/cache"
	"github.com/sellerdesk/recond/internal/clock"
	"github.com/sellerdesk/recond/internal/config"
	"github.com/sellerdesk/recond/internal/engine"
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/events"
	ingestdomain "github.com/sellerdesk/recond/internal/ingest/domain"
	"github.com/sellerdesk/recond/internal/observability/metrics"
)

// ReportCacheKey is where the latest full report lands after every run.
const ReportCacheKey = "report:latest"

const defaultInterval = 5 * time.Minute

type Params struct {
	fx.In

	Ingest  ingestdomain.Service
	Engine  *engine.Engine
	Clock   clock.Clock
	Outbox  *events.Outbox
	Reports *cache.TTLCache[string, engine.Report]
	Log     *zap.Logger
	Config  config.Config
	Stats   *metrics.EngineMetrics `optional:"true"`
}

type Worker struct {
	ingest  ingestdomain.Service
	engine  *engine.Engine
	clock   clock.Clock
	outbox  *events.Outbox
	reports *cache.TTLCache[string, engine.Report]
	log     *zap.Logger
	stats   *metrics.EngineMetrics

	enabled   bool
	interval  time.Duration
	reportTTL time.Duration
}

func NewWorker(p Params) *Worker {
	interval := time.Duration(p.Config.Worker.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}
	ttl := time.Duration(p.Config.Server.ReportTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = interval
	}
	return &Worker{
		ingest:    p.Ingest,
		engine:    p.Engine,
		clock:     p.Clock,
		outbox:    p.Outbox,
		reports:   p.Reports,
		log:       p.Log.Named("worker.reconcile"),
		stats:     p.Stats,
		enabled:   p.Config.Worker.Enabled,
		interval:  interval,
		reportTTL: ttl,
	}
}

// RunOnce loads the current snapshot, runs every reconciliation module over
// it and fans the findings out. The computed report is cached for the API.
func (w *Worker) RunOnce(ctx context.Context) (engine.Report, error) {
	start := time.Now()

	snap, err := w.ingest.LoadSnapshot(ctx)
	if err != nil {
		w.stats.IncRun("error")
		return engine.Report{}, err
	}

	report := w.engine.Run(snap, w.clock.Now())

	if err := w.publishFindings(ctx, report); err != nil {
		w.log.Warn("publishing findings failed", zap.Error(err))
	}

	w.stats.SetExceptions(report.Netting.Summary.ExceptionCount)
	w.stats.SetAlerts(string(domain.SeverityCritical), report.AlertCounts.Critical)
	w.stats.SetAlerts(string(domain.SeverityHigh), report.AlertCounts.High)
	w.stats.SetAlerts(string(domain.SeverityMedium), report.AlertCounts.Medium)
	w.stats.SetAlerts(string(domain.SeverityLow), report.AlertCounts.Low)
	w.stats.SetHealthScore(report.Health.Score)
	w.stats.ObserveRunDuration(time.Since(start))
	w.stats.IncRun("ok")

	w.reports.Set(ReportCacheKey, report, w.reportTTL)

	w.log.Info("reconciliation run complete",
		zap.Int("line_items", report.Netting.Summary.Count),
		zap.Int("exceptions", report.Netting.Summary.ExceptionCount),
		zap.Int("alerts", len(report.Alerts)),
		zap.Int("health_score", report.Health.Score),
	)
	return report, nil
}

// publishFindings stores one outbox event per exception and per alert. Dedupe
// keys keep repeated runs over unchanged data from flooding the outbox.
func (w *Worker) publishFindings(ctx context.Context, report engine.Report) error {
	for _, res := range report.Netting.Results {
		if !res.IsException {
			continue
		}
		payload := events.ExceptionPayload{
			LineItemID:    res.Item.ID,
			OrderItemID:   res.Item.OrderItemID,
			Portal:        res.Item.Portal,
			ReportedNet:   res.Item.ReportedNet,
			RecomputedNet: res.RecomputedNet,
		}
		if err := w.outbox.Publish(ctx, events.Event{
			Type:      events.EventExceptionDetected,
			Portal:    res.Item.Portal,
			Payload:   payload.ToMap(),
			DedupeKey: "exception:" + res.Item.ID,
		}); err != nil {
			return err
		}
	}

	for _, alert := range report.Alerts {
		payload := events.AlertPayload{
			Type:     string(alert.Type),
			Severity: string(alert.Severity),
			Portal:   alert.Portal,
			Title:    alert.Title,
			Impact:   alert.Impact,
		}
		key := "alert:" + string(alert.Type) + ":" + alert.Portal + ":" + alert.OccurredAt.Format("2006-01-02")
		if err := w.outbox.Publish(ctx, events.Event{
			Type:      events.EventAlertRaised,
			Portal:    alert.Portal,
			Payload:   payload.ToMap(),
			DedupeKey: key,
		}); err != nil {
			return err
		}
	}

	return w.outbox.Publish(ctx, events.Event{
		Type: events.EventReportBuilt,
		Payload: map[string]any{
			"generated_at": report.GeneratedAt,
			"exceptions":   report.Netting.Summary.ExceptionCount,
			"alerts":       len(report.Alerts),
			"health_score": report.Health.Score,
			"health":       string(report.Health.Status),
		},
		DedupeKey: "report:" + report.GeneratedAt.Format(time.RFC3339),
	})
}
