package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/sellerdesk/recond/internal/engine/chargeback"
	"github.com/sellerdesk/recond/internal/engine/cycle"
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/engine/feevariation"
	"github.com/sellerdesk/recond/internal/engine/health"
	"github.com/sellerdesk/recond/internal/engine/marginaudit"
	"github.com/sellerdesk/recond/internal/engine/netting"
	"github.com/sellerdesk/recond/internal/engine/riskalert"
)

// Snapshot is one immutable input batch. The caller owns the canonical
// records; the engine never mutates them.
type Snapshot struct {
	LineItems   []domain.SettlementLineItem
	PriceAudits []domain.PriceAuditRecord
	FeeRecords  []domain.FeeVariationRecord
	Cycles      []domain.SettlementCycle
	Chargebacks []domain.Chargeback
	// RefundRates is the externally computed refund rate percentage per
	// portal.
	RefundRates map[string]float64
}

// Report is the combined engine output for one snapshot.
type Report struct {
	Netting       netting.Report
	Margins       []marginaudit.Annotated
	MarginSummary marginaudit.Summary
	Fees          []feevariation.Annotated
	Cycles        []cycle.Annotated
	CycleSummary  cycle.Summary
	Chargebacks   chargeback.Summary
	Alerts        []domain.RiskAlert
	AlertCounts   riskalert.Counts
	Health        domain.HealthScoreResult
	GeneratedAt   time.Time
}

// Engine runs the reconciliation modules with one immutable configuration.
type Engine struct {
	cfg Config
	log *zap.Logger
}

// New validates cfg and builds an engine. Configuration errors fail here,
// before any batch is processed.
func New(cfg Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, log: log.Named("engine")}, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run executes every module over snap. The same snapshot, configuration and
// now always yield an identical report.
func (e *Engine) Run(snap Snapshot, now time.Time) Report {
	report := Report{GeneratedAt: now}

	report.Netting = netting.Run(snap.LineItems)
	report.Margins, report.MarginSummary = marginaudit.Run(snap.PriceAudits, e.cfg.MarginDropThresholdPct)
	report.Fees = feevariation.Run(snap.FeeRecords, e.cfg.CommissionSpikeThresholdPct)
	report.Cycles, report.CycleSummary = cycle.Run(snap.Cycles, now, e.cfg.DelayedAfterDays, e.cfg.CriticalAfterDays)
	report.Chargebacks = chargeback.Summarize(snap.Chargebacks)

	report.Alerts, report.AlertCounts = riskalert.Synthesize(riskalert.Inputs{
		Cycles:      report.Cycles,
		Fees:        report.Fees,
		Margins:     report.Margins,
		Chargebacks: snap.Chargebacks,
		RefundRates: snap.RefundRates,
		Now:         now,
	}, e.cfg.Severity)

	report.Health = health.Score(e.healthInputs(report), e.cfg.Weights)

	e.log.Debug("engine run complete",
		zap.Int("line_items", report.Netting.Summary.Count),
		zap.Int("exceptions", report.Netting.Summary.ExceptionCount),
		zap.Int("alerts", len(report.Alerts)),
		zap.Int("health_score", report.Health.Score),
	)

	return report
}

// healthInputs derives the four summary ratios from the module outputs.
func (e *Engine) healthInputs(r Report) domain.HealthScoreInputs {
	var in domain.HealthScoreInputs
	if n := r.Netting.Summary.Count; n > 0 {
		in.MismatchPct = pct(r.Netting.Summary.ExceptionCount, n)
		in.MatchedPct = 100 - in.MismatchPct
	} else {
		in.MatchedPct = 100
	}
	if n := r.CycleSummary.Total; n > 0 {
		in.DelayedPct = pct(r.CycleSummary.Delayed, n)
	}
	if decided := r.Chargebacks.WonDisputes + r.Chargebacks.LostDisputes; decided > 0 {
		in.ChargebackLossPct = pct(r.Chargebacks.LostDisputes, decided)
	}
	return in
}

func pct(part, whole int) float64 {
	return float64(part) * 100 / float64(whole)
}
