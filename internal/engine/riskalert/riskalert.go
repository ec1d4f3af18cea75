// Package riskalert maps module outputs into typed, severity-graded alerts.
// Severity is table-driven: each alert type carries an ordered list of
// threshold bands so new rules don't touch unrelated logic.
package riskalert

import (
	"fmt"
	"sort"
	"time"

	"github.com/sellerdesk/recond/internal/engine/cycle"
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/engine/feevariation"
	"github.com/sellerdesk/recond/internal/engine/marginaudit"
)

// Band grades values at or above Min with Severity. Bands for one alert type
// must be in strictly ascending Min order; classification picks the highest
// matching band.
type Band struct {
	Min      float64
	Severity domain.Severity
}

// Config holds the severity rules. Zero thresholds are rejected by Validate
// so misconfiguration fails at engine construction, never mid-batch.
type Config struct {
	// DelayHighDays is the delayed-cycle floor (in delay days) for a high
	// alert; critically delayed cycles always alert critical.
	DelayHighDays int
	// CommissionBands grade commission change percentage points.
	CommissionBands []Band
	// MarginBands grade margin drop percentage points.
	MarginBands []Band
	// RefundRateBands grade the externally supplied refund rate percentage.
	RefundRateBands []Band
	// LargeLossThreshold is the lost-chargeback amount (minor units) above
	// which the alert escalates from high to critical.
	LargeLossThreshold int64
}

// DefaultConfig returns the severity rules shipped with the engine.
func DefaultConfig() Config {
	return Config{
		DelayHighDays: 3,
		CommissionBands: []Band{
			{Min: 1.0, Severity: domain.SeverityLow},
			{Min: 1.75, Severity: domain.SeverityMedium},
			{Min: 2.5, Severity: domain.SeverityHigh},
		},
		MarginBands: []Band{
			{Min: 3.0, Severity: domain.SeverityLow},
			{Min: 5.0, Severity: domain.SeverityMedium},
			{Min: 8.0, Severity: domain.SeverityHigh},
		},
		RefundRateBands: []Band{
			{Min: 5.0, Severity: domain.SeverityMedium},
			{Min: 10.0, Severity: domain.SeverityHigh},
		},
		LargeLossThreshold: 500000,
	}
}

// Validate rejects band tables that could grade inconsistently.
func (c Config) Validate() error {
	if c.DelayHighDays < 0 {
		return domain.ErrInvalidThreshold
	}
	if c.LargeLossThreshold < 0 {
		return domain.ErrInvalidThreshold
	}
	for _, bands := range [][]Band{c.CommissionBands, c.MarginBands, c.RefundRateBands} {
		if len(bands) == 0 {
			return domain.ErrInvalidBands
		}
		prev := bands[0].Min
		for i, b := range bands {
			if !domain.ValidSeverity(b.Severity) {
				return domain.ErrInvalidSeverity
			}
			if b.Min < 0 || (i > 0 && b.Min <= prev) {
				return domain.ErrInvalidBands
			}
			prev = b.Min
		}
	}
	return nil
}

// classify returns the severity of the highest band at or below value.
func classify(bands []Band, value float64) (domain.Severity, bool) {
	var sev domain.Severity
	matched := false
	for _, b := range bands {
		if value >= b.Min {
			sev = b.Severity
			matched = true
		}
	}
	return sev, matched
}

// Inputs are the annotated module outputs the synthesizer consumes.
type Inputs struct {
	Cycles      []cycle.Annotated
	Fees        []feevariation.Annotated
	Margins     []marginaudit.Annotated
	Chargebacks []domain.Chargeback
	// RefundRates is the externally supplied refund rate percentage per
	// portal.
	RefundRates map[string]float64
	Now         time.Time
}

// Counts groups alerts by severity for summary display.
type Counts struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

func (c *Counts) add(sev domain.Severity) {
	switch sev {
	case domain.SeverityCritical:
		c.Critical++
	case domain.SeverityHigh:
		c.High++
	case domain.SeverityMedium:
		c.Medium++
	case domain.SeverityLow:
		c.Low++
	}
}

// Synthesize produces the alert list plus severity counts. Output order
// follows input order within each rule so reruns are byte-stable.
func Synthesize(in Inputs, cfg Config) ([]domain.RiskAlert, Counts) {
	alerts := make([]domain.RiskAlert, 0)
	var counts Counts

	emit := func(a domain.RiskAlert) {
		a.OccurredAt = in.Now
		alerts = append(alerts, a)
		counts.add(a.Severity)
	}

	for _, row := range in.Cycles {
		switch row.Status {
		case domain.CycleCriticalDelay:
			emit(domain.RiskAlert{
				Type:        domain.AlertSettlementDelay,
				Severity:    domain.SeverityCritical,
				Portal:      row.Cycle.Portal,
				Title:       fmt.Sprintf("Settlement batch %s critically delayed", row.Cycle.BatchID),
				Description: fmt.Sprintf("Payout overdue by %d days on %s", row.DelayDays, row.Cycle.Portal),
				Impact:      row.Cycle.Amount,
			})
		case domain.CycleDelayed:
			if row.DelayDays >= cfg.DelayHighDays {
				emit(domain.RiskAlert{
					Type:        domain.AlertSettlementDelay,
					Severity:    domain.SeverityHigh,
					Portal:      row.Cycle.Portal,
					Title:       fmt.Sprintf("Settlement batch %s delayed", row.Cycle.BatchID),
					Description: fmt.Sprintf("Payout overdue by %d days on %s", row.DelayDays, row.Cycle.Portal),
					Impact:      row.Cycle.Amount,
				})
			}
		}
	}

	for _, row := range in.Fees {
		if !row.Alert {
			continue
		}
		sev, ok := classify(cfg.CommissionBands, row.ChangePct)
		if !ok {
			continue
		}
		emit(domain.RiskAlert{
			Type:     domain.AlertCommissionSpike,
			Severity: sev,
			Portal:   row.Record.Portal,
			Title:    fmt.Sprintf("Commission up %.2f pts in %s", row.ChangePct, row.Record.Category),
			Description: fmt.Sprintf("%s commission for %s moved %.2f%% -> %.2f%%",
				row.Record.Portal, row.Record.Category, row.Record.HistoricalPct, row.Record.CurrentPct),
		})
	}

	for _, row := range in.Margins {
		if row.Classification != marginaudit.ClassWarning {
			continue
		}
		sev, ok := classify(cfg.MarginBands, row.MarginDrop)
		if !ok {
			continue
		}
		emit(domain.RiskAlert{
			Type:     domain.AlertMarginLeakage,
			Severity: sev,
			Portal:   row.Record.Portal,
			Title:    fmt.Sprintf("Margin down %.1f pts on %s", row.MarginDrop, row.Record.SKUID),
			Description: fmt.Sprintf("%s: expected %.1f%%, realized %.1f%%",
				row.Record.ProductName, row.Record.ExpectedMarginPct, row.Record.ActualMarginPct),
			Impact: row.Record.SellingPrice,
		})
	}

	for _, cb := range in.Chargebacks {
		if cb.Status != domain.ChargebackLost {
			continue
		}
		sev := domain.SeverityHigh
		if cb.Amount > cfg.LargeLossThreshold {
			sev = domain.SeverityCritical
		}
		emit(domain.RiskAlert{
			Type:        domain.AlertChargebackLoss,
			Severity:    sev,
			Portal:      cb.Portal,
			Title:       fmt.Sprintf("Chargeback %s lost", cb.ID),
			Description: fmt.Sprintf("Dispute on order %s lost: %s", cb.OrderID, cb.Reason),
			Impact:      cb.Amount,
		})
	}

	for _, portal := range sortedKeys(in.RefundRates) {
		rate := in.RefundRates[portal]
		sev, ok := classify(cfg.RefundRateBands, rate)
		if !ok {
			continue
		}
		emit(domain.RiskAlert{
			Type:        domain.AlertHighRefundRate,
			Severity:    sev,
			Portal:      portal,
			Title:       fmt.Sprintf("Refund rate %.1f%% on %s", rate, portal),
			Description: fmt.Sprintf("Refund rate on %s is above the configured threshold", portal),
		})
	}

	return alerts, counts
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
