package riskalert

import (
	"errors"
	"testing"
	"time"

	"github.com/sellerdesk/recond/internal/engine/cycle"
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/engine/feevariation"
	"github.com/sellerdesk/recond/internal/engine/marginaudit"
)

var now = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func annotatedCycle(batch, portal string, days int, status domain.CycleStatus) cycle.Annotated {
	return cycle.Annotated{
		Cycle:     domain.SettlementCycle{BatchID: batch, Portal: portal, Amount: 250000},
		DelayDays: days,
		Status:    status,
	}
}

func fee(portal string, change float64) feevariation.Annotated {
	return feevariation.Annotated{
		Record:    domain.FeeVariationRecord{Portal: portal, Category: "apparel", HistoricalPct: 10, CurrentPct: 10 + change},
		ChangePct: change,
		Alert:     change > 1.0,
	}
}

func margin(sku string, drop float64) marginaudit.Annotated {
	class := marginaudit.ClassHealthy
	if drop >= 3.0 {
		class = marginaudit.ClassWarning
	}
	return marginaudit.Annotated{
		Record:         domain.PriceAuditRecord{SKUID: sku, Portal: "amazon", ProductName: "Product " + sku},
		MarginDrop:     drop,
		Classification: class,
	}
}

func single(t *testing.T, in Inputs) domain.RiskAlert {
	t.Helper()
	alerts, _ := Synthesize(in, DefaultConfig())
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1 (%+v)", len(alerts), alerts)
	}
	return alerts[0]
}

func TestSettlementDelaySeverity(t *testing.T) {
	a := single(t, Inputs{Now: now, Cycles: []cycle.Annotated{
		annotatedCycle("B-1", "amazon", 7, domain.CycleCriticalDelay),
	}})
	if a.Type != domain.AlertSettlementDelay || a.Severity != domain.SeverityCritical {
		t.Fatalf("alert = %+v", a)
	}
	if a.Impact != 250000 {
		t.Errorf("impact = %d, want batch amount", a.Impact)
	}

	a = single(t, Inputs{Now: now, Cycles: []cycle.Annotated{
		annotatedCycle("B-2", "amazon", 3, domain.CycleDelayed),
	}})
	if a.Severity != domain.SeverityHigh {
		t.Fatalf("delayed >= 3 days should be high, got %s", a.Severity)
	}

	alerts, _ := Synthesize(Inputs{Now: now, Cycles: []cycle.Annotated{
		annotatedCycle("B-3", "amazon", 2, domain.CycleDelayed),
	}}, DefaultConfig())
	if len(alerts) != 0 {
		t.Fatalf("short delay should not alert, got %+v", alerts)
	}
}

func TestCommissionSpikeBands(t *testing.T) {
	cases := []struct {
		change float64
		want   domain.Severity
	}{
		{1.2, domain.SeverityLow},
		{2.0, domain.SeverityMedium},
		{2.5, domain.SeverityHigh},
		{4.0, domain.SeverityHigh},
	}
	for _, tc := range cases {
		a := single(t, Inputs{Now: now, Fees: []feevariation.Annotated{fee("amazon", tc.change)}})
		if a.Severity != tc.want {
			t.Errorf("change %.2f: severity = %s, want %s", tc.change, a.Severity, tc.want)
		}
	}

	alerts, _ := Synthesize(Inputs{Now: now, Fees: []feevariation.Annotated{fee("amazon", 0.5)}}, DefaultConfig())
	if len(alerts) != 0 {
		t.Fatalf("non-alerting fee row produced alerts: %+v", alerts)
	}
}

func TestMarginLeakageBands(t *testing.T) {
	cases := []struct {
		drop float64
		want domain.Severity
	}{
		{3.5, domain.SeverityLow},
		{5.9, domain.SeverityMedium},
		{8.0, domain.SeverityHigh},
	}
	for _, tc := range cases {
		a := single(t, Inputs{Now: now, Margins: []marginaudit.Annotated{margin("SKU-1", tc.drop)}})
		if a.Type != domain.AlertMarginLeakage || a.Severity != tc.want {
			t.Errorf("drop %.1f: got %s/%s, want margin_leakage/%s", tc.drop, a.Type, a.Severity, tc.want)
		}
	}
}

func TestChargebackLossEscalation(t *testing.T) {
	small := domain.Chargeback{ID: "CB-1", OrderID: "O-1", Portal: "meesho", Amount: 4197, Status: domain.ChargebackLost}
	large := domain.Chargeback{ID: "CB-2", OrderID: "O-2", Portal: "meesho", Amount: 900000, Status: domain.ChargebackLost}
	open := domain.Chargeback{ID: "CB-3", OrderID: "O-3", Portal: "meesho", Amount: 100, Status: domain.ChargebackUnderReview}

	alerts, counts := Synthesize(Inputs{Now: now, Chargebacks: []domain.Chargeback{small, large, open}}, DefaultConfig())
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	if alerts[0].Severity != domain.SeverityHigh || alerts[1].Severity != domain.SeverityCritical {
		t.Fatalf("severities = %s, %s", alerts[0].Severity, alerts[1].Severity)
	}
	if counts.Critical != 1 || counts.High != 1 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestRefundRateBands(t *testing.T) {
	alerts, _ := Synthesize(Inputs{Now: now, RefundRates: map[string]float64{
		"ajio":   2.0,
		"amazon": 6.5,
		"meesho": 12.0,
	}}, DefaultConfig())
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	// map keys are emitted in sorted order for deterministic output
	if alerts[0].Portal != "amazon" || alerts[0].Severity != domain.SeverityMedium {
		t.Errorf("first refund alert = %+v", alerts[0])
	}
	if alerts[1].Portal != "meesho" || alerts[1].Severity != domain.SeverityHigh {
		t.Errorf("second refund alert = %+v", alerts[1])
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.CommissionBands = []Band{{Min: 2.0, Severity: domain.SeverityLow}, {Min: 1.0, Severity: domain.SeverityHigh}}
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidBands) {
		t.Errorf("descending bands: err = %v", err)
	}

	bad = DefaultConfig()
	bad.MarginBands = []Band{{Min: 3.0, Severity: domain.Severity("urgent")}}
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidSeverity) {
		t.Errorf("unknown severity: err = %v", err)
	}

	bad = DefaultConfig()
	bad.LargeLossThreshold = -1
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidThreshold) {
		t.Errorf("negative threshold: err = %v", err)
	}

	bad = DefaultConfig()
	bad.RefundRateBands = nil
	if err := bad.Validate(); !errors.Is(err, domain.ErrInvalidBands) {
		t.Errorf("empty bands: err = %v", err)
	}
}
