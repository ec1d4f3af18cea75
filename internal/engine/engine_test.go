package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

var now = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func testSnapshot() Snapshot {
	actual := now.AddDate(0, 0, -2)
	return Snapshot{
		LineItems: []domain.SettlementLineItem{
			{ID: "L-1", SKUID: "SKU-1", OrderItemID: "OI-1", OrderID: "O-1", Portal: "amazon",
				OfferAmount: 3000, SellerShare: -500, CustomerAddons: 100, MarketplaceFees: -400, Taxes: 829, ReportedNet: 3029},
			{ID: "L-2", SKUID: "SKU-2", OrderItemID: "OI-2", OrderID: "O-2", Portal: "meesho",
				OfferAmount: -200, SellerShare: -100, Taxes: 18, ReportedNet: 4029},
		},
		PriceAudits: []domain.PriceAuditRecord{
			{SKUID: "SKU-1", ProductName: "Shirt", Portal: "amazon", SellingPrice: 54900, PortalSellingPrice: 54900,
				ExpectedMarginPct: 28, ActualMarginPct: 22.1},
		},
		FeeRecords: []domain.FeeVariationRecord{
			{Portal: "amazon", Category: "apparel", HistoricalPct: 12, CurrentPct: 14.6},
		},
		Cycles: []domain.SettlementCycle{
			{BatchID: "B-1", Portal: "amazon", Type: domain.CycleT7, ExpectedDate: now.AddDate(0, 0, -6), Amount: 500000},
			{BatchID: "B-2", Portal: "meesho", Type: domain.CycleT15, ExpectedDate: now.AddDate(0, 0, -2), ActualDate: &actual, Amount: 300000},
		},
		Chargebacks: []domain.Chargeback{
			{ID: "CB-1", OrderID: "O-9", Portal: "meesho", Amount: 4197, Status: domain.ChargebackLost},
			{ID: "CB-2", OrderID: "O-8", Portal: "amazon", Amount: 3450, Status: domain.ChargebackWon},
		},
		RefundRates: map[string]float64{"amazon": 6.0},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := New(DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarginDropThresholdPct = -1
	if _, err := New(cfg, zap.NewNop()); !errors.Is(err, domain.ErrInvalidThreshold) {
		t.Errorf("negative threshold: err = %v", err)
	}

	cfg = DefaultConfig()
	cfg.CriticalAfterDays = 1 // not above delayed edge
	if _, err := New(cfg, zap.NewNop()); !errors.Is(err, domain.ErrInvalidDelayBand) {
		t.Errorf("inverted delay band: err = %v", err)
	}

	cfg = DefaultConfig()
	cfg.Weights.Matched = 0.9
	if _, err := New(cfg, zap.NewNop()); !errors.Is(err, domain.ErrInvalidWeights) {
		t.Errorf("weights not summing: err = %v", err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	report := newTestEngine(t).Run(testSnapshot(), now)

	if report.Netting.Summary.Count != 2 || report.Netting.Summary.ExceptionCount != 1 {
		t.Fatalf("netting summary = %+v", report.Netting.Summary)
	}
	if report.MarginSummary.MarginDrops != 1 {
		t.Errorf("margin drops = %d, want 1", report.MarginSummary.MarginDrops)
	}
	if !report.Fees[0].Alert {
		t.Errorf("fee spike of 2.6 pts did not alert")
	}
	if report.CycleSummary.Delayed != 1 {
		t.Errorf("delayed cycles = %d, want 1", report.CycleSummary.Delayed)
	}
	if report.Chargebacks.TotalLostAmount != 4197 {
		t.Errorf("lost amount = %d, want 4197", report.Chargebacks.TotalLostAmount)
	}

	// one alert per finding: critical delay, commission spike, margin
	// leakage, chargeback loss, refund rate
	if len(report.Alerts) != 5 {
		t.Fatalf("alerts = %d, want 5: %+v", len(report.Alerts), report.Alerts)
	}
	if report.AlertCounts.Critical != 1 {
		t.Errorf("critical count = %d, want 1 (B-1 critical delay)", report.AlertCounts.Critical)
	}

	if report.Health.Score < 0 || report.Health.Score > 100 {
		t.Errorf("health score %d out of range", report.Health.Score)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	eng := newTestEngine(t)
	a := eng.Run(testSnapshot(), now)
	b := eng.Run(testSnapshot(), now)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input and now produced different reports")
	}
}

func TestRunPartitionedMatchesWholeBatch(t *testing.T) {
	eng := newTestEngine(t)
	snap := testSnapshot()

	whole := eng.Run(snap, now)
	reports, merged := eng.RunPartitioned(snap, now)

	if len(reports) != 2 {
		t.Fatalf("portal reports = %d, want 2", len(reports))
	}
	if merged.Netting != whole.Netting.Summary {
		t.Errorf("merged netting %+v != whole %+v", merged.Netting, whole.Netting.Summary)
	}
	if merged.Chargebacks != whole.Chargebacks {
		t.Errorf("merged chargebacks %+v != whole %+v", merged.Chargebacks, whole.Chargebacks)
	}
}
