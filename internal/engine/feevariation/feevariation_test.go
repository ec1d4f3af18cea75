package feevariation

import (
	"testing"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

func record(portal, category string, historical, current float64) domain.FeeVariationRecord {
	return domain.FeeVariationRecord{
		Portal:        portal,
		Category:      category,
		HistoricalPct: historical,
		CurrentPct:    current,
	}
}

func TestRunAlertsStrictlyAboveThreshold(t *testing.T) {
	rows := Run([]domain.FeeVariationRecord{
		record("amazon", "electronics", 12.0, 12.5), // +0.5 no alert
		record("amazon", "apparel", 15.0, 16.7),     // +1.7 alert
		record("meesho", "apparel", 10.0, 11.0),     // +1.0 exactly, no alert
		record("ajio", "footwear", 14.0, 13.2),      // negative, no alert
		record("myntra", "apparel", 14.0, 14.0),     // zero, no alert
	}, 1.0)

	want := []bool{false, true, false, false, false}
	for i, row := range rows {
		if row.Alert != want[i] {
			t.Errorf("row %d (%s/%s change %.2f): alert = %v, want %v",
				i, row.Record.Portal, row.Record.Category, row.ChangePct, row.Alert, want[i])
		}
	}
	if got := AlertCount(rows); got != 1 {
		t.Errorf("alert count = %d, want 1", got)
	}
}

func TestRunChangePct(t *testing.T) {
	rows := Run([]domain.FeeVariationRecord{record("amazon", "books", 10.0, 12.5)}, 1.0)
	if rows[0].ChangePct != 2.5 {
		t.Fatalf("change = %v, want 2.5", rows[0].ChangePct)
	}
}
