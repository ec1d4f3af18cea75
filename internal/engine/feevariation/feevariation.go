// Package feevariation flags commission-rate spikes per portal and category.
package feevariation

import "github.com/sellerdesk/recond/internal/engine/domain"

// Annotated is a fee record with its derived change and alert flag.
type Annotated struct {
	Record    domain.FeeVariationRecord
	ChangePct float64
	Alert     bool
}

// Run annotates every record. A row alerts iff its change is strictly greater
// than thresholdPct; a change exactly at the threshold, zero, or negative
// never alerts.
func Run(records []domain.FeeVariationRecord, thresholdPct float64) []Annotated {
	rows := make([]Annotated, 0, len(records))
	for _, rec := range records {
		change := rec.CurrentPct - rec.HistoricalPct
		rows = append(rows, Annotated{
			Record:    rec,
			ChangePct: change,
			Alert:     change > thresholdPct,
		})
	}
	return rows
}

// AlertCount returns the number of alerting rows.
func AlertCount(rows []Annotated) int {
	n := 0
	for _, row := range rows {
		if row.Alert {
			n++
		}
	}
	return n
}
