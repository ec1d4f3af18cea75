// Package cycle classifies settlement payout delays against expected dates.
package cycle

import (
	"time"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

// Annotated is a settlement cycle with its derived delay and status.
type Annotated struct {
	Cycle     domain.SettlementCycle
	DelayDays int
	Status    domain.CycleStatus
}

// Summary holds batch-level delay aggregates.
type Summary struct {
	Total   int
	OnTime  int
	Delayed int
	// AvgDelayDays averages delay over non-on-time cycles only.
	AvgDelayDays float64
	// WorstPortal is the portal with the highest cumulative delay; ties go to
	// the portal seen first in input order.
	WorstPortal      string
	WorstPortalDelay int
}

// DelayDays computes the delay for one cycle. While the payout is
// outstanding the delay runs against now; once ActualDate is set the value is
// frozen at actual minus expected and never recomputed.
func DelayDays(c domain.SettlementCycle, now time.Time) int {
	ref := now
	if c.ActualDate != nil {
		ref = *c.ActualDate
	}
	days := int(ref.Sub(c.ExpectedDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Classify maps a delay to its status band. Band edges are configuration:
// delays below delayedAfter are on time, delays at or above criticalAfter are
// critical.
func Classify(delayDays, delayedAfter, criticalAfter int) domain.CycleStatus {
	switch {
	case delayDays >= criticalAfter:
		return domain.CycleCriticalDelay
	case delayDays >= delayedAfter:
		return domain.CycleDelayed
	default:
		return domain.CycleOnTime
	}
}

// Run annotates every cycle against now and aggregates the batch.
func Run(cycles []domain.SettlementCycle, now time.Time, delayedAfter, criticalAfter int) ([]Annotated, Summary) {
	rows := make([]Annotated, 0, len(cycles))
	var sum Summary

	portalDelay := make(map[string]int)
	portalOrder := make([]string, 0)
	var delaySum int

	for _, c := range cycles {
		days := DelayDays(c, now)
		row := Annotated{
			Cycle:     c,
			DelayDays: days,
			Status:    Classify(days, delayedAfter, criticalAfter),
		}
		rows = append(rows, row)

		sum.Total++
		if row.Status == domain.CycleOnTime {
			sum.OnTime++
		} else {
			sum.Delayed++
			delaySum += days
		}

		if _, seen := portalDelay[c.Portal]; !seen {
			portalOrder = append(portalOrder, c.Portal)
		}
		portalDelay[c.Portal] += days
	}

	if sum.Delayed > 0 {
		sum.AvgDelayDays = float64(delaySum) / float64(sum.Delayed)
	}
	for _, portal := range portalOrder {
		if portalDelay[portal] > sum.WorstPortalDelay {
			sum.WorstPortal = portal
			sum.WorstPortalDelay = portalDelay[portal]
		}
	}

	return rows, sum
}
