package cycle

import (
	"testing"
	"time"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

var now = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func unpaid(batch, portal string, daysAgo int) domain.SettlementCycle {
	return domain.SettlementCycle{
		BatchID:      batch,
		Portal:       portal,
		Type:         domain.CycleT7,
		ExpectedDate: now.AddDate(0, 0, -daysAgo),
		Amount:       100000,
	}
}

func paid(batch, portal string, expectedDaysAgo, actualDaysAgo int) domain.SettlementCycle {
	actual := now.AddDate(0, 0, -actualDaysAgo)
	c := unpaid(batch, portal, expectedDaysAgo)
	c.ActualDate = &actual
	return c
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		days int
		want domain.CycleStatus
	}{
		{0, domain.CycleOnTime},
		{1, domain.CycleDelayed},
		{4, domain.CycleDelayed},
		{5, domain.CycleCriticalDelay},
		{20, domain.CycleCriticalDelay},
	}
	for _, tc := range cases {
		if got := Classify(tc.days, 1, 5); got != tc.want {
			t.Errorf("Classify(%d) = %s, want %s", tc.days, got, tc.want)
		}
	}
}

func TestDelayDaysUnpaidRunsAgainstNow(t *testing.T) {
	c := unpaid("B-1", "amazon", 5)
	if got := DelayDays(c, now); got != 5 {
		t.Fatalf("delay = %d, want 5", got)
	}
}

func TestDelayDaysFrozenOncePaid(t *testing.T) {
	c := paid("B-1", "amazon", 10, 8) // paid 2 days late
	if got := DelayDays(c, now); got != 2 {
		t.Fatalf("delay = %d, want 2", got)
	}
	// moving "now" forward must not change a settled cycle's delay
	if got := DelayDays(c, now.AddDate(0, 0, 30)); got != 2 {
		t.Fatalf("delay after 30 days = %d, want 2", got)
	}
}

func TestDelayDaysNeverNegative(t *testing.T) {
	c := unpaid("B-1", "amazon", -3) // expected in the future
	if got := DelayDays(c, now); got != 0 {
		t.Fatalf("delay = %d, want 0", got)
	}
}

func TestRunAggregates(t *testing.T) {
	cycles := []domain.SettlementCycle{
		unpaid("B-1", "amazon", 0),  // on time
		unpaid("B-2", "amazon", 2),  // delayed
		unpaid("B-3", "flipkart", 6), // critical
		paid("B-4", "meesho", 10, 10), // paid on time
	}

	rows, sum := Run(cycles, now, 1, 5)
	if rows[2].Status != domain.CycleCriticalDelay {
		t.Errorf("B-3 status = %s, want critical_delay", rows[2].Status)
	}
	if sum.Total != 4 || sum.Delayed != 2 || sum.OnTime != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.AvgDelayDays != 4.0 {
		t.Errorf("avg delay = %v, want 4.0", sum.AvgDelayDays)
	}
	if sum.WorstPortal != "flipkart" || sum.WorstPortalDelay != 6 {
		t.Errorf("worst portal = %s (%d), want flipkart (6)", sum.WorstPortal, sum.WorstPortalDelay)
	}
}

func TestRunWorstPortalTieFirstSeen(t *testing.T) {
	cycles := []domain.SettlementCycle{
		unpaid("B-1", "myntra", 3),
		unpaid("B-2", "ajio", 3),
	}
	_, sum := Run(cycles, now, 1, 5)
	if sum.WorstPortal != "myntra" {
		t.Fatalf("worst portal = %s, want myntra (first seen)", sum.WorstPortal)
	}
}
