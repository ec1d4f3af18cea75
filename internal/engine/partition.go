package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/sellerdesk/recond/internal/engine/chargeback"
	"github.com/sellerdesk/recond/internal/engine/netting"
)

// PartitionByPortal splits a snapshot into per-portal snapshots. Every record
// kind carries its portal, so the split is exact; refund rates follow their
// portal key.
func PartitionByPortal(snap Snapshot) map[string]Snapshot {
	parts := make(map[string]Snapshot)

	part := func(portal string) Snapshot {
		return parts[portal]
	}

	for _, it := range snap.LineItems {
		p := part(it.Portal)
		p.LineItems = append(p.LineItems, it)
		parts[it.Portal] = p
	}
	for _, rec := range snap.PriceAudits {
		p := part(rec.Portal)
		p.PriceAudits = append(p.PriceAudits, rec)
		parts[rec.Portal] = p
	}
	for _, rec := range snap.FeeRecords {
		p := part(rec.Portal)
		p.FeeRecords = append(p.FeeRecords, rec)
		parts[rec.Portal] = p
	}
	for _, c := range snap.Cycles {
		p := part(c.Portal)
		p.Cycles = append(p.Cycles, c)
		parts[c.Portal] = p
	}
	for _, cb := range snap.Chargebacks {
		p := part(cb.Portal)
		p.Chargebacks = append(p.Chargebacks, cb)
		parts[cb.Portal] = p
	}
	for portal, rate := range snap.RefundRates {
		p := part(portal)
		if p.RefundRates == nil {
			p.RefundRates = make(map[string]float64, 1)
		}
		p.RefundRates[portal] = rate
		parts[portal] = p
	}

	return parts
}

// PartitionedSummaries are the additive aggregates a partitioned run can
// merge losslessly. Ratio-style aggregates (averages, worst portal, health)
// are derived from a whole-batch view and are not part of the merge.
type PartitionedSummaries struct {
	Netting     netting.Summary
	Chargebacks chargeback.Summary
}

// RunPartitioned processes one engine run per portal concurrently and merges
// the additive summaries. Per-portal reports are returned keyed by portal;
// merge order is portal-name order, so the result is deterministic.
func (e *Engine) RunPartitioned(snap Snapshot, now time.Time) (map[string]Report, PartitionedSummaries) {
	parts := PartitionByPortal(snap)

	portals := make([]string, 0, len(parts))
	for portal := range parts {
		portals = append(portals, portal)
	}
	sort.Strings(portals)

	reports := make(map[string]Report, len(parts))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, portal := range portals {
		wg.Add(1)
		go func(portal string, part Snapshot) {
			defer wg.Done()
			report := e.Run(part, now)
			mu.Lock()
			reports[portal] = report
			mu.Unlock()
		}(portal, parts[portal])
	}
	wg.Wait()

	var merged PartitionedSummaries
	for _, portal := range portals {
		merged.Netting = netting.MergeSummaries(merged.Netting, reports[portal].Netting.Summary)
		merged.Chargebacks = chargeback.MergeSummaries(merged.Chargebacks, reports[portal].Chargebacks)
	}
	return reports, merged
}
