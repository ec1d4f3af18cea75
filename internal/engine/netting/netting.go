// Package netting recomputes and verifies net settlement amounts per line
// item and aggregates batches. All sums are additive, so per-portal partial
// results merge losslessly.
package netting

import (
	"github.com/sellerdesk/recond/internal/engine/domain"
)

// Result pairs a line item with its recomputed net amount. When the
// recomputed value disagrees with the portal-reported net, the row is a
// reconciliation exception; the recomputed value still feeds every aggregate
// so the engine's numbers stay self-consistent.
type Result struct {
	Item          domain.SettlementLineItem
	RecomputedNet int64
	IsException   bool
}

// Group collects the line items belonging to one order item.
type Group struct {
	OrderItemID string
	Items       []Result
	TotalNet    int64
}

// Summary holds the additive batch aggregates.
type Summary struct {
	Count          int
	ExceptionCount int
	TotalSale      int64
	TotalRefund    int64
	TotalOffer     int64
	TotalSeller    int64
	TotalAddons    int64
	TotalFees      int64
	TotalTaxes     int64
	TotalNet       int64
}

// Report is the full netting output for a batch.
type Report struct {
	Results []Result
	Groups  []Group
	Summary Summary
}

// Recompute returns the signed component sum for a line item.
func Recompute(item domain.SettlementLineItem) int64 {
	return item.OfferAmount + item.SellerShare + item.CustomerAddons + item.MarketplaceFees + item.Taxes
}

// Run verifies every line item and builds order-item groups plus batch
// aggregates. Groups preserve first-appearance order of the order item id.
func Run(items []domain.SettlementLineItem) Report {
	report := Report{
		Results: make([]Result, 0, len(items)),
	}

	groupIdx := make(map[string]int)
	for _, item := range items {
		net := Recompute(item)
		res := Result{
			Item:          item,
			RecomputedNet: net,
			IsException:   net != item.ReportedNet,
		}
		report.Results = append(report.Results, res)
		report.Summary = addToSummary(report.Summary, res)

		idx, ok := groupIdx[item.OrderItemID]
		if !ok {
			idx = len(report.Groups)
			groupIdx[item.OrderItemID] = idx
			report.Groups = append(report.Groups, Group{OrderItemID: item.OrderItemID})
		}
		report.Groups[idx].Items = append(report.Groups[idx].Items, res)
		report.Groups[idx].TotalNet += net
	}

	return report
}

func addToSummary(s Summary, r Result) Summary {
	s.Count++
	if r.IsException {
		s.ExceptionCount++
	}
	s.TotalSale += r.Item.SaleAmount
	s.TotalRefund += r.Item.RefundAmount
	s.TotalOffer += r.Item.OfferAmount
	s.TotalSeller += r.Item.SellerShare
	s.TotalAddons += r.Item.CustomerAddons
	s.TotalFees += r.Item.MarketplaceFees
	s.TotalTaxes += r.Item.Taxes
	s.TotalNet += r.RecomputedNet
	return s
}

// MergeSummaries combines partial summaries from partitioned runs. Merging is
// associative and commutative, so partition order does not matter.
func MergeSummaries(parts ...Summary) Summary {
	var out Summary
	for _, p := range parts {
		out.Count += p.Count
		out.ExceptionCount += p.ExceptionCount
		out.TotalSale += p.TotalSale
		out.TotalRefund += p.TotalRefund
		out.TotalOffer += p.TotalOffer
		out.TotalSeller += p.TotalSeller
		out.TotalAddons += p.TotalAddons
		out.TotalFees += p.TotalFees
		out.TotalTaxes += p.TotalTaxes
		out.TotalNet += p.TotalNet
	}
	return out
}
