// Package chargeback aggregates dispute outcomes and enforces the forward-only
// dispute lifecycle.
package chargeback

import "github.com/sellerdesk/recond/internal/engine/domain"

// Summary holds dispute aggregates. Unless the caller explicitly asks for
// filtered totals, these are always computed over the full set so display
// filters cannot skew them.
type Summary struct {
	Total           int
	TotalLostAmount int64
	OpenDisputes    int
	WonDisputes     int
	LostDisputes    int
}

// Summarize aggregates the full dispute set.
func Summarize(disputes []domain.Chargeback) Summary {
	var sum Summary
	for _, cb := range disputes {
		sum.Total++
		switch {
		case cb.Status == domain.ChargebackLost:
			sum.LostDisputes++
			sum.TotalLostAmount += cb.Amount
		case cb.Status == domain.ChargebackWon:
			sum.WonDisputes++
		case cb.Status.Open():
			sum.OpenDisputes++
		}
	}
	return sum
}

// Filter returns the disputes matching any of the given statuses. It never
// touches the input slice.
func Filter(disputes []domain.Chargeback, statuses ...domain.ChargebackStatus) []domain.Chargeback {
	if len(statuses) == 0 {
		return append([]domain.Chargeback(nil), disputes...)
	}
	out := make([]domain.Chargeback, 0, len(disputes))
	for _, cb := range disputes {
		for _, s := range statuses {
			if cb.Status == s {
				out = append(out, cb)
				break
			}
		}
	}
	return out
}

// SummarizeFiltered aggregates only the disputes matching the given statuses.
// This is the explicit opt-in; callers wanting display filtering plus honest
// totals use Filter for the rows and Summarize for the numbers.
func SummarizeFiltered(disputes []domain.Chargeback, statuses ...domain.ChargebackStatus) Summary {
	return Summarize(Filter(disputes, statuses...))
}

// MergeSummaries combines partial summaries from partitioned runs.
func MergeSummaries(parts ...Summary) Summary {
	var out Summary
	for _, p := range parts {
		out.Total += p.Total
		out.TotalLostAmount += p.TotalLostAmount
		out.OpenDisputes += p.OpenDisputes
		out.WonDisputes += p.WonDisputes
		out.LostDisputes += p.LostDisputes
	}
	return out
}

// Transition returns a copy of cb moved to the target status. Only forward
// edges are legal: initiated -> under_review -> {won, lost}. Violations
// return a TransitionError and the record unchanged.
func Transition(cb domain.Chargeback, to domain.ChargebackStatus) (domain.Chargeback, error) {
	if !allowedTransition(cb.Status, to) {
		return cb, &domain.TransitionError{ChargebackID: cb.ID, From: cb.Status, To: to}
	}
	cb.Status = to
	return cb, nil
}

func allowedTransition(from, to domain.ChargebackStatus) bool {
	switch from {
	case domain.ChargebackInitiated:
		return to == domain.ChargebackUnderReview
	case domain.ChargebackUnderReview:
		return to == domain.ChargebackWon || to == domain.ChargebackLost
	default: // terminal
		return false
	}
}
