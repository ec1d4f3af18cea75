package chargeback

import (
	"errors"
	"testing"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

func dispute(id string, amount int64, status domain.ChargebackStatus) domain.Chargeback {
	return domain.Chargeback{
		ID:      id,
		OrderID: "ORD-" + id,
		Portal:  "amazon",
		Amount:  amount,
		Reason:  "item not received",
		Status:  status,
	}
}

func sample() []domain.Chargeback {
	return []domain.Chargeback{
		dispute("CB-1", 4197, domain.ChargebackLost),
		dispute("CB-2", 3450, domain.ChargebackLost),
		dispute("CB-3", 1299, domain.ChargebackWon),
		dispute("CB-4", 2100, domain.ChargebackInitiated),
		dispute("CB-5", 899, domain.ChargebackUnderReview),
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sample())
	if sum.Total != 5 {
		t.Errorf("total = %d, want 5", sum.Total)
	}
	if sum.TotalLostAmount != 7647 {
		t.Errorf("lost amount = %d, want 7647", sum.TotalLostAmount)
	}
	if sum.OpenDisputes != 2 {
		t.Errorf("open = %d, want 2", sum.OpenDisputes)
	}
	if sum.WonDisputes != 1 || sum.LostDisputes != 2 {
		t.Errorf("won/lost = %d/%d, want 1/2", sum.WonDisputes, sum.LostDisputes)
	}
}

func TestFilterDoesNotAffectTotals(t *testing.T) {
	all := sample()
	filtered := Filter(all, domain.ChargebackWon)
	if len(filtered) != 1 {
		t.Fatalf("filtered rows = %d, want 1", len(filtered))
	}
	// totals over the full set are unchanged by the display filter
	if sum := Summarize(all); sum.TotalLostAmount != 7647 {
		t.Fatalf("lost amount after filter = %d, want 7647", sum.TotalLostAmount)
	}
}

func TestSummarizeFilteredOptIn(t *testing.T) {
	sum := SummarizeFiltered(sample(), domain.ChargebackLost)
	if sum.Total != 2 || sum.TotalLostAmount != 7647 {
		t.Fatalf("filtered summary = %+v", sum)
	}
}

func TestMergeSummaries(t *testing.T) {
	all := sample()
	whole := Summarize(all)
	merged := MergeSummaries(Summarize(all[:2]), Summarize(all[2:]))
	if whole != merged {
		t.Fatalf("merged %+v != whole %+v", merged, whole)
	}
}

func TestTransitionForwardOnly(t *testing.T) {
	cb := dispute("CB-9", 500, domain.ChargebackInitiated)

	cb, err := Transition(cb, domain.ChargebackUnderReview)
	if err != nil {
		t.Fatalf("initiated -> under_review: %v", err)
	}
	cb, err = Transition(cb, domain.ChargebackLost)
	if err != nil {
		t.Fatalf("under_review -> lost: %v", err)
	}
	if !cb.Status.Terminal() {
		t.Fatalf("lost should be terminal")
	}
}

func TestTransitionRejectsIllegalEdges(t *testing.T) {
	cases := []struct {
		from, to domain.ChargebackStatus
	}{
		{domain.ChargebackInitiated, domain.ChargebackWon}, // skips review
		{domain.ChargebackWon, domain.ChargebackLost},      // terminal
		{domain.ChargebackLost, domain.ChargebackInitiated},
		{domain.ChargebackUnderReview, domain.ChargebackInitiated}, // backward
	}
	for _, tc := range cases {
		cb := dispute("CB-9", 500, tc.from)
		got, err := Transition(cb, tc.to)
		var terr *domain.TransitionError
		if !errors.As(err, &terr) {
			t.Errorf("%s -> %s: error = %v, want TransitionError", tc.from, tc.to, err)
			continue
		}
		if terr.From != tc.from || terr.To != tc.to {
			t.Errorf("error states = %s -> %s, want %s -> %s", terr.From, terr.To, tc.from, tc.to)
		}
		if got.Status != tc.from {
			t.Errorf("record mutated on rejected transition: %s", got.Status)
		}
	}
}
