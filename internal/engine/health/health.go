// Package health folds summary ratios into one composite reconciliation
// quality score.
package health

import (
	"math"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

// Weights are the contribution of each ratio to the composite score. They
// must sum to 1.
type Weights struct {
	Matched        float64
	Mismatch       float64
	Delayed        float64
	ChargebackLoss float64
}

// DefaultWeights are the shipped score weights.
func DefaultWeights() Weights {
	return Weights{
		Matched:        0.40,
		Mismatch:       0.25,
		Delayed:        0.20,
		ChargebackLoss: 0.15,
	}
}

const weightSumTolerance = 1e-9

// Validate rejects weight sets that don't sum to 1 or carry negative parts.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Matched, w.Mismatch, w.Delayed, w.ChargebackLoss} {
		if v < 0 {
			return domain.ErrInvalidWeights
		}
	}
	sum := w.Matched + w.Mismatch + w.Delayed + w.ChargebackLoss
	if math.Abs(sum-1.0) > weightSumTolerance {
		return domain.ErrInvalidWeights
	}
	return nil
}

// Score status boundaries.
const (
	healthyFloor = 80
	monitorFloor = 50
)

// Score computes the composite result. Inputs are clamped to [0,100] before
// use; the matched ratio counts positively, the failure ratios count by their
// complement.
func Score(in domain.HealthScoreInputs, w Weights) domain.HealthScoreResult {
	matched := clampPct(in.MatchedPct)
	mismatch := clampPct(in.MismatchPct)
	delayed := clampPct(in.DelayedPct)
	loss := clampPct(in.ChargebackLossPct)

	raw := matched*w.Matched +
		(100-mismatch)*w.Mismatch +
		(100-delayed)*w.Delayed +
		(100-loss)*w.ChargebackLoss

	score := int(math.Round(clamp(raw, 0, 100)))

	status := domain.HealthStatusHighRisk
	switch {
	case score >= healthyFloor:
		status = domain.HealthStatusHealthy
	case score >= monitorFloor:
		status = domain.HealthStatusMonitor
	}

	return domain.HealthScoreResult{Score: score, Status: status}
}

func clampPct(v float64) float64 { return clamp(v, 0, 100) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
