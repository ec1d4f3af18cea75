// Package engine runs the reconciliation modules over an input snapshot and
// assembles the combined report. Every module is a pure function; the only
// clock input is the explicit now passed to Run.
package engine

import (
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/engine/health"
	"github.com/sellerdesk/recond/internal/engine/riskalert"
)

// Config consolidates every threshold, band and weight the modules use, so
// the rules stay consistent across the engine instead of being re-declared
// per component.
type Config struct {
	// MarginDropThresholdPct flags a price audit row as Warning at or above
	// this drop.
	MarginDropThresholdPct float64
	// CommissionSpikeThresholdPct alerts fee rows strictly above this change.
	CommissionSpikeThresholdPct float64
	// DelayedAfterDays and CriticalAfterDays are the settlement cycle band
	// edges.
	DelayedAfterDays  int
	CriticalAfterDays int

	Severity riskalert.Config
	Weights  health.Weights
}

// DefaultConfig returns the shipped rule set.
func DefaultConfig() Config {
	return Config{
		MarginDropThresholdPct:      3.0,
		CommissionSpikeThresholdPct: 1.0,
		DelayedAfterDays:            1,
		CriticalAfterDays:           5,
		Severity:                    riskalert.DefaultConfig(),
		Weights:                     health.DefaultWeights(),
	}
}

// Validate fails fast on configuration that would grade inconsistently.
// A rejected config never processes a batch and never silently defaults.
func (c Config) Validate() error {
	if c.MarginDropThresholdPct < 0 || c.CommissionSpikeThresholdPct < 0 {
		return domain.ErrInvalidThreshold
	}
	if c.DelayedAfterDays < 1 || c.CriticalAfterDays <= c.DelayedAfterDays {
		return domain.ErrInvalidDelayBand
	}
	if err := c.Severity.Validate(); err != nil {
		return err
	}
	return c.Weights.Validate()
}
