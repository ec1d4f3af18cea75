package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidThreshold = errors.New("invalid_threshold")
	ErrInvalidDelayBand = errors.New("invalid_delay_band")
	ErrInvalidWeights   = errors.New("invalid_weights")
	ErrInvalidSeverity  = errors.New("invalid_severity")
	ErrInvalidBands     = errors.New("invalid_bands")
)

// TransitionError reports an attempt to move a chargeback along a disallowed
// edge. The offending record is left unchanged.
type TransitionError struct {
	ChargebackID string
	From         ChargebackStatus
	To           ChargebackStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("chargeback %s: illegal transition %s -> %s", e.ChargebackID, e.From, e.To)
}

// ValidSeverity reports whether s is one of the known severity grades.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
