// Package events appends reconciliation events to a transactional outbox so
// downstream consumers can react to findings without coupling to engine runs.
package events

// Reconciliation event types.
const (
	EventExceptionDetected = "reconciliation.exception_detected"
	EventAlertRaised       = "reconciliation.alert_raised"
	EventReportBuilt       = "reconciliation.report_built"
	EventChargebackMoved   = "chargeback.status_changed"
)

// ExceptionPayload identifies one net-amount mismatch.
type ExceptionPayload struct {
	LineItemID    string `json:"line_item_id"`
	OrderItemID   string `json:"order_item_id"`
	Portal        string `json:"portal"`
	ReportedNet   int64  `json:"reported_net"`
	RecomputedNet int64  `json:"recomputed_net"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p ExceptionPayload) ToMap() map[string]any {
	return map[string]any{
		"line_item_id":   p.LineItemID,
		"order_item_id":  p.OrderItemID,
		"portal":         p.Portal,
		"reported_net":   p.ReportedNet,
		"recomputed_net": p.RecomputedNet,
	}
}

// AlertPayload captures the minimal data needed to fan out a risk alert.
type AlertPayload struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Portal   string `json:"portal"`
	Title    string `json:"title"`
	Impact   int64  `json:"impact"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p AlertPayload) ToMap() map[string]any {
	return map[string]any{
		"type":     p.Type,
		"severity": p.Severity,
		"portal":   p.Portal,
		"title":    p.Title,
		"impact":   p.Impact,
	}
}
