// Package domain contains the normalized entities consumed and produced by
// the reconciliation engine. All monetary amounts are int64 minor units.
package domain

import "time"

// PaymentTiming tells whether a line item belongs to the previous or the
// upcoming payout window.
type PaymentTiming string

const (
	TimingPrevious PaymentTiming = "previous"
	TimingUpcoming PaymentTiming = "upcoming"
)

// SettlementStatus is the portal-reported state of a line item.
type SettlementStatus string

const (
	SettlementStatusSettled SettlementStatus = "settled"
	SettlementStatusPending SettlementStatus = "pending"
)

// SettlementLineItem is one accounting entry tied to one order item on one
// portal. Records are immutable once ingested; corrections arrive as new
// records that supersede the old ones.
type SettlementLineItem struct {
	ID              string
	SKUID           string
	OrderItemID     string
	OrderID         string
	Portal          string
	BatchID         string
	Timing          PaymentTiming
	Status          SettlementStatus
	SaleAmount      int64
	RefundAmount    int64
	OfferAmount     int64
	SellerShare     int64
	CustomerAddons  int64
	MarketplaceFees int64
	Taxes           int64
	ReportedNet     int64
}

// PriceAuditRecord is one SKU x portal pricing snapshot. One record per audit
// run; prior snapshots are retained by the ingestion layer for trend
// comparison.
type PriceAuditRecord struct {
	SKUID              string
	ProductName        string
	Portal             string
	MRP                int64
	SellingPrice       int64
	PortalSellingPrice int64
	ExpectedMarginPct  float64
	ActualMarginPct    float64
	AuditDate          time.Time
	PreviousMarginPct  float64
}

// FeeVariationRecord is one portal x category commission comparison.
type FeeVariationRecord struct {
	Portal        string
	Category      string
	HistoricalPct float64
	CurrentPct    float64
}

// CycleType is the portal's payment term for a settlement batch.
type CycleType string

const (
	CycleT7  CycleType = "T+7"
	CycleT15 CycleType = "T+15"
	CycleT30 CycleType = "T+30"
)

// CycleStatus classifies payout delay severity. Derived from delay days,
// never stored independently.
type CycleStatus string

const (
	CycleOnTime        CycleStatus = "on_time"
	CycleDelayed       CycleStatus = "delayed"
	CycleCriticalDelay CycleStatus = "critical_delay"
)

// SettlementCycle is one expected payout event for a settlement batch.
// ActualDate is nil while the payout is outstanding.
type SettlementCycle struct {
	BatchID      string
	Portal       string
	Type         CycleType
	ExpectedDate time.Time
	ActualDate   *time.Time
	Amount       int64
}

// ChargebackStatus is the dispute lifecycle state. Transitions only move
// forward: initiated -> under_review -> {won, lost}.
type ChargebackStatus string

const (
	ChargebackInitiated   ChargebackStatus = "initiated"
	ChargebackUnderReview ChargebackStatus = "under_review"
	ChargebackWon         ChargebackStatus = "won"
	ChargebackLost        ChargebackStatus = "lost"
)

// Terminal reports whether the status admits no further transitions.
func (s ChargebackStatus) Terminal() bool {
	return s == ChargebackWon || s == ChargebackLost
}

// Open reports whether the dispute is still undecided.
func (s ChargebackStatus) Open() bool {
	return s == ChargebackInitiated || s == ChargebackUnderReview
}

// Chargeback is one disputed transaction.
type Chargeback struct {
	ID         string
	OrderID    string
	Portal     string
	Amount     int64
	Reason     string
	Status     ChargebackStatus
	FiledAt    time.Time
	AssignedTo string
}

// AlertType identifies the finding category of a RiskAlert.
type AlertType string

const (
	AlertSettlementDelay AlertType = "settlement_delay"
	AlertCommissionSpike AlertType = "commission_spike"
	AlertMarginLeakage   AlertType = "margin_leakage"
	AlertHighRefundRate  AlertType = "high_refund_rate"
	AlertChargebackLoss  AlertType = "chargeback_loss"
)

// Severity grades a RiskAlert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskAlert is a synthesized finding. Produced once, never mutated.
type RiskAlert struct {
	Type        AlertType
	Severity    Severity
	Portal      string
	Title       string
	Description string
	Impact      int64
	OccurredAt  time.Time
}

// HealthScoreInputs are the summary ratios feeding the composite score.
// Each value is a percentage in [0,100].
type HealthScoreInputs struct {
	MatchedPct        float64
	MismatchPct       float64
	DelayedPct        float64
	ChargebackLossPct float64
}

// HealthStatus buckets the composite score.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusMonitor  HealthStatus = "monitor"
	HealthStatusHighRisk HealthStatus = "high_risk"
)

// HealthScoreResult is the composite reconciliation quality indicator.
type HealthScoreResult struct {
	Score  int
	Status HealthStatus
}
