// Package domain contains persistence models for raw record ingestion.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	enginedomain "github.com/sellerdesk/recond/internal/engine/domain"
)

// SettlementRecord stores one ingested settlement line item. Records are
// immutable; a correction inserts a new row and marks the old one
// superseded.
type SettlementRecord struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	ExternalID      string            `gorm:"column:external_id;type:text;not null" json:"external_id"`
	SKUID           string            `gorm:"column:sku_id;type:text;not null" json:"sku_id"`
	OrderItemID     string            `gorm:"type:text;not null;index" json:"order_item_id"`
	OrderID         string            `gorm:"type:text;not null" json:"order_id"`
	Portal          string            `gorm:"type:text;not null;index" json:"portal"`
	BatchID         string            `gorm:"type:text;not null" json:"batch_id"`
	Timing          string            `gorm:"type:text;not null" json:"timing"`
	Status          string            `gorm:"type:text;not null" json:"status"`
	SaleAmount      int64             `gorm:"not null" json:"sale_amount"`
	RefundAmount    int64             `gorm:"not null" json:"refund_amount"`
	OfferAmount     int64             `gorm:"not null" json:"offer_amount"`
	SellerShare     int64             `gorm:"not null" json:"seller_share"`
	CustomerAddons  int64             `gorm:"not null" json:"customer_addons"`
	MarketplaceFees int64             `gorm:"not null" json:"marketplace_fees"`
	Taxes           int64             `gorm:"not null" json:"taxes"`
	ReportedNet     int64             `gorm:"not null" json:"reported_net"`
	Raw             datatypes.JSONMap `gorm:"type:jsonb" json:"-"`
	Superseded      bool              `gorm:"not null;default:false" json:"-"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (SettlementRecord) TableName() string { return "settlement_line_items" }

// Entity converts the stored row back to the engine entity.
func (r SettlementRecord) Entity() enginedomain.SettlementLineItem {
	return enginedomain.SettlementLineItem{
		ID:              r.ExternalID,
		SKUID:           r.SKUID,
		OrderItemID:     r.OrderItemID,
		OrderID:         r.OrderID,
		Portal:          r.Portal,
		BatchID:         r.BatchID,
		Timing:          enginedomain.PaymentTiming(r.Timing),
		Status:          enginedomain.SettlementStatus(r.Status),
		SaleAmount:      r.SaleAmount,
		RefundAmount:    r.RefundAmount,
		OfferAmount:     r.OfferAmount,
		SellerShare:     r.SellerShare,
		CustomerAddons:  r.CustomerAddons,
		MarketplaceFees: r.MarketplaceFees,
		Taxes:           r.Taxes,
		ReportedNet:     r.ReportedNet,
	}
}

// PriceAuditRow stores one SKU x portal pricing snapshot. The log is
// append-only; the newest row per SKU x portal is the current snapshot.
type PriceAuditRow struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	SKUID              string            `gorm:"column:sku_id;type:text;not null;index:ix_price_audit_sku_portal" json:"sku_id"`
	ProductName        string            `gorm:"type:text;not null" json:"product_name"`
	Portal             string            `gorm:"type:text;not null;index:ix_price_audit_sku_portal" json:"portal"`
	MRP                int64             `gorm:"column:mrp;not null" json:"mrp"`
	SellingPrice       int64             `gorm:"not null" json:"selling_price"`
	PortalSellingPrice int64             `gorm:"not null" json:"portal_selling_price"`
	ExpectedMarginPct  float64           `gorm:"not null" json:"expected_margin_pct"`
	ActualMarginPct    float64           `gorm:"not null" json:"actual_margin_pct"`
	AuditDate          time.Time         `gorm:"not null" json:"audit_date"`
	PreviousMarginPct  float64           `gorm:"not null" json:"previous_margin_pct"`
	Raw                datatypes.JSONMap `gorm:"type:jsonb" json:"-"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (PriceAuditRow) TableName() string { return "price_audit_records" }

// Entity converts the stored row back to the engine entity.
func (r PriceAuditRow) Entity() enginedomain.PriceAuditRecord {
	return enginedomain.PriceAuditRecord{
		SKUID:              r.SKUID,
		ProductName:        r.ProductName,
		Portal:             r.Portal,
		MRP:                r.MRP,
		SellingPrice:       r.SellingPrice,
		PortalSellingPrice: r.PortalSellingPrice,
		ExpectedMarginPct:  r.ExpectedMarginPct,
		ActualMarginPct:    r.ActualMarginPct,
		AuditDate:          r.AuditDate,
		PreviousMarginPct:  r.PreviousMarginPct,
	}
}

// FeeScheduleRow stores one portal x category commission comparison.
type FeeScheduleRow struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	Portal        string            `gorm:"type:text;not null;index:ix_fee_schedule_portal_category" json:"portal"`
	Category      string            `gorm:"type:text;not null;index:ix_fee_schedule_portal_category" json:"category"`
	HistoricalPct float64           `gorm:"not null" json:"historical_pct"`
	CurrentPct    float64           `gorm:"not null" json:"current_pct"`
	Raw           datatypes.JSONMap `gorm:"type:jsonb" json:"-"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (FeeScheduleRow) TableName() string { return "fee_schedule_rows" }

// Entity converts the stored row back to the engine entity.
func (r FeeScheduleRow) Entity() enginedomain.FeeVariationRecord {
	return enginedomain.FeeVariationRecord{
		Portal:        r.Portal,
		Category:      r.Category,
		HistoricalPct: r.HistoricalPct,
		CurrentPct:    r.CurrentPct,
	}
}

// SettlementCycleRow stores one expected payout event.
type SettlementCycleRow struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	BatchID      string            `gorm:"type:text;not null;uniqueIndex" json:"batch_id"`
	Portal       string            `gorm:"type:text;not null" json:"portal"`
	CycleType    string            `gorm:"type:text;not null" json:"cycle_type"`
	ExpectedDate time.Time         `gorm:"not null" json:"expected_date"`
	ActualDate   *time.Time        `gorm:"" json:"actual_date,omitempty"`
	Amount       int64             `gorm:"not null" json:"amount"`
	Raw          datatypes.JSONMap `gorm:"type:jsonb" json:"-"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (SettlementCycleRow) TableName() string { return "settlement_cycles" }

// Entity converts the stored row back to the engine entity.
func (r SettlementCycleRow) Entity() enginedomain.SettlementCycle {
	return enginedomain.SettlementCycle{
		BatchID:      r.BatchID,
		Portal:       r.Portal,
		Type:         enginedomain.CycleType(r.CycleType),
		ExpectedDate: r.ExpectedDate,
		ActualDate:   r.ActualDate,
		Amount:       r.Amount,
	}
}

// ChargebackRow stores one dispute and its lifecycle state.
type ChargebackRow struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ExternalID string            `gorm:"column:external_id;type:text;not null;uniqueIndex" json:"external_id"`
	OrderID    string            `gorm:"type:text;not null" json:"order_id"`
	Portal     string            `gorm:"type:text;not null" json:"portal"`
	Amount     int64             `gorm:"not null" json:"amount"`
	Reason     string            `gorm:"type:text;not null" json:"reason"`
	Status     string            `gorm:"type:text;not null" json:"status"`
	FiledAt    time.Time         `gorm:"not null" json:"filed_at"`
	AssignedTo string            `gorm:"type:text;not null" json:"assigned_to"`
	Raw        datatypes.JSONMap `gorm:"type:jsonb" json:"-"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

func (ChargebackRow) TableName() string { return "chargebacks" }

// Entity converts the stored row back to the engine entity.
func (r ChargebackRow) Entity() enginedomain.Chargeback {
	return enginedomain.Chargeback{
		ID:         r.ExternalID,
		OrderID:    r.OrderID,
		Portal:     r.Portal,
		Amount:     r.Amount,
		Reason:     r.Reason,
		Status:     enginedomain.ChargebackStatus(r.Status),
		FiledAt:    r.FiledAt,
		AssignedTo: r.AssignedTo,
	}
}

// PriceChangeLog is the append-only audit trail of detected price changes.
type PriceChangeLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SKUID     string       `gorm:"column:sku_id;type:text;not null;index" json:"sku_id"`
	Portal    string       `gorm:"type:text;not null" json:"portal"`
	Field     string       `gorm:"type:text;not null" json:"field"`
	OldValue  string       `gorm:"type:text;not null" json:"old_value"`
	NewValue  string       `gorm:"type:text;not null" json:"new_value"`
	ChangedAt time.Time    `gorm:"not null" json:"changed_at"`
}

func (PriceChangeLog) TableName() string { return "price_change_log" }

// FeeChangeLog is the append-only audit trail of detected commission changes.
type FeeChangeLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Portal    string       `gorm:"type:text;not null" json:"portal"`
	Category  string       `gorm:"type:text;not null" json:"category"`
	OldPct    float64      `gorm:"not null" json:"old_pct"`
	NewPct    float64      `gorm:"not null" json:"new_pct"`
	ChangedAt time.Time    `gorm:"not null" json:"changed_at"`
}

func (FeeChangeLog) TableName() string { return "fee_change_log" }
