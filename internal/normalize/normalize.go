// Package normalize validates and coerces raw batches into the engine's
// typed entities. A malformed record is rejected with a reason code and the
// batch continues; normalization never aborts.
//
// Monetary fields are accepted as decimal major units (number or numeric
// string) and converted to int64 minor units exactly; values with sub-minor
// precision are rejected rather than rounded.
package normalize

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

// Schema tags the record kind of a raw batch.
type Schema string

const (
	SchemaSettlement   Schema = "settlement_line_item"
	SchemaPriceAudit   Schema = "price_audit"
	SchemaFeeVariation Schema = "fee_variation"
	SchemaCycle        Schema = "settlement_cycle"
	SchemaChargeback   Schema = "chargeback"
)

// ValidSchema reports whether tag names a known record kind.
func ValidSchema(tag Schema) bool {
	switch tag {
	case SchemaSettlement, SchemaPriceAudit, SchemaFeeVariation, SchemaCycle, SchemaChargeback:
		return true
	}
	return false
}

// Reject reason codes.
const (
	ReasonMissingField  = "missing_field"
	ReasonInvalidAmount = "invalid_amount"
	ReasonInvalidEnum   = "invalid_enum"
	ReasonInvalidDate   = "invalid_date"
	ReasonUnknownSchema = "unknown_schema"
)

// Reject describes one excluded record.
type Reject struct {
	Index  int            `json:"index"`
	Field  string         `json:"field,omitempty"`
	Reason string         `json:"reason"`
	Raw    map[string]any `json:"raw,omitempty"`
}

// Batch holds the typed records of one normalized batch; only the slice
// matching the schema tag is populated.
type Batch struct {
	LineItems   []domain.SettlementLineItem
	PriceAudits []domain.PriceAuditRecord
	FeeRecords  []domain.FeeVariationRecord
	Cycles      []domain.SettlementCycle
	Chargebacks []domain.Chargeback
}

// Accepted returns the number of records kept.
func (b Batch) Accepted() int {
	return len(b.LineItems) + len(b.PriceAudits) + len(b.FeeRecords) + len(b.Cycles) + len(b.Chargebacks)
}

// Normalize coerces raw into typed records per the schema tag. It returns
// every valid record plus a reject entry per excluded one.
func Normalize(tag Schema, raw []map[string]any) (Batch, []Reject) {
	var batch Batch
	var rejects []Reject

	if !ValidSchema(tag) {
		for i, rec := range raw {
			rejects = append(rejects, Reject{Index: i, Reason: ReasonUnknownSchema, Raw: rec})
		}
		return batch, rejects
	}

	for i, rec := range raw {
		p := parser{raw: rec}
		switch tag {
		case SchemaSettlement:
			item := p.lineItem()
			if p.ok() {
				batch.LineItems = append(batch.LineItems, item)
			}
		case SchemaPriceAudit:
			audit := p.priceAudit()
			if p.ok() {
				batch.PriceAudits = append(batch.PriceAudits, audit)
			}
		case SchemaFeeVariation:
			fee := p.feeVariation()
			if p.ok() {
				batch.FeeRecords = append(batch.FeeRecords, fee)
			}
		case SchemaCycle:
			c := p.cycle()
			if p.ok() {
				batch.Cycles = append(batch.Cycles, c)
			}
		case SchemaChargeback:
			cb := p.chargeback()
			if p.ok() {
				batch.Chargebacks = append(batch.Chargebacks, cb)
			}
		}
		if !p.ok() {
			rejects = append(rejects, Reject{Index: i, Field: p.field, Reason: p.reason, Raw: rec})
		}
	}

	return batch, rejects
}

// parser records the first failure and no-ops afterwards, so each reject
// carries the first offending field.
type parser struct {
	raw    map[string]any
	field  string
	reason string
}

func (p *parser) ok() bool { return p.reason == "" }

func (p *parser) fail(field, reason string) {
	if p.reason == "" {
		p.field = field
		p.reason = reason
	}
}

func (p *parser) str(field string) string {
	if !p.ok() {
		return ""
	}
	v, present := p.raw[field]
	if !present || v == nil {
		p.fail(field, ReasonMissingField)
		return ""
	}
	s, isStr := v.(string)
	if !isStr || s == "" {
		p.fail(field, ReasonMissingField)
		return ""
	}
	return s
}

// amount converts a major-unit decimal value to minor units.
func (p *parser) amount(field string) int64 {
	if !p.ok() {
		return 0
	}
	v, present := p.raw[field]
	if !present || v == nil {
		p.fail(field, ReasonMissingField)
		return 0
	}
	d, err := toDecimal(v)
	if err != nil {
		p.fail(field, ReasonInvalidAmount)
		return 0
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		p.fail(field, ReasonInvalidAmount)
		return 0
	}
	return minor.IntPart()
}

func (p *parser) percent(field string) float64 {
	if !p.ok() {
		return 0
	}
	v, present := p.raw[field]
	if !present || v == nil {
		p.fail(field, ReasonMissingField)
		return 0
	}
	d, err := toDecimal(v)
	if err != nil {
		p.fail(field, ReasonInvalidAmount)
		return 0
	}
	f, _ := d.Float64()
	return f
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch typed := v.(type) {
	case string:
		return decimal.NewFromString(typed)
	case float64:
		return decimal.NewFromFloat(typed), nil
	case float32:
		return decimal.NewFromFloat32(typed), nil
	case int:
		return decimal.NewFromInt(int64(typed)), nil
	case int64:
		return decimal.NewFromInt(typed), nil
	default:
		return decimal.Decimal{}, errNotNumeric
	}
}

var errNotNumeric = errors.New("not_numeric")

func (p *parser) date(field string) time.Time {
	if !p.ok() {
		return time.Time{}
	}
	v, present := p.raw[field]
	if !present || v == nil {
		p.fail(field, ReasonMissingField)
		return time.Time{}
	}
	s, isStr := v.(string)
	if !isStr {
		p.fail(field, ReasonInvalidDate)
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	p.fail(field, ReasonInvalidDate)
	return time.Time{}
}

// optionalDate returns nil when the field is absent or null.
func (p *parser) optionalDate(field string) *time.Time {
	if !p.ok() {
		return nil
	}
	v, present := p.raw[field]
	if !present || v == nil {
		return nil
	}
	t := p.date(field)
	if !p.ok() {
		return nil
	}
	return &t
}

func (p *parser) lineItem() domain.SettlementLineItem {
	item := domain.SettlementLineItem{
		ID:              p.str("id"),
		SKUID:           p.str("sku_id"),
		OrderItemID:     p.str("order_item_id"),
		OrderID:         p.str("order_id"),
		Portal:          p.str("portal"),
		BatchID:         p.str("batch_id"),
		SaleAmount:      p.amount("sale_amount"),
		RefundAmount:    p.amount("refund_amount"),
		OfferAmount:     p.amount("offer_amount"),
		SellerShare:     p.amount("seller_share"),
		CustomerAddons:  p.amount("customer_addons"),
		MarketplaceFees: p.amount("marketplace_fees"),
		Taxes:           p.amount("taxes"),
		ReportedNet:     p.amount("reported_net"),
	}
	switch domain.PaymentTiming(p.str("timing")) {
	case domain.TimingPrevious:
		item.Timing = domain.TimingPrevious
	case domain.TimingUpcoming:
		item.Timing = domain.TimingUpcoming
	default:
		p.fail("timing", ReasonInvalidEnum)
	}
	switch domain.SettlementStatus(p.str("status")) {
	case domain.SettlementStatusSettled:
		item.Status = domain.SettlementStatusSettled
	case domain.SettlementStatusPending:
		item.Status = domain.SettlementStatusPending
	default:
		p.fail("status", ReasonInvalidEnum)
	}
	return item
}

func (p *parser) priceAudit() domain.PriceAuditRecord {
	return domain.PriceAuditRecord{
		SKUID:              p.str("sku_id"),
		ProductName:        p.str("product_name"),
		Portal:             p.str("portal"),
		MRP:                p.amount("mrp"),
		SellingPrice:       p.amount("selling_price"),
		PortalSellingPrice: p.amount("portal_selling_price"),
		ExpectedMarginPct:  p.percent("expected_margin_pct"),
		ActualMarginPct:    p.percent("actual_margin_pct"),
		AuditDate:          p.date("audit_date"),
		PreviousMarginPct:  p.percent("previous_margin_pct"),
	}
}

func (p *parser) feeVariation() domain.FeeVariationRecord {
	return domain.FeeVariationRecord{
		Portal:        p.str("portal"),
		Category:      p.str("category"),
		HistoricalPct: p.percent("historical_pct"),
		CurrentPct:    p.percent("current_pct"),
	}
}

func (p *parser) cycle() domain.SettlementCycle {
	c := domain.SettlementCycle{
		BatchID:      p.str("batch_id"),
		Portal:       p.str("portal"),
		ExpectedDate: p.date("expected_date"),
		ActualDate:   p.optionalDate("actual_date"),
		Amount:       p.amount("amount"),
	}
	switch domain.CycleType(p.str("cycle_type")) {
	case domain.CycleT7:
		c.Type = domain.CycleT7
	case domain.CycleT15:
		c.Type = domain.CycleT15
	case domain.CycleT30:
		c.Type = domain.CycleT30
	default:
		p.fail("cycle_type", ReasonInvalidEnum)
	}
	return c
}

func (p *parser) chargeback() domain.Chargeback {
	cb := domain.Chargeback{
		ID:         p.str("id"),
		OrderID:    p.str("order_id"),
		Portal:     p.str("portal"),
		Amount:     p.amount("amount"),
		Reason:     p.str("reason"),
		FiledAt:    p.date("filed_at"),
		AssignedTo: p.str("assigned_to"),
	}
	switch domain.ChargebackStatus(p.str("status")) {
	case domain.ChargebackInitiated:
		cb.Status = domain.ChargebackInitiated
	case domain.ChargebackUnderReview:
		cb.Status = domain.ChargebackUnderReview
	case domain.ChargebackWon:
		cb.Status = domain.ChargebackWon
	case domain.ChargebackLost:
		cb.Status = domain.ChargebackLost
	default:
		p.fail("status", ReasonInvalidEnum)
	}
	return cb
}
