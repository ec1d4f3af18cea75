// Package service implements batch ingestion on top of gorm.
package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sellerdesk/recond/internal/clock"
	"github.com/sellerdesk/recond/internal/engine"
	"github.com/sellerdesk/recond/internal/engine/chargeback"
	enginedomain "github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/events"
	ingestdomain "github.com/sellerdesk/recond/internal/ingest/domain"
	"github.com/sellerdesk/recond/internal/normalize"
	"github.com/sellerdesk/recond/internal/observability/metrics"
)

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
	stats  *metrics.EngineMetrics
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
	Stats  *metrics.EngineMetrics `optional:"true"`
}

func NewService(p Params) ingestdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("ingest.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
		stats:  p.Stats,
	}
}

// IngestBatch normalizes raw records one by one so rejects keep their batch
// index and accepted rows retain their raw payload for review.
func (s *Service) IngestBatch(ctx context.Context, schema normalize.Schema, raw []map[string]any) (ingestdomain.BatchResult, error) {
	result := ingestdomain.BatchResult{Schema: schema}
	if !normalize.ValidSchema(schema) {
		return result, ingestdomain.ErrUnknownSchema
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, rec := range raw {
			batch, rejects := normalize.Normalize(schema, []map[string]any{rec})
			if len(rejects) > 0 {
				reject := rejects[0]
				reject.Index = i
				result.Rejects = append(result.Rejects, reject)
				result.Rejected++
				s.stats.IncRejected(string(schema), reject.Reason)
				continue
			}
			if err := s.storeOne(ctx, tx, batch, rec); err != nil {
				return err
			}
			result.Accepted++
		}
		return nil
	})
	if err != nil {
		return ingestdomain.BatchResult{Schema: schema}, err
	}

	s.stats.AddIngested(string(schema), result.Accepted)
	s.log.Info("batch ingested",
		zap.String("schema", string(schema)),
		zap.Int("accepted", result.Accepted),
		zap.Int("rejected", result.Rejected),
	)
	return result, nil
}

func (s *Service) storeOne(ctx context.Context, tx *gorm.DB, batch normalize.Batch, raw map[string]any) error {
	switch {
	case len(batch.LineItems) == 1:
		return s.storeLineItem(ctx, tx, batch.LineItems[0], raw)
	case len(batch.PriceAudits) == 1:
		return s.storePriceAudit(ctx, tx, batch.PriceAudits[0], raw)
	case len(batch.FeeRecords) == 1:
		return s.storeFeeRecord(ctx, tx, batch.FeeRecords[0], raw)
	case len(batch.Cycles) == 1:
		return s.storeCycle(ctx, tx, batch.Cycles[0], raw)
	case len(batch.Chargebacks) == 1:
		return s.storeChargeback(ctx, tx, batch.Chargebacks[0], raw)
	}
	return ingestdomain.ErrUnknownSchema
}

// storeLineItem supersedes any active record with the same external id; the
// stored row itself is never mutated.
func (s *Service) storeLineItem(ctx context.Context, tx *gorm.DB, item enginedomain.SettlementLineItem, raw map[string]any) error {
	if err := tx.WithContext(ctx).
		Model(&ingestdomain.SettlementRecord{}).
		Where("external_id = ? AND NOT superseded", item.ID).
		Update("superseded", true).Error; err != nil {
		return err
	}

	row := ingestdomain.SettlementRecord{
		ID:              s.genID.Generate(),
		ExternalID:      item.ID,
		SKUID:           item.SKUID,
		OrderItemID:     item.OrderItemID,
		OrderID:         item.OrderID,
		Portal:          item.Portal,
		BatchID:         item.BatchID,
		Timing:          string(item.Timing),
		Status:          string(item.Status),
		SaleAmount:      item.SaleAmount,
		RefundAmount:    item.RefundAmount,
		OfferAmount:     item.OfferAmount,
		SellerShare:     item.SellerShare,
		CustomerAddons:  item.CustomerAddons,
		MarketplaceFees: item.MarketplaceFees,
		Taxes:           item.Taxes,
		ReportedNet:     item.ReportedNet,
		Raw:             datatypes.JSONMap(raw),
		CreatedAt:       s.clock.Now(),
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// storePriceAudit appends the snapshot and writes audit-trail rows for any
// price field that moved since the previous snapshot of the same SKU and
// portal.
func (s *Service) storePriceAudit(ctx context.Context, tx *gorm.DB, rec enginedomain.PriceAuditRecord, raw map[string]any) error {
	var prev ingestdomain.PriceAuditRow
	err := tx.WithContext(ctx).
		Where("sku_id = ? AND portal = ?", rec.SKUID, rec.Portal).
		Order("created_at DESC").
		First(&prev).Error
	hasPrev := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := s.clock.Now()
	if hasPrev {
		changes := []struct {
			field    string
			old, new int64
		}{
			{"mrp", prev.MRP, rec.MRP},
			{"selling_price", prev.SellingPrice, rec.SellingPrice},
			{"portal_selling_price", prev.PortalSellingPrice, rec.PortalSellingPrice},
		}
		for _, ch := range changes {
			if ch.old == ch.new {
				continue
			}
			entry := ingestdomain.PriceChangeLog{
				ID:        s.genID.Generate(),
				SKUID:     rec.SKUID,
				Portal:    rec.Portal,
				Field:     ch.field,
				OldValue:  strconv.FormatInt(ch.old, 10),
				NewValue:  strconv.FormatInt(ch.new, 10),
				ChangedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
				return err
			}
		}
	}

	row := ingestdomain.PriceAuditRow{
		ID:                 s.genID.Generate(),
		SKUID:              rec.SKUID,
		ProductName:        rec.ProductName,
		Portal:             rec.Portal,
		MRP:                rec.MRP,
		SellingPrice:       rec.SellingPrice,
		PortalSellingPrice: rec.PortalSellingPrice,
		ExpectedMarginPct:  rec.ExpectedMarginPct,
		ActualMarginPct:    rec.ActualMarginPct,
		AuditDate:          rec.AuditDate,
		PreviousMarginPct:  rec.PreviousMarginPct,
		Raw:                datatypes.JSONMap(raw),
		CreatedAt:          now,
	}
	return tx.WithContext(ctx).Create(&row).Error
}

func (s *Service) storeFeeRecord(ctx context.Context, tx *gorm.DB, rec enginedomain.FeeVariationRecord, raw map[string]any) error {
	var prev ingestdomain.FeeScheduleRow
	err := tx.WithContext(ctx).
		Where("portal = ? AND category = ?", rec.Portal, rec.Category).
		Order("created_at DESC").
		First(&prev).Error
	hasPrev := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := s.clock.Now()
	if hasPrev && prev.CurrentPct != rec.CurrentPct {
		entry := ingestdomain.FeeChangeLog{
			ID:        s.genID.Generate(),
			Portal:    rec.Portal,
			Category:  rec.Category,
			OldPct:    prev.CurrentPct,
			NewPct:    rec.CurrentPct,
			ChangedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
			return err
		}
	}

	row := ingestdomain.FeeScheduleRow{
		ID:            s.genID.Generate(),
		Portal:        rec.Portal,
		Category:      rec.Category,
		HistoricalPct: rec.HistoricalPct,
		CurrentPct:    rec.CurrentPct,
		Raw:           datatypes.JSONMap(raw),
		CreatedAt:     now,
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// storeCycle upserts by batch id: the actual payout date lands on the same
// row once the portal pays out.
func (s *Service) storeCycle(ctx context.Context, tx *gorm.DB, c enginedomain.SettlementCycle, raw map[string]any) error {
	var existing ingestdomain.SettlementCycleRow
	err := tx.WithContext(ctx).Where("batch_id = ?", c.BatchID).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		updates := map[string]any{
			"amount": c.Amount,
			"raw":    datatypes.JSONMap(raw),
		}
		// the delay freezes with the first reported actual date
		if existing.ActualDate == nil && c.ActualDate != nil {
			updates["actual_date"] = *c.ActualDate
		}
		return tx.WithContext(ctx).
			Model(&ingestdomain.SettlementCycleRow{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error
	}

	row := ingestdomain.SettlementCycleRow{
		ID:           s.genID.Generate(),
		BatchID:      c.BatchID,
		Portal:       c.Portal,
		CycleType:    string(c.Type),
		ExpectedDate: c.ExpectedDate,
		ActualDate:   c.ActualDate,
		Amount:       c.Amount,
		Raw:          datatypes.JSONMap(raw),
		CreatedAt:    s.clock.Now(),
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// storeChargeback inserts new disputes; status changes for known disputes go
// through TransitionChargeback, never through re-ingestion.
func (s *Service) storeChargeback(ctx context.Context, tx *gorm.DB, cb enginedomain.Chargeback, raw map[string]any) error {
	var count int64
	if err := tx.WithContext(ctx).
		Model(&ingestdomain.ChargebackRow{}).
		Where("external_id = ?", cb.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := s.clock.Now()
	row := ingestdomain.ChargebackRow{
		ID:         s.genID.Generate(),
		ExternalID: cb.ID,
		OrderID:    cb.OrderID,
		Portal:     cb.Portal,
		Amount:     cb.Amount,
		Reason:     cb.Reason,
		Status:     string(cb.Status),
		FiledAt:    cb.FiledAt,
		AssignedTo: cb.AssignedTo,
		Raw:        datatypes.JSONMap(raw),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return tx.WithContext(ctx).Create(&row).Error
}

// LoadSnapshot builds the engine input: active line items, the newest price
// and fee snapshot per key, every cycle and dispute, plus per-portal refund
// rates derived from the settled line items.
func (s *Service) LoadSnapshot(ctx context.Context) (engine.Snapshot, error) {
	var snap engine.Snapshot

	var lineRows []ingestdomain.SettlementRecord
	if err := s.db.WithContext(ctx).
		Where("NOT superseded").
		Order("external_id").
		Find(&lineRows).Error; err != nil {
		return snap, err
	}

	saleByPortal := make(map[string]int64)
	refundByPortal := make(map[string]int64)
	for _, row := range lineRows {
		snap.LineItems = append(snap.LineItems, row.Entity())
		saleByPortal[row.Portal] += row.SaleAmount
		refundByPortal[row.Portal] += row.RefundAmount
	}
	snap.RefundRates = make(map[string]float64, len(saleByPortal))
	for portal, sale := range saleByPortal {
		if sale > 0 {
			snap.RefundRates[portal] = float64(refundByPortal[portal]) * 100 / float64(sale)
		}
	}

	var auditRows []ingestdomain.PriceAuditRow
	if err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&auditRows).Error; err != nil {
		return snap, err
	}
	latestAudit := make(map[[2]string]ingestdomain.PriceAuditRow)
	auditOrder := make([][2]string, 0)
	for _, row := range auditRows {
		key := [2]string{row.SKUID, row.Portal}
		if _, seen := latestAudit[key]; !seen {
			auditOrder = append(auditOrder, key)
		}
		latestAudit[key] = row
	}
	for _, key := range auditOrder {
		snap.PriceAudits = append(snap.PriceAudits, latestAudit[key].Entity())
	}

	var feeRows []ingestdomain.FeeScheduleRow
	if err := s.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&feeRows).Error; err != nil {
		return snap, err
	}
	latestFee := make(map[[2]string]ingestdomain.FeeScheduleRow)
	feeOrder := make([][2]string, 0)
	for _, row := range feeRows {
		key := [2]string{row.Portal, row.Category}
		if _, seen := latestFee[key]; !seen {
			feeOrder = append(feeOrder, key)
		}
		latestFee[key] = row
	}
	for _, key := range feeOrder {
		snap.FeeRecords = append(snap.FeeRecords, latestFee[key].Entity())
	}

	var cycleRows []ingestdomain.SettlementCycleRow
	if err := s.db.WithContext(ctx).Order("batch_id").Find(&cycleRows).Error; err != nil {
		return snap, err
	}
	for _, row := range cycleRows {
		snap.Cycles = append(snap.Cycles, row.Entity())
	}

	var cbRows []ingestdomain.ChargebackRow
	if err := s.db.WithContext(ctx).Order("external_id").Find(&cbRows).Error; err != nil {
		return snap, err
	}
	for _, row := range cbRows {
		snap.Chargebacks = append(snap.Chargebacks, row.Entity())
	}

	return snap, nil
}

// TransitionChargeback moves a dispute forward, rejecting illegal edges with
// the typed transition error and leaving the row untouched.
func (s *Service) TransitionChargeback(ctx context.Context, externalID string, to enginedomain.ChargebackStatus) (enginedomain.Chargeback, error) {
	var out enginedomain.Chargeback
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ingestdomain.ChargebackRow
		if err := tx.Where("external_id = ?", externalID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ingestdomain.ErrChargebackNotFound
			}
			return err
		}

		moved, err := chargeback.Transition(row.Entity(), to)
		if err != nil {
			return err
		}

		if err := tx.Model(&ingestdomain.ChargebackRow{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"status":     string(moved.Status),
				"updated_at": s.clock.Now(),
			}).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:   events.EventChargebackMoved,
			Portal: moved.Portal,
			Payload: map[string]any{
				"chargeback_id": moved.ID,
				"from":          string(row.Status),
				"to":            string(moved.Status),
				"amount":        moved.Amount,
			},
			DedupeKey: "chargeback:" + moved.ID + ":" + string(moved.Status),
		}); err != nil {
			return err
		}

		out = moved
		return nil
	})
	if err != nil {
		return enginedomain.Chargeback{}, err
	}
	return out, nil
}

// PriceChanges lists the audit trail for one SKU, newest first.
func (s *Service) PriceChanges(ctx context.Context, skuID string, limit int) ([]ingestdomain.PriceChangeLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []ingestdomain.PriceChangeLog
	err := s.db.WithContext(ctx).
		Where("sku_id = ?", skuID).
		Order("changed_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
