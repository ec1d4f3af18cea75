package domain

import (
	"context"
	"errors"

	"github.com/sellerdesk/recond/internal/engine"
	enginedomain "github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/normalize"
)

// BatchResult summarizes one ingested batch.
type BatchResult struct {
	Schema   normalize.Schema   `json:"schema"`
	Accepted int                `json:"accepted"`
	Rejected int                `json:"rejected"`
	Rejects  []normalize.Reject `json:"rejects,omitempty"`
}

// Service stores raw record batches and serves read-only snapshots to the
// engine.
type Service interface {
	// IngestBatch normalizes and stores one raw batch. Rejected records are
	// returned, never silently dropped.
	IngestBatch(ctx context.Context, schema normalize.Schema, raw []map[string]any) (BatchResult, error)
	// LoadSnapshot returns the current records as one immutable engine input.
	LoadSnapshot(ctx context.Context) (engine.Snapshot, error)
	// TransitionChargeback advances a dispute along the forward-only
	// lifecycle.
	TransitionChargeback(ctx context.Context, externalID string, to enginedomain.ChargebackStatus) (enginedomain.Chargeback, error)
	// PriceChanges lists the audit trail for one SKU, newest first.
	PriceChanges(ctx context.Context, skuID string, limit int) ([]PriceChangeLog, error)
}

var (
	ErrUnknownSchema      = errors.New("unknown_schema")
	ErrChargebackNotFound = errors.New("chargeback_not_found")
)
