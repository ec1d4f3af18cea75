package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sellerdesk/recond/internal/cache"
	"github.com/sellerdesk/recond/internal/clock"
	"github.com/sellerdesk/recond/internal/engine"
	"github.com/sellerdesk/recond/internal/engine/domain"
	"github.com/sellerdesk/recond/internal/events"
	ingestdomain "github.com/sellerdesk/recond/internal/ingest/domain"
	"github.com/sellerdesk/recond/internal/normalize"
)

type fakeIngest struct {
	snap engine.Snapshot
}

func (f *fakeIngest) IngestBatch(context.Context, normalize.Schema, []map[string]any) (ingestdomain.BatchResult, error) {
	return ingestdomain.BatchResult{}, nil
}

func (f *fakeIngest) LoadSnapshot(context.Context) (engine.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeIngest) TransitionChargeback(context.Context, string, domain.ChargebackStatus) (domain.Chargeback, error) {
	return domain.Chargeback{}, nil
}

func (f *fakeIngest) PriceChanges(context.Context, string, int) ([]ingestdomain.PriceChangeLog, error) {
	return nil, nil
}

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE reconciliation_events (
			id BIGINT PRIMARY KEY,
			event_type TEXT NOT NULL,
			portal TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT UNIQUE,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	).Error; err != nil {
		t.Fatalf("create reconciliation_events: %v", err)
	}
	return db
}

// testSnapshot carries one net-amount mismatch and one overdue settlement
// cycle so a run always produces findings.
func testSnapshot() engine.Snapshot {
	return engine.Snapshot{
		LineItems: []domain.SettlementLineItem{
			{
				ID:              "SR-1",
				SKUID:           "SKU-1",
				OrderItemID:     "OI-1",
				OrderID:         "ORD-1",
				Portal:          "flipmart",
				BatchID:         "B-1",
				Timing:          domain.TimingPrevious,
				Status:          domain.SettlementStatusSettled,
				SaleAmount:      119900,
				OfferAmount:     -5000,
				SellerShare:     100000,
				CustomerAddons:  3000,
				MarketplaceFees: -12000,
				Taxes:           -6000,
				ReportedNet:     70000,
			},
		},
		Cycles: []domain.SettlementCycle{
			{
				BatchID:      "B-1",
				Portal:       "flipmart",
				Type:         domain.CycleT7,
				ExpectedDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
				Amount:       70000,
			},
		},
	}
}

func newTestWorker(t *testing.T, db *gorm.DB) *Worker {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	eng, err := engine.New(engine.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &Worker{
		ingest:    &fakeIngest{snap: testSnapshot()},
		engine:    eng,
		clock:     clock.Fixed{At: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		outbox:    events.NewOutbox(db, node),
		reports:   cache.NewTTLCache[string, engine.Report](),
		log:       zap.NewNop(),
		enabled:   true,
		interval:  time.Minute,
		reportTTL: time.Minute,
	}
}

func TestRunOncePublishesFindingsAndCachesReport(t *testing.T) {
	db := setupOutboxDB(t)
	w := newTestWorker(t, db)

	report, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if report.Netting.Summary.ExceptionCount != 1 {
		t.Fatalf("got %d exceptions, want 1", report.Netting.Summary.ExceptionCount)
	}
	if len(report.Alerts) == 0 {
		t.Fatal("expected at least one alert")
	}

	cached, ok := w.reports.Get(ReportCacheKey)
	if !ok {
		t.Fatal("report not cached")
	}
	if cached.Health.Score != report.Health.Score {
		t.Fatalf("cached score = %d, want %d", cached.Health.Score, report.Health.Score)
	}

	var exceptions int64
	if err := db.Table("reconciliation_events").
		Where("event_type = ?", events.EventExceptionDetected).
		Count(&exceptions).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if exceptions != 1 {
		t.Fatalf("got %d exception events, want 1", exceptions)
	}
}

func TestRunOnceDeduplicatesRepeatedFindings(t *testing.T) {
	db := setupOutboxDB(t)
	w := newTestWorker(t, db)
	ctx := context.Background()

	if _, err := w.RunOnce(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	var after1 int64
	if err := db.Table("reconciliation_events").Count(&after1).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if _, err := w.RunOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var after2 int64
	if err := db.Table("reconciliation_events").Count(&after2).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	if after1 != after2 {
		t.Fatalf("outbox grew from %d to %d on identical data", after1, after2)
	}
}
