package marginaudit

import (
	"testing"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

func record(sku string, expected, actual float64, selling, portal int64) domain.PriceAuditRecord {
	return domain.PriceAuditRecord{
		SKUID:              sku,
		ProductName:        "Product " + sku,
		Portal:             "flipkart",
		MRP:                99900,
		SellingPrice:       selling,
		PortalSellingPrice: portal,
		ExpectedMarginPct:  expected,
		ActualMarginPct:    actual,
	}
}

func TestRunClassifiesAtThreshold(t *testing.T) {
	rows, sum := Run([]domain.PriceAuditRecord{
		record("A", 28.0, 22.1, 54900, 54900), // drop 5.9 -> warning
		record("B", 20.0, 17.0, 44900, 44900), // drop 3.0 exactly -> warning
		record("C", 20.0, 18.0, 34900, 34900), // drop 2.0 -> healthy
	}, 3.0)

	if sum.Audited != 3 || sum.MarginDrops != 2 || sum.Healthy != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	// default order: descending drop
	if rows[0].Record.SKUID != "A" || rows[1].Record.SKUID != "B" {
		t.Fatalf("default order wrong: %s, %s", rows[0].Record.SKUID, rows[1].Record.SKUID)
	}
	if got := rows[0].MarginDrop; got != 5.9 {
		t.Errorf("drop = %v, want 5.9", got)
	}
}

func TestRunCountsPriceMismatch(t *testing.T) {
	_, sum := Run([]domain.PriceAuditRecord{
		record("A", 20, 19, 54900, 52900),
		record("B", 20, 19, 44900, 44900),
	}, 3.0)
	if sum.PriceMismatches != 1 {
		t.Fatalf("mismatches = %d, want 1", sum.PriceMismatches)
	}
}

func TestDefaultSortTiesBySKU(t *testing.T) {
	rows, _ := Run([]domain.PriceAuditRecord{
		record("Z", 25, 20, 1, 1),
		record("A", 25, 20, 1, 1),
	}, 3.0)
	if rows[0].Record.SKUID != "A" {
		t.Fatalf("tie not broken by ascending SKU: %s first", rows[0].Record.SKUID)
	}
}

func TestSortByKey(t *testing.T) {
	rows, _ := Run([]domain.PriceAuditRecord{
		record("A", 20, 19, 300, 300),
		record("B", 20, 19, 100, 100),
		record("C", 20, 19, 200, 200),
	}, 3.0)

	Sort(rows, KeySelling, false)
	if rows[0].Record.SellingPrice != 100 || rows[2].Record.SellingPrice != 300 {
		t.Fatalf("ascending selling sort wrong: %+v", rows)
	}

	Sort(rows, KeySelling, true)
	if rows[0].Record.SellingPrice != 300 {
		t.Fatalf("descending selling sort wrong: %+v", rows)
	}
}

func TestValidKey(t *testing.T) {
	if !ValidKey(KeyMRP) {
		t.Errorf("mrp should be valid")
	}
	if ValidKey(SortKey("rating")) {
		t.Errorf("unknown key accepted")
	}
}
