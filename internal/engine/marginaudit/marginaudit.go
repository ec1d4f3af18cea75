// Package marginaudit compares expected vs. actual margin per SKU and portal
// and flags margin drops and price mismatches.
package marginaudit

import (
	"sort"

	"github.com/sellerdesk/recond/internal/engine/domain"
)

// Classification buckets an audited record.
type Classification string

const (
	ClassHealthy Classification = "healthy"
	ClassWarning Classification = "warning"
)

// Annotated is a price audit record with its derived fields.
type Annotated struct {
	Record         domain.PriceAuditRecord
	MarginDrop     float64
	PriceMismatch  bool
	Classification Classification
}

// Summary holds the audit counters for a batch.
type Summary struct {
	Audited         int
	MarginDrops     int
	PriceMismatches int
	Healthy         int
}

// Run annotates every record and counts the batch. A record is a Warning iff
// its margin drop is at or above thresholdPct. Output is in default order:
// descending margin drop, ties broken by ascending SKU id.
func Run(records []domain.PriceAuditRecord, thresholdPct float64) ([]Annotated, Summary) {
	rows := make([]Annotated, 0, len(records))
	var sum Summary
	for _, rec := range records {
		row := Annotated{
			Record:        rec,
			MarginDrop:    rec.ExpectedMarginPct - rec.ActualMarginPct,
			PriceMismatch: rec.SellingPrice != rec.PortalSellingPrice,
		}
		row.Classification = ClassHealthy
		if row.MarginDrop >= thresholdPct {
			row.Classification = ClassWarning
		}

		sum.Audited++
		if row.Classification == ClassWarning {
			sum.MarginDrops++
		} else {
			sum.Healthy++
		}
		if row.PriceMismatch {
			sum.PriceMismatches++
		}
		rows = append(rows, row)
	}

	Sort(rows, KeyMarginDrop, true)
	return rows, sum
}

// SortKey selects the column to order audited rows by.
type SortKey string

const (
	KeyMarginDrop  SortKey = "margin_drop"
	KeySKU         SortKey = "sku"
	KeyName        SortKey = "name"
	KeyMRP         SortKey = "mrp"
	KeySelling     SortKey = "selling_price"
	KeyPortalPrice SortKey = "portal_price"
	KeyExpectedPct SortKey = "expected_pct"
	KeyActualPct   SortKey = "actual_pct"
)

// Sort orders rows in place by the requested key. Ties always fall back to
// ascending SKU id so the ordering is total and reruns are byte-stable.
func Sort(rows []Annotated, key SortKey, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		less, equal := compare(a, b, key)
		if equal {
			return a.Record.SKUID < b.Record.SKUID
		}
		if desc {
			return !less
		}
		return less
	})
}

func compare(a, b Annotated, key SortKey) (less, equal bool) {
	switch key {
	case KeyName:
		return a.Record.ProductName < b.Record.ProductName, a.Record.ProductName == b.Record.ProductName
	case KeyMRP:
		return a.Record.MRP < b.Record.MRP, a.Record.MRP == b.Record.MRP
	case KeySelling:
		return a.Record.SellingPrice < b.Record.SellingPrice, a.Record.SellingPrice == b.Record.SellingPrice
	case KeyPortalPrice:
		return a.Record.PortalSellingPrice < b.Record.PortalSellingPrice, a.Record.PortalSellingPrice == b.Record.PortalSellingPrice
	case KeyExpectedPct:
		return a.Record.ExpectedMarginPct < b.Record.ExpectedMarginPct, a.Record.ExpectedMarginPct == b.Record.ExpectedMarginPct
	case KeyActualPct:
		return a.Record.ActualMarginPct < b.Record.ActualMarginPct, a.Record.ActualMarginPct == b.Record.ActualMarginPct
	case KeySKU:
		return a.Record.SKUID < b.Record.SKUID, a.Record.SKUID == b.Record.SKUID
	default: // KeyMarginDrop
		return a.MarginDrop < b.MarginDrop, a.MarginDrop == b.MarginDrop
	}
}

// ValidKey reports whether key names a sortable column.
func ValidKey(key SortKey) bool {
	switch key {
	case KeyMarginDrop, KeySKU, KeyName, KeyMRP, KeySelling, KeyPortalPrice, KeyExpectedPct, KeyActualPct:
		return true
	}
	return false
}
