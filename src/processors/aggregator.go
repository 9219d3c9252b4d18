package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/treybc/ddrl-honors/src/models"
)

// FilingAggregator groups parsed line items by filing and reduces each
// group to a single wealth/income record. Interval bounds are summed per
// category (summing intervals, not picking a representative line); a
// category a filing never disclosed sums to zero, so every output record is
// fully populated.
type FilingAggregator struct{}

func NewFilingAggregator() *FilingAggregator {
	return &FilingAggregator{}
}

// Aggregate builds one FilingRecord per filing id, sorted by filing id so
// reruns on unchanged input are byte-identical.
//
// Every value reaching aggregation must be a concrete interval: a failed
// line item here is a defect in parsing or classification and aborts the
// run rather than corrupting totals with silent zeros.
func (a *FilingAggregator) Aggregate(items []models.ParsedLineItem) ([]models.FilingRecord, error) {
	if err := checkNoFailures(items); err != nil {
		return nil, err
	}

	byFiling := make(map[string]*models.FilingRecord)
	for _, item := range items {
		rec, ok := byFiling[item.FilingID]
		if !ok {
			rec = &models.FilingRecord{FilingID: item.FilingID}
			byFiling[item.FilingID] = rec
		}
		switch item.Category {
		case models.CategoryAsset:
			rec.MinAsset += item.Value.Min
			rec.MaxAsset += item.Value.Max
		case models.CategoryLiability:
			rec.MinLiability += item.Value.Min
			rec.MaxLiability += item.Value.Max
		case models.CategoryUnearnedIncome:
			rec.MinUnearnedIncome += item.Value.Min
			rec.MaxUnearnedIncome += item.Value.Max
		case models.CategoryEarnedIncome:
			rec.IncomeEarned += item.Value.Min
		default:
			return nil, fmt.Errorf("unknown line item category %q (filing %s)", item.Category, item.FilingID)
		}
	}

	records := make([]models.FilingRecord, 0, len(byFiling))
	for _, rec := range byFiling {
		rec.MinWealth = rec.MinAsset - rec.MaxLiability
		rec.MaxWealth = rec.MaxAsset - rec.MinLiability
		rec.Wealth = float64(rec.MinWealth+rec.MaxWealth) / 2
		rec.Income = float64(rec.IncomeEarned) + float64(rec.MinUnearnedIncome+rec.MaxUnearnedIncome)/2
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FilingID < records[j].FilingID
	})
	return records, nil
}

func checkNoFailures(items []models.ParsedLineItem) error {
	var failed []string
	for _, item := range items {
		if item.Failed {
			failed = append(failed, fmt.Sprintf("%s/%s: %q", item.FilingID, item.Category, item.Raw))
			if len(failed) == 5 {
				failed = append(failed, "...")
				break
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("unresolved parse failures reached aggregation: %s", strings.Join(failed, "; "))
	}
	return nil
}
