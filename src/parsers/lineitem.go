package parsers

import (
	"strconv"
	"strings"

	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/models"
)

// LineItemClassifier applies per-category disambiguation on top of the
// amount parser: which reporting period to use and how to treat blank or
// not-applicable fields. One ParsedLineItem comes out per raw line; lines
// that resist every rule come out failed, with a structured diagnostic,
// never as a silent zero.
type LineItemClassifier struct {
	parser *AmountParser
}

func NewLineItemClassifier(parser *AmountParser) *LineItemClassifier {
	return &LineItemClassifier{parser: parser}
}

// Classify parses every raw line item. The returned diagnostics describe
// each failed or unprocessed line; callers decide whether they are fatal.
func (c *LineItemClassifier) Classify(items []models.RawLineItem) ([]models.ParsedLineItem, []models.Diagnostic) {
	parsed := make([]models.ParsedLineItem, 0, len(items))
	var diags []models.Diagnostic

	for _, item := range items {
		var out models.ParsedLineItem
		var diag *models.Diagnostic

		switch item.Category {
		case models.CategoryAsset, models.CategoryLiability:
			out, diag = c.classifySingle(item)
		case models.CategoryUnearnedIncome:
			out, diag = c.classifyUnearned(item)
		case models.CategoryEarnedIncome:
			out, diag = c.classifyEarned(item)
		default:
			out = failedItem(item, item.Amount)
			diag = &models.Diagnostic{Kind: models.DiagParseFailure, FilingID: item.FilingID, Category: item.Category, Raw: item.Amount}
		}

		parsed = append(parsed, out)
		if diag != nil {
			diags = append(diags, *diag)
			logger.L.Warn("Line item not parsed", "kind", diag.Kind, "filingID", diag.FilingID, "category", diag.Category, "raw", diag.Raw)
		}
	}
	return parsed, diags
}

// classifySingle handles assets and liabilities: one amount field, full
// parse cascade.
func (c *LineItemClassifier) classifySingle(item models.RawLineItem) (models.ParsedLineItem, *models.Diagnostic) {
	iv, err := c.parser.Parse(item.Amount)
	if err != nil {
		return failedItem(item, item.Amount), &models.Diagnostic{
			Kind: models.DiagParseFailure, FilingID: item.FilingID, Category: item.Category, Raw: item.Amount,
		}
	}
	return okItem(item, iv), nil
}

// classifyUnearned handles the two-period unearned-income field pair.
// Prior year wins when parseable; spillover repair applies only when both
// fields hold the same malformed string (the two-line artifact duplicates
// the concatenation into both columns).
func (c *LineItemClassifier) classifyUnearned(item models.RawLineItem) (models.ParsedLineItem, *models.Diagnostic) {
	prior, current := item.AmountPrior, item.AmountCurrent

	if iv, ok := c.parser.ParseSimple(prior); ok {
		return okItem(item, iv), nil
	}
	if iv, ok := c.parser.ParseSimple(current); ok {
		return okItem(item, iv), nil
	}
	if isBlankOrNotApplicable(prior) && isBlankOrNotApplicable(current) {
		return okItem(item, models.Interval{}), nil
	}
	if prior != "" && prior == current {
		if iv, ok := c.parser.RepairSpillover(prior); ok {
			return okItem(item, iv), nil
		}
	}
	raw := current + " ; " + prior
	return failedItem(item, raw), &models.Diagnostic{
		Kind: models.DiagUnprocessed, FilingID: item.FilingID, Category: item.Category, Raw: raw,
	}
}

// classifyEarned handles the earned-income field pair. Earned income is
// always reported as an exact figure, so there is no bucket lookup: the
// prior-year value wins unless it is blank or a not-applicable token, in
// which case the year-to-date value is used; blank/N-A yields zero.
func (c *LineItemClassifier) classifyEarned(item models.RawLineItem) (models.ParsedLineItem, *models.Diagnostic) {
	chosen := item.AmountPrior
	if isEarnedNotApplicable(chosen) {
		chosen = item.AmountCurrent
	}
	if isEarnedNotApplicable(chosen) {
		return okItem(item, models.Interval{}), nil
	}

	cleaned := strings.ReplaceAll(strings.ReplaceAll(chosen, "$", ""), ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || f < 0 {
		raw := item.AmountCurrent + " ; " + item.AmountPrior
		return failedItem(item, raw), &models.Diagnostic{
			Kind: models.DiagParseFailure, FilingID: item.FilingID, Category: item.Category, Raw: raw,
		}
	}
	v := int64(f)
	return okItem(item, models.Interval{Min: v, Max: v}), nil
}

// isBlankOrNotApplicable reports unpopulated unearned-income fields: empty
// or "Not Applicable"-style text.
func isBlankOrNotApplicable(s string) bool {
	return strings.TrimSpace(s) == "" || strings.Contains(s, "Not")
}

// isEarnedNotApplicable reports the earned-income table's not-applicable
// tokens; a bare "$" shows up when the extractor splits a blank cell.
func isEarnedNotApplicable(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "N/A", "N/a", "$":
		return true
	}
	return false
}

func okItem(item models.RawLineItem, iv models.Interval) models.ParsedLineItem {
	return models.ParsedLineItem{FilingID: item.FilingID, Category: item.Category, Value: iv}
}

func failedItem(item models.RawLineItem, raw string) models.ParsedLineItem {
	return models.ParsedLineItem{FilingID: item.FilingID, Category: item.Category, Failed: true, Raw: raw}
}
