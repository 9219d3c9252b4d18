package models

// Category identifies which disclosure schedule a line item came from.
type Category string

const (
	CategoryAsset          Category = "asset"
	CategoryLiability      Category = "liability"
	CategoryEarnedIncome   Category = "earned_income"
	CategoryUnearnedIncome Category = "unearned_income"
)

// RawLineItem is one row extracted from a disclosure document by the
// upstream table extractor. Single-amount categories (assets, liabilities)
// populate Amount; the income categories report a current-period and a
// prior-period field instead.
type RawLineItem struct {
	FilingID      string   `json:"filing_id"`
	Category      Category `json:"category"`
	Amount        string   `json:"amount"`
	AmountCurrent string   `json:"amount_current"`
	AmountPrior   string   `json:"amount_prior"`
}

// Interval is a closed dollar range. Bucket labels map to their legal
// bounds; exact figures collapse to Min == Max.
type Interval struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ParsedLineItem is one line item with its amount resolved to an interval.
// Failed items carry the offending raw text; they must never reach
// aggregation, which treats them as a fatal defect.
type ParsedLineItem struct {
	FilingID string
	Category Category
	Value    Interval
	Failed   bool
	Raw      string
}

// DiagnosticKind classifies a per-line diagnostic record.
type DiagnosticKind string

const (
	// DiagParseFailure: the raw text matched none of the recognized shapes.
	DiagParseFailure DiagnosticKind = "parse_failure"
	// DiagUnprocessed: the income fields were populated but no
	// period-selection rule applied.
	DiagUnprocessed DiagnosticKind = "unprocessed"
)

// Diagnostic is a structured record of a line item the classifier could not
// turn into a concrete interval. Diagnostics are returned alongside the
// primary output rather than interleaved into free-text logs.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	FilingID string         `json:"filing_id"`
	Category Category       `json:"category"`
	Raw      string         `json:"raw"`
}

// FilingRecord is the per-filing aggregate of all parsed line items.
// Category sums default to zero when the filing disclosed nothing in that
// category. Wealth bounds may go negative when liabilities exceed assets.
type FilingRecord struct {
	FilingID          string  `json:"filing_id"`
	MinAsset          int64   `json:"min_asset"`
	MaxAsset          int64   `json:"max_asset"`
	MinLiability      int64   `json:"min_liability"`
	MaxLiability      int64   `json:"max_liability"`
	MinUnearnedIncome int64   `json:"min_unearned_income"`
	MaxUnearnedIncome int64   `json:"max_unearned_income"`
	IncomeEarned      int64   `json:"income_earned"`
	MinWealth         int64   `json:"min_wealth"`
	MaxWealth         int64   `json:"max_wealth"`
	Wealth            float64 `json:"wealth"`
	Income            float64 `json:"income"`
}

// CandidateKey is one canonical candidate-cycle identity from the
// campaign-finance registry. Name fields are pre-normalized (uppercased,
// diacritics stripped, hyphens and spaces removed).
type CandidateKey struct {
	RegistryID        string   `json:"registry_id"`
	Cycle             int      `json:"cycle"`
	District          string   `json:"district"`
	LastName          string   `json:"last_name"`
	FirstNameVariants []string `json:"first_name_variants"`
}

// FilingIdentityRow is one manifest entry to resolve against the registry.
// Names carry the same normalization as CandidateKey or matching is
// meaningless.
type FilingIdentityRow struct {
	FilingID  string `json:"filing_id"`
	Cycle     int    `json:"cycle"`
	District  string `json:"district"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
}

// Sentinel registry ids for rows that could not be uniquely resolved.
const (
	RegistryMissing   = "missing"
	RegistryDuplicate = "dupe"
)

// MatchOutcome classifies how a filing row resolved.
type MatchOutcome string

const (
	OutcomeMatched   MatchOutcome = "matched"
	OutcomeMissing   MatchOutcome = "missing"
	OutcomeDuplicate MatchOutcome = "duplicate"
)

// CrosswalkEntry maps one filing to a registry identity, or to a sentinel
// when no unique identity could be assigned. The mapping is many filings to
// one identity, never the reverse in the final output.
type CrosswalkEntry struct {
	FilingID   string       `json:"filing_id"`
	Cycle      int          `json:"cycle"`
	RegistryID string       `json:"registry_id"`
	Outcome    MatchOutcome `json:"outcome"`
}

// CrosswalkReport summarizes match quality for one run. It is meant for
// operator review; unresolved rows are an expected output requiring manual
// curation, not a bug signal.
type CrosswalkReport struct {
	Matched              int      `json:"matched"`
	Missing              int      `json:"missing"`
	Duplicate            int      `json:"duplicate"`
	ProvisionalUnmatched int      `json:"provisional_unmatched"`
	MissingDistricts     []string `json:"missing_districts"`
}
