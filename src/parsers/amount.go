package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/treybc/ddrl-honors/src/models"
)

// ParseError reports a raw amount string that matched none of the
// recognized shapes. It is recoverable at the line-item level but fatal if
// it reaches aggregation.
type ParseError struct {
	Raw      string
	FilingID string
}

func (e *ParseError) Error() string {
	if e.FilingID != "" {
		return fmt.Sprintf("unparseable amount %q (filing %s)", e.Raw, e.FilingID)
	}
	return fmt.Sprintf("unparseable amount %q", e.Raw)
}

// AmountParser converts raw amount text into dollar intervals. Source
// documents encode amounts as a small closed set of bucket labels or as
// literal dollar figures; a handful of systematic layout artifacts produce
// concatenated tokens that are pattern-matched and split, not treated as
// generic noise.
type AmountParser struct {
	catalog *RangeCatalog
}

func NewAmountParser(catalog *RangeCatalog) *AmountParser {
	return &AmountParser{catalog: catalog}
}

// Parse runs the full cascade: catalog lookup, exact-number parse,
// spillover repair. Anything else is a ParseError.
func (p *AmountParser) Parse(raw string) (models.Interval, error) {
	if iv, ok := p.ParseSimple(raw); ok {
		return iv, nil
	}
	if iv, ok := p.RepairSpillover(raw); ok {
		return iv, nil
	}
	return models.Interval{}, &ParseError{Raw: raw}
}

// ParseSimple tries only the catalog and exact-number paths. The income
// classifier uses this so that spillover repair stays gated on its own
// precondition (both period fields holding the same malformed string).
func (p *AmountParser) ParseSimple(raw string) (models.Interval, bool) {
	if iv, ok := p.catalog.Lookup(raw); ok {
		return iv, true
	}
	return parseExactNumber(raw)
}

// parseExactNumber parses a literal dollar figure: leading "$", no internal
// whitespace, digits with optional thousands separators and at most one
// decimal point followed by exactly one or two digits. The fractional part
// is truncated (whole dollars).
func parseExactNumber(raw string) (models.Interval, bool) {
	if len(raw) < 2 || raw[0] != '$' || strings.ContainsAny(raw, " \t") {
		return models.Interval{}, false
	}
	body := strings.ReplaceAll(raw[1:], ",", "")
	if i := strings.IndexByte(body, '.'); i >= 0 {
		frac := body[i+1:]
		if len(frac) < 1 || len(frac) > 2 || !allDigits(frac) {
			return models.Interval{}, false
		}
		body = body[:i]
	}
	if body == "" {
		// "$.12" style: no whole-dollar part, truncates to zero.
		return models.Interval{Min: 0, Max: 0}, true
	}
	if !allDigits(body) {
		return models.Interval{}, false
	}
	v, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return models.Interval{}, false
	}
	return models.Interval{Min: v, Max: v}, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RepairSpillover recognizes amounts mangled when a table row's value spans
// two physical lines, so two unrelated cells get read left-to-right into
// one field. Two six-token shapes are known:
//
//	"$2,501 - $5,000 $5,001 - $15,000"  -> dashes at 1 and 4; the last
//	three tokens are the prior-year column, which wins.
//
//	"$50,001 - $15,001 - $100,000 $50,000" -> dashes at 1 and 3; the
//	prior-year column is tokens 2 and 5.
//
// Tokens holding the literal placeholder "None" are filtered out and the
// remainder retried against the catalog; an empty remainder is zero.
func (p *AmountParser) RepairSpillover(raw string) (models.Interval, bool) {
	tokens := strings.Fields(raw)
	if len(tokens) == 6 && tokens[1] == "-" && tokens[4] == "-" {
		return p.catalog.Lookup(strings.Join(tokens[3:], " "))
	}
	if containsToken(tokens, "None") {
		kept := tokens[:0:0]
		for _, t := range tokens {
			if t != "None" {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			return models.Interval{Min: 0, Max: 0}, true
		}
		return p.catalog.Lookup(strings.Join(kept, " "))
	}
	if len(tokens) == 6 && tokens[1] == "-" && tokens[3] == "-" {
		return p.catalog.Lookup(tokens[2] + " - " + tokens[5])
	}
	return models.Interval{}, false
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}
