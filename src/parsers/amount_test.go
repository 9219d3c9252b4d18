package parsers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treybc/ddrl-honors/src/models"
)

func newTestParser() *AmountParser {
	return NewAmountParser(NewRangeCatalog())
}

func TestCatalogBoundsAreSane(t *testing.T) {
	catalog := NewRangeCatalog()
	for _, label := range catalog.Labels() {
		iv, ok := catalog.Lookup(label)
		require.True(t, ok)
		assert.GreaterOrEqual(t, iv.Min, int64(0), "label %q", label)
		assert.LessOrEqual(t, iv.Min, iv.Max, "label %q", label)
	}
}

func TestParseBucketLabels(t *testing.T) {
	p := newTestParser()

	iv, err := p.Parse("$1,001 - $15,000")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{Min: 1001, Max: 15000}, iv)

	iv, err = p.Parse("None")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{}, iv)

	iv, err = p.Parse("Over $50,000,000")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{Min: 50000000, Max: 50000000}, iv)
}

func TestParseExactNumbers(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		in   string
		want int64
	}{
		{"$83,000.00", 83000},
		{"$3,000", 3000},
		{"$1.00", 1},
		{"$12,400.23", 12400},
		{"$.12", 0}, // whole-dollar truncation
	}
	for _, tt := range tests {
		iv, err := p.Parse(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, models.Interval{Min: tt.want, Max: tt.want}, iv, "input %q", tt.in)
	}
}

func TestParseRejectsMalformedNumbers(t *testing.T) {
	p := newTestParser()
	for _, in := range []string{
		"garbage",
		"1000",      // no currency marker
		"$1 000",    // internal whitespace
		"$12.345",   // three fractional digits
		"$12.3.4",   // two decimal points
		"$-50",      // not a non-negative amount
		"$",         // empty body
		"$12,000.x", // non-digit cents
	} {
		_, err := p.Parse(in)
		require.Error(t, err, "input %q", in)
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr), "input %q", in)
	}
}

func TestRepairSpillover(t *testing.T) {
	p := newTestParser()

	// Two stacked bucket labels read left-to-right: the prior-year column
	// (last three tokens) wins.
	iv, err := p.Parse("$2,501 - $5,000 $5,001 - $15,000")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{Min: 5001, Max: 15000}, iv)

	// Row entries spilled onto two lines: bounds interleave, prior-year
	// column is tokens 2 and 5.
	iv, err = p.Parse("$50,001 - $15,001 - $100,000 $50,000")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{Min: 15001, Max: 50000}, iv)

	// Literal "None" placeholders are filtered before the retry.
	iv, err = p.Parse("$2,501 - None $5,000")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{Min: 2500, Max: 5000}, iv)

	iv, err = p.Parse("None None")
	require.NoError(t, err)
	assert.Equal(t, models.Interval{}, iv)
}

func TestRepairSpilloverUnknownLabelFails(t *testing.T) {
	p := newTestParser()
	// Right shape, but the rebuilt label is not in the catalog.
	_, err := p.Parse("$7 - $8 $9 - $10")
	require.Error(t, err)
}
