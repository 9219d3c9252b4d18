package parsers

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/models"
)

// RangeCatalog maps the fixed set of bucket labels mandated by disclosure
// law (plus observed free-form variants) to dollar intervals. It is loaded
// once at startup and read-only afterwards.
//
// The built-in table reproduces the values historical runs were produced
// with, quirks included ("$201 - $1,000" -> (201, 1001),
// "$2,501 - $5,000" -> (2500, 5000)). Treat it as data, not code; newly
// observed labels belong in an extension file, see LoadFile.
type RangeCatalog struct {
	ranges map[string]models.Interval
}

// NewRangeCatalog returns a catalog seeded with the built-in label table.
func NewRangeCatalog() *RangeCatalog {
	c := &RangeCatalog{ranges: make(map[string]models.Interval, len(builtinRanges))}
	for label, iv := range builtinRanges {
		c.ranges[label] = iv
	}
	return c
}

// LoadFile merges extra bucket labels from a JSON file of the form
// {"label": [min, max], ...}. Existing labels are overridden, which is how
// a bad built-in value would be corrected without a code change.
func (c *RangeCatalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read range catalog file: %w", err)
	}
	var extra map[string][2]int64
	if err := json.Unmarshal(data, &extra); err != nil {
		return fmt.Errorf("failed to parse range catalog file %s: %w", path, err)
	}
	for label, bounds := range extra {
		if bounds[0] > bounds[1] || bounds[0] < 0 {
			return fmt.Errorf("invalid bounds for label %q in %s: [%d, %d]", label, path, bounds[0], bounds[1])
		}
		c.ranges[label] = models.Interval{Min: bounds[0], Max: bounds[1]}
	}
	logger.L.Info("Merged extra range catalog labels", "path", path, "labels", len(extra))
	return nil
}

// Lookup returns the interval for an exact label match.
func (c *RangeCatalog) Lookup(label string) (models.Interval, bool) {
	iv, ok := c.ranges[label]
	return iv, ok
}

// Labels returns every recognized label. Used by tests and diagnostics.
func (c *RangeCatalog) Labels() []string {
	labels := make([]string, 0, len(c.ranges))
	for label := range c.ranges {
		labels = append(labels, label)
	}
	return labels
}

var builtinRanges = map[string]models.Interval{
	"Undetermined": {Min: 0, Max: 0},
	"None":         {Min: 0, Max: 0},

	// Asset value classifications
	"$1 - $1,000":           {Min: 1, Max: 1000},
	"$1,001 - $15,000":      {Min: 1001, Max: 15000},
	"$15,001 - $50,000":     {Min: 15001, Max: 50000},
	"$50,001 - $100,000":    {Min: 50001, Max: 100000},
	"$10,000 - $15,000":     {Min: 10000, Max: 15000},
	"$100,001 - $250,000":   {Min: 100001, Max: 250000},
	"$250,001 - $500,000":   {Min: 250001, Max: 500000},
	"Over $50,000,000":      {Min: 50000000, Max: 50000000},
	"Over":                  {Min: 50000000, Max: 50000000},
	"over $50,000,000":      {Min: 50000000, Max: 50000000},
	"Spouse/DC over $1,000,000": {Min: 1000000, Max: 1000000},
	"Spouse/DC Over $1,000,000": {Min: 1000000, Max: 1000000},
	"spouse/DC Over $1,000,000": {Min: 1000000, Max: 1000000},
	"SP":             {Min: 1000000, Max: 1000000},
	"Spouse/DC Over": {Min: 1000000, Max: 1000000},

	// Liability-specific classifications
	"$500,001 - $1,000,000":     {Min: 500001, Max: 1000000},
	"$1,000,001 - $5,000,000":   {Min: 1000001, Max: 5000000},
	"$5,000,001 - $25,000,000":  {Min: 5000001, Max: 25000000},
	"$25,000,001 - $50,000,000": {Min: 25000001, Max: 50000000},

	// Unearned-income-specific classifications
	"$1 - $200":              {Min: 1, Max: 200},
	"$201 - $1,000":          {Min: 201, Max: 1001},
	"$1,001 - $2,500":        {Min: 1001, Max: 2500},
	"$2,501 - $5,000":        {Min: 2500, Max: 5000},
	"$1 - $15,000":           {Min: 1, Max: 15000},
	"$5,001 - $15,000":       {Min: 5001, Max: 15000},
	"$100,001 - $1,000,000":  {Min: 100001, Max: 1000000},
	"Over $5,000,000":        {Min: 5000000, Max: 5000000},
	"over $5,000,000":        {Min: 5000000, Max: 5000000},
}
