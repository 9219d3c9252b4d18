package processors

import (
	"github.com/treybc/ddrl-honors/src/models"
)

// Aggregator reduces parsed line items to one record per filing.
type Aggregator interface {
	Aggregate(items []models.ParsedLineItem) ([]models.FilingRecord, error)
}

// Resolver matches one filing row against the canonical registry.
type Resolver interface {
	Resolve(row models.FilingIdentityRow) models.CrosswalkEntry
	Provisional(cycle int) bool
	HasCycle(cycle int) bool
}
