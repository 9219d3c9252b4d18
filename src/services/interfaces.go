package services

import (
	"context"
	"io"

	"github.com/treybc/ddrl-honors/src/models"
)

// ManifestInput pairs one yearly manifest file with the year it covers;
// the cycle derives from the year, not from row contents.
type ManifestInput struct {
	Year   int
	Reader io.Reader
}

// DisclosureInput bundles the three extracted line-item tables.
type DisclosureInput struct {
	Assets       io.Reader
	Liabilities  io.Reader
	EarnedIncome io.Reader
}

// PipelineService is the core batch pipeline: disclosure parsing on one
// side, identity crosswalk on the other. The two outputs join downstream on
// filing id and registry id.
type PipelineService interface {
	ProcessDisclosures(input DisclosureInput) ([]models.FilingRecord, []models.Diagnostic, error)
	BuildCrosswalk(ctx context.Context, manifests []ManifestInput, registry io.Reader) ([]models.CrosswalkEntry, models.CrosswalkReport, error)

	// Path-based entry points driven by config.Cfg; each writes its CSV
	// output as a side effect.
	RunDisclosures() ([]models.FilingRecord, error)
	RunCrosswalk(ctx context.Context) ([]models.CrosswalkEntry, models.CrosswalkReport, error)
	Run(ctx context.Context) error
}
