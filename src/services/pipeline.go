package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/treybc/ddrl-honors/src/config"
	"github.com/treybc/ddrl-honors/src/database"
	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/models"
	"github.com/treybc/ddrl-honors/src/parsers"
	"github.com/treybc/ddrl-honors/src/processors"
)

// ErrParseFailures aborts a run whose line items produced parse-failure
// diagnostics. Defaulting those lines to zero would corrupt wealth and
// income totals; the offending rows are in the diagnostics for follow-up.
var ErrParseFailures = errors.New("line items failed to parse")

type pipelineServiceImpl struct {
	classifier *parsers.LineItemClassifier
	aggregator processors.Aggregator

	provisionalCycles []int
	supportedCycles   []int
	workers           int
}

// NewPipelineService wires the pipeline from its parts. The classifier and
// aggregator are shared across calls; the resolver is built per crosswalk
// run since it wraps that run's registry.
func NewPipelineService(
	classifier *parsers.LineItemClassifier,
	aggregator processors.Aggregator,
	supportedCycles, provisionalCycles []int,
	workers int,
) PipelineService {
	return &pipelineServiceImpl{
		classifier:        classifier,
		aggregator:        aggregator,
		supportedCycles:   supportedCycles,
		provisionalCycles: provisionalCycles,
		workers:           workers,
	}
}

// ProcessDisclosures turns the three extracted tables into one
// wealth/income record per filing. Diagnostics are returned even on error
// so the operator can see exactly which rows failed.
func (s *pipelineServiceImpl) ProcessDisclosures(input DisclosureInput) ([]models.FilingRecord, []models.Diagnostic, error) {
	startTime := time.Now()

	assetItems, err := parsers.LoadAssetTable(input.Assets)
	if err != nil {
		return nil, nil, err
	}
	liabilityItems, err := parsers.LoadLiabilityTable(input.Liabilities)
	if err != nil {
		return nil, nil, err
	}
	earnedItems, err := parsers.LoadEarnedIncomeTable(input.EarnedIncome)
	if err != nil {
		return nil, nil, err
	}

	items := make([]models.RawLineItem, 0, len(assetItems)+len(liabilityItems)+len(earnedItems))
	items = append(items, assetItems...)
	items = append(items, liabilityItems...)
	items = append(items, earnedItems...)

	parsed, diags := s.classifier.Classify(items)
	if len(diags) > 0 {
		return nil, diags, fmt.Errorf("%w: %d line items, first: %s/%s %q",
			ErrParseFailures, len(diags), diags[0].FilingID, diags[0].Category, diags[0].Raw)
	}

	records, err := s.aggregator.Aggregate(parsed)
	if err != nil {
		return nil, diags, err
	}

	logger.L.Info("Disclosures processed",
		"lineItems", len(items),
		"filings", len(records),
		"duration", time.Since(startTime))
	return records, diags, nil
}

// BuildCrosswalk resolves every manifest row against the registry and
// returns the deduped filing-to-identity mapping with its summary report.
func (s *pipelineServiceImpl) BuildCrosswalk(ctx context.Context, manifests []ManifestInput, registry io.Reader) ([]models.CrosswalkEntry, models.CrosswalkReport, error) {
	var rows []models.FilingIdentityRow
	for _, m := range manifests {
		yearRows, err := parsers.LoadManifest(m.Reader, m.Year)
		if err != nil {
			return nil, models.CrosswalkReport{}, err
		}
		rows = append(rows, yearRows...)
	}
	rows = parsers.DedupeIdentityRows(rows)

	keys, err := parsers.LoadRegistry(registry)
	if err != nil {
		return nil, models.CrosswalkReport{}, err
	}

	index := processors.NewRegistryIndex(keys)
	resolver := processors.NewIdentityResolver(index, s.provisionalCycles)
	builder := processors.NewCrosswalkBuilder(resolver, s.supportedCycles, s.workers)

	return builder.Build(ctx, rows)
}

// Run executes both halves of the pipeline over the configured input files
// and persists the outputs as CSV and SQLite tables.
func (s *pipelineServiceImpl) Run(ctx context.Context) error {
	records, err := s.RunDisclosures()
	if err != nil {
		return err
	}

	entries, report, err := s.RunCrosswalk(ctx)
	if err != nil {
		return err
	}

	if err := database.SaveFilingRecords(records); err != nil {
		return err
	}
	if err := database.SaveCrosswalkEntries(entries); err != nil {
		return err
	}

	logger.L.Info("Pipeline run complete",
		"filings", len(records),
		"crosswalkEntries", len(entries),
		"matched", report.Matched,
		"missing", report.Missing,
		"duplicate", report.Duplicate,
		"missingDistricts", report.MissingDistricts)
	return nil
}

// RunDisclosures parses the configured line-item tables and writes the
// filing-record CSV.
func (s *pipelineServiceImpl) RunDisclosures() ([]models.FilingRecord, error) {
	cfg := config.Cfg
	assets, err := os.Open(cfg.AssetTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset table: %w", err)
	}
	defer assets.Close()
	liabilities, err := os.Open(cfg.LiabilityTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open liability table: %w", err)
	}
	defer liabilities.Close()
	earned, err := os.Open(cfg.EarnedIncomeTablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open earned-income table: %w", err)
	}
	defer earned.Close()

	records, diags, err := s.ProcessDisclosures(DisclosureInput{
		Assets:       assets,
		Liabilities:  liabilities,
		EarnedIncome: earned,
	})
	if err != nil {
		for _, d := range diags {
			logger.L.Error("Parse diagnostic", "kind", d.Kind, "filingID", d.FilingID, "category", d.Category, "raw", d.Raw)
		}
		return nil, err
	}

	outPath := filepath.Join(cfg.OutputDir, "pfd_final.csv")
	if err := writeCSVFile(outPath, func(w *csv.Writer) error {
		return WriteFilingRecords(w, records)
	}); err != nil {
		return nil, err
	}
	logger.L.Info("Wrote filing records", "path", outPath, "count", len(records))
	return records, nil
}

// RunCrosswalk resolves the configured manifests against the registry and
// writes the crosswalk CSV.
func (s *pipelineServiceImpl) RunCrosswalk(ctx context.Context) ([]models.CrosswalkEntry, models.CrosswalkReport, error) {
	cfg := config.Cfg
	manifests := make([]ManifestInput, 0, len(cfg.Years))
	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, year := range cfg.Years {
		path := filepath.Join(cfg.ManifestDir, fmt.Sprintf("%dFD.txt", year))
		f, err := os.Open(path)
		if err != nil {
			return nil, models.CrosswalkReport{}, fmt.Errorf("failed to open manifest for %d: %w", year, err)
		}
		files = append(files, f)
		manifests = append(manifests, ManifestInput{Year: year, Reader: f})
	}

	registry, err := os.Open(cfg.RegistryPath)
	if err != nil {
		return nil, models.CrosswalkReport{}, fmt.Errorf("failed to open registry: %w", err)
	}
	defer registry.Close()

	entries, report, err := s.BuildCrosswalk(ctx, manifests, registry)
	if err != nil {
		return nil, models.CrosswalkReport{}, err
	}

	outPath := filepath.Join(cfg.OutputDir, "crosswalk.csv")
	if err := writeCSVFile(outPath, func(w *csv.Writer) error {
		return WriteCrosswalkEntries(w, entries)
	}); err != nil {
		return nil, models.CrosswalkReport{}, err
	}
	logger.L.Info("Wrote crosswalk", "path", outPath, "count", len(entries))
	return entries, report, nil
}

func writeCSVFile(path string, write func(w *csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteFilingRecords writes the per-filing wealth/income table. Float
// columns use the shortest exact representation so identical inputs yield
// byte-identical output.
func WriteFilingRecords(w *csv.Writer, records []models.FilingRecord) error {
	header := []string{
		"file",
		"min_asset", "max_asset",
		"min_liability", "max_liability",
		"min_unearned_income", "max_unearned_income",
		"income_earned",
		"min_wealth", "max_wealth",
		"wealth", "income",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.FilingID,
			strconv.FormatInt(rec.MinAsset, 10), strconv.FormatInt(rec.MaxAsset, 10),
			strconv.FormatInt(rec.MinLiability, 10), strconv.FormatInt(rec.MaxLiability, 10),
			strconv.FormatInt(rec.MinUnearnedIncome, 10), strconv.FormatInt(rec.MaxUnearnedIncome, 10),
			strconv.FormatInt(rec.IncomeEarned, 10),
			strconv.FormatInt(rec.MinWealth, 10), strconv.FormatInt(rec.MaxWealth, 10),
			strconv.FormatFloat(rec.Wealth, 'f', -1, 64), strconv.FormatFloat(rec.Income, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteCrosswalkEntries writes the filing-to-identity mapping, sentinels
// included.
func WriteCrosswalkEntries(w *csv.Writer, entries []models.CrosswalkEntry) error {
	if err := w.Write([]string{"pfd_id", "cycle", "rid"}); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := w.Write([]string{entry.FilingID, strconv.Itoa(entry.Cycle), entry.RegistryID}); err != nil {
			return err
		}
	}
	return nil
}
