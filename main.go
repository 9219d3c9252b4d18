package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/treybc/ddrl-honors/src/config"
	"github.com/treybc/ddrl-honors/src/database"
	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/parsers"
	"github.com/treybc/ddrl-honors/src/processors"
	"github.com/treybc/ddrl-honors/src/services"
)

func newPipelineService() (services.PipelineService, error) {
	catalog := parsers.NewRangeCatalog()
	if path := config.Cfg.RangeCatalogPath; path != "" {
		if err := catalog.LoadFile(path); err != nil {
			return nil, err
		}
	}
	classifier := parsers.NewLineItemClassifier(parsers.NewAmountParser(catalog))
	aggregator := processors.NewFilingAggregator()
	return services.NewPipelineService(
		classifier,
		aggregator,
		config.Cfg.SupportedCycles,
		config.Cfg.ProvisionalCycles,
		config.Cfg.ResolverWorkers,
	), nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ddrl",
		Short: "House financial disclosure parsing and candidate crosswalk pipeline",
		Long: `Parses extracted House financial-disclosure tables into per-filing
wealth/income records and resolves each filing to a canonical candidate
identity in the campaign-finance registry.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			logger.InitLogger(config.Cfg.LogLevel)
		},
	}

	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse disclosure line items into per-filing wealth/income records",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.InitDB(config.Cfg.DatabasePath)
			svc, err := newPipelineService()
			if err != nil {
				return err
			}
			records, err := svc.RunDisclosures()
			if err != nil {
				return err
			}
			return database.SaveFilingRecords(records)
		},
	}

	crosswalkCmd := &cobra.Command{
		Use:   "crosswalk",
		Short: "Resolve filing manifests against the campaign-finance registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.InitDB(config.Cfg.DatabasePath)
			svc, err := newPipelineService()
			if err != nil {
				return err
			}
			entries, report, err := svc.RunCrosswalk(cmd.Context())
			if err != nil {
				return err
			}
			if err := database.SaveCrosswalkEntries(entries); err != nil {
				return err
			}
			printReport(report.Matched, report.Missing, report.Duplicate, report.ProvisionalUnmatched, report.MissingDistricts)
			return nil
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: parse disclosures, then build the crosswalk",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.InitDB(config.Cfg.DatabasePath)
			svc, err := newPipelineService()
			if err != nil {
				return err
			}
			return svc.Run(cmd.Context())
		},
	}

	rootCmd.AddCommand(parseCmd, crosswalkCmd, runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// printReport writes the operator-facing match summary to stdout; the
// structured log carries the same numbers for machines.
func printReport(matched, missing, duplicate, provisional int, missingDistricts []string) {
	fmt.Printf("%d matched, %d missing, %d duplicate, %d provisional-unmatched\n",
		matched, missing, duplicate, provisional)
	if len(missingDistricts) > 0 {
		fmt.Printf("districts with unresolved rows: %v\n", missingDistricts)
	}
}
