package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	LogLevel     string
	DatabasePath string

	// Extracted line-item tables (the external extractor's output).
	AssetTablePath        string
	LiabilityTablePath    string
	EarnedIncomeTablePath string

	// Filing manifests, one tab-delimited file per year under ManifestDir.
	ManifestDir string
	Years       []int

	// Canonical campaign-finance registry.
	RegistryPath string

	// Optional JSON file of extra bucket labels merged into the built-in
	// range catalog.
	RangeCatalogPath string

	OutputDir string

	// Cycles the registry is expected to cover. A supported, non-provisional
	// cycle with no registry rows at all aborts the run.
	SupportedCycles []int
	// Cycles for which the registry is known to be incomplete; non-matches
	// there are tolerated without being flagged.
	ProvisionalCycles []int

	ResolverWorkers int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	dataDir := getEnv("DATA_DIR", "data")

	Cfg = &AppConfig{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./ddrl.db"),

		AssetTablePath:        getEnv("ASSET_TABLE_PATH", filepath.Join(dataDir, "pfd", "parsed_disclosures", "assets-and-unearned-income.csv")),
		LiabilityTablePath:    getEnv("LIABILITY_TABLE_PATH", filepath.Join(dataDir, "pfd", "parsed_disclosures", "liabilities.csv")),
		EarnedIncomeTablePath: getEnv("EARNED_INCOME_TABLE_PATH", filepath.Join(dataDir, "pfd", "parsed_disclosures", "earned-income.csv")),

		ManifestDir: getEnv("MANIFEST_DIR", filepath.Join(dataDir, "pfd", "manifests")),
		Years:       getEnvAsIntList("MANIFEST_YEARS", []int{2013, 2014, 2015, 2016, 2017, 2018, 2019, 2020}),

		RegistryPath: getEnv("REGISTRY_PATH", filepath.Join(dataDir, "dime_with_primaries.csv")),

		RangeCatalogPath: getEnv("RANGE_CATALOG_PATH", ""),

		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(dataDir, "pfd")),

		SupportedCycles:   getEnvAsIntList("SUPPORTED_CYCLES", []int{2014, 2016, 2018, 2020}),
		ProvisionalCycles: getEnvAsIntList("PROVISIONAL_CYCLES", []int{2020}),

		ResolverWorkers: getEnvAsInt("RESOLVER_WORKERS", 4),
	}

	if Cfg.ResolverWorkers < 1 {
		log.Printf("WARNING: RESOLVER_WORKERS must be at least 1, got %d. Using 1.", Cfg.ResolverWorkers)
		Cfg.ResolverWorkers = 1
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, Years=%v, ProvisionalCycles=%v",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.Years, Cfg.ProvisionalCycles)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsIntList parses a comma-separated list of integers, e.g.
// "2014,2016,2018".
func getEnvAsIntList(key string, fallback []int) []int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var values []int
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			log.Printf("Invalid integer list value for %s ('%s'), using default: %v", key, valueStr, fallback)
			return fallback
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
