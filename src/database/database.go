package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	_ "modernc.org/sqlite"

	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/models"
)

var DB *sql.DB

// InitDB opens the SQLite database and ensures the output tables exist.
func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS filing_records (
		filing_id TEXT PRIMARY KEY,
		min_asset INTEGER NOT NULL,
		max_asset INTEGER NOT NULL,
		min_liability INTEGER NOT NULL,
		max_liability INTEGER NOT NULL,
		min_unearned_income INTEGER NOT NULL,
		max_unearned_income INTEGER NOT NULL,
		income_earned INTEGER NOT NULL,
		min_wealth INTEGER NOT NULL,
		max_wealth INTEGER NOT NULL,
		wealth REAL NOT NULL,
		income REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS crosswalk_entries (
		filing_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		registry_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		PRIMARY KEY (filing_id, cycle)
	);
	`

	if _, err = DB.Exec(createTableStatement); err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	}
}

// SaveFilingRecords replaces the filing_records table contents with the
// given records in one transaction, so a rerun leaves an exact snapshot of
// the latest pipeline output.
func SaveFilingRecords(records []models.FilingRecord) error {
	dbTx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM filing_records`); err != nil {
		return fmt.Errorf("error clearing filing_records: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO filing_records (filing_id, min_asset, max_asset, min_liability, max_liability, min_unearned_income, max_unearned_income, income_earned, min_wealth, max_wealth, wealth, income) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(rec.FilingID, rec.MinAsset, rec.MaxAsset, rec.MinLiability, rec.MaxLiability,
			rec.MinUnearnedIncome, rec.MaxUnearnedIncome, rec.IncomeEarned, rec.MinWealth, rec.MaxWealth, rec.Wealth, rec.Income)
		if err != nil {
			return fmt.Errorf("error inserting filing record %s: %w", rec.FilingID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing filing records: %w", err)
	}
	logger.L.Info("Saved filing records", "count", len(records))
	return nil
}

// SaveCrosswalkEntries replaces the crosswalk_entries table contents with
// the given entries in one transaction.
func SaveCrosswalkEntries(entries []models.CrosswalkEntry) error {
	dbTx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM crosswalk_entries`); err != nil {
		return fmt.Errorf("error clearing crosswalk_entries: %w", err)
	}

	stmt, err := dbTx.Prepare(`INSERT INTO crosswalk_entries (filing_id, cycle, registry_id, outcome) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.Exec(entry.FilingID, entry.Cycle, entry.RegistryID, string(entry.Outcome)); err != nil {
			return fmt.Errorf("error inserting crosswalk entry %s/%d: %w", entry.FilingID, entry.Cycle, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing crosswalk entries: %w", err)
	}
	logger.L.Info("Saved crosswalk entries", "count", len(entries))
	return nil
}
