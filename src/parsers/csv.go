package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/models"
	"github.com/treybc/ddrl-honors/src/utils"
)

// The extractor writes one CSV per category, with free-text preamble lines
// before the real header (which always starts with "file,") and a sentinel
// row per empty document whose file field reads "<id> - None disclosed".

const noneDisclosedSentinel = "None disclosed"

// readTable skips the preamble, reads the header, and returns a column
// index plus all data records.
func readTable(r io.Reader) (map[string][]int, [][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var body strings.Builder
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if !found {
			if strings.HasPrefix(line, "file,") {
				found = true
			} else {
				continue
			}
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read table: %w", err)
	}
	if !found {
		return nil, nil, fmt.Errorf("no header row found (expected a line starting with %q)", "file,")
	}

	reader := csv.NewReader(strings.NewReader(body.String()))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// Duplicate header names are meaningful: the asset table carries two
	// "income" columns (current year first, prior year second).
	columns := make(map[string][]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		columns[name] = append(columns[name], i)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}
	return columns, records, nil
}

func columnIndex(columns map[string][]int, names ...string) (int, bool) {
	for _, name := range names {
		if idxs, ok := columns[name]; ok && len(idxs) > 0 {
			return idxs[0], true
		}
	}
	return 0, false
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// LoadAssetTable reads the assets-and-unearned-income table. Each usable
// row yields two line items: the asset value and the unearned-income
// period pair. Rows with an empty asset value are dropped (logged), as are
// the None-disclosed sentinel rows.
func LoadAssetTable(r io.Reader) ([]models.RawLineItem, error) {
	columns, records, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("asset table: %w", err)
	}
	fileIdx, ok := columnIndex(columns, "file")
	if !ok {
		return nil, fmt.Errorf("asset table: missing column %q", "file")
	}
	valueIdx, ok := columnIndex(columns, "value-of-asset")
	if !ok {
		return nil, fmt.Errorf("asset table: missing column %q", "value-of-asset")
	}
	incomeIdxs := columns["income"]
	if len(incomeIdxs) == 0 {
		return nil, fmt.Errorf("asset table: missing column %q", "income")
	}
	currentIdx := incomeIdxs[0]
	priorIdx, ok := columnIndex(columns, "income.1", "income_prev_year")
	if !ok {
		if len(incomeIdxs) < 2 {
			return nil, fmt.Errorf("asset table: missing prior-year income column")
		}
		priorIdx = incomeIdxs[1]
	}

	var items []models.RawLineItem
	dropped := 0
	for _, record := range records {
		filingID := field(record, fileIdx)
		if filingID == "" || strings.Contains(filingID, noneDisclosedSentinel) {
			continue
		}
		value := field(record, valueIdx)
		if value == "" {
			dropped++
			continue
		}
		items = append(items,
			models.RawLineItem{FilingID: filingID, Category: models.CategoryAsset, Amount: value},
			models.RawLineItem{
				FilingID:      filingID,
				Category:      models.CategoryUnearnedIncome,
				AmountCurrent: field(record, currentIdx),
				AmountPrior:   field(record, priorIdx),
			},
		)
	}
	if dropped > 0 {
		logger.L.Warn("Dropped asset rows with empty value field", "count", dropped)
	}
	return items, nil
}

// LoadLiabilityTable reads the liabilities table.
func LoadLiabilityTable(r io.Reader) ([]models.RawLineItem, error) {
	columns, records, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("liability table: %w", err)
	}
	fileIdx, ok := columnIndex(columns, "file")
	if !ok {
		return nil, fmt.Errorf("liability table: missing column %q", "file")
	}
	amountIdx, ok := columnIndex(columns, "amount-of-liability")
	if !ok {
		return nil, fmt.Errorf("liability table: missing column %q", "amount-of-liability")
	}

	var items []models.RawLineItem
	dropped := 0
	for _, record := range records {
		filingID := field(record, fileIdx)
		if filingID == "" || strings.Contains(filingID, noneDisclosedSentinel) {
			continue
		}
		amount := field(record, amountIdx)
		if amount == "" {
			dropped++
			continue
		}
		items = append(items, models.RawLineItem{FilingID: filingID, Category: models.CategoryLiability, Amount: amount})
	}
	if dropped > 0 {
		logger.L.Warn("Dropped liability rows with empty amount field", "count", dropped)
	}
	return items, nil
}

// LoadEarnedIncomeTable reads the earned-income table. The extractor packs
// both period values into one "amount" field; the first space splits
// year-to-date from prior year.
func LoadEarnedIncomeTable(r io.Reader) ([]models.RawLineItem, error) {
	columns, records, err := readTable(r)
	if err != nil {
		return nil, fmt.Errorf("earned-income table: %w", err)
	}
	fileIdx, ok := columnIndex(columns, "file")
	if !ok {
		return nil, fmt.Errorf("earned-income table: missing column %q", "file")
	}
	amountIdx, ok := columnIndex(columns, "amount")
	if !ok {
		return nil, fmt.Errorf("earned-income table: missing column %q", "amount")
	}

	var items []models.RawLineItem
	for _, record := range records {
		filingID := field(record, fileIdx)
		if filingID == "" || strings.Contains(filingID, noneDisclosedSentinel) {
			continue
		}
		amount := field(record, amountIdx)
		ytd, prior := amount, ""
		if i := strings.IndexByte(amount, ' '); i >= 0 {
			ytd, prior = amount[:i], strings.TrimSpace(amount[i+1:])
		}
		items = append(items, models.RawLineItem{
			FilingID:      filingID,
			Category:      models.CategoryEarnedIncome,
			AmountCurrent: ytd,
			AmountPrior:   prior,
		})
	}
	return items, nil
}

// LoadManifest reads one year's tab-delimited filing manifest. Only initial
// ("C") and annual ("O") filings are in scope; the cycle comes from the
// manifest's year, rounded up to even. Name fields are normalized for
// matching and at-large districts renumbered to the registry convention.
func LoadManifest(r io.Reader, year int) ([]models.FilingIdentityRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("manifest %d: failed to read header: %w", year, err)
	}
	columns := make(map[string][]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = append(columns[strings.TrimSpace(name)], i)
	}
	lastIdx, ok := columnIndex(columns, "Last")
	if !ok {
		return nil, fmt.Errorf("manifest %d: missing column %q", year, "Last")
	}
	firstIdx, ok := columnIndex(columns, "First")
	if !ok {
		return nil, fmt.Errorf("manifest %d: missing column %q", year, "First")
	}
	typeIdx, ok := columnIndex(columns, "FilingType")
	if !ok {
		return nil, fmt.Errorf("manifest %d: missing column %q", year, "FilingType")
	}
	districtIdx, ok := columnIndex(columns, "StateDst")
	if !ok {
		return nil, fmt.Errorf("manifest %d: missing column %q", year, "StateDst")
	}
	docIdx, ok := columnIndex(columns, "DocID")
	if !ok {
		return nil, fmt.Errorf("manifest %d: missing column %q", year, "DocID")
	}

	cycle := utils.CycleForYear(year)
	var rows []models.FilingIdentityRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest %d: failed to read record: %w", year, err)
		}
		filingType := field(record, typeIdx)
		if filingType != "C" && filingType != "O" {
			continue
		}
		docID := field(record, docIdx)
		if docID == "" {
			continue
		}
		rows = append(rows, models.FilingIdentityRow{
			FilingID:  docID,
			Cycle:     cycle,
			District:  utils.NormalizeDistrict(field(record, districtIdx)),
			LastName:  utils.NormalizeName(field(record, lastIdx)),
			FirstName: utils.NormalizeName(field(record, firstIdx)),
		})
	}
	return rows, nil
}

// DedupeIdentityRows drops exact duplicate manifest rows, preserving first
// occurrence order. Concatenated yearly manifests overlap.
func DedupeIdentityRows(rows []models.FilingIdentityRow) []models.FilingIdentityRow {
	seen := make(map[models.FilingIdentityRow]bool, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		if seen[row] {
			continue
		}
		seen[row] = true
		out = append(out, row)
	}
	return out
}

// LoadRegistry reads the canonical campaign-finance registry. First-name
// variants (formal, nickname, ffname) all participate in matching; they get
// the same normalization as the manifest names.
func LoadRegistry(r io.Reader) ([]models.CandidateKey, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("registry: failed to read header: %w", err)
	}
	columns := make(map[string][]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = append(columns[strings.TrimSpace(name)], i)
	}
	need := func(name string) (int, error) {
		idx, ok := columnIndex(columns, name)
		if !ok {
			return 0, fmt.Errorf("registry: missing column %q", name)
		}
		return idx, nil
	}
	ridIdx, err := need("rid")
	if err != nil {
		return nil, err
	}
	cycleIdx, err := need("cycle")
	if err != nil {
		return nil, err
	}
	districtIdx, err := need("district")
	if err != nil {
		return nil, err
	}
	lnameIdx, err := need("lname")
	if err != nil {
		return nil, err
	}
	variantIdxs := make([]int, 0, 3)
	for _, name := range []string{"ffname", "fname", "nname"} {
		if idx, ok := columnIndex(columns, name); ok {
			variantIdxs = append(variantIdxs, idx)
		}
	}
	if len(variantIdxs) == 0 {
		return nil, fmt.Errorf("registry: no first-name variant columns (ffname/fname/nname)")
	}

	var keys []models.CandidateKey
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("registry: failed to read record: %w", err)
		}
		rid := field(record, ridIdx)
		cycle, convErr := parseCycle(field(record, cycleIdx))
		if rid == "" || convErr != nil {
			skipped++
			continue
		}
		variants := make([]string, 0, len(variantIdxs))
		for _, idx := range variantIdxs {
			if v := utils.NormalizeName(field(record, idx)); v != "" && !containsString(variants, v) {
				variants = append(variants, v)
			}
		}
		keys = append(keys, models.CandidateKey{
			RegistryID:        rid,
			Cycle:             cycle,
			District:          utils.NormalizeDistrict(field(record, districtIdx)),
			LastName:          utils.NormalizeName(field(record, lnameIdx)),
			FirstNameVariants: variants,
		})
	}
	if skipped > 0 {
		logger.L.Warn("Skipped registry rows with missing id or unparseable cycle", "count", skipped)
	}
	return keys, nil
}

// parseCycle tolerates float-formatted cycle values ("2018.0").
func parseCycle(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
