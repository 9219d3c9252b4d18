package processors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treybc/ddrl-honors/src/models"
)

func newTestBuilder(keys []models.CandidateKey, supported, provisional []int) *CrosswalkBuilder {
	resolver := NewIdentityResolver(NewRegistryIndex(keys), provisional)
	return NewCrosswalkBuilder(resolver, supported, 3)
}

func identityRow(filingID string, cycle int, district, last, first string) models.FilingIdentityRow {
	return models.FilingIdentityRow{
		FilingID: filingID, Cycle: cycle, District: district, LastName: last, FirstName: first,
	}
}

func TestBuildDedupesRepeatFilers(t *testing.T) {
	b := newTestBuilder(testRegistry(), []int{2018}, nil)
	rows := []models.FilingIdentityRow{
		identityRow("10000001", 2018, "WY01", "JOHNSON", "DALE"),
		identityRow("10000002", 2018, "WY01", "JOHNSON", "DALE"),
	}

	entries, report, err := b.Build(context.Background(), rows)
	require.NoError(t, err)

	// One identity, two filings: the later doc id wins. The report counts
	// rows as resolved, before deduplication.
	require.Len(t, entries, 1)
	assert.Equal(t, "10000002", entries[0].FilingID)
	assert.Equal(t, "r4", entries[0].RegistryID)
	assert.Equal(t, 2, report.Matched)
}

func TestBuildKeepsSentinelRows(t *testing.T) {
	b := newTestBuilder(testRegistry(), []int{2018}, nil)
	rows := []models.FilingIdentityRow{
		identityRow("10000001", 2018, "CA33", "UNKNOWN", "NOBODY"),
		identityRow("10000002", 2018, "CA33", "UNKNOWN", "NOBODY"),
		identityRow("10000003", 2018, "CA12", "SMITH", "J"),
	}

	entries, report, err := b.Build(context.Background(), rows)
	require.NoError(t, err)

	// Sentinels are never collapsed; each unresolved filing stays visible.
	require.Len(t, entries, 3)
	assert.Equal(t, models.RegistryMissing, entries[0].RegistryID)
	assert.Equal(t, models.RegistryMissing, entries[1].RegistryID)
	assert.Equal(t, models.RegistryDuplicate, entries[2].RegistryID)
	assert.Equal(t, 2, report.Missing)
	assert.Equal(t, 1, report.Duplicate)
	assert.Equal(t, []string{"CA33"}, report.MissingDistricts)
}

func TestBuildProvisionalCycle(t *testing.T) {
	// No 2022 registry data exists; the cycle is provisional, so its
	// non-matches are tolerated and kept out of the problem-district set.
	b := newTestBuilder(testRegistry(), []int{2018, 2022}, []int{2022})
	rows := []models.FilingIdentityRow{
		identityRow("10000001", 2022, "CA12", "SMITH", "JOHN"),
	}

	entries, report, err := b.Build(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RegistryMissing, entries[0].RegistryID)
	assert.Equal(t, 1, report.ProvisionalUnmatched)
	assert.Equal(t, 0, report.Missing)
	assert.Empty(t, report.MissingDistricts)
}

func TestBuildRejectsEmptySupportedCycle(t *testing.T) {
	b := newTestBuilder(nil, []int{2018}, nil)
	rows := []models.FilingIdentityRow{
		identityRow("10000001", 2018, "CA12", "SMITH", "JOHN"),
	}

	_, _, err := b.Build(context.Background(), rows)
	require.Error(t, err)
	var structural *StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Equal(t, 2018, structural.Cycle)
}

func TestBuildToleratesUnsupportedCycle(t *testing.T) {
	// 2014 is outside the supported set: its rows resolve to MISSING one
	// by one instead of aborting the run.
	b := newTestBuilder(testRegistry(), []int{2018}, nil)
	rows := []models.FilingIdentityRow{
		identityRow("10000001", 2014, "CA12", "SMITH", "JOHN"),
	}

	entries, report, err := b.Build(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RegistryMissing, entries[0].RegistryID)
	assert.Equal(t, 1, report.Missing)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := newTestBuilder(testRegistry(), []int{2018, 2020}, nil)
	rows := []models.FilingIdentityRow{
		identityRow("10000005", 2018, "CA12", "SMITH", "JOHN"),
		identityRow("10000001", 2020, "TX29", "NGUYEN", "LINH"),
		identityRow("10000003", 2018, "WY01", "JOHNSON", "DALE"),
		identityRow("10000002", 2018, "CA33", "GARCIA", "ANA"),
		identityRow("10000004", 2018, "CA33", "UNKNOWN", "NOBODY"),
	}

	first, firstReport, err := b.Build(context.Background(), rows)
	require.NoError(t, err)
	second, secondReport, err := b.Build(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)

	// Sorted by cycle, then numeric-style filing id order.
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Cycle, first[i].Cycle)
	}
	assert.Equal(t, 4, firstReport.Matched)
	assert.Equal(t, 1, firstReport.Missing)
}

func TestBuildCancelledContext(t *testing.T) {
	b := newTestBuilder(testRegistry(), []int{2018}, nil)
	rows := make([]models.FilingIdentityRow, 100)
	for i := range rows {
		rows[i] = identityRow("10000001", 2018, "WY01", "JOHNSON", "DALE")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := b.Build(ctx, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchStatsMerge(t *testing.T) {
	a := NewMatchStats()
	a.Record(models.CrosswalkEntry{Outcome: models.OutcomeMatched}, "CA12", false)
	a.Record(models.CrosswalkEntry{Outcome: models.OutcomeMissing}, "CA33", false)

	b := NewMatchStats()
	b.Record(models.CrosswalkEntry{Outcome: models.OutcomeMissing}, "WY01", false)
	b.Record(models.CrosswalkEntry{Outcome: models.OutcomeDuplicate}, "WY01", true)

	a.Merge(b)
	report := a.Report()
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 2, report.Missing)
	assert.Equal(t, 0, report.Duplicate)
	assert.Equal(t, 1, report.ProvisionalUnmatched)
	assert.Equal(t, []string{"CA33", "WY01"}, report.MissingDistricts)
}
