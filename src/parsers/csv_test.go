package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treybc/ddrl-honors/src/models"
)

const assetTableFixture = `extracted 2021-03-14
rows: 4
file,asset,value-of-asset,income,income
8000001,Vanguard 500 Index Fund,"$1,001 - $15,000","$1,001 - $2,500","$201 - $1,000"
8000001,Rental property,"$50,001 - $100,000",None,None
8000002 - None disclosed,,,,
8000003,Acme Corp stock,,"$1 - $200","$1 - $200"
`

func TestLoadAssetTable(t *testing.T) {
	items, err := LoadAssetTable(strings.NewReader(assetTableFixture))
	require.NoError(t, err)

	// Two usable rows, each yielding an asset item and an unearned item;
	// the sentinel row and the empty-value row are dropped.
	require.Len(t, items, 4)
	assert.Equal(t, models.RawLineItem{
		FilingID: "8000001", Category: models.CategoryAsset, Amount: "$1,001 - $15,000",
	}, items[0])
	assert.Equal(t, models.RawLineItem{
		FilingID:      "8000001",
		Category:      models.CategoryUnearnedIncome,
		AmountCurrent: "$1,001 - $2,500",
		AmountPrior:   "$201 - $1,000",
	}, items[1])
	assert.Equal(t, models.CategoryAsset, items[2].Category)
	assert.Equal(t, "$50,001 - $100,000", items[2].Amount)
}

func TestLoadAssetTableMissingHeader(t *testing.T) {
	_, err := LoadAssetTable(strings.NewReader("just some text\nwith no header\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row found")
}

func TestLoadLiabilityTable(t *testing.T) {
	fixture := `file,creditor,amount-of-liability
8000001,First Bank,"$10,000 - $15,000"
8000001,Card issuer,
8000002 - None disclosed,,
`
	items, err := LoadLiabilityTable(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.RawLineItem{
		FilingID: "8000001", Category: models.CategoryLiability, Amount: "$10,000 - $15,000",
	}, items[0])
}

func TestLoadEarnedIncomeTable(t *testing.T) {
	fixture := `file,source,type,amount
8000001,State of Ohio,Salary,"$40,000 N/A"
8000002,University,Salary,"$83,000.00"
`
	items, err := LoadEarnedIncomeTable(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, items, 2)

	// The extractor packs both periods into one field; the first space
	// splits year-to-date from prior year.
	assert.Equal(t, "$40,000", items[0].AmountCurrent)
	assert.Equal(t, "N/A", items[0].AmountPrior)
	assert.Equal(t, "$83,000.00", items[1].AmountCurrent)
	assert.Equal(t, "", items[1].AmountPrior)
}

const manifestFixture = "Prefix\tLast\tFirst\tSuffix\tFilingType\tStateDst\tYear\tFilingDate\tDocID\n" +
	"\tSmith\tJohn\t\tO\tCA12\t2018\t5/15/2018\t10000001\n" +
	"\tVela Suárez\tMaria\t\tC\tWY00\t2018\t6/1/2018\t10000002\n" +
	"Hon.\tJones\tRobert\t\tA\tTX29\t2018\t2/3/2018\t10000003\n"

func TestLoadManifest(t *testing.T) {
	rows, err := LoadManifest(strings.NewReader(manifestFixture), 2017)
	require.NoError(t, err)

	// The amendment ("A") filing is out of scope; names are normalized and
	// the at-large district renumbered.
	require.Len(t, rows, 2)
	assert.Equal(t, models.FilingIdentityRow{
		FilingID: "10000001", Cycle: 2018, District: "CA12", LastName: "SMITH", FirstName: "JOHN",
	}, rows[0])
	assert.Equal(t, models.FilingIdentityRow{
		FilingID: "10000002", Cycle: 2018, District: "WY01", LastName: "VELASUAREZ", FirstName: "MARIA",
	}, rows[1])
}

func TestDedupeIdentityRows(t *testing.T) {
	row := models.FilingIdentityRow{FilingID: "10000001", Cycle: 2018, District: "CA12", LastName: "SMITH", FirstName: "JOHN"}
	other := row
	other.FilingID = "10000002"
	out := DedupeIdentityRows([]models.FilingIdentityRow{row, other, row})
	assert.Equal(t, []models.FilingIdentityRow{row, other}, out)
}

func TestLoadRegistry(t *testing.T) {
	fixture := `rid,cycle,district,lname,fname,ffname,nname
r100,2018,CA12,Smith,John,Johnathan,Jack
r101,2018.0,WY00,Vela Suárez,Maria,Maria,
,2018,TX29,Broken,,,
r102,unknown,TX29,Broken,,,
`
	keys, err := LoadRegistry(strings.NewReader(fixture))
	require.NoError(t, err)

	// The two rows with a missing id or an unparseable cycle are skipped;
	// a float-formatted cycle is tolerated.
	require.Len(t, keys, 2)
	assert.Equal(t, models.CandidateKey{
		RegistryID: "r100", Cycle: 2018, District: "CA12", LastName: "SMITH",
		FirstNameVariants: []string{"JOHNATHAN", "JOHN", "JACK"},
	}, keys[0])
	assert.Equal(t, models.CandidateKey{
		RegistryID: "r101", Cycle: 2018, District: "WY01", LastName: "VELASUAREZ",
		FirstNameVariants: []string{"MARIA"},
	}, keys[1])
}
