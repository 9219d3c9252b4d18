package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treybc/ddrl-honors/src/models"
)

func testRegistry() []models.CandidateKey {
	return []models.CandidateKey{
		{RegistryID: "r1", Cycle: 2018, District: "CA12", LastName: "SMITH", FirstNameVariants: []string{"JOHN", "JOHNATHAN"}},
		{RegistryID: "r2", Cycle: 2018, District: "CA12", LastName: "SMITHSON", FirstNameVariants: []string{"JAMES"}},
		{RegistryID: "r3", Cycle: 2018, District: "CA33", LastName: "GARCIA", FirstNameVariants: []string{"ANA"}},
		{RegistryID: "r4", Cycle: 2018, District: "WY01", LastName: "JOHNSON", FirstNameVariants: []string{"DALE"}},
		{RegistryID: "r5", Cycle: 2020, District: "TX29", LastName: "NGUYEN", FirstNameVariants: []string{"LINH"}},
	}
}

func newTestResolver(provisionalCycles ...int) *IdentityResolver {
	return NewIdentityResolver(NewRegistryIndex(testRegistry()), provisionalCycles)
}

func resolve(r *IdentityResolver, cycle int, district, last, first string) models.CrosswalkEntry {
	return r.Resolve(models.FilingIdentityRow{
		FilingID: "10000001", Cycle: cycle, District: district, LastName: last, FirstName: first,
	})
}

func TestResolveUniqueDistrictMatch(t *testing.T) {
	entry := resolve(newTestResolver(), 2018, "WY01", "JOHNSON", "DALE")
	assert.Equal(t, models.OutcomeMatched, entry.Outcome)
	assert.Equal(t, "r4", entry.RegistryID)
}

func TestResolveLastNameSubstring(t *testing.T) {
	// Extracted surnames are sometimes truncated or a fragment of a
	// compound name; "GARCIA" must still hit "GARCIA" via substring even
	// when the manifest carries the longer form.
	entry := resolve(newTestResolver(), 2018, "CA33", "GARCIA", "ANA")
	assert.Equal(t, models.OutcomeMatched, entry.Outcome)
	assert.Equal(t, "r3", entry.RegistryID)
}

func TestResolveDisambiguatesByFirstName(t *testing.T) {
	r := newTestResolver()

	// "SMITH" is a substring of both CA12 surnames; the first-name variant
	// singles out r1.
	entry := resolve(r, 2018, "CA12", "SMITH", "JOHN")
	assert.Equal(t, models.OutcomeMatched, entry.Outcome)
	assert.Equal(t, "r1", entry.RegistryID)

	// "J" survives against both candidates' variants: still ambiguous.
	entry = resolve(r, 2018, "CA12", "SMITH", "J")
	assert.Equal(t, models.OutcomeDuplicate, entry.Outcome)
	assert.Equal(t, models.RegistryDuplicate, entry.RegistryID)

	// A first name matching neither candidate leaves zero survivors, which
	// is still ambiguity, not a miss.
	entry = resolve(r, 2018, "CA12", "SMITH", "XAVIER")
	assert.Equal(t, models.OutcomeDuplicate, entry.Outcome)
}

func TestResolveWidensToState(t *testing.T) {
	// Candidate moved districts: the manifest says CA12 but the registry
	// lists GARCIA in CA33. Both names must agree state-wide.
	entry := resolve(newTestResolver(), 2018, "CA12", "GARCIA", "ANA")
	assert.Equal(t, models.OutcomeMatched, entry.Outcome)
	assert.Equal(t, "r3", entry.RegistryID)
}

func TestResolveWidensToDistrictFirstNameOnly(t *testing.T) {
	// Badly mangled surname, but the first name is unique in the district.
	entry := resolve(newTestResolver(), 2018, "WY01", "JHNSN", "DALE")
	assert.Equal(t, models.OutcomeMatched, entry.Outcome)
	assert.Equal(t, "r4", entry.RegistryID)
}

func TestResolveMissing(t *testing.T) {
	entry := resolve(newTestResolver(), 2018, "CA12", "ZOLNIEROWICZ", "PAT")
	assert.Equal(t, models.OutcomeMissing, entry.Outcome)
	assert.Equal(t, models.RegistryMissing, entry.RegistryID)
}

func TestResolveEmptyCyclePartition(t *testing.T) {
	r := newTestResolver()
	assert.False(t, r.HasCycle(2014))
	entry := resolve(r, 2014, "CA12", "SMITH", "JOHN")
	assert.Equal(t, models.OutcomeMissing, entry.Outcome)
}

func TestResolveEmptyLastNameNeverMatches(t *testing.T) {
	// A blank surname would be a substring of everything; it must not
	// match by accident.
	entry := resolve(newTestResolver(), 2018, "CA33", "", "")
	assert.Equal(t, models.OutcomeMissing, entry.Outcome)
}

func TestResolverProvisional(t *testing.T) {
	r := newTestResolver(2020)
	assert.True(t, r.Provisional(2020))
	assert.False(t, r.Provisional(2018))
}

func TestRegistryIndexPartitions(t *testing.T) {
	ix := NewRegistryIndex(testRegistry())

	assert.Len(t, ix.District(2018, "CA12"), 2)
	// Second call serves the memoized partition.
	assert.Len(t, ix.District(2018, "CA12"), 2)
	assert.Len(t, ix.State(2018, "CA"), 3)
	assert.Empty(t, ix.District(2018, "TX29"))
	assert.Equal(t, []int{2018, 2020}, ix.Cycles())
}
