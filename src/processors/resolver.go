package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/treybc/ddrl-honors/src/models"
)

// RegistryIndex holds the canonical registry partitioned by cycle.
// Per-(cycle, district) and per-(cycle, state) subsets are computed lazily
// and memoized: a district's filings arrive in bursts, and the cache is
// safe under parallel resolution.
type RegistryIndex struct {
	byCycle    map[int][]models.CandidateKey
	partitions *cache.Cache
}

func NewRegistryIndex(keys []models.CandidateKey) *RegistryIndex {
	byCycle := make(map[int][]models.CandidateKey)
	for _, key := range keys {
		byCycle[key.Cycle] = append(byCycle[key.Cycle], key)
	}
	return &RegistryIndex{
		byCycle:    byCycle,
		partitions: cache.New(cache.NoExpiration, 0),
	}
}

// HasCycle reports whether the registry has any rows for the cycle.
func (ix *RegistryIndex) HasCycle(cycle int) bool {
	return len(ix.byCycle[cycle]) > 0
}

// Cycles returns every cycle the registry covers, sorted.
func (ix *RegistryIndex) Cycles() []int {
	cycles := make([]int, 0, len(ix.byCycle))
	for cycle := range ix.byCycle {
		cycles = append(cycles, cycle)
	}
	sort.Ints(cycles)
	return cycles
}

// District returns the candidates for an exact (cycle, district) pair.
func (ix *RegistryIndex) District(cycle int, district string) []models.CandidateKey {
	key := fmt.Sprintf("d|%d|%s", cycle, district)
	if cached, found := ix.partitions.Get(key); found {
		return cached.([]models.CandidateKey)
	}
	var subset []models.CandidateKey
	for _, candidate := range ix.byCycle[cycle] {
		if candidate.District == district {
			subset = append(subset, candidate)
		}
	}
	ix.partitions.Set(key, subset, cache.NoExpiration)
	return subset
}

// State returns the candidates whose district starts with the two-letter
// state prefix for the cycle.
func (ix *RegistryIndex) State(cycle int, state string) []models.CandidateKey {
	key := fmt.Sprintf("s|%d|%s", cycle, state)
	if cached, found := ix.partitions.Get(key); found {
		return cached.([]models.CandidateKey)
	}
	var subset []models.CandidateKey
	for _, candidate := range ix.byCycle[cycle] {
		if strings.HasPrefix(candidate.District, state) {
			subset = append(subset, candidate)
		}
	}
	ix.partitions.Set(key, subset, cache.NoExpiration)
	return subset
}

// IdentityResolver matches filing rows to registry identities with a
// cascade of widening heuristics. Last names match by substring, not
// equality: extracted name fields are sometimes truncated or compound, and
// the district+cycle constraint keeps false positives rare. The tier order
// mirrors the source data's actual failure patterns (candidates who moved
// districts mid-cycle, at-large numbering mismatches) rather than a generic
// fuzzy matcher.
type IdentityResolver struct {
	index       *RegistryIndex
	provisional map[int]bool
}

// NewIdentityResolver builds a resolver. Non-matches in provisional cycles
// are tolerated without being flagged; no canonical registry data exists
// yet for in-progress cycles.
func NewIdentityResolver(index *RegistryIndex, provisionalCycles []int) *IdentityResolver {
	provisional := make(map[int]bool, len(provisionalCycles))
	for _, cycle := range provisionalCycles {
		provisional[cycle] = true
	}
	return &IdentityResolver{index: index, provisional: provisional}
}

// Provisional reports whether non-matches in the cycle are tolerated.
func (r *IdentityResolver) Provisional(cycle int) bool {
	return r.provisional[cycle]
}

// HasCycle reports whether the registry covers the cycle at all.
func (r *IdentityResolver) HasCycle(cycle int) bool {
	return r.index.HasCycle(cycle)
}

// Resolve classifies one filing row. The strategies run in order and the
// first definite outcome wins:
//
//  1. exact district + last-name substring; a unique hit matches, multiple
//     hits go to disambiguation, zero hits widen;
//  2. state-wide last+first match, then same-district first-name-only
//     match; a unique hit matches, anything else is MISSING;
//  3. disambiguation of multiple tier-1 hits by first-name variant; a
//     unique survivor matches, zero or several is DUPLICATE.
func (r *IdentityResolver) Resolve(row models.FilingIdentityRow) models.CrosswalkEntry {
	entry := models.CrosswalkEntry{FilingID: row.FilingID, Cycle: row.Cycle}

	districtSet := r.index.District(row.Cycle, row.District)
	hits := filterCandidates(districtSet, lastNameMatches(row.LastName))

	switch {
	case len(hits) == 1:
		entry.RegistryID = hits[0].RegistryID
		entry.Outcome = models.OutcomeMatched

	case len(hits) == 0:
		if matched, rid := r.widen(row, districtSet); matched {
			entry.RegistryID = rid
			entry.Outcome = models.OutcomeMatched
		} else {
			entry.RegistryID = models.RegistryMissing
			entry.Outcome = models.OutcomeMissing
		}

	default:
		survivors := filterCandidates(hits, firstNameMatches(row.FirstName))
		if len(survivors) == 1 {
			entry.RegistryID = survivors[0].RegistryID
			entry.Outcome = models.OutcomeMatched
		} else {
			// Ambiguity is not resolved automatically; downstream consumers
			// disambiguate manually or accept the loss of this row.
			entry.RegistryID = models.RegistryDuplicate
			entry.Outcome = models.OutcomeDuplicate
		}
	}
	return entry
}

// widen is the zero-hit fallback: match over the whole state on both names,
// then over the original district on first name alone.
func (r *IdentityResolver) widen(row models.FilingIdentityRow, districtSet []models.CandidateKey) (bool, string) {
	if len(row.District) >= 2 {
		stateSet := r.index.State(row.Cycle, row.District[:2])
		hits := filterCandidates(stateSet, func(c models.CandidateKey) bool {
			return lastNameMatches(row.LastName)(c) && firstNameMatches(row.FirstName)(c)
		})
		if len(hits) == 1 {
			return true, hits[0].RegistryID
		}
	}
	hits := filterCandidates(districtSet, firstNameMatches(row.FirstName))
	if len(hits) == 1 {
		return true, hits[0].RegistryID
	}
	return false, ""
}

func filterCandidates(candidates []models.CandidateKey, keep func(models.CandidateKey) bool) []models.CandidateKey {
	var out []models.CandidateKey
	for _, c := range candidates {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func lastNameMatches(last string) func(models.CandidateKey) bool {
	return func(c models.CandidateKey) bool {
		return last != "" && strings.Contains(c.LastName, last)
	}
}

func firstNameMatches(first string) func(models.CandidateKey) bool {
	return func(c models.CandidateKey) bool {
		if first == "" {
			return false
		}
		for _, variant := range c.FirstNameVariants {
			if strings.Contains(variant, first) {
				return true
			}
		}
		return false
	}
}
