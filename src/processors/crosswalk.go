package processors

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/treybc/ddrl-honors/src/logger"
	"github.com/treybc/ddrl-honors/src/models"
	"github.com/treybc/ddrl-honors/src/utils"
)

// StructuralError reports a supported, non-provisional cycle with no
// registry rows at all. Silent MISSING rows across a whole cycle have
// historically meant an upstream normalization bug, so the run aborts
// before resolving anything.
type StructuralError struct {
	Cycle int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("registry has no rows for supported cycle %d; refusing to emit a cycle of missing matches", e.Cycle)
}

// MatchStats accumulates match-quality counters for one run. It is a plain
// value threaded through resolution (no hidden globals) and merges, so row
// shards can be resolved in parallel.
type MatchStats struct {
	Matched              int
	Missing              int
	Duplicate            int
	ProvisionalUnmatched int
	MissingDistricts     map[string]bool
}

func NewMatchStats() MatchStats {
	return MatchStats{MissingDistricts: make(map[string]bool)}
}

// Record tallies one resolved entry. Provisional-cycle non-matches are
// tolerated: counted separately and excluded from the problem-district set.
func (s *MatchStats) Record(entry models.CrosswalkEntry, district string, provisional bool) {
	switch entry.Outcome {
	case models.OutcomeMatched:
		s.Matched++
	case models.OutcomeMissing:
		if provisional {
			s.ProvisionalUnmatched++
			return
		}
		s.Missing++
		s.MissingDistricts[district] = true
	case models.OutcomeDuplicate:
		if provisional {
			s.ProvisionalUnmatched++
			return
		}
		s.Duplicate++
	}
}

// Merge folds another shard's counters into s.
func (s *MatchStats) Merge(other MatchStats) {
	s.Matched += other.Matched
	s.Missing += other.Missing
	s.Duplicate += other.Duplicate
	s.ProvisionalUnmatched += other.ProvisionalUnmatched
	for district := range other.MissingDistricts {
		s.MissingDistricts[district] = true
	}
}

// Report converts the counters into the operator-facing summary.
func (s *MatchStats) Report() models.CrosswalkReport {
	districts := make([]string, 0, len(s.MissingDistricts))
	for district := range s.MissingDistricts {
		districts = append(districts, district)
	}
	sort.Strings(districts)
	return models.CrosswalkReport{
		Matched:              s.Matched,
		Missing:              s.Missing,
		Duplicate:            s.Duplicate,
		ProvisionalUnmatched: s.ProvisionalUnmatched,
		MissingDistricts:     districts,
	}
}

// CrosswalkBuilder drives the resolver over every manifest row, dedupes the
// matched mapping, and reports aggregate match quality. One builder serves
// one run; concurrent runs need independent builders.
type CrosswalkBuilder struct {
	resolver  Resolver
	supported map[int]bool
	workers   int
}

func NewCrosswalkBuilder(resolver Resolver, supportedCycles []int, workers int) *CrosswalkBuilder {
	supported := make(map[int]bool, len(supportedCycles))
	for _, cycle := range supportedCycles {
		supported[cycle] = true
	}
	if workers < 1 {
		workers = 1
	}
	return &CrosswalkBuilder{resolver: resolver, supported: supported, workers: workers}
}

// Build resolves every row and returns the deduped crosswalk plus the
// summary report. Rows are independent, so shards resolve in parallel and
// their stats merge afterwards; the output order is deterministic
// regardless of scheduling.
func (b *CrosswalkBuilder) Build(ctx context.Context, rows []models.FilingIdentityRow) ([]models.CrosswalkEntry, models.CrosswalkReport, error) {
	if err := b.checkRegistryCoverage(rows); err != nil {
		return nil, models.CrosswalkReport{}, err
	}

	entries := make([]models.CrosswalkEntry, len(rows))
	shardStats := make([]MatchStats, b.workers)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(rows) + b.workers - 1) / b.workers
	for w := 0; w < b.workers; w++ {
		start := w * chunk
		if start >= len(rows) {
			break
		}
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		w := w
		g.Go(func() error {
			stats := NewMatchStats()
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				row := rows[i]
				entry := b.resolver.Resolve(row)
				entries[i] = entry
				stats.Record(entry, row.District, b.resolver.Provisional(row.Cycle))
			}
			shardStats[w] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, models.CrosswalkReport{}, err
	}

	stats := NewMatchStats()
	for _, shard := range shardStats {
		if shard.MissingDistricts != nil {
			stats.Merge(shard)
		}
	}

	deduped := dedupeEntries(entries)
	report := stats.Report()
	logger.L.Info("Crosswalk built",
		"rows", len(rows),
		"entries", len(deduped),
		"matched", report.Matched,
		"missing", report.Missing,
		"duplicate", report.Duplicate,
		"provisionalUnmatched", report.ProvisionalUnmatched,
		"missingDistricts", len(report.MissingDistricts))
	return deduped, report, nil
}

// checkRegistryCoverage aborts when a supported, non-provisional cycle in
// the manifest has no registry rows at all. Cycles outside the supported
// set simply resolve to MISSING row by row; some cycles are known to be
// incomplete.
func (b *CrosswalkBuilder) checkRegistryCoverage(rows []models.FilingIdentityRow) error {
	seen := make(map[int]bool)
	for _, row := range rows {
		seen[row.Cycle] = true
	}
	cycles := make([]int, 0, len(seen))
	for cycle := range seen {
		cycles = append(cycles, cycle)
	}
	sort.Ints(cycles)
	for _, cycle := range cycles {
		if !b.supported[cycle] || b.resolver.Provisional(cycle) {
			continue
		}
		if !b.resolver.HasCycle(cycle) {
			return &StructuralError{Cycle: cycle}
		}
	}
	return nil
}

// dedupeEntries keeps at most one filing per (registry id, cycle) among the
// matched entries, preferring the most recent filing (largest doc id, which
// increases with filing date). Sentinel rows all survive; collapsing them
// would hide distinct unresolved filings. Output is sorted for byte-stable
// reruns.
func dedupeEntries(entries []models.CrosswalkEntry) []models.CrosswalkEntry {
	type identityCycle struct {
		registryID string
		cycle      int
	}
	best := make(map[identityCycle]models.CrosswalkEntry)
	var out []models.CrosswalkEntry
	for _, entry := range entries {
		if entry.Outcome != models.OutcomeMatched {
			out = append(out, entry)
			continue
		}
		key := identityCycle{entry.RegistryID, entry.Cycle}
		if existing, ok := best[key]; !ok || utils.FilingIDLess(existing.FilingID, entry.FilingID) {
			best[key] = entry
		}
	}
	for _, entry := range best {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cycle != out[j].Cycle {
			return out[i].Cycle < out[j].Cycle
		}
		if out[i].FilingID != out[j].FilingID {
			return utils.FilingIDLess(out[i].FilingID, out[j].FilingID)
		}
		return out[i].RegistryID < out[j].RegistryID
	})
	return out
}
